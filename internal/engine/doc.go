// Package engine implements the checkout/return state machine.
//
// Each transition evaluates its business rules in a fixed order and reports
// only the first unsatisfied, non-overridden rule as a RuleError carrying
// the OverrideKind that would bypass it. The caller (the interactive
// session) is expected to authorize that single override, record it on the
// audit ledger, and retry the same transition with the override applied.
// Rules are deliberately surfaced one at a time so every waiver is
// individually justified and individually logged.
//
// A transition only commits once all rules pass: the radio record is
// updated, the headset pool adjusted, a transition log line appended, and
// the full snapshot flushed. There is no partial commit.
package engine
