package engine

import (
	"errors"
	"fmt"
)

// OverrideKind names exactly one business rule an operator may waive for
// one transition attempt. The string values are stable: they appear in the
// persisted audit trail and the plain-text audit log.
type OverrideKind string

const (
	AllowDoubleCheckout      OverrideKind = "ALLOW_DOUBLE_CHECKOUT"
	AllowDoubleReturn        OverrideKind = "ALLOW_DOUBLE_RETURN"
	AllowMissingHeadset      OverrideKind = "ALLOW_MISSING_HEADSET"
	AllowExtraHeadset        OverrideKind = "ALLOW_EXTRA_HEADSET"
	AllowNegativeHeadsets    OverrideKind = "ALLOW_NEGATIVE_HEADSETS"
	AllowDepartmentOverdraft OverrideKind = "ALLOW_DEPARTMENT_OVERDRAFT"
	AllowWrongPerson         OverrideKind = "ALLOW_WRONG_PERSON"
)

// Kinds lists every override kind, in rule-evaluation order across both
// transitions. Used by the CLI to validate --override flags.
var Kinds = []OverrideKind{
	AllowDoubleCheckout,
	AllowNegativeHeadsets,
	AllowDepartmentOverdraft,
	AllowDoubleReturn,
	AllowMissingHeadset,
	AllowExtraHeadset,
	AllowWrongPerson,
}

// ParseOverrideKind validates a string against the known kinds.
func ParseOverrideKind(s string) (OverrideKind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown override kind %q", s)
}

// Rule identifies a violated business rule.
type Rule string

const (
	RuleRadioUnavailable    Rule = "RADIO_UNAVAILABLE"
	RuleHeadsetUnavailable  Rule = "HEADSET_UNAVAILABLE"
	RuleDepartmentOverLimit Rule = "DEPARTMENT_OVER_LIMIT"
	RuleNotCheckedOut       Rule = "NOT_CHECKED_OUT"
	RuleHeadsetRequired     Rule = "HEADSET_REQUIRED"
	RuleUnexpectedHeadset   Rule = "UNEXPECTED_HEADSET"
	RuleWrongPerson         Rule = "WRONG_PERSON"
)

// RuleError reports the first business rule a transition attempt violated.
//
// Override is the one kind that bypasses this rule on retry. Callers
// pattern-match with errors.As rather than on the message; Message is the
// human-readable reason surfaced verbatim to the operator before any
// override decision.
type RuleError struct {
	Rule     Rule
	Override OverrideKind
	RadioID  string
	Message  string
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	return fmt.Sprintf("%s (radio %s)", e.Message, e.RadioID)
}

// AsRuleError unwraps err to a RuleError if it is one.
func AsRuleError(err error) (*RuleError, bool) {
	var re *RuleError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// Overrides is the set of rule waivers active for a single transition
// attempt. Always construct a fresh set per logical action; the session
// accumulates kinds across retries of one action only, never across
// unrelated actions.
type Overrides map[OverrideKind]struct{}

// NewOverrides builds a set from the given kinds.
func NewOverrides(kinds ...OverrideKind) Overrides {
	o := make(Overrides, len(kinds))
	for _, k := range kinds {
		o.Add(k)
	}
	return o
}

// Add puts a kind into the set.
func (o Overrides) Add(k OverrideKind) {
	o[k] = struct{}{}
}

// Has reports whether a kind is active.
func (o Overrides) Has(k OverrideKind) bool {
	_, ok := o[k]
	return ok
}
