package engine

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/magfest/radioman/internal/inventory"
)

// Persister flushes the full inventory snapshot to durable storage. The
// engine calls it after every committed transition so a crash between
// transitions never loses more than the in-flight operation.
type Persister interface {
	Save() error
}

// LineWriter appends one record to a plain-text transition log, one field
// per column.
type LineWriter interface {
	Append(fields ...string) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the timestamp source. Tests use a deterministic
// clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine runs checkout and return transitions against a single store.
type Engine struct {
	store   *inventory.Store
	persist Persister
	log     LineWriter
	now     func() time.Time
}

// New creates an engine. persist and log must be non-nil; wire no-op
// implementations where durability is not wanted.
func New(store *inventory.Store, persist Persister, log LineWriter, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		persist: persist,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckoutRequest carries everything a checkout transition needs.
type CheckoutRequest struct {
	RadioID    string
	Department string
	Borrower   string
	Badge      string
	Barcode    string
	Headset    bool
}

// Checkout transitions a radio from available to loaned.
//
// Rules, in order, each bypassed only by its own override kind:
//  1. unknown radio id (inventory.NotFoundError, never overridable)
//  2. radio already checked out (ALLOW_DOUBLE_CHECKOUT)
//  3. headset wanted but pool empty (ALLOW_NEGATIVE_HEADSETS)
//  4. department unknown, or at its headset limit (ALLOW_DEPARTMENT_OVERDRAFT)
func (e *Engine) Checkout(req CheckoutRequest, ov Overrides) (*inventory.Radio, error) {
	radio, err := e.store.Get(req.RadioID)
	if err != nil {
		return nil, err
	}

	if radio.Status == inventory.CheckedOut && !ov.Has(AllowDoubleCheckout) {
		return nil, &RuleError{
			Rule:     RuleRadioUnavailable,
			Override: AllowDoubleCheckout,
			RadioID:  req.RadioID,
			Message:  "radio is already checked out",
		}
	}

	if req.Headset && e.store.Headsets() <= 0 && !ov.Has(AllowNegativeHeadsets) {
		return nil, &RuleError{
			Rule:     RuleHeadsetUnavailable,
			Override: AllowNegativeHeadsets,
			RadioID:  req.RadioID,
			Message:  "no headsets left",
		}
	}

	if err := e.checkDepartment(req, ov); err != nil {
		return nil, err
	}

	now := e.now()
	snap := inventory.Checkout{
		Status:     inventory.CheckedOut,
		Time:       now,
		Borrower:   req.Borrower,
		Badge:      req.Badge,
		Barcode:    req.Barcode,
		Department: req.Department,
		Headset:    req.Headset,
	}
	radio.Status = inventory.CheckedOut
	radio.LastActivity = now
	radio.Checkout = snap
	radio.History = append(radio.History, snap)
	e.store.Upsert(req.RadioID, radio)

	if req.Headset {
		e.store.TakeHeadset()
	}

	e.logTransition(inventory.CheckedOut, now, req.RadioID, req.Borrower, req.Badge, req.Department, req.Headset)
	if err := e.persist.Save(); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	return radio, nil
}

// checkDepartment enforces the quota rule. An unknown department is itself
// a violation (the session offers to add it), and a finite limit compares
// against the department's current headset checkouts, whether or not this
// checkout wants a headset.
func (e *Engine) checkDepartment(req CheckoutRequest, ov Overrides) error {
	if ov.Has(AllowDepartmentOverdraft) {
		return nil
	}
	limit, known := e.store.DepartmentLimit(req.Department)
	if !known {
		return &RuleError{
			Rule:     RuleDepartmentOverLimit,
			Override: AllowDepartmentOverdraft,
			RadioID:  req.RadioID,
			Message:  fmt.Sprintf("department %q does not exist", req.Department),
		}
	}
	if limit.Unlimited {
		return nil
	}
	if _, headsetsOut := e.store.DepartmentTotals(req.Department); headsetsOut >= limit.Max {
		return &RuleError{
			Rule:     RuleDepartmentOverLimit,
			Override: AllowDepartmentOverdraft,
			RadioID:  req.RadioID,
			Message:  fmt.Sprintf("department %q would exceed its checkout limit of %d", req.Department, limit.Max),
		}
	}
	return nil
}

// ReturnRequest carries everything a return transition needs. Headset
// reports whether the borrower is handing a headset back.
type ReturnRequest struct {
	RadioID  string
	Borrower string
	Badge    string
	Barcode  string
	Headset  bool
}

// Return transitions a radio from loaned back to available.
//
// Rules, in order:
//  1. unknown radio id (inventory.NotFoundError, never overridable)
//  2. radio already checked in (ALLOW_DOUBLE_RETURN)
//  3. loaned with a headset, none returned (ALLOW_MISSING_HEADSET)
//  4. loaned without a headset, one returned (ALLOW_EXTRA_HEADSET)
//  5. returner is not the recorded borrower (ALLOW_WRONG_PERSON)
func (e *Engine) Return(req ReturnRequest, ov Overrides) (*inventory.Radio, error) {
	radio, err := e.store.Get(req.RadioID)
	if err != nil {
		return nil, err
	}

	if radio.Status == inventory.CheckedIn && !ov.Has(AllowDoubleReturn) {
		return nil, &RuleError{
			Rule:     RuleNotCheckedOut,
			Override: AllowDoubleReturn,
			RadioID:  req.RadioID,
			Message:  "radio was already checked in",
		}
	}

	if radio.Checkout.Headset && !req.Headset && !ov.Has(AllowMissingHeadset) {
		return nil, &RuleError{
			Rule:     RuleHeadsetRequired,
			Override: AllowMissingHeadset,
			RadioID:  req.RadioID,
			Message:  "radio was checked out with a headset",
		}
	}

	if req.Headset && !radio.Checkout.Headset && !ov.Has(AllowExtraHeadset) {
		return nil, &RuleError{
			Rule:     RuleUnexpectedHeadset,
			Override: AllowExtraHeadset,
			RadioID:  req.RadioID,
			Message:  "radio was not checked out with a headset",
		}
	}

	if !sameName(req.Borrower, radio.Checkout.Borrower) && !ov.Has(AllowWrongPerson) {
		return nil, &RuleError{
			Rule:     RuleWrongPerson,
			Override: AllowWrongPerson,
			RadioID:  req.RadioID,
			Message:  fmt.Sprintf("radio was checked out by %q", radio.Checkout.Borrower),
		}
	}

	now := e.now()
	snap := inventory.Checkout{
		Status:   inventory.CheckedIn,
		Time:     now,
		Borrower: req.Borrower,
		Barcode:  req.Barcode,
	}
	radio.Status = inventory.CheckedIn
	radio.LastActivity = now
	radio.Checkout = snap
	radio.History = append(radio.History, snap)
	e.store.Upsert(req.RadioID, radio)

	if req.Headset {
		e.store.ReturnHeadset()
	}

	e.logTransition(inventory.CheckedIn, now, req.RadioID, req.Borrower, "", "", req.Headset)
	if err := e.persist.Save(); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	return radio, nil
}

// sameName compares borrower names under NFC normalization so the same
// name typed with different Unicode compositions still matches. Empty on
// both sides counts as a match.
func sameName(a, b string) bool {
	return norm.NFC.String(a) == norm.NFC.String(b)
}

// logTransition appends one comma-separated line to the plain-text
// transition log. Log failures do not block the transition; the JSON
// snapshot remains the source of truth.
func (e *Engine) logTransition(status inventory.Status, t time.Time, id, borrower, badge, dept string, headset bool) {
	_ = e.log.Append(
		string(status),
		t.Format(time.RFC3339),
		id,
		borrower,
		badge,
		dept,
		strconv.FormatBool(headset),
	)
}
