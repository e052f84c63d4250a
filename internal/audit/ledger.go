// Package audit keeps the permanent record of every rule waiver. Entries
// are append-only; nothing in this package can edit or delete one.
package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magfest/radioman/internal/engine"
)

// Entry is one recorded override. Immutable once appended; this is the
// compliance trail.
type Entry struct {
	ID          string              `json:"id"`
	Time        time.Time           `json:"time"`
	Kind        engine.OverrideKind `json:"type"`
	RadioID     string              `json:"radio"`
	Borrower    string              `json:"borrower"`
	Operator    string              `json:"lender"`
	Description string              `json:"description"`
}

// LineWriter appends one record to the plain-text audit log.
type LineWriter interface {
	Append(fields ...string) error
}

// Ledger is the append-only override log for one event, plus the
// last-known-operator value used to pre-fill the next operator prompt.
type Ledger struct {
	entries      []Entry
	lastOperator string
	log          LineWriter
	now          func() time.Time
}

// NewLedger creates a ledger writing plain-text lines to log.
func NewLedger(log LineWriter) *Ledger {
	return &Ledger{log: log, now: time.Now}
}

// WithClock overrides the timestamp source, for tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Record appends an override entry. It always succeeds as far as the
// in-memory trail is concerned; a plain-text log write failure does not
// lose the entry, which still reaches durable storage with the next
// snapshot flush.
func (l *Ledger) Record(kind engine.OverrideKind, radioID, borrower, operator, description string) Entry {
	e := Entry{
		ID:          uuid.NewString(),
		Time:        l.now(),
		Kind:        kind,
		RadioID:     radioID,
		Borrower:    borrower,
		Operator:    operator,
		Description: description,
	}
	l.entries = append(l.entries, e)
	l.lastOperator = operator

	_ = l.log.Append(
		string(kind),
		e.Time.Format(time.RFC3339),
		radioID,
		borrower,
		operator,
		escapeField(description),
	)
	return e
}

// Entries returns a copy of the trail, oldest first.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// LastOperator returns the operator named on the most recent entry, or ""
// if no override has been recorded yet.
func (l *Ledger) LastOperator() string {
	return l.lastOperator
}

// Restore replaces the trail with entries loaded from a snapshot.
func (l *Ledger) Restore(entries []Entry) {
	l.entries = make([]Entry, len(entries))
	copy(l.entries, entries)
	if n := len(l.entries); n > 0 {
		l.lastOperator = l.entries[n-1].Operator
	}
}

// escapeField keeps free-text descriptions from breaking the
// comma-separated log format.
func escapeField(s string) string {
	return strings.ReplaceAll(s, ",", `\,`)
}
