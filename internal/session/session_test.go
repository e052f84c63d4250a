package session

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magfest/radioman/internal/audit"
	"github.com/magfest/radioman/internal/engine"
	"github.com/magfest/radioman/internal/identity"
	"github.com/magfest/radioman/internal/inventory"
	"github.com/magfest/radioman/internal/testutil"
)

type fixture struct {
	store  *inventory.Store
	ledger *audit.Ledger
	eng    *engine.Engine
	saves  *testutil.SaveCounter
	out    bytes.Buffer
}

// script runs a whole session against the given operator input. Input
// lines are consumed by the menu loop until they run out, which ends the
// session like end-of-input at a terminal.
func (f *fixture) script(t *testing.T, input string) string {
	t.Helper()
	sess := New(strings.NewReader(input), &f.out, f.store, f.eng, f.ledger, identity.NewResolver(nil))
	require.NoError(t, sess.Run(context.Background()))
	return f.out.String()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	f.store = inventory.NewStore()
	f.store.AddRadio("1")
	f.store.AddRadio("2")
	f.store.AddDepartment("Tech", inventory.Unlimited)
	f.store.AddDepartment("Ops", inventory.LimitOf(1))
	f.store.SetHeadsets(2)
	f.store.SetHeadsetTotal(2)

	f.ledger = audit.NewLedger(&testutil.RecordingLog{})
	f.saves = &testutil.SaveCounter{}
	clock := testutil.NewClock(time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC), time.Minute)
	f.eng = engine.New(f.store, f.saves, &testutil.RecordingLog{}, engine.WithClock(clock.Now))
	return f
}

// TestSession_CheckoutHappyPath tests a clean checkout with no overrides.
func TestSession_CheckoutHappyPath(t *testing.T) {
	f := newFixture(t)

	out := f.script(t, strings.Join([]string{
		"1",     // action: check out
		"1",     // radio id
		"Tech",  // department
		"y",     // headset
		"Alice", // borrower
		"x",     // exit
	}, "\n"))

	assert.Contains(t, out, "Checked out radio 1 to Alice")
	radio, err := f.store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, inventory.CheckedOut, radio.Status)
	assert.Equal(t, "Alice", radio.Checkout.Borrower)
	assert.Equal(t, 1, f.store.Headsets())
	assert.Empty(t, f.ledger.Entries())
	assert.Equal(t, 1, f.saves.Saves)
}

// TestSession_OverrideFlow tests the attempt / confirm / audit / retry
// loop: a double checkout succeeds after authorization and produces
// exactly one audit entry tagged with the bypassed rule's kind.
func TestSession_OverrideFlow(t *testing.T) {
	f := newFixture(t)

	out := f.script(t, strings.Join([]string{
		"1", "1", "Tech", "n", "Alice", // first checkout, clean
		"1", "1", "Tech", "n", "Bob", // second checkout, radio busy
		"y",          // continue anyway
		"Dana",       // authorizing operator
		"radio swap", // justification
		"x",
	}, "\n"))

	assert.Contains(t, out, "radio is already checked out -- Continue anyway?")
	assert.Contains(t, out, "Checked out radio 1 to Bob")

	entries := f.ledger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, engine.AllowDoubleCheckout, entries[0].Kind)
	assert.Equal(t, "1", entries[0].RadioID)
	assert.Equal(t, "Bob", entries[0].Borrower)
	assert.Equal(t, "Dana", entries[0].Operator)
	assert.Equal(t, "radio swap", entries[0].Description)

	radio, err := f.store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "Bob", radio.Checkout.Borrower)
}

// TestSession_OverrideDeclined tests that declining leaves state alone.
func TestSession_OverrideDeclined(t *testing.T) {
	f := newFixture(t)

	out := f.script(t, strings.Join([]string{
		"1", "1", "Tech", "n", "Alice",
		"1", "1", "Tech", "n", "Bob",
		"n", // do not continue
		"x",
	}, "\n"))

	assert.Contains(t, out, "Canceled")
	assert.Empty(t, f.ledger.Entries())
	radio, err := f.store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", radio.Checkout.Borrower)
}

// TestSession_AccumulatedOverrides tests that one action can stack
// multiple waivers, each audited separately, and that they do not leak
// into later actions.
func TestSession_AccumulatedOverrides(t *testing.T) {
	f := newFixture(t)
	f.store.SetHeadsets(0)

	out := f.script(t, strings.Join([]string{
		"1", "1", "Tech", "n", "Alice", // put radio 1 out
		"1", "1", "Tech", "y", "Bob", // busy radio AND empty pool
		"y", "Dana", "spare from office", // waive double checkout
		"y", "Dana", "", // waive negative headsets
		"1", "2", "Tech", "n", "Carol", // later action: no overrides left over
		"x",
	}, "\n"))

	assert.Contains(t, out, "Checked out radio 1 to Bob")
	assert.Contains(t, out, "Checked out radio 2 to Carol")

	entries := f.ledger.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, engine.AllowDoubleCheckout, entries[0].Kind)
	assert.Equal(t, engine.AllowNegativeHeadsets, entries[1].Kind)
	assert.Equal(t, -1, f.store.Headsets())
}

// TestSession_OperatorPrefill tests that the operator prompt defaults to
// the last authorizing operator.
func TestSession_OperatorPrefill(t *testing.T) {
	f := newFixture(t)

	out := f.script(t, strings.Join([]string{
		"1", "1", "Tech", "n", "Alice",
		"1", "1", "Tech", "n", "Bob",
		"y", "Dana", "first",
		"1", "1", "Tech", "n", "Carol",
		"y", "", "second", // empty operator input takes the prefill
		"x",
	}, "\n"))

	assert.Contains(t, out, "Your name [Dana]: ")
	entries := f.ledger.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Dana", entries[1].Operator)
}

// TestSession_AddRadioAndDepartment tests the fix prompts for unknown
// values.
func TestSession_AddRadioAndDepartment(t *testing.T) {
	f := newFixture(t)

	out := f.script(t, strings.Join([]string{
		"1",
		"99", "y", // unknown radio, add it
		"Catering", "y", // unknown department, add it
		"n",
		"Alice",
		"x",
	}, "\n"))

	assert.Contains(t, out, "Radio does not exist!")
	assert.Contains(t, out, "That department does not exist!")
	assert.Contains(t, out, "Checked out radio 99 to Alice")

	radio, err := f.store.Get("99")
	require.NoError(t, err)
	assert.Equal(t, inventory.CheckedOut, radio.Status)

	limit, known := f.store.DepartmentLimit("Catering")
	require.True(t, known)
	assert.True(t, limit.Unlimited, "lazily added departments are unlimited")
}

// TestSession_CheckinWrongPerson tests the return path override flow.
func TestSession_CheckinWrongPerson(t *testing.T) {
	f := newFixture(t)

	out := f.script(t, strings.Join([]string{
		"1", "1", "Tech", "n", "Alice",
		"2", // action: check in
		"1",
		"n",
		"Mallory",
		"y", "Dana", "borrower left site",
		"x",
	}, "\n"))

	assert.Contains(t, out, `radio was checked out by "Alice" -- Continue anyway?`)
	assert.Contains(t, out, "Radio 1 returned by Mallory")

	entries := f.ledger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, engine.AllowWrongPerson, entries[0].Kind)

	radio, err := f.store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, inventory.CheckedIn, radio.Status)
}

// TestSession_InterruptKeepsSessionAlive tests that a pending interrupt
// cancels the next prompt before it is shown, the menu loop carries on,
// and input the operator had already typed still answers the following
// prompt instead of being discarded.
func TestSession_InterruptKeepsSessionAlive(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer

	sess := New(strings.NewReader("3\nx\n"), &out, f.store, f.eng, f.ledger, identity.NewResolver(nil))
	sess.Interrupt()

	require.NoError(t, sess.Run(context.Background()))

	assert.Contains(t, out.String(), "Type 'x' to exit.")
	assert.Contains(t, out.String(), "Headsets: 2 / 2", "typed line survives the interrupt")
}

// TestSession_ContextCancelEndsRun tests that canceling the context ends
// the session even while the input read is blocked with nothing to read.
func TestSession_ContextCancelEndsRun(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sess := New(pr, &out, f.store, f.eng, f.ledger, identity.NewResolver(nil))

	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop on context cancellation")
	}
}

// TestSession_UnknownAction tests menu dispatch.
func TestSession_UnknownAction(t *testing.T) {
	f := newFixture(t)
	out := f.script(t, "frobnicate\nx\n")
	assert.Contains(t, out, "Action not found. Type '?' for help.")
}

// TestSession_EndOfInput tests that running out of input exits cleanly.
func TestSession_EndOfInput(t *testing.T) {
	f := newFixture(t)
	f.script(t, "3\n")
	assert.Contains(t, f.out.String(), "Headsets: 2 / 2")
}
