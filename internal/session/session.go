package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/magfest/radioman/internal/audit"
	"github.com/magfest/radioman/internal/engine"
	"github.com/magfest/radioman/internal/identity"
	"github.com/magfest/radioman/internal/inventory"
)

// ErrCanceled reports that the operator abandoned the current action. The
// menu loop prints it and carries on; it never terminates the process.
var ErrCanceled = errors.New("canceled")

// Session drives one interactive operator through the menu loop.
type Session struct {
	scanner  *bufio.Scanner
	out      io.Writer
	store    *inventory.Store
	eng      *engine.Engine
	ledger   *audit.Ledger
	resolver *identity.Resolver

	interrupt chan struct{}
	lines     chan scanResult
}

// scanResult is one delivered input line, or the terminal read error.
type scanResult struct {
	text string
	err  error
}

// New creates a session reading operator input from in and writing to out.
func New(in io.Reader, out io.Writer, store *inventory.Store, eng *engine.Engine, ledger *audit.Ledger, resolver *identity.Resolver) *Session {
	return &Session{
		scanner:   bufio.NewScanner(in),
		out:       out,
		store:     store,
		eng:       eng,
		ledger:    ledger,
		resolver:  resolver,
		interrupt: make(chan struct{}, 1),
	}
}

// Interrupt cancels the action in progress. The pending prompt read
// returns ErrCanceled immediately; the menu loop keeps running. A line
// the operator had already typed is not discarded, it answers the next
// prompt.
func (s *Session) Interrupt() {
	select {
	case s.interrupt <- struct{}{}:
	default:
	}
}

// readLine prints a prompt label and reads one line. A pending interrupt
// is consumed before the prompt is shown; cancellation of ctx ends the
// read even when input is blocked.
func (s *Session) readLine(ctx context.Context, prompt string) (string, error) {
	select {
	case <-s.interrupt:
		return "", ErrCanceled
	default:
	}

	fmt.Fprint(s.out, prompt)
	select {
	case <-s.interrupt:
		return "", ErrCanceled
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-s.lines:
		return res.text, res.err
	}
}

// scanLines feeds operator input to readLine until input ends or the
// session stops listening. The terminal error stays on offer so every
// later read observes it.
func (s *Session) scanLines(done <-chan struct{}) {
	for s.scanner.Scan() {
		select {
		case s.lines <- scanResult{text: s.scanner.Text()}:
		case <-done:
			return
		}
	}
	err := s.scanner.Err()
	if err == nil {
		err = io.EOF
	}
	for {
		select {
		case s.lines <- scanResult{err: err}:
		case <-done:
			return
		}
	}
}

// Run shows the menu and dispatches actions until the operator exits,
// input ends, or ctx is canceled. Run may be called once per session.
func (s *Session) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	s.lines = make(chan scanResult)
	go s.scanLines(done)

	s.menu()
	for {
		line, err := s.readLine(ctx, "> ")
		switch {
		case errors.Is(err, ErrCanceled):
			fmt.Fprintln(s.out, "\nType 'x' to exit.")
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(s.out)
			return nil
		case err != nil:
			return err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "1", "co", "check out", "checkout":
			err = s.doCheckout(ctx)
		case "2", "ci", "check in", "checkin", "return":
			err = s.doCheckin(ctx)
		case "3", "status":
			err = Report(s.out, s.store)
		case "x", "q", "exit", "quit":
			return nil
		case "", "?", "help":
			s.menu()
		default:
			fmt.Fprintln(s.out, "Action not found. Type '?' for help.")
		}

		switch {
		case err == nil:
		case errors.Is(err, ErrCanceled):
			fmt.Fprintln(s.out, "Canceled")
		case errors.Is(err, io.EOF):
			fmt.Fprintln(s.out)
			return nil
		default:
			return err
		}
	}
}

func (s *Session) menu() {
	fmt.Fprintln(s.out, "===== Actions =====")
	fmt.Fprintln(s.out, " 1. Check Out Radio")
	fmt.Fprintln(s.out, " 2. Check In Radio")
	fmt.Fprintln(s.out, " 3. Radio Status")
	fmt.Fprintln(s.out, " ?. Show Help")
	fmt.Fprintln(s.out, " x. Exit")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Press Ctrl+C to cancel any action and return to the menu.")
}

// doCheckout gathers a checkout request and runs the attempt / authorize /
// retry loop. Overrides accumulate across retries of this one action only.
func (s *Session) doCheckout(ctx context.Context) error {
	fmt.Fprintln(s.out, "== Checking out ==")

	id, err := s.ask(ctx, s.radioPrompt())
	if err != nil {
		return err
	}
	dept, err := s.ask(ctx, s.departmentPrompt())
	if err != nil {
		return err
	}
	headset, err := s.confirm(ctx, "Headset? (y/n) ")
	if err != nil {
		return err
	}
	person, err := s.resolvePerson(ctx)
	if err != nil {
		return err
	}

	req := engine.CheckoutRequest{
		RadioID:    id,
		Department: dept,
		Borrower:   person.Name,
		Badge:      person.Badge,
		Barcode:    person.Barcode,
		Headset:    headset,
	}

	ov := engine.NewOverrides()
	for {
		if _, err := s.eng.Checkout(req, ov); err == nil {
			fmt.Fprintf(s.out, "Checked out radio %s to %s\n", id, person.Name)
			return nil
		} else if err := s.recover(ctx, err, req.RadioID, req.Borrower, ov); err != nil {
			return err
		}
	}
}

// doCheckin gathers a return request and runs the same retry loop.
func (s *Session) doCheckin(ctx context.Context) error {
	fmt.Fprintln(s.out, "== Checking in ==")

	id, err := s.ask(ctx, s.radioPrompt())
	if err != nil {
		return err
	}
	headset, err := s.confirm(ctx, "Headset? (y/n) ")
	if err != nil {
		return err
	}
	person, err := s.resolvePerson(ctx)
	if err != nil {
		return err
	}

	req := engine.ReturnRequest{
		RadioID:  id,
		Borrower: person.Name,
		Badge:    person.Badge,
		Barcode:  person.Barcode,
		Headset:  headset,
	}

	ov := engine.NewOverrides()
	for {
		if _, err := s.eng.Return(req, ov); err == nil {
			fmt.Fprintf(s.out, "Radio %s returned by %s\n", id, person.Name)
			return nil
		} else if err := s.recover(ctx, err, req.RadioID, req.Borrower, ov); err != nil {
			return err
		}
	}
}

// recover handles one failed transition attempt: a rule violation offers
// an audited override, an unknown radio offers provisioning, anything
// else aborts the action. A nil return means retry.
func (s *Session) recover(ctx context.Context, err error, radioID, borrower string, ov engine.Overrides) error {
	if re, ok := engine.AsRuleError(err); ok {
		return s.authorizeOverride(ctx, re, radioID, borrower, ov)
	}

	var nf *inventory.NotFoundError
	if errors.As(err, &nf) {
		ok, cerr := s.confirm(ctx, fmt.Sprintf("%v -- Add this radio? (y/n) ", err))
		if cerr != nil {
			return cerr
		}
		if !ok {
			return ErrCanceled
		}
		s.store.AddRadio(radioID)
		return nil
	}

	return err
}

// authorizeOverride surfaces the single blocking rule verbatim, asks for
// explicit authorization, records the waiver, and arms the override for
// the retry. The audit entry is written before the retried transition can
// succeed.
func (s *Session) authorizeOverride(ctx context.Context, re *engine.RuleError, radioID, borrower string, ov engine.Overrides) error {
	ok, err := s.confirm(ctx, fmt.Sprintf("%s -- Continue anyway? (y/n) ", re.Message))
	if err != nil {
		return err
	}
	if !ok {
		return ErrCanceled
	}

	operator, err := s.ask(ctx, s.operatorPrompt())
	if err != nil {
		return err
	}
	reason, err := s.ask(ctx, Prompt{
		Label:      label("Describe why, if necessary: "),
		AllowEmpty: true,
	})
	if err != nil {
		return err
	}

	s.ledger.Record(re.Override, radioID, borrower, operator, reason)
	ov.Add(re.Override)
	return nil
}

// resolvePerson reads a name-or-barcode token and resolves it, walking the
// operator through retry and fallback when the badge service misbehaves.
func (s *Session) resolvePerson(ctx context.Context) (identity.Person, error) {
	token, err := s.ask(ctx, Prompt{
		Label:      label("Name or barcode (skip for department): "),
		AllowEmpty: true,
	})
	if err != nil {
		return identity.Person{}, err
	}

	for {
		p, err := s.resolver.Resolve(ctx, token)
		switch {
		case err == nil:
			return p, nil
		case errors.Is(err, identity.ErrServiceUnavailable):
			fmt.Fprintln(s.out, err)
			fmt.Fprintln(s.out, "Using the token as a plain name.")
			return identity.Fallback(token), nil
		case identity.IsServiceError(err):
			retry, cerr := s.confirm(ctx, fmt.Sprintf("%v -- Retry? (y/n) ", err))
			if cerr != nil {
				return identity.Person{}, cerr
			}
			if retry {
				continue
			}
			fmt.Fprintln(s.out, "Unable to fetch name; using barcode only.")
			return identity.BarcodeOnly(token), nil
		default:
			// Lookup rejected the barcode; treat the token as a name.
			fmt.Fprintln(s.out, err)
			return identity.Fallback(token), nil
		}
	}
}

func (s *Session) radioPrompt() Prompt {
	return Prompt{
		Label:   label("Radio ID: "),
		Options: s.store.IDs,
		Invalid: "Radio does not exist!",
		Fix: &Fix{
			Confirm: "Add this radio? (y/n) ",
			Apply:   func(id string) { s.store.AddRadio(id) },
		},
	}
}

func (s *Session) departmentPrompt() Prompt {
	return Prompt{
		Label:      label("Department: "),
		Options:    s.store.Departments,
		AllowEmpty: true,
		Invalid:    "That department does not exist!",
		Fix: &Fix{
			Confirm: "Add new department? (y/n) ",
			Apply:   func(name string) { s.store.AddDepartment(name, inventory.Unlimited) },
		},
	}
}

func (s *Session) operatorPrompt() Prompt {
	return Prompt{
		Label: func() string {
			return fmt.Sprintf("Your name [%s]: ", s.ledger.LastOperator())
		},
		Default: s.ledger.LastOperator,
	}
}
