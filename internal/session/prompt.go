package session

import (
	"context"
	"fmt"
	"strings"
)

// Prompt gathers one value from the operator. Label, Options and Default
// are provider functions, evaluated fresh on every attempt, because most
// of them depend on live state (known radios, last operator).
type Prompt struct {
	Label func() string
	// Options restricts accepted values; nil accepts anything.
	Options func() []string
	// Default is returned for empty input; nil means no default.
	Default func() string
	// AllowEmpty accepts empty input as-is when there is no default.
	AllowEmpty bool
	// Invalid is printed when input is rejected and no Fix applies.
	Invalid string
	// Fix, if set, lets the operator add a rejected value to Options.
	Fix *Fix
}

// Fix offers to create a missing value (a new radio, a new department)
// instead of rejecting it.
type Fix struct {
	// Confirm is the y/n question; empty applies the fix silently.
	Confirm string
	Apply   func(value string)
}

// label builds a static-label provider.
func label(s string) func() string {
	return func() string { return s }
}

// ask runs a prompt until it yields a value, the operator interrupts, or
// input ends.
func (s *Session) ask(ctx context.Context, p Prompt) (string, error) {
	for {
		line, err := s.readLine(ctx, p.Label())
		if err != nil {
			return "", err
		}
		value := strings.TrimSpace(line)

		if value == "" {
			if p.Default != nil {
				if d := p.Default(); d != "" {
					return d, nil
				}
			}
			if p.AllowEmpty {
				return "", nil
			}
			fmt.Fprintln(s.out, "Please enter a value.")
			continue
		}

		if p.Options == nil || contains(p.Options(), value) {
			return value, nil
		}

		if p.Fix != nil {
			if p.Fix.Confirm != "" {
				fmt.Fprintln(s.out, p.Invalid)
				ok, err := s.confirm(ctx, p.Fix.Confirm)
				if err != nil {
					return "", err
				}
				if !ok {
					continue
				}
			}
			p.Fix.Apply(value)
			return value, nil
		}

		fmt.Fprintln(s.out, p.Invalid)
	}
}

// confirm asks a y/n question. Empty input means no.
func (s *Session) confirm(ctx context.Context, question string) (bool, error) {
	for {
		line, err := s.readLine(ctx, question)
		if err != nil {
			return false, err
		}
		switch v := strings.ToLower(strings.TrimSpace(line)); {
		case v == "":
			return false, nil
		case v[0] == 'y':
			return true, nil
		case v[0] == 'n':
			return false, nil
		}
		fmt.Fprintln(s.out, "Please enter 'y' or 'n'.")
	}
}

func contains(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}
