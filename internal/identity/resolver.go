// Package identity decides what a free-text person token means: a barcode
// needing external lookup, or a literal name.
package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// barcodePattern matches the fixed badge barcode format: exactly six
// characters from the base64-ish alphabet printed on attendee badges.
var barcodePattern = regexp.MustCompile(`^[A-Za-z0-9+=-]{6}$`)

// Person is a resolved borrower identity. Badge and Barcode are empty when
// the token was a plain name or lookup was degraded.
type Person struct {
	Name    string
	Badge   string
	Barcode string
}

// Lookup resolves a badge barcode against the external identity service.
type Lookup interface {
	LookupBarcode(ctx context.Context, barcode string) (name, badge string, err error)
}

// ErrServiceUnavailable reports that no identity service is configured at
// all. Distinguishable from a transient lookup failure so the caller can
// skip the retry prompt and fall back immediately.
var ErrServiceUnavailable = errors.New("identity service is not configured")

// ServiceError reports a transport-level failure reaching the identity
// service. These are worth retrying; a bad barcode is not.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("identity service unreachable: %v", e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err is a transport-level service failure.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

// IsBarcode reports whether a token is barcode-shaped.
func IsBarcode(token string) bool {
	return barcodePattern.MatchString(strings.TrimSpace(token))
}

// Resolver turns tokens into Person values. A nil lookup means barcode
// resolution fails with ErrServiceUnavailable.
type Resolver struct {
	lookup Lookup
}

// NewResolver creates a resolver backed by the given lookup, which may be
// nil when no service is configured.
func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve maps a token to a person. Non-barcode tokens resolve locally to
// a plain name. Barcode tokens go through the external lookup; errors are
// returned for the caller to decide between retry and Fallback.
func (r *Resolver) Resolve(ctx context.Context, token string) (Person, error) {
	token = strings.TrimSpace(token)
	if !barcodePattern.MatchString(token) {
		return Person{Name: token}, nil
	}
	if r.lookup == nil {
		return Person{}, fmt.Errorf("resolve barcode %q: %w", token, ErrServiceUnavailable)
	}
	name, badge, err := r.lookup.LookupBarcode(ctx, token)
	if err != nil {
		return Person{}, err
	}
	return Person{Name: name, Badge: badge, Barcode: token}, nil
}

// Fallback is the degraded resolution used when lookup fails and the
// operator declines to retry: the raw token becomes the name, with no
// badge.
func Fallback(token string) Person {
	return Person{Name: strings.TrimSpace(token)}
}

// BarcodeOnly keeps the barcode but no name, used when the service was
// reachable enough to be trusted later but the operator gave up retrying.
func BarcodeOnly(barcode string) Person {
	return Person{Barcode: strings.TrimSpace(barcode)}
}
