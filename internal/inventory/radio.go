package inventory

import "time"

// Status is the lifecycle state of a radio. There are exactly two states;
// Checkout moves IN -> OUT and Return moves OUT -> IN.
type Status string

const (
	CheckedIn  Status = "CHECKED_IN"
	CheckedOut Status = "CHECKED_OUT"
)

// Checkout is one transition snapshot. A radio's current snapshot and every
// element of its history use this shape; checked-in snapshots carry no
// department, badge or headset.
type Checkout struct {
	Status     Status    `json:"status"`
	Time       time.Time `json:"time"`
	Borrower   string    `json:"borrower,omitempty"`
	Badge      string    `json:"badge,omitempty"`
	Barcode    string    `json:"barcode,omitempty"`
	Department string    `json:"department,omitempty"`
	Headset    bool      `json:"headset"`
}

// Radio is one provisioned handset.
//
// Invariants maintained by the engine:
//   - Status always equals Checkout.Status
//   - the last History element always equals the current Checkout
//   - History is append-only, oldest first, never truncated
type Radio struct {
	Status       Status     `json:"status"`
	LastActivity time.Time  `json:"last_activity"`
	Checkout     Checkout   `json:"checkout"`
	History      []Checkout `json:"history"`
}

// newRadio builds a freshly provisioned, checked-in record. The zero-time
// seed entry marks "never loaned" and keeps the history invariant from day
// one.
func newRadio() *Radio {
	seed := Checkout{Status: CheckedIn}
	return &Radio{
		Status:   CheckedIn,
		Checkout: seed,
		History:  []Checkout{seed},
	}
}

// Limit bounds how many headset-equipped radios a department may have
// checked out at once. The zero value is a hard limit of zero; use
// Unlimited for departments with no cap.
type Limit struct {
	Unlimited bool
	Max       int
}

// Unlimited is the no-cap department limit.
var Unlimited = Limit{Unlimited: true}

// LimitOf builds a finite limit.
func LimitOf(n int) Limit {
	return Limit{Max: n}
}
