package inventory

import (
	"fmt"
	"sort"
	"strconv"
)

// NotFoundError reports a lookup of a radio id that was never provisioned.
// It is deliberately not a rule violation: no override kind covers it, the
// operator must provision the radio explicitly.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("radio %q does not exist", e.ID)
}

// Store holds all mutable inventory state for one event: the radio records,
// the shared headset pool, and the department quota table. It is the single
// owner of that state; the engine is the only mutator of radio status and
// the headset counter.
//
// Store is not safe for concurrent use. The tool assumes a single
// interactive operator issuing one transition at a time.
type Store struct {
	radios       map[string]*Radio
	limits       map[string]Limit
	headsets     int
	headsetTotal int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		radios: make(map[string]*Radio),
		limits: make(map[string]Limit),
	}
}

// Get returns the radio with the given id, or a NotFoundError. Unknown
// radios never silently default.
func (s *Store) Get(id string) (*Radio, error) {
	r, ok := s.radios[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return r, nil
}

// Upsert stores the record under the given id.
func (s *Store) Upsert(id string, r *Radio) {
	s.radios[id] = r
}

// AddRadio provisions a radio if it does not already exist and returns the
// record. Provisioning an existing id is a no-op.
func (s *Store) AddRadio(id string) *Radio {
	if r, ok := s.radios[id]; ok {
		return r
	}
	r := newRadio()
	s.radios[id] = r
	return r
}

// IDs returns all provisioned radio ids, numerically where possible.
// Purely-numeric ids sort by value so the status report reads 1, 2, ... 10
// rather than 1, 10, 2.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.radios))
	for id := range s.radios {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aerr := strconv.Atoi(ids[i])
		b, berr := strconv.Atoi(ids[j])
		if aerr == nil && berr == nil {
			return a < b
		}
		if aerr == nil {
			return true
		}
		if berr == nil {
			return false
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Len returns the number of provisioned radios.
func (s *Store) Len() int {
	return len(s.radios)
}

// AddDepartment registers a department with the given limit. Re-adding an
// existing department overwrites its limit.
func (s *Store) AddDepartment(name string, limit Limit) {
	s.limits[name] = limit
}

// DepartmentLimit returns the limit for a department and whether the
// department is known at all.
func (s *Store) DepartmentLimit(name string) (Limit, bool) {
	l, ok := s.limits[name]
	return l, ok
}

// Departments returns all known department names, sorted.
func (s *Store) Departments() []string {
	names := make([]string, 0, len(s.limits))
	for name := range s.limits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DepartmentTotals scans all checked-out radios currently attributed to the
// department and returns how many radios and how many headsets it has out.
func (s *Store) DepartmentTotals(dept string) (radiosOut, headsetsOut int) {
	for _, r := range s.radios {
		if r.Status != CheckedOut || r.Checkout.Department != dept {
			continue
		}
		radiosOut++
		if r.Checkout.Headset {
			headsetsOut++
		}
	}
	return radiosOut, headsetsOut
}

// Headsets returns the number of headsets currently available. The counter
// can be negative after an ALLOW_NEGATIVE_HEADSETS override; that is a
// known, logged tracking error, not a crash.
func (s *Store) Headsets() int {
	return s.headsets
}

// SetHeadsets sets the available counter, used when restoring a snapshot or
// seeding a fresh event.
func (s *Store) SetHeadsets(n int) {
	s.headsets = n
}

// TakeHeadset decrements the available counter. Engine use only.
func (s *Store) TakeHeadset() {
	s.headsets--
}

// ReturnHeadset increments the available counter. Engine use only.
func (s *Store) ReturnHeadset() {
	s.headsets++
}

// HeadsetTotal is the provisioned headset count from configuration, kept
// for the "available / total" line of the status report.
func (s *Store) HeadsetTotal() int {
	return s.headsetTotal
}

// SetHeadsetTotal records the provisioned headset count.
func (s *Store) SetHeadsetTotal(n int) {
	s.headsetTotal = n
}

// Radios returns a copy of the id -> record mapping for persistence. The
// records themselves are shared; callers must serialize before the next
// transition mutates them, which the flush-per-commit contract guarantees.
func (s *Store) Radios() map[string]*Radio {
	out := make(map[string]*Radio, len(s.radios))
	for id, r := range s.radios {
		out[id] = r
	}
	return out
}

// Restore replaces all radio records and the headset counter with the
// contents of a loaded snapshot.
func (s *Store) Restore(radios map[string]*Radio, headsets int) {
	s.radios = make(map[string]*Radio, len(radios))
	for id, r := range radios {
		s.radios[id] = r
	}
	s.headsets = headsets
}
