package persist

import (
	"github.com/magfest/radioman/internal/audit"
	"github.com/magfest/radioman/internal/inventory"
)

// Document is the full persisted state for one event.
type Document struct {
	Radios   map[string]*inventory.Radio `json:"radios"`
	Headsets int                         `json:"headsets"`
	Audits   []audit.Entry               `json:"audits"`
}

// NewDocument creates an empty document, the state of an event that has
// not started yet.
func NewDocument() *Document {
	return &Document{Radios: make(map[string]*inventory.Radio)}
}

// Backend stores and retrieves whole snapshots.
type Backend interface {
	// Load reads the last saved document. A backend with no saved state
	// returns an empty document, not an error.
	Load() (*Document, error)
	Save(doc *Document) error
	Close() error
}

// Flusher snapshots the live store and ledger into a Document and hands it
// to the backend. It implements the engine's Persister port.
type Flusher struct {
	Backend Backend
	Store   *inventory.Store
	Ledger  *audit.Ledger
}

// Save writes the current state. Called by the engine after every
// committed transition.
func (f *Flusher) Save() error {
	return f.Backend.Save(&Document{
		Radios:   f.Store.Radios(),
		Headsets: f.Store.Headsets(),
		Audits:   f.Ledger.Entries(),
	})
}
