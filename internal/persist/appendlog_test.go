package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magfest/radioman/internal/audit"
	"github.com/magfest/radioman/internal/engine"
	"github.com/magfest/radioman/internal/inventory"
)

// TestAppendLog tests line-per-event appends across opens.
func TestAppendLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radios.log")
	log := NewAppendLog(path)

	require.NoError(t, log.Append("CHECKED_OUT", "2024-01-05T12:30:00Z", "1", "Alice", "1234", "Ops", "true"))
	require.NoError(t, log.Append("CHECKED_IN", "2024-01-05T14:00:00Z", "1", "Alice", "", "", "true"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"CHECKED_OUT,2024-01-05T12:30:00Z,1,Alice,1234,Ops,true\n"+
			"CHECKED_IN,2024-01-05T14:00:00Z,1,Alice,,,true\n",
		string(data))
}

// TestFlusher tests that Save captures live store and ledger state.
func TestFlusher(t *testing.T) {
	store := inventory.NewStore()
	store.AddRadio("1")
	store.SetHeadsets(7)

	ledger := audit.NewLedger(NewAppendLog(filepath.Join(t.TempDir(), "audits.log")))
	ledger.Record(engine.AllowExtraHeadset, "1", "Bob", "Dana", "found a spare")

	backend := NewJSONFile(filepath.Join(t.TempDir(), "radios.json"))
	flusher := &Flusher{Backend: backend, Store: store, Ledger: ledger}
	require.NoError(t, flusher.Save())

	doc, err := backend.Load()
	require.NoError(t, err)
	assert.Len(t, doc.Radios, 1)
	assert.Equal(t, 7, doc.Headsets)
	require.Len(t, doc.Audits, 1)
	assert.Equal(t, engine.AllowExtraHeadset, doc.Audits[0].Kind)
}
