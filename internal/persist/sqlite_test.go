package persist

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magfest/radioman/internal/audit"
	"github.com/magfest/radioman/internal/engine"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "radios.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestSQLite_RoundTrip tests that a saved document reloads structurally
// identical.
func TestSQLite_RoundTrip(t *testing.T) {
	backend := openTestSQLite(t)

	doc := sampleDocument()
	require.NoError(t, backend.Save(doc))

	got, err := backend.Load()
	require.NoError(t, err)
	assert.Equal(t, doc.Radios, got.Radios)
	assert.Equal(t, doc.Headsets, got.Headsets)
	assert.Equal(t, doc.Audits, got.Audits)
}

// TestSQLite_FreshDatabase tests that a new database loads empty.
func TestSQLite_FreshDatabase(t *testing.T) {
	backend := openTestSQLite(t)

	doc, err := backend.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Radios)
	assert.Zero(t, doc.Headsets)
	assert.Empty(t, doc.Audits)
}

// TestSQLite_RepeatedSaves tests the rewrite-per-commit contract: radios
// and counters reflect the latest document, audit rows only accumulate.
func TestSQLite_RepeatedSaves(t *testing.T) {
	backend := openTestSQLite(t)

	first := sampleDocument()
	require.NoError(t, backend.Save(first))

	second := sampleDocument()
	delete(second.Radios, "2")
	second.Headsets = 3
	second.Audits = append(second.Audits, audit.Entry{
		ID:       "e2",
		Kind:     engine.AllowWrongPerson,
		RadioID:  "1",
		Operator: "Dana",
	})
	require.NoError(t, backend.Save(second))

	got, err := backend.Load()
	require.NoError(t, err)
	assert.Len(t, got.Radios, 1)
	assert.Equal(t, 3, got.Headsets)
	require.Len(t, got.Audits, 2)
	assert.Equal(t, "e1", got.Audits[0].ID)
	assert.Equal(t, "e2", got.Audits[1].ID)
}

// TestSQLite_Reopen tests persistence across connections.
func TestSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radios.db")

	backend, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, backend.Save(sampleDocument()))
	require.NoError(t, backend.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load()
	require.NoError(t, err)
	assert.Len(t, got.Radios, 2)
	assert.Equal(t, -1, got.Headsets)
}
