package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoad tests a full document.
func TestLoad(t *testing.T) {
	path := writeConfig(t, `
radios: [1, 2, 10, HQ]
departments:
  Ops:
    limit: 2
  Tech: {}
headsets: 15
snapshot:
  backend: sqlite
  path: event.db
logs:
  transitions: event.log
  audits: event-audits.log
identity:
  endpoint: https://badges.example.org/jsonrpc
  auth: true
  cert: client.crt
  key: client.key
  timeout_seconds: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []RadioID{"1", "2", "10", "HQ"}, cfg.Radios)
	require.Contains(t, cfg.Departments, "Ops")
	require.NotNil(t, cfg.Departments["Ops"].Limit)
	assert.Equal(t, 2, *cfg.Departments["Ops"].Limit)
	assert.Nil(t, cfg.Departments["Tech"].Limit, "omitted limit means unlimited")
	assert.Equal(t, 15, cfg.Headsets)
	assert.Equal(t, "sqlite", cfg.Snapshot.Backend)
	assert.Equal(t, "event.db", cfg.Snapshot.Path)
	require.NotNil(t, cfg.Identity)
	assert.Equal(t, int64(5), int64(cfg.Identity.Timeout().Seconds()))
}

// TestLoad_Defaults tests the minimal document.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `headsets: 3`))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Snapshot.Backend)
	assert.Equal(t, "radios.json", cfg.Snapshot.Path)
	assert.Equal(t, "radios.log", cfg.Logs.Transitions)
	assert.Equal(t, "audits.log", cfg.Logs.Audits)
	assert.Nil(t, cfg.Identity)
}

// TestLoad_SQLiteDefaultPath tests the backend-specific default path.
func TestLoad_SQLiteDefaultPath(t *testing.T) {
	cfg, err := Load(writeConfig(t, "snapshot:\n  backend: sqlite\n"))
	require.NoError(t, err)
	assert.Equal(t, "radios.db", cfg.Snapshot.Path)
}

// TestLoad_Invalid tests each validation failure.
func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"negative headsets":  `headsets: -1`,
		"negative limit":     "departments:\n  Ops:\n    limit: -2\n",
		"bad backend":        "snapshot:\n  backend: etcd\n",
		"identity endpoint":  "identity:\n  auth: false\n",
		"auth without certs": "identity:\n  endpoint: https://x\n  auth: true\n",
		"unknown field":      `radio_ids: [1]`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			require.Error(t, err)
		})
	}
}

// TestLoad_MissingFile tests the startup failure mode.
func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
