// Package config loads and validates the radioman configuration document.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration document.
type Config struct {
	// Radios lists radio ids to pre-provision at startup.
	Radios []RadioID `yaml:"radios"`
	// Departments maps department name to its quota settings.
	Departments map[string]Department `yaml:"departments"`
	// Headsets is the starting headset pool for a fresh event.
	Headsets int       `yaml:"headsets"`
	Snapshot Snapshot  `yaml:"snapshot"`
	Logs     Logs      `yaml:"logs"`
	Identity *Identity `yaml:"identity,omitempty"`
}

// RadioID accepts both bare numbers and strings in YAML, since radio ids
// are usually written unquoted.
type RadioID string

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *RadioID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("radio id must be a scalar, got %v", value.Kind)
	}
	*r = RadioID(value.Value)
	return nil
}

// Department holds per-department quota settings. A nil Limit means
// unlimited.
type Department struct {
	Limit *int `yaml:"limit"`
}

// Snapshot selects and locates the snapshot backend.
type Snapshot struct {
	// Backend is "json" or "sqlite".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Logs locates the plain-text append logs.
type Logs struct {
	Transitions string `yaml:"transitions"`
	Audits      string `yaml:"audits"`
}

// Identity holds badge-service connection parameters. Absent entirely,
// barcode resolution is unavailable.
type Identity struct {
	Endpoint       string `yaml:"endpoint"`
	Auth           bool   `yaml:"auth"`
	CertFile       string `yaml:"cert"`
	KeyFile        string `yaml:"key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the lookup timeout, zero meaning use the client default.
func (i *Identity) Timeout() time.Duration {
	return time.Duration(i.TimeoutSeconds) * time.Second
}

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = "json"
	}
	if c.Snapshot.Path == "" {
		if c.Snapshot.Backend == "sqlite" {
			c.Snapshot.Path = "radios.db"
		} else {
			c.Snapshot.Path = "radios.json"
		}
	}
	if c.Logs.Transitions == "" {
		c.Logs.Transitions = "radios.log"
	}
	if c.Logs.Audits == "" {
		c.Logs.Audits = "audits.log"
	}
}

// Validate checks the document for values that would fail later in
// surprising places.
func (c *Config) Validate() error {
	if c.Headsets < 0 {
		return fmt.Errorf("headsets must not be negative, got %d", c.Headsets)
	}
	if c.Snapshot.Backend != "json" && c.Snapshot.Backend != "sqlite" {
		return fmt.Errorf("snapshot backend must be \"json\" or \"sqlite\", got %q", c.Snapshot.Backend)
	}
	for name, dept := range c.Departments {
		if dept.Limit != nil && *dept.Limit < 0 {
			return fmt.Errorf("department %q: limit must not be negative, got %d", name, *dept.Limit)
		}
	}
	if c.Identity != nil {
		if c.Identity.Endpoint == "" {
			return fmt.Errorf("identity: endpoint is required")
		}
		if c.Identity.Auth && (c.Identity.CertFile == "" || c.Identity.KeyFile == "") {
			return fmt.Errorf("identity: auth requires both cert and key")
		}
	}
	return nil
}
