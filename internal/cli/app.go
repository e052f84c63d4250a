package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/magfest/radioman/internal/audit"
	"github.com/magfest/radioman/internal/config"
	"github.com/magfest/radioman/internal/engine"
	"github.com/magfest/radioman/internal/identity"
	"github.com/magfest/radioman/internal/inventory"
	"github.com/magfest/radioman/internal/persist"
)

// app is the assembled application: configuration, restored state, engine
// and collaborators. Every command starts by opening one.
type app struct {
	cfg      *config.Config
	store    *inventory.Store
	ledger   *audit.Ledger
	eng      *engine.Engine
	flusher  *persist.Flusher
	backend  persist.Backend
	resolver *identity.Resolver
}

// openApp loads configuration, restores the last snapshot, provisions
// configured radios and departments, and wires the engine. Provisioning is
// flushed immediately so a configured-but-untouched event still has a
// snapshot on disk.
func openApp(opts *RootOptions) (*app, error) {
	setupLogging(opts.Verbose)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	var backend persist.Backend
	switch cfg.Snapshot.Backend {
	case "sqlite":
		backend, err = persist.OpenSQLite(cfg.Snapshot.Path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open snapshot database", err)
		}
	default:
		backend = persist.NewJSONFile(cfg.Snapshot.Path)
	}

	doc, err := backend.Load()
	if err != nil {
		backend.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load snapshot", err)
	}
	slog.Debug("snapshot loaded", "radios", len(doc.Radios), "headsets", doc.Headsets, "audits", len(doc.Audits))

	// A document with no state yet is a fresh event; seed the pool from
	// configuration. Restored events keep their counter, negative or not.
	fresh := len(doc.Radios) == 0 && len(doc.Audits) == 0

	store := inventory.NewStore()
	store.Restore(doc.Radios, doc.Headsets)
	store.SetHeadsetTotal(cfg.Headsets)
	if fresh {
		store.SetHeadsets(cfg.Headsets)
	}

	ledger := audit.NewLedger(persist.NewAppendLog(cfg.Logs.Audits))
	ledger.Restore(doc.Audits)

	for _, id := range cfg.Radios {
		store.AddRadio(string(id))
	}
	for name, dept := range cfg.Departments {
		limit := inventory.Unlimited
		if dept.Limit != nil {
			limit = inventory.LimitOf(*dept.Limit)
		}
		store.AddDepartment(name, limit)
	}

	flusher := &persist.Flusher{Backend: backend, Store: store, Ledger: ledger}
	eng := engine.New(store, flusher, persist.NewAppendLog(cfg.Logs.Transitions))

	var lookup identity.Lookup
	if cfg.Identity != nil {
		client, err := identity.NewClient(identity.ClientConfig{
			Endpoint: cfg.Identity.Endpoint,
			Auth:     cfg.Identity.Auth,
			CertFile: cfg.Identity.CertFile,
			KeyFile:  cfg.Identity.KeyFile,
			Timeout:  cfg.Identity.Timeout(),
		})
		if err != nil {
			backend.Close()
			return nil, WrapExitError(ExitCommandError, "failed to set up identity service client", err)
		}
		lookup = client
	} else {
		slog.Warn("identity service not configured; barcode lookup unavailable")
	}

	if err := flusher.Save(); err != nil {
		backend.Close()
		return nil, WrapExitError(ExitCommandError, "failed to write initial snapshot", err)
	}

	return &app{
		cfg:      cfg,
		store:    store,
		ledger:   ledger,
		eng:      eng,
		flusher:  flusher,
		backend:  backend,
		resolver: identity.NewResolver(lookup),
	}, nil
}

// Close releases the snapshot backend.
func (a *app) Close() error {
	return a.backend.Close()
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// parseOverrides validates --override flag values.
func parseOverrides(values []string) (engine.Overrides, error) {
	ov := engine.NewOverrides()
	for _, v := range values {
		kind, err := engine.ParseOverrideKind(v)
		if err != nil {
			return nil, fmt.Errorf("%w (known kinds: %v)", err, engine.Kinds)
		}
		ov.Add(kind)
	}
	return ov, nil
}
