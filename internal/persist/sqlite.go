package persist

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/magfest/radioman/internal/audit"
	"github.com/magfest/radioman/internal/inventory"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (radios, counters, audits)
const currentSchemaVersion = 1

const headsetsCounter = "headsets"

// SQLite persists snapshots in a SQLite database. Save rewrites the radio
// and counter tables in one transaction and appends any new audit rows, so
// readers outside the process always see the last committed transition.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path, applying pragmas and
// the schema. Idempotent.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// Single interactive operator; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load reads the full snapshot. A fresh database yields an empty document.
func (s *SQLite) Load() (*Document, error) {
	doc := NewDocument()

	rows, err := s.db.Query(`SELECT id, record FROM radios`)
	if err != nil {
		return nil, fmt.Errorf("query radios: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, record string
		if err := rows.Scan(&id, &record); err != nil {
			return nil, fmt.Errorf("scan radio: %w", err)
		}
		var r inventory.Radio
		if err := json.Unmarshal([]byte(record), &r); err != nil {
			return nil, fmt.Errorf("parse radio %s: %w", id, err)
		}
		doc.Radios[id] = &r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate radios: %w", err)
	}

	err = s.db.QueryRow(`SELECT value FROM counters WHERE name = ?`, headsetsCounter).Scan(&doc.Headsets)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("query headset counter: %w", err)
	}

	audRows, err := s.db.Query(`SELECT entry FROM audits ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query audits: %w", err)
	}
	defer audRows.Close()
	for audRows.Next() {
		var entry string
		if err := audRows.Scan(&entry); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		var e audit.Entry
		if err := json.Unmarshal([]byte(entry), &e); err != nil {
			return nil, fmt.Errorf("parse audit entry: %w", err)
		}
		doc.Audits = append(doc.Audits, e)
	}
	if err := audRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audits: %w", err)
	}

	return doc, nil
}

// Save rewrites the snapshot in a single transaction. Audit rows are
// insert-only, keyed by entry id; existing rows are left untouched.
func (s *SQLite) Save(doc *Document) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM radios`); err != nil {
		return fmt.Errorf("clear radios: %w", err)
	}
	for id, r := range doc.Radios {
		record, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode radio %s: %w", id, err)
		}
		if _, err := tx.Exec(`INSERT INTO radios (id, record) VALUES (?, ?)`, id, string(record)); err != nil {
			return fmt.Errorf("insert radio %s: %w", id, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO counters (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		headsetsCounter, doc.Headsets,
	); err != nil {
		return fmt.Errorf("update headset counter: %w", err)
	}

	for seq, e := range doc.Audits {
		entry, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode audit entry: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO audits (id, seq, entry) VALUES (?, ?, ?)`,
			e.ID, seq, string(entry),
		); err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
