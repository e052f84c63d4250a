package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/magfest/radioman/internal/inventory"
)

// JSONFile persists the snapshot as a single JSON document. Save writes to
// a temporary file in the same directory and renames it over the old one,
// so the document on disk always reflects one committed transition.
type JSONFile struct {
	path string
}

// NewJSONFile creates a backend writing to path. The file is created on
// first Save.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Load reads the document. A missing file is a fresh event and yields an
// empty document.
func (j *JSONFile) Load() (*Document, error) {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", j.path, err)
	}
	doc := NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", j.path, err)
	}
	if doc.Radios == nil {
		doc.Radios = make(map[string]*inventory.Radio)
	}
	return doc, nil
}

// Save replaces the document atomically.
func (j *JSONFile) Save(doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(j.path), ".radios-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), j.path); err != nil {
		return fmt.Errorf("replace snapshot %s: %w", j.path, err)
	}
	return nil
}

// Close is a no-op; the file is not held open between saves.
func (j *JSONFile) Close() error {
	return nil
}
