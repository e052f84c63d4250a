package persist

import (
	"fmt"
	"os"
	"strings"
)

// AppendLog writes one comma-separated line per event to a plain-text
// file, creating it on first use. The file is opened per append so an
// operator can rotate or tail it freely between transitions.
type AppendLog struct {
	path string
}

// NewAppendLog creates a log writing to path.
func NewAppendLog(path string) *AppendLog {
	return &AppendLog{path: path}
}

// Append writes fields as one line.
func (l *AppendLog) Append(fields ...string) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", l.path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, strings.Join(fields, ",")); err != nil {
		return fmt.Errorf("append to log %s: %w", l.path, err)
	}
	return nil
}
