// Package testutil holds small fakes shared across test packages.
package testutil

import (
	"sync"
	"time"
)

// Clock yields deterministic, strictly increasing timestamps. Pass
// Clock.Now to engine.WithClock so transitions get predictable stamps.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock creates a clock starting at start, advancing by step per call.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{now: start, step: step}
}

// Now returns the current time and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// RecordingLog captures append-log lines in memory. Implements the
// LineWriter ports of engine and audit.
type RecordingLog struct {
	Lines [][]string
	Err   error
}

// Append records one line.
func (l *RecordingLog) Append(fields ...string) error {
	if l.Err != nil {
		return l.Err
	}
	line := make([]string, len(fields))
	copy(line, fields)
	l.Lines = append(l.Lines, line)
	return nil
}

// SaveCounter counts snapshot flushes. Implements engine.Persister.
type SaveCounter struct {
	Saves int
	Err   error
}

// Save records one flush.
func (p *SaveCounter) Save() error {
	if p.Err != nil {
		return p.Err
	}
	p.Saves++
	return nil
}
