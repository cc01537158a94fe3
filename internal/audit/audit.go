// Package audit appends one plain-text line per user-visible action.
package audit

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/flatblog/internal/db"
	"github.com/flatblog/internal/log"
	"github.com/flatblog/internal/metrics"
)

// Recorder is the write-only sink handlers report actions to.
type Recorder interface {
	Record(address, action string)
}

// Writer appends entries to a log file. It never fails the caller: entries
// that cannot be written are logged and dropped.
type Writer struct {
	path   string
	loc    *time.Location
	now    func() time.Time
	logger zerolog.Logger

	mu sync.Mutex
}

// NewWriter returns a Writer appending to path with timestamps in loc.
func NewWriter(path string, loc *time.Location) *Writer {
	if loc == nil {
		loc = time.Local
	}
	return &Writer{
		path:   path,
		loc:    loc,
		now:    time.Now,
		logger: log.WithComponent("audit"),
	}
}

// FormatEntry renders a single audit line without the trailing newline.
func FormatEntry(address, action string, at time.Time, loc *time.Location) string {
	return fmt.Sprintf("Address: %s - Action: %s - Time: %s", address, action, db.FormatTimestamp(at, loc))
}

// Record appends one entry.
func (w *Writer) Record(address, action string) {
	line := FormatEntry(address, action, w.now(), w.loc) + "\n"

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		w.drop(err, address, action)
		return
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		w.drop(err, address, action)
		return
	}
	if err := f.Close(); err != nil {
		w.drop(err, address, action)
		return
	}
	metrics.AuditEntries.WithLabelValues("written").Inc()
}

func (w *Writer) drop(err error, address, action string) {
	metrics.AuditEntries.WithLabelValues("dropped").Inc()
	w.logger.Warn().
		Err(err).
		Str("path", w.path).
		Str("address", address).
		Str("action", action).
		Msg("audit entry dropped")
}

// Discard is a Recorder that ignores every entry.
type Discard struct{}

// Record implements Recorder.
func (Discard) Record(string, string) {}
