// Package logger provides test helpers for structured logging.
package logger

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// NewTestLogger creates a logger for tests.
// By default, uses WARN level to keep test output quiet.
// Set TEST_DEBUG environment variable to enable debug logging in tests.
func NewTestLogger() *slog.Logger {
	level := slog.LevelWarn // Quiet by default

	// Allow tests to enable debug logging
	if os.Getenv("TEST_DEBUG") != "" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

// Entry is one record captured by a Recorder.
type Entry struct {
	Level   slog.Level
	Message string
}

type entryLog struct {
	mu      sync.Mutex
	entries []Entry
}

// Recorder is a slog.Handler that keeps every record in memory.
// Loggers derived with With or WithGroup share the same entries.
type Recorder struct {
	log *entryLog
}

// NewRecordingLogger returns a logger that records every level and the
// Recorder holding its output.
func NewRecordingLogger() (*slog.Logger, *Recorder) {
	r := &Recorder{log: &entryLog{}}
	return slog.New(r), r
}

func (r *Recorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	r.log.mu.Lock()
	defer r.log.mu.Unlock()
	r.log.entries = append(r.log.entries, Entry{Level: rec.Level, Message: rec.Message})
	return nil
}

func (r *Recorder) WithAttrs([]slog.Attr) slog.Handler { return r }

func (r *Recorder) WithGroup(string) slog.Handler { return r }

// AtLeast returns the entries logged at level or above.
func (r *Recorder) AtLeast(level slog.Level) []Entry {
	r.log.mu.Lock()
	defer r.log.mu.Unlock()
	var out []Entry
	for _, e := range r.log.entries {
		if e.Level >= level {
			out = append(out, e)
		}
	}
	return out
}
