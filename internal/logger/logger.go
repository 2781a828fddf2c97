// Package logger provides structured logging configuration using log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvLevel is the environment variable that overrides the configured level.
const EnvLevel = "DANCEPRACTICE_LOG_LEVEL"

// Config holds logger configuration.
type Config struct {
	Level  slog.Level
	Format string // "text" or "json"

	// Output defaults to os.Stderr
	Output io.Writer
}

// NewLogger creates a configured slog.Logger.
func NewLogger(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.Level <= slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// DefaultConfig returns the default logger configuration.
// The DANCEPRACTICE_LOG_LEVEL environment variable sets the level.
// Default: INFO
func DefaultConfig() Config {
	cfg := Config{Level: slog.LevelInfo, Format: "text"}
	if level, ok := ParseLevel(os.Getenv(EnvLevel)); ok {
		cfg.Level = level
	}
	return cfg
}

// FromSettings builds a configuration from config file values.
// The environment variable still takes precedence over level.
func FromSettings(level, format string) Config {
	cfg := DefaultConfig()
	if format != "" {
		cfg.Format = format
	}
	if os.Getenv(EnvLevel) == "" {
		if l, ok := ParseLevel(level); ok {
			cfg.Level = l
		}
	}
	return cfg
}

// ParseLevel maps DEBUG, INFO, WARN, WARNING and ERROR (any case) to a level.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
