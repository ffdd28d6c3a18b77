// Package logging builds the slog loggers shared by the binaries.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// Format is text or json.
	Format string
	// FilePath additionally writes to a file when set.
	FilePath string
	// Output defaults to stderr.
	Output io.Writer
}

// New returns a logger and a cleanup func closing the log file, if any.
func New(cfg Config) (*slog.Logger, func(), error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	cleanup := func() {}

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("logging: create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: open %s: %w", cfg.FilePath, err)
		}
		out = io.MultiWriter(out, f)
		cleanup = func() {
			_ = f.Sync()
			_ = f.Close()
		}
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(h), cleanup, nil
}

// Setup builds a logger with New and installs it as the slog default.
func Setup(cfg Config) (func(), error) {
	logger, cleanup, err := New(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cleanup, nil
}

// ParseLevel maps a level name to slog.Level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Component returns l (or the default logger) tagged with a component name.
func Component(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", name)
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
