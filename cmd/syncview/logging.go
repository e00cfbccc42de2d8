// ABOUTME: Builds the process logger: the TUI event log or stderr, plus an optional log file.
// ABOUTME: teeHandler fans one record out to several slog handlers.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/2389-research/syncview/tui"
)

// newLogger sends records to tuiCh when set, to stderr otherwise, and
// additionally to file when it is not nil.
func newLogger(level slog.Level, tuiCh chan<- tui.LogEntry, file, stderr io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handlers teeHandler
	if tuiCh != nil {
		handlers = append(handlers, tui.NewLogHandler(tuiCh, level))
	} else {
		handlers = append(handlers, slog.NewTextHandler(stderr, opts))
	}
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, opts))
	}
	if len(handlers) == 1 {
		return slog.New(handlers[0])
	}
	return slog.New(handlers)
}

// openLogFile opens path for appending. With no path, TUI mode logs to
// syncview.log in the data directory since the terminal is taken.
func openLogFile(path, dataDir string, tuiMode bool) (*os.File, error) {
	if path == "" {
		if !tuiMode {
			return nil, nil
		}
		dir, err := resolveDataDir(dataDir)
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "syncview.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
