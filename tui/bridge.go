// ABOUTME: Bridge connecting slog records from the engine to the Bubble Tea message loop.
// ABOUTME: Provides LogHandler (a non-blocking slog.Handler) and tea.Cmd factories for log delivery.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// LogEntry is one formatted log record.
type LogEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   string
}

// LogHandler is a slog.Handler that forwards records into a channel read by
// the TUI. Records are dropped when the channel is full: the engine logs
// while holding the dashboard lock and must never wait on the UI.
type LogHandler struct {
	ch     chan<- LogEntry
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewLogHandler returns a handler sending to ch at or above level.
func NewLogHandler(ch chan<- LogEntry, level slog.Leveler) *LogHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &LogHandler{ch: ch, level: level}
}

func (h *LogHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *LogHandler) Handle(_ context.Context, r slog.Record) error {
	var parts []string
	prefix := strings.Join(h.groups, ".")
	add := func(a slog.Attr) {
		key := a.Key
		if prefix != "" {
			key = prefix + "." + key
		}
		parts = append(parts, fmt.Sprintf("%s=%v", key, a.Value.Resolve()))
	}
	for _, a := range h.attrs {
		parts = append(parts, fmt.Sprintf("%s=%v", a.Key, a.Value.Resolve()))
	}
	r.Attrs(func(a slog.Attr) bool {
		add(a)
		return true
	})

	entry := LogEntry{Time: r.Time, Level: r.Level, Message: r.Message, Attrs: strings.Join(parts, " ")}
	select {
	case h.ch <- entry:
	default:
	}
	return nil
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), qualify(h.groups, attrs)...)
	return &next
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func qualify(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(groups) == 0 {
		return attrs
	}
	prefix := strings.Join(groups, ".") + "."
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}
	return out
}

// WaitForLogCmd returns a tea.Cmd that blocks on ch and delivers the next
// entry as a LogMsg.
func WaitForLogCmd(ch <-chan LogEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return LogMsg{Entry: entry}
	}
}
