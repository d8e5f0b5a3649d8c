package testutils

import (
	"context"
	"log/slog"
	"sync"
)

// LogEntry represents a simplified log record for testing
type LogEntry map[string]interface{}

// TestSlogHandler is a memory-backed slog.Handler for testing
type TestSlogHandler struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewTestSlogHandler creates a new memory-backed slog handler
func NewTestSlogHandler() *TestSlogHandler {
	return &TestSlogHandler{
		entries: make([]LogEntry, 0),
	}
}

// NewTestLogger returns a logger writing into a fresh TestSlogHandler.
func NewTestLogger() (*slog.Logger, *TestSlogHandler) {
	h := NewTestSlogHandler()
	return slog.New(h), h
}

// Enabled satisfies slog.Handler interface
func (h *TestSlogHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// Handle satisfies slog.Handler interface
func (h *TestSlogHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry := make(LogEntry)
	entry["level"] = r.Level.String()
	entry["message"] = r.Message

	r.Attrs(func(attr slog.Attr) bool {
		entry[attr.Key] = attr.Value.Any()
		return true
	})

	h.entries = append(h.entries, entry)
	return nil
}

// WithAttrs satisfies slog.Handler interface. Derived handlers share the
// entry buffer of their parent.
func (h *TestSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedHandler{parent: h, attrs: attrs}
}

// WithGroup satisfies slog.Handler interface
func (h *TestSlogHandler) WithGroup(name string) slog.Handler {
	return h
}

// Entries returns all captured log entries
func (h *TestSlogHandler) Entries() []LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]LogEntry, len(h.entries))
	copy(result, h.entries)
	return result
}

// Messages returns the message of every captured entry at the given level.
func (h *TestSlogHandler) Messages(level slog.Level) []string {
	var msgs []string
	for _, e := range h.Entries() {
		if e["level"] == level.String() {
			msgs = append(msgs, e["message"].(string))
		}
	}
	return msgs
}

type derivedHandler struct {
	parent *TestSlogHandler
	attrs  []slog.Attr
}

func (d *derivedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return d.parent.Enabled(ctx, level)
}

func (d *derivedHandler) Handle(ctx context.Context, r slog.Record) error {
	r = r.Clone()
	r.AddAttrs(d.attrs...)
	return d.parent.Handle(ctx, r)
}

func (d *derivedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr(nil), d.attrs...), attrs...)
	return &derivedHandler{parent: d.parent, attrs: merged}
}

func (d *derivedHandler) WithGroup(string) slog.Handler {
	return d
}
