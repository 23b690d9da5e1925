// Package testutil provides log capture and dataset fixtures for tests.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// CapturedRecord is one log record seen by the capture handler.
type CapturedRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// CaptureHandler is a slog.Handler that records everything it sees, so tests
// can assert on log output without parsing JSON.
type CaptureHandler struct {
	mu      sync.Mutex
	records []CapturedRecord
}

// NewTestLogger returns a logger backed by a capture handler.
func NewTestLogger(t *testing.T) (*slog.Logger, *CaptureHandler) {
	t.Helper()
	h := &CaptureHandler{}
	return slog.New(h), h
}

func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, CapturedRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	return nil
}

func (h *CaptureHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *CaptureHandler) WithGroup(name string) slog.Handler       { return h }

// Records returns a copy of the captured records.
func (h *CaptureHandler) Records() []CapturedRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]CapturedRecord, len(h.records))
	copy(out, h.records)
	return out
}

// ContainsMessage reports whether any record's message contains substr.
func (h *CaptureHandler) ContainsMessage(substr string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if strings.Contains(r.Message, substr) {
			return true
		}
	}
	return false
}
