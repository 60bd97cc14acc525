package audit

import (
	"context"
	"log/slog"
)

// LoggerSink mirrors audit events into the structured application log at
// their native severity.
type LoggerSink struct {
	Logger *slog.Logger
}

func (s LoggerSink) Record(level slog.Level, eventType string, payload map[string]any) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := make([]any, 0, 2+2*len(payload))
	attrs = append(attrs, "event", eventType)
	for k, v := range payload {
		attrs = append(attrs, k, v)
	}
	logger.Log(context.Background(), level, "audit", attrs...)
}

// MultiSink fans one event out to several sinks.
type MultiSink []interface {
	Record(level slog.Level, eventType string, payload map[string]any)
}

func (m MultiSink) Record(level slog.Level, eventType string, payload map[string]any) {
	for _, s := range m {
		s.Record(level, eventType, payload)
	}
}

// NopSink discards everything; used in tests.
type NopSink struct{}

func (NopSink) Record(slog.Level, string, map[string]any) {}
