// Package testutil provides shared test doubles for the service and adapter
// layers.
package testutil

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockGenerator implements ports.ContentGenerator via testify.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, path, method string, level domain.AccessLevel, breadcrumbs []string) ([]byte, error) {
	args := m.Called(path, method, level, breadcrumbs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockEncoder implements ports.FileEncoder via testify.
type MockEncoder struct {
	mock.Mock
}

func (m *MockEncoder) Encode(fileType, beaconID string, contextData map[string]string) ([]byte, string, error) {
	args := m.Called(fileType, beaconID, contextData)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

// RecordedEvent is one audit sink invocation.
type RecordedEvent struct {
	Level     slog.Level
	EventType string
	Payload   map[string]any
}

// RecordingSink captures audit events for assertions. Safe for concurrent
// use.
type RecordingSink struct {
	mu     sync.Mutex
	events []RecordedEvent
}

func (s *RecordingSink) Record(level slog.Level, eventType string, payload map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, RecordedEvent{Level: level, EventType: eventType, Payload: payload})
}

func (s *RecordingSink) Events() []RecordedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedEvent, len(s.events))
	copy(out, s.events)
	return out
}

// ByType returns the captured events matching the given type.
func (s *RecordingSink) ByType(eventType string) []RecordedEvent {
	var out []RecordedEvent
	for _, ev := range s.Events() {
		if ev.EventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}
