// Package audit provides AuditSink implementations. The primary sink writes
// base64-encoded JSON lines: log tampering by an attacker who reaches the
// box is harder when the trail does not look like a log, and the encoding is
// trivially reversible for the operator (see cmd/logread).
package audit

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/domain"
	"github.com/google/uuid"
)

// EncodedFileSink appends one base64 line per event to a file. Record never
// returns an error and never panics; write failures are reported through the
// plain logger and the request proceeds.
type EncodedFileSink struct {
	mu     sync.Mutex
	f      *os.File
	logger *slog.Logger
	now    func() time.Time
}

func NewEncodedFileSink(path string, logger *slog.Logger) (*EncodedFileSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	return &EncodedFileSink{f: f, logger: logger, now: time.Now}, nil
}

func (s *EncodedFileSink) Record(level slog.Level, eventType string, payload map[string]any) {
	ev := domain.AuditEvent{
		ID:        uuid.New().String(),
		Time:      s.now().UTC(),
		Level:     level.String(),
		EventType: eventType,
		Payload:   payload,
	}
	line, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("audit encode failed", "event", eventType, "error", err)
		return
	}
	encoded := base64.StdEncoding.EncodeToString(line)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.WriteString(encoded + "\n"); err != nil {
		s.logger.Error("audit write failed", "event", eventType, "error", err)
	}
}

// Close flushes and closes the underlying file.
func (s *EncodedFileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// DecodeLine reverses one sink line back into the event it encodes.
func DecodeLine(line string) (domain.AuditEvent, error) {
	var ev domain.AuditEvent
	raw, err := base64.StdEncoding.DecodeString(line)
	if err != nil {
		return ev, err
	}
	err = json.Unmarshal(raw, &ev)
	return ev, err
}
