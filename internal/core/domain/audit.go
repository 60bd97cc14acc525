package domain

import "time"

// Audit event types emitted by the maze core.
const (
	EventRequest          = "REQUEST"
	EventNewEndpoint      = "NEW_ENDPOINT_DISCOVERY"
	EventLoginAttempt     = "LOGIN_ATTEMPT"
	EventElevation        = "ELEVATION_GRANTED"
	EventInternalAccess   = "INTERNAL_ACCESS_GRANTED"
	EventFileDownload     = "FILE_DOWNLOAD"
	EventBeaconActivated  = "BEACON_ACTIVATED"
	EventUnknownBeacon    = "UNKNOWN_BEACON"
	EventTarpitTrigger    = "TARPIT_TRIGGER"
	EventSynthesisFailure = "SYNTHESIS_FAILURE"
	EventStoreUnavailable = "PERSISTENCE_UNAVAILABLE"
)

// AuditEvent is one append-only entry in the attacker activity trail.
// Ordering is append order; events are never mutated or deleted.
type AuditEvent struct {
	ID        string         `json:"id"`
	Time      time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	EventType string         `json:"event"`
	Payload   map[string]any `json:"payload,omitempty"`
}
