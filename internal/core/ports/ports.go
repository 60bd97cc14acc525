package ports

import (
	"context"
	"log/slog"
	"time"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/domain"
)

// EndpointStore persists the canonical synthesized response per
// (method, normalized path) identity.
type EndpointStore interface {
	// GetEndpoint returns the stored record, or (nil, nil) when the identity
	// has never been seen.
	GetEndpoint(ctx context.Context, method, path string) (*domain.EndpointRecord, error)
	// PutIfAbsent inserts the candidate record atomically. If a concurrent
	// writer already persisted a record for the same identity, the candidate
	// is discarded and the existing record returned: first writer wins, and
	// at most one canonical record ever exists per identity.
	PutIfAbsent(ctx context.Context, rec *domain.EndpointRecord) (*domain.EndpointRecord, error)
	// Touch increments the hit counter. Best effort; not required to be
	// atomic with reads.
	Touch(ctx context.Context, method, path string) error
	Stats(ctx context.Context) (domain.StoreStats, error)
	Ping(ctx context.Context) error
}

// BeaconStore persists bait-file lifecycle records.
type BeaconStore interface {
	SaveBeacon(ctx context.Context, b *domain.Beacon) error
	GetBeacon(ctx context.Context, id string) (*domain.Beacon, error)
	// MarkDownloaded stamps download details on first call only. Returns
	// false when the beacon is unknown.
	MarkDownloaded(ctx context.Context, id, ip string, at time.Time) (bool, error)
	// MarkActivated flips Activated false->true atomically; the first
	// activation wins and later calls leave the stamps untouched. Returns
	// false when the beacon is unknown; unknown IDs never create a record.
	MarkActivated(ctx context.Context, id, ip string, at time.Time) (bool, error)
}

// ContentGenerator synthesizes a response body for a never-before-seen
// endpoint. Implementations may call out to an AI text service and may be
// slow; callers bound them with the context deadline. A failed or timed-out
// generation is recovered by the caller, never surfaced to the attacker.
type ContentGenerator interface {
	Generate(ctx context.Context, path, method string, level domain.AccessLevel, breadcrumbs []string) ([]byte, error)
}

// FileEncoder produces bait-file bytes with the beacon reference embedded so
// that opening the file triggers a request to the activation endpoint.
type FileEncoder interface {
	Encode(fileType, beaconID string, contextData map[string]string) (data []byte, contentType string, err error)
}

// ResponseCache is a read-through cache in front of the EndpointStore.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
}

// AuditSink records attacker activity. Record never returns an error and
// never panics: a logging fault must not fail a request.
type AuditSink interface {
	Record(level slog.Level, eventType string, payload map[string]any)
}

// MazeService is the deception engine behind the catch-all route.
type MazeService interface {
	Handle(ctx context.Context, req domain.MazeRequest) domain.Response
}

// TokenService runs the fake-authentication escalation ladder.
type TokenService interface {
	IssueUserToken(subject string) (string, domain.DecoyToken)
	// IssueAdminToken succeeds iff the presented credential decodes to
	// LevelUser or above.
	IssueAdminToken(presented string) (string, domain.DecoyToken, error)
	// IssueInternalToken succeeds iff the presented credential decodes to
	// LevelAdmin or above.
	IssueInternalToken(presented string) (string, domain.DecoyToken, error)
	// Decode never fails: malformed input yields a LevelPublic token.
	Decode(raw string) domain.DecoyToken
}

// BeaconService is the bait-file lifecycle tracker.
type BeaconService interface {
	Create(ctx context.Context, fileType, sourceEndpoint string) (string, error)
	RecordDownload(ctx context.Context, id, ip string)
	// RecordActivation reports whether the beacon was known. The outward
	// HTTP effect is identical either way; the result is for logging only.
	RecordActivation(ctx context.Context, id, ip string) bool
}
