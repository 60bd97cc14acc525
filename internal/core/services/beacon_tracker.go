package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/domain"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/ports"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/infrastructure/metrics"
	"github.com/google/uuid"
)

// beaconTracker drives the bait-file lifecycle: Created -> Downloaded ->
// Activated. Activation is terminal and first-activation-wins; the outward
// effect of a tracking callback is identical whether the beacon is known,
// already activated, or entirely made up, so detection is never revealed.
type beaconTracker struct {
	store  ports.BeaconStore
	sink   ports.AuditSink
	logger *slog.Logger
	now    func() time.Time
}

func NewBeaconTracker(store ports.BeaconStore, sink ports.AuditSink, logger *slog.Logger) ports.BeaconService {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = nopSink{}
	}
	return &beaconTracker{store: store, sink: sink, logger: logger, now: time.Now}
}

func (t *beaconTracker) Create(ctx context.Context, fileType, sourceEndpoint string) (string, error) {
	b := &domain.Beacon{
		ID:             uuid.New().String(),
		FileType:       fileType,
		SourceEndpoint: sourceEndpoint,
		CreatedAt:      t.now(),
	}
	if err := t.store.SaveBeacon(ctx, b); err != nil {
		return "", err
	}
	metrics.BeaconEvents.WithLabelValues("created").Inc()
	return b.ID, nil
}

func (t *beaconTracker) RecordDownload(ctx context.Context, id, ip string) {
	ok, err := t.store.MarkDownloaded(ctx, id, ip, t.now())
	if err != nil {
		t.logger.Error("beacon download stamp failed", "beacon_id", id, "error", err)
		return
	}
	if !ok {
		// Data-quality gap, not an error: the serving path bypassed Create.
		t.logger.Info("download for unknown beacon", "beacon_id", id, "ip", ip)
		return
	}
	metrics.BeaconEvents.WithLabelValues("downloaded").Inc()
	t.sink.Record(slog.LevelWarn, domain.EventFileDownload, map[string]any{
		"beacon_id": id, "ip": ip,
	})
}

func (t *beaconTracker) RecordActivation(ctx context.Context, id, ip string) bool {
	known, err := t.store.MarkActivated(ctx, id, ip, t.now())
	if err != nil {
		t.logger.Error("beacon activation failed", "beacon_id", id, "error", err)
		return false
	}
	if !known {
		metrics.BeaconEvents.WithLabelValues("unknown").Inc()
		t.sink.Record(slog.LevelInfo, domain.EventUnknownBeacon, map[string]any{
			"beacon_id": id, "ip": ip,
		})
		return false
	}
	metrics.BeaconEvents.WithLabelValues("activated").Inc()
	t.sink.Record(slog.LevelError, domain.EventBeaconActivated, map[string]any{
		"beacon_id": id, "ip": ip, "alert": "BAIT FILE OPENED",
	})
	return true
}
