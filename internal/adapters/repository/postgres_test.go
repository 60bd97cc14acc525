package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("maze_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432").
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		t.Fatalf("failed to open db: %s", err)
	}

	schema, err := os.ReadFile(filepath.Join(".", "schema.sql"))
	if err != nil {
		t.Fatalf("failed to read schema: %s", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("failed to apply schema: %s", err)
	}

	return db, func() {
		db.Close()
		pgContainer.Terminate(ctx)
	}
}

func TestPostgresStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	t.Run("EndpointLifecycle", func(t *testing.T) {
		rec := &domain.EndpointRecord{
			Method: "GET", Path: "/api/v1/users", AccessLevel: domain.LevelUser,
			Status: 200, Body: []byte(`{"data":[]}`), Breadcrumbs: []string{"/api/v1/orders"},
			CreatedAt: time.Now().UTC(), HitCount: 1,
		}

		got, err := store.PutIfAbsent(ctx, rec)
		if err != nil {
			t.Fatalf("PutIfAbsent: %v", err)
		}
		if string(got.Body) != `{"data":[]}` {
			t.Fatalf("unexpected body: %s", got.Body)
		}

		loser := &domain.EndpointRecord{
			Method: "GET", Path: "/api/v1/users", Status: 200,
			Body: []byte(`{"data":["other"]}`), CreatedAt: time.Now().UTC(), HitCount: 1,
		}
		got2, err := store.PutIfAbsent(ctx, loser)
		if err != nil {
			t.Fatalf("PutIfAbsent loser: %v", err)
		}
		if string(got2.Body) != `{"data":[]}` {
			t.Fatal("first writer must win on conflict")
		}

		if err := store.Touch(ctx, "GET", "/api/v1/users"); err != nil {
			t.Fatalf("Touch: %v", err)
		}
		after, err := store.GetEndpoint(ctx, "GET", "/api/v1/users")
		if err != nil {
			t.Fatalf("GetEndpoint: %v", err)
		}
		if after.HitCount != 2 {
			t.Errorf("hit count = %d, want 2", after.HitCount)
		}
		if len(after.Breadcrumbs) != 1 || after.Breadcrumbs[0] != "/api/v1/orders" {
			t.Errorf("breadcrumbs round trip failed: %v", after.Breadcrumbs)
		}
	})

	t.Run("BeaconLifecycle", func(t *testing.T) {
		now := time.Now().UTC()
		b := &domain.Beacon{ID: "11111111-2222-3333-4444-555555555555", FileType: "pdf", SourceEndpoint: "/api/download/report.pdf", CreatedAt: now}
		if err := store.SaveBeacon(ctx, b); err != nil {
			t.Fatalf("SaveBeacon: %v", err)
		}

		known, err := store.MarkDownloaded(ctx, b.ID, "203.0.113.10", now)
		if err != nil || !known {
			t.Fatalf("MarkDownloaded: known=%v err=%v", known, err)
		}

		known, err = store.MarkActivated(ctx, b.ID, "198.51.100.7", now)
		if err != nil || !known {
			t.Fatalf("MarkActivated: known=%v err=%v", known, err)
		}
		// Repeat activation keeps the original stamp.
		if _, err := store.MarkActivated(ctx, b.ID, "192.0.2.99", now.Add(time.Hour)); err != nil {
			t.Fatalf("repeat MarkActivated: %v", err)
		}

		got, err := store.GetBeacon(ctx, b.ID)
		if err != nil || got == nil {
			t.Fatalf("GetBeacon: %v", err)
		}
		if got.ActivatedIP != "198.51.100.7" {
			t.Errorf("activation IP = %q, first activation must win", got.ActivatedIP)
		}
		if got.DownloadIP != "203.0.113.10" || got.DownloadedAt == nil {
			t.Errorf("download stamp missing: %+v", got)
		}

		known, err = store.MarkActivated(ctx, "99999999-0000-0000-0000-000000000000", "192.0.2.99", now)
		if err != nil {
			t.Fatalf("unknown MarkActivated: %v", err)
		}
		if known {
			t.Error("unknown beacon reported known")
		}
		if ghost, _ := store.GetBeacon(ctx, "99999999-0000-0000-0000-000000000000"); ghost != nil {
			t.Error("unknown activation must not create a record")
		}
	})

	t.Run("Stats", func(t *testing.T) {
		stats, err := store.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats: %v", err)
		}
		if stats.Endpoints != 1 || stats.Beacons != 1 || stats.ActivatedBeacons != 1 {
			t.Errorf("unexpected stats: %+v", stats)
		}
	})
}
