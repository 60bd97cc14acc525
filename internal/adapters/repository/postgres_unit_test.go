package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/domain"
)

func TestPostgresStore_Unit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	store := NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("GetEndpointMissing", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM maze_endpoints WHERE method = \$1 AND path = \$2`).
			WithArgs("GET", "/never").
			WillReturnRows(sqlmock.NewRows([]string{"method", "path", "access_level", "status", "body", "breadcrumbs", "created_at", "hit_count"}))

		rec, err := store.GetEndpoint(ctx, "GET", "/never")
		if err != nil {
			t.Errorf("GetEndpoint failed: %v", err)
		}
		if rec != nil {
			t.Errorf("expected nil for unseen identity, got %+v", rec)
		}
	})

	t.Run("GetEndpoint", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"method", "path", "access_level", "status", "body", "breadcrumbs", "created_at", "hit_count"}).
			AddRow("GET", "/api/v1/users", 1, 200, []byte(`{"data":[]}`), []byte(`["/api/v1/orders"]`), now, int64(4))

		mock.ExpectQuery(`SELECT (.+) FROM maze_endpoints WHERE method = \$1 AND path = \$2`).
			WithArgs("GET", "/api/v1/users").
			WillReturnRows(rows)

		rec, err := store.GetEndpoint(ctx, "GET", "/api/v1/users")
		if err != nil {
			t.Fatalf("GetEndpoint failed: %v", err)
		}
		if rec.AccessLevel != domain.LevelUser || rec.HitCount != 4 {
			t.Errorf("unexpected record: %+v", rec)
		}
		if len(rec.Breadcrumbs) != 1 || rec.Breadcrumbs[0] != "/api/v1/orders" {
			t.Errorf("breadcrumbs not decoded: %v", rec.Breadcrumbs)
		}
	})

	t.Run("PutIfAbsent", func(t *testing.T) {
		rec := &domain.EndpointRecord{
			Method: "GET", Path: "/api/v1/widgets", AccessLevel: domain.LevelUser,
			Status: 200, Body: []byte(`{"v":1}`), Breadcrumbs: []string{"/api/v1/orders"},
			CreatedAt: now, HitCount: 1,
		}

		mock.ExpectExec(`INSERT INTO maze_endpoints (.+) ON CONFLICT \(method, path\) DO NOTHING`).
			WithArgs("GET", "/api/v1/widgets", 1, 200, []byte(`{"v":1}`), `["/api/v1/orders"]`, now, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows := sqlmock.NewRows([]string{"method", "path", "access_level", "status", "body", "breadcrumbs", "created_at", "hit_count"}).
			AddRow("GET", "/api/v1/widgets", 1, 200, []byte(`{"v":1}`), []byte(`["/api/v1/orders"]`), now, int64(1))
		mock.ExpectQuery(`SELECT (.+) FROM maze_endpoints WHERE method = \$1 AND path = \$2`).
			WithArgs("GET", "/api/v1/widgets").
			WillReturnRows(rows)

		got, err := store.PutIfAbsent(ctx, rec)
		if err != nil {
			t.Fatalf("PutIfAbsent failed: %v", err)
		}
		if string(got.Body) != `{"v":1}` {
			t.Errorf("unexpected canonical record: %+v", got)
		}
	})

	t.Run("PutIfAbsentLosingRacer", func(t *testing.T) {
		rec := &domain.EndpointRecord{
			Method: "GET", Path: "/api/v1/widgets", Status: 200,
			Body: []byte(`{"v":2}`), CreatedAt: now, HitCount: 1,
		}

		// Conflict: zero rows inserted, re-read returns the earlier record.
		mock.ExpectExec(`INSERT INTO maze_endpoints (.+) ON CONFLICT \(method, path\) DO NOTHING`).
			WithArgs("GET", "/api/v1/widgets", 0, 200, []byte(`{"v":2}`), `[]`, now, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows := sqlmock.NewRows([]string{"method", "path", "access_level", "status", "body", "breadcrumbs", "created_at", "hit_count"}).
			AddRow("GET", "/api/v1/widgets", 1, 200, []byte(`{"v":1}`), []byte(`[]`), now, int64(1))
		mock.ExpectQuery(`SELECT (.+) FROM maze_endpoints WHERE method = \$1 AND path = \$2`).
			WithArgs("GET", "/api/v1/widgets").
			WillReturnRows(rows)

		got, err := store.PutIfAbsent(ctx, rec)
		if err != nil {
			t.Fatalf("PutIfAbsent failed: %v", err)
		}
		if string(got.Body) != `{"v":1}` {
			t.Errorf("losing racer must observe the first record, got %s", got.Body)
		}
	})

	t.Run("Touch", func(t *testing.T) {
		mock.ExpectExec(`UPDATE maze_endpoints SET hit_count = hit_count \+ 1`).
			WithArgs("GET", "/api/v1/users").
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := store.Touch(ctx, "GET", "/api/v1/users"); err != nil {
			t.Errorf("Touch failed: %v", err)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		mock.ExpectQuery(`SELECT`).
			WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c"}).AddRow(int64(12), int64(3), int64(1)))

		stats, err := store.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if stats.Endpoints != 12 || stats.Beacons != 3 || stats.ActivatedBeacons != 1 {
			t.Errorf("unexpected stats: %+v", stats)
		}
	})

	t.Run("SaveBeacon", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO maze_beacons`).
			WithArgs("b-1", "pdf", "/api/download/report.pdf", now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.SaveBeacon(ctx, &domain.Beacon{ID: "b-1", FileType: "pdf", SourceEndpoint: "/api/download/report.pdf", CreatedAt: now})
		if err != nil {
			t.Errorf("SaveBeacon failed: %v", err)
		}
	})

	t.Run("MarkActivatedFirst", func(t *testing.T) {
		mock.ExpectExec(`UPDATE maze_beacons SET activated = TRUE`).
			WithArgs("b-1", "198.51.100.7", now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		known, err := store.MarkActivated(ctx, "b-1", "198.51.100.7", now)
		if err != nil || !known {
			t.Errorf("MarkActivated: known=%v err=%v", known, err)
		}
	})

	t.Run("MarkActivatedRepeat", func(t *testing.T) {
		mock.ExpectExec(`UPDATE maze_beacons SET activated = TRUE`).
			WithArgs("b-1", "192.0.2.99", now).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT 1 FROM maze_beacons WHERE beacon_id = \$1`).
			WithArgs("b-1").
			WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))

		known, err := store.MarkActivated(ctx, "b-1", "192.0.2.99", now)
		if err != nil {
			t.Fatalf("MarkActivated failed: %v", err)
		}
		if !known {
			t.Error("repeat activation of a known beacon must report known")
		}
	})

	t.Run("MarkActivatedUnknown", func(t *testing.T) {
		mock.ExpectExec(`UPDATE maze_beacons SET activated = TRUE`).
			WithArgs("ghost", "192.0.2.99", now).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT 1 FROM maze_beacons WHERE beacon_id = \$1`).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"one"}))

		known, err := store.MarkActivated(ctx, "ghost", "192.0.2.99", now)
		if err != nil {
			t.Fatalf("MarkActivated failed: %v", err)
		}
		if known {
			t.Error("unknown beacon must report unknown")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
