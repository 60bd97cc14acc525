// Package repository provides the persistence substrates for endpoint
// records and beacons.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/domain"
)

// PostgresStore implements ports.EndpointStore and ports.BeaconStore on
// PostgreSQL. PutIfAbsent relies on ON CONFLICT DO NOTHING so the first
// writer wins under concurrent first-access races; beacon transitions use
// conditional updates so the first activation wins.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (r *PostgresStore) GetEndpoint(ctx context.Context, method, path string) (*domain.EndpointRecord, error) {
	query := `SELECT method, path, access_level, status, body, breadcrumbs, created_at, hit_count
	          FROM maze_endpoints WHERE method = $1 AND path = $2`

	var rec domain.EndpointRecord
	var crumbs []byte
	errRow := r.db.QueryRowContext(ctx, query, method, path).
		Scan(&rec.Method, &rec.Path, &rec.AccessLevel, &rec.Status, &rec.Body, &crumbs, &rec.CreatedAt, &rec.HitCount)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, errRow
	}
	if errJSON := json.Unmarshal(crumbs, &rec.Breadcrumbs); errJSON != nil {
		return nil, fmt.Errorf("decode breadcrumbs: %w", errJSON)
	}
	return &rec, nil
}

func (r *PostgresStore) PutIfAbsent(ctx context.Context, rec *domain.EndpointRecord) (*domain.EndpointRecord, error) {
	crumbs := []byte("[]")
	if rec.Breadcrumbs != nil {
		var errJSON error
		crumbs, errJSON = json.Marshal(rec.Breadcrumbs)
		if errJSON != nil {
			return nil, errJSON
		}
	}

	query := `INSERT INTO maze_endpoints (method, path, access_level, status, body, breadcrumbs, created_at, hit_count)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (method, path) DO NOTHING`
	_, errExec := r.db.ExecContext(ctx, query,
		rec.Method, rec.Path, int(rec.AccessLevel), rec.Status, rec.Body, string(crumbs), rec.CreatedAt, rec.HitCount)
	if errExec != nil {
		return nil, errExec
	}

	// Re-read so every racer observes the same canonical record.
	canonical, errGet := r.GetEndpoint(ctx, rec.Method, rec.Path)
	if errGet != nil {
		return nil, errGet
	}
	if canonical == nil {
		return nil, fmt.Errorf("endpoint %s %s vanished after insert", rec.Method, rec.Path)
	}
	return canonical, nil
}

func (r *PostgresStore) Touch(ctx context.Context, method, path string) error {
	query := `UPDATE maze_endpoints SET hit_count = hit_count + 1 WHERE method = $1 AND path = $2`
	_, err := r.db.ExecContext(ctx, query, method, path)
	return err
}

func (r *PostgresStore) Stats(ctx context.Context) (domain.StoreStats, error) {
	var stats domain.StoreStats
	query := `SELECT
	            (SELECT COUNT(*) FROM maze_endpoints),
	            (SELECT COUNT(*) FROM maze_beacons),
	            (SELECT COUNT(*) FROM maze_beacons WHERE activated)`
	err := r.db.QueryRowContext(ctx, query).Scan(&stats.Endpoints, &stats.Beacons, &stats.ActivatedBeacons)
	return stats, err
}

func (r *PostgresStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresStore) SaveBeacon(ctx context.Context, b *domain.Beacon) error {
	query := `INSERT INTO maze_beacons (beacon_id, file_type, source_endpoint, created_at, activated)
	          VALUES ($1, $2, $3, $4, FALSE)`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.FileType, b.SourceEndpoint, b.CreatedAt)
	return err
}

func (r *PostgresStore) GetBeacon(ctx context.Context, id string) (*domain.Beacon, error) {
	query := `SELECT beacon_id, file_type, source_endpoint, created_at, download_ip, downloaded_at,
	                 activated, activated_ip, activated_at
	          FROM maze_beacons WHERE beacon_id = $1`

	var b domain.Beacon
	var downloadIP, activatedIP sql.NullString
	var downloadedAt, activatedAt sql.NullTime
	errRow := r.db.QueryRowContext(ctx, query, id).
		Scan(&b.ID, &b.FileType, &b.SourceEndpoint, &b.CreatedAt, &downloadIP, &downloadedAt,
			&b.Activated, &activatedIP, &activatedAt)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, errRow
	}
	if downloadIP.Valid {
		b.DownloadIP = downloadIP.String
	}
	if downloadedAt.Valid {
		t := downloadedAt.Time
		b.DownloadedAt = &t
	}
	if activatedIP.Valid {
		b.ActivatedIP = activatedIP.String
	}
	if activatedAt.Valid {
		t := activatedAt.Time
		b.ActivatedAt = &t
	}
	return &b, nil
}

func (r *PostgresStore) MarkDownloaded(ctx context.Context, id, ip string, at time.Time) (bool, error) {
	query := `UPDATE maze_beacons SET download_ip = $2, downloaded_at = $3
	          WHERE beacon_id = $1 AND downloaded_at IS NULL`
	res, errExec := r.db.ExecContext(ctx, query, id, ip, at)
	if errExec != nil {
		return false, errExec
	}
	n, errRows := res.RowsAffected()
	if errRows != nil {
		return false, errRows
	}
	if n > 0 {
		return true, nil
	}
	return r.beaconExists(ctx, id)
}

func (r *PostgresStore) MarkActivated(ctx context.Context, id, ip string, at time.Time) (bool, error) {
	query := `UPDATE maze_beacons SET activated = TRUE, activated_ip = $2, activated_at = $3
	          WHERE beacon_id = $1 AND NOT activated`
	res, errExec := r.db.ExecContext(ctx, query, id, ip, at)
	if errExec != nil {
		return false, errExec
	}
	n, errRows := res.RowsAffected()
	if errRows != nil {
		return false, errRows
	}
	if n > 0 {
		return true, nil
	}
	// Zero rows means either a repeat activation (known, stamps kept) or an
	// unknown beacon. Unknown IDs must never create a record.
	return r.beaconExists(ctx, id)
}

func (r *PostgresStore) beaconExists(ctx context.Context, id string) (bool, error) {
	var one int
	errRow := r.db.QueryRowContext(ctx, `SELECT 1 FROM maze_beacons WHERE beacon_id = $1`, id).Scan(&one)
	if errors.Is(errRow, sql.ErrNoRows) {
		return false, nil
	}
	if errRow != nil {
		return false, errRow
	}
	return true, nil
}
