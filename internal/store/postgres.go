package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/mediascan/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStoreWithPool wraps an existing pool (shared with the library,
// which owns its lifecycle).
func NewPostgresStoreWithPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the decisions table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS decisions (
			kind       TEXT NOT NULL,
			asset_id   TEXT NOT NULL,
			value      BOOLEAN NOT NULL,
			score      DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (kind, asset_id)
		)`)
	if err != nil {
		return fmt.Errorf("ensure decisions schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertBatch(ctx context.Context, records []models.StoredRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(
			`INSERT INTO decisions (kind, asset_id, value, score, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (kind, asset_id) DO NOTHING`,
			r.Kind, r.AssetID, r.Value, r.Score, r.CreatedAt)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert decision batch: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, kind models.DecisionKind, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM decisions WHERE kind = $1 AND asset_id = $2`, kind, id)
	if err != nil {
		return fmt.Errorf("delete decision %s/%s: %w", kind, id, err)
	}
	return nil
}

func (s *PostgresStore) DeleteBatch(ctx context.Context, kind models.DecisionKind, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM decisions WHERE kind = $1 AND asset_id = ANY($2)`, kind, ids)
	if err != nil {
		return fmt.Errorf("delete decision batch %s: %w", kind, err)
	}
	return nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context, kind models.DecisionKind) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM decisions WHERE kind = $1`, kind)
	if err != nil {
		return fmt.Errorf("delete all decisions %s: %w", kind, err)
	}
	return nil
}

func (s *PostgresStore) FetchAll(ctx context.Context, kind models.DecisionKind) ([]models.StoredRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT kind, asset_id, value, score, created_at FROM decisions WHERE kind = $1`, kind)
	if err != nil {
		return nil, fmt.Errorf("fetch decisions %s: %w", kind, err)
	}
	defer rows.Close()

	var records []models.StoredRecord
	for rows.Next() {
		var r models.StoredRecord
		if err := rows.Scan(&r.Kind, &r.AssetID, &r.Value, &r.Score, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PostgresStore) FetchByID(ctx context.Context, kind models.DecisionKind, id string) (*models.StoredRecord, error) {
	r := &models.StoredRecord{}
	err := s.pool.QueryRow(ctx,
		`SELECT kind, asset_id, value, score, created_at FROM decisions WHERE kind = $1 AND asset_id = $2`,
		kind, id,
	).Scan(&r.Kind, &r.AssetID, &r.Value, &r.Score, &r.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch decision %s/%s: %w", kind, id, err)
	}
	return r, nil
}
