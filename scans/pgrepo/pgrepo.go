// Package pgrepo is the PostgreSQL scan store, used when DATABASE_URL is set.
package pgrepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/ecosnap/ecosnap-server/classify"
	"github.com/ecosnap/ecosnap-server/scans"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS scan_records (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	category TEXT NOT NULL,
	confidence INT NOT NULL,
	reasoning TEXT NOT NULL DEFAULT '',
	credits_earned INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS scan_records_user_created_idx
	ON scan_records (user_id, created_at DESC);`

type Repository struct {
	pool *pgxpool.Pool
}

var _ scans.Repository = (*Repository)(nil)

// New connects to databaseURL and ensures the schema exists.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[New] connect to database")
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "[New] ensure schema")
	}
	return &Repository{pool: pool}, nil
}

// Close releases the connection pool.
func (r *Repository) Close() { r.pool.Close() }

func (r *Repository) Insert(ctx context.Context, rec scans.Record) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO scan_records (id, user_id, category, confidence, reasoning, credits_earned, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.UserID, string(rec.Category), rec.Confidence, rec.Reasoning, rec.CreditsEarned, rec.CreatedAt)
	return errors.Wrap(err, "[Insert] insert scan record")
}

func (r *Repository) ListByUser(ctx context.Context, userID string, limit int) ([]scans.Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, category, confidence, reasoning, credits_earned, created_at
		 FROM scan_records
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "[ListByUser] query scan records")
	}
	defer rows.Close()

	var records []scans.Record
	for rows.Next() {
		var rec scans.Record
		var category string
		if err := rows.Scan(&rec.ID, &rec.UserID, &category, &rec.Confidence,
			&rec.Reasoning, &rec.CreditsEarned, &rec.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "[ListByUser] scan row")
		}
		rec.Category = classify.Category(category)
		records = append(records, rec)
	}
	return records, errors.Wrap(rows.Err(), "[ListByUser] iterate rows")
}

func (r *Repository) TotalCredits(ctx context.Context, userID string) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(credits_earned), 0) FROM scan_records WHERE user_id = $1`,
		userID).Scan(&total)
	return total, errors.Wrap(err, "[TotalCredits] sum credits")
}
