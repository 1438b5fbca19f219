// Package store persists completed analysis reports in Postgres. The
// service runs without it when no DSN is configured; the cache then
// holds reports for their TTL only.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ankitjain91/pmfit-analyzer/internal/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
    id         UUID PRIMARY KEY,
    idea       TEXT NOT NULL,
    score      INT NOT NULL,
    verdict    TEXT NOT NULL,
    report     JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS reports_created_at_idx ON reports (created_at DESC);
`

type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool, verifies it with a ping, and
// ensures the schema exists.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SaveReport upserts a report; re-analyses of a cached idea keep the
// original row.
func (s *Store) SaveReport(ctx context.Context, r *analysis.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO reports (id, idea, score, verdict, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.Idea, r.Score, r.Verdict, payload, r.CreatedAt)
	return err
}

func (s *Store) GetReport(ctx context.Context, id string) (*analysis.Report, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT report FROM reports WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, analysis.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var r analysis.Report
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", id, err)
	}
	return &r, nil
}

func (s *Store) RecentReports(ctx context.Context, limit int) ([]*analysis.Report, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT report FROM reports ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*analysis.Report
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var r analysis.Report
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
