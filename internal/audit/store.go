// Package audit persists optimization run reports. The engine core never
// persists anything itself; the API server records each invocation here so
// applied changes stay reviewable after the fact. Persistence failures are
// logged and never fail the run.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one recorded engine invocation.
type Run struct {
	ID        uuid.UUID       `json:"id"`
	Caller    string          `json:"caller"`
	Mode      string          `json:"mode"` // "dry_run" or "apply"
	Request   json.RawMessage `json:"request"`
	Report    json.RawMessage `json:"report"`
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Store records runs in postgres.
type Store struct {
	db *sql.DB
}

// NewStore creates an audit store around an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the optimization_runs table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS optimization_runs (
			id UUID PRIMARY KEY,
			caller TEXT NOT NULL,
			mode TEXT NOT NULL,
			request JSONB NOT NULL,
			report JSONB NOT NULL,
			success BOOLEAN NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("migrating optimization_runs: %w", err)
	}
	return nil
}

// RecordRun inserts one run. The caller supplies ID and CreatedAt when it
// needs them to be deterministic; zero values are filled in.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO optimization_runs (id, caller, mode, request, report, success, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, run.ID, run.Caller, run.Mode, []byte(run.Request), []byte(run.Report), run.Success, run.Error, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, caller, mode, request, report, success, error, created_at
		FROM optimization_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var request, report []byte
		if err := rows.Scan(&r.ID, &r.Caller, &r.Mode, &request, &report, &r.Success, &r.Error, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Request = request
		r.Report = report
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id, or sql.ErrNoRows.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var r Run
	var request, report []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, caller, mode, request, report, success, error, created_at
		FROM optimization_runs
		WHERE id = $1
	`, id).Scan(&r.ID, &r.Caller, &r.Mode, &request, &report, &r.Success, &r.Error, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Request = request
	r.Report = report
	return &r, nil
}
