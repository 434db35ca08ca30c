// Package sqlite persists completed review runs so merge requests are
// not re-reviewed at the same head commit.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tbraack/critique/internal/domain"
)

// Store implements the run store port using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for an in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates the runs table if it doesn't exist.
func (s *Store) createSchema() error {
	schema := `
	-- One row per posted review, keyed by (project, mr, head commit)
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		project TEXT NOT NULL,
		mr_iid INTEGER NOT NULL,
		head_sha TEXT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		tokens_in INTEGER NOT NULL DEFAULT 0,
		tokens_out INTEGER NOT NULL DEFAULT 0,
		posted_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_project_mr ON runs(project, mr_iid);
	CREATE INDEX IF NOT EXISTS idx_runs_posted_at ON runs(posted_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores a completed review run. Saving the same run ID again
// replaces the previous row, which covers forced re-reviews.
func (s *Store) SaveRun(ctx context.Context, run domain.ReviewRun) error {
	query := `
		INSERT OR REPLACE INTO runs (run_id, project, mr_iid, head_sha, provider, model, tokens_in, tokens_out, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.Project,
		run.MRIID,
		run.HeadSHA,
		run.Provider,
		run.Model,
		run.TokensIn,
		run.TokensOut,
		run.PostedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// FindRun retrieves a run by ID. Returns (nil, nil) when no run with
// that ID has been recorded.
func (s *Store) FindRun(ctx context.Context, runID string) (*domain.ReviewRun, error) {
	query := `
		SELECT run_id, project, mr_iid, head_sha, provider, model, tokens_in, tokens_out, posted_at
		FROM runs WHERE run_id = ?
	`

	var run domain.ReviewRun
	var postedAt int64

	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&run.RunID,
		&run.Project,
		&run.MRIID,
		&run.HeadSHA,
		&run.Provider,
		&run.Model,
		&run.TokensIn,
		&run.TokensOut,
		&postedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find run: %w", err)
	}

	run.PostedAt = time.Unix(postedAt, 0).UTC()
	return &run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.ReviewRun, error) {
	query := `
		SELECT run_id, project, mr_iid, head_sha, provider, model, tokens_in, tokens_out, posted_at
		FROM runs ORDER BY posted_at DESC LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.ReviewRun
	for rows.Next() {
		var run domain.ReviewRun
		var postedAt int64
		if err := rows.Scan(
			&run.RunID,
			&run.Project,
			&run.MRIID,
			&run.HeadSHA,
			&run.Provider,
			&run.Model,
			&run.TokensIn,
			&run.TokensOut,
			&postedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.PostedAt = time.Unix(postedAt, 0).UTC()
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
