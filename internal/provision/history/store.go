// Package history persists provisioning run outcomes in a local sqlite
// database so past runs can be inspected with the history command.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var ddl string

// Outcome values for a recorded run.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Run is one recorded provisioning run.
type Run struct {
	ID         string
	Host       string
	Tunnel     string
	Outcome    string
	FailedStep string
	Error      string
	StartedAt  time.Time
	Duration   time.Duration
}

// Store defines all functions to interact with the run history.
type Store interface {
	RecordRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Ping(ctx context.Context) error
	Close() error
}

// SQLStore implements Store on top of database/sql with sqlite.
type SQLStore struct {
	db *sql.DB
}

// NewStore opens (or creates) the sqlite database at path and ensures the
// schema is present.
func NewStore(path string) (Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database schema: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// NewStoreFromDB creates a Store from an existing database connection.
// Useful for testing.
func NewStoreFromDB(db *sql.DB) (Store, error) {
	if _, err := db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("failed to setup database schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// RecordRun inserts a run outcome.
func (s *SQLStore) RecordRun(ctx context.Context, run Run) error {
	const query = `
		INSERT INTO runs (id, host, tunnel, outcome, failed_step, error, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Host,
		run.Tunnel,
		run.Outcome,
		nullString(run.FailedStep),
		nullString(run.Error),
		run.StartedAt.UTC(),
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `
		SELECT id, host, tunnel, outcome, failed_step, error, started_at, duration_ms
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			failedStep sql.NullString
			errMsg     sql.NullString
			durationMS int64
		)
		if err := rows.Scan(&run.ID, &run.Host, &run.Tunnel, &run.Outcome,
			&failedStep, &errMsg, &run.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.FailedStep = failedStep.String
		run.Error = errMsg.String
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
