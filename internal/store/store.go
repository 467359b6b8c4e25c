// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists batch runs, search links and extracted page text in
// a SQLite database so results can be inspected and searched after a run.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/keyword-query/pkg/types"
)

// timeFmt is fixed width so stored UTC timestamps sort as text in time order.
const timeFmt = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the results database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at cfg.Path, creating parent
// directories and the schema as needed.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = types.DefaultStorePath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Batch workers write concurrently; SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started TEXT NOT NULL,
			finished TEXT,
			row_count INTEGER NOT NULL DEFAULT 0,
			succeeded INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS queries (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			row_index INTEGER NOT NULL,
			keyword1 TEXT NOT NULL,
			keyword2 TEXT NOT NULL,
			error TEXT,
			duration_ms INTEGER,
			PRIMARY KEY (run_id, row_index)
		)`,
		`CREATE TABLE IF NOT EXISTS links (
			run_id TEXT NOT NULL,
			row_index INTEGER NOT NULL,
			rank INTEGER NOT NULL,
			url TEXT NOT NULL,
			extracted INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, row_index, rank),
			FOREIGN KEY (run_id, row_index) REFERENCES queries(run_id, row_index) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_links_url ON links(url)`,
		`CREATE TABLE IF NOT EXISTS pages (
			url TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun records a new run of the given size and returns its ID.
func (s *Store) BeginRun(ctx context.Context, rows int, started time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started, row_count) VALUES (?, ?, ?)`,
		id, started.UTC().Format(timeFmt), rows,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

// FinishRun stores the final counts of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, report types.BatchReport) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished = ?, succeeded = ?, failed = ? WHERE id = ?`,
		report.Finished.UTC().Format(timeFmt), report.Succeeded, report.Failed, runID,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// SaveRun stores a complete report as a new run and returns its ID.
func (s *Store) SaveRun(ctx context.Context, report types.BatchReport) (string, error) {
	runID, err := s.BeginRun(ctx, len(report.Rows), report.Started)
	if err != nil {
		return "", err
	}
	for _, row := range report.Rows {
		if err := s.SaveRow(ctx, runID, row); err != nil {
			return runID, err
		}
	}
	return runID, s.FinishRun(ctx, runID, report)
}

// SaveRow stores one row's query, links and page text. Saving the same row
// twice replaces it. Page text is shared across runs by URL; an empty
// extraction never overwrites text stored earlier.
func (s *Store) SaveRow(ctx context.Context, runID string, row types.RowResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM queries WHERE run_id = ? AND row_index = ?`, runID, row.Index,
	); err != nil {
		return fmt.Errorf("deleting old row: %w", err)
	}

	var errText sql.NullString
	if row.Err != "" {
		errText = sql.NullString{String: row.Err, Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO queries (run_id, row_index, keyword1, keyword2, error, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, row.Index, row.Pair.Keyword1, row.Pair.Keyword2, errText, row.Duration.Milliseconds(),
	); err != nil {
		return fmt.Errorf("inserting query row %d: %w", row.Index, err)
	}

	linkStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO links (run_id, row_index, rank, url, extracted) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing link insert: %w", err)
	}
	defer linkStmt.Close()
	for rank, u := range row.URLs {
		// Pages are the leading URLs in rank order.
		extracted := rank < len(row.Pages) && row.Pages[rank].URL == u
		if _, err := linkStmt.ExecContext(ctx, runID, row.Index, rank, u, extracted); err != nil {
			return fmt.Errorf("inserting link %s: %w", u, err)
		}
	}

	now := time.Now().UTC().Format(timeFmt)
	for _, p := range row.Pages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pages (url, text, fetched_at) VALUES (?, ?, ?)
			 ON CONFLICT(url) DO UPDATE SET text = excluded.text, fetched_at = excluded.fetched_at
			 WHERE excluded.text != ''`,
			p.URL, p.Text, now,
		); err != nil {
			return fmt.Errorf("upserting page %s: %w", p.URL, err)
		}
	}

	return tx.Commit()
}

// RunSink adapts a Store to receive rows of one run as they finish.
type RunSink struct {
	store *Store
	runID string
}

// Sink returns a RunSink that saves rows under runID.
func (s *Store) Sink(runID string) *RunSink {
	return &RunSink{store: s, runID: runID}
}

// Put saves the row.
func (r *RunSink) Put(ctx context.Context, row types.RowResult) error {
	return r.store.SaveRow(ctx, r.runID, row)
}
