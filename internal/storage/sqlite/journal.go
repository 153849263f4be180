// Package sqlite implements an append-only checkpoint journal on SQLite.
//
// Each checked domain is one row, so marking is O(1) instead of rewriting the
// whole checkpoint; loading replays the table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const schema = `
CREATE TABLE IF NOT EXISTS checked (
	fqn        TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	checked_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checked_run ON checked(run_id);
`

// Journal is a checkpoint backend storing one row per checked domain
type Journal struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	runID  string
	closed bool
}

// Open opens (creating if needed) the journal database at path.
// runID is recorded with every row written by this process.
func Open(ctx context.Context, path, runID string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	dsn := "file:" + filepath.ToSlash(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; the tracker already serializes marks
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Journal{db: db, path: path, runID: runID}, nil
}

// Path returns the database file location
func (j *Journal) Path() string { return j.path }

// Load replays every checked domain
func (j *Journal) Load(ctx context.Context) ([]string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx, `SELECT fqn FROM checked ORDER BY checked_at, fqn`)
	if err != nil {
		return nil, fmt.Errorf("failed to query checked domains: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var fqn string
		if err := rows.Scan(&fqn); err != nil {
			return nil, fmt.Errorf("failed to scan checked domain: %w", err)
		}
		names = append(names, fqn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checked domains: %w", err)
	}
	return names, nil
}

// Persist appends added; the snapshot is not needed
func (j *Journal) Persist(ctx context.Context, added string, _ func() []string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO checked (fqn, run_id, checked_at) VALUES (?, ?, ?)`,
		added, j.runID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", added, err)
	}
	return nil
}

// Remove closes the database and deletes its files
func (j *Journal) Remove(ctx context.Context) error {
	if err := j.Close(); err != nil {
		return err
	}
	for _, p := range []string{j.path, j.path + "-wal", j.path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

// Close closes the database, keeping its files
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
