// Package storage tracks which domains have already been probed so an
// interrupted run can resume without repeating work.
//
// The Tracker owns the in-memory set and its lock; persistence is delegated
// to a Backend chosen from the checkpoint location:
//   - "redis://..." or "rediss://...": a Redis set guarded by a lock key (see storage/redisset)
//   - "*.db", "*.sqlite", "*.sqlite3": an append-only SQLite journal (see storage/sqlite)
//   - anything else: a JSON document rewritten on every mark
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dcheck/dcheck/internal/storage/redisset"
	"github.com/dcheck/dcheck/internal/storage/sqlite"
)

// Backend persists the checked set
type Backend interface {
	// Load returns every domain recorded by earlier runs.
	// A missing checkpoint is not an error and yields an empty list.
	Load(ctx context.Context) ([]string, error)

	// Persist records that added was checked. snapshot returns the full
	// current set for backends that rewrite the whole checkpoint.
	Persist(ctx context.Context, added string, snapshot func() []string) error

	// Remove deletes the checkpoint entirely
	Remove(ctx context.Context) error

	// Close releases resources without deleting the checkpoint
	Close() error
}

// Kind identifies a backend type
type Kind string

// Backend kinds
const (
	KindNone     Kind = "none"
	KindDocument Kind = "document"
	KindSQLite   Kind = "sqlite"
	KindRedis    Kind = "redis"
)

// KindOf returns the backend kind selected by a checkpoint location
func KindOf(location string) Kind {
	switch {
	case location == "":
		return KindNone
	case strings.HasPrefix(location, "redis://"), strings.HasPrefix(location, "rediss://"):
		return KindRedis
	}
	switch strings.ToLower(filepath.Ext(location)) {
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite
	}
	return KindDocument
}

// OpenBackend opens the backend for location. runID tags journal rows.
// An empty location returns a nil Backend (in-memory tracking only).
func OpenBackend(ctx context.Context, location, runID string) (Backend, error) {
	switch KindOf(location) {
	case KindNone:
		return nil, nil
	case KindRedis:
		b, err := redisset.Open(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("opening redis checkpoint: %w", err)
		}
		return b, nil
	case KindSQLite:
		b, err := sqlite.Open(ctx, location, runID)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite checkpoint: %w", err)
		}
		return b, nil
	default:
		return NewDocument(location), nil
	}
}

// Locker is implemented by backends that guard a shared checkpoint
// themselves, where no lock file can be placed next to it
type Locker interface {
	Lock(ctx context.Context, runID string) error
	Unlock(ctx context.Context) error
}
