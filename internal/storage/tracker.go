package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

// Tracker is the set of domains already probed in this or an earlier run.
// The set only grows during a run and every addition is persisted before
// MarkChecked returns.
type Tracker struct {
	mu      sync.Mutex
	checked map[string]struct{}
	loaded  int
	backend Backend
	diag    io.Writer
}

// NewTracker loads the checkpoint from backend (nil for in-memory only).
// A checkpoint that cannot be read is reported to diag and the tracker starts
// empty rather than failing the run.
func NewTracker(ctx context.Context, backend Backend, diag io.Writer) *Tracker {
	if diag == nil {
		diag = os.Stderr
	}
	t := &Tracker{
		checked: make(map[string]struct{}),
		backend: backend,
		diag:    diag,
	}
	if backend == nil {
		return t
	}

	names, err := backend.Load(ctx)
	if err != nil {
		fmt.Fprintf(diag, "Warning: could not load progress, starting fresh: %v\n", err)
		return t
	}
	for _, name := range names {
		t.checked[name] = struct{}{}
	}
	t.loaded = len(t.checked)
	return t
}

// Loaded returns how many domains the checkpoint held at construction
func (t *Tracker) Loaded() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loaded
}

// Len returns the current size of the checked set
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.checked)
}

// MarkChecked adds fqn to the set and synchronously persists it.
// Persistence failures are reported to the diagnostic stream; the in-memory
// set is updated regardless.
func (t *Tracker) MarkChecked(ctx context.Context, fqn string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checked[fqn] = struct{}{}
	if t.backend == nil {
		return
	}
	if err := t.backend.Persist(ctx, fqn, t.snapshotLocked); err != nil {
		fmt.Fprintf(t.diag, "Error saving progress: %v\n", err)
	}
}

// IsChecked reports whether fqn has been probed
func (t *Tracker) IsChecked(fqn string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.checked[fqn]
	return ok
}

// Unchecked returns candidates minus the checked set, preserving order
func (t *Tracker) Unchecked(candidates []string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := t.checked[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Checked returns the checked set, sorted
func (t *Tracker) Checked() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	all := t.snapshotLocked()
	sort.Strings(all)
	return all
}

// snapshotLocked copies the set (must be called with lock held)
func (t *Tracker) snapshotLocked() []string {
	all := make([]string, 0, len(t.checked))
	for name := range t.checked {
		all = append(all, name)
	}
	return all
}

// Cleanup deletes the persisted checkpoint. Call it only after a run that
// finished without interruption.
func (t *Tracker) Cleanup(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.backend == nil {
		return nil
	}
	return t.backend.Remove(ctx)
}

// Close releases the backend, leaving the checkpoint in place
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.backend == nil {
		return nil
	}
	return t.backend.Close()
}
