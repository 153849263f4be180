package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dcheck/dcheck/internal/labels"
	"github.com/dcheck/dcheck/internal/queue"
	"github.com/dcheck/dcheck/internal/storage"
	"github.com/dcheck/dcheck/internal/types"
)

// ErrAlreadyRun is returned when Run is called twice on one Executor
var ErrAlreadyRun = errors.New("executor already ran")

// Run executes the job until the queue drains or ctx is canceled.
//
// A canceled ctx is not an error: the summary is marked Interrupted and the
// checkpoint is left in place for a later resume. The checkpoint is deleted
// only when every planned lookup completed. The returned error covers setup
// failures only; per-domain failures are counted in the summary.
func (e *Executor) Run(ctx context.Context) (*Summary, error) {
	if !e.ran.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRun
	}
	start := time.Now()
	e.started.Store(start.UnixNano())
	e.running.Store(true)
	defer e.running.Store(false)

	diag := e.cfg.Diagnostics
	summary := &Summary{
		RunID:    e.cfg.RunID,
		Total:    e.cfg.Candidates.Len(),
		SinkPath: e.stats.SinkPath(),
	}

	tracker, release, err := e.openTracker(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	// Truncate the sink only once this run owns the checkpoint
	e.stats.OpenSink()

	if e.cfg.Resume {
		summary.Skipped = countCheckedIn(tracker, e.cfg.Candidates, e.cfg.Suffix)
		if tracker.Loaded() > 0 {
			fmt.Fprintf(diag, "Resuming from checkpoint: %d domains already checked\n", tracker.Loaded())
		}
	} else if tracker.Loaded() > 0 {
		fmt.Fprintf(diag, "Warning: checkpoint %s already lists %d domains; checking them again (use --resume to skip them)\n",
			e.cfg.Checkpoint, tracker.Loaded())
	}
	summary.Planned = summary.Total - summary.Skipped
	e.planned.Store(summary.Planned)

	if e.cfg.Shuffle {
		fmt.Fprintln(diag, "Domain order shuffled randomly")
	}
	if summary.Skipped > 0 {
		fmt.Fprintf(diag, "Planned lookups: %d domains (remaining), %d total\n", summary.Planned, summary.Total)
	} else {
		fmt.Fprintf(diag, "Planned lookups: %d domains\n", summary.Planned)
	}

	summary.Interrupted = !e.drive(ctx, tracker)
	summary.Counts = e.stats.Snapshot()

	if !summary.Interrupted {
		if err := tracker.Cleanup(context.WithoutCancel(ctx)); err != nil {
			fmt.Fprintf(diag, "Error removing progress checkpoint: %v\n", err)
		} else if e.cfg.Checkpoint != "" {
			summary.CheckpointCleared = true
			fmt.Fprintln(diag, "Progress checkpoint cleared after successful completion")
		}
	}

	found, err := e.stats.Close()
	if err != nil {
		fmt.Fprintf(diag, "Error closing output file: %v\n", err)
	}
	summary.Found = found
	summary.Duration = time.Since(start)
	return summary, nil
}

// openTracker opens the checkpoint backend and takes the run lock: a lock
// file next to document and SQLite checkpoints, or the backend's own lock.
// An existing checkpoint is always loaded and kept; it is removed only after
// a run drains completely. Backend open failures degrade to in-memory
// tracking; a checkpoint held by another live run is an error.
func (e *Executor) openTracker(ctx context.Context) (*storage.Tracker, func(), error) {
	diag := e.cfg.Diagnostics
	location := e.cfg.Checkpoint
	kind := storage.KindOf(location)

	var lockPath string
	if kind == storage.KindDocument || kind == storage.KindSQLite {
		var err error
		lockPath, err = storage.AcquireRunLock(location, e.cfg.RunID)
		if err != nil {
			return nil, nil, err
		}
	}

	backend, err := storage.OpenBackend(ctx, location, e.cfg.RunID)
	if err != nil {
		fmt.Fprintf(diag, "Warning: progress will not be saved: %v\n", err)
		backend = nil
	}

	locker, _ := backend.(storage.Locker)
	if locker != nil {
		if err := locker.Lock(ctx, e.cfg.RunID); err != nil {
			backend.Close()
			storage.ReleaseRunLock(lockPath)
			return nil, nil, err
		}
	}

	tracker := storage.NewTracker(ctx, backend, diag)
	release := func() {
		if locker != nil {
			if err := locker.Unlock(context.WithoutCancel(ctx)); err != nil {
				fmt.Fprintf(diag, "Warning: %v\n", err)
			}
		}
		if err := tracker.Close(); err != nil {
			fmt.Fprintf(diag, "Warning: closing progress checkpoint: %v\n", err)
		}
		if err := storage.ReleaseRunLock(lockPath); err != nil {
			fmt.Fprintf(diag, "Warning: %v\n", err)
		}
	}
	return tracker, release, nil
}

// drive seeds the queue, runs the pool and waits for the drain.
// It reports whether the queue drained fully.
func (e *Executor) drive(ctx context.Context, tracker *storage.Tracker) bool {
	n := e.cfg.Concurrency
	q := queue.New(max(2*n, 64))

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	g, gctx := errgroup.WithContext(workerCtx)

	g.Go(func() error {
		return e.produce(gctx, q, tracker)
	})
	for id := 0; id < n; id++ {
		g.Go(func() error {
			return e.work(gctx, id, q, tracker)
		})
	}

	stopProgress := e.startProgress()
	joinErr := q.Join(gctx)
	stopProgress()

	// Every worker has consumed its sentinel by now; cancellation only
	// reaches a worker that is somehow still blocked.
	cancelWorkers()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(e.cfg.Diagnostics, "Warning: worker pool: %v\n", err)
	}
	return joinErr == nil && ctx.Err() == nil
}

// produce streams the planned FQNs into the queue followed by one sentinel
// per worker
func (e *Executor) produce(ctx context.Context, q *queue.Queue, tracker *storage.Tracker) error {
	defer q.Close()

	space := e.cfg.Candidates
	total := space.Len()
	var perm *labels.Permutation
	if e.cfg.Shuffle {
		perm = labels.NewPermutation(total, e.cfg.Seed)
	}

	for i := int64(0); i < total; i++ {
		idx := i
		if perm != nil {
			idx = perm.At(i)
		}
		fqn := types.FQN(space.At(idx), e.cfg.Suffix)
		if e.cfg.Resume && tracker.IsChecked(fqn) {
			continue
		}
		if err := q.Put(ctx, fqn); err != nil {
			return err
		}
	}
	return q.PutSentinels(ctx, e.cfg.Concurrency)
}

// countCheckedIn counts checkpoint entries that belong to the candidate
// space, without enumerating the space
func countCheckedIn(tracker *storage.Tracker, space labels.Space, suffix string) int64 {
	var n int64
	for _, fqn := range tracker.Checked() {
		label, ok := types.SplitFQN(fqn, suffix)
		if ok && space.Contains(label) {
			n++
		}
	}
	return n
}
