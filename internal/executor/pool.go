package executor

import (
	"context"
	"fmt"

	"github.com/cheggaaa/pb/v3"

	"github.com/dcheck/dcheck/internal/queue"
	"github.com/dcheck/dcheck/internal/storage"
	"github.com/dcheck/dcheck/internal/types"
)

const progressTemplate = `Checked {{counters . }} {{bar . }} {{percent . }} {{string . "status"}}`

// work is one worker loop. It returns after consuming its sentinel, or
// when ctx is canceled.
func (e *Executor) work(ctx context.Context, id int, q *queue.Queue, tracker *storage.Tracker) error {
	for {
		task, err := q.Get(ctx)
		if err != nil {
			return nil
		}
		if task.IsSentinel() {
			q.Done()
			return nil
		}
		e.process(ctx, id, task.FQN, tracker)
		q.Done()
	}
}

// process probes one domain and records it. A probe abandoned by
// cancellation records nothing, so a resumed run tries it again.
func (e *Executor) process(ctx context.Context, id int, fqn string, tracker *storage.Tracker) {
	e.stats.SetCurrent(id, fqn)
	defer e.stats.SetCurrent(id, "")

	if e.cfg.Limiter != nil {
		if err := e.cfg.Limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			// The gate refused without cancellation (e.g. the wait would
			// pass the deadline); the item still counts once, as an error.
			fmt.Fprintf(e.cfg.Diagnostics, "Rate limiter error for %s: %v\n", fqn, err)
			e.finish(ctx, types.Result{
				FQN:     fqn,
				Outcome: types.OutcomeIndeterminate,
				Reason:  "rate limiter: " + err.Error(),
			}, tracker)
			return
		}
	}

	res := e.cfg.Checker.Check(ctx, fqn)
	if ctx.Err() != nil {
		return
	}
	e.finish(ctx, res, tracker)
}

// finish reports and records a completed item
func (e *Executor) finish(ctx context.Context, res types.Result, tracker *storage.Tracker) {
	if res.Outcome == types.OutcomeAvailable {
		fmt.Fprintf(e.cfg.Out, "AVAILABLE  %s\n", res.FQN)
	}
	e.stats.Record(res)
	// The item completed; persist it even if the run is canceled meanwhile
	tracker.MarkChecked(context.WithoutCancel(ctx), res.FQN)

	if bar := e.bar.Load(); bar != nil {
		bar.SetCurrent(int64(e.stats.Snapshot().Completed))
		bar.Set("status", e.progressStatus())
	}
}

// startProgress renders a progress bar on Diagnostics, refreshed every
// Progress interval, until the returned stop function is called
func (e *Executor) startProgress() (stop func()) {
	if e.cfg.Progress <= 0 {
		return func() {}
	}
	bar := pb.New64(e.planned.Load())
	bar.SetTemplateString(progressTemplate)
	bar.SetWriter(e.cfg.Diagnostics)
	bar.SetRefreshRate(e.cfg.Progress)
	bar.Set("status", e.progressStatus())
	e.bar.Store(bar)
	bar.Start()

	return func() {
		e.bar.Store(nil)
		bar.SetCurrent(int64(e.stats.Snapshot().Completed))
		bar.Set("status", e.progressStatus())
		bar.Finish()
	}
}

// progressStatus summarizes the counters and the domains being probed
func (e *Executor) progressStatus() string {
	c := e.stats.Snapshot()
	line := fmt.Sprintf("(available=%d, registered=%d, errors=%d)", c.Available, c.Registered, c.Errors)
	if cur := e.stats.Current(); len(cur) > 0 {
		line += " checking " + cur[0]
		if len(cur) > 1 {
			line += fmt.Sprintf(" +%d", len(cur)-1)
		}
	}
	return line
}
