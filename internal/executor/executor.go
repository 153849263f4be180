// Package executor runs a probing job: it plans the candidate order, seeds the
// work queue, drives the worker pool and finalizes the checkpoint and stats.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"

	"github.com/dcheck/dcheck/internal/labels"
	"github.com/dcheck/dcheck/internal/stats"
	"github.com/dcheck/dcheck/internal/types"
)

// Checker probes one domain. *prober.Prober implements it.
type Checker interface {
	Check(ctx context.Context, fqn string) types.Result
}

// Gate spaces requests across workers. *ratelimit.Limiter implements it.
type Gate interface {
	Wait(ctx context.Context) error
}

// Config holds everything one run needs
type Config struct {
	Candidates  labels.Space  // Candidate labels (pattern or wordlist)
	Suffix      string        // Top-level suffix appended to every label
	Concurrency int           // Number of workers (default: 20)
	Checker     Checker       // Per-domain prober
	Limiter     Gate          // Global request gate; nil means unlimited
	Resume      bool          // Skip domains recorded in the checkpoint
	Checkpoint  string        // Checkpoint location; empty disables persistence
	Shuffle     bool          // Visit candidates in seeded random order
	Seed        uint64        // Shuffle seed; 0 picks one from the clock
	SinkPath    string        // Available domains file; empty disables it
	RunID       string        // Run identifier; generated when empty
	Progress    time.Duration // Progress bar refresh interval; 0 disables it
	Out         io.Writer     // Receives "AVAILABLE <fqn>" lines (default: stdout)
	Diagnostics io.Writer     // Warnings and run messages (default: stderr)
}

// DefaultConfig returns default executor configuration
func DefaultConfig() *Config {
	return &Config{
		Concurrency: 20,
		Progress:    2 * time.Second,
		Out:         os.Stdout,
		Diagnostics: os.Stderr,
	}
}

// Validate checks if the configuration has valid values
func (c *Config) Validate() error {
	if c.Candidates == nil {
		return errors.New("candidate source is required")
	}
	if c.Suffix == "" {
		return errors.New("suffix is required")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1 (got %d)", c.Concurrency)
	}
	if c.Checker == nil {
		return errors.New("checker is required")
	}
	return nil
}

// Summary reports the outcome of a run
type Summary struct {
	RunID             string
	Total             int64 // Size of the candidate space
	Skipped           int64 // Candidates already in the checkpoint
	Planned           int64 // Lookups this run set out to do
	Counts            types.Counts
	Interrupted       bool // Canceled before the queue drained
	Found             bool // At least one available domain
	SinkPath          string
	CheckpointCleared bool
	Duration          time.Duration
}

// Status is a live view of a running job
type Status struct {
	RunID   string       `json:"run_id"`
	Running bool         `json:"running"`
	Planned int64        `json:"planned"`
	Counts  types.Counts `json:"counts"`
	Current []string     `json:"current"`
	Started time.Time    `json:"started"`
}

// Executor runs one probing job
type Executor struct {
	cfg   Config
	stats *stats.Aggregator

	planned atomic.Int64
	running atomic.Bool
	started atomic.Int64 // unix nanos, 0 before Run

	ran atomic.Bool

	bar atomic.Pointer[pb.ProgressBar] // nil unless a progress bar is showing
}

// New validates cfg and prepares the run. Stats is usable before Run starts;
// the discovery sink is opened by Run once the checkpoint is locked.
func New(cfg *Config) (*Executor, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid executor configuration: %w", err)
	}

	c := *cfg
	if c.Out == nil {
		c.Out = os.Stdout
	}
	if c.Diagnostics == nil {
		c.Diagnostics = os.Stderr
	}
	c.Out = SyncWriter(c.Out)
	c.Diagnostics = SyncWriter(c.Diagnostics)
	if c.RunID == "" {
		c.RunID = uuid.NewString()
	}
	if c.Shuffle && c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano())
	}

	return &Executor{
		cfg:   c,
		stats: stats.New(stats.Options{SinkPath: c.SinkPath, Diagnostics: c.Diagnostics}),
	}, nil
}

// RunID returns the identifier of this run
func (e *Executor) RunID() string { return e.cfg.RunID }

// Stats returns the run's aggregator
func (e *Executor) Stats() *stats.Aggregator { return e.stats }

// Status returns a live view of the run
func (e *Executor) Status() Status {
	return Status{
		RunID:   e.cfg.RunID,
		Running: e.running.Load(),
		Planned: e.planned.Load(),
		Counts:  e.stats.Snapshot(),
		Current: e.stats.Current(),
		Started: e.startedAt(),
	}
}

func (e *Executor) startedAt() time.Time {
	n := e.started.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
