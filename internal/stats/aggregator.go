// Package stats aggregates per-domain outcomes for a run.
package stats

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/dcheck/dcheck/internal/types"
)

// Options configures an Aggregator
type Options struct {
	// SinkPath receives one available domain per line. Empty disables the sink.
	SinkPath string

	// Diagnostics receives sink write failures. Defaults to os.Stderr.
	Diagnostics io.Writer

	// OnChange, if set, is called inside the critical section after every
	// counter mutation. Used to observe the counters without racing workers.
	OnChange func(types.Counts)
}

// Aggregator holds the run counters and the discovery sink.
// All counter updates for one event happen in one critical section so that
// Completed == Available + Registered + Errors is never observably broken.
type Aggregator struct {
	mu        sync.Mutex
	counts    types.Counts
	available []string
	sinkPath  string
	sinkFile  *os.File
	sink      *bufio.Writer
	diag      io.Writer
	onChange  func(types.Counts)

	curMu   sync.Mutex
	current map[int]string
}

// New creates an aggregator. The sink is not touched until OpenSink.
func New(opts Options) *Aggregator {
	a := &Aggregator{
		sinkPath: opts.SinkPath,
		diag:     opts.Diagnostics,
		onChange: opts.OnChange,
		current:  make(map[int]string),
	}
	if a.diag == nil {
		a.diag = os.Stderr
	}
	return a
}

// OpenSink creates (truncating) the sink file. A sink that cannot be opened
// is reported to Diagnostics and disabled; the run continues without it.
func (a *Aggregator) OpenSink() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sinkPath == "" || a.sinkFile != nil {
		return
	}
	f, err := os.Create(a.sinkPath)
	if err != nil {
		fmt.Fprintf(a.diag, "Error opening output file %s: %v\n", a.sinkPath, err)
		return
	}
	a.sinkFile = f
	a.sink = bufio.NewWriter(f)
}

// Record dispatches exactly one increment matching res.Outcome
func (a *Aggregator) Record(res types.Result) {
	switch res.Outcome {
	case types.OutcomeAvailable:
		a.AddAvailable(res.FQN)
	case types.OutcomeRegistered:
		a.AddRegistered(res.FQN)
	default:
		a.AddError(res.FQN)
	}
}

// AddAvailable counts an available domain and appends it to the sink
func (a *Aggregator) AddAvailable(fqn string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.counts.Available++
	a.counts.Completed++
	if fqn != "" {
		a.available = append(a.available, fqn)
		if a.sink != nil {
			if _, err := a.sink.WriteString(fqn + "\n"); err == nil {
				err = a.sink.Flush()
				if err != nil {
					fmt.Fprintf(a.diag, "Error writing domain %s to file: %v\n", fqn, err)
				}
			} else {
				fmt.Fprintf(a.diag, "Error writing domain %s to file: %v\n", fqn, err)
			}
		}
	}
	a.notifyLocked()
}

// AddRegistered counts a registered domain
func (a *Aggregator) AddRegistered(string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts.Registered++
	a.counts.Completed++
	a.notifyLocked()
}

// AddError counts a domain whose status could not be determined
func (a *Aggregator) AddError(string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts.Errors++
	a.counts.Completed++
	a.notifyLocked()
}

func (a *Aggregator) notifyLocked() {
	if a.onChange != nil {
		a.onChange(a.counts)
	}
}

// Snapshot returns a consistent copy of the counters
func (a *Aggregator) Snapshot() types.Counts {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts
}

// Available returns the available domains found so far, in discovery order
func (a *Aggregator) Available() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.available...)
}

// SinkPath returns the configured sink path, empty if none
func (a *Aggregator) SinkPath() string { return a.sinkPath }

// SetCurrent publishes the domain a worker is about to probe. Best effort.
func (a *Aggregator) SetCurrent(worker int, fqn string) {
	a.curMu.Lock()
	defer a.curMu.Unlock()
	if fqn == "" {
		delete(a.current, worker)
		return
	}
	a.current[worker] = fqn
}

// Current returns the domains currently being probed, sorted
func (a *Aggregator) Current() []string {
	a.curMu.Lock()
	defer a.curMu.Unlock()
	out := make([]string, 0, len(a.current))
	for _, fqn := range a.current {
		out = append(out, fqn)
	}
	sort.Strings(out)
	return out
}

// Close finalizes the sink and reports whether any available domain was found
func (a *Aggregator) Close() (found bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	found = a.counts.Available > 0
	if a.sinkFile == nil {
		return found, nil
	}
	if ferr := a.sink.Flush(); ferr != nil {
		err = fmt.Errorf("flushing output file: %w", ferr)
	}
	if cerr := a.sinkFile.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("closing output file: %w", cerr)
	}
	a.sinkFile = nil
	a.sink = nil
	return found, err
}
