// Package queue implements the bounded work queue feeding the worker pool.
//
// Real items are followed by exactly one sentinel per worker. A worker stops
// pulling as soon as it receives a sentinel, so N sentinels stop N workers
// without any of them blocking on an empty queue. Every item, sentinels
// included, must be acknowledged with Done; Join returns once the producer has
// closed the queue and nothing is left unacknowledged.
package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Put after Close
var ErrClosed = errors.New("queue closed")

// Task is one queue entry: a domain to probe or a shutdown sentinel
type Task struct {
	FQN      string
	sentinel bool
}

// IsSentinel reports whether the task tells its worker to stop
func (t Task) IsSentinel() bool { return t.sentinel }

// Queue is a FIFO of tasks with drain tracking
type Queue struct {
	ch chan Task

	mu          sync.Mutex
	outstanding int
	closed      bool
	drained     chan struct{}
}

// New creates a queue buffering up to capacity tasks
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		ch:      make(chan Task, capacity),
		drained: make(chan struct{}),
	}
}

// Put enqueues a domain, blocking while the buffer is full
func (q *Queue) Put(ctx context.Context, fqn string) error {
	return q.put(ctx, Task{FQN: fqn})
}

// PutSentinels enqueues n shutdown sentinels
func (q *Queue) PutSentinels(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := q.put(ctx, Task{sentinel: true}); err != nil {
			return err
		}
	}
	return nil
}

func (q *Queue) put(ctx context.Context, t Task) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.outstanding++
	q.mu.Unlock()

	select {
	case q.ch <- t:
		return nil
	case <-ctx.Done():
		q.Done()
		return ctx.Err()
	}
}

// Get dequeues the next task, blocking while the queue is empty
func (q *Queue) Get(ctx context.Context) (Task, error) {
	select {
	case t := <-q.ch:
		return t, nil
	case <-ctx.Done():
		return Task{}, ctx.Err()
	}
}

// Done acknowledges one task returned by Get
func (q *Queue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.outstanding <= 0 {
		panic("queue: Done called more times than tasks were put")
	}
	q.outstanding--
	q.signalLocked()
}

// Close marks the end of production. Join cannot return before Close.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.signalLocked()
}

// signalLocked releases Join once closed and fully acknowledged (must be called with lock held)
func (q *Queue) signalLocked() {
	if q.closed && q.outstanding == 0 {
		select {
		case <-q.drained:
		default:
			close(q.drained)
		}
	}
}

// Join waits until every task put has been acknowledged and the queue is closed
func (q *Queue) Join(ctx context.Context) error {
	select {
	case <-q.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Outstanding returns the number of tasks put but not yet acknowledged
func (q *Queue) Outstanding() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.outstanding
}
