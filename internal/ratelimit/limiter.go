// Package ratelimit provides the global request gate shared by all workers.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces grants by a fixed interval across every caller.
//
// It is a single leaky bucket of depth one: at most one grant is available
// at any instant and each grant pushes the next eligible instant forward by
// exactly one interval. A zero rate disables limiting entirely.
type Limiter struct {
	lim      *rate.Limiter
	interval time.Duration
}

// New creates a limiter allowing rps grants per second.
// rps == 0 returns a disabled limiter; negative rates are rejected.
func New(rps float64) (*Limiter, error) {
	if rps < 0 {
		return nil, fmt.Errorf("rate must be positive or zero (got %v)", rps)
	}
	if rps == 0 {
		return &Limiter{}, nil
	}
	return &Limiter{
		lim:      rate.NewLimiter(rate.Limit(rps), 1),
		interval: time.Duration(float64(time.Second) / rps),
	}, nil
}

// Enabled reports whether the limiter throttles at all
func (l *Limiter) Enabled() bool {
	return l != nil && l.lim != nil
}

// Interval returns the minimum spacing between grants, 0 when disabled
func (l *Limiter) Interval() time.Duration {
	if !l.Enabled() {
		return 0
	}
	return l.interval
}

// Wait blocks until the caller may issue its request.
// It returns immediately when the limiter is disabled, and returns ctx.Err()
// if the context ends before the grant.
func (l *Limiter) Wait(ctx context.Context) error {
	if !l.Enabled() {
		return nil
	}
	if err := l.lim.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}
