package ratelimit

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slack absorbs timer granularity on loaded CI machines
const slack = 5 * time.Millisecond

func TestSequentialWaitsAreSpaced(t *testing.T) {
	l, err := New(50) // 20ms interval
	require.NoError(t, err)
	require.Equal(t, 20*time.Millisecond, l.Interval())

	ctx := context.Background()
	var stamps []time.Time
	for i := 0; i < 6; i++ {
		require.NoError(t, l.Wait(ctx))
		stamps = append(stamps, time.Now())
	}

	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		assert.GreaterOrEqual(t, gap, l.Interval()-slack, "gap %d = %v", i, gap)
	}
}

func TestConcurrentWaitsAreSpacedGlobally(t *testing.T) {
	l, err := New(100) // 10ms interval
	require.NoError(t, err)

	const callers = 8
	const perCaller = 3

	var (
		mu     sync.Mutex
		stamps []time.Time
		wg     sync.WaitGroup
	)
	ctx := context.Background()
	for c := 0; c < callers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perCaller; i++ {
				if err := l.Wait(ctx); err != nil {
					t.Errorf("Wait failed: %v", err)
					return
				}
				mu.Lock()
				stamps = append(stamps, time.Now())
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, stamps, callers*perCaller)
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	total := stamps[len(stamps)-1].Sub(stamps[0])
	want := time.Duration(len(stamps)-1) * l.Interval()
	assert.GreaterOrEqual(t, total, want-slack)
}

func TestDisabledReturnsImmediately(t *testing.T) {
	l, err := New(0)
	require.NoError(t, err)
	assert.False(t, l.Enabled())
	assert.Zero(t, l.Interval())

	start := time.Now()
	for i := 0; i < 1000; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestNegativeRateRejected(t *testing.T) {
	_, err := New(-1)
	assert.Error(t, err)
}

func TestWaitHonorsCancellation(t *testing.T) {
	l, err := New(1) // 1s interval
	require.NoError(t, err)
	require.NoError(t, l.Wait(context.Background())) // consume the initial grant

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}
