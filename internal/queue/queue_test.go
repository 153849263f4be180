package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFOAndSentinels(t *testing.T) {
	ctx := context.Background()
	q := New(8)
	require.NoError(t, q.Put(ctx, "a.com"))
	require.NoError(t, q.Put(ctx, "b.com"))
	require.NoError(t, q.PutSentinels(ctx, 2))
	q.Close()

	var got []string
	sentinels := 0
	for i := 0; i < 4; i++ {
		task, err := q.Get(ctx)
		require.NoError(t, err)
		if task.IsSentinel() {
			sentinels++
		} else {
			got = append(got, task.FQN)
		}
		q.Done()
	}
	assert.Equal(t, []string{"a.com", "b.com"}, got)
	assert.Equal(t, 2, sentinels)
	assert.NoError(t, q.Join(ctx))
}

func TestBalancedShutdown(t *testing.T) {
	ctx := context.Background()
	const workers = 5
	const items = 200
	q := New(4)

	var processed atomic.Int32
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task, err := q.Get(ctx)
				if err != nil {
					t.Errorf("Get failed: %v", err)
					return
				}
				if task.IsSentinel() {
					q.Done()
					return
				}
				processed.Add(1)
				q.Done()
			}
		}()
	}

	for i := 0; i < items; i++ {
		require.NoError(t, q.Put(ctx, "x.com"))
	}
	require.NoError(t, q.PutSentinels(ctx, workers))
	q.Close()

	joinCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, q.Join(joinCtx))
	wg.Wait()

	assert.Equal(t, int32(items), processed.Load())
	assert.Zero(t, q.Outstanding())
}

func TestJoinWaitsForClose(t *testing.T) {
	q := New(1)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Join(ctx), context.DeadlineExceeded)

	q.Close()
	assert.NoError(t, q.Join(context.Background()))
}

func TestPutAfterClose(t *testing.T) {
	q := New(1)
	q.Close()
	assert.ErrorIs(t, q.Put(context.Background(), "a.com"), ErrClosed)
}

func TestPutHonorsCancellation(t *testing.T) {
	q := New(1)
	require.NoError(t, q.Put(context.Background(), "a.com"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, q.Put(ctx, "b.com"), context.Canceled)
	assert.Equal(t, 1, q.Outstanding())
}
