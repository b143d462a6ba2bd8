package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsSubmittedTasksConcurrently(t *testing.T) {
	pool := NewPool(3, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	var running int32
	var maxSeen int32
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		pool.Submit("job", func(ctx context.Context) {
			defer wg.Done()
			n := atomic.AddInt32(&running, 1)
			for {
				cur := atomic.LoadInt32(&maxSeen)
				if n <= cur || atomic.CompareAndSwapInt32(&maxSeen, cur, n) {
					break
				}
			}
			time.Sleep(50 * time.Millisecond)
			atomic.AddInt32(&running, -1)
		})
	}
	wg.Wait()
	require.Equal(t, int32(3), maxSeen)
}

func TestPoolStopDrainsInFlightWork(t *testing.T) {
	pool := NewPool(1, zerolog.Nop())
	ctx := context.Background()
	pool.Start(ctx)

	var done int32
	pool.Submit("job", func(ctx context.Context) {
		time.Sleep(20 * time.Millisecond)
		atomic.StoreInt32(&done, 1)
	})

	pool.Stop()
	require.Equal(t, int32(1), atomic.LoadInt32(&done))
}

func TestPoolWorkerStopsWhenContextCancelled(t *testing.T) {
	pool := NewPool(1, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	cancel()

	require.Eventually(t, func() bool {
		done := make(chan struct{})
		go func() {
			pool.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return true
		case <-time.After(10 * time.Millisecond):
			return false
		}
	}, time.Second, 20*time.Millisecond)
}

func TestPoolStartIsIdempotent(t *testing.T) {
	pool := NewPool(2, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	pool.Start(ctx)

	var n int32
	var wg sync.WaitGroup
	wg.Add(1)
	pool.Submit("job", func(ctx context.Context) {
		defer wg.Done()
		atomic.AddInt32(&n, 1)
	})
	wg.Wait()
	require.Equal(t, int32(1), atomic.LoadInt32(&n))
}
