package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterWaitBlocksUntilTokenAvailable(t *testing.T) {
	limiter := NewRateLimiter(10, 1)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx))

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiterWaitRespectsContextDeadline(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	err := limiter.Wait(ctx)
	require.Error(t, err)
}
