package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/idxscope/core/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyRetriesOnlyTransientErrors(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	attempts := 0
	err := policy.Do(context.Background(), func() error {
		attempts++
		return domain.NewError(domain.ErrKindTransient, "flaky", nil)
	})
	require.Error(t, err)
	require.Equal(t, 3, attempts)
}

func TestRetryPolicyStopsImmediatelyOnNonTransientError(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	attempts := 0
	err := policy.Do(context.Background(), func() error {
		attempts++
		return domain.NewError(domain.ErrKindNotConfigured, "missing key", nil)
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestRetryPolicySucceedsAfterTransientFailures(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	attempts := 0
	err := policy.Do(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return domain.NewError(domain.ErrKindTransient, "flaky", nil)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
}

func TestRetryPolicyRespectsContextCancellation(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond, MaxDelay: 100 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := policy.Do(ctx, func() error {
		return domain.NewError(domain.ErrKindTransient, "flaky", nil)
	})
	require.True(t, errors.Is(err, context.Canceled))
}
