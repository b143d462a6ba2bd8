package adapters

import (
	"context"
	"math/rand"
	"time"

	"github.com/idxscope/core/internal/domain"
)

// RetryPolicy is exponential backoff with jitter, shared by every adapter.
// Authentication failures are never retried; every other Transient error
// is attempted up to MaxAttempts times in total.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy is 3 attempts, starting at 500ms and doubling up to
// 10s, jittered by ±25% to avoid synchronized retries across adapters.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    10 * time.Second,
}

// delay is a pure function of attempt (0-indexed): base * 2^attempt,
// capped at MaxDelay, then jittered by ±25%.
func (p RetryPolicy) delay(attempt int) time.Duration {
	backoff := p.BaseDelay << attempt
	if backoff > p.MaxDelay || backoff <= 0 {
		backoff = p.MaxDelay
	}
	jitter := time.Duration((rand.Float64()*0.5 - 0.25) * float64(backoff))
	d := backoff + jitter
	if d < 0 {
		d = 0
	}
	return d
}

// Do runs fn, retrying on a Transient CoreError for up to MaxAttempts
// attempts in total, with backoff between attempts. Any other error kind, or context
// cancellation, returns immediately without a further attempt.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if domain.KindOf(lastErr) != domain.ErrKindTransient {
			return lastErr
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.delay(attempt)):
		}
	}
	return lastErr
}
