package adapters

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter is a per-adapter token bucket. ratePerSecond and burst are
// configurable so a slow upstream (e.g. a scraped broker flow page) can be
// throttled independently of a faster REST source.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter builds a token bucket refilling at ratePerSecond tokens/s
// with room for burst tokens of headroom.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Wait blocks until a token is available or ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
