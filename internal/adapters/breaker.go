package adapters

import (
	"time"

	"github.com/sony/gobreaker"
)

// NewCircuitBreaker wraps sony/gobreaker with defaults suited to a
// single-adapter blast radius: trip after 5 consecutive failures, stay
// open for 30s, then allow a handful of trial requests half-open.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}
