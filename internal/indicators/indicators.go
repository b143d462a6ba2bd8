// Package indicators computes the fixed set of technical indicators the
// scoring engine consumes. Every function here is pure and
// deterministic: given the same PriceBar slice, it always returns the same
// result. Inputs cross from decimalx.Decimal to float64 once, at the
// package boundary, per the numeric policy documented in pkg/decimalx.
package indicators

import (
	"github.com/idxscope/core/internal/domain"
)

// Closes extracts the closing price series from an ordered slice of bars,
// for callers (e.g. the scoring engine) that need to feed SMA/EMA/RSI/MACD
// directly from a PriceBar window.
func Closes(bars []domain.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close.Float64()
	}
	return out
}

func isNaN(f float64) bool { return f != f }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
