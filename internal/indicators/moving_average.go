package indicators

import "github.com/markcheno/go-talib"

// SMA returns the simple moving average of the last n closes, or
// (0, false) if fewer than n closes are available.
func SMA(values []float64, n int) (float64, bool) {
	if n <= 0 || len(values) < n {
		return 0, false
	}
	sma := talib.Sma(values, n)
	last := sma[len(sma)-1]
	if isNaN(last) {
		return 0, false
	}
	return last, true
}

// EMA returns the exponential moving average of values over period n,
// seeded with the SMA of the first n values and then smoothed forward
// with k = 2/(n+1). This seeding rule is deliberately hand
// rolled rather than delegated to talib.Ema, whose internal seed does not
// match the first-SMA contract required here.
func EMA(values []float64, n int) (float64, bool) {
	if n <= 0 || len(values) < n {
		return 0, false
	}

	seed, ok := SMA(values[:n], n)
	if !ok {
		return 0, false
	}

	k := 2.0 / float64(n+1)
	ema := seed
	for _, v := range values[n:] {
		ema = v*k + ema*(1-k)
	}
	return ema, true
}

// EMASeries returns the full EMA series aligned to values[n-1:], seeded the
// same way as EMA, for callers needing more than the trailing value (e.g.
// MACD's signal line).
func EMASeries(values []float64, n int) ([]float64, bool) {
	if n <= 0 || len(values) < n {
		return nil, false
	}

	seed, ok := SMA(values[:n], n)
	if !ok {
		return nil, false
	}

	k := 2.0 / float64(n+1)
	series := make([]float64, len(values)-n+1)
	series[0] = seed
	for i, v := range values[n:] {
		series[i+1] = v*k + series[i]*(1-k)
	}
	return series, true
}
