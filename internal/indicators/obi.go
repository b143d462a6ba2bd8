package indicators

import "github.com/idxscope/core/internal/domain"

// OBIProxy computes the OHLC-derived order-book-imbalance proxy for a
// single bar: ((c-l) - (h-c)) / (h-l), clamped to [-1,1] and
// defined as 0 when h == l. This is a proxy only — no L2 order-book
// source is wired in, and callers must label it as such.
func OBIProxy(bar domain.PriceBar) float64 {
	h := bar.High.Float64()
	l := bar.Low.Float64()
	c := bar.Close.Float64()

	if h == l {
		return 0
	}

	return clamp(((c-l)-(h-c))/(h-l), -1, 1)
}

// OBIWindowProxy aggregates the per-bar OBI proxy over a window via a
// volume-weighted mean. Bars with zero volume are included
// with zero weight; an all-zero-volume window returns the simple mean.
func OBIWindowProxy(bars []domain.PriceBar) float64 {
	if len(bars) == 0 {
		return 0
	}

	var weightedSum, totalVolume float64
	for _, bar := range bars {
		proxy := OBIProxy(bar)
		vol := float64(bar.Volume)
		weightedSum += proxy * vol
		totalVolume += vol
	}

	if totalVolume == 0 {
		var sum float64
		for _, bar := range bars {
			sum += OBIProxy(bar)
		}
		return sum / float64(len(bars))
	}

	return weightedSum / totalVolume
}

// OFITrend returns the clamped first-to-last difference over a series of
// OBI-proxy values. Requires at least two values.
func OFITrend(proxies []float64) (float64, bool) {
	if len(proxies) < 2 {
		return 0, false
	}
	return clamp(proxies[len(proxies)-1]-proxies[0], -1, 1), true
}
