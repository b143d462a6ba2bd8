package indicators

import "github.com/markcheno/go-talib"

// RSI returns the Wilder-smoothed RSI over period of the given closes,
// or (0, false) when fewer than period+1 closes are available.
func RSI(values []float64, period int) (float64, bool) {
	if len(values) < period+1 {
		return 0, false
	}
	rsi := talib.Rsi(values, period)
	last := rsi[len(rsi)-1]
	if isNaN(last) {
		return 0, false
	}
	return last, true
}

// RSIBand is the closed classification of an RSI reading used by the
// technical scorer.
type RSIBand string

const (
	RSIOverbought RSIBand = "overbought"
	RSIOversold   RSIBand = "oversold"
	RSINeutral    RSIBand = "neutral"
)

// ClassifyRSI buckets an RSI value into its band: overbought above 70,
// oversold below 30, neutral otherwise.
func ClassifyRSI(rsi float64) RSIBand {
	switch {
	case rsi > 70:
		return RSIOverbought
	case rsi < 30:
		return RSIOversold
	default:
		return RSINeutral
	}
}
