package indicators

import "github.com/markcheno/go-talib"

// MACDResult is the trailing output of the MACD(12,26,9) indicator.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACDSignal is the closed classification of a MACD reading.
type MACDSignal string

const (
	MACDBullish MACDSignal = "bullish"
	MACDBearish MACDSignal = "bearish"
	MACDNeutral MACDSignal = "neutral"
)

// MACD computes the standard 12/26/9 MACD and classifies its signal:
// bullish when the histogram is positive and rising, bearish when negative
// and falling, neutral otherwise.
func MACD(values []float64) (MACDResult, MACDSignal, bool) {
	const fast, slow, signalPeriod = 12, 26, 9
	if len(values) < slow+signalPeriod {
		return MACDResult{}, MACDNeutral, false
	}

	macdLine, signalLine, hist := talib.Macd(values, fast, slow, signalPeriod)
	n := len(hist)
	if n < 2 || isNaN(hist[n-1]) || isNaN(hist[n-2]) {
		return MACDResult{}, MACDNeutral, false
	}

	result := MACDResult{
		MACD:      macdLine[n-1],
		Signal:    signalLine[n-1],
		Histogram: hist[n-1],
	}

	rising := hist[n-1] > hist[n-2]
	signal := MACDNeutral
	switch {
	case result.Histogram > 0 && rising:
		signal = MACDBullish
	case result.Histogram < 0 && !rising:
		signal = MACDBearish
	}

	return result, signal, true
}
