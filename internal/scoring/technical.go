package scoring

import (
	"fmt"

	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/indicators"
)

// technicalWeights is the fixed default sub-weight vector for the technical
// component. It sums to 1; missing sub-scores have their weight
// redistributed proportionally across the sub-scores that are available.
var technicalWeights = map[string]float64{
	"ema20_position":     0.20,
	"rsi_band":           0.15,
	"macd_signal":        0.15,
	"bollinger_position": 0.15,
	"obv_slope":          0.10,
	"obi_proxy":          0.10,
	"ofi_trend":          0.10,
	"accumulation":       0.05,
}

// Technical computes the technical component score from a trailing window
// of price bars (oldest-first, default 60 trading days) and the
// institutional flow analysis already computed for the same symbol. It
// returns (score, breakdown, true) when at least one sub-score could be
// computed, or (50, breakdown, false) when bars is empty — callers must
// treat the false case as the scoring run's InsufficientData trigger.
func Technical(bars []domain.PriceBar, flow domain.InstitutionalFlowAnalysis) (float64, domain.Breakdown, bool) {
	b := newBuilder()

	if len(bars) == 0 {
		return 50, render(b), false
	}

	closes := indicators.Closes(bars)
	available := make(map[string]bool, len(technicalWeights))

	if ema, ok := indicators.EMA(closes, 20); ok {
		price := closes[len(closes)-1]
		score := priceVsEMAScore(price, ema)
		b.add("ema20_position", score, technicalWeights["ema20_position"])
		available["ema20_position"] = true
		if score >= 65 {
			b.signal("price above EMA20")
		} else if score <= 35 {
			b.signal("price below EMA20")
		}
	}

	if rsi, ok := indicators.RSI(closes, 14); ok {
		b.add("rsi_band", rsi, technicalWeights["rsi_band"])
		available["rsi_band"] = true
		switch indicators.ClassifyRSI(rsi) {
		case indicators.RSIOverbought:
			b.signal("RSI overbought")
		case indicators.RSIOversold:
			b.signal("RSI oversold")
		}
	}

	if _, signal, ok := indicators.MACD(closes); ok {
		score := macdSignalScore(signal)
		b.add("macd_signal", score, technicalWeights["macd_signal"])
		available["macd_signal"] = true
		if signal != indicators.MACDNeutral {
			b.signal(fmt.Sprintf("MACD %s", signal))
		}
	}

	if bands, ok := indicators.BollingerBands(closes, 20, 2); ok {
		position := indicators.BollingerPosition(closes[len(closes)-1], bands)
		score := clamp100(position * 100)
		b.add("bollinger_position", score, technicalWeights["bollinger_position"])
		available["bollinger_position"] = true
		if position >= 0.95 {
			b.signal("price at upper Bollinger band")
		} else if position <= 0.05 {
			b.signal("price at lower Bollinger band")
		}
	}

	obvSeries := indicators.OBVSeries(bars)
	if len(obvSeries) >= 2 {
		slope := indicators.OBVSlope(obvSeries)
		b.add("obv_slope", slopeScore(slope), technicalWeights["obv_slope"])
		available["obv_slope"] = true
	}

	proxies := make([]float64, len(bars))
	for i, bar := range bars {
		proxies[i] = indicators.OBIProxy(bar)
	}
	lastOBI := proxies[len(proxies)-1]
	b.add("obi_proxy", 50+50*lastOBI, technicalWeights["obi_proxy"])
	available["obi_proxy"] = true
	b.signal("OBI is an OHLC-derived proxy, not L2 order-book data")

	if trend, ok := indicators.OFITrend(proxies); ok {
		b.add("ofi_trend", 50+50*trend, technicalWeights["ofi_trend"])
		available["ofi_trend"] = true
	}

	b.add("accumulation", flow.AccumulationScore, technicalWeights["accumulation"])
	available["accumulation"] = true
	if flow.SignalStrength == domain.SignalStrong || flow.SignalStrength == domain.SignalDistribution {
		b.signal(fmt.Sprintf("institutional flow: %s", flow.SignalStrength))
	}

	b.weights = redistribute(technicalWeights, available)

	score, ok := b.weightedMean()
	return score, render(b), ok
}

// priceVsEMAScore maps the relative distance of price from its EMA20 into
// a [0,100] score, saturating at ±10% distance.
func priceVsEMAScore(price, ema float64) float64 {
	if ema == 0 {
		return 50
	}
	ratio := (price - ema) / ema
	return clamp100(50 + 50*clampRatio(ratio/0.10))
}

func macdSignalScore(signal indicators.MACDSignal) float64 {
	switch signal {
	case indicators.MACDBullish:
		return 75
	case indicators.MACDBearish:
		return 25
	default:
		return 50
	}
}

func slopeScore(slope int) float64 {
	switch {
	case slope > 0:
		return 75
	case slope < 0:
		return 25
	default:
		return 50
	}
}

func clampRatio(r float64) float64 {
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}

func render(b *builder) domain.Breakdown {
	return domain.Breakdown{
		SubScores: b.subScores,
		Weights:   b.weights,
		Signals:   b.signals,
	}
}
