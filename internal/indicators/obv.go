package indicators

import "github.com/idxscope/core/internal/domain"

// OBVSeries returns the cumulative signed-volume on-balance-volume series,
// one value per bar. The first bar contributes its own volume
// with no prior close to compare against.
func OBVSeries(bars []domain.PriceBar) []float64 {
	if len(bars) == 0 {
		return nil
	}

	series := make([]float64, len(bars))
	series[0] = float64(bars[0].Volume)

	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		curClose := bars[i].Close
		switch {
		case curClose.GreaterThan(prevClose):
			series[i] = series[i-1] + float64(bars[i].Volume)
		case curClose.LessThan(prevClose):
			series[i] = series[i-1] - float64(bars[i].Volume)
		default:
			series[i] = series[i-1]
		}
	}

	return series
}

// OBVSlope classifies the direction of the trailing OBV series: positive
// when the last value is above the first, negative when below, zero when
// equal or when fewer than two bars are available.
func OBVSlope(series []float64) int {
	if len(series) < 2 {
		return 0
	}
	switch {
	case series[len(series)-1] > series[0]:
		return 1
	case series[len(series)-1] < series[0]:
		return -1
	default:
		return 0
	}
}
