package indicators

import "gonum.org/v1/gonum/stat"

// Bollinger is the trailing (upper, middle, lower) band triple.
type Bollinger struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// BollingerBands computes the period-n Bollinger bands at k standard
// deviations, typically n=20, k=2. Sigma is the sample standard
// deviation of the trailing window, via gonum/stat.
func BollingerBands(values []float64, n int, k float64) (Bollinger, bool) {
	if n <= 0 || len(values) < n {
		return Bollinger{}, false
	}

	window := values[len(values)-n:]
	middle := stat.Mean(window, nil)
	sigma := stat.StdDev(window, nil)

	return Bollinger{
		Upper:  middle + k*sigma,
		Middle: middle,
		Lower:  middle - k*sigma,
	}, true
}

// BollingerPosition locates price within [0,1] relative to the lower and
// upper bands, clamped when price sits outside the bands. Collapsed bands
// (upper == lower) place the position at the midpoint.
func BollingerPosition(price float64, bands Bollinger) float64 {
	width := bands.Upper - bands.Lower
	if width == 0 {
		return 0.5
	}
	return clamp((price-bands.Lower)/width, 0, 1)
}
