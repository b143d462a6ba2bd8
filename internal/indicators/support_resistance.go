package indicators

import "github.com/idxscope/core/internal/domain"

// LevelStrength is the closed classification of a support/resistance
// level's reliability, derived from how many times price touched it.
type LevelStrength string

const (
	LevelStrengthWeak   LevelStrength = "weak"
	LevelStrengthModest LevelStrength = "modest"
	LevelStrengthStrong LevelStrength = "strong"
)

// Level is one support or resistance price point, ordered nearest-first
// relative to the window's last close.
type Level struct {
	Price    float64
	Touches  int
	Strength LevelStrength
}

// SupportResistance finds local extrema over bars using a minimum
// separation window, groups touches within a tolerance band around each
// extremum, and returns levels ordered nearest-first to the last close.
// lookback bounds how many trailing bars are scanned; minSeparation is
// the minimum bar distance between two accepted extrema.
func SupportResistance(bars []domain.PriceBar, lookback, minSeparation int, tolerance float64) []Level {
	if len(bars) == 0 || lookback <= 0 {
		return nil
	}

	window := bars
	if len(window) > lookback {
		window = window[len(window)-lookback:]
	}
	if len(window) < 3 {
		return nil
	}

	type extremum struct {
		idx   int
		price float64
	}

	var extrema []extremum
	lastIdx := -minSeparation - 1

	for i := 1; i < len(window)-1; i++ {
		h := window[i].High.Float64()
		l := window[i].Low.Float64()
		prevH := window[i-1].High.Float64()
		prevL := window[i-1].Low.Float64()
		nextH := window[i+1].High.Float64()
		nextL := window[i+1].Low.Float64()

		isSwingHigh := h >= prevH && h >= nextH
		isSwingLow := l <= prevL && l <= nextL

		if (isSwingHigh || isSwingLow) && i-lastIdx >= minSeparation {
			price := h
			if isSwingLow && !isSwingHigh {
				price = l
			}
			extrema = append(extrema, extremum{idx: i, price: price})
			lastIdx = i
		}
	}

	if len(extrema) == 0 {
		return nil
	}

	// Group extrema within tolerance of each other into a single level,
	// counting touches.
	type group struct {
		sum     float64
		touches int
	}
	var groups []group

	for _, e := range extrema {
		placed := false
		for i := range groups {
			avg := groups[i].sum / float64(groups[i].touches)
			if avg == 0 {
				continue
			}
			if absFloat((e.price-avg)/avg) <= tolerance {
				groups[i].sum += e.price
				groups[i].touches++
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, group{sum: e.price, touches: 1})
		}
	}

	lastClose := window[len(window)-1].Close.Float64()

	levels := make([]Level, len(groups))
	for i, g := range groups {
		avg := g.sum / float64(g.touches)
		levels[i] = Level{
			Price:    avg,
			Touches:  g.touches,
			Strength: classifyTouchStrength(g.touches),
		}
	}

	// Order nearest-first to the last close.
	for i := 1; i < len(levels); i++ {
		j := i
		for j > 0 && absFloat(levels[j].Price-lastClose) < absFloat(levels[j-1].Price-lastClose) {
			levels[j], levels[j-1] = levels[j-1], levels[j]
			j--
		}
	}

	return levels
}

func classifyTouchStrength(touches int) LevelStrength {
	switch {
	case touches >= 4:
		return LevelStrengthStrong
	case touches >= 2:
		return LevelStrengthModest
	default:
		return LevelStrengthWeak
	}
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
