// Package scoring computes the four component scores and the composite
// score for a symbol from the time-series data surfaced by the repository
// and flow layers. Every function here is pure and synchronous; no
// component scorer performs I/O.
package scoring

import "math"

// builder accumulates a component's sub-scores, weights and signals as it
// is computed, then renders a domain.Breakdown.
type builder struct {
	subScores map[string]float64
	weights   map[string]float64
	signals   []string
}

func newBuilder() *builder {
	return &builder{
		subScores: make(map[string]float64),
		weights:   make(map[string]float64),
	}
}

func (b *builder) add(name string, score, weight float64) {
	b.subScores[name] = round2(score)
	b.weights[name] = weight
}

func (b *builder) signal(s string) {
	b.signals = append(b.signals, s)
}

// weightedMean returns the weighted mean of the builder's sub-scores using
// its current weights, or (50, false) if no sub-score was ever added.
func (b *builder) weightedMean() (float64, bool) {
	if len(b.subScores) == 0 {
		return 50, false
	}
	var sum, totalWeight float64
	for name, score := range b.subScores {
		w := b.weights[name]
		sum += score * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 50, false
	}
	return clamp100(sum / totalWeight), true
}

// redistribute renormalizes weights over the subset of keys present in
// available so they sum to 1, proportionally to their original ratios.
// Keys absent from available are dropped entirely. An empty available set
// returns an empty map.
func redistribute(weights map[string]float64, available map[string]bool) map[string]float64 {
	out := make(map[string]float64, len(weights))
	var total float64
	for name, w := range weights {
		if available[name] {
			out[name] = w
			total += w
		}
	}
	if total == 0 {
		return out
	}
	for name := range out {
		out[name] = out[name] / total
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func clamp100(v float64) float64 {
	if math.IsNaN(v) {
		return 50
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
