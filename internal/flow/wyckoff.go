package flow

import "github.com/idxscope/core/internal/domain"

// PriceTrend is the closed direction classification the Wyckoff hint takes
// as input, typically derived from an OBV or EMA slope by the caller.
type PriceTrend int

const (
	TrendDown PriceTrend = -1
	TrendFlat PriceTrend = 0
	TrendUp   PriceTrend = 1
)

// WyckoffHint combines an institutional flow analysis with a price trend
// classification to produce a heuristic phase label. It is not a scored
// component of the composite, and no scorer calls it, so no breakdown
// carries a phase label.
func WyckoffHint(analysis domain.InstitutionalFlowAnalysis, trend PriceTrend) domain.WyckoffPhase {
	switch analysis.SignalStrength {
	case domain.SignalStrong, domain.SignalModerate:
		if trend == TrendUp {
			return domain.PhaseMarkup
		}
		return domain.PhaseAccumulation

	case domain.SignalDistribution:
		if trend == TrendDown {
			return domain.PhaseMarkdown
		}
		return domain.PhaseDistribution

	case domain.SignalWeak:
		if trend == TrendDown {
			return domain.PhaseMarkdown
		}
		if trend == TrendUp {
			return domain.PhaseMarkup
		}
		return domain.PhaseUndetermined

	default:
		return domain.PhaseUndetermined
	}
}
