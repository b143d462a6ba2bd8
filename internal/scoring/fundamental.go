package scoring

import (
	"fmt"
	"math"

	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/pkg/decimalx"
)

// fundamentalWeights is the fixed default sub-weight vector for the
// fundamental component. Ratios absent from the latest FinancialRecord
// drop their weight entirely rather than falling back to a neutral value.
var fundamentalWeights = map[string]float64{
	"pe_band":             0.20,
	"pb_band":             0.15,
	"ev_ebitda_band":      0.15,
	"roe":                 0.20,
	"roa":                 0.10,
	"profit_margin":       0.10,
	"debt_equity_inverse": 0.10,
}

// Fundamental computes the fundamental component score from the latest
// FinancialRecord for a symbol. rec may be nil, meaning no financial
// record has ever been ingested for the symbol: the component returns its
// neutral baseline of 50 with a "no fundamental data" signal, and an empty
// breakdown — the composite still applies fundamental's configured weight
// unredistributed, since a missing record is a neutral default, not an
// unavailable component.
func Fundamental(rec *domain.FinancialRecord) (float64, domain.Breakdown) {
	b := newBuilder()

	if rec == nil {
		b.signal("no fundamental data")
		return 50, render(b)
	}

	available := make(map[string]bool, len(fundamentalWeights))

	if rec.PE != nil {
		score := peBandScore(rec.PE.Float64())
		b.add("pe_band", score, fundamentalWeights["pe_band"])
		available["pe_band"] = true
	}
	if rec.PB != nil {
		score := pbBandScore(rec.PB.Float64())
		b.add("pb_band", score, fundamentalWeights["pb_band"])
		available["pb_band"] = true
	}
	if rec.EVEBITDA != nil {
		score := evEbitdaBandScore(rec.EVEBITDA.Float64())
		b.add("ev_ebitda_band", score, fundamentalWeights["ev_ebitda_band"])
		available["ev_ebitda_band"] = true
	}
	if rec.ROE != nil {
		b.add("roe", roeScore(rec.ROE.Float64()), fundamentalWeights["roe"])
		available["roe"] = true
	}
	if rec.ROA != nil {
		b.add("roa", roaScore(rec.ROA.Float64()), fundamentalWeights["roa"])
		available["roa"] = true
	}
	if rec.NetIncome != nil && rec.Revenue != nil {
		if margin, ok := rec.NetIncome.Div(*rec.Revenue); ok {
			b.add("profit_margin", profitMarginScore(margin.Float64()), fundamentalWeights["profit_margin"])
			available["profit_margin"] = true
		}
	}
	if rec.TotalDebt != nil && rec.TotalEquity != nil {
		if de, ok := rec.TotalDebt.Div(*rec.TotalEquity); ok {
			b.add("debt_equity_inverse", debtEquityInverseScore(de.Float64()), fundamentalWeights["debt_equity_inverse"])
			available["debt_equity_inverse"] = true
		}
	}

	b.weights = redistribute(fundamentalWeights, available)
	score, ok := b.weightedMean()
	if !ok {
		b.signal("no usable fundamental ratios")
	}
	return score, render(b)
}

// peBandScore anchors P/E 15 ⇒ 70, 25 ⇒ 50, 40 ⇒ 30, with smooth
// interpolation between anchors and decay toward 10 for higher multiples.
// A non-positive P/E (the company is losing money) scores at the floor.
func peBandScore(pe float64) float64 {
	switch {
	case pe <= 0:
		return 10
	case pe <= 15:
		return lerp(pe, 0, 90, 15, 70)
	case pe <= 25:
		return lerp(pe, 15, 70, 25, 50)
	case pe <= 40:
		return lerp(pe, 25, 50, 40, 30)
	default:
		return decayTo10(pe, 40, 30, 20)
	}
}

// pbBandScore anchors P/B 1 ⇒ 80, 3 ⇒ 50, 6 ⇒ 30, decaying toward 10 above.
func pbBandScore(pb float64) float64 {
	switch {
	case pb <= 0:
		return 10
	case pb <= 1:
		return lerp(pb, 0, 90, 1, 80)
	case pb <= 3:
		return lerp(pb, 1, 80, 3, 50)
	case pb <= 6:
		return lerp(pb, 3, 50, 6, 30)
	default:
		return decayTo10(pb, 6, 30, 4)
	}
}

// evEbitdaBandScore anchors EV/EBITDA 8 ⇒ 80, 14 ⇒ 50, 20 ⇒ 30, decaying
// toward 10 above.
func evEbitdaBandScore(ev float64) float64 {
	switch {
	case ev <= 0:
		return 10
	case ev <= 8:
		return lerp(ev, 0, 90, 8, 80)
	case ev <= 14:
		return lerp(ev, 8, 80, 14, 50)
	case ev <= 20:
		return lerp(ev, 14, 50, 20, 30)
	default:
		return decayTo10(ev, 20, 30, 10)
	}
}

// roeScore rewards higher return on equity: 0% ⇒ 30, 15% ⇒ 70, 25%+ ⇒ 90.
func roeScore(roe float64) float64 {
	switch {
	case roe <= 0:
		return clamp100(30 + roe*100)
	case roe <= 0.15:
		return lerp(roe, 0, 30, 0.15, 70)
	case roe <= 0.25:
		return lerp(roe, 0.15, 70, 0.25, 90)
	default:
		return 90
	}
}

// roaScore mirrors roeScore at a gentler scale: 0% ⇒ 30, 8% ⇒ 70, 15%+ ⇒ 90.
func roaScore(roa float64) float64 {
	switch {
	case roa <= 0:
		return clamp100(30 + roa*150)
	case roa <= 0.08:
		return lerp(roa, 0, 30, 0.08, 70)
	case roa <= 0.15:
		return lerp(roa, 0.08, 70, 0.15, 90)
	default:
		return 90
	}
}

// profitMarginScore rewards higher net margin: 0% ⇒ 30, 10% ⇒ 60, 20%+ ⇒ 85.
func profitMarginScore(margin float64) float64 {
	switch {
	case margin <= 0:
		return clamp100(30 + margin*100)
	case margin <= 0.10:
		return lerp(margin, 0, 30, 0.10, 60)
	case margin <= 0.20:
		return lerp(margin, 0.10, 60, 0.20, 85)
	default:
		return 85
	}
}

// debtEquityInverseScore rewards lower leverage: D/E 0 ⇒ 90, 1 ⇒ 50, 2+ ⇒ 20.
func debtEquityInverseScore(de float64) float64 {
	switch {
	case de < 0:
		return 90
	case de <= 1:
		return lerp(de, 0, 90, 1, 50)
	case de <= 2:
		return lerp(de, 1, 50, 2, 20)
	default:
		return 20
	}
}

// lerp linearly interpolates v from the range [x0,x1] onto [y0,y1].
func lerp(v, x0, y0, x1, y1 float64) float64 {
	if x1 == x0 {
		return y0
	}
	t := (v - x0) / (x1 - x0)
	return clamp100(y0 + t*(y1-y0))
}

// decayTo10 asymptotically decays from (anchor, anchorScore) toward a
// floor of 10 as v grows past anchor, with rate controlling how quickly.
func decayTo10(v, anchor, anchorScore, rate float64) float64 {
	x := (v - anchor) / rate
	if x < 0 {
		x = 0
	}
	return clamp100(10 + (anchorScore-10)*math.Exp(-x))
}

// ValuationBand pairs a qualitative label with a [0,100] score for one
// fundamental ratio, exposed for display alongside the fundamental
// breakdown's raw sub-scores.
func ValuationBand(peRatio, pbRatio, evEbitda *decimalx.Decimal) []domain.ValuationBand {
	var bands []domain.ValuationBand
	if peRatio != nil {
		bands = append(bands, domain.ValuationBand{Label: fmt.Sprintf("P/E %.1f", peRatio.Float64()), Score: peBandScore(peRatio.Float64())})
	}
	if pbRatio != nil {
		bands = append(bands, domain.ValuationBand{Label: fmt.Sprintf("P/B %.1f", pbRatio.Float64()), Score: pbBandScore(pbRatio.Float64())})
	}
	if evEbitda != nil {
		bands = append(bands, domain.ValuationBand{Label: fmt.Sprintf("EV/EBITDA %.1f", evEbitda.Float64()), Score: evEbitdaBandScore(evEbitda.Float64())})
	}
	return bands
}
