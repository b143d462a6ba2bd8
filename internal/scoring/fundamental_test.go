package scoring

import (
	"testing"
	"time"

	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/pkg/decimalx"
	"github.com/stretchr/testify/assert"
)

func decPtr(f float64) *decimalx.Decimal {
	d := decimalx.NewFromFloat(f)
	return &d
}

// TestFundamentalNilRecordFallsBackToNeutral exercises the missing-
// financials case: with no FinancialRecord at all, the component defaults
// to the neutral baseline rather than treating itself as unavailable.
func TestFundamentalNilRecordFallsBackToNeutral(t *testing.T) {
	score, breakdown := Fundamental(nil)
	assert.Equal(t, 50.0, score)
	assert.Empty(t, breakdown.SubScores)
	assert.Contains(t, breakdown.Signals, "no fundamental data")
}

// TestFundamentalWeightsSumToOne checks invariant 3: with every ratio
// present, the recorded sub-weights sum to 1.
func TestFundamentalWeightsSumToOne(t *testing.T) {
	rec := domain.FinancialRecord{
		Symbol:      "BBCA",
		PeriodEnd:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Revenue:     decPtr(1_000_000),
		NetIncome:   decPtr(150_000),
		TotalEquity: decPtr(500_000),
		TotalDebt:   decPtr(200_000),
		PE:          decPtr(18),
		PB:          decPtr(2.5),
		EVEBITDA:    decPtr(11),
		ROE:         decPtr(0.18),
		ROA:         decPtr(0.09),
	}
	score, breakdown := Fundamental(&rec)

	var total float64
	for _, w := range breakdown.Weights {
		total += w
	}
	assert.InDelta(t, 1.0, total, 1e-6)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

// TestFundamentalMissingRatioRedistributes verifies that a record with
// some ratios nil still produces weights summing to 1, over only the
// ratios that are present.
func TestFundamentalMissingRatioRedistributes(t *testing.T) {
	rec := domain.FinancialRecord{
		Symbol:    "BBCA",
		PeriodEnd: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		PE:        decPtr(18),
		ROE:       decPtr(0.18),
	}
	_, breakdown := Fundamental(&rec)

	assert.Len(t, breakdown.Weights, 2)
	var total float64
	for _, w := range breakdown.Weights {
		total += w
	}
	assert.InDelta(t, 1.0, total, 1e-6)
}

// TestValuationBandLabelsOnlyPresentRatios checks that ValuationBand skips
// any ratio not supplied.
func TestValuationBandLabelsOnlyPresentRatios(t *testing.T) {
	bands := ValuationBand(decPtr(15), nil, decPtr(11))
	assert.Len(t, bands, 2)
	assert.Equal(t, "P/E 15.0", bands[0].Label)
	assert.Equal(t, "EV/EBITDA 11.0", bands[1].Label)
}
