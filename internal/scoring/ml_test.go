package scoring

import (
	"testing"
	"time"

	"github.com/idxscope/core/internal/domain"
	"github.com/stretchr/testify/assert"
)

// TestMLNilPredictionIsNeutral checks the neutral baseline with no
// prediction on record.
func TestMLNilPredictionIsNeutral(t *testing.T) {
	score, breakdown := ML(nil, time.Now().UTC())
	assert.Equal(t, 50.0, score)
	assert.Contains(t, breakdown.Signals, "no ML prediction available")
}

// TestMLExpiredPredictionFallsBackToNeutral checks that a prediction past
// its own stated horizon is treated as unavailable rather than stale data.
func TestMLExpiredPredictionFallsBackToNeutral(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	pred := domain.MLPrediction{
		Symbol: "BBCA", Time: asOf.AddDate(0, 0, -10),
		Direction: domain.DirectionUp, Confidence: 0.9, HorizonDays: 5,
	}
	score, breakdown := ML(&pred, asOf)
	assert.Equal(t, 50.0, score)
	assert.Contains(t, breakdown.Signals, "latest ML prediction is past its horizon")
}

// TestMLDirectionConfidenceShift checks the ±50 shift formula for a
// prediction still within its horizon.
func TestMLDirectionConfidenceShift(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	up := domain.MLPrediction{Symbol: "BBCA", Time: asOf, Direction: domain.DirectionUp, Confidence: 0.8, HorizonDays: 5, ModelVersion: "v1"}
	score, _ := ML(&up, asOf)
	assert.InDelta(t, 90.0, score, 1e-9)

	down := domain.MLPrediction{Symbol: "BBCA", Time: asOf, Direction: domain.DirectionDown, Confidence: 0.8, HorizonDays: 5, ModelVersion: "v1"}
	score, _ = ML(&down, asOf)
	assert.InDelta(t, 10.0, score, 1e-9)

	sideways := domain.MLPrediction{Symbol: "BBCA", Time: asOf, Direction: domain.DirectionSideways, Confidence: 0.8, HorizonDays: 5, ModelVersion: "v1"}
	score, _ = ML(&sideways, asOf)
	assert.Equal(t, 50.0, score)
}
