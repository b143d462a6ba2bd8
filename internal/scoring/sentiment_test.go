package scoring

import (
	"testing"
	"time"

	"github.com/idxscope/core/internal/domain"
	"github.com/stretchr/testify/assert"
)

// TestSentimentNoObservationsIsNeutral checks the neutral baseline when no
// observation falls inside the trailing window.
func TestSentimentNoObservationsIsNeutral(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	observations := []domain.SentimentObservation{
		{Symbol: "BBCA", Time: asOf.AddDate(0, 0, -30), Sentiment: domain.SentimentPositive, Confidence: 0.9},
	}
	score, breakdown := Sentiment(observations, asOf)
	assert.Equal(t, 50.0, score)
	assert.Contains(t, breakdown.Signals, "no sentiment observations in the last 7 days")
}

// TestSentimentPositiveShiftsAboveNeutral checks the polarity-weighted
// shift for a fully positive, high-confidence window.
func TestSentimentPositiveShiftsAboveNeutral(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	observations := []domain.SentimentObservation{
		{Symbol: "BBCA", Time: asOf.AddDate(0, 0, -1), Sentiment: domain.SentimentPositive, Confidence: 1.0},
		{Symbol: "BBCA", Time: asOf.AddDate(0, 0, -2), Sentiment: domain.SentimentPositive, Confidence: 1.0},
	}
	score, _ := Sentiment(observations, asOf)
	assert.Equal(t, 100.0, score)
}

// TestSentimentMixedPolarityPartiallyOffsets checks that opposing
// observations partially cancel rather than each saturating the score.
func TestSentimentMixedPolarityPartiallyOffsets(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	observations := []domain.SentimentObservation{
		{Symbol: "BBCA", Time: asOf.AddDate(0, 0, -1), Sentiment: domain.SentimentPositive, Confidence: 1.0},
		{Symbol: "BBCA", Time: asOf.AddDate(0, 0, -2), Sentiment: domain.SentimentNegative, Confidence: 1.0},
	}
	score, _ := Sentiment(observations, asOf)
	assert.Equal(t, 50.0, score)
}
