package scoring

import (
	"fmt"
	"time"

	"github.com/idxscope/core/internal/domain"
)

// sentimentWindow is how far back observations are pulled before being
// folded into the sentiment component.
const sentimentWindow = 7 * 24 * time.Hour

// Sentiment computes the sentiment component score from the observations
// already filtered to a symbol. asOf anchors the trailing window so the
// function stays pure and deterministic for a given input slice. With no
// observation inside the window it returns the neutral baseline of 50.
func Sentiment(observations []domain.SentimentObservation, asOf time.Time) (float64, domain.Breakdown) {
	b := newBuilder()

	cutoff := asOf.Add(-sentimentWindow)
	var sum float64
	var count int
	for _, obs := range observations {
		if obs.Time.Before(cutoff) {
			continue
		}
		sum += obs.Sentiment.Polarity() * obs.Confidence
		count++
	}

	if count == 0 {
		b.signal("no sentiment observations in the last 7 days")
		return 50, render(b)
	}

	mean := sum / float64(count)
	score := clamp100(50 + 50*mean)
	b.add("polarity_weighted_mean", score, 1)
	b.signal(fmt.Sprintf("%d observation(s) in the last 7 days", count))
	return score, render(b)
}
