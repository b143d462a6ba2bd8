package scoring

import (
	"fmt"
	"time"

	"github.com/idxscope/core/internal/domain"
)

// ML computes the ML component score from the latest prediction for a
// symbol. pred may be nil. A prediction older than its own stated horizon
// is treated as unavailable — the source system's behavior for an
// expired-but-present prediction is unspecified, so this falls back to the
// neutral baseline rather than guessing at a decayed weight.
func ML(pred *domain.MLPrediction, asOf time.Time) (float64, domain.Breakdown) {
	b := newBuilder()

	if pred == nil {
		b.signal("no ML prediction available")
		return 50, render(b)
	}

	horizon := time.Duration(pred.HorizonDays) * 24 * time.Hour
	if asOf.After(pred.Time.Add(horizon)) {
		b.signal("latest ML prediction is past its horizon")
		return 50, render(b)
	}

	var shift float64
	switch pred.Direction {
	case domain.DirectionUp:
		shift = 50 * pred.Confidence
	case domain.DirectionDown:
		shift = -50 * pred.Confidence
	default:
		shift = 0
	}

	score := clamp100(50 + shift)
	b.add("direction_confidence_shift", score, 1)
	b.signal(fmt.Sprintf("%s prediction, horizon %dd, model %s", pred.Direction, pred.HorizonDays, pred.ModelVersion))
	return score, render(b)
}
