package repository

import (
	"context"
	"time"

	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/rs/zerolog"
)

// SentimentRepository persists text-derived sentiment observations
// keyed on (symbol, time, source).
type SentimentRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewSentimentRepository builds a SentimentRepository over db.
func NewSentimentRepository(db *database.DB, log zerolog.Logger) *SentimentRepository {
	return &SentimentRepository{db: db, log: withLogger(log, "sentiment")}
}

// Upsert inserts or replaces a single sentiment observation.
func (r *SentimentRepository) Upsert(ctx context.Context, obs domain.SentimentObservation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sentiment_observations (symbol, time, source, text_snippet, sentiment, confidence)
		VALUES (?, ?, ?, ?, ?, ?)
	`, obs.Symbol, obs.Time.Unix(), obs.Source, obs.TextSnippet, obs.Sentiment, obs.Confidence)
	return wrapBackend(err, "upsert sentiment observation")
}

// Window returns sentiment observations for symbol within [from, to],
// ordered oldest-first.
func (r *SentimentRepository) Window(ctx context.Context, symbol string, from, to time.Time) ([]domain.SentimentObservation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, time, source, text_snippet, sentiment, confidence
		FROM sentiment_observations
		WHERE symbol = ? AND time >= ? AND time <= ?
		ORDER BY time ASC
	`, symbol, from.Unix(), to.Unix())
	if err != nil {
		return nil, wrapBackend(err, "sentiment window")
	}
	defer rows.Close()

	var out []domain.SentimentObservation
	for rows.Next() {
		var o domain.SentimentObservation
		var ts int64
		if err := rows.Scan(&o.Symbol, &ts, &o.Source, &o.TextSnippet, &o.Sentiment, &o.Confidence); err != nil {
			return nil, wrapBackend(err, "scan sentiment observation")
		}
		o.Time = time.Unix(ts, 0).UTC()
		out = append(out, o)
	}
	return out, wrapBackend(rows.Err(), "iterate sentiment observations")
}
