package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/rs/zerolog"
)

// CompositeScoreRepository persists scoring-run outputs.
// Rows are append-only: a recompute always inserts a new (symbol, time)
// row rather than mutating an existing one.
type CompositeScoreRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewCompositeScoreRepository builds a CompositeScoreRepository over db.
func NewCompositeScoreRepository(db *database.DB, log zerolog.Logger) *CompositeScoreRepository {
	return &CompositeScoreRepository{db: db, log: withLogger(log, "composite_scores")}
}

// Insert appends a new composite score row.
func (r *CompositeScoreRepository) Insert(ctx context.Context, s domain.CompositeScore) error {
	technical, err := json.Marshal(s.TechnicalBreakdown)
	if err != nil {
		return wrapBackend(err, "marshal technical breakdown")
	}
	fundamental, err := json.Marshal(s.FundamentalBreakdown)
	if err != nil {
		return wrapBackend(err, "marshal fundamental breakdown")
	}
	sentiment, err := json.Marshal(s.SentimentBreakdown)
	if err != nil {
		return wrapBackend(err, "marshal sentiment breakdown")
	}
	ml, err := json.Marshal(s.MLBreakdown)
	if err != nil {
		return wrapBackend(err, "marshal ml breakdown")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO composite_scores
			(symbol, time, composite, technical, fundamental, sentiment, ml,
			 technical_breakdown, fundamental_breakdown, sentiment_breakdown, ml_breakdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.Symbol, s.Time.Unix(), s.Composite, s.Technical, s.Fundamental, s.Sentiment, s.ML,
		string(technical), string(fundamental), string(sentiment), string(ml),
	)
	return wrapBackend(err, "insert composite score")
}

// Latest returns the most recent composite score for symbol, or NotFound.
func (r *CompositeScoreRepository) Latest(ctx context.Context, symbol string) (domain.CompositeScore, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT symbol, time, composite, technical, fundamental, sentiment, ml,
		       technical_breakdown, fundamental_breakdown, sentiment_breakdown, ml_breakdown
		FROM composite_scores
		WHERE symbol = ?
		ORDER BY time DESC
		LIMIT 1
	`, symbol)

	return scanCompositeScore(row)
}

// Top returns the n highest composite scores across symbols, using each
// symbol's most recent row.
func (r *CompositeScoreRepository) Top(ctx context.Context, n int) ([]domain.CompositeScore, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.symbol, c.time, c.composite, c.technical, c.fundamental, c.sentiment, c.ml,
		       c.technical_breakdown, c.fundamental_breakdown, c.sentiment_breakdown, c.ml_breakdown
		FROM composite_scores c
		INNER JOIN (
			SELECT symbol, MAX(time) AS max_time FROM composite_scores GROUP BY symbol
		) latest ON c.symbol = latest.symbol AND c.time = latest.max_time
		ORDER BY c.composite DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, wrapBackend(err, "top composite scores")
	}
	defer rows.Close()

	var out []domain.CompositeScore
	for rows.Next() {
		s, err := scanCompositeScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, wrapBackend(rows.Err(), "iterate composite scores")
}

// Range returns every composite score row with time in [from, to),
// ordered oldest-first, for nightly archival export.
func (r *CompositeScoreRepository) Range(ctx context.Context, from, to time.Time) ([]domain.CompositeScore, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, time, composite, technical, fundamental, sentiment, ml,
		       technical_breakdown, fundamental_breakdown, sentiment_breakdown, ml_breakdown
		FROM composite_scores
		WHERE time >= ? AND time < ?
		ORDER BY time ASC
	`, from.Unix(), to.Unix())
	if err != nil {
		return nil, wrapBackend(err, "range composite scores")
	}
	defer rows.Close()

	var out []domain.CompositeScore
	for rows.Next() {
		s, err := scanCompositeScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, wrapBackend(rows.Err(), "iterate composite scores")
}

func scanCompositeScore(row rowScanner) (domain.CompositeScore, error) {
	var s domain.CompositeScore
	var ts int64
	var technical, fundamental, sentiment, ml string

	err := row.Scan(&s.Symbol, &ts, &s.Composite, &s.Technical, &s.Fundamental, &s.Sentiment, &s.ML,
		&technical, &fundamental, &sentiment, &ml)
	if err != nil {
		return domain.CompositeScore{}, wrapNotFound(err, "composite score")
	}
	s.Time = time.Unix(ts, 0).UTC()

	if err := json.Unmarshal([]byte(technical), &s.TechnicalBreakdown); err != nil {
		return domain.CompositeScore{}, wrapBackend(err, "unmarshal technical breakdown")
	}
	if err := json.Unmarshal([]byte(fundamental), &s.FundamentalBreakdown); err != nil {
		return domain.CompositeScore{}, wrapBackend(err, "unmarshal fundamental breakdown")
	}
	if err := json.Unmarshal([]byte(sentiment), &s.SentimentBreakdown); err != nil {
		return domain.CompositeScore{}, wrapBackend(err, "unmarshal sentiment breakdown")
	}
	if err := json.Unmarshal([]byte(ml), &s.MLBreakdown); err != nil {
		return domain.CompositeScore{}, wrapBackend(err, "unmarshal ml breakdown")
	}

	return s, nil
}
