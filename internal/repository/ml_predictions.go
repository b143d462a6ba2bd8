package repository

import (
	"time"

	"context"

	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/rs/zerolog"
)

// MLPredictionRepository persists model prediction outputs,
// keyed on (symbol, time, model_version).
type MLPredictionRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewMLPredictionRepository builds an MLPredictionRepository over db.
func NewMLPredictionRepository(db *database.DB, log zerolog.Logger) *MLPredictionRepository {
	return &MLPredictionRepository{db: db, log: withLogger(log, "ml_predictions")}
}

// Upsert inserts or replaces a single prediction.
func (r *MLPredictionRepository) Upsert(ctx context.Context, p domain.MLPrediction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO ml_predictions (symbol, time, direction, confidence, horizon_days, model_version)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.Symbol, p.Time.Unix(), p.Direction, p.Confidence, p.HorizonDays, p.ModelVersion)
	return wrapBackend(err, "upsert ml prediction")
}

// Latest returns the most recent prediction for symbol, or NotFound.
func (r *MLPredictionRepository) Latest(ctx context.Context, symbol string) (domain.MLPrediction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT symbol, time, direction, confidence, horizon_days, model_version
		FROM ml_predictions
		WHERE symbol = ?
		ORDER BY time DESC
		LIMIT 1
	`, symbol)

	var p domain.MLPrediction
	var ts int64
	err := row.Scan(&p.Symbol, &ts, &p.Direction, &p.Confidence, &p.HorizonDays, &p.ModelVersion)
	if err != nil {
		return domain.MLPrediction{}, wrapNotFound(err, "ml prediction for "+symbol)
	}
	p.Time = time.Unix(ts, 0).UTC()
	return p, nil
}
