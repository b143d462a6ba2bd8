package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/rs/zerolog"
)

// PriceBarRepository persists OHLCV bars. Upserts are keyed
// on (symbol, time) so re-ingesting the same bar is a no-op change.
type PriceBarRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewPriceBarRepository builds a PriceBarRepository over db.
func NewPriceBarRepository(db *database.DB, log zerolog.Logger) *PriceBarRepository {
	return &PriceBarRepository{db: db, log: withLogger(log, "price_bars")}
}

// UpsertBatch writes bars atomically: either every row lands, or none do.
// Batches above MaxBatchSize are rejected before any write is attempted.
func (r *PriceBarRepository) UpsertBatch(ctx context.Context, bars []domain.PriceBar) error {
	if err := checkBatchSize(len(bars)); err != nil {
		return err
	}
	if len(bars) == 0 {
		return nil
	}

	return wrapBackend(database.WithTransaction(r.db.Conn(), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO price_bars (symbol, time, open, high, low, close, volume, value)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, b := range bars {
			if _, err := stmt.ExecContext(ctx,
				b.Symbol, b.Time.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume, b.Value,
			); err != nil {
				return err
			}
		}
		return nil
	}), "upsert price bar batch")
}

// Range returns bars for symbol within [from, to], ordered per order.
func (r *PriceBarRepository) Range(ctx context.Context, symbol string, from, to time.Time, order domain.RangeOrder) ([]domain.PriceBar, error) {
	direction := "ASC"
	if order == domain.OrderDescending {
		direction = "DESC"
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, time, open, high, low, close, volume, value
		FROM price_bars
		WHERE symbol = ? AND time >= ? AND time <= ?
		ORDER BY time `+direction,
		symbol, from.Unix(), to.Unix(),
	)
	if err != nil {
		return nil, wrapBackend(err, "range price bars")
	}
	defer rows.Close()

	return scanPriceBars(rows)
}

// Latest returns the most recent n bars for symbol, ordered oldest-first.
func (r *PriceBarRepository) Latest(ctx context.Context, symbol string, n int) ([]domain.PriceBar, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, time, open, high, low, close, volume, value
		FROM price_bars
		WHERE symbol = ?
		ORDER BY time DESC
		LIMIT ?
	`, symbol, n)
	if err != nil {
		return nil, wrapBackend(err, "latest price bars")
	}
	defer rows.Close()

	bars, err := scanPriceBars(rows)
	if err != nil {
		return nil, err
	}
	reverse(bars)
	return bars, nil
}

// AsOf returns the bar in effect at or before asOf, or NotFound.
func (r *PriceBarRepository) AsOf(ctx context.Context, symbol string, asOf time.Time) (domain.PriceBar, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT symbol, time, open, high, low, close, volume, value
		FROM price_bars
		WHERE symbol = ? AND time <= ?
		ORDER BY time DESC
		LIMIT 1
	`, symbol, asOf.Unix())

	bar, err := scanPriceBar(row)
	if err != nil {
		return domain.PriceBar{}, wrapNotFound(err, "price bar as of "+asOf.String())
	}
	return bar, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPriceBar(row rowScanner) (domain.PriceBar, error) {
	var b domain.PriceBar
	var ts int64
	err := row.Scan(&b.Symbol, &ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Value)
	if err != nil {
		return domain.PriceBar{}, err
	}
	b.Time = time.Unix(ts, 0).UTC()
	return b, nil
}

func scanPriceBars(rows *sql.Rows) ([]domain.PriceBar, error) {
	var out []domain.PriceBar
	for rows.Next() {
		b, err := scanPriceBar(rows)
		if err != nil {
			return nil, wrapBackend(err, "scan price bar")
		}
		out = append(out, b)
	}
	return out, wrapBackend(rows.Err(), "iterate price bars")
}

func reverse(bars []domain.PriceBar) {
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
}
