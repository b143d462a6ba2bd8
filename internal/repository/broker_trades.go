package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/rs/zerolog"
)

// BrokerTradeRepository persists per-broker daily trade aggregates.
// Upserts are keyed on (symbol, time, broker_code).
type BrokerTradeRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewBrokerTradeRepository builds a BrokerTradeRepository over db.
func NewBrokerTradeRepository(db *database.DB, log zerolog.Logger) *BrokerTradeRepository {
	return &BrokerTradeRepository{db: db, log: withLogger(log, "broker_trades")}
}

// UpsertBatch writes trades atomically: either all rows land or none do.
func (r *BrokerTradeRepository) UpsertBatch(ctx context.Context, trades []domain.BrokerTrade) error {
	if err := checkBatchSize(len(trades)); err != nil {
		return err
	}
	if len(trades) == 0 {
		return nil
	}

	return wrapBackend(database.WithTransaction(r.db.Conn(), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO broker_trades
				(symbol, time, broker_code, buy_volume, sell_volume, buy_value, sell_value)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range trades {
			if _, err := stmt.ExecContext(ctx,
				t.Symbol, t.Time.Unix(), t.BrokerCode, t.BuyVolume, t.SellVolume, t.BuyValue, t.SellValue,
			); err != nil {
				return err
			}
		}
		return nil
	}), "upsert broker trade batch")
}

// Window returns all broker trades for symbol within [from, to], ordered
// oldest-first, for consumption by the flow analyzer.
func (r *BrokerTradeRepository) Window(ctx context.Context, symbol string, from, to time.Time) ([]domain.BrokerTrade, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, time, broker_code, buy_volume, sell_volume, buy_value, sell_value
		FROM broker_trades
		WHERE symbol = ? AND time >= ? AND time <= ?
		ORDER BY time ASC
	`, symbol, from.Unix(), to.Unix())
	if err != nil {
		return nil, wrapBackend(err, "broker trade window")
	}
	defer rows.Close()

	var out []domain.BrokerTrade
	for rows.Next() {
		var t domain.BrokerTrade
		var ts int64
		if err := rows.Scan(&t.Symbol, &ts, &t.BrokerCode, &t.BuyVolume, &t.SellVolume, &t.BuyValue, &t.SellValue); err != nil {
			return nil, wrapBackend(err, "scan broker trade")
		}
		t.Time = time.Unix(ts, 0).UTC()
		out = append(out, t)
	}
	return out, wrapBackend(rows.Err(), "iterate broker trades")
}
