package repository

import (
	"context"
	"database/sql"

	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/rs/zerolog"
)

// StockRepository persists the master symbol catalog.
type StockRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewStockRepository builds a StockRepository over db.
func NewStockRepository(db *database.DB, log zerolog.Logger) *StockRepository {
	return &StockRepository{db: db, log: withLogger(log, "stocks")}
}

// Upsert inserts or replaces a single stock record.
func (r *StockRepository) Upsert(ctx context.Context, stock domain.Stock) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO stocks (symbol, name, sector, listed)
		VALUES (?, ?, ?, ?)
	`, stock.Symbol, stock.Name, stock.Sector, stock.Listed)
	return wrapBackend(err, "upsert stock")
}

// Get returns the stock for symbol, or a NotFound error.
func (r *StockRepository) Get(ctx context.Context, symbol string) (domain.Stock, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT symbol, name, sector, listed FROM stocks WHERE symbol = ?", symbol)

	var s domain.Stock
	err := row.Scan(&s.Symbol, &s.Name, &s.Sector, &s.Listed)
	if err != nil {
		return domain.Stock{}, wrapNotFound(err, "stock "+symbol)
	}
	return s, nil
}

// List returns every stock in the catalog, ordered by symbol.
func (r *StockRepository) List(ctx context.Context) ([]domain.Stock, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT symbol, name, sector, listed FROM stocks ORDER BY symbol")
	if err != nil {
		return nil, wrapBackend(err, "list stocks")
	}
	defer rows.Close()

	var out []domain.Stock
	for rows.Next() {
		var s domain.Stock
		if err := rows.Scan(&s.Symbol, &s.Name, &s.Sector, &s.Listed); err != nil {
			return nil, wrapBackend(err, "scan stock")
		}
		out = append(out, s)
	}
	return out, wrapBackend(rows.Err(), "iterate stocks")
}

// Exists reports whether symbol is present in the catalog.
func (r *StockRepository) Exists(ctx context.Context, symbol string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM stocks WHERE symbol = ?", symbol).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, wrapBackend(err, "check stock exists")
	}
	return true, nil
}
