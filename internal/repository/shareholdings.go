package repository

import (
	"context"
	"time"

	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/rs/zerolog"
)

// ShareholdingRepository persists point-in-time ownership snapshots
// keyed on (symbol, reported_date, holder_name).
type ShareholdingRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewShareholdingRepository builds a ShareholdingRepository over db.
func NewShareholdingRepository(db *database.DB, log zerolog.Logger) *ShareholdingRepository {
	return &ShareholdingRepository{db: db, log: withLogger(log, "shareholdings")}
}

// Upsert inserts or replaces a single shareholding record.
func (r *ShareholdingRepository) Upsert(ctx context.Context, s domain.Shareholding) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO shareholdings
			(symbol, reported_date, holder_name, holder_type, shares_held, percentage, change_shares, change_percentage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.Symbol, s.ReportedDate.Unix(), s.HolderName, s.HolderType, s.SharesHeld, s.Percentage, s.ChangeShares, s.ChangePercentage)
	return wrapBackend(err, "upsert shareholding")
}

// Latest returns the most recent shareholding snapshot for symbol,
// ordered by reported_date descending.
func (r *ShareholdingRepository) Latest(ctx context.Context, symbol string) ([]domain.Shareholding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, reported_date, holder_name, holder_type, shares_held, percentage, change_shares, change_percentage
		FROM shareholdings
		WHERE symbol = ? AND reported_date = (
			SELECT MAX(reported_date) FROM shareholdings WHERE symbol = ?
		)
	`, symbol, symbol)
	if err != nil {
		return nil, wrapBackend(err, "latest shareholdings")
	}
	defer rows.Close()

	var out []domain.Shareholding
	for rows.Next() {
		var s domain.Shareholding
		var reportedDate int64
		if err := rows.Scan(&s.Symbol, &reportedDate, &s.HolderName, &s.HolderType, &s.SharesHeld, &s.Percentage, &s.ChangeShares, &s.ChangePercentage); err != nil {
			return nil, wrapBackend(err, "scan shareholding")
		}
		s.ReportedDate = time.Unix(reportedDate, 0).UTC()
		out = append(out, s)
	}
	return out, wrapBackend(rows.Err(), "iterate shareholdings")
}
