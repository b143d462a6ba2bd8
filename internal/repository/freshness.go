package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/rs/zerolog"
)

// aspectTable maps each fixed Aspect to the table and time column backing
// its "latest observed" query.
var aspectTable = map[domain.Aspect]struct {
	table  string
	column string
}{
	domain.AspectPrices:     {"price_bars", "time"},
	domain.AspectBrokerFlow: {"broker_trades", "time"},
	domain.AspectFinancials: {"financial_records", "period_end"},
	domain.AspectScores:     {"composite_scores", "time"},
}

// FreshnessRepository answers "how recent is the newest observation" for
// each fixed aspect, per symbol or across all symbols. It never applies
// staleness thresholds itself — that classification belongs to
// internal/freshness, which is the only caller.
type FreshnessRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewFreshnessRepository builds a FreshnessRepository over db.
func NewFreshnessRepository(db *database.DB, log zerolog.Logger) *FreshnessRepository {
	return &FreshnessRepository{db: db, log: withLogger(log, "freshness")}
}

// LatestFor returns the newest observed timestamp for (symbol, aspect), or
// nil if the symbol has no rows for that aspect at all.
func (r *FreshnessRepository) LatestFor(ctx context.Context, symbol string, aspect domain.Aspect) (*time.Time, error) {
	t, ok := aspectTable[aspect]
	if !ok {
		return nil, domain.NewError(domain.ErrKindBackend, "unknown aspect "+string(aspect), nil)
	}

	query := "SELECT MAX(" + t.column + ") FROM " + t.table + " WHERE symbol = ?"
	var ts sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, symbol).Scan(&ts)
	if err != nil {
		return nil, wrapBackend(err, "latest "+string(aspect))
	}
	if !ts.Valid {
		return nil, nil
	}
	asOf := time.Unix(ts.Int64, 0).UTC()
	return &asOf, nil
}

// LatestAcrossSymbols returns the raw per-symbol latest-timestamp set for one aspect,
// used by internal/freshness to bucket by staleness threshold.
func (r *FreshnessRepository) LatestAcrossSymbols(ctx context.Context, aspect domain.Aspect) (map[string]time.Time, error) {
	t, ok := aspectTable[aspect]
	if !ok {
		return nil, domain.NewError(domain.ErrKindBackend, "unknown aspect "+string(aspect), nil)
	}

	query := "SELECT symbol, MAX(" + t.column + ") FROM " + t.table + " GROUP BY symbol"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapBackend(err, "latest across symbols for "+string(aspect))
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var symbol string
		var ts int64
		if err := rows.Scan(&symbol, &ts); err != nil {
			return nil, wrapBackend(err, "scan latest across symbols")
		}
		out[symbol] = time.Unix(ts, 0).UTC()
	}
	return out, wrapBackend(rows.Err(), "iterate latest across symbols")
}
