package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/pkg/decimalx"
	"github.com/rs/zerolog"
)

// FinancialRecordRepository persists quarterly/annual fundamentals
// snapshots. Every numeric column is nullable: absence is carried
// through as a nil *decimalx.Decimal, never a sentinel zero.
type FinancialRecordRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewFinancialRecordRepository builds a FinancialRecordRepository over db.
func NewFinancialRecordRepository(db *database.DB, log zerolog.Logger) *FinancialRecordRepository {
	return &FinancialRecordRepository{db: db, log: withLogger(log, "financial_records")}
}

// Upsert inserts or replaces a single financial record.
func (r *FinancialRecordRepository) Upsert(ctx context.Context, rec domain.FinancialRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO financial_records
			(symbol, period_end, revenue, net_income, total_assets, total_equity, total_debt,
			 ebitda, fcf, eps, book_value_per_share, pe, pb, ev_ebitda, roe, roa)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Symbol, rec.PeriodEnd.Unix(),
		nullableDecimal(rec.Revenue), nullableDecimal(rec.NetIncome), nullableDecimal(rec.TotalAssets),
		nullableDecimal(rec.TotalEquity), nullableDecimal(rec.TotalDebt), nullableDecimal(rec.EBITDA),
		nullableDecimal(rec.FCF), nullableDecimal(rec.EPS), nullableDecimal(rec.BookValuePerShare),
		nullableDecimal(rec.PE), nullableDecimal(rec.PB), nullableDecimal(rec.EVEBITDA),
		nullableDecimal(rec.ROE), nullableDecimal(rec.ROA),
	)
	return wrapBackend(err, "upsert financial record")
}

// Latest returns the most recent financial record for symbol, or NotFound
// if none has ever been ingested.
func (r *FinancialRecordRepository) Latest(ctx context.Context, symbol string) (domain.FinancialRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT symbol, period_end, revenue, net_income, total_assets, total_equity, total_debt,
		       ebitda, fcf, eps, book_value_per_share, pe, pb, ev_ebitda, roe, roa
		FROM financial_records
		WHERE symbol = ?
		ORDER BY period_end DESC
		LIMIT 1
	`, symbol)

	rec, err := scanFinancialRecord(row)
	if err != nil {
		return domain.FinancialRecord{}, wrapNotFound(err, "financial record for "+symbol)
	}
	return rec, nil
}

func scanFinancialRecord(row rowScanner) (domain.FinancialRecord, error) {
	var rec domain.FinancialRecord
	var periodEnd int64
	var revenue, netIncome, totalAssets, totalEquity, totalDebt decimalx.Decimal
	var ebitda, fcf, eps, bvps, pe, pb, evEbitda, roe, roa decimalx.Decimal
	var revenueNull, netIncomeNull, totalAssetsNull, totalEquityNull, totalDebtNull sql.NullString
	var ebitdaNull, fcfNull, epsNull, bvpsNull, peNull, pbNull, evEbitdaNull, roeNull, roaNull sql.NullString

	err := row.Scan(
		&rec.Symbol, &periodEnd,
		&revenueNull, &netIncomeNull, &totalAssetsNull, &totalEquityNull, &totalDebtNull,
		&ebitdaNull, &fcfNull, &epsNull, &bvpsNull, &peNull, &pbNull, &evEbitdaNull, &roeNull, &roaNull,
	)
	if err != nil {
		return domain.FinancialRecord{}, err
	}
	rec.PeriodEnd = time.Unix(periodEnd, 0).UTC()

	assign := func(ns sql.NullString, d *decimalx.Decimal, dst **decimalx.Decimal) error {
		if !ns.Valid {
			return nil
		}
		parsed, err := decimalx.Parse(ns.String)
		if err != nil {
			return err
		}
		*d = parsed
		*dst = d
		return nil
	}

	for _, step := range []struct {
		ns  sql.NullString
		d   *decimalx.Decimal
		dst **decimalx.Decimal
	}{
		{revenueNull, &revenue, &rec.Revenue},
		{netIncomeNull, &netIncome, &rec.NetIncome},
		{totalAssetsNull, &totalAssets, &rec.TotalAssets},
		{totalEquityNull, &totalEquity, &rec.TotalEquity},
		{totalDebtNull, &totalDebt, &rec.TotalDebt},
		{ebitdaNull, &ebitda, &rec.EBITDA},
		{fcfNull, &fcf, &rec.FCF},
		{epsNull, &eps, &rec.EPS},
		{bvpsNull, &bvps, &rec.BookValuePerShare},
		{peNull, &pe, &rec.PE},
		{pbNull, &pb, &rec.PB},
		{evEbitdaNull, &evEbitda, &rec.EVEBITDA},
		{roeNull, &roe, &rec.ROE},
		{roaNull, &roa, &rec.ROA},
	} {
		if err := assign(step.ns, step.d, step.dst); err != nil {
			return domain.FinancialRecord{}, err
		}
	}

	return rec, nil
}

// nullableDecimal converts a possibly-nil *decimalx.Decimal into a driver
// value, carrying NULL through when the pointer is nil: absence of a
// fundamental is never a sentinel zero.
func nullableDecimal(d *decimalx.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}
