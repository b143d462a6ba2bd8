package freshness

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/idxscope/core/internal/config"
	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/repository"
	"github.com/idxscope/core/pkg/decimalx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) (*Aggregator, *repository.PriceBarRepository, context.Context) {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "idxscope.db")})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	log := zerolog.Nop()
	stocks := repository.NewStockRepository(db, log)
	require.NoError(t, stocks.Upsert(ctx, domain.Stock{Symbol: "BBCA", Name: "Bank BCA", Listed: true}))

	prices := repository.NewPriceBarRepository(db, log)
	freshRepo := repository.NewFreshnessRepository(db, log)
	registry := NewRegistry(&config.Config{PricesAPIKey: "k"})
	agg := NewAggregator(freshRepo, registry, 0, 0)
	return agg, prices, ctx
}

func upsertBar(t *testing.T, ctx context.Context, prices *repository.PriceBarRepository, symbol string, at time.Time) {
	t.Helper()
	require.NoError(t, prices.UpsertBatch(ctx, []domain.PriceBar{{
		Symbol: symbol, Time: at,
		Open: decimalx.NewFromFloat(100), High: decimalx.NewFromFloat(101),
		Low: decimalx.NewFromFloat(99), Close: decimalx.NewFromFloat(100),
		Volume: 1000, Value: decimalx.NewFromFloat(100_000),
	}}))
}

// TestForSymbolNoDataWhenNoRows checks that an aspect with no rows at all
// classifies as no_data rather than outdated.
func TestForSymbolNoDataWhenNoRows(t *testing.T) {
	agg, _, ctx := newFixture(t)
	records, err := agg.ForSymbol(ctx, "BBCA", time.Now().UTC())
	require.NoError(t, err)

	var prices domain.FreshnessRecord
	for _, r := range records {
		if r.Aspect == domain.AspectPrices {
			prices = r
		}
	}
	assert.Equal(t, domain.FreshnessNoData, prices.Status)
	assert.Nil(t, prices.AsOf)
}

// TestForSymbolClassifiesByAge checks the fresh/stale/outdated thresholds.
func TestForSymbolClassifiesByAge(t *testing.T) {
	agg, prices, ctx := newFixture(t)
	now := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	upsertBar(t, ctx, prices, "BBCA", now.Add(-2*time.Hour))

	records, err := agg.ForSymbol(ctx, "BBCA", now)
	require.NoError(t, err)
	for _, r := range records {
		if r.Aspect == domain.AspectPrices {
			assert.Equal(t, domain.FreshnessFresh, r.Status)
		}
	}
}

// TestForSymbolNotConfiguredNeverQueriesData checks that an aspect whose
// adapter lacks its secret reports not_configured without even touching
// the repository.
func TestForSymbolNotConfiguredNeverQueriesData(t *testing.T) {
	agg, _, ctx := newFixture(t)
	records, err := agg.ForSymbol(ctx, "BBCA", time.Now().UTC())
	require.NoError(t, err)

	var brokerFlow domain.FreshnessRecord
	for _, r := range records {
		if r.Aspect == domain.AspectBrokerFlow {
			brokerFlow = r
		}
	}
	assert.Equal(t, domain.FreshnessNotConfig, brokerFlow.Status)
}

// TestRollupOverallWorstOf checks that a rollup with an outdated symbol
// degrades the aspect's overall status.
func TestRollupOverallWorstOf(t *testing.T) {
	agg, prices, ctx := newFixture(t)
	now := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	upsertBar(t, ctx, prices, "BBCA", now.Add(-30*24*time.Hour))

	rollups, err := agg.Rollup(ctx, now)
	require.NoError(t, err)

	for _, r := range rollups {
		if r.Aspect == domain.AspectPrices {
			assert.Equal(t, 1, r.Outdated)
			assert.Equal(t, domain.RollupDegraded, r.Overall)
		}
		if r.Aspect == domain.AspectBrokerFlow {
			assert.Equal(t, 1, r.NotConfigured)
			assert.Equal(t, domain.RollupDegraded, r.Overall)
		}
	}
}
