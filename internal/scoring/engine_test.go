package scoring

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/idxscope/core/internal/config"
	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/flow"
	"github.com/idxscope/core/internal/repository"
	"github.com/idxscope/core/pkg/decimalx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngineFixture(t *testing.T) (*Engine, *database.DB, context.Context) {
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
	financials := repository.NewFinancialRecordRepository(db, log)
	trades := repository.NewBrokerTradeRepository(db, log)
	sentimentRepo := repository.NewSentimentRepository(db, log)
	predictions := repository.NewMLPredictionRepository(db, log)
	scores := repository.NewCompositeScoreRepository(db, log)
	analyzer := flow.NewAnalyzer(flow.NewCatalog(flow.DefaultSeed))

	cfg := &config.Config{
		WeightTechnical:   0.4,
		WeightFundamental: 0.4,
		WeightSentiment:   0.1,
		WeightML:          0.1,
	}

	engine := NewEngine(prices, financials, trades, sentimentRepo, predictions, scores, analyzer, cfg, log)
	return engine, db, ctx
}

func seedUptrend(t *testing.T, ctx context.Context, db *database.DB, symbol string, asOf time.Time) {
	t.Helper()
	prices := repository.NewPriceBarRepository(db, zerolog.Nop())
	var bars []domain.PriceBar
	price := 1000.0
	for i := 60; i >= 1; i-- {
		price += 5
		day := asOf.AddDate(0, 0, -i)
		bars = append(bars, domain.PriceBar{
			Symbol: symbol, Time: day,
			Open: decimalx.NewFromFloat(price - 2), High: decimalx.NewFromFloat(price + 3),
			Low: decimalx.NewFromFloat(price - 4), Close: decimalx.NewFromFloat(price),
			Volume: 100_000, Value: decimalx.NewFromFloat(price * 100_000),
		})
	}
	require.NoError(t, prices.UpsertBatch(ctx, bars))
}

// TestRunFailsWithoutPriceHistory checks invariant 1: a scoring run
// produces no row when technical cannot be computed at all.
func TestRunFailsWithoutPriceHistory(t *testing.T) {
	engine, _, ctx := newEngineFixture(t)
	_, err := engine.Run(ctx, "BBCA", time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindInsufficientData, domain.KindOf(err))
}

// TestRunFallsBackToNeutralFundamentalWithoutFinancials exercises the
// missing-financials scenario: technical has data, fundamental does not,
// and the run still produces a row with fundamental defaulted to 50.
func TestRunFallsBackToNeutralFundamentalWithoutFinancials(t *testing.T) {
	engine, db, ctx := newEngineFixture(t)
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedUptrend(t, ctx, db, "BBCA", asOf)

	result, err := engine.Run(ctx, "BBCA", asOf)
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.Fundamental)
	assert.Contains(t, result.FundamentalBreakdown.Signals, "no fundamental data")
}

// TestRunCompositeMatchesConfiguredWeights checks invariant 2: composite
// equals the weighted sum of the four component scores using the
// configured weights, within 10⁻⁶.
func TestRunCompositeMatchesConfiguredWeights(t *testing.T) {
	engine, db, ctx := newEngineFixture(t)
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedUptrend(t, ctx, db, "BBCA", asOf)

	result, err := engine.Run(ctx, "BBCA", asOf)
	require.NoError(t, err)

	expected := 0.4*result.Technical + 0.4*result.Fundamental + 0.1*result.Sentiment + 0.1*result.ML
	assert.InDelta(t, round2(expected), result.Composite, 1e-6)

	for _, v := range []float64{result.Composite, result.Technical, result.Fundamental, result.Sentiment, result.ML} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

// TestRunPersistsRetrievableRow checks that a successful run can be read
// back through CompositeScoreRepository.Latest.
func TestRunPersistsRetrievableRow(t *testing.T) {
	engine, db, ctx := newEngineFixture(t)
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedUptrend(t, ctx, db, "BBCA", asOf)

	_, err := engine.Run(ctx, "BBCA", asOf)
	require.NoError(t, err)

	scores := repository.NewCompositeScoreRepository(db, zerolog.Nop())
	latest, err := scores.Latest(ctx, "BBCA")
	require.NoError(t, err)
	assert.Equal(t, "BBCA", latest.Symbol)
}
