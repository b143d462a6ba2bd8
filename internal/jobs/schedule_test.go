package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/idxscope/core/internal/adapters"
	"github.com/idxscope/core/internal/config"
	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/flow"
	"github.com/idxscope/core/internal/freshness"
	"github.com/idxscope/core/internal/repository"
	"github.com/idxscope/core/internal/scoring"
	"github.com/idxscope/core/pkg/decimalx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newScheduleFixture(t *testing.T, reg *adapters.Registry) (*Orchestrator, *freshness.Aggregator, *repository.StockRepository, *scoring.Queue, *repository.PriceBarRepository) {
	t.Helper()
	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "idxscope.db")})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	log := zerolog.Nop()
	jobRepo := repository.NewSourceJobRepository(db, log)
	registry := NewRegistry(jobRepo, time.Hour, log)
	o := NewOrchestrator(registry, reg, Config{WorkerPoolSize: 2}, log)
	o.Start()
	t.Cleanup(o.Stop)

	stocks := repository.NewStockRepository(db, log)
	freshRepo := repository.NewFreshnessRepository(db, log)
	freshnessReg := freshness.NewRegistry(&config.Config{PricesAPIKey: "k"})
	agg := freshness.NewAggregator(freshRepo, freshnessReg, 0, 0)

	prices := repository.NewPriceBarRepository(db, log)
	financials := repository.NewFinancialRecordRepository(db, log)
	trades := repository.NewBrokerTradeRepository(db, log)
	sentiment := repository.NewSentimentRepository(db, log)
	predictions := repository.NewMLPredictionRepository(db, log)
	scores := repository.NewCompositeScoreRepository(db, log)
	analyzer := flow.NewAnalyzer(flow.NewCatalog(nil))
	cfg := &config.Config{WeightTechnical: 0.4, WeightFundamental: 0.4, WeightSentiment: 0.1, WeightML: 0.1}
	engine := scoring.NewEngine(prices, financials, trades, sentiment, predictions, scores, analyzer, cfg, log)
	queue := scoring.NewQueue(engine, 1, log)
	t.Cleanup(queue.Close)

	return o, agg, stocks, queue, prices
}

// TestSchedulerTickTriggersStaleCategoryAndSkipsScores checks that a tick
// re-triggers every non-fresh aspect that maps to a source category, and
// never tries to map the scores aspect (which has no adapter).
func TestSchedulerTickTriggersStaleCategoryAndSkipsScores(t *testing.T) {
	triggered := make(chan string, 8)
	a := &fakeAdapter{
		name: "prices_rest", category: domain.SourcePrices, configured: true,
		run: func(rc adapters.RunContext) (adapters.Result, error) {
			triggered <- "prices_rest"
			return adapters.Result{Message: "ok"}, nil
		},
	}
	reg := adapters.NewRegistry(map[string]adapters.Adapter{"prices_rest": a})
	o, agg, stocks, queue, prices := newScheduleFixture(t, reg)

	require.NoError(t, stocks.Upsert(context.Background(), domain.Stock{Symbol: "BBCA", Name: "Bank BCA", Listed: true}))
	stale := time.Now().UTC().AddDate(0, 0, -30)
	require.NoError(t, prices.UpsertBatch(context.Background(), []domain.PriceBar{{
		Symbol: "BBCA", Time: stale,
		Open: decimalx.NewFromInt(9000), High: decimalx.NewFromInt(9100),
		Low: decimalx.NewFromInt(8900), Close: decimalx.NewFromInt(9050),
		Volume: 1000, Value: decimalx.NewFromInt(9050000),
	}}))

	s := NewScheduler(o, agg, stocks, queue, time.Hour, zerolog.Nop())
	s.tick()

	select {
	case name := <-triggered:
		require.Equal(t, "prices_rest", name)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler never triggered the stale prices source")
	}
}

func TestAspectToCategoryOmitsScores(t *testing.T) {
	_, ok := aspectToCategory[domain.AspectScores]
	require.False(t, ok)
}

// TestSchedulerTickEnqueuesStaleScoreSymbol checks that a tick routes a
// symbol with no composite score history onto the scoring queue instead
// of calling the scoring engine directly: with the queue's capacity set
// to 1, the occupied slot is observable through a second Enqueue call
// being rejected.
func TestSchedulerTickEnqueuesStaleScoreSymbol(t *testing.T) {
	reg := adapters.NewRegistry(map[string]adapters.Adapter{})
	o, agg, stocks, queue, _ := newScheduleFixture(t, reg)

	require.NoError(t, stocks.Upsert(context.Background(), domain.Stock{Symbol: "BBCA", Name: "Bank BCA", Listed: true}))

	s := NewScheduler(o, agg, stocks, queue, time.Hour, zerolog.Nop())
	s.tick()

	require.False(t, queue.Enqueue("TLKM"), "BBCA's stale score should already occupy the queue's one slot")
}
