package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/idxscope/core/internal/adapters"
	"github.com/idxscope/core/internal/config"
	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/flow"
	"github.com/idxscope/core/internal/freshness"
	"github.com/idxscope/core/internal/jobs"
	"github.com/idxscope/core/internal/repository"
	"github.com/idxscope/core/internal/scoring"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	name       string
	category   domain.SourceCategory
	configured bool
}

func (a *stubAdapter) Name() string                   { return a.name }
func (a *stubAdapter) Category() domain.SourceCategory { return a.category }
func (a *stubAdapter) ConfigStatus() adapters.ConfigStatus {
	return adapters.ConfigStatus{IsConfigured: a.configured}
}
func (a *stubAdapter) Run(rc adapters.RunContext) (adapters.Result, error) {
	return adapters.Result{Message: "ok"}, nil
}

func newTestServer(t *testing.T) (*Server, context.Context) {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "idxscope.db")})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	log := zerolog.Nop()
	cfg := &config.Config{
		WeightTechnical: 0.4, WeightFundamental: 0.4, WeightSentiment: 0.1, WeightML: 0.1,
	}

	stocks := repository.NewStockRepository(db, log)
	prices := repository.NewPriceBarRepository(db, log)
	financials := repository.NewFinancialRecordRepository(db, log)
	trades := repository.NewBrokerTradeRepository(db, log)
	sentiment := repository.NewSentimentRepository(db, log)
	predictions := repository.NewMLPredictionRepository(db, log)
	scores := repository.NewCompositeScoreRepository(db, log)
	jobRepo := repository.NewSourceJobRepository(db, log)
	freshRepo := repository.NewFreshnessRepository(db, log)

	analyzer := flow.NewAnalyzer(flow.NewCatalog(nil))
	engine := scoring.NewEngine(prices, financials, trades, sentiment, predictions, scores, analyzer, cfg, log)
	freshReg := freshness.NewRegistry(cfg)
	agg := freshness.NewAggregator(freshRepo, freshReg, 0, 0)

	adapterReg := adapters.NewRegistry(map[string]adapters.Adapter{
		"prices_rest": &stubAdapter{name: "prices_rest", category: domain.SourcePrices, configured: true},
	})
	jobRegistry := jobs.NewRegistry(jobRepo, time.Hour, log)
	orchestrator := jobs.NewOrchestrator(jobRegistry, adapterReg, jobs.Config{WorkerPoolSize: 1}, log)
	orchestrator.Start()
	t.Cleanup(orchestrator.Stop)

	s := New(Config{
		Port: 0, DevMode: true, Log: log, DB: db,
		Stocks: stocks, Prices: prices, Scores: scores, Jobs: jobRepo,
		Freshness: agg, Engine: engine, Adapters: adapterReg, Orchestrator: orchestrator,
	})
	return s, ctx
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealthReportsOK(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleListSymbolsReturnsSeededStocks(t *testing.T) {
	s, ctx := newTestServer(t)
	require.NoError(t, s.stocks.Upsert(ctx, domain.Stock{Symbol: "BBCA", Name: "Bank BCA", Sector: "Finance", Listed: true}))
	require.NoError(t, s.stocks.Upsert(ctx, domain.Stock{Symbol: "TLKM", Name: "Telkom", Sector: "Telco", Listed: true}))

	rec := doRequest(t, s, http.MethodGet, "/api/symbols/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Stocks []domain.Stock `json:"stocks"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)
}

func TestHandleGetSymbolNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/symbols/NOPE")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetScoreReturnsNullWhenMissing(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/symbols/BBCA/score")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "null\n", rec.Body.String())
}

func TestHandleListSourcesReportsConfigStatus(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/sources/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Summary struct {
			Total      int `json:"total"`
			Configured int `json:"configured"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Summary.Total)
	require.Equal(t, 1, body.Summary.Configured)
}

func TestHandleTriggerSourceStartsJob(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/sources/prices_rest/trigger")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var job domain.SourceJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	require.Equal(t, "prices_rest", job.SourceID)
}

func TestHandleTriggerUnknownSourceReturnsNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/sources/does_not_exist/trigger")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListJobsEmptyInitially(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/jobs/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]\n", rec.Body.String())
}

func TestHandleGetJobNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/jobs/does-not-exist")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
