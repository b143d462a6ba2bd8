// Package main is the entry point for idxscope, the IDX market analytics
// core. It wires configuration, the sqlite store, the flow/scoring/
// freshness packages, the external-source adapters, the job orchestrator
// and scheduler, and the HTTP server, then blocks until shutdown.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/idxscope/core/internal/adapters"
	"github.com/idxscope/core/internal/adapters/archive"
	"github.com/idxscope/core/internal/config"
	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/flow"
	"github.com/idxscope/core/internal/freshness"
	"github.com/idxscope/core/internal/jobs"
	"github.com/idxscope/core/internal/repository"
	"github.com/idxscope/core/internal/scoring"
	"github.com/idxscope/core/internal/server"
	"github.com/idxscope/core/pkg/logger"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// main orchestrates the system startup sequence:
// 1. Loads configuration from environment variables.
// 2. Initializes structured logging.
// 3. Opens the sqlite store and runs migrations.
// 4. Builds the repositories, flow analyzer, scoring engine and freshness
//    aggregator.
// 5. Builds the adapter registry and the job orchestrator/scheduler.
// 6. Schedules the nightly archive export, if configured.
// 7. Starts the HTTP server.
// 8. Waits for a shutdown signal and drains everything in reverse order.
func main() {
	// Fallback logger in case configuration fails to load.
	fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})

	cfg, err := config.Load()
	if err != nil {
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Msg("Starting idxscope core")

	db, err := database.New(database.Config{Path: cfg.DBPath(), Profile: database.ProfileStandard})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
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

	catalog := flow.NewCatalog(flow.DefaultSeed)
	analyzer := flow.NewAnalyzer(catalog)
	engine := scoring.NewEngine(prices, financials, trades, sentiment, predictions, scores, analyzer, cfg, log)

	// The scoring queue is the only path anything should use to request a
	// recompute outside of an explicit, synchronous admin action: it
	// coalesces a burst of stale-score symbols into one run apiece.
	scoreQueue := scoring.NewQueue(engine, 256, log)
	queueCtx, queueCancel := context.WithCancel(context.Background())
	go scoreQueue.Run(queueCtx)
	defer func() {
		scoreQueue.Close()
		queueCancel()
	}()

	freshReg := freshness.NewRegistry(cfg)
	aggregator := freshness.NewAggregator(freshRepo, freshReg, cfg.FreshWithin, cfg.StaleWithin)

	marketStream := adapters.NewMarketStatusStreamAdapter(cfg.MarketStatusStreamURL, log)
	adapterReg := adapters.NewRegistry(map[string]adapters.Adapter{
		"prices_rest":          adapters.NewPricesRESTAdapter(cfg, cfg.PricesBaseURL, stocks, prices, log),
		"fundamentals_rest":    adapters.NewFundamentalsRESTAdapter(cfg, cfg.FundamentalsBaseURL, stocks, financials, log),
		"broker_flow_scrape":   adapters.NewBrokerFlowScrapeAdapter(cfg, cfg.BrokerFlowBaseURL, stocks, trades, log),
		"market_status_stream": marketStream,
	})

	jobRegistry := jobs.NewRegistry(jobRepo, cfg.JobRetention, log)
	orchestrator := jobs.NewOrchestrator(jobRegistry, adapterReg, jobs.Config{
		WorkerPoolSize: cfg.WorkerPoolSize,
		SoftTimeout:    cfg.SoftJobTimeout,
		HardTimeout:    cfg.HardJobTimeout,
		JobRetention:   cfg.JobRetention,
		OutputCapBytes: cfg.OutputCapBytes,
	}, log)
	orchestrator.Start()
	defer orchestrator.Stop()

	scheduler := jobs.NewScheduler(orchestrator, aggregator, stocks, scoreQueue, 5*time.Minute, log)
	scheduler.Start()
	defer scheduler.Stop()

	archiveCron := setupArchiveExport(cfg, scores, log)
	if archiveCron != nil {
		archiveCron.Start()
		defer func() { <-archiveCron.Stop().Done() }()
	}

	streamCtx, streamCancel := context.WithCancel(context.Background())
	defer func() {
		marketStream.Stop()
		streamCancel()
	}()
	if marketStream.ConfigStatus().IsConfigured {
		go runMarketStatusStream(streamCtx, marketStream, stocks, prices, log)
	} else {
		log.Info().Msg("market status stream disabled: no URL configured")
	}

	srv := server.New(server.Config{
		Port:         cfg.Port,
		DevMode:      cfg.DevMode,
		Log:          log,
		DB:           db,
		Stocks:       stocks,
		Prices:       prices,
		Scores:       scores,
		Jobs:         jobRepo,
		Freshness:    aggregator,
		Engine:       engine,
		Adapters:     adapterReg,
		Orchestrator: orchestrator,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// setupArchiveExport wires the nightly composite-score export to S3, if an
// archive bucket is configured. It returns nil when archival is disabled
// so main can skip scheduling it entirely.
func setupArchiveExport(cfg *config.Config, scores *repository.CompositeScoreRepository, log zerolog.Logger) *cron.Cron {
	ctx := context.Background()
	exporter, ok, err := archive.NewExporter(ctx, cfg, scores, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize archive exporter")
		return nil
	}
	if !ok {
		log.Info().Msg("archive export disabled: no bucket configured")
		return nil
	}

	c := cron.New()
	_, err = c.AddFunc("@midnight", func() {
		exportCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		if _, err := exporter.ExportDay(exportCtx, yesterday); err != nil {
			log.Error().Err(err).Msg("nightly archive export failed")
		}
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to schedule archive export")
		return nil
	}
	return c
}

// runMarketStatusStream loads the listed symbol universe and drives the
// market status stream's reconnect-with-backoff loop for the life of ctx,
// persisting every tick it receives as a price bar. It blocks, so callers
// run it in its own goroutine.
func runMarketStatusStream(ctx context.Context, stream *adapters.MarketStatusStreamAdapter, stocks *repository.StockRepository, prices *repository.PriceBarRepository, log zerolog.Logger) {
	listed, err := stocks.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list stocks for market status stream, not starting")
		return
	}
	symbols := make([]string, 0, len(listed))
	for _, stock := range listed {
		if stock.Listed {
			symbols = append(symbols, stock.Symbol)
		}
	}
	if len(symbols) == 0 {
		log.Info().Msg("no listed symbols to stream, not starting market status stream")
		return
	}

	onBar := func(bar domain.PriceBar) {
		if err := prices.UpsertBatch(ctx, []domain.PriceBar{bar}); err != nil {
			log.Warn().Err(err).Str("symbol", bar.Symbol).Msg("failed to persist streamed tick")
		}
	}

	if err := stream.RunStream(ctx, symbols, onBar); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("market status stream exited")
	}
}
