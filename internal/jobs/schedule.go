package jobs

import (
	"context"
	"time"

	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/freshness"
	"github.com/idxscope/core/internal/repository"
	"github.com/idxscope/core/internal/scoring"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// aspectToCategory maps a freshness aspect to the adapter category that
// keeps it up to date. The "scores" aspect has no adapter of its own —
// it is produced by the scoring engine, not an external source — so it
// is intentionally absent here.
var aspectToCategory = map[domain.Aspect]domain.SourceCategory{
	domain.AspectPrices:     domain.SourcePrices,
	domain.AspectBrokerFlow: domain.SourceBrokerFlow,
	domain.AspectFinancials: domain.SourceFundamentals,
}

// Scheduler periodically checks freshness and re-triggers any category
// whose rollup isn't Fresh, using robfig/cron rather than hand-rolled
// tickers. It also enqueues any symbol whose AspectScores freshness has
// gone stale onto the scoring queue, rather than calling the scoring
// engine directly: the queue is what coalesces a burst of stale symbols
// into one run apiece.
type Scheduler struct {
	orchestrator *Orchestrator
	aggregator   *freshness.Aggregator
	stocks       *repository.StockRepository
	scoreQueue   *scoring.Queue
	cron         *cron.Cron
	log          zerolog.Logger
}

// NewScheduler builds a Scheduler that checks freshness every interval
// (default 5 minutes when interval <= 0), re-triggers stale source
// categories, and enqueues symbols with a stale composite score onto
// scoreQueue.
func NewScheduler(orchestrator *Orchestrator, aggregator *freshness.Aggregator, stocks *repository.StockRepository, scoreQueue *scoring.Queue, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s := &Scheduler{
		orchestrator: orchestrator,
		aggregator:   aggregator,
		stocks:       stocks,
		scoreQueue:   scoreQueue,
		cron:         cron.New(),
		log:          log.With().Str("component", "job_scheduler").Logger(),
	}
	spec := "@every " + interval.String()
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		s.log.Error().Err(err).Str("spec", spec).Msg("failed to schedule freshness re-trigger")
	}
	return s
}

// Start begins the cron schedule in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the schedule, waiting for any in-flight tick to finish.
func (s *Scheduler) Stop() { <-s.cron.Stop().Done() }

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Drop terminal jobs older than the retention window before checking
	// freshness, so the registry and the persisted job table stay bounded.
	s.orchestrator.registry.Prune(ctx)

	rollups, err := s.aggregator.Rollup(ctx, time.Now().UTC())
	if err != nil {
		s.log.Warn().Err(err).Msg("freshness rollup failed, skipping this tick")
		return
	}

	for _, rollup := range rollups {
		if rollup.Overall == domain.RollupFresh {
			continue
		}
		category, ok := aspectToCategory[rollup.Aspect]
		if !ok {
			continue
		}
		triggered, skipped := s.orchestrator.TriggerCategory(category)
		s.log.Info().
			Str("aspect", string(rollup.Aspect)).
			Str("overall", string(rollup.Overall)).
			Int("triggered", len(triggered)).
			Int("skipped", len(skipped)).
			Msg("re-triggered stale category")
	}

	// The scores aspect never maps to a source category (it isn't an
	// external source at all), so it is checked per-symbol instead of at
	// the rollup level: a freshly listed symbol with zero composite score
	// rows rolls up as RollupFresh at the aggregate level (no observation
	// is not the same as a stale one), but still needs its first score.
	s.enqueueStaleScores(ctx)
}

// enqueueStaleScores walks every listed stock and enqueues any symbol
// whose AspectScores freshness is not Fresh onto the scoring queue. A
// queue rejection (at capacity) is left for the next tick to retry.
func (s *Scheduler) enqueueStaleScores(ctx context.Context) {
	stocks, err := s.stocks.List(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to list stocks for stale-score enqueue")
		return
	}

	now := time.Now().UTC()
	for _, stock := range stocks {
		records, err := s.aggregator.ForSymbol(ctx, stock.Symbol, now)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", stock.Symbol).Msg("failed to check symbol freshness")
			continue
		}
		for _, rec := range records {
			if rec.Aspect != domain.AspectScores || rec.Status == domain.FreshnessFresh {
				continue
			}
			if !s.scoreQueue.Enqueue(stock.Symbol) {
				s.log.Debug().Str("symbol", stock.Symbol).Msg("scoring queue at capacity, will retry next tick")
			}
		}
	}
}
