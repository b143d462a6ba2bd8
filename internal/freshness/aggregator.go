package freshness

import (
	"context"
	"time"

	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/repository"
)

// Aggregator classifies freshness for a symbol or rolls it up across all
// symbols, reading only already-observed timestamps via
// FreshnessRepository — it never applies backpressure or triggers a job
// itself; that is internal/jobs' responsibility.
type Aggregator struct {
	repo        *repository.FreshnessRepository
	registry    *Registry
	freshWithin time.Duration
	staleWithin time.Duration
}

// NewAggregator builds an Aggregator over repo and registry, classifying
// against freshWithin/staleWithin (defaulting to 24h/7d when either is
// zero).
func NewAggregator(repo *repository.FreshnessRepository, registry *Registry, freshWithin, staleWithin time.Duration) *Aggregator {
	if freshWithin == 0 {
		freshWithin = 24 * time.Hour
	}
	if staleWithin == 0 {
		staleWithin = 7 * 24 * time.Hour
	}
	return &Aggregator{repo: repo, registry: registry, freshWithin: freshWithin, staleWithin: staleWithin}
}

// ForSymbol returns one FreshnessRecord per fixed aspect for symbol.
func (a *Aggregator) ForSymbol(ctx context.Context, symbol string, asOf time.Time) ([]domain.FreshnessRecord, error) {
	records := make([]domain.FreshnessRecord, 0, len(domain.Aspects))
	for _, aspect := range domain.Aspects {
		if !a.registry.Configured(aspect) {
			records = append(records, domain.FreshnessRecord{
				Symbol: symbol, Aspect: aspect, AsOf: nil, Status: domain.FreshnessNotConfig,
			})
			continue
		}

		latest, err := a.repo.LatestFor(ctx, symbol, aspect)
		if err != nil {
			return nil, err
		}
		records = append(records, domain.FreshnessRecord{
			Symbol: symbol, Aspect: aspect, AsOf: latest,
			Status: a.classify(latest, asOf),
		})
	}
	return records, nil
}

// Rollup returns one FreshnessRollup per fixed aspect, aggregating every
// symbol's classification for that aspect.
func (a *Aggregator) Rollup(ctx context.Context, asOf time.Time) ([]domain.FreshnessRollup, error) {
	rollups := make([]domain.FreshnessRollup, 0, len(domain.Aspects))
	for _, aspect := range domain.Aspects {
		if !a.registry.Configured(aspect) {
			rollups = append(rollups, domain.FreshnessRollup{
				Aspect: aspect, NotConfigured: 1, Overall: domain.RollupDegraded,
			})
			continue
		}

		latest, err := a.repo.LatestAcrossSymbols(ctx, aspect)
		if err != nil {
			return nil, err
		}

		r := domain.FreshnessRollup{Aspect: aspect}
		for _, ts := range latest {
			t := ts
			switch a.classify(&t, asOf) {
			case domain.FreshnessFresh:
				r.Fresh++
			case domain.FreshnessStale:
				r.Stale++
			case domain.FreshnessOutdated:
				r.Outdated++
			}
			if r.OldestAsOf == nil || t.Before(*r.OldestAsOf) {
				r.OldestAsOf = &t
			}
			if r.NewestAsOf == nil || t.After(*r.NewestAsOf) {
				r.NewestAsOf = &t
			}
		}
		r.Overall = overallStatus(r)
		rollups = append(rollups, r)
	}
	return rollups, nil
}

// classify buckets asOf's age against the aggregator's configured
// thresholds. A nil timestamp (no observation at all) is no_data.
func (a *Aggregator) classify(asOf *time.Time, now time.Time) domain.FreshnessStatus {
	if asOf == nil {
		return domain.FreshnessNoData
	}
	age := now.Sub(*asOf)
	switch {
	case age <= a.freshWithin:
		return domain.FreshnessFresh
	case age <= a.staleWithin:
		return domain.FreshnessStale
	default:
		return domain.FreshnessOutdated
	}
}

// overallStatus derives the worst-of rollup status from per-bucket counts:
// any outdated symbol warns, a majority outdated degrades the aspect, any
// stale symbol is at least "stale", otherwise it's fresh.
func overallStatus(r domain.FreshnessRollup) domain.RollupStatus {
	total := r.Fresh + r.Stale + r.Outdated
	switch {
	case total == 0:
		return domain.RollupFresh
	case r.Outdated*2 > total:
		return domain.RollupDegraded
	case r.Outdated > 0:
		return domain.RollupWarning
	case r.Stale > 0:
		return domain.RollupStale
	default:
		return domain.RollupFresh
	}
}
