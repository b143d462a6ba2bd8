// Package freshness classifies how recent the newest observation is for
// each (symbol, aspect) pair and rolls per-aspect counts up into an
// overall status, without ever making a live call to an external source.
package freshness

import (
	"github.com/idxscope/core/internal/config"
	"github.com/idxscope/core/internal/domain"
)

// Registry answers whether the adapter backing an aspect has its required
// secrets configured. It is built once from process configuration and
// never refreshed against a live source — a restart is required to pick
// up a newly supplied credential.
type Registry struct {
	configured map[domain.Aspect]bool
}

// NewRegistry builds a Registry from cfg's adapter credentials. The scores
// aspect is always configured: it is computed internally, not sourced
// from an external adapter.
func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		configured: map[domain.Aspect]bool{
			domain.AspectPrices:     cfg.PricesAPIKey != "",
			domain.AspectBrokerFlow: cfg.BrokerFlowAPIKey != "",
			domain.AspectFinancials: cfg.FundamentalsAPIKey != "",
			domain.AspectScores:     true,
		},
	}
}

// Configured reports whether aspect's backing source has its required
// secrets present.
func (r *Registry) Configured(aspect domain.Aspect) bool {
	return r.configured[aspect]
}
