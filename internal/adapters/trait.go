// Package adapters defines the capability trait every external source
// implements and the shared retry/rate-limit/circuit-breaker machinery
// they all use, plus the concrete REST, scraping and streaming adapters
// built on top of it.
package adapters

import (
	"context"
	"time"

	"github.com/idxscope/core/internal/domain"
)

// RunContext is what the orchestrator hands an adapter for one job
// execution: cancellation (the embedded Context) and progress reporting.
// It carries no repository handle; each adapter receives the repositories
// it writes through in its constructor.
type RunContext struct {
	context.Context
	Progress func(message string)
}

// Report emits a progress message if a reporter was configured.
func (rc RunContext) Report(message string) {
	if rc.Progress != nil {
		rc.Progress(message)
	}
}

// Result summarizes one completed adapter run.
type Result struct {
	RowsWritten int
	Message     string
}

// ConfigStatus reports whether an adapter has every credential it needs.
type ConfigStatus struct {
	IsConfigured  bool
	MissingFields []string
}

// Adapter is the capability trait every external source implements.
// Concrete adapters retry transient failures themselves inside Run, through
// their RetryPolicy; the orchestrator calls Run once per job.
type Adapter interface {
	Name() string
	Category() domain.SourceCategory
	ConfigStatus() ConfigStatus
	Run(rc RunContext) (Result, error)
}

// StreamingAdapter is implemented by adapters that additionally expose a
// subscribe/stream lifecycle rather than a single bounded Run.
type StreamingAdapter interface {
	Adapter
	Connect(ctx context.Context) error
	Subscribe(symbols []string) error
	Stream(ctx context.Context, onBar func(domain.PriceBar)) error
	Close() error
}

// Registry maps a stable source_id to its adapter, built once at startup.
// No runtime reflection or dynamic dispatch beyond this map lookup.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a Registry over the given (source_id, adapter) pairs.
func NewRegistry(adapters map[string]Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// Get returns the adapter registered for sourceID, or (nil, false).
func (r *Registry) Get(sourceID string) (Adapter, bool) {
	a, ok := r.adapters[sourceID]
	return a, ok
}

// BySourceCategory returns every (source_id, adapter) pair in category.
func (r *Registry) BySourceCategory(category domain.SourceCategory) map[string]Adapter {
	out := make(map[string]Adapter)
	for id, a := range r.adapters {
		if a.Category() == category {
			out[id] = a
		}
	}
	return out
}

// All returns every registered (source_id, adapter) pair.
func (r *Registry) All() map[string]Adapter {
	return r.adapters
}

// defaultRunTimeout bounds a single HTTP round trip inside an adapter's
// Run, independent of the orchestrator's own soft/hard job timeouts.
const defaultRunTimeout = 30 * time.Second

// L2Provider is a reserved trait for a future order-book depth source.
// Whether and how order-book data should feed scoring is unresolved, so
// this interface has no implementation yet — a placeholder, not a guess.
type L2Provider interface {
	Adapter
	OrderBook(ctx context.Context, symbol string) (domain.OrderBookSnapshot, error)
}
