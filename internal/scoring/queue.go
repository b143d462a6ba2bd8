package scoring

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Queue is a bounded, coalescing queue of symbols awaiting a scoring run.
// A symbol already queued is not queued twice: Enqueue on a pending symbol
// is a no-op, so a burst of freshness triggers for the same symbol costs
// one scoring run, not N.
type Queue struct {
	engine   *Engine
	log      zerolog.Logger
	capacity int

	mu      sync.Mutex
	pending map[string]bool
	order   []string
	notify  chan struct{}

	closed chan struct{}
	once   sync.Once
}

// NewQueue builds a Queue bounded to capacity distinct pending symbols.
func NewQueue(engine *Engine, capacity int, log zerolog.Logger) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{
		engine:   engine,
		log:      log.With().Str("component", "scoring_queue").Logger(),
		capacity: capacity,
		pending:  make(map[string]bool),
		notify:   make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
}

// Enqueue requests a scoring run for symbol. It returns false without
// blocking if the queue is already at capacity and symbol is not already
// pending — callers should treat that as backpressure and retry later.
func (q *Queue) Enqueue(symbol string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending[symbol] {
		return true
	}
	if len(q.order) >= q.capacity {
		return false
	}

	q.pending[symbol] = true
	q.order = append(q.order, symbol)
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// Run drains the queue until ctx is cancelled, running one scoring pass at
// a time. It is meant to be started once, in its own goroutine.
func (q *Queue) Run(ctx context.Context) {
	for {
		symbol, ok := q.dequeue()
		if ok {
			if _, err := q.engine.Run(ctx, symbol, timeNow()); err != nil {
				q.log.Warn().Err(err).Str("symbol", symbol).Msg("scoring run failed")
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-q.closed:
			return
		case <-q.notify:
		}
	}
}

// Close stops Run once its current iteration completes.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.closed) })
}

func (q *Queue) dequeue() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.order) == 0 {
		return "", false
	}
	symbol := q.order[0]
	q.order = q.order[1:]
	delete(q.pending, symbol)
	return symbol, true
}

// timeNow is the single indirection point for the queue's notion of "now",
// kept separate from time.Now so a future scheduler test can fake it.
func timeNow() time.Time {
	return time.Now().UTC()
}
