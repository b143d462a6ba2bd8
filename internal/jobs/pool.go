package jobs

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// task is one unit of work submitted to the pool: run executes the job
// and is always called with the orchestrator's own cancellation context,
// never the caller's request context, so a job outlives the HTTP request
// that triggered it.
type task struct {
	jobID string
	run   func(ctx context.Context)
}

// Pool is a bounded worker pool. Workers are started once and range over
// a shared channel for the process lifetime, rather than being spun up
// per batch, since jobs arrive continuously from both ad hoc triggers and
// the cron scheduler.
type Pool struct {
	size    int
	tasks   chan task
	wg      sync.WaitGroup
	log     zerolog.Logger
	started bool
	mu      sync.Mutex
}

// NewPool builds a Pool with size workers (a size <= 0 defaults to 4) and
// room for up to 256 queued tasks before Submit blocks.
func NewPool(size int, log zerolog.Logger) *Pool {
	if size <= 0 {
		size = 4
	}
	return &Pool{
		size:  size,
		tasks: make(chan task, 256),
		log:   log.With().Str("component", "job_pool").Logger(),
	}
}

// Start launches the worker goroutines. ctx cancellation stops every
// worker once its current task returns.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-p.tasks:
			if !ok {
				return
			}
			p.log.Debug().Int("worker", id).Str("job_id", t.jobID).Msg("running job")
			t.run(ctx)
		}
	}
}

// Submit enqueues a task, blocking if the queue is full.
func (p *Pool) Submit(jobID string, run func(ctx context.Context)) {
	p.tasks <- task{jobID: jobID, run: run}
}

// Stop closes the task channel and waits for in-flight workers to drain.
func (p *Pool) Stop() {
	close(p.tasks)
	p.wg.Wait()
}
