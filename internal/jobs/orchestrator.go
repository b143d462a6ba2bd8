package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/idxscope/core/internal/adapters"
	"github.com/idxscope/core/internal/domain"
	"github.com/rs/zerolog"
)

// Orchestrator is the single entry point for triggering and observing
// source jobs. It owns the job registry, the bounded worker pool, and the
// soft/hard timeout escalation for each running job.
type Orchestrator struct {
	registry       *Registry
	pool           *Pool
	adapterReg     *adapters.Registry
	softTimeout    time.Duration
	hardTimeout    time.Duration
	outputCapBytes int
	rootCtx        context.Context
	cancelRoot     context.CancelFunc
	log            zerolog.Logger
}

// Config bundles the orchestrator's tuning knobs, mirroring
// internal/config.Config's job fields.
type Config struct {
	WorkerPoolSize int
	SoftTimeout    time.Duration
	HardTimeout    time.Duration
	JobRetention   time.Duration
	OutputCapBytes int
}

// NewOrchestrator builds an Orchestrator over registry/adapterReg using cfg.
func NewOrchestrator(registry *Registry, adapterReg *adapters.Registry, cfg Config, log zerolog.Logger) *Orchestrator {
	log = log.With().Str("component", "job_orchestrator").Logger()
	rootCtx, cancel := context.WithCancel(context.Background())

	soft := cfg.SoftTimeout
	if soft <= 0 {
		soft = 10 * time.Minute
	}
	hard := cfg.HardTimeout
	if hard <= 0 {
		hard = 15 * time.Minute
	}
	capBytes := cfg.OutputCapBytes
	if capBytes <= 0 {
		capBytes = 64 * 1024
	}

	return &Orchestrator{
		registry:       registry,
		pool:           NewPool(cfg.WorkerPoolSize, log),
		adapterReg:     adapterReg,
		softTimeout:    soft,
		hardTimeout:    hard,
		outputCapBytes: capBytes,
		rootCtx:        rootCtx,
		cancelRoot:     cancel,
		log:            log,
	}
}

// Start launches the worker pool.
func (o *Orchestrator) Start() {
	o.pool.Start(o.rootCtx)
}

// Stop cancels every running job and drains the pool.
func (o *Orchestrator) Stop() {
	o.cancelRoot()
	o.pool.Stop()
}

// Trigger starts a job for sourceID. It is rejected without side effects
// (no job created) when sourceID is unknown, already has an active job,
// or its adapter is not configured.
func (o *Orchestrator) Trigger(sourceID string) (*domain.SourceJob, error) {
	adapter, ok := o.adapterReg.Get(sourceID)
	if !ok {
		return nil, domain.NewError(domain.ErrKindNotFound, "unknown source "+sourceID, nil)
	}
	status := adapter.ConfigStatus()
	if !status.IsConfigured {
		return nil, domain.NewError(domain.ErrKindNotConfigured,
			fmt.Sprintf("source %s is missing configuration: %v", sourceID, status.MissingFields), nil)
	}

	job, err := o.registry.Start(context.Background(), sourceID, adapter.Name())
	if err != nil {
		return nil, err
	}

	o.pool.Submit(job.ID, func(ctx context.Context) { o.run(job.ID, adapter) })
	return job, nil
}

// TriggerCategory triggers every adapter in category, returning the jobs
// started and the source IDs skipped (already active or not configured)
// along with the reason for each skip.
func (o *Orchestrator) TriggerCategory(category domain.SourceCategory) (triggered []*domain.SourceJob, skipped map[string]string) {
	skipped = make(map[string]string)
	for sourceID, adapter := range o.adapterReg.BySourceCategory(category) {
		status := adapter.ConfigStatus()
		if !status.IsConfigured {
			skipped[sourceID] = "not_configured"
			continue
		}
		if o.registry.IsActive(sourceID) {
			skipped[sourceID] = "already active"
			continue
		}
		job, err := o.Trigger(sourceID)
		if err != nil {
			skipped[sourceID] = err.Error()
			continue
		}
		triggered = append(triggered, job)
	}
	return triggered, skipped
}

// GetJob returns the job with id from the in-memory registry.
func (o *Orchestrator) GetJob(id string) (*domain.SourceJob, error) {
	return o.registry.Get(id)
}

// GetJobs returns every job currently resident in memory.
func (o *Orchestrator) GetJobs() []*domain.SourceJob {
	return o.registry.All()
}

// run executes one job through its adapter, enforcing the soft/hard
// timeout escalation: at softTimeout, cooperative cancellation is
// requested; at hardTimeout, the job is force-failed with kind Timeout
// regardless of whether the adapter ever observed the cancellation.
func (o *Orchestrator) run(jobID string, adapter adapters.Adapter) {
	ctx, cancel := context.WithCancel(o.rootCtx)
	defer cancel()

	if err := o.registry.Transition(context.Background(), jobID, domain.JobRunning, "running"); err != nil {
		o.log.Warn().Err(err).Str("job_id", jobID).Msg("failed to transition job to running")
		return
	}

	type outcome struct {
		result adapters.Result
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("adapter panic: %v", r)}
			}
		}()
		rc := adapters.RunContext{
			Context: ctx,
			Progress: func(msg string) {
				o.registry.AppendOutput(jobID, msg+"\n", o.outputCapBytes)
			},
		}
		res, err := adapter.Run(rc)
		done <- outcome{result: res, err: err}
	}()

	softTimer := time.NewTimer(o.softTimeout)
	hardTimer := time.NewTimer(o.hardTimeout)
	defer softTimer.Stop()
	defer hardTimer.Stop()

	for {
		select {
		case out := <-done:
			if out.err != nil {
				o.finish(jobID, domain.JobFailed, out.err.Error())
			} else {
				o.finish(jobID, domain.JobCompleted, out.result.Message)
			}
			return
		case <-softTimer.C:
			o.log.Warn().Str("job_id", jobID).Msg("job exceeded soft timeout, requesting cancellation")
			cancel()
		case <-hardTimer.C:
			o.log.Error().Str("job_id", jobID).Msg("job exceeded hard timeout, forcing failure")
			o.finish(jobID, domain.JobFailed, domain.NewError(domain.ErrKindTimeout, "exceeded hard timeout", nil).Error())
			return
		}
	}
}

func (o *Orchestrator) finish(jobID string, status domain.JobStatus, message string) {
	if err := o.registry.Transition(context.Background(), jobID, status, message); err != nil {
		o.log.Warn().Err(err).Str("job_id", jobID).Msg("failed to finalize job")
	}
}
