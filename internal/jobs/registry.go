// Package jobs implements the per-source job orchestrator: the
// single-active-per-source state machine, a bounded worker pool running
// adapter jobs, and a cron-driven scheduler re-triggering stale sources.
package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/repository"
	"github.com/rs/zerolog"
)

// Registry is the single concurrent map of live SourceJob state, guarding
// the single-active-per-source rule and the monotonic status invariant.
// It write-throughs every transition to SourceJobRepository, which the
// get_job HTTP handler falls back to for a job not resident in this map;
// every other read of a job is served from the map. Prune removes old
// terminal jobs from both with the same cutoff.
type Registry struct {
	mu        sync.Mutex
	jobs      map[string]*domain.SourceJob
	activeBy  map[string]string // source_id -> job id, only while Active()
	persisted *repository.SourceJobRepository
	retention time.Duration
	log       zerolog.Logger
}

// NewRegistry builds a Registry, write-through persisting to repo.
func NewRegistry(repo *repository.SourceJobRepository, retention time.Duration, log zerolog.Logger) *Registry {
	if retention <= 0 {
		retention = time.Hour
	}
	return &Registry{
		jobs:      make(map[string]*domain.SourceJob),
		activeBy:  make(map[string]string),
		persisted: repo,
		retention: retention,
		log:       log.With().Str("component", "job_registry").Logger(),
	}
}

// Start creates a new pending job for sourceID, or returns a Conflict
// error if a job is already active for that source.
func (r *Registry) Start(ctx context.Context, sourceID, command string) (*domain.SourceJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existingID, ok := r.activeBy[sourceID]; ok {
		return nil, domain.NewError(domain.ErrKindConflict,
			"a job is already active for source "+sourceID+" ("+existingID+")", nil)
	}

	job := &domain.SourceJob{
		ID:        uuid.NewString(),
		SourceID:  sourceID,
		Status:    domain.JobPending,
		StartedAt: time.Now().UTC(),
		Command:   command,
	}
	r.jobs[job.ID] = job
	r.activeBy[sourceID] = job.ID

	if r.persisted != nil {
		if err := r.persisted.Upsert(ctx, *job); err != nil {
			r.log.Warn().Err(err).Str("job_id", job.ID).Msg("failed to persist new job")
		}
	}
	return cloneJob(job), nil
}

// Transition moves job id to next, enforcing the monotonic status
// invariant (domain.Regressed). The message replaces the job's current
// message.
func (r *Registry) Transition(ctx context.Context, id string, next domain.JobStatus, message string) error {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return domain.NewError(domain.ErrKindNotFound, "job "+id+" not found", nil)
	}
	if domain.Regressed(job.Status, next) {
		r.mu.Unlock()
		return domain.NewError(domain.ErrKindConflict,
			"job "+id+" cannot regress from "+string(job.Status)+" to "+string(next), nil)
	}

	job.Status = next
	job.Message = message
	if next.Terminal() {
		now := time.Now().UTC()
		job.FinishedAt = &now
		job.Duration = now.Sub(job.StartedAt)
		delete(r.activeBy, job.SourceID)
	}
	snapshot := cloneJob(job)
	r.mu.Unlock()

	if r.persisted != nil {
		if err := r.persisted.Upsert(ctx, *snapshot); err != nil {
			r.log.Warn().Err(err).Str("job_id", id).Msg("failed to persist job transition")
		}
	}
	return nil
}

// AppendOutput appends to job id's captured output, truncating at capBytes
// total so a runaway adapter cannot grow a job record without bound.
func (r *Registry) AppendOutput(id string, chunk string, capBytes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return
	}
	job.Output += chunk
	if capBytes > 0 && len(job.Output) > capBytes {
		job.Output = job.Output[:capBytes]
	}
}

// Get returns the in-memory job by id, or NotFound if it isn't resident
// (the caller should fall back to the SourceJobRepository).
func (r *Registry) Get(id string) (*domain.SourceJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.NewError(domain.ErrKindNotFound, "job "+id+" not found in registry", nil)
	}
	return cloneJob(job), nil
}

// All returns every resident job, newest first.
func (r *Registry) All() []*domain.SourceJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.SourceJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, cloneJob(job))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// IsActive reports whether sourceID currently has a pending/running job.
func (r *Registry) IsActive(sourceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.activeBy[sourceID]
	return ok
}

// Prune removes terminal jobs older than the retention window from memory
// and from persisted storage, keeping the in-memory map bounded.
func (r *Registry) Prune(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-r.retention)

	r.mu.Lock()
	for id, job := range r.jobs {
		if job.Status.Terminal() && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
		}
	}
	r.mu.Unlock()

	if r.persisted != nil {
		if err := r.persisted.DeleteOlderThan(ctx, cutoff); err != nil {
			r.log.Warn().Err(err).Msg("failed to delete old persisted jobs")
		}
	}
}

func cloneJob(job *domain.SourceJob) *domain.SourceJob {
	c := *job
	return &c
}
