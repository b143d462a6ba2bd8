package repository

import (
	"context"
	"time"

	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/rs/zerolog"
)

// SourceJobRepository persists job orchestrator runs for audit/retention.
// The orchestrator's in-memory registry is authoritative for live state;
// this is a write-through record of every job that ran, queried by the
// get_job HTTP handler for a job that is not resident in the in-memory
// registry.
type SourceJobRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewSourceJobRepository builds a SourceJobRepository over db.
func NewSourceJobRepository(db *database.DB, log zerolog.Logger) *SourceJobRepository {
	return &SourceJobRepository{db: db, log: withLogger(log, "source_jobs")}
}

// Upsert writes job as its current snapshot, keyed on ID.
func (r *SourceJobRepository) Upsert(ctx context.Context, job domain.SourceJob) error {
	var finishedAt interface{}
	if job.FinishedAt != nil {
		finishedAt = job.FinishedAt.Unix()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO source_jobs
			(id, source_id, status, started_at, finished_at, command, message, output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		job.ID, job.SourceID, string(job.Status), job.StartedAt.Unix(), finishedAt,
		job.Command, job.Message, job.Output,
	)
	return wrapBackend(err, "upsert source job")
}

// Get returns the persisted job with id, or NotFound.
func (r *SourceJobRepository) Get(ctx context.Context, id string) (domain.SourceJob, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, source_id, status, started_at, finished_at, command, message, output
		FROM source_jobs WHERE id = ?
	`, id)
	return scanSourceJob(row)
}

// RecentBySource returns the most recent n jobs for sourceID, newest first.
func (r *SourceJobRepository) RecentBySource(ctx context.Context, sourceID string, n int) ([]domain.SourceJob, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_id, status, started_at, finished_at, command, message, output
		FROM source_jobs
		WHERE source_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, sourceID, n)
	if err != nil {
		return nil, wrapBackend(err, "recent source jobs")
	}
	defer rows.Close()

	var out []domain.SourceJob
	for rows.Next() {
		job, err := scanSourceJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, wrapBackend(rows.Err(), "iterate source jobs")
}

// DeleteOlderThan removes terminal job rows started before cutoff,
// enforcing the job retention window.
func (r *SourceJobRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM source_jobs
		WHERE started_at < ? AND status IN (?, ?, ?)
	`, cutoff.Unix(), string(domain.JobCompleted), string(domain.JobFailed), string(domain.JobCancelled))
	return wrapBackend(err, "delete old source jobs")
}

func scanSourceJob(row rowScanner) (domain.SourceJob, error) {
	var job domain.SourceJob
	var startedAt int64
	var finishedAt *int64
	var status string

	err := row.Scan(&job.ID, &job.SourceID, &status, &startedAt, &finishedAt, &job.Command, &job.Message, &job.Output)
	if err != nil {
		return domain.SourceJob{}, wrapNotFound(err, "source job")
	}
	job.Status = domain.JobStatus(status)
	job.StartedAt = time.Unix(startedAt, 0).UTC()
	if finishedAt != nil {
		t := time.Unix(*finishedAt, 0).UTC()
		job.FinishedAt = &t
		job.Duration = t.Sub(job.StartedAt)
	}
	return job, nil
}
