package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "idxscope.db")})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	repo := repository.NewSourceJobRepository(db, zerolog.Nop())
	return NewRegistry(repo, time.Hour, zerolog.Nop())
}

func TestStartRejectsSecondActiveJobForSameSource(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	job, err := reg.Start(ctx, "prices_rest", "prices_rest")
	require.NoError(t, err)
	require.Equal(t, domain.JobPending, job.Status)

	_, err = reg.Start(ctx, "prices_rest", "prices_rest")
	require.Error(t, err)
	require.Equal(t, domain.ErrKindConflict, domain.KindOf(err))
}

func TestStartAllowsConcurrentJobsOnDifferentSources(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	_, err := reg.Start(ctx, "prices_rest", "prices_rest")
	require.NoError(t, err)
	_, err = reg.Start(ctx, "fundamentals_rest", "fundamentals_rest")
	require.NoError(t, err)
}

func TestTransitionRejectsRegression(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	job, err := reg.Start(ctx, "prices_rest", "prices_rest")
	require.NoError(t, err)
	require.NoError(t, reg.Transition(ctx, job.ID, domain.JobRunning, "running"))
	require.NoError(t, reg.Transition(ctx, job.ID, domain.JobCompleted, "done"))

	err = reg.Transition(ctx, job.ID, domain.JobRunning, "running again")
	require.Error(t, err)
}

func TestTransitionToTerminalFreesSourceForNewJob(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	job, err := reg.Start(ctx, "prices_rest", "prices_rest")
	require.NoError(t, err)
	require.True(t, reg.IsActive("prices_rest"))

	require.NoError(t, reg.Transition(ctx, job.ID, domain.JobFailed, "boom"))
	require.False(t, reg.IsActive("prices_rest"))

	_, err = reg.Start(ctx, "prices_rest", "prices_rest")
	require.NoError(t, err)
}

func TestAppendOutputTruncatesAtCap(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	job, err := reg.Start(ctx, "prices_rest", "prices_rest")
	require.NoError(t, err)

	reg.AppendOutput(job.ID, "0123456789", 5)
	got, err := reg.Get(job.ID)
	require.NoError(t, err)
	require.Len(t, got.Output, 5)
}
