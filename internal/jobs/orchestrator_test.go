package jobs

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/idxscope/core/internal/adapters"
	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	name       string
	category   domain.SourceCategory
	configured bool
	run        func(rc adapters.RunContext) (adapters.Result, error)
}

func (f *fakeAdapter) Name() string                   { return f.name }
func (f *fakeAdapter) Category() domain.SourceCategory { return f.category }
func (f *fakeAdapter) ConfigStatus() adapters.ConfigStatus {
	if f.configured {
		return adapters.ConfigStatus{IsConfigured: true}
	}
	return adapters.ConfigStatus{IsConfigured: false, MissingFields: []string{"key"}}
}
func (f *fakeAdapter) Run(rc adapters.RunContext) (adapters.Result, error) { return f.run(rc) }

func newTestOrchestrator(t *testing.T, reg *adapters.Registry, cfg Config) *Orchestrator {
	t.Helper()
	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "idxscope.db")})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	jobRepo := repository.NewSourceJobRepository(db, zerolog.Nop())
	registry := NewRegistry(jobRepo, time.Hour, zerolog.Nop())
	o := NewOrchestrator(registry, reg, cfg, zerolog.Nop())
	o.Start()
	t.Cleanup(o.Stop)
	return o
}

func TestTriggerRejectsUnknownSource(t *testing.T) {
	reg := adapters.NewRegistry(map[string]adapters.Adapter{})
	o := newTestOrchestrator(t, reg, Config{})

	_, err := o.Trigger("does_not_exist")
	require.Error(t, err)
	require.Equal(t, domain.ErrKindNotFound, domain.KindOf(err))
}

func TestTriggerRejectsNotConfiguredWithoutSideEffects(t *testing.T) {
	a := &fakeAdapter{name: "prices_rest", category: domain.SourcePrices, configured: false}
	reg := adapters.NewRegistry(map[string]adapters.Adapter{"prices_rest": a})
	o := newTestOrchestrator(t, reg, Config{})

	_, err := o.Trigger("prices_rest")
	require.Error(t, err)
	require.Equal(t, domain.ErrKindNotConfigured, domain.KindOf(err))
	require.Empty(t, o.GetJobs())
}

func TestTriggerRunsJobToCompletion(t *testing.T) {
	done := make(chan struct{})
	a := &fakeAdapter{
		name: "prices_rest", category: domain.SourcePrices, configured: true,
		run: func(rc adapters.RunContext) (adapters.Result, error) {
			close(done)
			return adapters.Result{RowsWritten: 3, Message: "ok"}, nil
		},
	}
	reg := adapters.NewRegistry(map[string]adapters.Adapter{"prices_rest": a})
	o := newTestOrchestrator(t, reg, Config{WorkerPoolSize: 1})

	job, err := o.Trigger("prices_rest")
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}

	require.Eventually(t, func() bool {
		got, err := o.GetJob(job.ID)
		return err == nil && got.Status == domain.JobCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTriggerSerializesSameSource(t *testing.T) {
	release := make(chan struct{})
	a := &fakeAdapter{
		name: "prices_rest", category: domain.SourcePrices, configured: true,
		run: func(rc adapters.RunContext) (adapters.Result, error) {
			<-release
			return adapters.Result{Message: "ok"}, nil
		},
	}
	reg := adapters.NewRegistry(map[string]adapters.Adapter{"prices_rest": a})
	o := newTestOrchestrator(t, reg, Config{WorkerPoolSize: 2})

	_, err := o.Trigger("prices_rest")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return o.registryIsActiveForTest("prices_rest") }, time.Second, 5*time.Millisecond)

	_, err = o.Trigger("prices_rest")
	require.Error(t, err)
	require.Equal(t, domain.ErrKindConflict, domain.KindOf(err))

	close(release)
}

// registryIsActiveForTest exposes IsActive for the serialization test above.
func (o *Orchestrator) registryIsActiveForTest(sourceID string) bool {
	return o.registry.IsActive(sourceID)
}

func TestTriggerCategorySkipsNotConfiguredAndAlreadyActive(t *testing.T) {
	release := make(chan struct{})
	configured := &fakeAdapter{
		name: "prices_rest", category: domain.SourcePrices, configured: true,
		run: func(rc adapters.RunContext) (adapters.Result, error) {
			<-release
			return adapters.Result{Message: "ok"}, nil
		},
	}
	unconfigured := &fakeAdapter{name: "fundamentals_rest", category: domain.SourcePrices, configured: false}
	reg := adapters.NewRegistry(map[string]adapters.Adapter{
		"prices_rest":       configured,
		"fundamentals_rest": unconfigured,
	})
	o := newTestOrchestrator(t, reg, Config{WorkerPoolSize: 2})

	_, err := o.Trigger("prices_rest")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return o.registryIsActiveForTest("prices_rest") }, time.Second, 5*time.Millisecond)

	_, skipped := o.TriggerCategory(domain.SourcePrices)
	require.Contains(t, skipped, "fundamentals_rest")
	require.Contains(t, skipped, "prices_rest")

	close(release)
}
