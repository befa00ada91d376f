package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appintegration "github.com/stocksync/backend/internal/application/integration"
	"github.com/stocksync/backend/internal/domain/catalog"
)

type syncFunc func(ctx context.Context, storeID uuid.UUID, call int) (*appintegration.CatalogSyncResult, error)

type fakeSyncer struct {
	mu    sync.Mutex
	calls map[uuid.UUID]int
	fn    syncFunc
}

func newFakeSyncer(fn syncFunc) *fakeSyncer {
	return &fakeSyncer{calls: make(map[uuid.UUID]int), fn: fn}
}

func (f *fakeSyncer) SyncStore(ctx context.Context, storeID uuid.UUID) (*appintegration.CatalogSyncResult, error) {
	f.mu.Lock()
	f.calls[storeID]++
	call := f.calls[storeID]
	f.mu.Unlock()
	return f.fn(ctx, storeID, call)
}

func (f *fakeSyncer) callsFor(storeID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[storeID]
}

func okResult(storeID uuid.UUID) *appintegration.CatalogSyncResult {
	return &appintegration.CatalogSyncResult{StoreID: storeID, Products: 3, Variations: 5}
}

func startScheduler(t *testing.T, cfg Config, syncer CatalogSyncer) *Scheduler {
	t.Helper()
	s := New(cfg, syncer, zap.NewNop())
	s.retryDelay = func(int) time.Duration { return time.Millisecond }
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s
}

func waitForStatus(t *testing.T, s *Scheduler, id uuid.UUID, want JobStatus) *Job {
	t.Helper()
	var job *Job
	require.Eventually(t, func() bool {
		var err error
		job, err = s.Job(id)
		return err == nil && job.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestScheduler_SubmitBeforeStart(t *testing.T) {
	s := New(Config{}, newFakeSyncer(nil), zap.NewNop())
	_, err := s.Submit(uuid.New(), TriggerManual)
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_RunsJob(t *testing.T) {
	syncer := newFakeSyncer(func(_ context.Context, storeID uuid.UUID, _ int) (*appintegration.CatalogSyncResult, error) {
		return okResult(storeID), nil
	})
	s := startScheduler(t, Config{Workers: 1}, syncer)
	storeID := uuid.New()

	submitted, err := s.Submit(storeID, TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, submitted.Status)

	job := waitForStatus(t, s, submitted.ID, JobStatusSuccess)
	assert.Equal(t, 1, job.Attempts)
	require.NotNil(t, job.Result)
	assert.Equal(t, 3, job.Result.Products)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)

	// finished jobs free the store for the next run
	_, err = s.Submit(storeID, TriggerPeriodic)
	assert.NoError(t, err)
}

func TestScheduler_RetriesWithBackoff(t *testing.T) {
	syncer := newFakeSyncer(func(_ context.Context, storeID uuid.UUID, call int) (*appintegration.CatalogSyncResult, error) {
		if call < 3 {
			return nil, errors.New("store unavailable")
		}
		return okResult(storeID), nil
	})
	s := startScheduler(t, Config{Workers: 1, RetryAttempts: 3}, syncer)
	storeID := uuid.New()

	submitted, err := s.Submit(storeID, TriggerManual)
	require.NoError(t, err)

	job := waitForStatus(t, s, submitted.ID, JobStatusSuccess)
	assert.Equal(t, 3, job.Attempts)
	assert.Empty(t, job.Error)
	assert.Equal(t, 3, syncer.callsFor(storeID))
}

func TestScheduler_GivesUpAfterRetries(t *testing.T) {
	syncer := newFakeSyncer(func(context.Context, uuid.UUID, int) (*appintegration.CatalogSyncResult, error) {
		return nil, errors.New("auth failed")
	})
	s := startScheduler(t, Config{Workers: 1, RetryAttempts: 1}, syncer)
	storeID := uuid.New()

	submitted, err := s.Submit(storeID, TriggerManual)
	require.NoError(t, err)

	job := waitForStatus(t, s, submitted.ID, JobStatusFailed)
	assert.Equal(t, 2, job.Attempts)
	assert.Equal(t, "auth failed", job.Error)
	assert.Equal(t, 2, syncer.callsFor(storeID))
}

func TestScheduler_JobTimeout(t *testing.T) {
	syncer := newFakeSyncer(func(ctx context.Context, _ uuid.UUID, _ int) (*appintegration.CatalogSyncResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	s := startScheduler(t, Config{Workers: 1, JobTimeout: 20 * time.Millisecond}, syncer)

	submitted, err := s.Submit(uuid.New(), TriggerManual)
	require.NoError(t, err)

	job := waitForStatus(t, s, submitted.ID, JobStatusFailed)
	assert.Contains(t, job.Error, context.DeadlineExceeded.Error())
}

func TestScheduler_OneJobPerStoreAndBoundedQueue(t *testing.T) {
	started := make(chan uuid.UUID, 4)
	release := make(chan struct{})
	syncer := newFakeSyncer(func(_ context.Context, storeID uuid.UUID, _ int) (*appintegration.CatalogSyncResult, error) {
		started <- storeID
		<-release
		return okResult(storeID), nil
	})
	s := startScheduler(t, Config{Workers: 1, QueueSize: 1}, syncer)
	storeA, storeB, storeC := uuid.New(), uuid.New(), uuid.New()

	_, err := s.Submit(storeA, TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, storeA, <-started)

	_, err = s.Submit(storeA, TriggerPeriodic)
	assert.ErrorIs(t, err, ErrSyncAlreadyQueued)

	_, err = s.Submit(storeB, TriggerPeriodic)
	require.NoError(t, err)
	_, err = s.Submit(storeC, TriggerPeriodic)
	assert.ErrorIs(t, err, ErrJobQueueFull)

	close(release)
	assert.Equal(t, storeB, <-started)
}

func TestScheduler_JobsHistory(t *testing.T) {
	syncer := newFakeSyncer(func(_ context.Context, storeID uuid.UUID, _ int) (*appintegration.CatalogSyncResult, error) {
		return okResult(storeID), nil
	})
	s := startScheduler(t, Config{Workers: 1, HistorySize: 2}, syncer)
	storeA, storeB := uuid.New(), uuid.New()

	first, err := s.Submit(storeA, TriggerManual)
	require.NoError(t, err)
	waitForStatus(t, s, first.ID, JobStatusSuccess)
	second, err := s.Submit(storeB, TriggerManual)
	require.NoError(t, err)
	waitForStatus(t, s, second.ID, JobStatusSuccess)
	third, err := s.Submit(storeA, TriggerManual)
	require.NoError(t, err)
	waitForStatus(t, s, third.ID, JobStatusSuccess)

	all := s.Jobs(nil)
	require.Len(t, all, 2)
	assert.Equal(t, third.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)

	_, err = s.Job(first.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)

	onlyA := s.Jobs(&storeA)
	require.Len(t, onlyA, 1)
	assert.Equal(t, third.ID, onlyA[0].ID)
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	started := make(chan struct{})
	syncer := newFakeSyncer(func(ctx context.Context, _ uuid.UUID, _ int) (*appintegration.CatalogSyncResult, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	s := New(Config{Workers: 1, RetryAttempts: 2}, syncer, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))

	submitted, err := s.Submit(uuid.New(), TriggerManual)
	require.NoError(t, err)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	job, err := s.Job(submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.Attempts)

	_, err = s.Submit(uuid.New(), TriggerManual)
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_Backoff(t *testing.T) {
	s := New(Config{RetryDelay: time.Second}, nil, zap.NewNop())
	assert.Equal(t, time.Second, s.backoff(1))
	assert.Equal(t, 2*time.Second, s.backoff(2))
	assert.Equal(t, 4*time.Second, s.backoff(3))
}

type fakeStoreLister struct {
	stores []catalog.Store
	err    error
}

func storeWithID(id uuid.UUID) catalog.Store {
	var s catalog.Store
	s.ID = id
	return s
}

func (f fakeStoreLister) FindAllWithCommerceCredentials(context.Context) ([]catalog.Store, error) {
	return f.stores, f.err
}

func TestCronTrigger_Trigger(t *testing.T) {
	release := make(chan struct{})
	syncer := newFakeSyncer(func(_ context.Context, storeID uuid.UUID, _ int) (*appintegration.CatalogSyncResult, error) {
		<-release
		return okResult(storeID), nil
	})
	s := startScheduler(t, Config{Workers: 2}, syncer)
	defer close(release)

	lister := fakeStoreLister{stores: []catalog.Store{storeWithID(uuid.New()), storeWithID(uuid.New())}}
	trigger := NewCronTrigger(time.Hour, s, lister, zap.NewNop())

	assert.Equal(t, 2, trigger.Trigger(context.Background()))
	// both stores still in flight
	assert.Equal(t, 0, trigger.Trigger(context.Background()))

	for _, job := range s.Jobs(nil) {
		assert.Equal(t, TriggerPeriodic, job.Trigger)
	}
}

func TestCronTrigger_ListError(t *testing.T) {
	s := startScheduler(t, Config{}, newFakeSyncer(nil))
	trigger := NewCronTrigger(0, s, fakeStoreLister{err: errors.New("db down")}, zap.NewNop())

	assert.Equal(t, 0, trigger.Trigger(context.Background()))
	assert.Equal(t, time.Hour, trigger.interval)
}

func TestCronTrigger_StartStop(t *testing.T) {
	s := startScheduler(t, Config{}, newFakeSyncer(func(_ context.Context, id uuid.UUID, _ int) (*appintegration.CatalogSyncResult, error) {
		return okResult(id), nil
	}))
	storeID := uuid.New()
	trigger := NewCronTrigger(10*time.Millisecond, s, fakeStoreLister{stores: []catalog.Store{storeWithID(storeID)}}, zap.NewNop())

	require.NoError(t, trigger.Start(context.Background()))
	require.Eventually(t, func() bool { return len(s.Jobs(&storeID)) > 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, trigger.Stop(context.Background()))
}
