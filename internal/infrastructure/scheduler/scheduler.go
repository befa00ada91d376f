package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appintegration "github.com/stocksync/backend/internal/application/integration"
	"github.com/stocksync/backend/internal/infrastructure/telemetry"
)

// JobStatus is the lifecycle state of a catalog sync job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Trigger names what enqueued a job
type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerPeriodic Trigger = "periodic"
)

// Job is one catalog pull for one store
type Job struct {
	ID          uuid.UUID                         `json:"id"`
	StoreID     uuid.UUID                         `json:"store_id"`
	Trigger     Trigger                           `json:"trigger"`
	Status      JobStatus                         `json:"status"`
	Attempts    int                               `json:"attempts"`
	Error       string                            `json:"error,omitempty"`
	Result      *appintegration.CatalogSyncResult `json:"result,omitempty"`
	EnqueuedAt  time.Time                         `json:"enqueued_at"`
	StartedAt   *time.Time                        `json:"started_at,omitempty"`
	CompletedAt *time.Time                        `json:"completed_at,omitempty"`
}

func (j *Job) finished() bool {
	return j.Status == JobStatusSuccess || j.Status == JobStatusFailed
}

// CatalogSyncer runs one catalog pull
type CatalogSyncer interface {
	SyncStore(ctx context.Context, storeID uuid.UUID) (*appintegration.CatalogSyncResult, error)
}

// Config holds worker pool settings
type Config struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	// RetryAttempts is the number of retries after the first failure
	RetryAttempts int
	// RetryDelay is the first backoff; each further retry doubles it
	RetryDelay time.Duration
	// HistorySize bounds how many jobs are kept for inspection
	HistorySize int
}

// DefaultConfig returns the default pool settings
func DefaultConfig() Config {
	return Config{
		Workers:       2,
		QueueSize:     100,
		JobTimeout:    10 * time.Minute,
		RetryAttempts: 3,
		RetryDelay:    30 * time.Second,
		HistorySize:   200,
	}
}

// Scheduler is a bounded worker pool running catalog sync jobs.
// A store has at most one pending or running job at a time.
type Scheduler struct {
	cfg    Config
	syncer CatalogSyncer
	logger *zap.Logger

	jobs   chan *Job
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	running    bool
	active     map[uuid.UUID]uuid.UUID // store id -> job id
	history    []*Job
	byID       map[uuid.UUID]*Job
	retryDelay func(attempt int) time.Duration
}

// New creates a scheduler; zero config fields take defaults
func New(cfg Config, syncer CatalogSyncer, logger *zap.Logger) *Scheduler {
	d := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = d.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = d.QueueSize
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = d.JobTimeout
	}
	if cfg.RetryAttempts < 0 {
		cfg.RetryAttempts = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = d.RetryDelay
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = d.HistorySize
	}
	s := &Scheduler{
		cfg:    cfg,
		syncer: syncer,
		logger: logger,
		active: make(map[uuid.UUID]uuid.UUID),
		byID:   make(map[uuid.UUID]*Job),
	}
	s.retryDelay = s.backoff
	return s
}

// backoff returns RetryDelay * 2^(attempt-1)
func (s *Scheduler) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return s.cfg.RetryDelay << (attempt - 1)
}

// Start launches the workers
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.jobs = make(chan *Job, s.cfg.QueueSize)

	ctx, s.cancel = context.WithCancel(ctx)
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i, s.jobs)
	}

	s.logger.Info("Catalog sync scheduler started",
		zap.Int("workers", s.cfg.Workers),
		zap.Int("queue_size", s.cfg.QueueSize),
		zap.Duration("job_timeout", s.cfg.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for workers until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	close(s.jobs)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Catalog sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Catalog sync scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit enqueues a catalog sync for store
func (s *Scheduler) Submit(storeID uuid.UUID, trigger Trigger) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSchedulerNotRunning
	}
	if _, busy := s.active[storeID]; busy {
		return nil, ErrSyncAlreadyQueued
	}

	job := &Job{
		ID:         uuid.New(),
		StoreID:    storeID,
		Trigger:    trigger,
		Status:     JobStatusPending,
		EnqueuedAt: time.Now(),
	}
	select {
	case s.jobs <- job:
	default:
		return nil, ErrJobQueueFull
	}

	s.active[storeID] = job.ID
	s.remember(job)
	s.logger.Debug("Catalog sync job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("store_id", storeID.String()),
		zap.String("trigger", string(trigger)),
	)
	return job.snapshot(), nil
}

// remember records job in the bounded history. Caller holds mu.
func (s *Scheduler) remember(job *Job) {
	s.history = append(s.history, job)
	s.byID[job.ID] = job
	for len(s.history) > s.cfg.HistorySize {
		oldest := s.history[0]
		if !oldest.finished() {
			break
		}
		delete(s.byID, oldest.ID)
		s.history = s.history[1:]
	}
}

func (j *Job) snapshot() *Job {
	cp := *j
	if j.Result != nil {
		r := *j.Result
		cp.Result = &r
	}
	return &cp
}

// Job returns a copy of the job with id
func (s *Scheduler) Job(id uuid.UUID) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.byID[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.snapshot(), nil
}

// Jobs returns copies of the retained jobs, newest first. A nil storeID
// returns every store's jobs.
func (s *Scheduler) Jobs(storeID *uuid.UUID) []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Job, 0, len(s.history))
	for i := len(s.history) - 1; i >= 0; i-- {
		job := s.history[i]
		if storeID != nil && job.StoreID != *storeID {
			continue
		}
		out = append(out, job.snapshot())
	}
	return out
}

func (s *Scheduler) worker(ctx context.Context, id int, jobs <-chan *Job) {
	defer s.wg.Done()
	for job := range jobs {
		if ctx.Err() != nil {
			s.finish(job, ctx.Err())
			continue
		}
		s.run(ctx, id, job)
	}
}

// run executes job with retries and exponential backoff
func (s *Scheduler) run(ctx context.Context, workerID int, job *Job) {
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("store_id", job.StoreID.String()),
	)

	var err error
	for attempt := 1; attempt <= s.cfg.RetryAttempts+1; attempt++ {
		if attempt > 1 {
			delay := s.retryDelay(attempt - 1)
			log.Info("Retrying catalog sync", zap.Int("attempt", attempt), zap.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				s.finish(job, ctx.Err())
				return
			}
		}

		var result *appintegration.CatalogSyncResult
		result, err = s.attempt(ctx, job, attempt)
		if err == nil {
			s.mu.Lock()
			job.Result = result
			s.mu.Unlock()
			s.finish(job, nil)
			log.Info("Catalog sync job completed", zap.Int("attempts", attempt))
			return
		}
		log.Warn("Catalog sync attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}

	s.finish(job, err)
	log.Error("Catalog sync job failed", zap.Error(err))
}

func (s *Scheduler) attempt(ctx context.Context, job *Job, attempt int) (result *appintegration.CatalogSyncResult, err error) {
	now := time.Now()
	s.mu.Lock()
	job.Status = JobStatusRunning
	job.Attempts = attempt
	job.Error = ""
	if job.StartedAt == nil {
		job.StartedAt = &now
	}
	s.mu.Unlock()

	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	jobCtx, span := telemetry.StartSpan(jobCtx, "catalog_sync.job",
		telemetry.AttrStoreID.String(job.StoreID.String()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	return s.syncer.SyncStore(jobCtx, job.StoreID)
}

func (s *Scheduler) finish(job *Job, err error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	job.CompletedAt = &now
	if err != nil {
		job.Status = JobStatusFailed
		job.Error = err.Error()
	} else {
		job.Status = JobStatusSuccess
	}
	if s.active[job.StoreID] == job.ID {
		delete(s.active, job.StoreID)
	}
}
