package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stocksync/backend/internal/domain/catalog"
)

// StoreLister lists the stores eligible for a catalog pull
type StoreLister interface {
	FindAllWithCommerceCredentials(ctx context.Context) ([]catalog.Store, error)
}

// CronTrigger submits a catalog sync for every eligible store on a fixed interval
type CronTrigger struct {
	interval  time.Duration
	scheduler *Scheduler
	stores    StoreLister
	logger    *zap.Logger

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewCronTrigger creates a trigger firing every interval
func NewCronTrigger(interval time.Duration, scheduler *Scheduler, stores StoreLister, logger *zap.Logger) *CronTrigger {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CronTrigger{
		interval:  interval,
		scheduler: scheduler,
		stores:    stores,
		logger:    logger,
	}
}

// Start begins the tick loop
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	c.running = true

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.loop(ctx)

	c.logger.Info("Catalog sync trigger started", zap.Duration("interval", c.interval))
	return nil
}

// Stop ends the tick loop
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	c.cancel()
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		c.logger.Info("Catalog sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) loop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Trigger(ctx)
		}
	}
}

// Trigger submits one job per eligible store and returns how many were queued.
// Stores that already have a job in flight are skipped.
func (c *CronTrigger) Trigger(ctx context.Context) int {
	stores, err := c.stores.FindAllWithCommerceCredentials(ctx)
	if err != nil {
		c.logger.Error("Failed to list stores for catalog sync", zap.Error(err))
		return 0
	}

	queued := 0
	for _, store := range stores {
		_, err := c.scheduler.Submit(store.ID, TriggerPeriodic)
		switch {
		case err == nil:
			queued++
		case errors.Is(err, ErrSyncAlreadyQueued):
			c.logger.Debug("Catalog sync already in flight", zap.String("store_id", store.ID.String()))
		default:
			c.logger.Warn("Failed to queue catalog sync",
				zap.String("store_id", store.ID.String()),
				zap.Error(err),
			)
		}
	}

	c.logger.Info("Periodic catalog sync triggered",
		zap.Int("stores", len(stores)),
		zap.Int("queued", queued),
	)
	return queued
}
