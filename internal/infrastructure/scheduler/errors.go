package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when submitting to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the bounded queue has no room
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrSyncAlreadyQueued is returned when the store already has a pending or running job
	ErrSyncAlreadyQueued = errors.New("catalog sync already queued for this store")

	// ErrJobNotFound is returned for unknown job ids
	ErrJobNotFound = errors.New("job not found")
)
