package cache

import (
	"context"
	"sync"
	"time"

	"github.com/stocksync/backend/internal/domain/integration"
)

const defaultCleanupInterval = 5 * time.Minute

type cooldownEntry struct {
	appliedAt time.Time
	expiresAt time.Time
}

// InMemoryCooldownStore keeps cooldown entries in a map. State is per process,
// so it only suppresses echoes correctly for single-instance deployments.
type InMemoryCooldownStore struct {
	mu        sync.RWMutex
	entries   map[string]cooldownEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryCooldownStore starts a store with a background goroutine that
// prunes expired entries every cleanupInterval (5m when zero).
func NewInMemoryCooldownStore(cleanupInterval time.Duration) *InMemoryCooldownStore {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	store := &InMemoryCooldownStore{
		entries:  make(map[string]cooldownEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop(cleanupInterval)

	return store
}

// LastApplied returns the recorded time while the entry has not expired
func (s *InMemoryCooldownStore) LastApplied(_ context.Context, key string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return time.Time{}, false, nil
	}
	return e.appliedAt, true, nil
}

// RecordApplied stores at for key; the entry expires ttl from now
func (s *InMemoryCooldownStore) RecordApplied(_ context.Context, key string, at time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = cooldownEntry{appliedAt: at, expiresAt: s.now().Add(ttl)}
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryCooldownStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryCooldownStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryCooldownStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of entries, expired or not
func (s *InMemoryCooldownStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ integration.CooldownStore = (*InMemoryCooldownStore)(nil)
