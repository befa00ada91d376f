package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/infrastructure/config"
)

// CooldownStoreFactory picks the cooldown backend from configuration
type CooldownStoreFactory struct {
	backend               string
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// CooldownStoreFactoryOption configures the factory
type CooldownStoreFactoryOption func(*CooldownStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) CooldownStoreFactoryOption {
	return func(f *CooldownStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store. Default is true.
func WithInMemoryFallback(allow bool) CooldownStoreFactoryOption {
	return func(f *CooldownStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewCooldownStoreFactory creates a factory for the "memory" or "redis" backend
func NewCooldownStoreFactory(backend string, redisCfg config.RedisConfig, opts ...CooldownStoreFactoryOption) *CooldownStoreFactory {
	f := &CooldownStoreFactory{
		backend:               backend,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore builds the configured store
func (f *CooldownStoreFactory) CreateStore() (integration.CooldownStore, error) {
	if f.backend != "redis" {
		f.logger.Info("using in-memory cooldown store")
		return NewInMemoryCooldownStore(0), nil
	}

	store, err := NewRedisCooldownStore(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis cooldown store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis cooldown store unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory cooldown store. "+
		"Echo suppression will not be shared between instances.",
		zap.Error(err),
	)
	return NewInMemoryCooldownStore(0), nil
}
