package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/infrastructure/config"
)

const defaultCooldownKeyPrefix = "stocksync:cooldown:"

// RedisCooldownStore shares cooldown state between instances. Each key holds
// the applied time in unix nanoseconds and expires with the cooldown TTL.
type RedisCooldownStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCooldownStore connects to Redis and verifies the connection
func NewRedisCooldownStore(cfg config.RedisConfig) (*RedisCooldownStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCooldownStoreWithClient(client, ""), nil
}

// NewRedisCooldownStoreWithClient wraps an existing client
func NewRedisCooldownStoreWithClient(client *redis.Client, keyPrefix string) *RedisCooldownStore {
	if keyPrefix == "" {
		keyPrefix = defaultCooldownKeyPrefix
	}
	return &RedisCooldownStore{client: client, keyPrefix: keyPrefix}
}

// LastApplied reads the recorded time for key
func (s *RedisCooldownStore) LastApplied(ctx context.Context, key string) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read cooldown: %w", err)
	}
	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt cooldown value %q: %w", raw, err)
	}
	return time.Unix(0, nanos).UTC(), true, nil
}

// RecordApplied writes at with a TTL (SET ... PX)
func (s *RedisCooldownStore) RecordApplied(ctx context.Context, key string, at time.Time, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, strconv.FormatInt(at.UnixNano(), 10), ttl).Err(); err != nil {
		return fmt.Errorf("failed to record cooldown: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisCooldownStore) Close() error {
	return s.client.Close()
}

var _ integration.CooldownStore = (*RedisCooldownStore)(nil)
