package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	glerrors "github.com/vnykmshr/goload/pkg/common/errors"
	"github.com/vnykmshr/goload/pkg/common/validation"
)

// RedisConfig holds configuration options for creating a RedisStore.
type RedisConfig struct {
	// Client is the Redis client to use. Required.
	Client redis.UniversalClient

	// KeyPrefix is prepended to every key, namespacing this store's
	// entries. Defaults to "goload:cache:".
	KeyPrefix string

	// TTL is the expiry applied to written entries. Zero means no
	// expiry.
	TTL time.Duration

	// Timeout bounds each Redis round trip. Defaults to one second.
	Timeout time.Duration
}

// RedisStore keeps JSON-encoded values in Redis, sharing the cache
// across processes.
type RedisStore[V any] struct {
	cfg RedisConfig
}

// NewRedisStore creates a RedisStore from a RedisConfig.
func NewRedisStore[V any](cfg RedisConfig) (*RedisStore[V], error) {
	if cfg.Client == nil {
		return nil, validation.ValidateNotNil("cache", "client", nil)
	}
	if err := validation.ValidateNonNegativeDuration("cache", "ttl", cfg.TTL); err != nil {
		return nil, err
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "goload:cache:"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}

	return &RedisStore[V]{cfg: cfg}, nil
}

// Get fetches and decodes the value for key. A missing key is a miss,
// not an error.
func (s *RedisStore[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	data, err := s.cfg.Client.Get(ctx, s.cfg.KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, glerrors.NewOperationError("cache", "get", err)
	}

	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		// A corrupt entry is unusable; report a miss so the caller
		// falls through to a fresh fetch that overwrites it.
		return zero, false, nil
	}
	return value, true, nil
}

// Set encodes and writes the value for key with the configured TTL.
func (s *RedisStore[V]) Set(ctx context.Context, key string, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return glerrors.NewOperationError("cache", "set", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := s.cfg.Client.Set(ctx, s.cfg.KeyPrefix+key, data, s.cfg.TTL).Err(); err != nil {
		return glerrors.NewOperationError("cache", "set", err)
	}
	return nil
}
