package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyNamespace = "inventory"

// noExpiry is what TTL reports for a key that exists without an expiry.
const noExpiry = time.Duration(-1)

type cmdable interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisCache keeps expiring counters in Redis. It backs the auth rate limiter.
type RedisCache struct {
	store  cmdable
	raw    *redis.Client
	logger *zap.Logger
}

// NewRedisCache parses a redis:// URL, connects and pings the server.
func NewRedisCache(ctx context.Context, url string, logger *zap.Logger) (*RedisCache, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("Successfully connected to Redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return &RedisCache{store: raw, raw: raw, logger: logger}, nil
}

// IncrWithTTL increments the counter and returns the new count. The TTL is
// set on the first increment and set again on any later one that finds the
// key without an expiry, so a lost EXPIRE heals on the next hit. Expiry
// failures are logged; only a failed INCR is returned.
func (r *RedisCache) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	k := Key(key)
	count, err := r.store.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if ttl <= 0 {
		return count, nil
	}

	if count > 1 {
		remaining, err := r.store.TTL(ctx, k).Result()
		if err != nil {
			r.logger.Warn("Failed to read counter TTL", zap.String("key", k), zap.Error(err))
			return count, nil
		}
		if remaining != noExpiry {
			return count, nil
		}
	}

	if err := r.store.Expire(ctx, k, ttl).Err(); err != nil {
		r.logger.Warn("Failed to set counter TTL", zap.String("key", k), zap.Error(err))
	}
	return count, nil
}

// Close closes the underlying connection pool.
func (r *RedisCache) Close() error {
	if r.raw == nil {
		return nil
	}
	return r.raw.Close()
}

// Key prefixes key with the application namespace.
func Key(key string) string {
	return keyNamespace + ":" + key
}
