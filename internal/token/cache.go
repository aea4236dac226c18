package token

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss indicates the requested key is not present in the cache.
var ErrCacheMiss = errors.New("token: cache miss")

// readyProbeTimeout bounds the availability probe so an unreachable backend
// cannot stall callers.
const readyProbeTimeout = time.Second

// Cache is the distributed cache/lock backend consumed by the Manager.
// Every operation may fail at any time; the Manager treats failures as
// "backend unavailable" and degrades to its in-process fallback.
type Cache interface {
	// Ready reports whether the backend is currently reachable.
	Ready(ctx context.Context) bool
	// Get returns the value stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)
	// SetEX stores value under key with a TTL in seconds.
	SetEX(ctx context.Context, key, value string, ttlSeconds int64) error
	// SetNX stores value under key only if absent, with a millisecond lease.
	// It reports whether the key was set.
	SetNX(ctx context.Context, key, value string, lease time.Duration) (bool, error)
	// Del removes key.
	Del(ctx context.Context, key string) error
}

// RedisCache adapts a go-redis client to the Cache interface.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps a redis client. A nil client yields a cache that is
// never ready, which keeps the Manager on its in-process path.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Ready probes the connection with a short-timeout PING.
func (c *RedisCache) Ready(ctx context.Context) bool {
	if c == nil || c.client == nil {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()
	return c.client.Ping(probeCtx).Err() == nil
}

// Get returns the string stored under key.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	if c == nil || c.client == nil {
		return "", ErrCacheMiss
	}
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// SetEX stores value with an expiry in seconds.
func (c *RedisCache) SetEX(ctx context.Context, key, value string, ttlSeconds int64) error {
	if c == nil || c.client == nil {
		return errors.New("token: redis client not configured")
	}
	return c.client.Set(ctx, key, value, time.Duration(ttlSeconds)*time.Second).Err()
}

// SetNX stores value only if key is absent, with the given lease duration.
func (c *RedisCache) SetNX(ctx context.Context, key, value string, lease time.Duration) (bool, error) {
	if c == nil || c.client == nil {
		return false, errors.New("token: redis client not configured")
	}
	return c.client.SetNX(ctx, key, value, lease).Result()
}

// Del removes key.
func (c *RedisCache) Del(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}
