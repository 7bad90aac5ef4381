package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"airbnb-bot/utils"
)

const (
	dialTimeout = 5 * time.Second
	keyPrefix   = "airbnb-bot:"
)

// RedisCache is the Cache backed by a redis server.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache parses url, connects and pings the server.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opts)

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := client.Ping(dialCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	return &RedisCache{client: client}, nil
}

// NewCache prefers redis and falls back to an in-process cache when the
// server is unreachable or url is empty.
func NewCache(ctx context.Context, url string, logger *utils.Logger) Cache {
	if url == "" {
		logger.Info("[cache] REDIS_URL not set, using in-memory cache")
		return NewMemoryCache()
	}
	c, err := NewRedisCache(ctx, url)
	if err != nil {
		logger.Warn("[cache] redis unavailable (%v), falling back to in-memory cache", err)
		return NewMemoryCache()
	}
	logger.Info("[cache] connected to redis")
	return c
}

func (r *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis: get %q: %w", key, err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("redis: decode %q: %w", key, err)
	}
	return true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis: encode %q: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %q: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
