package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "seocrawl:page:"

// RedisStore keeps pages in Redis with an expiry, so several crawler
// processes can share one cache.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects lazily; the first command reports connection errors
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return NewRedisStoreWithClient(rdb, ttl)
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Save(ctx context.Context, url, html string) (Handle, error) {
	key := KeyFor(url)
	if err := r.client.Set(ctx, redisKeyPrefix+string(key), html, r.ttl).Err(); err != nil {
		return key, fmt.Errorf("redis set failure: %w", err)
	}
	return key, nil
}

func (r *RedisStore) Load(ctx context.Context, h Handle) (string, bool, error) {
	html, err := r.client.Get(ctx, redisKeyPrefix+string(h)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failure: %w", err)
	}
	return html, true, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
