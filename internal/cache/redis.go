package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores JSON-encoded values of type T under "<prefix>:<key>".
type RedisCache[T any] struct {
	client    *redis.Client
	prefix    string
	baseTTL   time.Duration
	maxJitter time.Duration
}

// NewRedisCache returns a cache whose entries live for baseTTL plus up to maxJitter,
// so entries written together don't expire together.
func NewRedisCache[T any](client *redis.Client, prefix string, baseTTL, maxJitter time.Duration) *RedisCache[T] {
	return &RedisCache[T]{
		client:    client,
		prefix:    prefix,
		baseTTL:   baseTTL,
		maxJitter: maxJitter,
	}
}

func (r *RedisCache[T]) Get(ctx context.Context, key string) (*T, error) {
	data, err := r.client.Get(ctx, r.cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s entry failed: %w", r.prefix, err)
	}
	return &v, nil
}

func (r *RedisCache[T]) Set(ctx context.Context, key string, value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s entry failed: %w", r.prefix, err)
	}

	if err := r.client.Set(ctx, r.cacheKey(key), data, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache[T]) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.cacheKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache[T]) ttl() time.Duration {
	if r.maxJitter <= 0 {
		return r.baseTTL
	}
	return r.baseTTL + time.Duration(rand.Int63n(int64(r.maxJitter)))
}

func (r *RedisCache[T]) cacheKey(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}
