package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares rendered responses between instances.
type RedisCache struct {
	cli    *redis.Client
	prefix string
}

// NewRedisCache wraps an existing client. Keys are stored under prefix.
func NewRedisCache(cli *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "eventpulse:resp"
	}
	return &RedisCache{cli: cli, prefix: prefix}
}

func (r *RedisCache) key(k string) string { return r.prefix + ":" + k }

func (r *RedisCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.cli.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.cli.Set(ctx, r.key(key), value, ttl).Err()
}
