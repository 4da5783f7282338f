package redis

import (
	"context"
	"errors"
	"marketplace-service/internal/services"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheAdapter exposes the redis client through the services.Cache
// interface.
type CacheAdapter struct {
	client *redis.Client
}

func NewCacheAdapter(c *Client) *CacheAdapter {
	return &CacheAdapter{client: c.GetClient()}
}

func (a *CacheAdapter) Get(ctx context.Context, key string) (string, error) {
	value, err := a.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", services.ErrCacheMiss
	}
	return value, err
}

func (a *CacheAdapter) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return a.client.Set(ctx, key, value, ttl).Err()
}

func (a *CacheAdapter) Delete(ctx context.Context, key string) error {
	return a.client.Del(ctx, key).Err()
}
