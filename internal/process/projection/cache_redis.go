package projection

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"kyc/internal/process/models"
)

const statusKeyPrefix = "kyc:status:"

// RedisStatusCache keeps the latest status per national code with a TTL.
type RedisStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStatusCache(client *redis.Client, ttl time.Duration) *RedisStatusCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisStatusCache{client: client, ttl: ttl}
}

func (c *RedisStatusCache) Get(ctx context.Context, nationalCode string) (models.Status, bool, error) {
	v, err := c.client.Get(ctx, statusKeyPrefix+nationalCode).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return models.Status(v), true, nil
}

func (c *RedisStatusCache) Set(ctx context.Context, nationalCode string, status models.Status) error {
	return c.client.Set(ctx, statusKeyPrefix+nationalCode, string(status), c.ttl).Err()
}

func (c *RedisStatusCache) Invalidate(ctx context.Context, nationalCode string) error {
	return c.client.Del(ctx, statusKeyPrefix+nationalCode).Err()
}
