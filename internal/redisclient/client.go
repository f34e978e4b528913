package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client. Redis here is an accelerator only:
// idempotency guards and cached admin statistics. Authoritative order and
// inventory state lives in Postgres.
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// AcquireIdempotency claims an idempotency key for the given TTL. Returns
// false if another request already holds it.
func (c *Client) AcquireIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("idempotency:%s", key), "1", ttl).Result()
}

// ReleaseIdempotency drops a claimed key so a failed request can be retried
// immediately.
func (c *Client) ReleaseIdempotency(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("idempotency:%s", key)).Err()
}

// GetCachedStats returns cached admin statistics, or nil on a miss.
func (c *Client) GetCachedStats(ctx context.Context) ([]byte, error) {
	data, err := c.rdb.Get(ctx, "admin:order-stats").Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// SetCachedStats caches admin statistics for the given TTL.
func (c *Client) SetCachedStats(ctx context.Context, data []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, "admin:order-stats", data, ttl).Err()
}
