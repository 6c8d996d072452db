package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"skyroute-backend/internal/config"
)

// Dashboard cache keys
const (
	DashboardStatsKey = "dashboard:stats"
)

// Client wraps a Redis connection. A Client with no connection is valid and
// turns every call into a no-op, so the service keeps running without Redis.
type Client struct {
	rdb *redis.Client
}

// Init connects to Redis. On failure it returns a disabled Client together
// with the error; callers log the error and carry on.
func Init(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		// Close the failed client for graceful degradation
		rdb.Close()
		return &Client{}, err
	}
	return &Client{rdb: rdb}, nil
}

// Enabled reports whether a Redis connection is available.
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

// GetCached returns cached data for a key
func (c *Client) GetCached(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func (c *Client) SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	c.rdb.Set(ctx, key, data, ttl)
}

// InvalidateKeys removes specific cache keys
func (c *Client) InvalidateKeys(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	c.rdb.Del(ctx, keys...)
}

// IsHealthy returns true if the Redis connection is working
func (c *Client) IsHealthy(ctx context.Context) bool {
	if !c.Enabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err() == nil
}
