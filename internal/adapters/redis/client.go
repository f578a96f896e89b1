package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"argus/internal/adapters/config"
	"argus/pkg/errors"
)

const pingTimeout = 5 * time.Second

// Client wraps the Redis connection. The seen-store and the metrics
// collector work on the raw client; the wrapper itself carries the
// distributed lock used to serialize risk scans.
type Client struct {
	rdb *redis.Client
}

// NewClient connects and verifies the connection
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	return &Client{rdb: rdb}, nil
}

// Client returns the underlying Redis client
func (c *Client) Client() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// AcquireLock takes a named lock for ttl. Returns false without error
// when another holder has it.
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, "lock:"+key, "1", ttl).Result()
}

// ReleaseLock drops the named lock. Releasing a lock that expired on
// its own is not an error.
func (c *Client) ReleaseLock(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, "lock:"+key).Err()
}
