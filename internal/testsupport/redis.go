package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"argus/internal/adapters/config"
)

const redisTestTimeout = 5 * time.Second

// NewRedisClient connects to the test Redis database and flushes it on
// both sides of the test, so seen markers and lock state never leak
// between runs.
func NewRedisClient(t *testing.T, cfg config.RedisConfig) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisTestTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("failed to connect to redis: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("failed to flush redis before test: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), redisTestTimeout)
		defer cancel()
		_ = client.FlushDB(ctx).Err()
		_ = client.Close()
	})

	return client
}

// NewTestRedis is the one-line variant: config from the environment, flush
// on both sides.
func NewTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	return NewRedisClient(t, LoadDatabaseConfigsFromEnv(t).Redis)
}
