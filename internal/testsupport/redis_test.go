package testsupport

import (
	"context"
	"testing"
)

func TestRedisClientIsCleanedBetweenTests(t *testing.T) {
	configs := LoadDatabaseConfigsFromEnv(t)

	client := NewRedisClient(t, configs.Redis)
	if err := client.Set(context.Background(), "seen:reddit:sentinel", "1", 0).Err(); err != nil {
		t.Fatalf("failed to set key: %v", err)
	}

	val, err := client.Get(context.Background(), "seen:reddit:sentinel").Result()
	if err != nil {
		t.Fatalf("failed to get key: %v", err)
	}

	if val != "1" {
		t.Fatalf("unexpected redis value: %s", val)
	}

	// A second client over the same database must start from a clean slate
	fresh := NewTestRedis(t)
	keys, err := fresh.Keys(context.Background(), "*").Result()
	if err != nil {
		t.Fatalf("failed to list keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected flushed database, found keys: %v", keys)
	}
}
