package testsupport

import (
	"os"
	"strconv"
	"testing"

	"argus/internal/adapters/config"
)

// DatabaseConfigs carries the store configs integration tests need
type DatabaseConfigs struct {
	Postgres   config.PostgresConfig
	ClickHouse config.ClickHouseConfig
	Redis      config.RedisConfig
}

// LoadDatabaseConfigsFromEnv builds store configs from the environment.
// When a required variable is absent the calling test is skipped, so
// `go test ./...` stays green on machines without the stores.
func LoadDatabaseConfigsFromEnv(t *testing.T) DatabaseConfigs {
	t.Helper()

	var missing []string
	for _, key := range []string{
		"POSTGRES_HOST", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
		"CLICKHOUSE_HOST", "CLICKHOUSE_DB",
		"REDIS_HOST",
	} {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		t.Skipf("integration stores not configured, set %v to run", missing)
	}

	return DatabaseConfigs{
		Postgres: config.PostgresConfig{
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     envInt("POSTGRES_PORT", 5432),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Database: os.Getenv("POSTGRES_DB"),
			SSLMode:  envOr("POSTGRES_SSL_MODE", "disable"),
			MaxConns: 10,
		},
		ClickHouse: config.ClickHouseConfig{
			Host:     os.Getenv("CLICKHOUSE_HOST"),
			Port:     envInt("CLICKHOUSE_PORT", 9000),
			User:     envOr("CLICKHOUSE_USER", "default"),
			Password: os.Getenv("CLICKHOUSE_PASSWORD"),
			Database: os.Getenv("CLICKHOUSE_DB"),
		},
		Redis: config.RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     envInt("REDIS_PORT", 6379),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
	}
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
