package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration for the engine.
type Config struct {
	Addr        string
	DatabaseURL string
	RedisURL    string
	KafkaSeeds  string

	// TablePrefix is prepended to every schema-derived storage-unit name so
	// dynamic tables never collide with system tables.
	TablePrefix string

	SchemaCacheTTL      time.Duration
	SchemaCacheDisabled bool
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:                envOr("VERIFORM_ADDR", ":8080"),
		DatabaseURL:         envOr("VERIFORM_DATABASE_URL", "postgres://localhost:5432/veriform?sslmode=disable"),
		RedisURL:            os.Getenv("VERIFORM_REDIS_URL"),
		KafkaSeeds:          os.Getenv("VERIFORM_KAFKA_SEEDS"),
		TablePrefix:         envOr("VERIFORM_TABLE_PREFIX", "annexure_"),
		SchemaCacheTTL:      envDurationOr("VERIFORM_SCHEMA_CACHE_TTL", 5*time.Minute),
		SchemaCacheDisabled: envBool("VERIFORM_SCHEMA_CACHE_DISABLED"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
