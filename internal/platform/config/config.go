// Package config builds the process configuration from the environment so
// main stays lean. Parsing is delegated to envconfig; defaults favor local
// development.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full process configuration.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Kafka    KafkaConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr          string `envconfig:"ADDR" default:":8080"`
	JWTSigningKey string `envconfig:"JWT_SIGNING_KEY" default:"dev-secret-key-change-in-production"`
	RateLimit     int    `envconfig:"RATE_LIMIT" default:"60"`
	RateWindowSec int    `envconfig:"RATE_WINDOW_SEC" default:"60"`
}

// PostgresConfig holds the relational persistence settings. An empty DSN
// selects the in-memory stores (dev/test mode).
type PostgresConfig struct {
	DSN string `envconfig:"POSTGRES_DSN"`
}

// RedisConfig holds the distributed rate limiter settings. An empty URL
// selects the in-memory limiter store.
type RedisConfig struct {
	URL          string `envconfig:"REDIS_URL"`
	PoolSize     int    `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int    `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
}

// StorageConfig selects the artifact object store. An empty bucket selects
// the in-memory store; otherwise artifacts go to GCS.
type StorageConfig struct {
	Bucket          string `envconfig:"STORAGE_BUCKET"`
	CredentialsFile string `envconfig:"STORAGE_CREDENTIALS_FILE"`
	PublicBaseURL   string `envconfig:"STORAGE_PUBLIC_BASE_URL"`
}

// KafkaConfig holds the audit fan-out settings. Empty brokers disable the
// outbox publisher; the audit trail in postgres remains the source of truth.
type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_AUDIT_TOPIC" default:"declara.audit"`
}

// FromEnv reads all DECLARA_* environment variables into a Config.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("declara", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return &cfg, nil
}
