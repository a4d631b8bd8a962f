// Package config builds process configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strings"
	"time"

	pstrings "pairhub/pkg/platform/strings"
)

// StreamBackend selects the change-stream implementation.
type StreamBackend string

const (
	// StreamMemory fans events out in-process. Default for development and
	// single-instance deployments.
	StreamMemory StreamBackend = "memory"
	// StreamPostgres uses LISTEN/NOTIFY on the row-store database.
	StreamPostgres StreamBackend = "postgres"
	// StreamRedis uses Redis Pub/Sub channels.
	StreamRedis StreamBackend = "redis"
)

// Server captures top-level service configuration.
type Server struct {
	Addr          string
	PostgresURL   string
	Redis         RedisConfig
	Kafka         KafkaConfig
	JWTSigningKey string
	// AdminToken guards operator routes. Empty disables them.
	AdminToken string
	// PrefsPath is where the client-local key/value cache lives. Empty means
	// in-memory only.
	PrefsPath string
	Stream    StreamBackend
	// ChallengeTTL bounds how long a passwordless sign-in code stays
	// redeemable.
	ChallengeTTL time.Duration
	// SessionTTL bounds issued access tokens.
	SessionTTL time.Duration
	// SignInLimit and SignInWindow throttle unauthenticated auth routes
	// per client IP.
	SignInLimit  int
	SignInWindow time.Duration
}

// RedisConfig captures Redis connection tuning.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig captures audit pipeline settings. Empty brokers disable the
// Kafka publisher; audit events then only reach the local store.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:          envOr("PAIRHUB_ADDR", ":8080"),
		PostgresURL:   os.Getenv("PAIRHUB_POSTGRES_URL"),
		JWTSigningKey: envOr("PAIRHUB_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminToken:    os.Getenv("PAIRHUB_ADMIN_TOKEN"),
		PrefsPath:     os.Getenv("PAIRHUB_PREFS_PATH"),
		Stream:        StreamMemory,
		ChallengeTTL:  15 * time.Minute,
		SessionTTL:    24 * time.Hour,
		SignInLimit:   10,
		SignInWindow:  time.Minute,
		Redis: RedisConfig{
			URL:          os.Getenv("PAIRHUB_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: envOr("PAIRHUB_KAFKA_TOPIC", "pairhub.audit"),
		},
	}

	switch StreamBackend(os.Getenv("PAIRHUB_STREAM")) {
	case StreamPostgres:
		cfg.Stream = StreamPostgres
	case StreamRedis:
		cfg.Stream = StreamRedis
	}

	if brokers := os.Getenv("PAIRHUB_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = pstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}

	return cfg
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
