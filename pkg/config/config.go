// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config holds the settings shared by the gateway, api, and archiver
// binaries. Every field has a default suitable for local development.
type Config struct {
	GatewayAddr string `env:"GATEWAY_ADDR,default=:8080"`
	APIAddr     string `env:"API_ADDR,default=:8081"`

	// StoreBackend selects the message store: scylla, badger, or
	// memory. Badger is single-process; use it only when gateway and
	// api run in the same binary or the api is pointed elsewhere.
	StoreBackend string `env:"STORE_BACKEND,default=scylla"`

	ScyllaHosts    string `env:"SCYLLA_HOSTS,default=localhost:9042"`
	ScyllaKeyspace string `env:"SCYLLA_KEYSPACE,default=chat"`

	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`

	KafkaBrokers string `env:"KAFKA_BROKERS,default=localhost:19092"`
	KafkaTopic   string `env:"KAFKA_TOPIC,default=chat-messages"`

	BadgerPath string `env:"BADGER_PATH,default=./data/messages"`

	BlobDir     string `env:"BLOB_DIR,default=./data/blobs"`
	BlobBaseURL string `env:"BLOB_BASE_URL,default=http://localhost:8081/files"`

	JWTSecret string        `env:"JWT_SECRET,default=dev-secret"`
	JWTTTL    time.Duration `env:"JWT_TTL,default=24h"`

	// PersistTimeout bounds every persistence call; expiry is treated
	// as a persistence failure.
	PersistTimeout time.Duration `env:"PERSIST_TIMEOUT,default=5s"`

	SnowflakeNode int64 `env:"SNOWFLAKE_NODE,default=1"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// ScyllaHostList splits the comma-separated host setting.
func (c Config) ScyllaHostList() []string {
	return strings.Split(c.ScyllaHosts, ",")
}

// KafkaBrokerList splits the comma-separated broker setting.
func (c Config) KafkaBrokerList() []string {
	return strings.Split(c.KafkaBrokers, ",")
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
