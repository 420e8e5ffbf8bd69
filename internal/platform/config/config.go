package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"

	BusDriverNATS      = "nats"
	BusDriverInProcess = "inprocess"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"assembly"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"assembly.db"`

	BusDriver  string `env:"BUS_DRIVER" envDefault:"inprocess"`
	NATSURL    string `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	NATSStream string `env:"NATS_STREAM" envDefault:"ASSEMBLY"`

	RelayPollInterval       time.Duration `env:"RELAY_POLL_INTERVAL" envDefault:"2s"`
	RelayBatchSize          int           `env:"RELAY_BATCH_SIZE" envDefault:"100"`
	ConsumerMaxDeliver      int           `env:"CONSUMER_MAX_DELIVER" envDefault:"10"`
	ConsumerRedeliveryDelay time.Duration `env:"CONSUMER_REDELIVERY_DELAY" envDefault:"1s"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`

	EnableBallotReplayConsumer   bool `env:"ENABLE_BALLOT_REPLAY_CONSUMER" envDefault:"true"`
	EnableLifecycleAuditConsumer bool `env:"ENABLE_LIFECYCLE_AUDIT_CONSUMER" envDefault:"true"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.BusDriver = strings.ToLower(strings.TrimSpace(cfg.BusDriver))

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return Config{}, fmt.Errorf("POSTGRES_DSN is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return Config{}, fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=%s", StoreDriverSQLite)
		}
	case StoreDriverMemory:
	default:
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	switch cfg.BusDriver {
	case BusDriverNATS, BusDriverInProcess:
	default:
		return Config{}, fmt.Errorf("unsupported BUS_DRIVER %q", cfg.BusDriver)
	}

	if cfg.RelayBatchSize <= 0 {
		cfg.RelayBatchSize = 100
	}
	if cfg.RelayPollInterval <= 0 {
		cfg.RelayPollInterval = 2 * time.Second
	}
	if cfg.ConsumerMaxDeliver <= 0 {
		cfg.ConsumerMaxDeliver = 10
	}
	if cfg.ConsumerRedeliveryDelay <= 0 {
		cfg.ConsumerRedeliveryDelay = time.Second
	}
	return cfg, nil
}

// SlogLevel maps LOG_LEVEL onto slog levels; unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
