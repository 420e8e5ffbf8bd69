package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "assembly", cfg.ServiceName)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, BusDriverInProcess, cfg.BusDriver)
	assert.Equal(t, 2*time.Second, cfg.RelayPollInterval)
	assert.Equal(t, 100, cfg.RelayBatchSize)
	assert.Equal(t, time.Second, cfg.ConsumerRedeliveryDelay)
	assert.True(t, cfg.EnableBallotReplayConsumer)
	assert.True(t, cfg.EnableLifecycleAuditConsumer)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/votes.db")
	t.Setenv("BUS_DRIVER", "nats")
	t.Setenv("RELAY_POLL_INTERVAL", "250ms")
	t.Setenv("CONSUMER_MAX_DELIVER", "3")
	t.Setenv("CONSUMER_REDELIVERY_DELAY", "5s")
	t.Setenv("ENABLE_LIFECYCLE_AUDIT_CONSUMER", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/votes.db", cfg.SQLitePath)
	assert.Equal(t, BusDriverNATS, cfg.BusDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.RelayPollInterval)
	assert.Equal(t, 3, cfg.ConsumerMaxDeliver)
	assert.Equal(t, 5*time.Second, cfg.ConsumerRedeliveryDelay)
	assert.False(t, cfg.EnableLifecycleAuditConsumer)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadRejectsIncompleteStoreConfig(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	_, err := Load()
	require.ErrorContains(t, err, "POSTGRES_DSN")

	t.Setenv("STORE_DRIVER", "mongo")
	_, err = Load()
	require.ErrorContains(t, err, "unsupported STORE_DRIVER")
}

func TestLoadRejectsUnknownBus(t *testing.T) {
	t.Setenv("BUS_DRIVER", "kafka")
	_, err := Load()
	require.ErrorContains(t, err, "unsupported BUS_DRIVER")
}
