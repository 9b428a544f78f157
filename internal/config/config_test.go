package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/orderflow/internal/config"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := config.DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "orderflow", cfg.App.Name)
	assert.Equal(t, "orderflow", cfg.MongoDB.Database)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.CommandTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Idempotency.EventTTL)
	assert.Equal(t, 5, cfg.Saga.SnapshotEvery)
}

func TestServerConfig_Address(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
mongodb:
  uri: mongodb://db:27017
  database: checkout
kafka:
  brokers:
    - kafka-1:9092
    - kafka-2:9092
log:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mongodb://db:27017", cfg.MongoDB.URI)
	assert.Equal(t, "checkout", cfg.MongoDB.Database)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Unspecified values fall back to defaults.
	assert.Equal(t, config.DefaultReadTimeout, cfg.Server.ReadTimeout)
}

func TestLoad_FileDurationStrings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  read_timeout: 20s
kafka:
  max_wait: 250ms
idempotency:
  command_ttl: 12h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 20*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Kafka.MaxWait)
	assert.Equal(t, 12*time.Hour, cfg.Idempotency.CommandTTL)
	assert.Equal(t, config.DefaultWriteTimeout, cfg.Server.WriteTimeout)
	assert.Equal(t, config.DefaultEventTTL, cfg.Idempotency.EventTTL)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))

	require.Error(t, err)
	require.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7777")
	t.Setenv("MONGODB_URI", "mongodb://env-host:27017")
	t.Setenv("REDIS_ADDR", "env-redis:6379")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092,b3:9092")
	t.Setenv("IDEMPOTENCY_COMMAND_TTL", "12h")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "mongodb://env-host:27017", cfg.MongoDB.URI)
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"b1:9092", "b2:9092", "b3:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 12*time.Hour, cfg.Idempotency.CommandTTL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_InvalidEnvDuration(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-duration")

	_, err := config.Load()

	require.Error(t, err)
	require.ErrorIs(t, err, config.ErrInvalidDuration)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero port", func(c *config.Config) { c.Server.Port = 0 }},
		{"missing mongo uri", func(c *config.Config) { c.MongoDB.URI = "" }},
		{"missing redis addr", func(c *config.Config) { c.Redis.Addr = "" }},
		{"no kafka brokers", func(c *config.Config) { c.Kafka.Brokers = nil }},
		{"bad log level", func(c *config.Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *config.Config) { c.Log.Format = "xml" }},
		{"zero snapshot cadence", func(c *config.Config) { c.Saga.SnapshotEvery = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			require.ErrorIs(t, err, config.ErrConfigInvalid)
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.False(t, cfg.IsDevelopment())

	cfg.Log.Level = "debug"
	assert.True(t, cfg.IsDevelopment())
}
