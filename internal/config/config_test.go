package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, DriverClickhouse, cfg.Storage.Driver)
	require.Equal(t, 4, cfg.EventWorker.NumWorkers)
	require.Equal(t, 10*time.Second, cfg.EventWorker.DrainTimeout)
	require.Equal(t, time.Second, cfg.EventProducer.RetryDelay)
	require.False(t, cfg.EventProducer.Enabled())
	require.Equal(t, 5, cfg.Tracker.FlushThreshold)
	require.Equal(t, 10*time.Second, cfg.Sender.Timeout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medtrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: DEBUG
storage:
  driver: postgres
  postgres:
    dsn: postgres://localhost/medtrack
event_worker:
  num_workers: 2
event_producer:
  brokers: ["localhost:9092"]
  retry_delay: 250ms
event_consumer:
  brokers: ["localhost:9092"]
`), 0o600))
	t.Setenv("MEDTRACK_ADDR", ":9090")
	t.Setenv("MEDTRACK_EVENT_WORKER__NUM_WORKERS", "8")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "DEBUG", cfg.LogLevel)
	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, DriverPostgres, cfg.Storage.Driver)
	require.Equal(t, "postgres://localhost/medtrack", cfg.Storage.Postgres.DSN)
	require.Equal(t, 8, cfg.EventWorker.NumWorkers)
	require.Equal(t, []string{"localhost:9092"}, cfg.EventProducer.Brokers)
	require.Equal(t, 250*time.Millisecond, cfg.EventProducer.RetryDelay)
	require.True(t, cfg.EventProducer.Enabled())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown driver": func(c *Config) { c.Storage.Driver = "sqlite" },
		"postgres without dsn": func(c *Config) {
			c.Storage.Driver = DriverPostgres
			c.Storage.Postgres.DSN = ""
		},
		"producer without consumer": func(c *Config) {
			c.EventProducer.Brokers = []string{"localhost:9092"}
			c.EventConsumer.Brokers = nil
		},
		"negative body size": func(c *Config) { c.MaxBodySizeMB = -1 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
