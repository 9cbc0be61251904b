package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/leshachaplin/medtrack/internal/storage/event/clickhouse"
	"github.com/leshachaplin/medtrack/internal/storage/event/postgres"
	"github.com/leshachaplin/medtrack/internal/tracker"
	"github.com/leshachaplin/medtrack/internal/worker"
	"github.com/leshachaplin/medtrack/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/medtrack/internal/worker/redpanda/producer"
)

const (
	envPrefix = "MEDTRACK_"

	DriverClickhouse = "clickhouse"
	DriverPostgres   = "postgres"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the main config for the application
type Config struct {
	LogLevel        string          `mapstructure:"log_level"`
	Addr            string          `mapstructure:"addr"`
	MaxBodySizeMB   int             `mapstructure:"max_body_size_mb"`
	Storage         StorageConfig   `mapstructure:"storage"`
	EventWorker     worker.Config   `mapstructure:"event_worker"`
	EventProducer   producer.Config `mapstructure:"event_producer"`
	EventConsumer   consumer.Config `mapstructure:"event_consumer"`
	EventDeadLetter producer.Config `mapstructure:"event_dead_letter"`

	Tracker tracker.Config       `mapstructure:"tracker"`
	Sender  tracker.SenderConfig `mapstructure:"sender"`
}

type StorageConfig struct {
	Driver     string            `mapstructure:"driver"`
	Clickhouse clickhouse.Config `mapstructure:"clickhouse"`
	Postgres   postgres.Config   `mapstructure:"postgres"`
}

func defaults() map[string]any {
	return map[string]any{
		"log_level":                           "INFO",
		"addr":                                ":8080",
		"max_body_size_mb":                    1,
		"storage.driver":                      DriverClickhouse,
		"storage.clickhouse.addr":             "localhost:9000",
		"storage.clickhouse.db":               "default",
		"storage.clickhouse.username":         "default",
		"storage.postgres.max_open_conns":     25,
		"storage.postgres.max_idle_conns":     25,
		"storage.postgres.auto_migrate":       true,
		"event_worker.num_workers":            4,
		"event_worker.queue_size":             1024,
		"event_worker.drain_timeout":          10 * time.Second,
		"event_producer.retry_attempts":       3,
		"event_producer.retry_delay":          time.Second,
		"event_producer.topic":                "events",
		"event_consumer.consumer_group":       "medtrack",
		"event_consumer.topics":               []string{"events"},
		"event_consumer.poll_fetches_timeout": 15 * time.Second,
		"event_dead_letter.retry_attempts":    3,
		"event_dead_letter.retry_delay":       time.Second,
		"event_dead_letter.topic":             "events-dlq",
		"tracker.flush_threshold":             5,
		"sender.endpoint":                     "http://localhost:8080/api/analytics",
		"sender.timeout":                      10 * time.Second,
	}
}

// Load reads defaults, then the optional YAML file, then MEDTRACK_ environment variables.
// MEDTRACK_STORAGE__DRIVER=postgres overrides storage.driver.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return Config{}, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "mapstructure"}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverClickhouse:
		if c.Storage.Clickhouse.Addr == "" {
			return fmt.Errorf("%w: storage.clickhouse.addr is required", ErrInvalidConfig)
		}
	case DriverPostgres:
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("%w: storage.postgres.dsn is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	if c.EventProducer.Enabled() && len(c.EventConsumer.Brokers) == 0 {
		return fmt.Errorf("%w: event_consumer.brokers is required when event_producer is enabled", ErrInvalidConfig)
	}
	if c.MaxBodySizeMB < 0 {
		return fmt.Errorf("%w: max_body_size_mb must not be negative", ErrInvalidConfig)
	}
	return nil
}
