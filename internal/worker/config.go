package worker

import "time"

type Config struct {
	NumWorkers int `mapstructure:"num_workers"`
	// QueueSize is the buffer of the in-process queue used when no brokers are configured.
	QueueSize int `mapstructure:"queue_size"`
	// DrainTimeout bounds how long GracefulStop waits for queued batches to be stored.
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
}
