package tracker

import "time"

const (
	defaultFlushThreshold = 5
	defaultEndpoint       = "http://localhost:8080/api/analytics"
	defaultSendTimeout    = 10 * time.Second
)

type Config struct {
	// FlushThreshold is the pending queue length that triggers a flush while online.
	FlushThreshold int `mapstructure:"flush_threshold"`
	// MaxPending caps the pending queue, dropping the oldest events. Zero means unbounded.
	MaxPending          int  `mapstructure:"max_pending"`
	DisableAutoPageView bool `mapstructure:"disable_auto_page_view"`
}

type SenderConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
	RetryMax int           `mapstructure:"retry_max"`
}
