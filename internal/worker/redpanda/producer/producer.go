package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	defaultRetryAttempts = 1
	publishTimeout       = 5 * time.Second
)

type Config struct {
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	Brokers       []string      `mapstructure:"brokers"`
	Topic         string        `mapstructure:"topic"`
}

// Enabled reports whether brokers are configured.
func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}

type Producer struct {
	retryAttempts int
	retryDelay    time.Duration
	client        *kgo.Client
	logger        zerolog.Logger
}

func NewProducer(
	ctx context.Context,
	cfg Config,
	logger zerolog.Logger,
) (*Producer, error) {
	clientOpts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
	}

	client, err := kgo.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("kgo new client: %w", err)
	}

	if err = client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping brokers: %w", err)
	}

	producer := &Producer{
		client:        client,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
		logger:        logger,
	}
	if producer.retryAttempts <= 0 {
		producer.retryAttempts = defaultRetryAttempts
	}

	return producer, nil
}

func (p *Producer) Close() error {
	p.client.Close()
	return nil
}

func (p *Producer) Publish(ctx context.Context, key string, msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	record := kgo.KeyStringRecord(key, string(b))

	return linearBackOff(ctx, &p.logger, p.retryAttempts, p.retryDelay, func() error {
		produceCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		res := p.client.ProduceSync(produceCtx, record)
		cancel()

		if err := res.FirstErr(); err != nil {
			return fmt.Errorf("produce sync: %w", err)
		}
		return nil
	})
}

func linearBackOff(ctx context.Context, log *zerolog.Logger, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		if i == attempts-1 {
			break
		}

		log.Warn().Err(err).Msgf("Retry: %d.", i)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay * time.Duration(i+1)):
		}
	}
	return err
}
