package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog"
)

type Clickhouse struct {
	conn   driver.Conn
	logger zerolog.Logger
}

func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Clickhouse, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.DB,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Debugf: func(format string, v ...any) {
			logger.Trace().Msgf(format, v...)
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout:     time.Second * 30,
		MaxOpenConns:    5,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Duration(10) * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	if err = conn.Ping(ctx); err != nil {
		var exception *clickhouse.Exception
		if errors.As(err, &exception) {
			logger.Error().
				Int32("code", exception.Code).
				Str("stack_trace", exception.StackTrace).
				Msg(exception.Message)
		}
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &Clickhouse{
		conn:   conn,
		logger: logger,
	}, nil
}

func (c *Clickhouse) Close() error {
	return c.conn.Close()
}

func (c *Clickhouse) Migrate(ctx context.Context) error {
	return c.conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS events
		(
			batch_id    String,
			received_at DateTime,
			ip          String,
			event       String,
			properties  String,
			user_id     String,
			session_id  String,
			occurred_at DateTime64(3)
		) Engine = MergeTree
		ORDER BY (event, occurred_at)`)
}
