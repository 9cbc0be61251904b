package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/leshachaplin/medtrack/app/waiter"
	"github.com/leshachaplin/medtrack/internal/config"
	appServer "github.com/leshachaplin/medtrack/internal/server/http"
	"github.com/leshachaplin/medtrack/internal/service"
	"github.com/leshachaplin/medtrack/internal/storage/event/clickhouse"
	"github.com/leshachaplin/medtrack/internal/storage/event/postgres"
	"github.com/leshachaplin/medtrack/internal/worker"
	"github.com/leshachaplin/medtrack/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/medtrack/internal/worker/redpanda/producer"
)

const shutdownTimeout = time.Minute

type LoadConfigFn func() (config.Config, error)

type eventStorage interface {
	service.Storage
	Close() error
}

type App struct {
	cfg        config.Config
	logger     zerolog.Logger
	server     *appServer.Server
	serverDone chan struct{}
	waiter     waiter.Waiter
	ctx        context.Context
	cancelFn   context.CancelFunc
}

func New(loadConfigFn LoadConfigFn) *App {
	ctx, cancelFn := context.WithCancel(context.Background())
	cfg, err := loadConfigFn()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := NewZeroLogger(Level(cfg.LogLevel))

	w := waiter.NewWaiter(ctx, cancelFn)

	return &App{
		cfg:        cfg,
		logger:     logger,
		serverDone: make(chan struct{}),
		waiter:     w,
		ctx:        w.Context(),
		cancelFn:   cancelFn,
	}
}

func (a *App) Start() {
	defer a.cancelFn()

	storage, err := a.newStorage()
	if err != nil {
		a.logger.Fatal().Err(err).Msg("Could not setup event storage.")
	}
	defer storage.Close()

	eventQueue, closeQueue, err := a.newQueue()
	if err != nil {
		a.logger.Fatal().Err(err).Msg("Could not setup event queue.")
	}
	defer closeQueue()

	var deadLetter worker.Publisher
	if a.cfg.EventDeadLetter.Enabled() {
		dlq, err := producer.NewProducer(
			a.ctx,
			a.cfg.EventDeadLetter,
			a.logger.With().Str("producer", "dead_letter").Logger(),
		)
		if err != nil {
			a.logger.Fatal().Err(err).Msg("Could not setup dead letter producer.")
		}
		defer dlq.Close()
		deadLetter = dlq
	}

	l := a.logger.With().Str("WORKER", "EVENT").Logger()
	eventWorker := worker.New(a.ctx, a.cfg.EventWorker, eventQueue, deadLetter, l)

	eventProcessor := service.New(eventWorker, storage, a.logger.With().Str("service", "event").Logger())
	handler := appServer.NewHandler(eventProcessor, a.cfg.MaxBodySizeMB, a.logger)

	a.server = appServer.New(handler)

	a.waitForServer()
	a.waitForWorker(eventWorker)

	if err = a.waiter.Wait(); err != nil {
		a.logger.Fatal().Err(err).Msg("App crash.")
	}
}

func (a *App) Stop() {
	a.waiter.CancelFunc()()
}

func (a *App) newStorage() (eventStorage, error) {
	switch a.cfg.Storage.Driver {
	case config.DriverPostgres:
		return postgres.New(a.ctx, a.cfg.Storage.Postgres, a.logger.With().Str("storage", "postgres").Logger())
	case config.DriverClickhouse:
		ch, err := clickhouse.New(a.ctx, a.cfg.Storage.Clickhouse, a.logger.With().Str("storage", "clickhouse").Logger())
		if err != nil {
			return nil, err
		}
		if err = ch.Migrate(a.ctx); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("migrate clickhouse: %w", err)
		}
		return ch, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", config.ErrInvalidConfig, a.cfg.Storage.Driver)
	}
}

// newQueue returns a Redpanda backed queue when brokers are configured and an in-process one otherwise.
func (a *App) newQueue() (worker.Queue, func(), error) {
	if !a.cfg.EventProducer.Enabled() {
		a.logger.Info().Int("size", a.cfg.EventWorker.QueueSize).Msg("no brokers configured, using in-memory queue")
		return worker.NewMemoryQueue(a.cfg.EventWorker.QueueSize), func() {}, nil
	}

	consumerErrorChan := make(chan error, 1)
	eventConsumer, err := consumer.NewConsumer(
		a.cfg.EventConsumer,
		consumerErrorChan,
		a.logger.With().Str("consumer", "event").Logger(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("setup event consumer: %w", err)
	}

	eventProducer, err := producer.NewProducer(
		a.ctx,
		a.cfg.EventProducer,
		a.logger.With().Str("producer", "event").Logger(),
	)
	if err != nil {
		_ = eventConsumer.Close()
		return nil, nil, fmt.Errorf("setup event producer: %w", err)
	}

	a.waitForConsumerErrors(consumerErrorChan)

	return worker.NewRedpandaQueue(eventProducer, eventConsumer), func() {
		_ = eventProducer.Close()
		_ = eventConsumer.Close()
	}, nil
}

func (a *App) waitForServer() {
	a.waiter.Add(func(ctx context.Context) error {
		defer a.logger.Debug().Msg("server has been shutdown")

		group, gCtx := errgroup.WithContext(ctx)
		group.Go(func() error {
			defer a.logger.Debug().Msg("public server exited")
			a.logger.Info().Str("addr", a.cfg.Addr).Msg("starting server")
			err := a.server.ServePublic(a.cfg.Addr)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		group.Go(func() error {
			<-gCtx.Done()
			defer close(a.serverDone)
			a.logger.Debug().Msg("shutting down the server")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := a.server.ShutdownPublic(ctx); err != nil {
				a.logger.Warn().Err(err).Msg("error while shutting down the server")
			}
			return nil
		})

		return group.Wait()
	})
}

func (a *App) waitForWorker(eventWorker worker.WorkerPool) {
	a.waiter.Add(func(ctx context.Context) error {
		<-ctx.Done()
		<-a.serverDone
		eventWorker.GracefulStop()
		return nil
	})
}

func (a *App) waitForConsumerErrors(errChan <-chan error) {
	a.waiter.Add(func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case err := <-errChan:
				a.logger.Error().Err(err).Msg("event consumer")
			}
		}
	})
}
