package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/medtrack/internal/domain"
	"github.com/leshachaplin/medtrack/internal/worker"
)

type Storage interface {
	StoreEvents(ctx context.Context, batch domain.EventBatch) error
}

type Service struct {
	eventPool    worker.WorkerPool
	eventStorage Storage
	logger       zerolog.Logger
}

// New starts eventPool with eventStorage as the sink for accepted batches.
func New(eventPool worker.WorkerPool, eventStorage Storage, logger zerolog.Logger) *Service {
	eventPool.Start(eventStorage.StoreEvents)

	return &Service{
		eventPool:    eventPool,
		eventStorage: eventStorage,
		logger:       logger,
	}
}
