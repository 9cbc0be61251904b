package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/leshachaplin/medtrack/internal/domain"
	"github.com/leshachaplin/medtrack/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/medtrack/internal/worker/redpanda/producer"
)

var (
	ErrUnsupportedPayload = errors.New("unsupported payload")
	ErrQueueClosed        = errors.New("queue closed")
)

type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

type Queue interface {
	Publisher
	Consume(ctx context.Context, taskPayload chan<- domain.EventBatch, done <-chan struct{})
}

type RedpandaQueue struct {
	producer *producer.Producer
	consumer *consumer.Consumer
}

func NewRedpandaQueue(producer *producer.Producer, consumer *consumer.Consumer) *RedpandaQueue {
	return &RedpandaQueue{
		producer: producer,
		consumer: consumer,
	}
}

func (r *RedpandaQueue) Publish(ctx context.Context, key string, payload any) error {
	if err := r.producer.Publish(ctx, key, payload); err != nil {
		return err
	}
	return nil
}

func (r *RedpandaQueue) Consume(ctx context.Context, taskPayload chan<- domain.EventBatch, done <-chan struct{}) {
	r.consumer.Consume(ctx, taskPayload, done)
}

// MemoryQueue keeps batches in process. Used when no brokers are configured.
// Once Consume is told to stop it refuses new batches and hands the buffered
// ones to the workers before returning.
type MemoryQueue struct {
	batches   chan domain.EventBatch
	closing   chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{
		batches: make(chan domain.EventBatch, size),
		closing: make(chan struct{}),
	}
}

func (m *MemoryQueue) Publish(ctx context.Context, _ string, payload any) error {
	batch, ok := payload.(domain.EventBatch)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedPayload, payload)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrQueueClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.closing:
		return ErrQueueClosed
	case m.batches <- batch:
		return nil
	}
}

func (m *MemoryQueue) Consume(ctx context.Context, taskPayload chan<- domain.EventBatch, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			m.drain(ctx, taskPayload)
			return
		case batch := <-m.batches:
			select {
			case taskPayload <- batch:
			case <-ctx.Done():
				return
			case <-done:
				m.drain(ctx, taskPayload, batch)
				return
			}
		}
	}
}

func (m *MemoryQueue) drain(ctx context.Context, taskPayload chan<- domain.EventBatch, pending ...domain.EventBatch) {
	m.closeOnce.Do(func() { close(m.closing) })
	// wait out publishers that are mid-send
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	for {
		var batch domain.EventBatch
		if len(pending) > 0 {
			batch, pending = pending[0], pending[1:]
		} else {
			select {
			case batch = <-m.batches:
			default:
				return
			}
		}

		select {
		case taskPayload <- batch:
		case <-ctx.Done():
			return
		}
	}
}
