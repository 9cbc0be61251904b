package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/medtrack/internal/domain"
)

const (
	defaultNumWorkers   = 1
	defaultDrainTimeout = 10 * time.Second
)

type WorkerPool interface {
	Start(executeFn func(ctx context.Context, batch domain.EventBatch) error)
	GracefulStop()
	Process(payload domain.EventBatch)
}

type Pool struct {
	numWorkers   int
	drainTimeout time.Duration
	taskPayload  chan domain.EventBatch
	queue        Queue
	errorQueue   Publisher
	start        sync.Once
	stop         sync.Once
	doneChan     chan struct{}
	ctx          context.Context
	cancelFn     context.CancelFunc
	wg           *sync.WaitGroup
	logger       zerolog.Logger
}

// New creates a pool reading batches from queue. Batches that fail to be
// published or stored go to errorQueue, which may be nil.
func New(ctx context.Context, cfg Config, queue Queue, errorQueue Publisher, logger zerolog.Logger) *Pool {
	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = defaultNumWorkers
	}
	drainTimeout := cfg.DrainTimeout
	if drainTimeout <= 0 {
		drainTimeout = defaultDrainTimeout
	}

	c, cancelFn := context.WithCancel(ctx)
	return &Pool{
		numWorkers:   numWorkers,
		drainTimeout: drainTimeout,
		taskPayload:  make(chan domain.EventBatch, numWorkers),
		doneChan:     make(chan struct{}),
		queue:        queue,
		errorQueue:   errorQueue,
		ctx:          c,
		cancelFn:     cancelFn,
		wg:           &sync.WaitGroup{},
		logger:       logger,
	}
}

func (w *Pool) Start(
	executeFn func(ctx context.Context, eventBatch domain.EventBatch) error,
) {
	w.start.Do(func() {
		for i := 0; i < w.numWorkers; i++ {
			w.wg.Add(1)
			l := w.logger.With().Int("worker", i).Logger()
			go w.work(w.ctx, l, executeFn)
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer close(w.taskPayload)
			w.queue.Consume(w.ctx, w.taskPayload, w.doneChan)
		}()
	})
}

// GracefulStop stops intake and lets the workers finish the batches already
// handed to them. Whatever is left after the drain timeout is abandoned.
func (w *Pool) GracefulStop() {
	w.stop.Do(func() {
		close(w.doneChan)

		drained := make(chan struct{})
		go func() {
			w.wg.Wait()
			close(drained)
		}()

		timer := time.NewTimer(w.drainTimeout)
		defer timer.Stop()
		select {
		case <-drained:
		case <-timer.C:
			w.logger.Warn().Dur("timeout", w.drainTimeout).Msg("drain timed out, cancelling workers")
		}
		w.cancelFn()
		<-drained
	})
}

func (w *Pool) Process(eventBatch domain.EventBatch) {
	if err := w.queue.Publish(w.ctx, eventBatch.ID, eventBatch); err != nil {
		w.onFailure(eventBatch, err)
	}
}

func (w *Pool) onFailure(eventBatch domain.EventBatch, err error) {
	l := w.logger.With().Str("BATCH_ID", eventBatch.ID).Int("EVENTS", len(eventBatch.Events)).Logger()
	if w.errorQueue == nil {
		l.Error().Err(err).Msg("failed to process events")
		return
	}

	p := payload{
		Payload: eventBatch,
	}
	p.SetErrorReason(err)
	if errPublish := w.errorQueue.Publish(w.ctx, eventBatch.ID, p); errPublish != nil {
		l.Error().Err(err).AnErr("publish_error", errPublish).Msg("failed to process events")
	}
}

func (w *Pool) work(
	ctx context.Context,
	logger zerolog.Logger,
	executeFn func(ctx context.Context, eventBatch domain.EventBatch) error,
) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case pld, ok := <-w.taskPayload:
			if !ok {
				return
			}

			logger.Debug().Str("BATCH_ID", pld.ID).Int("EVENTS", len(pld.Events)).Msg("start processing events")
			if err := executeFn(ctx, pld); err != nil {
				w.onFailure(pld, err)
			}
			logger.Debug().Str("BATCH_ID", pld.ID).Msg("end processing events")
		}
	}
}

type payload struct {
	Payload domain.EventBatch `json:"payload"`
	Error   *errorReason      `json:"error_reason"`
}

func (c *payload) SetErrorReason(err error) {
	if c.Error == nil {
		c.Error = new(errorReason)
	}
	c.Error.Reason = err
}

func (c *payload) GetErrorReason() error {
	if c.Error != nil {
		return c.Error.Reason
	}
	return nil
}

type errorReason struct {
	Reason error
}

func (e errorReason) MarshalJSON() ([]byte, error) {
	if e.Reason != nil {
		return json.Marshal(e.Reason.Error())
	}
	return json.Marshal(nil)
}

func (e *errorReason) UnmarshalJSON(data []byte) error {
	var reason string
	if err := json.Unmarshal(data, &reason); err != nil {
		return err
	}
	e.Reason = errors.New(reason)
	return nil
}
