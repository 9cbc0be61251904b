package waiter

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

type WaitFunc func(ctx context.Context) error

type Waiter interface {
	Add(fns ...WaitFunc)
	Wait() error
	Context() context.Context
	CancelFunc() context.CancelFunc
}

type waiter struct {
	ctx    context.Context
	fns    []WaitFunc
	cancel context.CancelFunc
}

type waiterCfg struct {
	parentCtx    context.Context
	catchSignals bool
	signals      []os.Signal
}

// NewWaiter returns a Waiter whose context is cancelled by cancel or by one of the configured signals.
func NewWaiter(ctx context.Context, cancel context.CancelFunc, options ...Option) Waiter {
	cfg := &waiterCfg{
		parentCtx:    ctx,
		catchSignals: true,
		signals:      []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
	for _, option := range options {
		option(cfg)
	}

	w := &waiter{fns: []WaitFunc{}}
	w.ctx, w.cancel = context.WithCancel(cfg.parentCtx)
	if cfg.catchSignals && len(cfg.signals) > 0 {
		var stop context.CancelFunc
		w.ctx, stop = signal.NotifyContext(w.ctx, cfg.signals...)
		inner := w.cancel
		w.cancel = func() {
			stop()
			inner()
		}
	}
	if cancel != nil {
		go func() {
			<-w.ctx.Done()
			cancel()
		}()
	}

	return w
}

func (w *waiter) Add(fns ...WaitFunc) {
	w.fns = append(w.fns, fns...)
}

// Wait runs every added function and returns the first error once all of them have returned.
func (w *waiter) Wait() error {
	g, ctx := errgroup.WithContext(w.ctx)

	g.Go(func() error {
		<-ctx.Done()
		w.cancel()
		return nil
	})

	for _, fn := range w.fns {
		fn := fn
		g.Go(func() error { return fn(ctx) })
	}

	return g.Wait()
}

func (w *waiter) Context() context.Context {
	return w.ctx
}

func (w *waiter) CancelFunc() context.CancelFunc {
	return w.cancel
}
