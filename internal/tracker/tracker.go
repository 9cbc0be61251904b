package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/medtrack/internal/domain"
)

const directReferrer = "direct"

var ErrUndelivered = errors.New("events left undelivered")

var utmKeys = []string{"utm_source", "utm_medium", "utm_campaign"}

type Option func(*Tracker)

func WithReporter(r Reporter) Option {
	return func(t *Tracker) {
		t.reporter = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// Tracker buffers events and delivers them to the ingestion endpoint in
// batches. Recording never blocks on delivery and never reports delivery
// errors to the caller.
type Tracker struct {
	threshold  int
	maxPending int
	sender     Sender
	reporter   Reporter
	env        Environment
	now        func() time.Time
	logger     zerolog.Logger

	mu        sync.Mutex
	sessionID string
	userID    string
	queue     []domain.Event
	online    bool
	inFlight  bool
	followUp  bool
	closed    bool
	lastPath  string

	ctx      context.Context
	cancelFn context.CancelFunc
	wg       sync.WaitGroup
}

func New(
	ctx context.Context,
	cfg Config,
	sender Sender,
	env Environment,
	logger zerolog.Logger,
	opts ...Option,
) *Tracker {
	c, cancelFn := context.WithCancel(ctx)
	t := &Tracker{
		threshold:  cfg.FlushThreshold,
		maxPending: cfg.MaxPending,
		sender:     sender,
		env:        env,
		now:        time.Now,
		logger:     logger,
		online:     true,
		ctx:        c,
		cancelFn:   cancelFn,
	}
	if t.threshold <= 0 {
		t.threshold = defaultFlushThreshold
	}
	for _, opt := range opts {
		opt(t)
	}

	t.sessionID = newSessionID(t.now())
	t.lastPath = pagePath(env.Location())
	t.logger = t.logger.With().Str("session_id", t.sessionID).Logger()

	if !cfg.DisableAutoPageView {
		t.PageView("")
	}
	return t
}

func (t *Tracker) SessionID() string {
	return t.sessionID
}

func (t *Tracker) SetUserID(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.userID = userID
}

func (t *Tracker) Online() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.online
}

// Track records an event enriched with the current page context.
func (t *Tracker) Track(name string, props map[string]any) {
	now := t.now()
	properties := t.enrich(props, now)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		t.logger.Debug().Str("event", name).Msg("Tracker closed, event dropped.")
		return
	}

	t.queue = append(t.queue, domain.Event{
		Event:      name,
		Properties: properties,
		UserID:     t.userID,
		SessionID:  t.sessionID,
		Timestamp:  now.UnixMilli(),
	})
	t.trimLocked()

	if t.online && len(t.queue) >= t.threshold {
		t.flushLocked()
	}
}

// Flush starts delivery of everything pending. It returns immediately.
func (t *Tracker) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.flushLocked()
}

func (t *Tracker) OnOnline() {
	t.mu.Lock()
	defer t.mu.Unlock()
	wasOffline := !t.online
	t.online = true
	if wasOffline && !t.closed {
		t.flushLocked()
	}
}

func (t *Tracker) OnOffline() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.online = false
}

// OnHidden is called when the page is backgrounded.
func (t *Tracker) OnHidden() {
	t.Flush()
}

// OnUnload is called when the page is about to go away. Delivery is
// attempted but not awaited; use Close to wait for it.
func (t *Tracker) OnUnload() {
	t.Flush()
}

// RouteChanged records a page view when the current path differs from the
// last one seen.
func (t *Tracker) RouteChanged() {
	path := pagePath(t.env.Location())

	t.mu.Lock()
	if path == t.lastPath || t.closed {
		t.mu.Unlock()
		return
	}
	t.lastPath = path
	t.mu.Unlock()

	t.PageView(path)
}

// Pending returns a copy of the events awaiting delivery.
func (t *Tracker) Pending() []domain.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Event, len(t.queue))
	copy(out, t.queue)
	return out
}

// Close flushes whatever is pending and waits for delivery until ctx is done.
// Outstanding deliveries are cancelled afterwards.
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.flushLocked()
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	t.cancelFn()
	<-done

	if err != nil {
		return err
	}
	if left := len(t.Pending()); left > 0 {
		return fmt.Errorf("%w: %d", ErrUndelivered, left)
	}
	return nil
}

// flushLocked must be called with t.mu held.
func (t *Tracker) flushLocked() {
	if len(t.queue) == 0 {
		return
	}
	if t.inFlight {
		t.followUp = true
		return
	}

	snapshot := t.queue
	t.queue = nil
	t.inFlight = true
	t.wg.Add(1)
	go t.deliver(snapshot)
}

// deliver sends one snapshot. Reporting happens while the delivery still
// counts as in flight, so the reporter sees batches one at a time in order.
func (t *Tracker) deliver(events []domain.Event) {
	defer t.wg.Done()

	err := t.sender.Send(t.ctx, events)
	if err == nil {
		t.report(events)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.inFlight = false
	if err != nil {
		t.logger.Warn().Err(err).Int("events", len(events)).Msg("Delivery failed, events re-queued.")
		t.queue = append(events, t.queue...)
		t.trimLocked()
	} else {
		t.logger.Debug().Int("events", len(events)).Msg("Batch delivered.")
	}
	if t.followUp {
		t.followUp = false
		t.flushLocked()
	}
}

func (t *Tracker) report(events []domain.Event) {
	if t.reporter == nil {
		return
	}
	for _, e := range events {
		if err := t.reporter.Report(t.ctx, e.Event, domain.NewReport(e)); err != nil {
			t.logger.Debug().Err(err).Str("event", e.Event).Msg("Secondary report failed.")
		}
	}
}

// trimLocked must be called with t.mu held.
func (t *Tracker) trimLocked() {
	if t.maxPending <= 0 || len(t.queue) <= t.maxPending {
		return
	}
	dropped := len(t.queue) - t.maxPending
	kept := make([]domain.Event, t.maxPending)
	copy(kept, t.queue[dropped:])
	t.queue = kept
	t.logger.Warn().Int("dropped", dropped).Int("max_pending", t.maxPending).Msg("Pending queue full, oldest events dropped.")
}

func (t *Tracker) enrich(props map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(props)+6+len(utmKeys))
	for k, v := range props {
		out[k] = v
	}

	loc := t.env.Location()
	referrer := t.env.Referrer()
	if referrer == "" {
		referrer = directReferrer
	}

	out["page"] = pagePath(loc)
	out["referrer"] = referrer
	out["userAgent"] = t.env.UserAgent()
	out["screenResolution"] = t.env.Screen().String()
	out["viewport"] = t.env.Viewport().String()
	out["timestamp"] = now.UnixMilli()

	query := loc.Query()
	for _, key := range utmKeys {
		if query.Has(key) {
			out[key] = query.Get(key)
		} else {
			out[key] = nil
		}
	}
	return out
}

func pagePath(loc url.URL) string {
	if loc.Path == "" {
		return "/"
	}
	return loc.Path
}
