package tracker

import (
	"context"

	"github.com/leshachaplin/medtrack/internal/domain"
)

// Reporter is a secondary reporting sink. It receives every event of a
// successfully delivered batch, one call per event.
type Reporter interface {
	Report(ctx context.Context, name string, r domain.Report) error
}

type ReporterFunc func(ctx context.Context, name string, r domain.Report) error

func (f ReporterFunc) Report(ctx context.Context, name string, r domain.Report) error {
	return f(ctx, name, r)
}

type Publisher interface {
	Publish(ctx context.Context, key string, msg any) error
}

// PublisherReporter forwards reports to a message topic keyed by event name.
type PublisherReporter struct {
	publisher Publisher
}

func NewPublisherReporter(publisher Publisher) *PublisherReporter {
	return &PublisherReporter{publisher: publisher}
}

type reportMessage struct {
	Event  string        `json:"event"`
	Params domain.Report `json:"params"`
}

func (r *PublisherReporter) Report(ctx context.Context, name string, rep domain.Report) error {
	return r.publisher.Publish(ctx, name, reportMessage{
		Event:  name,
		Params: rep,
	})
}
