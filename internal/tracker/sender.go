package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/leshachaplin/medtrack/internal/domain"
)

var ErrUnexpectedStatus = errors.New("unexpected status code")

// Sender delivers one batch to the ingestion endpoint.
type Sender interface {
	Send(ctx context.Context, events []domain.Event) error
}

type SenderFunc func(ctx context.Context, events []domain.Event) error

func (f SenderFunc) Send(ctx context.Context, events []domain.Event) error {
	return f(ctx, events)
}

type HTTPSender struct {
	endpoint string
	client   *retryablehttp.Client
}

func NewHTTPSender(cfg SenderConfig, logger zerolog.Logger) *HTTPSender {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.Logger = retryLogger{logger: logger}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client.HTTPClient.Timeout = defaultSendTimeout
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	return &HTTPSender{
		endpoint: endpoint,
		client:   client,
	}
}

func (s *HTTPSender) Send(ctx context.Context, events []domain.Event) error {
	body, err := json.Marshal(domain.Batch{Events: events})
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, body)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
	}
	return nil
}

// retryLogger adapts zerolog to retryablehttp.LeveledLogger.
type retryLogger struct {
	logger zerolog.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Trace().Fields(keysAndValues).Msg(msg)
}
