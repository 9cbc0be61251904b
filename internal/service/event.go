package service

import (
	"errors"
	"fmt"

	"github.com/leshachaplin/medtrack/internal/domain"
)

var (
	ErrEmptyBatch   = errors.New("batch has no events")
	ErrInvalidEvent = errors.New("invalid event")
)

type Event interface {
	ProcessEvents(batch domain.EventBatch)
}

// EventError points at the offending event of a batch.
type EventError struct {
	Index  int
	Reason string
}

func (e *EventError) Error() string {
	return fmt.Sprintf("event %d: %s", e.Index, e.Reason)
}

func (e *EventError) Unwrap() error {
	return ErrInvalidEvent
}

// ValidateBatch checks the required fields and normalizes properties in place.
func ValidateBatch(batch *domain.Batch) error {
	if len(batch.Events) == 0 {
		return ErrEmptyBatch
	}

	for i := range batch.Events {
		e := &batch.Events[i]
		switch {
		case e.Event == "":
			return &EventError{Index: i, Reason: "event name is required"}
		case e.Timestamp <= 0:
			return &EventError{Index: i, Reason: "timestamp must be positive"}
		case e.SessionID == "":
			return &EventError{Index: i, Reason: "sessionId is required"}
		}
		e.Normalize()
	}
	return nil
}

func (s *Service) ProcessEvents(batch domain.EventBatch) {
	s.logger.Debug().
		Str("batch_id", batch.ID).
		Str("ip", batch.IP).
		Int("events", len(batch.Events)).
		Msg("ProcessEvents")

	s.eventPool.Process(batch)
}
