package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/leshachaplin/medtrack/internal/apierror"
	"github.com/leshachaplin/medtrack/internal/domain"
	"github.com/leshachaplin/medtrack/internal/service"
)

type acceptedResponse struct {
	ID       string `json:"id"`
	Accepted int    `json:"accepted"`
}

// Event accepts a batch from the tracker and hands it off without waiting for storage.
func (h *Handler) Event(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var batch domain.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.error(apierror.NewAPIError("request body exceeds maximum allowed size", http.StatusRequestEntityTooLarge).
				WithDetail("max_bytes", maxErr.Limit), w)
			return
		}
		h.error(apierror.NewAPIError("invalid JSON body", http.StatusBadRequest), w)
		return
	}

	if err := service.ValidateBatch(&batch); err != nil {
		apiErr := apierror.NewAPIError(err.Error(), http.StatusBadRequest)
		var eventErr *service.EventError
		if errors.As(err, &eventErr) {
			apiErr = apiErr.WithDetail("index", eventErr.Index)
		}
		h.error(apiErr, w)
		return
	}

	eventBatch := domain.EventBatch{Events: batch.Events}
	eventBatch.EnrichWith(uuid.NewString(), getClientIP(r), time.Now().UTC())
	go h.eventProcessor.ProcessEvents(eventBatch)

	if err := encodeJSONResponse(w, http.StatusAccepted, acceptedResponse{
		ID:       eventBatch.ID,
		Accepted: len(eventBatch.Events),
	}); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}
