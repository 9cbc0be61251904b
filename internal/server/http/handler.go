package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog"

	"github.com/leshachaplin/medtrack/internal/apierror"
	"github.com/leshachaplin/medtrack/internal/service"
)

const defaultMaxBodyBytes = 1 << 20

type Handler struct {
	eventProcessor service.Event
	maxBodyBytes   int64
	logger         zerolog.Logger
}

func NewHandler(eventProcessor service.Event, maxBodySizeMB int, logger zerolog.Logger) *Handler {
	maxBodyBytes := int64(defaultMaxBodyBytes)
	if maxBodySizeMB > 0 {
		maxBodyBytes = int64(maxBodySizeMB) << 20
	}

	return &Handler{
		eventProcessor: eventProcessor,
		maxBodyBytes:   maxBodyBytes,
		logger:         logger,
	}
}

func (h *Handler) error(err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	var apiErr apierror.Error
	if !errors.As(err, &apiErr) {
		apiErr = apierror.NewAPIError(err.Error(), http.StatusInternalServerError)
	}

	w.WriteHeader(apiErr.StatusCode())
	if err = json.NewEncoder(w).Encode(apiErr); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode api error")
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		h.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
