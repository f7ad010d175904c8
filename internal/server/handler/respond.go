// Package handler provides HTTP handlers for the change-warden API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/jobs"
	"github.com/sevigo/change-warden/internal/llm"
	"github.com/sevigo/change-warden/internal/storage"
)

type errorResponse struct {
	Error  string       `json:"error"`
	Class  string       `json:"class,omitempty"`
	Result *jobs.Result `json:"result,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy to an HTTP status and a short class name.
func statusFor(err error) (int, string) {
	if class, ok := llm.ClassOf(err); ok {
		return http.StatusBadGateway, string(class)
	}
	switch {
	case errors.Is(err, core.ErrMalformedEvent):
		return http.StatusBadRequest, "malformed_event"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, jobs.ErrQueueFull), errors.Is(err, jobs.ErrDispatcherStopped):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, storage.ErrStorage):
		return http.StatusInternalServerError, "storage"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error, res *jobs.Result) {
	status, class := statusFor(err)
	msg := err.Error()

	var gwErr *llm.GatewayError
	switch {
	case errors.As(err, &gwErr):
		msg = gwErr.Message
	case status == http.StatusInternalServerError:
		logger.Error("request failed", "error", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg, Class: class, Result: res})
}
