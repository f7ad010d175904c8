package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-github/v73/github"

	"github.com/sevigo/change-warden/internal/config"
	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/jobs"
)

const maxPayloadBytes = 25 << 20

var errBadSignature = errors.New("invalid payload signature")

// ChangeSubmitter normalizes and reviews raw change events.
type ChangeSubmitter interface {
	Normalize(kind core.SourceKind, payload []byte) (*core.Change, error)
	Submit(ctx context.Context, kind core.SourceKind, payload []byte) (*jobs.Result, error)
}

// ChangeHandler accepts change events from repository integrations.
type ChangeHandler struct {
	cfg        *config.Config
	submitter  ChangeSubmitter
	dispatcher core.JobDispatcher
	logger     *slog.Logger
}

// NewChangeHandler creates a new change handler.
func NewChangeHandler(cfg *config.Config, submitter ChangeSubmitter, dispatcher core.JobDispatcher, logger *slog.Logger) *ChangeHandler {
	return &ChangeHandler{
		cfg:        cfg,
		submitter:  submitter,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

type acceptedResponse struct {
	Status string             `json:"status"`
	Kind   core.SourceKind    `json:"kind"`
	Digest core.ContentDigest `json:"digest"`
}

// Handle processes POST /changes/{kind}. Reviews run synchronously unless
// the async query parameter is set.
func (h *ChangeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseSourceKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, h.logger, &core.MalformedEventError{Kind: core.SourceKind(chi.URLParam(r, "kind")), Field: "kind", Reason: "unsupported source kind"}, nil)
		return
	}

	payload, err := h.readPayload(r)
	if err != nil {
		h.logger.Warn("rejected change payload", "kind", kind, "error", err)
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, errBadSignature):
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
		case errors.As(err, &tooLarge):
			http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
		default:
			http.Error(w, "Could not read payload", http.StatusBadRequest)
		}
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		h.dispatch(w, r, kind, payload)
		return
	}

	res, err := h.submitter.Submit(r.Context(), kind, payload)
	if err != nil {
		writeError(w, h.logger, err, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ChangeHandler) dispatch(w http.ResponseWriter, r *http.Request, kind core.SourceKind, payload []byte) {
	change, err := h.submitter.Normalize(kind, payload)
	if err != nil {
		writeError(w, h.logger, err, nil)
		return
	}
	if err := h.dispatcher.Dispatch(r.Context(), change); err != nil {
		h.logger.Error("failed to dispatch review job", "error", err, "project", change.ProjectName)
		writeError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusAccepted, acceptedResponse{
		Status: "accepted",
		Kind:   kind,
		Digest: change.Digest(),
	})
}

// readPayload reads the request body, verifying its HMAC signature when a
// webhook secret is configured.
func (h *ChangeHandler) readPayload(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxPayloadBytes)
	if secret := h.cfg.Server.WebhookSecret; secret != "" {
		if r.Header.Get("Content-Type") == "" {
			r.Header.Set("Content-Type", "application/json")
		}
		payload, err := github.ValidatePayload(r, []byte(secret))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", errBadSignature, err)
		}
		return payload, nil
	}
	return io.ReadAll(r.Body)
}
