package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/ledger"
	"github.com/sevigo/change-warden/internal/storage"
)

// LedgerReader exposes the read side of the review ledger.
type LedgerReader interface {
	Recent(ctx context.Context, project string, limit int) ([]core.LedgerEntry, error)
	Stats(ctx context.Context) (*ledger.Stats, error)
}

// ReviewHandler serves stored reviews, the ledger and aggregate statistics.
type ReviewHandler struct {
	store  storage.Store
	ledger LedgerReader
	logger *slog.Logger
}

// NewReviewHandler creates a new review query handler.
func NewReviewHandler(store storage.Store, ledger LedgerReader, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{store: store, ledger: ledger, logger: logger}
}

type statsResponse struct {
	Reviews *storage.Stats `json:"reviews"`
	Ledger  *ledger.Stats  `json:"ledger"`
}

// GetMergeRequest serves GET /reviews/merge-requests/{id}.
func (h *ReviewHandler) GetMergeRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid review id", http.StatusBadRequest)
		return
	}
	review, err := h.store.MergeRequests().GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// Pushes serves GET /reviews/pushes. With a commit parameter it returns the
// newest push whose head commit matches; otherwise it lists push reviews.
func (h *ReviewHandler) Pushes(w http.ResponseWriter, r *http.Request) {
	commit := strings.TrimSpace(r.URL.Query().Get("commit"))
	if commit == "" {
		h.list(w, r, core.KindPush)
		return
	}
	review, err := h.store.Pushes().FindByCommit(r.Context(), commit)
	if err != nil {
		writeError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// GetSVNRevision serves GET /reviews/svn/{ref}?project=, where ref is a
// revision number or a content digest. Without project the newest review of
// that revision across all repositories is returned.
func (h *ReviewHandler) GetSVNRevision(w http.ResponseWriter, r *http.Request) {
	project := r.URL.Query().Get("project")
	review, err := h.store.SVNRevisions().FindByRevisionOrDigest(r.Context(), project, chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// List serves GET /reviews/{kind}.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseSourceKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	h.list(w, r, kind)
}

func (h *ReviewHandler) list(w http.ResponseWriter, r *http.Request, kind core.SourceKind) {
	f, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var reviews any
	switch kind {
	case core.KindMergeRequest:
		reviews, err = h.store.MergeRequests().List(r.Context(), f)
	case core.KindPush:
		reviews, err = h.store.Pushes().List(r.Context(), f)
	case core.KindSVNRevision:
		reviews, err = h.store.SVNRevisions().List(r.Context(), f)
	}
	if err != nil {
		writeError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// Ledger serves GET /ledger.
func (h *ReviewHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entries, err := h.ledger.Recent(r.Context(), r.URL.Query().Get("project"), limit)
	if err != nil {
		writeError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Stats serves GET /stats.
func (h *ReviewHandler) Stats(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.store.Stats(r.Context())
	if err != nil {
		writeError(w, h.logger, err, nil)
		return
	}
	ledgerStats, err := h.ledger.Stats(r.Context())
	if err != nil {
		writeError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Reviews: reviews, Ledger: ledgerStats})
}

// parseFilter reads author, project, since, until, min_score, max_score and
// limit. Author and project may repeat or be comma separated.
func parseFilter(r *http.Request) (storage.Filter, error) {
	q := r.URL.Query()
	f := storage.Filter{
		Authors:  splitValues(q["author"]),
		Projects: splitValues(q["project"]),
	}

	var err error
	if f.Since, err = timeParam(r, "since"); err != nil {
		return f, err
	}
	if f.Until, err = timeParam(r, "until"); err != nil {
		return f, err
	}
	for name, dst := range map[string]**int{"min_score": &f.MinScore, "max_score": &f.MaxScore} {
		if q.Get(name) == "" {
			continue
		}
		v, err := intParam(r, name)
		if err != nil {
			return f, err
		}
		*dst = &v
	}
	if f.Limit, err = intParam(r, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

// timeParam accepts RFC 3339 timestamps or plain dates.
func timeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s: %q (expected RFC 3339 or YYYY-MM-DD)", name, raw)
}
