package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/change-warden/internal/config"
	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/server/handler"
	"github.com/sevigo/change-warden/internal/storage"
)

const defaultRequestTimeout = 10 * time.Minute

// NewRouter creates and configures a new HTTP router with middleware and API routes.
func NewRouter(cfg *config.Config, submitter handler.ChangeSubmitter, dispatcher core.JobDispatcher,
	store storage.Store, ledger handler.LedgerReader, logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Configure middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout(cfg)))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		changes := handler.NewChangeHandler(cfg, submitter, dispatcher, logger)
		r.Post("/changes/{kind}", changes.Handle)

		reviews := handler.NewReviewHandler(store, ledger, logger)
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/merge-requests/{id}", reviews.GetMergeRequest)
			r.Get("/pushes", reviews.Pushes)
			r.Get("/svn/{ref}", reviews.GetSVNRevision)
			r.Get("/{kind}", reviews.List)
		})
		r.Get("/ledger", reviews.Ledger)
		r.Get("/stats", reviews.Stats)
	})

	return r
}

// requestTimeout falls back to the default, stretched to the review budget so
// a synchronous submission can run its full retry schedule.
func requestTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.RequestTimeout > 0 {
		return cfg.Server.RequestTimeout
	}
	return max(defaultRequestTimeout, cfg.ReviewBudget())
}
