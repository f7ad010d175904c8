// Package server implements the HTTP server for the application.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sevigo/change-warden/internal/config"
	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/jobs"
	"github.com/sevigo/change-warden/internal/ledger"
	"github.com/sevigo/change-warden/internal/storage"
)

// Server wraps an HTTP server with graceful shutdown capabilities.
type Server struct {
	ctx    context.Context
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server. Synchronous reviews may take as long as
// the configured request timeout, so the write timeout is derived from it.
func NewServer(ctx context.Context, cfg *config.Config, job *jobs.ReviewJob, dispatcher core.JobDispatcher,
	store storage.Store, l *ledger.Ledger, logger *slog.Logger,
) *Server {
	router := NewRouter(cfg, job, dispatcher, store, l, logger)

	return &Server{
		ctx: ctx,
		server: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: requestTimeout(cfg) + 10*time.Second,
			IdleTimeout:  120 * time.Second,
			BaseContext:  func(_ net.Listener) context.Context { return ctx },
		},
		logger: logger,
	}
}

// Start starts the HTTP server and blocks until shutdown or error.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server with a 30-second timeout.
func (s *Server) Stop() error {
	s.logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
