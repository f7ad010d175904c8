// Package app assembles the long-running change-warden service and the
// lighter toolkit used by the operator CLI.
package app

import (
	"log/slog"

	"github.com/sevigo/change-warden/internal/config"
	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/db"
	"github.com/sevigo/change-warden/internal/ledger"
	"github.com/sevigo/change-warden/internal/server"
	"github.com/sevigo/change-warden/internal/storage"
)

// App holds the main application components.
type App struct {
	cfg        *config.Config
	server     *server.Server
	dispatcher core.JobDispatcher
	logger     *slog.Logger
}

// NewApp creates the service application. The database pool is owned by the
// injector's cleanup function.
func NewApp(cfg *config.Config, srv *server.Server, dispatcher core.JobDispatcher, logger *slog.Logger) *App {
	return &App{
		cfg:        cfg,
		server:     srv,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start runs the HTTP server.
func (a *App) Start() error {
	a.logger.Info("starting change-warden",
		"server_port", a.cfg.Server.Port,
		"db_driver", a.cfg.Database.Driver,
		"llm_provider", a.cfg.AI.LLMProvider,
		"model", a.cfg.AI.GeneratorModel,
		"max_workers", a.cfg.MaxWorkers)

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.logger.Info("shutting down change-warden services")

	// Stop the HTTP server first to prevent new incoming requests.
	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	// Queued changes are still reviewed before the workers exit.
	a.dispatcher.Stop()

	if serverErr != nil {
		return serverErr
	}
	a.logger.Info("change-warden stopped successfully")
	return nil
}

// Toolkit is the read side of the service plus the migration handle. It needs
// no model provider, so operators can inspect results without credentials.
type Toolkit struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *db.DB
	Store  storage.Store
	Ledger *ledger.Ledger
}

// NewToolkit groups the storage components for the CLI.
func NewToolkit(cfg *config.Config, logger *slog.Logger, conn *db.DB, store storage.Store, l *ledger.Ledger) *Toolkit {
	return &Toolkit{Config: cfg, Logger: logger, DB: conn, Store: store, Ledger: l}
}
