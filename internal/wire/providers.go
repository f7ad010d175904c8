package wire

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/wire"
	"github.com/jmoiron/sqlx"
	"github.com/sevigo/goframe/llms"

	"github.com/sevigo/change-warden/internal/app"
	"github.com/sevigo/change-warden/internal/config"
	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/db"
	"github.com/sevigo/change-warden/internal/jobs"
	"github.com/sevigo/change-warden/internal/ledger"
	"github.com/sevigo/change-warden/internal/llm"
	"github.com/sevigo/change-warden/internal/logger"
	"github.com/sevigo/change-warden/internal/server"
	"github.com/sevigo/change-warden/internal/storage"
)

// StorageSet provides configuration, logging, the database and its readers.
var StorageSet = wire.NewSet(
	config.LoadConfig,
	provideLogger,
	provideDBConfig,
	db.NewDatabase,
	provideSQLX,
	storage.NewStore,
	ledger.New,
)

// ReviewSet provides the model gateway and the review orchestrator.
var ReviewSet = wire.NewSet(
	StorageSet,
	provideAIConfig,
	provideProjectRules,
	provideGeneratorLLM,
	provideCompleter,
	llm.NewPromptManager,
	llm.NewGateway,
	wire.Bind(new(llm.Reviewer), new(*llm.Gateway)),
	jobs.NewReviewJob,
)

// AppSet provides the full service.
var AppSet = wire.NewSet(
	ReviewSet,
	wire.Bind(new(core.Job), new(*jobs.ReviewJob)),
	jobs.NewDispatcher,
	server.NewServer,
	app.NewApp,
)

func provideLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	out, closeOut, err := logger.OpenOutput(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	l := logger.NewLogger(cfg.Logging, out)
	slog.SetDefault(l)
	return l, closeOut, nil
}

func provideDBConfig(cfg *config.Config) *config.DBConfig {
	return &cfg.Database
}

func provideSQLX(conn *db.DB) *sqlx.DB {
	return conn.DB
}

func provideAIConfig(cfg *config.Config) *config.AIConfig {
	return &cfg.AI
}

func provideProjectRules(cfg *config.Config, logger *slog.Logger) (*core.RulesFile, error) {
	rules, err := config.LoadProjectRules(cfg.Review.ProjectRulesPath)
	if errors.Is(err, config.ErrConfigNotFound) {
		logger.Warn("project rules file not found, using defaults", "path", cfg.Review.ProjectRulesPath)
		return rules, nil
	}
	return rules, err
}

func provideGeneratorLLM(ctx context.Context, ai *config.AIConfig, logger *slog.Logger) (llms.Model, error) {
	logger.Info("connecting to generator LLM", "provider", ai.LLMProvider, "model", ai.GeneratorModel)
	return llm.NewProviderModel(ctx, ai, ai.GeneratorModel, logger)
}

func provideCompleter(model llms.Model, ai *config.AIConfig, logger *slog.Logger) llm.Completer {
	return llm.NewModelCompleter(model, ai.GeneratorModel, llm.NewModelFactory(ai, logger))
}
