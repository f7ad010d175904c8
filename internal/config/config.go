package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/change-warden/internal/logger"
)

// Config holds the application's configuration values. It is loaded once at
// startup and passed to every component that needs it.
type Config struct {
	Server     ServerConfig
	Database   DBConfig
	AI         AIConfig
	Review     ReviewConfig
	Logging    logger.Config
	MaxWorkers int
	QueueSize  int
}

// ServerConfig configures the HTTP ingestion API.
type ServerConfig struct {
	Port           string
	WebhookSecret  string
	RequestTimeout time.Duration
}

// DBConfig configures the result store and the ledger database.
type DBConfig struct {
	Driver          string
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// AIConfig configures the LLM gateway.
type AIConfig struct {
	LLMProvider       string
	OllamaHost        string
	GeminiAPIKey      string
	GeneratorModel    string
	RequestTimeout    time.Duration
	RequestsPerMinute int
	MaxDiffChars      int
}

// ReviewConfig configures the orchestrator.
type ReviewConfig struct {
	MaxAttempts         int
	BackoffBase         time.Duration
	BackoffMax          time.Duration
	SupportedExtensions []string
	ProjectRulesPath    string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const defaultSupportedExtensions = ".java,.py,.php,.yml,.vue,.go,.c,.cpp,.h,.js,.css,.md,.sql"

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			slog.Error("failed to read config file", "error", err)
		}
	}

	generatorModel := viper.GetString("GENERATOR_MODEL_NAME")
	if viper.GetString("LLM_PROVIDER") == "gemini" {
		if geminiModel := viper.GetString("GEMINI_GENERATOR_MODEL_NAME"); geminiModel != "" {
			generatorModel = geminiModel
		} else {
			generatorModel = "gemini-2.5-flash"
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			WebhookSecret:  viper.GetString("SERVER_WEBHOOK_SECRET"),
			RequestTimeout: viper.GetDuration("SERVER_REQUEST_TIMEOUT"),
		},
		Database: DBConfig{
			Driver:          strings.ToLower(viper.GetString("DB_DRIVER")),
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			Username:        viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Database:        viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			SQLitePath:      viper.GetString("DB_SQLITE_PATH"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: viper.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
		AI: AIConfig{
			LLMProvider:       strings.ToLower(viper.GetString("LLM_PROVIDER")),
			OllamaHost:        viper.GetString("OLLAMA_HOST"),
			GeminiAPIKey:      viper.GetString("GEMINI_API_KEY"),
			GeneratorModel:    generatorModel,
			RequestTimeout:    viper.GetDuration("LLM_REQUEST_TIMEOUT"),
			RequestsPerMinute: viper.GetInt("LLM_REQUESTS_PER_MINUTE"),
			MaxDiffChars:      viper.GetInt("LLM_MAX_DIFF_CHARS"),
		},
		Review: ReviewConfig{
			MaxAttempts:         viper.GetInt("REVIEW_MAX_ATTEMPTS"),
			BackoffBase:         viper.GetDuration("REVIEW_BACKOFF_BASE"),
			BackoffMax:          viper.GetDuration("REVIEW_BACKOFF_MAX"),
			SupportedExtensions: splitList(viper.GetString("SUPPORTED_EXTENSIONS")),
			ProjectRulesPath:    viper.GetString("PROJECT_RULES_PATH"),
		},
		Logging: logger.Config{
			Level:  parseLogLevel(viper.GetString("LOG_LEVEL")),
			Format: viper.GetString("LOG_FORMAT"),
			Output: viper.GetString("LOG_OUTPUT"),
		},
		MaxWorkers: viper.GetInt("MAX_WORKERS"),
		QueueSize:  viper.GetInt("QUEUE_SIZE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_REQUEST_TIMEOUT", "10m")
	viper.SetDefault("DB_DRIVER", DriverPostgres)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "warden")
	viper.SetDefault("DB_NAME", "change_warden")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_SQLITE_PATH", "data/change-warden.db")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 10)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")
	viper.SetDefault("LLM_PROVIDER", "ollama")
	viper.SetDefault("OLLAMA_HOST", "http://localhost:11434")
	viper.SetDefault("GENERATOR_MODEL_NAME", "gemma3:latest")
	viper.SetDefault("LLM_REQUEST_TIMEOUT", "3m")
	viper.SetDefault("LLM_REQUESTS_PER_MINUTE", 30)
	viper.SetDefault("LLM_MAX_DIFF_CHARS", 60000)
	viper.SetDefault("REVIEW_MAX_ATTEMPTS", 3)
	viper.SetDefault("REVIEW_BACKOFF_BASE", "2s")
	viper.SetDefault("REVIEW_BACKOFF_MAX", "30s")
	viper.SetDefault("SUPPORTED_EXTENSIONS", defaultSupportedExtensions)
	viper.SetDefault("PROJECT_RULES_PATH", "")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_OUTPUT", "stdout")
	viper.SetDefault("MAX_WORKERS", 5)
	viper.SetDefault("QUEUE_SIZE", 100)
}

// Validate checks the values LoadConfig cannot default away.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Database == "" {
			return fmt.Errorf("DB_NAME must be set for the postgres driver")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("DB_SQLITE_PATH must be set for the sqlite3 driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (expected %q or %q)", c.Database.Driver, DriverPostgres, DriverSQLite)
	}

	switch c.AI.LLMProvider {
	case "ollama", "gemini":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.AI.LLMProvider)
	}
	if c.AI.GeneratorModel == "" {
		return fmt.Errorf("GENERATOR_MODEL_NAME must be set")
	}

	if c.Review.MaxAttempts < 1 {
		return fmt.Errorf("REVIEW_MAX_ATTEMPTS must be at least 1, got %d", c.Review.MaxAttempts)
	}
	if c.Review.BackoffBase < 0 || c.Review.BackoffMax < 0 {
		return fmt.Errorf("review backoff durations must not be negative")
	}

	// A synchronous request that times out before the retry budget is spent
	// would cut every persistent provider outage short.
	if budget := c.ReviewBudget(); c.Server.RequestTimeout > 0 && c.Server.RequestTimeout < budget {
		return fmt.Errorf("SERVER_REQUEST_TIMEOUT (%s) is shorter than the worst-case review time of %s (REVIEW_MAX_ATTEMPTS x LLM_REQUEST_TIMEOUT plus backoff)",
			c.Server.RequestTimeout, budget)
	}
	return nil
}

// ReviewBudget is the longest one review may take: every attempt running into
// the LLM timeout plus the backoff between attempts. It is zero when the LLM
// calls have no timeout.
func (c *Config) ReviewBudget() time.Duration {
	if c.AI.RequestTimeout <= 0 {
		return 0
	}
	budget := time.Duration(c.Review.MaxAttempts) * c.AI.RequestTimeout
	delay := c.Review.BackoffBase
	for i := 1; i < c.Review.MaxAttempts && delay > 0; i++ {
		if c.Review.BackoffMax > 0 && delay > c.Review.BackoffMax {
			delay = c.Review.BackoffMax
		}
		budget += delay
		delay *= 2
	}
	return budget
}

// parseLogLevel normalizes the LOG_LEVEL value, warning on unknown input.
func parseLogLevel(s string) string {
	level := strings.ToLower(strings.TrimSpace(s))
	switch level {
	case "debug", "info", "warn", "error":
		return level
	default:
		slog.Warn("unrecognized log level, defaulting to info", "provided", s)
		return "info"
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
