package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "ollama", cfg.AI.LLMProvider)
	assert.Equal(t, "gemma3:latest", cfg.AI.GeneratorModel)
	assert.Equal(t, 3, cfg.Review.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Review.BackoffBase)
	assert.Contains(t, cfg.Review.SupportedExtensions, ".go")
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.MaxWorkers)
	assert.GreaterOrEqual(t, cfg.Server.RequestTimeout, cfg.ReviewBudget())
}

func TestConfig_ReviewBudget(t *testing.T) {
	cfg := Config{
		AI: AIConfig{RequestTimeout: 3 * time.Minute},
		Review: ReviewConfig{
			MaxAttempts: 4,
			BackoffBase: 2 * time.Second,
			BackoffMax:  5 * time.Second,
		},
	}
	// 4 calls plus backoff of 2s, 4s and 5s (capped).
	assert.Equal(t, 12*time.Minute+11*time.Second, cfg.ReviewBudget())

	cfg.AI.RequestTimeout = 0
	assert.Zero(t, cfg.ReviewBudget())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_SQLITE_PATH", "/tmp/reviews.db")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("REVIEW_MAX_ATTEMPTS", "5")
	t.Setenv("SUPPORTED_EXTENSIONS", ".go, .rs ,")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/reviews.db", cfg.Database.SQLitePath)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.GeneratorModel)
	assert.Equal(t, 5, cfg.Review.MaxAttempts)
	assert.Equal(t, []string{".go", ".rs"}, cfg.Review.SupportedExtensions)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DBConfig{Driver: DriverPostgres, Database: "warden"},
			AI:       AIConfig{LLMProvider: "ollama", GeneratorModel: "gemma3"},
			Review:   ReviewConfig{MaxAttempts: 3},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "Valid config", mutate: func(_ *Config) {}},
		{name: "Unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "Sqlite without path", mutate: func(c *Config) { c.Database.Driver = DriverSQLite }, wantErr: true},
		{name: "Unknown provider", mutate: func(c *Config) { c.AI.LLMProvider = "openai" }, wantErr: true},
		{name: "Zero attempts", mutate: func(c *Config) { c.Review.MaxAttempts = 0 }, wantErr: true},
		{name: "Negative backoff", mutate: func(c *Config) { c.Review.BackoffBase = -time.Second }, wantErr: true},
		{
			name: "Request timeout shorter than retry budget",
			mutate: func(c *Config) {
				c.Server.RequestTimeout = 5 * time.Minute
				c.AI.RequestTimeout = 3 * time.Minute
				c.Review.BackoffBase = 2 * time.Second
			},
			wantErr: true,
		},
		{
			name: "Request timeout covers retry budget",
			mutate: func(c *Config) {
				c.Server.RequestTimeout = 10 * time.Minute
				c.AI.RequestTimeout = 3 * time.Minute
				c.Review.BackoffBase = 2 * time.Second
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadProjectRules(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty path", func(t *testing.T) {
		rules, err := LoadProjectRules("")
		require.NoError(t, err)
		assert.Empty(t, rules.Projects)
	})

	t.Run("missing file", func(t *testing.T) {
		rules, err := LoadProjectRules(filepath.Join(dir, "missing.yml"))
		assert.ErrorIs(t, err, ErrConfigNotFound)
		require.NotNil(t, rules)
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "rules.yml")
		content := "projects:\n  Demo:\n    custom_instructions:\n      - Focus on SQL injection\n    supported_extensions: [go, .sql]\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		rules, err := LoadProjectRules(path)
		require.NoError(t, err)
		demo := rules.For("demo")
		assert.Equal(t, []string{"Focus on SQL injection"}, demo.CustomInstructions)
		assert.Equal(t, []string{"go", ".sql"}, demo.SupportedExtensions)
		assert.Empty(t, rules.For("other").CustomInstructions)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yml")
		require.NoError(t, os.WriteFile(path, []byte("projects: [unclosed"), 0o600))

		_, err := LoadProjectRules(path)
		assert.ErrorIs(t, err, ErrConfigParsing)
	})
}
