package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/sevigo/change-warden/internal/config"
)

// NewProviderModel creates a provider client for the configured LLM provider.
func NewProviderModel(ctx context.Context, cfg *config.AIConfig, model string, logger *slog.Logger) (llms.Model, error) {
	switch cfg.LLMProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set in environment for gemini provider")
		}
		return gemini.New(ctx,
			gemini.WithModel(model),
			gemini.WithAPIKey(cfg.GeminiAPIKey),
		)
	case "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.OllamaHost),
			ollama.WithHTTPClient(newOllamaHTTPClient(cfg.RequestTimeout)),
			ollama.WithModel(model),
			ollama.WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}

// NewModelFactory returns a ModelFactory bound to cfg.
func NewModelFactory(cfg *config.AIConfig, logger *slog.Logger) ModelFactory {
	return func(ctx context.Context, model string) (llms.Model, error) {
		logger.Info("creating new LLM instance on the fly", "provider", cfg.LLMProvider, "model", model)
		return NewProviderModel(ctx, cfg, model, logger)
	}
}

func newOllamaHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
