package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sevigo/goframe/llms"
)

//go:generate mockgen -destination=../../mocks/mock_completer.go -package=mocks github.com/sevigo/change-warden/internal/llm Completer

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a completion request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Completer is the calling contract of the model provider. An empty model
// selects the configured default.
type Completer interface {
	Completions(ctx context.Context, messages []Message, model string) (string, error)
}

// ModelFactory builds a provider client for a model name.
type ModelFactory func(ctx context.Context, model string) (llms.Model, error)

type modelCompleter struct {
	defaultName string
	factory     ModelFactory

	mu     sync.Mutex
	models map[string]llms.Model
}

// NewModelCompleter adapts a provider model to Completer. Overrides are built
// with factory on first use and cached.
func NewModelCompleter(model llms.Model, defaultName string, factory ModelFactory) Completer {
	return &modelCompleter{
		defaultName: defaultName,
		factory:     factory,
		models:      map[string]llms.Model{defaultName: model},
	}
}

func (c *modelCompleter) Completions(ctx context.Context, messages []Message, model string) (string, error) {
	m, err := c.getOrCreateLLM(ctx, model)
	if err != nil {
		return "", err
	}
	return m.Call(ctx, RenderMessages(messages))
}

func (c *modelCompleter) getOrCreateLLM(ctx context.Context, name string) (llms.Model, error) {
	if name == "" {
		name = c.defaultName
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.models[name]; ok {
		return m, nil
	}
	if c.factory == nil {
		return nil, newGatewayError(ClassNotFound, fmt.Errorf("model %q is not configured", name))
	}
	m, err := c.factory(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create model %q: %w", name, err)
	}
	c.models[name] = m
	return m, nil
}

// RenderMessages flattens a conversation into a single prompt for providers
// that take one text input.
func RenderMessages(messages []Message) string {
	var b strings.Builder
	for i, m := range messages {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		if i > 0 && b.Len() > 0 {
			b.WriteString("\n\n")
		}
		switch m.Role {
		case RoleSystem:
			b.WriteString(content)
		case RoleAssistant:
			b.WriteString("Assistant:\n")
			b.WriteString(content)
		default:
			b.WriteString("User:\n")
			b.WriteString(content)
		}
	}
	return b.String()
}
