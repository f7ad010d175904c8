package llm_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	ollamaapi "github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/change-warden/internal/config"
	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/llm"
	"github.com/sevigo/change-warden/mocks"
)

func newGateway(t *testing.T, completer llm.Completer, cfg *config.AIConfig, rules *core.RulesFile) *llm.Gateway {
	t.Helper()
	pm, err := llm.NewPromptManager()
	require.NoError(t, err)
	if cfg == nil {
		cfg = &config.AIConfig{LLMProvider: "gemini", GeneratorModel: "test-model", MaxDiffChars: 10000}
	}
	return llm.NewGateway(completer, pm, rules, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func demoChange() *core.Change {
	return &core.Change{
		Kind:           core.KindPush,
		ProjectName:    "demo",
		Author:         "alice",
		Branch:         "main",
		CommitMessages: []string{"add x"},
		Files:          []core.FileChange{{Path: "a.go", Diff: "+x", Additions: 1}},
		Additions:      1,
	}
}

func TestGateway_ReviewSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)

	rules := &core.RulesFile{Projects: map[string]core.ProjectRules{
		"Demo": {CustomInstructions: []string{"Flag any use of panic."}},
	}}
	gw := newGateway(t, completer, nil, rules)

	completer.EXPECT().
		Completions(gomock.Any(), gomock.Any(), "").
		DoAndReturn(func(_ context.Context, messages []llm.Message, _ string) (string, error) {
			require.Len(t, messages, 2)
			assert.Equal(t, llm.RoleSystem, messages[0].Role)
			assert.Contains(t, messages[0].Content, "Flag any use of panic.")
			assert.Equal(t, llm.RoleUser, messages[1].Role)
			assert.Contains(t, messages[1].Content, "Project: demo")
			assert.Contains(t, messages[1].Content, "--- File: a.go ---")
			assert.Contains(t, messages[1].Content, "add x")
			return "<think>hmm</think>\n## Summary\nFine.\nTotal score: 91", nil
		})

	outcome, err := gw.Review(context.Background(), demoChange())
	require.NoError(t, err)
	assert.Equal(t, "## Summary\nFine.\nTotal score: 91", outcome.Text)
	assert.Equal(t, 91, outcome.Score)
	assert.True(t, outcome.Scored)
	assert.Equal(t, "test-model", outcome.Model)
}

func TestGateway_ReviewClassifiesFailures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		response  string
		wantClass llm.ErrorClass
		wantIs    error
	}{
		{name: "ollama 401", err: ollamaapi.StatusError{StatusCode: 401, Status: "401 Unauthorized"}, wantClass: llm.ClassAuthentication, wantIs: llm.ErrAuthentication},
		{name: "wrapped ollama 404", err: fmt.Errorf("call: %w", ollamaapi.StatusError{StatusCode: 404, ErrorMessage: "model missing"}), wantClass: llm.ClassNotFound, wantIs: llm.ErrNotFound},
		{name: "ollama 503", err: ollamaapi.StatusError{StatusCode: 503}, wantClass: llm.ClassTransient, wantIs: llm.ErrTransient},
		{name: "api key text", err: errors.New("Error 400, Message: API key not valid. Please pass a valid API key."), wantClass: llm.ClassAuthentication, wantIs: llm.ErrAuthentication},
		{name: "model not found text", err: errors.New(`model "llama9" not found, try pulling it first`), wantClass: llm.ClassNotFound, wantIs: llm.ErrNotFound},
		{name: "rate limit text", err: errors.New("Error 429, Message: Resource has been exhausted (e.g. check quota)."), wantClass: llm.ClassTransient, wantIs: llm.ErrTransient},
		{name: "5xx mentioning authentication", err: errors.New("Error 503, Message: authentication backend unavailable"), wantClass: llm.ClassTransient, wantIs: llm.ErrTransient},
		{name: "unknown error", err: errors.New("something odd"), wantClass: llm.ClassTransient, wantIs: llm.ErrTransient},
		{name: "empty response", response: "   ", wantClass: llm.ClassEmptyResponse, wantIs: llm.ErrEmptyResponse},
		{name: "only reasoning", response: "<think>...</think>", wantClass: llm.ClassEmptyResponse, wantIs: llm.ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			completer := mocks.NewMockCompleter(ctrl)
			completer.EXPECT().Completions(gomock.Any(), gomock.Any(), gomock.Any()).Return(tt.response, tt.err)

			_, err := newGateway(t, completer, nil, nil).Review(context.Background(), demoChange())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantIs)

			class, ok := llm.ClassOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantClass, class)
			assert.Equal(t, tt.wantClass == llm.ClassTransient, class.Retryable())

			var gwErr *llm.GatewayError
			require.ErrorAs(t, err, &gwErr)
			assert.NotEmpty(t, gwErr.Message)
		})
	}
}

func TestGateway_ReviewTimeoutIsTransient(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	completer.EXPECT().Completions(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ []llm.Message, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

	cfg := &config.AIConfig{LLMProvider: "ollama", GeneratorModel: "m", RequestTimeout: 20 * time.Millisecond}
	_, err := newGateway(t, completer, cfg, nil).Review(context.Background(), demoChange())
	assert.ErrorIs(t, err, llm.ErrTransient)
}

func TestGateway_ReviewParentCancellationPassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	completer.EXPECT().Completions(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ []llm.Message, _ string) (string, error) {
			cancel()
			<-ctx.Done()
			return "", ctx.Err()
		})

	_, err := newGateway(t, completer, nil, nil).Review(ctx, demoChange())
	assert.ErrorIs(t, err, context.Canceled)
	_, classified := llm.ClassOf(err)
	assert.False(t, classified)
}

func TestGateway_ReviewTruncatesLargeDiffs(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)

	change := demoChange()
	change.Files = []core.FileChange{{Path: "big.go", Diff: strings.Repeat("+line of code\n", 200)}}

	completer.EXPECT().Completions(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, messages []llm.Message, _ string) (string, error) {
			user := messages[1].Content
			assert.Contains(t, user, "[diff truncated to 100 characters]")
			assert.Less(t, strings.Count(user, "+line of code"), 10)
			return "Total score: 50", nil
		})

	cfg := &config.AIConfig{LLMProvider: "ollama", GeneratorModel: "m", MaxDiffChars: 100}
	outcome, err := newGateway(t, completer, cfg, nil).Review(context.Background(), change)
	require.NoError(t, err)
	assert.Equal(t, 50, outcome.Score)
}

func TestGateway_ReviewWithoutScore(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	completer.EXPECT().Completions(gomock.Any(), gomock.Any(), gomock.Any()).Return("Looks fine.", nil)

	outcome, err := newGateway(t, completer, nil, nil).Review(context.Background(), demoChange())
	require.NoError(t, err)
	assert.False(t, outcome.Scored)
	assert.Zero(t, outcome.Score)
}
