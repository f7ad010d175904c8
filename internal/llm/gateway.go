package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/sevigo/change-warden/internal/config"
	"github.com/sevigo/change-warden/internal/core"
)

// ReviewOutcome is a successful review. Scored is false when the text carried
// no recognizable score; Score is then 0.
type ReviewOutcome struct {
	Text   string `json:"text"`
	Score  int    `json:"score"`
	Scored bool   `json:"scored"`
	Model  string `json:"model"`
}

// Reviewer produces a review for one change.
//
//go:generate mockgen -destination=../../mocks/mock_reviewer.go -package=mocks github.com/sevigo/change-warden/internal/llm Reviewer
type Reviewer interface {
	Review(ctx context.Context, c *core.Change) (*ReviewOutcome, error)
}

// Gateway turns a Change into prompts, calls the model and classifies the
// result. It holds no per-call state.
type Gateway struct {
	completer Completer
	prompts   *PromptManager
	rules     *core.RulesFile
	cfg       config.AIConfig
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewGateway creates a Gateway. A nil rules file means no project overrides.
func NewGateway(completer Completer, prompts *PromptManager, rules *core.RulesFile, cfg *config.AIConfig, logger *slog.Logger) *Gateway {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}
	return &Gateway{
		completer: completer,
		prompts:   prompts,
		rules:     rules,
		cfg:       *cfg,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
}

type promptData struct {
	ProjectName        string
	Kind               core.SourceKind
	Author             string
	Branch             string
	SourceBranch       string
	TargetBranch       string
	Revision           string
	CommitMessage      string
	Files              []string
	Additions          int
	Deletions          int
	Diff               string
	Truncated          bool
	MaxDiffChars       int
	CustomInstructions []string
}

// Review calls the model once. Failures are returned as *GatewayError, except
// cancellation of ctx itself which is returned unchanged.
func (g *Gateway) Review(ctx context.Context, c *core.Change) (*ReviewOutcome, error) {
	messages, err := g.buildMessages(c)
	if err != nil {
		return nil, err
	}

	if err := g.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newGatewayError(ClassTransient, err)
	}

	start := time.Now()
	text, err := g.generateWithTimeout(ctx, messages)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		gwErr := classify(err)
		g.logger.Warn("model call failed",
			"project", c.ProjectName,
			"class", gwErr.Class,
			"duration", time.Since(start),
			"error", err,
		)
		return nil, gwErr
	}

	text = cleanResponse(text)
	if text == "" {
		return nil, newGatewayError(ClassEmptyResponse, nil)
	}

	score, scored := ParseScore(text)
	g.logger.Info("model call completed",
		"project", c.ProjectName,
		"kind", c.Kind,
		"score", score,
		"scored", scored,
		"duration", time.Since(start),
	)
	return &ReviewOutcome{Text: text, Score: score, Scored: scored, Model: g.cfg.GeneratorModel}, nil
}

func (g *Gateway) buildMessages(c *core.Change) ([]Message, error) {
	rules := g.rules.For(c.ProjectName)
	diff, truncated := truncateDiff(c.DiffText(), g.cfg.MaxDiffChars)
	data := promptData{
		ProjectName:        c.ProjectName,
		Kind:               c.Kind,
		Author:             c.Author,
		Branch:             c.Branch,
		SourceBranch:       c.SourceBranch,
		TargetBranch:       c.TargetBranch,
		Revision:           c.Revision,
		CommitMessage:      c.CommitMessage(),
		Files:              c.FilePaths(),
		Additions:          c.Additions,
		Deletions:          c.Deletions,
		Diff:               diff,
		Truncated:          truncated,
		MaxDiffChars:       g.cfg.MaxDiffChars,
		CustomInstructions: rules.CustomInstructions,
	}

	provider := ModelProvider(g.cfg.LLMProvider)
	system, err := g.prompts.Render(ReviewSystemPrompt, provider, data)
	if err != nil {
		return nil, fmt.Errorf("could not render prompt '%s': %w", ReviewSystemPrompt, err)
	}
	user, err := g.prompts.Render(ReviewUserPrompt, provider, data)
	if err != nil {
		return nil, fmt.Errorf("could not render prompt '%s': %w", ReviewUserPrompt, err)
	}
	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}, nil
}

// generateWithTimeout wraps the completion call with a hard timeout so a
// client that ignores cancellation cannot hold the worker.
func (g *Gateway) generateWithTimeout(ctx context.Context, messages []Message) (string, error) {
	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if g.cfg.RequestTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, g.cfg.RequestTimeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	type result struct {
		resp string
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		resp, err := g.completer.Completions(callCtx, messages, "")
		resultCh <- result{resp, err}
	}()

	select {
	case res := <-resultCh:
		return res.resp, res.err
	case <-callCtx.Done():
		return "", callCtx.Err()
	}
}

// truncateDiff cuts diff to at most limit bytes, preferring a line boundary.
// A non-positive limit disables truncation.
func truncateDiff(diff string, limit int) (string, bool) {
	if limit <= 0 || len(diff) <= limit {
		return diff, false
	}
	for limit > 0 && !utf8.RuneStart(diff[limit]) {
		limit--
	}
	cut := diff[:limit]
	if idx := strings.LastIndex(cut, "\n"); idx > 0 {
		cut = cut[:idx+1]
	}
	return cut, true
}
