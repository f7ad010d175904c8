// Package jobs runs the review pipeline and its background workers.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/change-warden/internal/config"
	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/ledger"
	"github.com/sevigo/change-warden/internal/llm"
	"github.com/sevigo/change-warden/internal/storage"
)

// ErrRetriesExhausted wraps the last transient error once the attempt budget
// is spent.
var ErrRetriesExhausted = errors.New("review retries exhausted")

// State is a step of the review pipeline.
type State string

const (
	StateReceived         State = "received"
	StateNormalized       State = "normalized"
	StateDigestComputed   State = "digest_computed"
	StateDuplicateSkipped State = "duplicate_skipped"
	StateLLMInvoked       State = "llm_invoked"
	StateScored           State = "scored"
	StatePersisted        State = "persisted"
	StateFailed           State = "failed"
)

// Result is the terminal outcome of one change. For duplicates Kind and
// ResultID point at the review stored by the first submission.
type Result struct {
	State     State              `json:"state"`
	Kind      core.SourceKind    `json:"kind"`
	ResultID  int64              `json:"result_id,omitempty"`
	Digest    core.ContentDigest `json:"digest,omitempty"`
	Duplicate bool               `json:"duplicate"`
	Attempts  int                `json:"attempts"`
	Score     int                `json:"score"`
	Error     string             `json:"error,omitempty"`
	Err       error              `json:"-"`
}

// RetryPolicy bounds gateway retries for transient failures.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// backoff returns the delay after the given failed attempt: base doubled per
// attempt and capped at max.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	if p.BackoffBase <= 0 {
		return 0
	}
	delay := p.BackoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.BackoffMax > 0 && delay >= p.BackoffMax {
			return p.BackoffMax
		}
	}
	if p.BackoffMax > 0 && delay > p.BackoffMax {
		return p.BackoffMax
	}
	return delay
}

// ReviewJob drives a Change through ledger, gateway and result store.
type ReviewJob struct {
	reviewer llm.Reviewer
	ledger   *ledger.Ledger
	store    storage.Store
	rules    *core.RulesFile
	policy   RetryPolicy
	exts     []string
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewReviewJob creates the orchestrator. Configuration is read once here.
func NewReviewJob(cfg *config.Config, reviewer llm.Reviewer, l *ledger.Ledger, store storage.Store, rules *core.RulesFile, logger *slog.Logger) *ReviewJob {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if reviewer == nil {
		panic("reviewer cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	maxAttempts := cfg.Review.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &ReviewJob{
		reviewer: reviewer,
		ledger:   l,
		store:    store,
		rules:    rules,
		policy: RetryPolicy{
			MaxAttempts: maxAttempts,
			BackoffBase: cfg.Review.BackoffBase,
			BackoffMax:  cfg.Review.BackoffMax,
		},
		exts:   cfg.Review.SupportedExtensions,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Run satisfies core.Job for the async dispatcher.
func (j *ReviewJob) Run(ctx context.Context, c *core.Change) error {
	_, err := j.Process(ctx, c)
	return err
}

// Submit normalizes a raw event of the given kind and processes it.
func (j *ReviewJob) Submit(ctx context.Context, kind core.SourceKind, payload []byte) (*Result, error) {
	c, err := j.Normalize(kind, payload)
	if err != nil {
		res := &Result{State: StateReceived, Kind: kind}
		return j.fail(res, err)
	}
	return j.Process(ctx, c)
}

// Normalize maps a raw event to a Change with the configured extension filters.
func (j *ReviewJob) Normalize(kind core.SourceKind, payload []byte) (*core.Change, error) {
	return core.Normalize(kind, payload,
		core.WithSupportedExtensions(j.exts),
		core.WithProjectExtensions(func(project string) []string {
			return j.rules.For(project).SupportedExtensions
		}),
	)
}

// Process runs a normalized Change through the pipeline. The returned error
// is nil for Persisted and DuplicateSkipped results; otherwise it is the
// cause of the Failed state.
func (j *ReviewJob) Process(ctx context.Context, c *core.Change) (*Result, error) {
	res := &Result{State: StateNormalized}
	if err := ValidateChange(c); err != nil {
		return j.fail(res, err)
	}
	res.Kind = c.Kind

	digest := c.Digest()
	res.Digest = digest
	res.State = StateDigestComputed
	log := j.logger.With("project", c.ProjectName, "kind", c.Kind, "digest", digest.Short())

	decision, err := j.ledger.CheckAndReserve(ctx, c.ProjectName, digest)
	if err != nil {
		return j.fail(res, fmt.Errorf("ledger check failed: %w", err))
	}
	if !decision.Novel() {
		res.State = StateDuplicateSkipped
		res.Duplicate = true
		res.Kind = decision.Entry.ResultKind
		res.ResultID = decision.Entry.ResultID
		log.Info("duplicate change skipped", "result_kind", res.Kind, "result_id", res.ResultID)
		return res, nil
	}
	reservation := decision.Reservation
	// Release is a no-op after Commit; this covers panics in the reviewer.
	defer reservation.Release()

	res.State = StateLLMInvoked
	outcome, attempts, err := j.reviewWithRetry(ctx, c, log)
	res.Attempts = attempts
	if err != nil {
		if !errors.Is(err, llm.ErrEmptyResponse) {
			reservation.Release()
			j.recordFailure(ctx, c, digest, err, attempts, log)
			return j.fail(res, err)
		}
		log.Warn("model returned no content, storing placeholder review")
		outcome = &llm.ReviewOutcome{Text: core.EmptyReviewText}
	}

	res.State = StateScored
	res.Score = outcome.Score

	id, err := j.store.InsertResult(ctx, c, outcome.Text, outcome.Score)
	if err != nil {
		reservation.Release()
		return j.fail(res, err)
	}

	// The result row exists; the ledger entry must follow even if the caller
	// has gone away.
	entry, err := reservation.Commit(context.WithoutCancel(ctx), c.Kind, id)
	if err != nil {
		log.Error("review stored but ledger commit failed", "result_id", id, "error", err)
		return j.fail(res, err)
	}

	res.State = StatePersisted
	res.ResultID = id
	if entry.ResultID != id || entry.ResultKind != c.Kind {
		log.Warn("digest was committed by another writer first",
			"result_id", id, "ledger_result_id", entry.ResultID)
		res.Kind = entry.ResultKind
		res.ResultID = entry.ResultID
		res.Duplicate = true
	}
	log.Info("review persisted", "result_id", res.ResultID, "score", res.Score, "attempts", attempts)
	return res, nil
}

func (j *ReviewJob) reviewWithRetry(ctx context.Context, c *core.Change, log *slog.Logger) (*llm.ReviewOutcome, int, error) {
	var lastErr error
	for attempt := 1; attempt <= j.policy.MaxAttempts; attempt++ {
		outcome, err := j.reviewer.Review(ctx, c)
		if err == nil {
			return outcome, attempt, nil
		}
		lastErr = err

		class, ok := llm.ClassOf(err)
		if !ok || !class.Retryable() {
			return nil, attempt, err
		}
		if attempt == j.policy.MaxAttempts {
			break
		}

		delay := j.policy.backoff(attempt)
		log.Warn("transient model failure, retrying",
			"attempt", attempt,
			"max_attempts", j.policy.MaxAttempts,
			"delay", delay,
			"error", err,
		)
		if err := j.sleep(ctx, delay); err != nil {
			return nil, attempt, err
		}
	}
	return nil, j.policy.MaxAttempts, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, j.policy.MaxAttempts, lastErr)
}

// recordFailure writes the audit row for a Failed change. It is best effort:
// the pipeline result does not depend on it. Cancelled callers (shutdown) are
// not audited; an expired deadline is recorded as a transient failure.
func (j *ReviewJob) recordFailure(ctx context.Context, c *core.Change, digest core.ContentDigest, cause error, attempts int, log *slog.Logger) {
	if errors.Is(ctx.Err(), context.Canceled) {
		return
	}
	failure := &core.ReviewFailure{
		ProjectName:   c.ProjectName,
		ContentDigest: digest,
		Kind:          c.Kind,
		Class:         "internal",
		Message:       cause.Error(),
		Attempts:      attempts,
	}
	var gwErr *llm.GatewayError
	switch {
	case errors.As(cause, &gwErr):
		failure.Class = string(gwErr.Class)
		failure.Message = gwErr.Message
	case errors.Is(cause, context.DeadlineExceeded):
		failure.Class = string(llm.ClassTransient)
	}
	if _, err := j.store.Failures().Insert(context.WithoutCancel(ctx), failure); err != nil {
		log.Error("failed to record review failure", "error", err)
	}
}

func (j *ReviewJob) fail(res *Result, err error) (*Result, error) {
	res.State = StateFailed
	res.Err = err
	res.Error = err.Error()
	return res, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
