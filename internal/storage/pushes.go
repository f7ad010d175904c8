package storage

import (
	"context"
	"strings"

	"github.com/sevigo/change-warden/internal/core"
)

// PushRepository persists push reviews.
type PushRepository interface {
	Insert(ctx context.Context, r *core.PushReview) (int64, error)
	GetByID(ctx context.Context, id int64) (*core.PushReview, error)
	// FindByCommit returns the newest review whose head commit contains sha.
	FindByCommit(ctx context.Context, sha string) (*core.PushReview, error)
	List(ctx context.Context, f Filter) ([]core.PushReview, error)
}

const pushColumns = `id, project_name, author, branch, commit_sha, score,
	review_text, additions, deletions, commit_messages, content_digest, created_at`

type pushRepo struct {
	store *sqlStore
}

func (r *pushRepo) Insert(ctx context.Context, review *core.PushReview) (int64, error) {
	if review.CreatedAt.IsZero() {
		review.CreatedAt = r.store.timestamp()
	}
	const query = `
		INSERT INTO push_reviews (project_name, author, branch, commit_sha, score,
			review_text, additions, deletions, commit_messages, content_digest, created_at)
		VALUES (:project_name, :author, :branch, :commit_sha, :score,
			:review_text, :additions, :deletions, :commit_messages, :content_digest, :created_at)
		RETURNING id`
	id, err := r.store.insertNamed(ctx, "insert push review", query, review)
	if err != nil {
		return 0, err
	}
	review.ID = id
	return id, nil
}

func (r *pushRepo) GetByID(ctx context.Context, id int64) (*core.PushReview, error) {
	var review core.PushReview
	query := r.store.db.Rebind(`SELECT ` + pushColumns + ` FROM push_reviews WHERE id = ?`)
	if err := r.store.db.GetContext(ctx, &review, query, id); err != nil {
		return nil, wrap("get push review", err)
	}
	return &review, nil
}

func (r *pushRepo) FindByCommit(ctx context.Context, sha string) (*core.PushReview, error) {
	sha = strings.TrimSpace(sha)
	if sha == "" {
		return nil, ErrNotFound
	}
	var review core.PushReview
	query := r.store.db.Rebind(`SELECT ` + pushColumns + ` FROM push_reviews
		WHERE commit_sha LIKE ? ORDER BY created_at DESC, id DESC LIMIT 1`)
	if err := r.store.db.GetContext(ctx, &review, query, "%"+escapeLike(sha)+"%"); err != nil {
		return nil, wrap("find push review by commit", err)
	}
	return &review, nil
}

func (r *pushRepo) List(ctx context.Context, f Filter) ([]core.PushReview, error) {
	reviews := []core.PushReview{}
	err := r.store.list(ctx, "list push reviews", &reviews, `SELECT `+pushColumns+` FROM push_reviews`, f)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// escapeLike drops LIKE wildcards from user input. Commit ids never contain
// them.
func escapeLike(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}
