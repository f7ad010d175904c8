package storage

import (
	"context"

	"github.com/sevigo/change-warden/internal/core"
)

// MergeRequestRepository persists merge request reviews.
type MergeRequestRepository interface {
	Insert(ctx context.Context, r *core.MergeRequestReview) (int64, error)
	GetByID(ctx context.Context, id int64) (*core.MergeRequestReview, error)
	List(ctx context.Context, f Filter) ([]core.MergeRequestReview, error)
}

const mergeRequestColumns = `id, project_name, author, source_branch, target_branch, url, score,
	review_text, additions, deletions, commit_messages, content_digest, created_at`

type mergeRequestRepo struct {
	store *sqlStore
}

func (r *mergeRequestRepo) Insert(ctx context.Context, review *core.MergeRequestReview) (int64, error) {
	if review.CreatedAt.IsZero() {
		review.CreatedAt = r.store.timestamp()
	}
	const query = `
		INSERT INTO merge_request_reviews (project_name, author, source_branch, target_branch, url, score,
			review_text, additions, deletions, commit_messages, content_digest, created_at)
		VALUES (:project_name, :author, :source_branch, :target_branch, :url, :score,
			:review_text, :additions, :deletions, :commit_messages, :content_digest, :created_at)
		RETURNING id`
	id, err := r.store.insertNamed(ctx, "insert merge request review", query, review)
	if err != nil {
		return 0, err
	}
	review.ID = id
	return id, nil
}

func (r *mergeRequestRepo) GetByID(ctx context.Context, id int64) (*core.MergeRequestReview, error) {
	var review core.MergeRequestReview
	query := r.store.db.Rebind(`SELECT ` + mergeRequestColumns + ` FROM merge_request_reviews WHERE id = ?`)
	if err := r.store.db.GetContext(ctx, &review, query, id); err != nil {
		return nil, wrap("get merge request review", err)
	}
	return &review, nil
}

func (r *mergeRequestRepo) List(ctx context.Context, f Filter) ([]core.MergeRequestReview, error) {
	reviews := []core.MergeRequestReview{}
	err := r.store.list(ctx, "list merge request reviews", &reviews,
		`SELECT `+mergeRequestColumns+` FROM merge_request_reviews`, f)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
