package storage

import (
	"context"

	"github.com/sevigo/change-warden/internal/core"
)

// FailureRepository records changes that ended in the Failed state.
type FailureRepository interface {
	Insert(ctx context.Context, f *core.ReviewFailure) (int64, error)
	// List returns the newest failures, optionally for one project.
	List(ctx context.Context, project string, limit int) ([]core.ReviewFailure, error)
}

const failureColumns = `id, project_name, content_digest, source_kind, error_class, message, attempts, created_at`

type failureRepo struct {
	store *sqlStore
}

func (r *failureRepo) Insert(ctx context.Context, f *core.ReviewFailure) (int64, error) {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = r.store.timestamp()
	}
	const query = `
		INSERT INTO review_failures (project_name, content_digest, source_kind, error_class, message, attempts, created_at)
		VALUES (:project_name, :content_digest, :source_kind, :error_class, :message, :attempts, :created_at)
		RETURNING id`
	id, err := r.store.insertNamed(ctx, "insert review failure", query, f)
	if err != nil {
		return 0, err
	}
	f.ID = id
	return id, nil
}

func (r *failureRepo) List(ctx context.Context, project string, limit int) ([]core.ReviewFailure, error) {
	failures := []core.ReviewFailure{}
	var where string
	var args []any
	if project != "" {
		where = " WHERE project_name = ?"
		args = append(args, project)
	}
	args = append(args, Filter{Limit: limit}.limit())
	query := r.store.db.Rebind(`SELECT ` + failureColumns + ` FROM review_failures` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ?`)
	if err := r.store.db.SelectContext(ctx, &failures, query, args...); err != nil {
		return nil, wrap("list review failures", err)
	}
	return failures, nil
}
