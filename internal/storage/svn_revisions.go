package storage

import (
	"context"
	"strings"

	"github.com/sevigo/change-warden/internal/core"
)

// SVNRevisionRepository persists SVN revision reviews.
type SVNRevisionRepository interface {
	Insert(ctx context.Context, r *core.SVNRevisionReview) (int64, error)
	GetByID(ctx context.Context, id int64) (*core.SVNRevisionReview, error)
	// FindByRevisionOrDigest matches ref against the revision number first and
	// the content digest second, returning the newest match. Revision numbers
	// are only unique within a repository, so a non-empty project narrows the
	// lookup to it.
	FindByRevisionOrDigest(ctx context.Context, project, ref string) (*core.SVNRevisionReview, error)
	List(ctx context.Context, f Filter) ([]core.SVNRevisionReview, error)
}

const svnRevisionColumns = `id, project_name, author, revision, file_paths, commit_message, commit_date,
	score, review_text, additions, deletions, commit_messages, content_digest, created_at`

type svnRevisionRepo struct {
	store *sqlStore
}

func (r *svnRevisionRepo) Insert(ctx context.Context, review *core.SVNRevisionReview) (int64, error) {
	if review.CreatedAt.IsZero() {
		review.CreatedAt = r.store.timestamp()
	}
	if review.FilePaths == nil {
		review.FilePaths = core.PathList{}
	}
	const query = `
		INSERT INTO svn_revision_reviews (project_name, author, revision, file_paths, commit_message, commit_date,
			score, review_text, additions, deletions, commit_messages, content_digest, created_at)
		VALUES (:project_name, :author, :revision, :file_paths, :commit_message, :commit_date,
			:score, :review_text, :additions, :deletions, :commit_messages, :content_digest, :created_at)
		RETURNING id`
	id, err := r.store.insertNamed(ctx, "insert svn revision review", query, review)
	if err != nil {
		return 0, err
	}
	review.ID = id
	return id, nil
}

func (r *svnRevisionRepo) GetByID(ctx context.Context, id int64) (*core.SVNRevisionReview, error) {
	var review core.SVNRevisionReview
	query := r.store.db.Rebind(`SELECT ` + svnRevisionColumns + ` FROM svn_revision_reviews WHERE id = ?`)
	if err := r.store.db.GetContext(ctx, &review, query, id); err != nil {
		return nil, wrap("get svn revision review", err)
	}
	return &review, nil
}

func (r *svnRevisionRepo) FindByRevisionOrDigest(ctx context.Context, project, ref string) (*core.SVNRevisionReview, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "r")
	if ref == "" {
		return nil, ErrNotFound
	}
	where := `(revision = ? OR content_digest = ?)`
	args := []any{ref, ref}
	if project = strings.TrimSpace(project); project != "" {
		where += ` AND project_name = ?`
		args = append(args, project)
	}
	args = append(args, ref)

	var review core.SVNRevisionReview
	query := r.store.db.Rebind(`SELECT ` + svnRevisionColumns + ` FROM svn_revision_reviews
		WHERE ` + where + `
		ORDER BY CASE WHEN revision = ? THEN 0 ELSE 1 END, created_at DESC, id DESC LIMIT 1`)
	if err := r.store.db.GetContext(ctx, &review, query, args...); err != nil {
		return nil, wrap("find svn revision review", err)
	}
	return &review, nil
}

func (r *svnRevisionRepo) List(ctx context.Context, f Filter) ([]core.SVNRevisionReview, error) {
	reviews := []core.SVNRevisionReview{}
	err := r.store.list(ctx, "list svn revision reviews", &reviews,
		`SELECT `+svnRevisionColumns+` FROM svn_revision_reviews`, f)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
