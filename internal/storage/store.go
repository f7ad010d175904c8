package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/sevigo/change-warden/internal/core"
)

//go:generate mockgen -destination=../../mocks/mock_store.go -package=mocks github.com/sevigo/change-warden/internal/storage Store,FailureRepository

// Store is the append-only result store. Each source kind has its own
// repository and table.
type Store interface {
	MergeRequests() MergeRequestRepository
	Pushes() PushRepository
	SVNRevisions() SVNRevisionRepository
	Failures() FailureRepository

	// InsertResult persists a review for c in the table of its kind and
	// returns the new row id.
	InsertResult(ctx context.Context, c *core.Change, text string, score int) (int64, error)
	Stats(ctx context.Context) (*Stats, error)
}

// KindStats summarizes one review table.
type KindStats struct {
	Kind         core.SourceKind `json:"kind"`
	Count        int64           `json:"count"`
	AverageScore float64         `json:"average_score"`
}

// ProjectCount is the number of reviews for one project and kind.
type ProjectCount struct {
	Kind        core.SourceKind `db:"-" json:"kind"`
	ProjectName string          `db:"project_name" json:"project_name"`
	Count       int64           `db:"count" json:"count"`
}

// Stats is the aggregate view over all review tables.
type Stats struct {
	Kinds    []KindStats    `json:"kinds"`
	Projects []ProjectCount `json:"projects"`
	Failures int64          `json:"failures"`
}

var kindTables = map[core.SourceKind]string{
	core.KindMergeRequest: "merge_request_reviews",
	core.KindPush:         "push_reviews",
	core.KindSVNRevision:  "svn_revision_reviews",
}

// TableFor returns the review table of a source kind.
func TableFor(kind core.SourceKind) (string, bool) {
	t, ok := kindTables[kind]
	return t, ok
}

type sqlStore struct {
	db            *sqlx.DB
	now           func() time.Time
	mergeRequests *mergeRequestRepo
	pushes        *pushRepo
	svnRevisions  *svnRevisionRepo
	failures      *failureRepo
}

// NewStore creates a Store over an open connection. Queries are written with
// '?' bindvars and rebound for the connection's driver.
func NewStore(db *sqlx.DB) Store {
	s := &sqlStore{db: db, now: time.Now}
	s.mergeRequests = &mergeRequestRepo{store: s}
	s.pushes = &pushRepo{store: s}
	s.svnRevisions = &svnRevisionRepo{store: s}
	s.failures = &failureRepo{store: s}
	return s
}

func (s *sqlStore) MergeRequests() MergeRequestRepository { return s.mergeRequests }
func (s *sqlStore) Pushes() PushRepository                 { return s.pushes }
func (s *sqlStore) SVNRevisions() SVNRevisionRepository    { return s.svnRevisions }
func (s *sqlStore) Failures() FailureRepository            { return s.failures }

func (s *sqlStore) timestamp() time.Time { return s.now().UTC() }

// insertNamed runs a named INSERT ... RETURNING id.
func (s *sqlStore) insertNamed(ctx context.Context, op, query string, arg any) (int64, error) {
	q, args, err := s.db.BindNamed(query, arg)
	if err != nil {
		return 0, wrap(op, err)
	}
	var id int64
	if err := s.db.QueryRowxContext(ctx, q, args...).Scan(&id); err != nil {
		return 0, wrap(op, err)
	}
	return id, nil
}

// list runs a SELECT with the filter applied, newest first.
func (s *sqlStore) list(ctx context.Context, op string, dest any, selectFrom string, f Filter) error {
	where, args, err := f.where()
	if err != nil {
		return wrap(op, err)
	}
	query := s.db.Rebind(selectFrom + where + " ORDER BY created_at DESC, id DESC LIMIT ?")
	args = append(args, f.limit())
	return wrap(op, s.db.SelectContext(ctx, dest, query, args...))
}

func (s *sqlStore) InsertResult(ctx context.Context, c *core.Change, text string, score int) (int64, error) {
	base := core.NewReviewBase(c, text, score)
	switch c.Kind {
	case core.KindMergeRequest:
		return s.mergeRequests.Insert(ctx, &core.MergeRequestReview{
			ReviewBase:   base,
			SourceBranch: c.SourceBranch,
			TargetBranch: c.TargetBranch,
			URL:          c.URL,
		})
	case core.KindPush:
		return s.pushes.Insert(ctx, &core.PushReview{
			ReviewBase: base,
			Branch:     c.Branch,
			CommitSHA:  c.Revision,
		})
	case core.KindSVNRevision:
		return s.svnRevisions.Insert(ctx, &core.SVNRevisionReview{
			ReviewBase:    base,
			Revision:      c.Revision,
			FilePaths:     core.PathList(c.FilePaths()),
			CommitMessage: c.CommitMessage(),
			CommitDate:    c.CommitDate,
		})
	default:
		return 0, &Error{Op: "insert result", Err: fmt.Errorf("unsupported source kind %q", c.Kind)}
	}
}

// Stats computes per-kind totals, the project distribution and the failure
// count. The queries run concurrently.
func (s *sqlStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Kinds: make([]KindStats, len(core.SourceKinds)),
	}
	projects := make([][]ProjectCount, len(core.SourceKinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range core.SourceKinds {
		table := kindTables[kind]
		g.Go(func() error {
			var row struct {
				Count        int64   `db:"count"`
				AverageScore float64 `db:"average_score"`
			}
			q := "SELECT COUNT(*) AS count, COALESCE(AVG(score), 0) AS average_score FROM " + table
			if err := s.db.GetContext(gctx, &row, q); err != nil {
				return wrap("stats "+table, err)
			}
			stats.Kinds[i] = KindStats{Kind: kind, Count: row.Count, AverageScore: row.AverageScore}
			return nil
		})
		g.Go(func() error {
			var rows []ProjectCount
			q := "SELECT project_name, COUNT(*) AS count FROM " + table + " GROUP BY project_name ORDER BY count DESC, project_name"
			if err := s.db.SelectContext(gctx, &rows, q); err != nil {
				return wrap("project stats "+table, err)
			}
			for j := range rows {
				rows[j].Kind = kind
			}
			projects[i] = rows
			return nil
		})
	}
	g.Go(func() error {
		return wrap("failure stats", s.db.GetContext(gctx, &stats.Failures, "SELECT COUNT(*) FROM review_failures"))
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, p := range projects {
		stats.Projects = append(stats.Projects, p...)
	}
	return stats, nil
}
