package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/change-warden/internal/config"
	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/db"
)

func newSQLiteStore(t *testing.T) (Store, *db.DB) {
	t.Helper()
	conn, cleanup, err := db.NewDatabase(&config.DBConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "store.db"),
	})
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return NewStore(conn.DB), conn
}

func newMockStore(t *testing.T) (*sqlStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	s := NewStore(sqlx.NewDb(mockDB, "postgres")).(*sqlStore)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s, mock
}

func change(kind core.SourceKind, project string) *core.Change {
	date := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return &core.Change{
		Kind:           kind,
		ProjectName:    project,
		Author:         "alice",
		Branch:         "main",
		SourceBranch:   "feature",
		TargetBranch:   "main",
		URL:            "https://git.example.com/mr/1",
		Revision:       "4f2a9c1e",
		CommitDate:     &date,
		CommitMessages: []string{"fix parser", "add test"},
		Files: []core.FileChange{
			{Path: "b.go", Diff: "+y", Additions: 1},
			{Path: "a.go", Diff: "+x\n-z", Additions: 1, Deletions: 1},
		},
		Additions: 2,
		Deletions: 1,
	}
}

func TestStore_InsertResultAndLookups(t *testing.T) {
	ctx := context.Background()
	store, _ := newSQLiteStore(t)

	mrID, err := store.InsertResult(ctx, change(core.KindMergeRequest, "demo"), "looks good\nTotal score: 88", 88)
	require.NoError(t, err)
	pushID, err := store.InsertResult(ctx, change(core.KindPush, "demo"), "push review", 70)
	require.NoError(t, err)
	svnID, err := store.InsertResult(ctx, change(core.KindSVNRevision, "legacy"), "svn review", 55)
	require.NoError(t, err)

	t.Run("merge request by id", func(t *testing.T) {
		mr, err := store.MergeRequests().GetByID(ctx, mrID)
		require.NoError(t, err)
		assert.Equal(t, "demo", mr.ProjectName)
		assert.Equal(t, "feature", mr.SourceBranch)
		assert.Equal(t, "main", mr.TargetBranch)
		assert.Equal(t, "https://git.example.com/mr/1", mr.URL)
		assert.Equal(t, 88, mr.Score)
		assert.Equal(t, "fix parser; add test", mr.CommitMessages)
		assert.Len(t, mr.ContentDigest, 64)
		assert.False(t, mr.CreatedAt.IsZero())
	})

	t.Run("push by commit substring", func(t *testing.T) {
		p, err := store.Pushes().FindByCommit(ctx, "2a9c")
		require.NoError(t, err)
		assert.Equal(t, pushID, p.ID)
		assert.Equal(t, "main", p.Branch)
		assert.Equal(t, "4f2a9c1e", p.CommitSHA)

		_, err = store.Pushes().FindByCommit(ctx, "deadbeef")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("svn by revision or digest", func(t *testing.T) {
		byRev, err := store.SVNRevisions().FindByRevisionOrDigest(ctx, "", "r4f2a9c1e")
		require.NoError(t, err)
		assert.Equal(t, svnID, byRev.ID)
		assert.Equal(t, core.PathList{"a.go", "b.go"}, byRev.FilePaths)
		require.NotNil(t, byRev.CommitDate)
		assert.True(t, byRev.CommitDate.Equal(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)))

		byDigest, err := store.SVNRevisions().FindByRevisionOrDigest(ctx, "", byRev.ContentDigest.String())
		require.NoError(t, err)
		assert.Equal(t, svnID, byDigest.ID)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := store.MergeRequests().GetByID(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		require.Len(t, stats.Kinds, 3)
		for _, k := range stats.Kinds {
			assert.Equal(t, int64(1), k.Count, "kind %s", k.Kind)
		}
		assert.InDelta(t, 88.0, stats.Kinds[0].AverageScore, 0.001)
		assert.Len(t, stats.Projects, 3)
		assert.Zero(t, stats.Failures)
	})
}

func TestStore_SVNLookupScopedByProject(t *testing.T) {
	ctx := context.Background()
	store, _ := newSQLiteStore(t)

	legacyID, err := store.InsertResult(ctx, change(core.KindSVNRevision, "legacy"), "legacy review", 55)
	require.NoError(t, err)
	toolsID, err := store.InsertResult(ctx, change(core.KindSVNRevision, "tools"), "tools review", 60)
	require.NoError(t, err)

	newest, err := store.SVNRevisions().FindByRevisionOrDigest(ctx, "", "4f2a9c1e")
	require.NoError(t, err)
	assert.Equal(t, toolsID, newest.ID)

	scoped, err := store.SVNRevisions().FindByRevisionOrDigest(ctx, "legacy", "4f2a9c1e")
	require.NoError(t, err)
	assert.Equal(t, legacyID, scoped.ID)
	assert.Equal(t, "legacy", scoped.ProjectName)

	_, err = store.SVNRevisions().FindByRevisionOrDigest(ctx, "unknown", "4f2a9c1e")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	store, _ := newSQLiteStore(t)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, tc := range []struct {
		project, author string
		score           int
	}{
		{"demo", "alice", 90},
		{"demo", "bob", 40},
		{"other", "alice", 75},
	} {
		review := &core.PushReview{
			ReviewBase: core.ReviewBase{
				ProjectName: tc.project, Author: tc.author, Score: tc.score,
				ReviewText: "r", ContentDigest: core.ContentDigest("d"),
				CreatedAt: base.Add(time.Duration(i) * time.Hour),
			},
			Branch: "main",
		}
		_, err := store.Pushes().Insert(ctx, review)
		require.NoError(t, err)
	}

	minScore := 50
	since := base.Add(30 * time.Minute)
	tests := []struct {
		name    string
		filter  Filter
		authors []string
	}{
		{name: "no filter newest first", filter: Filter{}, authors: []string{"alice", "bob", "alice"}},
		{name: "by author", filter: Filter{Authors: []string{"bob"}}, authors: []string{"bob"}},
		{name: "by project", filter: Filter{Projects: []string{"demo"}}, authors: []string{"bob", "alice"}},
		{name: "by min score", filter: Filter{MinScore: &minScore}, authors: []string{"alice", "alice"}},
		{name: "by time", filter: Filter{Since: &since}, authors: []string{"alice", "bob"}},
		{name: "limit", filter: Filter{Limit: 1}, authors: []string{"alice"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Pushes().List(ctx, tt.filter)
			require.NoError(t, err)
			authors := make([]string, 0, len(got))
			for _, r := range got {
				authors = append(authors, r.Author)
			}
			assert.Equal(t, tt.authors, authors)
		})
	}
}

func TestStore_Failures(t *testing.T) {
	ctx := context.Background()
	store, _ := newSQLiteStore(t)

	_, err := store.Failures().Insert(ctx, &core.ReviewFailure{
		ProjectName: "demo", ContentDigest: "abc", Kind: core.KindPush,
		Class: "authentication", Message: "bad key", Attempts: 1,
	})
	require.NoError(t, err)

	failures, err := store.Failures().List(ctx, "demo", 10)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, core.KindPush, failures[0].Kind)
	assert.Equal(t, "authentication", failures[0].Class)

	none, err := store.Failures().List(ctx, "other", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_InsertWrapsDatabaseErrors(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO push_reviews").
		WillReturnError(errors.New("connection reset"))

	_, err := s.InsertResult(context.Background(), change(core.KindPush, "demo"), "text", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)

	var storageErr *Error
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "insert push review", storageErr.Op)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InsertUsesDriverBindvars(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO merge_request_reviews .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6,`).
		WithArgs("demo", "alice", "feature", "main", "https://git.example.com/mr/1", 9,
			"text", 2, 1, "fix parser; add test", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	id, err := s.InsertResult(context.Background(), change(core.KindMergeRequest, "demo"), "text", 9)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InsertResultRejectsUnknownKind(t *testing.T) {
	s, _ := newMockStore(t)
	_, err := s.InsertResult(context.Background(), change("bogus", "demo"), "text", 0)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestStore_StatsPropagatesErrors(t *testing.T) {
	s, mock := newMockStore(t)
	mock.MatchExpectationsInOrder(false)

	for range core.SourceKinds {
		mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("boom"))
		mock.ExpectQuery("SELECT project_name").WillReturnError(errors.New("boom"))
	}
	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("boom"))

	_, err := s.Stats(context.Background())
	assert.ErrorIs(t, err, ErrStorage)
}
