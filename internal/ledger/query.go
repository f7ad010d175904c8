package ledger

import (
	"context"

	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/storage"
)

const maxRecent = 500

// ProjectEntries is the number of reviewed digests of one project.
type ProjectEntries struct {
	ProjectName string `db:"project_name" json:"project_name"`
	Entries     int64  `db:"entries" json:"entries"`
}

// Stats summarizes the ledger.
type Stats struct {
	Total    int64            `json:"total"`
	Projects []ProjectEntries `json:"projects"`
}

// Recent returns the newest entries, optionally restricted to one project.
func (l *Ledger) Recent(ctx context.Context, project string, limit int) ([]core.LedgerEntry, error) {
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}
	var where string
	var args []any
	if project != "" {
		where = " WHERE project_name = ?"
		args = append(args, project)
	}
	args = append(args, limit)

	entries := []core.LedgerEntry{}
	query := l.db.Rebind(`SELECT id, project_name, content_digest, result_kind, result_id, reviewed_at
		FROM review_ledger` + where + ` ORDER BY reviewed_at DESC, id DESC LIMIT ?`)
	if err := l.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, &storage.Error{Op: "ledger recent", Err: err}
	}
	return entries, nil
}

// Stats returns the entry count per project.
func (l *Ledger) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Projects: []ProjectEntries{}}
	query := `SELECT project_name, COUNT(*) AS entries FROM review_ledger
		GROUP BY project_name ORDER BY entries DESC, project_name`
	if err := l.db.SelectContext(ctx, &stats.Projects, query); err != nil {
		return nil, &storage.Error{Op: "ledger stats", Err: err}
	}
	for _, p := range stats.Projects {
		stats.Total += p.Entries
	}
	return stats, nil
}
