package storage

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Filter narrows review listings. Zero values mean "no constraint".
type Filter struct {
	Authors  []string
	Projects []string
	Since    *time.Time
	Until    *time.Time
	MinScore *int
	MaxScore *int
	Limit    int
}

func (f Filter) limit() int {
	switch {
	case f.Limit <= 0:
		return defaultListLimit
	case f.Limit > maxListLimit:
		return maxListLimit
	default:
		return f.Limit
	}
}

// where renders the filter as a WHERE clause with '?' bindvars. Slice
// arguments are expanded by sqlx.In, so the caller must Rebind the result.
func (f Filter) where() (string, []any, error) {
	var clauses []string
	var args []any

	if len(f.Authors) > 0 {
		clauses = append(clauses, "author IN (?)")
		args = append(args, f.Authors)
	}
	if len(f.Projects) > 0 {
		clauses = append(clauses, "project_name IN (?)")
		args = append(args, f.Projects)
	}
	if f.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.Since.UTC())
	}
	if f.Until != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, f.Until.UTC())
	}
	if f.MinScore != nil {
		clauses = append(clauses, "score >= ?")
		args = append(args, *f.MinScore)
	}
	if f.MaxScore != nil {
		clauses = append(clauses, "score <= ?")
		args = append(args, *f.MaxScore)
	}

	if len(clauses) == 0 {
		return "", nil, nil
	}
	return sqlx.In(" WHERE "+strings.Join(clauses, " AND "), args...)
}
