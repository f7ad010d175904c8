package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EmptyReviewText is stored in place of the review when the model answered
// with no content. The change still counts as reviewed.
const EmptyReviewText = "The model returned no review content for this change."

// ReviewBase holds the columns shared by every review table.
type ReviewBase struct {
	ID             int64         `db:"id" json:"id"`
	ProjectName    string        `db:"project_name" json:"project_name"`
	Author         string        `db:"author" json:"author"`
	Score          int           `db:"score" json:"score"`
	ReviewText     string        `db:"review_text" json:"review_text"`
	Additions      int           `db:"additions" json:"additions"`
	Deletions      int           `db:"deletions" json:"deletions"`
	CommitMessages string        `db:"commit_messages" json:"commit_messages"`
	ContentDigest  ContentDigest `db:"content_digest" json:"content_digest"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// MergeRequestReview is a stored review of a merge request.
type MergeRequestReview struct {
	ReviewBase
	SourceBranch string `db:"source_branch" json:"source_branch"`
	TargetBranch string `db:"target_branch" json:"target_branch"`
	URL          string `db:"url" json:"url"`
}

// PushReview is a stored review of a push.
type PushReview struct {
	ReviewBase
	Branch    string `db:"branch" json:"branch"`
	CommitSHA string `db:"commit_sha" json:"commit_sha"`
}

// SVNRevisionReview is a stored review of a single SVN revision.
type SVNRevisionReview struct {
	ReviewBase
	Revision      string     `db:"revision" json:"revision"`
	FilePaths     PathList   `db:"file_paths" json:"file_paths"`
	CommitMessage string     `db:"commit_message" json:"commit_message"`
	CommitDate    *time.Time `db:"commit_date" json:"commit_date,omitempty"`
}

// NewReviewBase projects the shared columns out of a change and its review.
func NewReviewBase(c *Change, text string, score int) ReviewBase {
	return ReviewBase{
		ProjectName:    c.ProjectName,
		Author:         c.Author,
		Score:          score,
		ReviewText:     text,
		Additions:      c.Additions,
		Deletions:      c.Deletions,
		CommitMessages: c.CommitMessage(),
		ContentDigest:  c.Digest(),
	}
}

// LedgerEntry records that a (project, digest) pair has been reviewed and
// where its result lives. Entries are append-only.
type LedgerEntry struct {
	ID            int64         `db:"id" json:"id"`
	ProjectName   string        `db:"project_name" json:"project_name"`
	ContentDigest ContentDigest `db:"content_digest" json:"content_digest"`
	ResultKind    SourceKind    `db:"result_kind" json:"result_kind"`
	ResultID      int64         `db:"result_id" json:"result_id"`
	ReviewedAt    time.Time     `db:"reviewed_at" json:"reviewed_at"`
}

// ReviewFailure is the audit record of a change that could not be reviewed.
// Failures never enter the ledger.
type ReviewFailure struct {
	ID            int64         `db:"id" json:"id"`
	ProjectName   string        `db:"project_name" json:"project_name"`
	ContentDigest ContentDigest `db:"content_digest" json:"content_digest"`
	Kind          SourceKind    `db:"source_kind" json:"source_kind"`
	Class         string        `db:"error_class" json:"error_class"`
	Message       string        `db:"message" json:"message"`
	Attempts      int           `db:"attempts" json:"attempts"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// PathList is a list of file paths stored as a JSON array column.
type PathList []string

// Value implements driver.Valuer.
func (p PathList) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (p *PathList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into PathList", src)
	}
	if len(data) == 0 {
		*p = nil
		return nil
	}
	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return fmt.Errorf("failed to decode path list: %w", err)
	}
	*p = paths
	return nil
}
