// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SourceKind identifies which kind of version-control event produced a Change.
type SourceKind string

const (
	KindMergeRequest SourceKind = "merge_request"
	KindPush         SourceKind = "push"
	KindSVNRevision  SourceKind = "svn_revision"
)

// SourceKinds lists every supported kind in a stable order.
var SourceKinds = []SourceKind{KindMergeRequest, KindPush, KindSVNRevision}

var kindAliases = map[string]SourceKind{
	"merge_request":  KindMergeRequest,
	"merge-request":  KindMergeRequest,
	"merge-requests": KindMergeRequest,
	"mr":             KindMergeRequest,
	"push":           KindPush,
	"pushes":         KindPush,
	"svn_revision":   KindSVNRevision,
	"svn-revision":   KindSVNRevision,
	"svn":            KindSVNRevision,
}

// ParseSourceKind maps a canonical kind name, or one of its URL-friendly
// aliases, to a SourceKind.
func ParseSourceKind(s string) (SourceKind, error) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown source kind %q", s)
	}
	return kind, nil
}

// Valid reports whether k is one of the supported kinds.
func (k SourceKind) Valid() bool {
	switch k {
	case KindMergeRequest, KindPush, KindSVNRevision:
		return true
	default:
		return false
	}
}

func (k SourceKind) String() string { return string(k) }

// FileChange is the diff of a single file inside a Change.
type FileChange struct {
	Path      string `json:"path"`
	Diff      string `json:"diff"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Change is the canonical, source-agnostic unit of review input.
type Change struct {
	Kind        SourceKind
	ProjectName string
	Author      string

	// Branch is used by pushes and SVN revisions; merge requests carry
	// SourceBranch and TargetBranch instead.
	Branch       string
	SourceBranch string
	TargetBranch string

	URL        string
	Revision   string
	CommitDate *time.Time

	CommitMessages []string
	Files          []FileChange
	Additions      int
	Deletions      int

	ReceivedAt time.Time
}

// FilePaths returns the sorted, de-duplicated set of paths touched by the change.
func (c *Change) FilePaths() []string {
	seen := make(map[string]struct{}, len(c.Files))
	paths := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		if _, ok := seen[f.Path]; ok {
			continue
		}
		seen[f.Path] = struct{}{}
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	return paths
}

// CommitMessage joins all commit messages with "; ".
func (c *Change) CommitMessage() string {
	msgs := make([]string, 0, len(c.CommitMessages))
	for _, m := range c.CommitMessages {
		if m = strings.TrimSpace(m); m != "" {
			msgs = append(msgs, m)
		}
	}
	return strings.Join(msgs, "; ")
}

// BranchIdentity is the branch that participates in the content digest.
// For merge requests this is the source branch, so a merge request and a push
// of the same branch with the same content are one review unit.
func (c *Change) BranchIdentity() string {
	if c.Kind == KindMergeRequest {
		return c.SourceBranch
	}
	return c.Branch
}

// Digest computes the content digest of the change.
func (c *Change) Digest() ContentDigest {
	return ComputeDigest(c)
}

// DiffText concatenates every file diff under a per-file header, in path order.
func (c *Change) DiffText() string {
	files := make([]FileChange, len(c.Files))
	copy(files, c.Files)
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "--- File: %s ---\n", f.Path)
		b.WriteString(f.Diff)
		if !strings.HasSuffix(f.Diff, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}
