package core

import (
	"encoding/json"
	"path"
	"strings"
	"time"
)

// Commit is a single commit carried by a merge request or push event.
type Commit struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Author    string    `json:"author,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// MergeRequestEvent is the already-parsed view of a merge request notification.
type MergeRequestEvent struct {
	Project      string       `json:"project"`
	Author       string       `json:"author"`
	SourceBranch string       `json:"source_branch"`
	TargetBranch string       `json:"target_branch"`
	URL          string       `json:"url,omitempty"`
	Commits      []Commit     `json:"commits"`
	Changes      []FileChange `json:"changes"`
	UpdatedAt    time.Time    `json:"updated_at,omitempty"`
}

// PushEvent is the already-parsed view of a push notification.
type PushEvent struct {
	Project  string       `json:"project"`
	Author   string       `json:"author"`
	Branch   string       `json:"branch"`
	Commits  []Commit     `json:"commits"`
	Changes  []FileChange `json:"changes"`
	PushedAt time.Time    `json:"pushed_at,omitempty"`
}

// SVNRevisionEvent is a single revision discovered in a centralized repository.
type SVNRevisionEvent struct {
	Project  string       `json:"project"`
	Author   string       `json:"author"`
	Revision string       `json:"revision"`
	Message  string       `json:"message"`
	Date     *time.Time   `json:"date,omitempty"`
	Path     string       `json:"path,omitempty"`
	Changes  []FileChange `json:"changes"`
}

type normalizeOptions struct {
	supportedExts []string
	projectExts   func(project string) []string
	now           func() time.Time
}

// NormalizeOption customizes Normalize.
type NormalizeOption func(*normalizeOptions)

// WithSupportedExtensions keeps only files whose path ends in one of exts.
// The leading dot is optional. An empty list keeps every file.
func WithSupportedExtensions(exts []string) NormalizeOption {
	return func(o *normalizeOptions) {
		o.supportedExts = append(o.supportedExts, cleanExtensions(exts)...)
	}
}

// WithProjectExtensions resolves a project-specific extension list. A
// non-empty result replaces the list given to WithSupportedExtensions.
func WithProjectExtensions(resolve func(project string) []string) NormalizeOption {
	return func(o *normalizeOptions) { o.projectExts = resolve }
}

func cleanExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// WithClock overrides the time source used for ReceivedAt.
func WithClock(now func() time.Time) NormalizeOption {
	return func(o *normalizeOptions) { o.now = now }
}

func buildOptions(opts []NormalizeOption) *normalizeOptions {
	o := &normalizeOptions{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Normalize decodes a kind-specific event payload and maps it to a Change. It
// acts as an anti-corruption layer: whatever reaches the orchestrator has a
// project identity and at least one file with diff content. Optional fields
// such as URL or revision are left empty when absent.
func Normalize(kind SourceKind, payload []byte, opts ...NormalizeOption) (*Change, error) {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return nil, malformed(kind, "", "empty payload")
	}

	switch kind {
	case KindMergeRequest:
		var ev MergeRequestEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, &MalformedEventError{Kind: kind, Reason: "invalid JSON", Err: err}
		}
		return FromMergeRequest(&ev, opts...)
	case KindPush:
		var ev PushEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, &MalformedEventError{Kind: kind, Reason: "invalid JSON", Err: err}
		}
		return FromPush(&ev, opts...)
	case KindSVNRevision:
		var ev SVNRevisionEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, &MalformedEventError{Kind: kind, Reason: "invalid JSON", Err: err}
		}
		return FromSVNRevision(&ev, opts...)
	default:
		return nil, malformed(kind, "kind", "unsupported source kind")
	}
}

// FromMergeRequest maps a MergeRequestEvent to a Change.
func FromMergeRequest(ev *MergeRequestEvent, opts ...NormalizeOption) (*Change, error) {
	if ev == nil {
		return nil, malformed(KindMergeRequest, "", "event is nil")
	}
	o := buildOptions(opts)
	c := &Change{
		Kind:           KindMergeRequest,
		ProjectName:    strings.TrimSpace(ev.Project),
		Author:         strings.TrimSpace(ev.Author),
		SourceBranch:   strings.TrimSpace(ev.SourceBranch),
		TargetBranch:   strings.TrimSpace(ev.TargetBranch),
		URL:            strings.TrimSpace(ev.URL),
		CommitMessages: commitMessages(ev.Commits),
		ReceivedAt:     o.now(),
	}
	return finish(c, ev.Changes, o)
}

// FromPush maps a PushEvent to a Change.
func FromPush(ev *PushEvent, opts ...NormalizeOption) (*Change, error) {
	if ev == nil {
		return nil, malformed(KindPush, "", "event is nil")
	}
	o := buildOptions(opts)
	c := &Change{
		Kind:           KindPush,
		ProjectName:    strings.TrimSpace(ev.Project),
		Author:         strings.TrimSpace(ev.Author),
		Branch:         strings.TrimPrefix(strings.TrimSpace(ev.Branch), "refs/heads/"),
		CommitMessages: commitMessages(ev.Commits),
		ReceivedAt:     o.now(),
	}
	if len(ev.Commits) > 0 {
		c.Revision = ev.Commits[0].ID
	}
	return finish(c, ev.Changes, o)
}

// FromSVNRevision maps an SVNRevisionEvent to a Change. When the event has no
// project name the last element of the repository path is used, which is what
// operators see in their SVN checkout list.
func FromSVNRevision(ev *SVNRevisionEvent, opts ...NormalizeOption) (*Change, error) {
	if ev == nil {
		return nil, malformed(KindSVNRevision, "", "event is nil")
	}
	o := buildOptions(opts)
	project := strings.TrimSpace(ev.Project)
	if project == "" && strings.Trim(ev.Path, `/\ `) != "" {
		project = path.Base(strings.ReplaceAll(strings.TrimRight(ev.Path, `/\ `), `\`, "/"))
	}
	c := &Change{
		Kind:        KindSVNRevision,
		ProjectName: project,
		Author:      strings.TrimSpace(ev.Author),
		Revision:    strings.TrimPrefix(strings.TrimSpace(ev.Revision), "r"),
		CommitDate:  ev.Date,
		ReceivedAt:  o.now(),
	}
	if msg := strings.TrimSpace(ev.Message); msg != "" {
		c.CommitMessages = []string{msg}
	}
	return finish(c, ev.Changes, o)
}

func finish(c *Change, changes []FileChange, o *normalizeOptions) (*Change, error) {
	if c.ProjectName == "" {
		return nil, malformed(c.Kind, "project", "project identity is required")
	}

	exts := o.supportedExts
	if o.projectExts != nil {
		if projectExts := cleanExtensions(o.projectExts(c.ProjectName)); len(projectExts) > 0 {
			exts = projectExts
		}
	}

	files := make([]FileChange, 0, len(changes))
	for _, f := range changes {
		f.Path = strings.TrimSpace(f.Path)
		if f.Path == "" || strings.TrimSpace(f.Diff) == "" {
			continue
		}
		if !supported(exts, f.Path) {
			continue
		}
		if f.Additions == 0 && f.Deletions == 0 {
			f.Additions, f.Deletions = CountDiffLines(f.Diff)
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		if len(changes) > 0 && len(exts) > 0 {
			return nil, malformed(c.Kind, "changes", "no reviewable files")
		}
		return nil, malformed(c.Kind, "changes", "diff content is required")
	}

	c.Files = files
	for _, f := range files {
		c.Additions += f.Additions
		c.Deletions += f.Deletions
	}
	return c, nil
}

func supported(exts []string, p string) bool {
	if len(exts) == 0 {
		return true
	}
	lower := strings.ToLower(p)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func commitMessages(commits []Commit) []string {
	msgs := make([]string, 0, len(commits))
	for _, c := range commits {
		if m := strings.TrimSpace(c.Message); m != "" {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// CountDiffLines counts added and removed lines of a unified diff, ignoring
// the ---/+++ file headers.
func CountDiffLines(diff string) (additions, deletions int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			additions++
		case strings.HasPrefix(line, "-"):
			deletions++
		}
	}
	return additions, deletions
}
