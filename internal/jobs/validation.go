package jobs

import (
	"strings"

	"github.com/sevigo/change-warden/internal/core"
)

// ValidateChange checks a Change built outside the normalizer before it
// enters the pipeline. It returns a *core.MalformedEventError on failure.
func ValidateChange(c *core.Change) error {
	if c == nil {
		return &core.MalformedEventError{Reason: "change is nil"}
	}
	if !c.Kind.Valid() {
		return &core.MalformedEventError{Kind: c.Kind, Field: "kind", Reason: "unsupported source kind"}
	}
	if strings.TrimSpace(c.ProjectName) == "" {
		return &core.MalformedEventError{Kind: c.Kind, Field: "project", Reason: "project identity is required"}
	}
	for _, f := range c.Files {
		if strings.TrimSpace(f.Path) != "" && strings.TrimSpace(f.Diff) != "" {
			return nil
		}
	}
	return &core.MalformedEventError{Kind: c.Kind, Field: "changes", Reason: "diff content is required"}
}
