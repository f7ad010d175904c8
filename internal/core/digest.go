package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strings"
)

// ContentDigest is the hex-encoded SHA-256 fingerprint of a Change's content.
type ContentDigest string

// Short returns the first 12 characters, for logs.
func (d ContentDigest) Short() string {
	if len(d) > 12 {
		return string(d[:12])
	}
	return string(d)
}

func (d ContentDigest) String() string { return string(d) }

// ComputeDigest fingerprints the identity-relevant content of a change:
// project name, branch identity and the (path, diff) pairs. Timestamps,
// revision numbers, URLs, authors, commit messages and the source kind do not
// participate, and whitespace-only edits to a diff do not change the result.
func ComputeDigest(c *Change) ContentDigest {
	h := sha256.New()
	writeField(h, "project", strings.TrimSpace(c.ProjectName))
	writeField(h, "branch", strings.TrimSpace(c.BranchIdentity()))

	files := make([]FileChange, len(c.Files))
	copy(files, c.Files)
	for i := range files {
		files[i].Diff = normalizeDiff(files[i].Diff)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Path != files[j].Path {
			return files[i].Path < files[j].Path
		}
		return files[i].Diff < files[j].Diff
	})

	for _, f := range files {
		writeField(h, "path", f.Path)
		writeField(h, "diff", f.Diff)
	}
	return ContentDigest(hex.EncodeToString(h.Sum(nil)))
}

// writeField frames each value with its length so content cannot bleed
// across field boundaries.
func writeField(h hash.Hash, name, value string) {
	fmt.Fprintf(h, "%s:%d:%s\n", name, len(value), value)
}

// normalizeDiff removes whitespace-only variation: line endings, indentation,
// spacing inside a line and empty lines.
func normalizeDiff(diff string) string {
	diff = strings.ReplaceAll(diff, "\r\n", "\n")
	diff = strings.ReplaceAll(diff, "\r", "\n")

	lines := strings.Split(diff, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), "")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
