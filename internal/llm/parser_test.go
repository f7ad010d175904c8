package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   int
		wantOK bool
	}{
		{name: "english total", input: "Looks fine.\nTotal score: 85", want: 85, wantOK: true},
		{name: "chinese total", input: "代码质量良好\n总分:92分", want: 92, wantOK: true},
		{name: "full width colon", input: "总分：70", want: 70, wantOK: true},
		{name: "bold label", input: "**Total Score**: 64/100", want: 64, wantOK: true},
		{name: "score out of 100", input: "Score: 77/100", want: 77, wantOK: true},
		{name: "last match wins", input: "Correctness score: 30\nSecurity score: 15\nTotal score: 81", want: 81, wantOK: true},
		{name: "clamped", input: "Total score: 250", want: 100, wantOK: true},
		{name: "total beats trailing category score", input: "Total score: 81\nReadability score: 8", want: 81, wantOK: true},
		{name: "subscore is not a score", input: "Subscore: 3", want: 0, wantOK: false},
		{name: "bare score ignores trailing subscore", input: "Score: 72/100\nSubscore: 3", want: 72, wantOK: true},
		{name: "missing", input: "No number here.", want: 0, wantOK: false},
		{name: "empty", input: "", want: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseScore(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "think block removed",
			input: "<think>let me reason about this</think>\n## Summary\nGood.",
			want:  "## Summary\nGood.",
		},
		{
			name:  "multiline think block",
			input: "<THINK>\nline one\nline two\n</THINK>Review body",
			want:  "Review body",
		},
		{
			name:  "unterminated think block",
			input: "Review body\n<think>never closed",
			want:  "Review body",
		},
		{
			name:  "markdown fence",
			input: "```markdown\n## Summary\nFine.\n```",
			want:  "## Summary\nFine.",
		},
		{
			name:  "only reasoning",
			input: "<think>nothing useful</think>\n\n",
			want:  "",
		},
		{
			name:  "plain text untouched",
			input: "Plain review",
			want:  "Plain review",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanResponse(tt.input))
		})
	}
}
