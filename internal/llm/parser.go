package llm

import (
	"regexp"
	"strconv"
	"strings"
)

const scoreValue = `\s*(?:\*\*)?\s*[:：]\s*(?:\*\*)?\s*(\d{1,3})(?:\s*/\s*100)?`

var (
	// Matches: 总分:85分, 总分：85, Total score: 85, **Total Score**: 85/100
	totalScoreRegex = regexp.MustCompile(`(?i)(?:总分|\btotal\s+score)` + scoreValue)
	// Matches: Score: 85/100, but not Subscore: 3
	bareScoreRegex  = regexp.MustCompile(`(?i)\bscore` + scoreValue)
	thinkRegex      = regexp.MustCompile(`(?is)<think>.*?</think>`)
)

// ParseScore extracts the numeric score from a review. A total score line is
// preferred over bare "score" labels such as per-category scores; within each
// form the last match wins. The result is clamped to 0..100.
func ParseScore(text string) (int, bool) {
	matches := totalScoreRegex.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		matches = bareScoreRegex.FindAllStringSubmatch(text, -1)
	}
	if len(matches) == 0 {
		return 0, false
	}
	score, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return 0, false
	}
	return min(max(score, 0), 100), true
}

// cleanResponse removes reasoning blocks and a wrapping Markdown fence.
func cleanResponse(s string) string {
	s = stripThinkBlocks(s)
	return strings.TrimSpace(stripMarkdownFence(s))
}

// stripThinkBlocks removes <think>...</think> sections emitted by reasoning
// models. An unterminated block swallows the rest of the text.
func stripThinkBlocks(s string) string {
	s = thinkRegex.ReplaceAllString(s, "")
	if idx := strings.Index(strings.ToLower(s), "<think>"); idx >= 0 {
		s = s[:idx]
	}
	return s
}

// stripMarkdownFence removes ```markdown ... ``` wrapping that some LLMs add around their output.
func stripMarkdownFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "```markdown") || strings.HasPrefix(trimmed, "```md") {
		idx := strings.Index(trimmed, "\n")
		if idx < 0 {
			return s
		}
		inner := trimmed[idx+1:]
		if lastFence := strings.LastIndex(inner, "```"); lastFence >= 0 {
			inner = inner[:lastFence]
		}
		return strings.TrimSpace(inner)
	}
	return s
}
