package output

import (
	"io"
	"strings"

	"github.com/dshills/critic/internal/review"
)

// MarkdownWriter outputs the review as a markdown document.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, res *review.Result) error {
	ew := &errWriter{w: w}

	ew.printf("## Critic Code Review\n\n")
	ew.printf("| Language | Model |\n")
	ew.printf("|----------|-------|\n")
	ew.printf("| %s | `%s/%s` |\n\n", mdCell(res.Language), res.Provider, res.Model)

	ew.println(strings.TrimSpace(res.Markdown))
	ew.println("")

	if res.Cached {
		ew.printf("*Served from cache*\n")
	} else {
		ew.printf("*Reviewed in %dms (LLM: %dms)*\n", res.Timing.TotalMs, res.Timing.LLMMs)
	}
	return ew.err
}

func mdCell(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
