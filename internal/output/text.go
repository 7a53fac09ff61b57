package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/critic/internal/review"
)

// TextWriter prints the review for a terminal. Prose lines longer than Width
// are wrapped; code blocks, tables and list markers are left alone.
type TextWriter struct {
	Width int
}

func (t *TextWriter) Write(w io.Writer, res *review.Result) error {
	ew := &errWriter{w: w}

	lang := res.Language
	if lang == "" {
		lang = "unknown language"
	}
	ew.printf("Critic Code Review (%s)\n", lang)
	ew.printf("Model: %s/%s\n", res.Provider, res.Model)
	if res.Redactions > 0 {
		ew.printf("Redacted: %d secret(s) before sending\n", res.Redactions)
	}
	ew.println(strings.Repeat("─", 60))
	ew.println("")

	width := t.Width
	if width <= 0 {
		width = 80
	}
	inFence := false
	for _, line := range strings.Split(strings.TrimRight(res.Markdown, "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			ew.println(line)
			continue
		}
		if inFence || strings.HasPrefix(line, "    ") || !isProse(trimmed) {
			ew.println(line)
			continue
		}
		for _, l := range wrapText(line, width) {
			ew.println(l)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	if res.Cached {
		ew.println("Served from cache")
	} else {
		ew.printf("Completed in %dms (LLM: %dms)\n", res.Timing.TotalMs, res.Timing.LLMMs)
	}
	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func isProse(line string) bool {
	if line == "" {
		return false
	}
	for _, p := range []string{"#", "|", "-", "*", ">"} {
		if strings.HasPrefix(line, p) {
			return false
		}
	}
	return true
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
