package review

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a senior polyglot software engineer reviewing code written by a developer.

Focus on:
- Code quality: clean, modular, future-proof structure.
- Best practices: language and industry conventions.
- Performance: algorithms, memory use and runtime cost.
- Bugs: hidden defects and logical flaws.
- Security: injection, overflow and other unsafe patterns.
- Scalability: extensible, maintainable design.
- Readability: code others can follow and extend.

Guidelines:
- Give constructive feedback and explain why each point matters.
- Suggest improved or refactored code where it helps.
- Point out redundant or inefficient logic.
- Promote DRY, SOLID and KISS where they apply.
- Recommend modern practices for the language.

Tone: professional, precise and actionable. Mention strengths as well as weaknesses.

Respond in GitHub-flavored markdown.`

// SystemPrompt returns the reviewer instruction sent with every review.
func SystemPrompt() string {
	return systemPrompt
}

// BuildPrompt constructs the user prompt for code in lang.
func BuildPrompt(lang Language, code string) string {
	var b strings.Builder
	if lang.Name != "" {
		fmt.Fprintf(&b, "Review the following %s code.\n\n", lang.Name)
	} else {
		b.WriteString("Review the following code.\n\n")
	}
	fence := codeFence(code)
	b.WriteString(fence)
	b.WriteString(lang.ID)
	b.WriteString("\n")
	b.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(fence)
	b.WriteString("\n")
	return b.String()
}

// codeFence returns a backtick fence longer than any run inside code.
func codeFence(code string) string {
	longest, run := 0, 0
	for _, r := range code {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	n := 3
	if longest >= n {
		n = longest + 1
	}
	return strings.Repeat("`", n)
}
