package output

import (
	"fmt"
	"html/template"
	"io"

	"github.com/dshills/critic/internal/review"
)

var pageTemplate = template.Must(template.New("review").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Critic Code Review{{with .Language}}: {{.}}{{end}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
pre { background: #f6f8fa; padding: 1rem; overflow-x: auto; }
table { border-collapse: collapse; }
td, th { border: 1px solid #d0d7de; padding: .25rem .5rem; }
footer { color: #57606a; font-size: .875rem; margin-top: 2rem; }
</style>
</head>
<body>
<header><h1>Critic Code Review</h1><p>{{if .Language}}{{.Language}} · {{end}}{{.Provider}}/{{.Model}}</p></header>
<main>
{{.Body}}
</main>
<footer>{{if .Cached}}Served from cache{{else}}Reviewed in {{.TotalMs}}ms{{end}}</footer>
</body>
</html>
`))

// HTMLWriter outputs a standalone HTML page.
type HTMLWriter struct{}

func (h *HTMLWriter) Write(w io.Writer, res *review.Result) error {
	body := res.HTML
	if body == "" && res.Markdown != "" {
		rendered, err := review.RenderHTML(res.Markdown)
		if err != nil {
			return err
		}
		body = rendered
	}
	data := struct {
		Language, Provider, Model string
		Cached                    bool
		TotalMs                   int64
		Body                      template.HTML
	}{
		Language: res.Language,
		Provider: res.Provider,
		Model:    res.Model,
		Cached:   res.Cached,
		TotalMs:  res.Timing.TotalMs,
		// Rendered by goldmark with raw HTML disabled.
		Body: template.HTML(body),
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("writing HTML: %w", err)
	}
	return nil
}
