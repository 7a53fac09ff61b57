// Package output formats a review result for the terminal or a file.
//
// Four formats are supported:
//   - text     : the review with a short header, prose wrapped for a terminal (default)
//   - markdown : the review as markdown with a metadata header
//   - json     : the full review.Result
//   - html     : a standalone HTML page built from the rendered review
//
// Use [GetWriter] to obtain a [Writer] for a format string, or [WriteResult]
// to write straight to a file path or stdout.
package output
