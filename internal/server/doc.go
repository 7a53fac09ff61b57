// Package server exposes the review service over HTTP for the browser
// editor.
//
// Routes:
//
//	POST /ai/get-review  body {"code": "...", "language": "..."}
//	GET  /healthz
//
// A review is returned as text/markdown unless the client asks for
// application/json, in which case the full review.Result is encoded. Errors
// are always JSON: {"error": "...", "requestId": "..."}.
package server
