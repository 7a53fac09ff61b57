// Critic is the code review backend for a browser code editor.
//
// It sends submitted source code to an LLM provider (Gemini by default) and
// returns a markdown review, retrying transient upstream failures with
// bounded exponential backoff.
//
// Usage:
//
//	critic serve                      # serve POST /ai/get-review on :3000
//	critic review main.py             # review a file from the terminal
//	cat app.js | critic review -l javascript -f markdown
//	critic models doctor              # check provider credentials
//	critic config set retry.attempts 5
package main
