// Package redact scrubs credentials out of submitted source code before it is
// sent to an LLM provider or written to the review cache.
//
// Detection is regex based and covers the secret shapes that most often end
// up pasted into an editor: provider API keys (Google, OpenAI, Anthropic),
// AWS credentials, JWTs and bearer tokens, private key blocks, GitHub and
// Slack tokens, credentials embedded in connection URLs, and generic
// key/secret/password assignments. Matches are replaced with [REDACTED].
package redact
