// Package providers implements the upstream text-generation call for each
// supported LLM vendor.
//
// Supported providers: Google (Gemini, the default), OpenAI (through the
// official openai-go SDK), Anthropic (Claude), and Ollama / LM Studio for local
// models.
//
// Every [Generator] makes exactly one HTTP round trip per call. Retrying is
// the caller's job (see package completion), so providers only classify
// failures: [AuthError] for rejected credentials, [RateLimitError] for HTTP
// 429, [StatusError] for any other non-200 reply. A missing API key is a
// [CredentialError] raised by the constructor, before any call is attempted.
//
// Use [New] to obtain a Generator by provider name and model string.
package providers
