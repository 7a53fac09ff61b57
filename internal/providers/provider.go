package providers

import (
	"context"
	"fmt"
	"strings"
)

// Request contains the data sent to an LLM.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Response contains the raw response from an LLM. Content is whatever text
// the provider could find; it may be empty.
type Response struct {
	Content    string
	TokensUsed int
}

// Generator is the provider abstraction interface.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Name() string
}

// New creates a provider by name. An empty model selects the provider's default.
func New(provider, model string) (Generator, error) {
	name := Canonical(provider)
	if model == "" {
		model = DefaultModel(name)
	}
	switch name {
	case "gemini":
		return NewGemini(model)
	case "openai":
		return NewOpenAI(model)
	case "anthropic":
		return NewAnthropic(model)
	case "ollama":
		return NewOllama(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// Canonical maps provider aliases to their canonical name.
func Canonical(provider string) string {
	p := strings.ToLower(strings.TrimSpace(provider))
	switch p {
	case "google":
		return "gemini"
	case "lmstudio":
		return "ollama"
	default:
		return p
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch Canonical(provider) {
	case "gemini":
		return "gemini-2.5-flash"
	case "openai":
		return "gpt-4.1-mini"
	case "anthropic":
		return "claude-sonnet-4-6"
	case "ollama":
		return "qwen2.5-coder"
	default:
		return ""
	}
}
