package completion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/critic/internal/providers"
)

// Generator is the upstream text-generation call.
type Generator interface {
	Generate(ctx context.Context, req providers.Request) (providers.Response, error)
}

// Logger receives one warning per retry.
type Logger interface {
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...any) {}

// Caller performs validated, retried completions against one Generator.
type Caller struct {
	gen      Generator
	template providers.Request
	policy   Policy
	logger   Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Caller.
type Option func(*Caller)

// WithPolicy sets the deployment-wide retry policy.
func WithPolicy(p Policy) Option {
	return func(c *Caller) { c.policy = p }
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l Logger) Option {
	return func(c *Caller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSystemPrompt sets the system instruction sent with every prompt.
func WithSystemPrompt(s string) Option {
	return func(c *Caller) { c.template.SystemPrompt = s }
}

// WithMaxTokens caps the length of each completion.
func WithMaxTokens(n int) Option {
	return func(c *Caller) { c.template.MaxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Caller) { c.template.Temperature = t }
}

// WithSleep replaces the backoff wait. Tests use it to record delays instead
// of sleeping.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Caller) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// New creates a Caller around gen.
func New(gen Generator, opts ...Option) *Caller {
	c := &Caller{
		gen:    gen,
		policy: DefaultPolicy(),
		logger: nopLogger{},
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the caller's default policy.
func (c *Caller) Policy() Policy {
	return c.policy
}

// Complete sends prompt upstream and returns the trimmed response text.
//
// An empty or whitespace-only prompt fails with ErrInvalidInput before any
// upstream call. Otherwise Complete makes at most Attempts+1 calls and either
// returns non-empty text or an *ExhaustedError. If ctx is cancelled the loop
// stops and the context error is returned.
func (c *Caller) Complete(ctx context.Context, prompt string, opts ...CallOption) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrInvalidInput
	}

	policy := c.policy
	for _, opt := range opts {
		opt(&policy)
	}

	req := c.template
	req.UserPrompt = prompt

	remaining := max(policy.Attempts, 0)
	delay := min(policy.InitialDelay, MaxDelay)
	attempt := 0

	for {
		attempt++
		text, err := c.attempt(ctx, req, attempt, policy.AttemptTimeout)
		if err == nil {
			return text, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("completion cancelled after %d attempts: %w", attempt, ctxErr)
		}
		if remaining == 0 {
			return "", &ExhaustedError{Attempts: attempt, Last: err}
		}

		c.logger.Warnf("upstream transient error: %v. Retries remaining: %d. Next attempt in %s",
			err, remaining, delay)

		if err := c.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("completion cancelled after %d attempts: %w", attempt, err)
		}
		delay = nextDelay(delay)
		remaining--
	}
}

func (c *Caller) attempt(ctx context.Context, req providers.Request, n int, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := c.gen.Generate(ctx, req)
	if err != nil {
		return "", &TransientError{Attempt: n, Err: err}
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", &TransientError{Attempt: n, Err: ErrEmptyCompletion}
	}
	return text, nil
}

func nextDelay(d time.Duration) time.Duration {
	if d > MaxDelay/2 {
		return MaxDelay
	}
	return d * 2
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
