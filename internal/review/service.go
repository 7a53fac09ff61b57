package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/critic/internal/cache"
	"github.com/dshills/critic/internal/completion"
	"github.com/dshills/critic/internal/logging"
	"github.com/dshills/critic/internal/redact"
)

// Completer produces the review text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts ...completion.CallOption) (string, error)
}

// Service reviews submissions. It is safe for concurrent use.
type Service struct {
	completer Completer
	cache     *cache.Cache
	redact    bool
	provider  string
	model     string
	log       *logging.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables lookups in and writes to c.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithRedaction toggles secret scrubbing of submitted code.
func WithRedaction(on bool) Option {
	return func(s *Service) { s.redact = on }
}

// WithModel records the provider and model that back the completer. They
// are part of the cache key and are reported in results.
func WithModel(provider, model string) Option {
	return func(s *Service) {
		s.provider = provider
		s.model = model
	}
}

// WithLogger sets the service logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service backed by c. Redaction is on by default.
func NewService(c Completer, opts ...Option) *Service {
	s := &Service{
		completer: c,
		redact:    true,
		log:       logging.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the provider name the service reports.
func (s *Service) Provider() string { return s.provider }

// Model returns the model name the service reports.
func (s *Service) Model() string { return s.model }

// Review produces a review for sub. Blank code fails with
// completion.ErrInvalidInput before anything else happens.
func (s *Service) Review(ctx context.Context, sub Submission, opts ...completion.CallOption) (*Result, error) {
	start := s.now()

	code := strings.TrimSpace(sub.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: code must not be empty", completion.ErrInvalidInput)
	}

	lang := ResolveLanguage(sub.Language, sub.Filename, code)

	var redactions int
	if s.redact {
		var report redact.Report
		code, report = redact.Scan(code)
		redactions = report.Count
		if report.Count > 0 {
			s.log.Infof("redacted %d secret(s) before review: %s", report.Count, strings.Join(report.Kinds, ", "))
		}
	}

	prompt := BuildPrompt(lang, code)
	key := cache.BuildKey(s.provider, s.model, lang.Name, prompt)

	res := &Result{
		ID:         uuid.NewString(),
		Language:   lang.Name,
		Provider:   s.provider,
		Model:      s.model,
		Redactions: redactions,
	}

	if entry, ok := s.cache.Get(key); ok {
		s.log.Debugf("cache hit for %s review", displayName(lang))
		res.Markdown = entry.Markdown
		res.Cached = true
	} else {
		llmStart := s.now()
		text, err := s.completer.Complete(ctx, prompt, opts...)
		if err != nil {
			return nil, fmt.Errorf("review failed: %w", err)
		}
		res.Timing.LLMMs = s.now().Sub(llmStart).Milliseconds()
		res.Markdown = text

		if err := s.cache.Put(key, cache.Entry{
			Provider: s.provider,
			Model:    s.model,
			Language: lang.Name,
			Markdown: text,
		}); err != nil {
			s.log.Warnf("cache write failed: %v", err)
		}
	}

	html, err := RenderHTML(res.Markdown)
	if err != nil {
		s.log.Warnf("%v", err)
	}
	res.HTML = html

	end := s.now()
	res.CreatedAt = end.UTC()
	res.Timing.TotalMs = end.Sub(start).Milliseconds()
	return res, nil
}

func displayName(l Language) string {
	if l.Name == "" {
		return "unknown-language"
	}
	return l.Name
}
