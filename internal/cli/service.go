package cli

import (
	"github.com/dshills/critic/internal/cache"
	"github.com/dshills/critic/internal/completion"
	"github.com/dshills/critic/internal/config"
	"github.com/dshills/critic/internal/providers"
	"github.com/dshills/critic/internal/review"
)

// newGenerator constructs the upstream provider. Tests replace it.
var newGenerator = func(provider, model string) (completion.Generator, error) {
	return providers.New(provider, model)
}

func resolveModel(cfg config.Config) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	return providers.DefaultModel(cfg.Provider)
}

// buildService assembles provider, completion caller, cache and review
// service from cfg. A missing credential fails here, before any request.
func buildService(cfg config.Config) (*review.Service, error) {
	model := resolveModel(cfg)
	gen, err := newGenerator(cfg.Provider, model)
	if err != nil {
		return nil, err
	}

	caller := completion.New(gen,
		completion.WithPolicy(cfg.RetryPolicy()),
		completion.WithLogger(logger),
		completion.WithSystemPrompt(review.SystemPrompt()),
		completion.WithMaxTokens(cfg.MaxTokens),
		completion.WithTemperature(cfg.Temperature),
	)

	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		logger.Warnf("cache disabled: %v", err)
		c = nil
	}

	return review.NewService(caller,
		review.WithCache(c),
		review.WithRedaction(cfg.Privacy.RedactSecrets),
		review.WithModel(providers.Canonical(cfg.Provider), model),
		review.WithLogger(logger),
	), nil
}
