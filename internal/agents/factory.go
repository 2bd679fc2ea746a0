package agents

import (
	"errors"
	"net/http"

	"github.com/xiaot623/gogo/director/internal/adapter/llm"
	"github.com/xiaot623/gogo/director/internal/domain"
	"github.com/xiaot623/gogo/director/internal/registry"
)

// FactoryConfig selects how agents without an explicit registration are built.
type FactoryConfig struct {
	// Remote, when set, serves every agent through the agent server.
	Remote Invoker
	// Generator backs prompt agents and scraper clean-up.
	Generator llm.Generator
	// HTTPClient is used by scrapers; nil keeps the scraper default.
	HTTPClient *http.Client
	// ScraperHealthURL is the page fetched by scraper health checks.
	ScraperHealthURL string
}

// NewFactory returns a Factory for cfg.
func NewFactory(cfg FactoryConfig) Factory {
	return func(desc domain.AgentDescriptor) (Agent, error) {
		if cfg.Remote != nil {
			return NewRemoteAgent(desc.Address, cfg.Remote), nil
		}

		desc.Capability = registry.ResolveCapability(desc)
		if desc.Capability == domain.CapabilityURLFetcher {
			var opts []ScraperOption
			if cfg.HTTPClient != nil {
				opts = append(opts, WithHTTPClient(cfg.HTTPClient))
			}
			if cfg.Generator != nil {
				opts = append(opts, WithCleaner(cfg.Generator))
			}
			if cfg.ScraperHealthURL != "" {
				opts = append(opts, WithHealthURL(cfg.ScraperHealthURL))
			}
			return NewScraperAgent(opts...), nil
		}

		if cfg.Generator == nil {
			return nil, errors.New("no generative backend configured")
		}
		return NewPromptAgent(desc, cfg.Generator), nil
	}
}
