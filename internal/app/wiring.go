// Package app assembles the components shared by the director binaries.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/director/internal/adapter/agentclient"
	"github.com/xiaot623/gogo/director/internal/adapter/llm"
	"github.com/xiaot623/gogo/director/internal/agents"
	"github.com/xiaot623/gogo/director/internal/config"
	"github.com/xiaot623/gogo/director/internal/domain"
	"github.com/xiaot623/gogo/director/internal/logging"
	"github.com/xiaot623/gogo/director/internal/registry"
	store "github.com/xiaot623/gogo/director/internal/repository"
)

// OpenAgentStore connects to the Redis agent store.
func OpenAgentStore(ctx context.Context, cfg *config.Config) (*store.RedisAgentStore, error) {
	return store.NewRedisAgentStore(ctx, cfg.RedisURL, logging.Named("agent-store"))
}

// RegistryLoader returns the loader selected by cfg.RegistryBackend and a
// function releasing its resources.
func RegistryLoader(ctx context.Context, cfg *config.Config) (registry.Loader, func(), error) {
	switch cfg.RegistryBackend {
	case config.RegistryFile:
		descs, err := StaticCatalogue(cfg.RegistryFile)
		if err != nil {
			return nil, nil, err
		}
		reg, err := registry.New(descs)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build registry: %w", err)
		}
		return registry.NewStatic(reg), func() {}, nil
	case config.RegistryRedis:
		s, err := OpenAgentStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return registry.NewStoreLoader(s, logging.Named("registry")), func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown registry backend %q", cfg.RegistryBackend)
	}
}

// StaticCatalogue reads the catalogue at path, or the built-in catalogue
// when path is empty. Missing ids are derived from the agent name so they
// stay stable across restarts.
func StaticCatalogue(path string) ([]domain.AgentDescriptor, error) {
	descs := registry.DefaultAgents()
	if path != "" {
		var err error
		if descs, err = registry.LoadCatalogue(path); err != nil {
			return nil, err
		}
	}
	for i := range descs {
		if descs[i].ID == "" {
			descs[i].ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(descs[i].Name)).String()
		}
	}
	return descs, nil
}

// LocalDirectory serves every agent in-process over gen.
func LocalDirectory(cfg *config.Config, gen llm.Generator) *agents.Directory {
	return agents.NewDirectory(agents.NewFactory(agents.FactoryConfig{
		Generator:        gen,
		ScraperHealthURL: cfg.ScraperHealthURL,
	}))
}

// AgentDirectory serves agents through the agent server when
// cfg.AgentServerURL is set, and in-process otherwise. The returned function
// closes the remote connection, if any.
func AgentDirectory(cfg *config.Config, gen llm.Generator) (*agents.Directory, func()) {
	if cfg.AgentServerURL == "" {
		return LocalDirectory(cfg, gen), func() {}
	}
	client := agentclient.New(cfg.AgentServerURL, agentclient.WithRateLimit(cfg.AgentRateLimit, cfg.AgentRateBurst))
	dir := agents.NewDirectory(agents.NewFactory(agents.FactoryConfig{Remote: client}))
	return dir, func() { _ = client.Close() }
}

// CloseGenerator releases backends that hold connections.
func CloseGenerator(gen llm.Generator) {
	if c, ok := gen.(io.Closer); ok {
		_ = c.Close()
	}
}
