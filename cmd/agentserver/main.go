// Command agentserver serves the catalogued agents as MCP tools over
// streamable HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xiaot623/gogo/director/internal/adapter/llm"
	"github.com/xiaot623/gogo/director/internal/app"
	"github.com/xiaot623/gogo/director/internal/config"
	"github.com/xiaot623/gogo/director/internal/logging"
	"github.com/xiaot623/gogo/director/internal/mcpserver"
)

func main() {
	cfg := config.Load()
	logger := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader, closeRegistry, err := app.RegistryLoader(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize agent registry", "error", err)
		os.Exit(1)
	}
	defer closeRegistry()

	reg, err := loader.Load(ctx)
	if err != nil {
		logger.Error("failed to load agent registry", "error", err)
		os.Exit(1)
	}

	gen, err := llm.NewGenerator(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize generative backend", "error", err)
		os.Exit(1)
	}
	defer app.CloseGenerator(gen)

	// the agent server always runs agents in-process
	directory := app.LocalDirectory(cfg, gen)

	srv, err := mcpserver.New(reg, directory, mcpserver.Config{
		Name:   "director-agents",
		Logger: logging.Named("agentserver"),
	})
	if err != nil {
		logger.Error("failed to create agent server", "error", err)
		os.Exit(1)
	}

	// pick up agents provisioned after startup
	go srv.Watch(ctx, loader, cfg.RegistryRefresh)

	if err := srv.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.AgentServerPort)); err != nil {
		logger.Error("agent server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("agent server stopped")
}
