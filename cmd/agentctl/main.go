// Command agentctl manages the agent catalogue in Redis.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xiaot623/gogo/director/internal/agentctl"
	"github.com/xiaot623/gogo/director/internal/app"
	"github.com/xiaot623/gogo/director/internal/config"
	"github.com/xiaot623/gogo/director/internal/logging"
	store "github.com/xiaot623/gogo/director/internal/repository"
)

func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: "text", Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := agentctl.NewCommand(func(ctx context.Context) (store.AgentStore, error) {
		return app.OpenAgentStore(ctx, cfg)
	})
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
