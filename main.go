package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiaot623/gogo/director/internal/adapter/llm"
	"github.com/xiaot623/gogo/director/internal/app"
	"github.com/xiaot623/gogo/director/internal/config"
	"github.com/xiaot623/gogo/director/internal/executor"
	"github.com/xiaot623/gogo/director/internal/logging"
	"github.com/xiaot623/gogo/director/internal/metrics"
	"github.com/xiaot623/gogo/director/internal/planner"
	store "github.com/xiaot623/gogo/director/internal/repository"
	"github.com/xiaot623/gogo/director/internal/service"
	handler "github.com/xiaot623/gogo/director/internal/transport/http"
	"github.com/xiaot623/gogo/director/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting director",
		"http_port", cfg.HTTPPort,
		"database", cfg.DatabaseURL,
		"registry", cfg.RegistryBackend,
		"agent_server", cfg.AgentServerURL,
	)

	ctx := context.Background()

	// Initialize agent registry
	loader, closeRegistry, err := app.RegistryLoader(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize agent registry", "error", err)
		os.Exit(1)
	}
	defer closeRegistry()

	// Initialize job ledger
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize generative backend
	gen, err := llm.NewGenerator(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize generative backend", "error", err)
		os.Exit(1)
	}
	defer app.CloseGenerator(gen)
	logger.Info("generative backend ready", "backend", gen.Name())

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		logger.Error("failed to initialize policy engine", "error", err)
		os.Exit(1)
	}

	// Initialize agents
	directory, closeAgents := app.AgentDirectory(cfg, gen)
	defer closeAgents()

	p := planner.New(gen,
		planner.WithPolicy(policyEngine, policy.PlanLimits{MaxSteps: cfg.MaxPlanSteps, MaxTotalCost: cfg.MaxPlanCost}),
		planner.WithTimeout(cfg.PlannerTimeout),
		planner.WithLogger(logging.Named("planner")),
	)
	e := executor.New(directory,
		executor.WithStepDelay(cfg.StepDelay),
		executor.WithStepTimeout(cfg.AgentTimeout),
		executor.WithResetOnFailure(cfg.ContextOnFailure == config.ContextReset),
		executor.WithObserver(metrics.StepObserver{}),
		executor.WithLogger(logging.Named("executor")),
	)

	// Initialize service
	svc := service.New(loader, p, e, directory, db, logging.Named("service"))

	server := handler.NewServer(svc)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("director API started", "port", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down director")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server gracefully", "error", err)
	}

	logger.Info("director stopped")
}
