package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/xiaot623/gogo/director/internal/agents"
	apperrors "github.com/xiaot623/gogo/director/internal/errors"
	"github.com/xiaot623/gogo/director/internal/executor"
	"github.com/xiaot623/gogo/director/internal/planner"
	"github.com/xiaot623/gogo/director/internal/registry"
	store "github.com/xiaot623/gogo/director/internal/repository"
)

// Service coordinates planning, execution and the job ledger.
type Service struct {
	loader    registry.Loader
	planner   *planner.Planner
	executor  *executor.Executor
	directory *agents.Directory
	jobs      store.JobStore
	logger    *slog.Logger
	started   time.Time
	now       func() time.Time
}

// New creates a service. jobs may be nil to disable the ledger.
func New(loader registry.Loader, p *planner.Planner, e *executor.Executor, directory *agents.Directory, jobs store.JobStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		loader:    loader,
		planner:   p,
		executor:  e,
		directory: directory,
		jobs:      jobs,
		logger:    logger,
		started:   time.Now(),
		now:       time.Now,
	}
}

// Uptime returns how long the service has been running.
func (s *Service) Uptime() time.Duration {
	return s.now().Sub(s.started)
}

// loadRegistry takes the snapshot for one request.
func (s *Service) loadRegistry(ctx context.Context) (*registry.Registry, error) {
	reg, err := s.loader.Load(ctx)
	if err != nil {
		if _, coded := apperrors.From(err); coded {
			return nil, err
		}
		return nil, apperrors.Wrap(err, apperrors.CodeRegistryUnavailable, "agent registry unavailable")
	}
	return reg, nil
}
