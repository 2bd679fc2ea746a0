package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xiaot623/gogo/director/internal/domain"
	apperrors "github.com/xiaot623/gogo/director/internal/errors"
	"github.com/xiaot623/gogo/director/internal/pricing"
)

const healthTimeout = 15 * time.Second

// ListAgents returns every registered agent with its display price.
func (s *Service) ListAgents(ctx context.Context) ([]domain.AgentView, error) {
	reg, err := s.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	all := reg.ListAll()
	views := make([]domain.AgentView, 0, len(all))
	for _, a := range all {
		views = append(views, domain.AgentView{
			AgentDescriptor: a,
			DisplayPrice:    pricing.DisplayPrice(a.CostPerOutputToken),
		})
	}
	return views, nil
}

// CheckAgentHealth probes the agent registered under name.
func (s *Service) CheckAgentHealth(ctx context.Context, name string) (*domain.AgentHealth, error) {
	reg, err := s.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	desc, ok := reg.FindByName(name)
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("agent %s not found", name))
	}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	health := &domain.AgentHealth{Agent: desc.Name, Healthy: true}
	if err := s.directory.HealthCheck(ctx, desc); err != nil {
		health.Healthy = false
		health.Error = err.Error()
	}
	return health, nil
}
