// Package store defines the persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/xiaot623/gogo/director/internal/domain"
)

// AgentStore persists agent descriptors.
type AgentStore interface {
	ListAgents(ctx context.Context) ([]domain.AgentDescriptor, error)
	PutAgent(ctx context.Context, agent domain.AgentDescriptor) error
	DeleteAgent(ctx context.Context, id string) error
	ClearAgents(ctx context.Context) (int, error)
	Close() error
}

// JobStore records quotes and execution reports.
type JobStore interface {
	SaveQuote(ctx context.Context, plan *domain.Plan) error
	SaveExecution(ctx context.Context, report *domain.ExecutionReport) error
	GetJob(ctx context.Context, jobID string) (*domain.JobRecord, error)
	Close() error
}
