package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xiaot623/gogo/director/internal/domain"
	apperrors "github.com/xiaot623/gogo/director/internal/errors"
	"github.com/xiaot623/gogo/director/internal/executor"
	"github.com/xiaot623/gogo/director/internal/metrics"
)

// Quote plans prompt against the current registry.
func (s *Service) Quote(ctx context.Context, prompt string) (*domain.Plan, error) {
	if strings.TrimSpace(prompt) == "" {
		metrics.RecordQuote(string(apperrors.CodeValidation), 0)
		return nil, apperrors.Validation("prompt is required")
	}

	reg, err := s.loadRegistry(ctx)
	if err != nil {
		metrics.RecordQuote(string(apperrors.CodeOf(err)), 0)
		return nil, err
	}

	plan, err := s.planner.Plan(ctx, reg, prompt)
	if err != nil {
		metrics.RecordQuote(string(apperrors.CodeOf(err)), 0)
		return nil, err
	}
	metrics.RecordQuote("ok", plan.TotalCost)

	if s.jobs != nil {
		if err := s.jobs.SaveQuote(ctx, plan); err != nil {
			s.logger.Warn("failed to record quote", "job_id", plan.JobID, "error", err)
		}
	}
	return plan, nil
}

// Execute runs the valid steps of sequence and reports the ledger.
func (s *Service) Execute(ctx context.Context, jobID string, sequence []domain.PlanStep) (*domain.ExecutionReport, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, apperrors.Validation("jobId is required")
	}
	if len(sequence) == 0 {
		return nil, apperrors.Validation("agentSequence must be a non-empty array")
	}

	steps := domain.ValidSteps(sequence)
	if skipped := len(sequence) - len(steps); skipped > 0 {
		s.logger.Warn("skipping invalid steps", "job_id", jobID, "skipped", skipped)
	}
	if len(steps) == 0 {
		return nil, apperrors.Validation("agentSequence contains no valid steps")
	}

	reg, err := s.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("executing plan", "job_id", jobID, "steps", len(steps))
	results := s.executor.Run(ctx, reg, steps)
	summary := executor.Summarize(results)

	report := &domain.ExecutionReport{
		JobID:            jobID,
		Status:           executor.StatusOf(summary),
		Timestamp:        domain.Timestamp(s.now()),
		ExecutionSummary: summary,
		Results:          results,
	}
	metrics.RecordExecution(report.Status)
	s.logger.Info("plan executed",
		"job_id", jobID,
		"status", report.Status,
		"successful", summary.SuccessfulAgents,
		"failed", summary.FailedAgents,
		"total_cost", summary.TotalCost,
	)

	if s.jobs != nil {
		// ledger writes outlive the request
		if err := s.jobs.SaveExecution(context.WithoutCancel(ctx), report); err != nil {
			s.logger.Warn("failed to record execution", "job_id", jobID, "error", err)
		}
	}
	return report, nil
}

// GetJob returns the ledger record of a job.
func (s *Service) GetJob(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	if s.jobs == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "job ledger is disabled")
	}
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("job %s not found", jobID))
	}
	return job, nil
}
