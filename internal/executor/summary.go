package executor

import "github.com/xiaot623/gogo/director/internal/domain"

// Summarize aggregates an execution ledger. Cost covers every attempted step.
func Summarize(results []domain.ExecutionResult) domain.ExecutionSummary {
	s := domain.ExecutionSummary{TotalAgents: len(results)}
	for _, r := range results {
		switch r.Status {
		case domain.StepStatusCompleted:
			s.SuccessfulAgents++
		case domain.StepStatusFailed:
			s.FailedAgents++
		}
		s.TotalCost += r.ExecutionCost
	}
	return s
}

// StatusOf returns the job status implied by a summary.
func StatusOf(s domain.ExecutionSummary) domain.JobStatus {
	if s.FailedAgents > 0 {
		return domain.JobStatusPartialFailure
	}
	return domain.JobStatusCompleted
}
