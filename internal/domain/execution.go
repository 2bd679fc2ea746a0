package domain

import "time"

// ExecutionResult records the outcome of one executed PlanStep.
type ExecutionResult struct {
	AgentID       string         `json:"agentId,omitempty"`
	AgentAddress  string         `json:"agentAddress"`
	AgentName     string         `json:"agentName"`
	ExecutionCost float64        `json:"executionCost"`
	Timestamp     string         `json:"timestamp"`
	Status        StepStatus     `json:"status"`
	Result        string         `json:"result,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Error         string         `json:"error,omitempty"`
	InputPrompt   string         `json:"inputPrompt"`
	DurationMs    int64          `json:"durationMs"`
}

// ExecutionSummary aggregates an execution ledger.
type ExecutionSummary struct {
	TotalAgents      int     `json:"totalAgents"`
	SuccessfulAgents int     `json:"successfulAgents"`
	FailedAgents     int     `json:"failedAgents"`
	TotalCost        float64 `json:"totalCost"`
}

// ExecutionReport is the response of an execute operation.
type ExecutionReport struct {
	JobID            string            `json:"jobId"`
	Status           JobStatus         `json:"status"`
	Timestamp        string            `json:"timestamp"`
	ExecutionSummary ExecutionSummary  `json:"executionSummary"`
	Results          []ExecutionResult `json:"results"`
}

// JobRecord is a job as kept in the ledger.
type JobRecord struct {
	JobID          string           `json:"jobId"`
	OriginalPrompt string           `json:"originalPrompt"`
	Status         JobStatus        `json:"status"`
	TotalCost      float64          `json:"totalCost"`
	AgentCount     int              `json:"agentCount"`
	AgentSequence  []PlanStep       `json:"agentSequence"`
	CreatedAt      time.Time        `json:"createdAt"`
	ExecutedAt     *time.Time       `json:"executedAt,omitempty"`
	Execution      *ExecutionReport `json:"execution,omitempty"`
}

// Timestamp formats t the way every API timestamp is rendered.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
