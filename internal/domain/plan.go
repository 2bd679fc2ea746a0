package domain

import "time"

// UnknownAgentName is the display name of steps whose address did not resolve.
const UnknownAgentName = "Unknown Agent"

// PlanStep is one entry of an ordered execution plan.
type PlanStep struct {
	AgentAddress string  `json:"agentAddress"`
	AgentID      string  `json:"agentId,omitempty"`
	AgentName    string  `json:"agentName"`
	AgentPrompt  string  `json:"agentPrompt"`
	Cost         float64 `json:"cost"`
	Valid        bool    `json:"valid"`
	Reason       string  `json:"reason,omitempty"`
}

// CorrelationID returns the agent identity passed along with an invocation.
func (s PlanStep) CorrelationID() string {
	if s.AgentID != "" {
		return s.AgentID
	}
	return s.AgentAddress
}

// Plan is a costed, ordered sequence of agent invocations.
type Plan struct {
	JobID          string     `json:"jobId"`
	AgentSequence  []PlanStep `json:"agentSequence"`
	InvalidSteps   []PlanStep `json:"invalidSteps,omitempty"`
	TotalCost      float64    `json:"totalCost"`
	AgentCount     int        `json:"agentCount"`
	OriginalPrompt string     `json:"originalPrompt"`
	CreatedAt      time.Time  `json:"-"`
	Timestamp      string     `json:"timestamp"`
}

// ValidSteps returns the steps of steps whose Valid flag is set, preserving order.
func ValidSteps(steps []PlanStep) []PlanStep {
	out := make([]PlanStep, 0, len(steps))
	for _, s := range steps {
		if s.Valid {
			out = append(out, s)
		}
	}
	return out
}
