package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/director/internal/domain"
	apperrors "github.com/xiaot623/gogo/director/internal/errors"
)

// QuoteRequest is the request to plan a prompt.
type QuoteRequest struct {
	Prompt string `json:"prompt"`
}

// QuoteResponse is a successful quote.
type QuoteResponse struct {
	Success bool `json:"success"`
	*domain.Plan
}

// StepRequest is a plan step as echoed back by the caller. A missing valid
// flag counts as valid.
type StepRequest struct {
	AgentAddress string  `json:"agentAddress"`
	AgentID      string  `json:"agentId"`
	AgentName    string  `json:"agentName"`
	AgentPrompt  string  `json:"agentPrompt"`
	Cost         float64 `json:"cost"`
	Valid        *bool   `json:"valid"`
}

// ExecuteRequest is the request to run a quoted plan.
type ExecuteRequest struct {
	JobID         string        `json:"jobId"`
	AgentSequence []StepRequest `json:"agentSequence"`
}

func (r ExecuteRequest) steps() []domain.PlanStep {
	steps := make([]domain.PlanStep, 0, len(r.AgentSequence))
	for _, s := range r.AgentSequence {
		valid := s.Valid == nil || *s.Valid
		steps = append(steps, domain.PlanStep{
			AgentAddress: s.AgentAddress,
			AgentID:      s.AgentID,
			AgentName:    s.AgentName,
			AgentPrompt:  s.AgentPrompt,
			Cost:         s.Cost,
			Valid:        valid,
		})
	}
	return steps
}

// Quote plans a prompt and returns the costed agent sequence.
// POST /api/jobs/quote
func (h *Handler) Quote(c echo.Context) error {
	ctx := c.Request().Context()

	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperrors.Validation("invalid request body"), nil)
	}

	plan, err := h.service.Quote(ctx, req.Prompt)
	if err != nil {
		return writeError(c, err, nil)
	}

	return c.JSON(http.StatusOK, QuoteResponse{Success: true, Plan: plan})
}

// Execute runs a quoted plan.
// POST /api/jobs/execute
func (h *Handler) Execute(c echo.Context) error {
	ctx := c.Request().Context()

	var req ExecuteRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperrors.Validation("invalid request body"), jobIDField(req.JobID))
	}

	report, err := h.service.Execute(ctx, req.JobID, req.steps())
	if err != nil {
		return writeError(c, err, jobIDField(req.JobID))
	}

	return c.JSON(http.StatusOK, report)
}

// GetJob returns the ledger record of a job.
// GET /api/jobs/:job_id
func (h *Handler) GetJob(c echo.Context) error {
	ctx := c.Request().Context()
	jobID := c.Param("job_id")

	job, err := h.service.GetJob(ctx, jobID)
	if err != nil {
		return writeError(c, err, nil)
	}

	return c.JSON(http.StatusOK, job)
}

func jobIDField(jobID string) map[string]interface{} {
	if jobID == "" {
		return nil
	}
	return map[string]interface{}{"jobId": jobID}
}
