// Package planner decomposes a user goal into a costed plan of agent steps.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/director/internal/adapter/llm"
	"github.com/xiaot623/gogo/director/internal/domain"
	apperrors "github.com/xiaot623/gogo/director/internal/errors"
	"github.com/xiaot623/gogo/director/internal/pricing"
	"github.com/xiaot623/gogo/director/internal/registry"
	"github.com/xiaot623/gogo/director/policy"
)

// Reasons attached to invalid steps.
const (
	ReasonMalformedAddress = "malformed agent address"
	ReasonUnknownAgent     = "agent address not found in registry"
	ReasonEmptyInstruction = "empty agent instruction"
)

// Planner turns goals into plans.
type Planner struct {
	generator llm.Generator
	policy    *policy.Engine
	limits    policy.PlanLimits
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Planner.
type Option func(*Planner)

// WithPolicy checks every plan against engine with the given limits.
func WithPolicy(engine *policy.Engine, limits policy.PlanLimits) Option {
	return func(p *Planner) {
		p.policy = engine
		p.limits = limits
	}
}

// WithTimeout bounds the backend call.
func WithTimeout(d time.Duration) Option {
	return func(p *Planner) { p.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

// WithClock overrides time and id generation.
func WithClock(now func() time.Time, newID func() string) Option {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
		if newID != nil {
			p.newID = newID
		}
	}
}

// New creates a planner backed by generator.
func New(generator llm.Generator, opts ...Option) *Planner {
	p := &Planner{
		generator: generator,
		timeout:   60 * time.Second,
		logger:    slog.Default(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan builds a plan for goal over the agents in reg.
func (p *Planner) Plan(ctx context.Context, reg *registry.Registry, goal string) (*domain.Plan, error) {
	if strings.TrimSpace(goal) == "" {
		return nil, apperrors.Validation("prompt is required")
	}
	agents := reg.ListAll()
	if len(agents) == 0 {
		return nil, apperrors.NoAgentsAvailable()
	}

	genCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	output, err := p.generator.Generate(genCtx, BuildPrompt(goal, agents))
	if err != nil {
		return nil, apperrors.Planning("decomposition backend failed", err)
	}

	raw, err := ParseSteps(output)
	if err != nil {
		return nil, err
	}

	valid := make([]domain.PlanStep, 0, len(raw))
	var invalid []domain.PlanStep
	var total float64
	for _, r := range raw {
		step := resolveStep(reg, r)
		if !step.Valid {
			p.logger.Warn("dropping invalid plan step",
				"agent_address", step.AgentAddress,
				"reason", step.Reason,
			)
			invalid = append(invalid, step)
			continue
		}
		total += step.Cost
		valid = append(valid, step)
	}

	if err := p.checkPolicy(ctx, valid, len(invalid), total); err != nil {
		return nil, err
	}

	created := p.now()
	plan := &domain.Plan{
		JobID:          p.newID(),
		AgentSequence:  valid,
		InvalidSteps:   invalid,
		TotalCost:      total,
		AgentCount:     len(valid),
		OriginalPrompt: goal,
		CreatedAt:      created,
		Timestamp:      domain.Timestamp(created),
	}
	p.logger.Info("plan created",
		"job_id", plan.JobID,
		"agents", plan.AgentCount,
		"invalid", len(invalid),
		"total_cost", plan.TotalCost,
	)
	return plan, nil
}

func resolveStep(reg *registry.Registry, r RawStep) domain.PlanStep {
	step := domain.PlanStep{
		AgentAddress: strings.TrimSpace(r.AgentAddress),
		AgentName:    domain.UnknownAgentName,
		AgentPrompt:  r.Instruction(),
	}
	if !registry.ValidAddress(step.AgentAddress) {
		step.Reason = ReasonMalformedAddress
		return step
	}
	desc, ok := reg.FindByAddress(step.AgentAddress)
	if !ok {
		step.Reason = ReasonUnknownAgent
		return step
	}
	step.AgentAddress = desc.Address
	step.AgentID = desc.ID
	step.AgentName = desc.Name
	if strings.TrimSpace(step.AgentPrompt) == "" {
		step.Reason = ReasonEmptyInstruction
		return step
	}
	step.Cost = pricing.Estimate(step.AgentPrompt, desc.CostPerOutputToken)
	step.Valid = true
	return step
}

func (p *Planner) checkPolicy(ctx context.Context, steps []domain.PlanStep, invalid int, total float64) error {
	if p.policy == nil {
		return nil
	}
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.AgentName
	}
	decision, reasons, err := p.policy.Evaluate(ctx, policy.PlanInput{
		StepCount:    len(steps),
		InvalidCount: invalid,
		TotalCost:    total,
		Agents:       names,
		Limits:       p.limits,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "plan policy evaluation failed")
	}
	if decision == policy.DecisionDeny {
		msg := "plan rejected by policy"
		if len(reasons) > 0 {
			msg = fmt.Sprintf("%s: %s", msg, strings.Join(reasons, "; "))
		}
		return apperrors.New(apperrors.CodePolicyViolation, msg)
	}
	return nil
}
