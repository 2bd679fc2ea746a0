package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by the plan policy.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// PlanInput is the document the plan policy is evaluated against.
type PlanInput struct {
	StepCount    int        `json:"step_count"`
	InvalidCount int        `json:"invalid_count"`
	TotalCost    float64    `json:"total_cost"`
	Agents       []string   `json:"agents"`
	Limits       PlanLimits `json:"limits"`
}

// PlanLimits are configured ceilings; zero disables a limit.
type PlanLimits struct {
	MaxSteps     int     `json:"max_steps"`
	MaxTotalCost float64 `json:"max_total_cost"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.plan_policy.result"),
		rego.Module("plan_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks a plan against the policy.
// Returns the decision (allow or deny) and any reasons attached to a denial.
func (e *Engine) Evaluate(ctx context.Context, input PlanInput) (string, []string, error) {
	if input.Agents == nil {
		input.Agents = []string{}
	}
	doc := map[string]any{
		"step_count":    input.StepCount,
		"invalid_count": input.InvalidCount,
		"total_cost":    input.TotalCost,
		"agents":        input.Agents,
		"limits": map[string]any{
			"max_steps":      input.Limits.MaxSteps,
			"max_total_cost": input.Limits.MaxTotalCost,
		},
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(doc))
	if err != nil {
		return "", nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, nil, nil
	}

	obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return "", nil, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}

	decision, _ := obj["decision"].(string)
	if decision == "" {
		decision = DecisionAllow
	}

	var reasons []string
	if raw, ok := obj["reasons"].([]interface{}); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				reasons = append(reasons, s)
			}
		}
	}
	return decision, reasons, nil
}

// DefaultPolicy enforces the configured step and cost ceilings.
const DefaultPolicy = `
package plan_policy

import rego.v1

reasons contains msg if {
	input.limits.max_steps > 0
	input.step_count > input.limits.max_steps
	msg := sprintf("plan has %d steps, limit is %d", [input.step_count, input.limits.max_steps])
}

reasons contains msg if {
	input.limits.max_total_cost > 0
	input.total_cost > input.limits.max_total_cost
	msg := sprintf("plan costs %v, limit is %v", [input.total_cost, input.limits.max_total_cost])
}

default decision := "allow"

decision := "deny" if {
	count(reasons) > 0
}

result := {"decision": decision, "reasons": reasons}
`
