// Package executor runs plan steps as a sequential pipeline.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xiaot623/gogo/director/internal/agents"
	"github.com/xiaot623/gogo/director/internal/domain"
	"github.com/xiaot623/gogo/director/internal/registry"
)

// Invoker calls the agent behind a descriptor.
type Invoker interface {
	Invoke(ctx context.Context, desc domain.AgentDescriptor, instruction, correlationID string) (*agents.Output, error)
}

// Observer is notified after every step.
type Observer interface {
	ObserveStep(agent string, status domain.StepStatus, d time.Duration)
}

// Executor runs steps one at a time, threading each output into the next input.
type Executor struct {
	invoker        Invoker
	stepDelay      time.Duration
	stepTimeout    time.Duration
	resetOnFailure bool
	observer       Observer
	logger         *slog.Logger
	now            func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithStepDelay sets the pause between consecutive steps.
func WithStepDelay(d time.Duration) Option {
	return func(e *Executor) { e.stepDelay = d }
}

// WithStepTimeout bounds each agent invocation.
func WithStepTimeout(d time.Duration) Option {
	return func(e *Executor) { e.stepTimeout = d }
}

// WithResetOnFailure clears the carried context after a failed step instead
// of keeping the last successful output.
func WithResetOnFailure(reset bool) Option {
	return func(e *Executor) { e.resetOnFailure = reset }
}

// WithObserver registers a step observer.
func WithObserver(o Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New creates an executor.
func New(invoker Invoker, opts ...Option) *Executor {
	e := &Executor{
		invoker:     invoker,
		stepDelay:   500 * time.Millisecond,
		stepTimeout: 120 * time.Second,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes steps in order and returns exactly one result per step.
// Steps are expected to be valid; a failing step does not stop the pipeline.
func (e *Executor) Run(ctx context.Context, reg *registry.Registry, steps []domain.PlanStep) []domain.ExecutionResult {
	results := make([]domain.ExecutionResult, 0, len(steps))
	carried := ""

	for i, step := range steps {
		if i > 0 && e.stepDelay > 0 {
			e.pause(ctx)
		}

		result := e.runStep(ctx, reg, i, step, carried)
		results = append(results, result)

		if result.Status == domain.StepStatusCompleted {
			carried = result.Result
		} else if e.resetOnFailure {
			carried = ""
		}
	}
	return results
}

func (e *Executor) runStep(ctx context.Context, reg *registry.Registry, index int, step domain.PlanStep, carried string) domain.ExecutionResult {
	started := e.now()
	result := domain.ExecutionResult{
		AgentID:       step.AgentID,
		AgentAddress:  step.AgentAddress,
		AgentName:     step.AgentName,
		ExecutionCost: step.Cost,
		InputPrompt:   step.AgentPrompt,
	}

	finish := func(status domain.StepStatus, err error) domain.ExecutionResult {
		ended := e.now()
		result.Status = status
		result.Timestamp = domain.Timestamp(ended)
		result.DurationMs = ended.Sub(started).Milliseconds()
		if err != nil {
			result.Error = err.Error()
			e.logger.Warn("agent step failed",
				"step", index,
				"agent", result.AgentName,
				"error", result.Error,
			)
		} else {
			e.logger.Info("agent step completed",
				"step", index,
				"agent", result.AgentName,
				"duration_ms", result.DurationMs,
			)
		}
		if e.observer != nil {
			e.observer.ObserveStep(result.AgentName, status, ended.Sub(started))
		}
		return result
	}

	desc, ok := lookup(reg, step)
	if !ok {
		return finish(domain.StepStatusFailed, fmt.Errorf("agent %s not found in registry", describe(step)))
	}
	result.AgentName = desc.Name
	if result.AgentID == "" {
		result.AgentID = desc.ID
	}

	result.InputPrompt = e.shapeInput(index, desc, step.AgentPrompt, carried)

	if err := ctx.Err(); err != nil {
		return finish(domain.StepStatusFailed, fmt.Errorf("pipeline cancelled: %w", err))
	}

	stepCtx := ctx
	if e.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, e.stepTimeout)
		defer cancel()
	}

	out, err := e.invoker.Invoke(stepCtx, desc, result.InputPrompt, step.CorrelationID())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("agent timed out after %s: %w", e.stepTimeout, err)
		}
		return finish(domain.StepStatusFailed, err)
	}
	result.Result = out.Text
	result.Metadata = out.Metadata
	return finish(domain.StepStatusCompleted, nil)
}

// shapeInput builds the input actually sent to the agent.
func (e *Executor) shapeInput(index int, desc domain.AgentDescriptor, instruction, carried string) string {
	if desc.Capability == domain.CapabilityURLFetcher {
		if u, ok := ExtractURL(instruction); ok {
			return u
		}
		e.logger.Warn("no URL found for fetching agent, sending instruction unchanged",
			"step", index,
			"agent", desc.Name,
		)
		return instruction
	}
	if index > 0 && carried != "" {
		return fmt.Sprintf("Context: %s\nUser Prompt: %s", carried, instruction)
	}
	return instruction
}

func (e *Executor) pause(ctx context.Context) {
	timer := time.NewTimer(e.stepDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func lookup(reg *registry.Registry, step domain.PlanStep) (domain.AgentDescriptor, bool) {
	if step.AgentAddress != "" {
		if d, ok := reg.FindByAddress(step.AgentAddress); ok {
			return d, true
		}
	}
	if step.AgentName != "" {
		return reg.FindByName(step.AgentName)
	}
	return domain.AgentDescriptor{}, false
}

func describe(step domain.PlanStep) string {
	if step.AgentName != "" {
		return step.AgentName
	}
	return step.AgentAddress
}
