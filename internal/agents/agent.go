// Package agents maps registry descriptors to invocable agent handlers.
package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xiaot623/gogo/director/internal/domain"
	apperrors "github.com/xiaot623/gogo/director/internal/errors"
)

// Output is what an agent produced for one instruction.
type Output struct {
	Text     string
	Metadata map[string]any
}

// Agent is a single invocable agent.
type Agent interface {
	// Invoke runs instruction. correlationID identifies the calling step.
	Invoke(ctx context.Context, instruction, correlationID string) (*Output, error)

	// HealthCheck returns nil when the agent can serve requests.
	HealthCheck(ctx context.Context) error
}

// Factory builds an Agent for a descriptor that has no explicit registration.
type Factory func(desc domain.AgentDescriptor) (Agent, error)

// Directory resolves agent names to handlers.
type Directory struct {
	mu       sync.RWMutex
	explicit map[string]Agent
	built    map[string]Agent
	factory  Factory
}

// NewDirectory creates a directory. factory may be nil, in which case only
// explicitly registered agents resolve.
func NewDirectory(factory Factory) *Directory {
	return &Directory{
		explicit: make(map[string]Agent),
		built:    make(map[string]Agent),
		factory:  factory,
	}
}

// Register adds a handler for an agent name.
func (d *Directory) Register(name string, agent Agent) error {
	if name == "" {
		return fmt.Errorf("agent name is required")
	}
	if agent == nil {
		return fmt.Errorf("agent is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.explicit[name]; exists {
		return fmt.Errorf("agent already registered for %s", name)
	}
	d.explicit[name] = agent
	return nil
}

// MustRegister adds a handler or panics.
func (d *Directory) MustRegister(name string, agent Agent) {
	if err := d.Register(name, agent); err != nil {
		panic(err)
	}
}

// Resolve returns the handler for desc. Explicit registrations win over the factory.
func (d *Directory) Resolve(desc domain.AgentDescriptor) (Agent, error) {
	key := builtKey(desc)

	d.mu.RLock()
	agent, ok := d.explicit[desc.Name]
	if !ok {
		agent, ok = d.built[key]
	}
	d.mu.RUnlock()
	if ok {
		return agent, nil
	}

	if d.factory == nil {
		return nil, fmt.Errorf("no handler registered for agent %s", desc.Name)
	}
	agent, err := d.factory(desc)
	if err != nil {
		return nil, fmt.Errorf("build agent %s: %w", desc.Name, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.built[key]; ok {
		return existing, nil
	}
	d.built[key] = agent
	return agent, nil
}

// Invoke resolves and calls the agent for desc. Every failure, including a
// missing handler, is returned as an AgentExecutionError.
func (d *Directory) Invoke(ctx context.Context, desc domain.AgentDescriptor, instruction, correlationID string) (*Output, error) {
	agent, err := d.Resolve(desc)
	if err != nil {
		return nil, apperrors.AgentExecution(desc.Name, err)
	}
	out, err := agent.Invoke(ctx, instruction, correlationID)
	if err != nil {
		return nil, apperrors.AgentExecution(desc.Name, err)
	}
	if out == nil {
		out = &Output{}
	}
	return out, nil
}

// HealthCheck probes the agent for desc.
func (d *Directory) HealthCheck(ctx context.Context, desc domain.AgentDescriptor) error {
	agent, err := d.Resolve(desc)
	if err != nil {
		return err
	}
	return agent.HealthCheck(ctx)
}

func builtKey(desc domain.AgentDescriptor) string {
	return desc.Name + "|" + strings.ToLower(desc.Address) + "|" + string(desc.Capability)
}
