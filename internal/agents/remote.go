package agents

import (
	"context"

	"github.com/xiaot623/gogo/director/internal/adapter/agentclient"
)

// Invoker calls an agent tool on a remote agent server.
type Invoker interface {
	Invoke(ctx context.Context, address, prompt, correlationID string) (*agentclient.Result, error)
	Ping(ctx context.Context) error
}

// RemoteAgent forwards invocations to an agent server over MCP.
type RemoteAgent struct {
	address string
	invoker Invoker
}

// NewRemoteAgent creates a remote agent for the tool at address.
func NewRemoteAgent(address string, invoker Invoker) *RemoteAgent {
	return &RemoteAgent{address: address, invoker: invoker}
}

// Invoke implements Agent.
func (a *RemoteAgent) Invoke(ctx context.Context, instruction, correlationID string) (*Output, error) {
	res, err := a.invoker.Invoke(ctx, a.address, instruction, correlationID)
	if err != nil {
		return nil, err
	}
	return &Output{Text: res.Text, Metadata: res.Metadata}, nil
}

// HealthCheck pings the agent server.
func (a *RemoteAgent) HealthCheck(ctx context.Context) error {
	return a.invoker.Ping(ctx)
}
