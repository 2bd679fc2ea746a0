package mcpserver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"

	"github.com/xiaot623/gogo/director/internal/adapter/agentclient"
	"github.com/xiaot623/gogo/director/internal/agents"
	"github.com/xiaot623/gogo/director/internal/registry"
	"github.com/xiaot623/gogo/director/tests/helpers"
)

type fakeAgent struct {
	err      error
	gotInput string
	gotID    string
}

func (a *fakeAgent) Invoke(ctx context.Context, instruction, correlationID string) (*agents.Output, error) {
	a.gotInput = instruction
	a.gotID = correlationID
	if a.err != nil {
		return nil, a.err
	}
	return &agents.Output{Text: "done: " + instruction, Metadata: map[string]any{"source": "fake"}}, nil
}

func (a *fakeAgent) HealthCheck(ctx context.Context) error { return nil }

func newClient(t *testing.T, s *Server) *agentclient.Client {
	t.Helper()
	c := agentclient.NewWithDialer(func(ctx context.Context) (*mcpclient.Client, error) {
		return mcpclient.NewInProcessClient(s.MCPServer())
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestServerRegistersOneToolPerAgent(t *testing.T) {
	reg := helpers.NewTestRegistry(t)
	s, err := New(reg, agents.NewDirectory(nil), Config{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if len(s.Tools()) != reg.Len() {
		t.Fatalf("expected %d tools, got %d", reg.Len(), len(s.Tools()))
	}
	for _, d := range reg.ListAll() {
		found := false
		for _, name := range s.Tools() {
			if name == agentclient.ToolName(d.Address) {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing tool for %s", d.Name)
		}
	}
}

func TestServerInvokesAgent(t *testing.T) {
	reg := helpers.NewTestRegistry(t, "content_analysis_agent")
	desc, _ := reg.FindByName("content_analysis_agent")

	agent := &fakeAgent{}
	dir := agents.NewDirectory(nil)
	dir.MustRegister(desc.Name, agent)

	s, err := New(reg, dir, Config{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	client := newClient(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := client.Invoke(ctx, desc.Address, "hello", "step-1")
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if res.Text != "done: hello" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if agent.gotID != "step-1" {
		t.Fatalf("expected correlation id step-1, got %q", agent.gotID)
	}
	if res.Metadata["source"] != "fake" {
		t.Fatalf("agent metadata lost: %v", res.Metadata)
	}
	// 5 runes * 10 * 0.000002
	if cost, _ := res.Metadata["actualCost"].(float64); cost < 0.0000999 || cost > 0.0001001 {
		t.Fatalf("unexpected actualCost: %v", res.Metadata["actualCost"])
	}
	if res.Metadata["price"] != "$0.002000" {
		t.Fatalf("unexpected price: %v", res.Metadata["price"])
	}
}

func TestServerDefaultsAgentIDToDescriptor(t *testing.T) {
	reg := helpers.NewTestRegistry(t, "seo_optimization_agent")
	desc, _ := reg.FindByName("seo_optimization_agent")

	agent := &fakeAgent{}
	dir := agents.NewDirectory(nil)
	dir.MustRegister(desc.Name, agent)

	s, err := New(reg, dir, Config{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	client := newClient(t, s)

	if _, err := client.Invoke(context.Background(), desc.Address, "tune", ""); err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if agent.gotID != "" && agent.gotID != desc.ID {
		t.Fatalf("unexpected correlation id %q", agent.gotID)
	}
}

func TestServerReportsAgentFailure(t *testing.T) {
	reg := helpers.NewTestRegistry(t, "github_code_agent")
	desc, _ := reg.FindByName("github_code_agent")

	dir := agents.NewDirectory(nil)
	dir.MustRegister(desc.Name, &fakeAgent{err: errors.New("push rejected")})

	s, err := New(reg, dir, Config{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	client := newClient(t, s)

	_, err = client.Invoke(context.Background(), desc.Address, "open a PR", "step-2")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "agent github_code_agent failed: push rejected" {
		t.Fatalf("unexpected error: %s", got)
	}
}

func TestNewRequiresDirectory(t *testing.T) {
	if _, err := New(helpers.NewTestRegistry(t), nil, Config{}); err == nil {
		t.Fatal("expected error for nil directory")
	}
}

func TestServerSyncFollowsRegistry(t *testing.T) {
	full := helpers.NewTestRegistry(t, "content_analysis_agent", "seo_optimization_agent")
	content, _ := full.FindByName("content_analysis_agent")
	seo, _ := full.FindByName("seo_optimization_agent")

	dir := agents.NewDirectory(nil)
	dir.MustRegister(content.Name, &fakeAgent{})
	dir.MustRegister(seo.Name, &fakeAgent{})

	s, err := New(helpers.NewTestRegistry(t, "content_analysis_agent"), dir, Config{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	client := newClient(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Invoke(ctx, seo.Address, "tune", "step-1"); err == nil {
		t.Fatal("expected unknown tool before sync")
	}

	if added, removed := s.Sync(full); added != 1 || removed != 0 {
		t.Fatalf("expected 1 added and 0 removed, got %d and %d", added, removed)
	}
	res, err := client.Invoke(ctx, seo.Address, "tune", "step-1")
	if err != nil {
		t.Fatalf("invoke after sync failed: %v", err)
	}
	if res.Text != "done: tune" {
		t.Fatalf("unexpected text: %q", res.Text)
	}

	if added, removed := s.Sync(full); added != 0 || removed != 0 {
		t.Fatalf("unchanged registry should be a no-op, got %d added and %d removed", added, removed)
	}

	if _, removed := s.Sync(helpers.NewTestRegistry(t, "seo_optimization_agent")); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if got := s.Tools(); len(got) != 1 || got[0] != agentclient.ToolName(seo.Address) {
		t.Fatalf("unexpected tools: %v", got)
	}
	if _, err := client.Invoke(ctx, content.Address, "analyse", "step-2"); err == nil {
		t.Fatal("expected removed agent to be unreachable")
	}
}

type swapLoader struct {
	mu  sync.Mutex
	reg *registry.Registry
	err error
}

func (l *swapLoader) Load(ctx context.Context) (*registry.Registry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reg, l.err
}

func (l *swapLoader) set(reg *registry.Registry, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reg, l.err = reg, err
}

func TestServerWatchReloadsRegistry(t *testing.T) {
	initial := helpers.NewTestRegistry(t, "content_analysis_agent")
	s, err := New(initial, agents.NewDirectory(nil), Config{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	loader := &swapLoader{err: errors.New("redis unavailable")}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Watch(ctx, loader, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	if len(s.Tools()) != 1 {
		t.Fatalf("failed reload must keep current tools, got %v", s.Tools())
	}

	full := helpers.NewTestRegistry(t)
	loader.set(full, nil)

	deadline := time.Now().Add(2 * time.Second)
	for len(s.Tools()) != full.Len() {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d tools after reload, got %d", full.Len(), len(s.Tools()))
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestServerWatchDisabled(t *testing.T) {
	s, err := New(helpers.NewTestRegistry(t), agents.NewDirectory(nil), Config{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	// returns immediately without a positive interval
	s.Watch(context.Background(), &swapLoader{}, 0)
}
