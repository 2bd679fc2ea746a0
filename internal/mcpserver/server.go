// Package mcpserver exposes registry agents as MCP tools.
//
// Every agent is published as a tool named after its settlement address
// (see agentclient.ToolName) taking a required prompt and an optional
// agentID. Results carry the agent output as text and its metadata,
// extended with actualCost and price, as structured content.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xiaot623/gogo/director/internal/adapter/agentclient"
	"github.com/xiaot623/gogo/director/internal/agents"
	"github.com/xiaot623/gogo/director/internal/domain"
	"github.com/xiaot623/gogo/director/internal/pricing"
	"github.com/xiaot623/gogo/director/internal/registry"
)

// Config configures the agent server.
type Config struct {
	// Name is the server name (default: "director-agents")
	Name string

	// Version is reported during initialization (default: "dev")
	Version string

	Logger *slog.Logger
}

// Server serves registry agents over MCP.
type Server struct {
	mcpServer *server.MCPServer
	directory *agents.Directory
	logger    *slog.Logger

	mu    sync.Mutex
	tools map[string]domain.AgentDescriptor
}

// New registers one tool per agent of reg, backed by directory.
func New(reg *registry.Registry, directory *agents.Directory, cfg Config) (*Server, error) {
	if directory == nil {
		return nil, errors.New("agent directory is required")
	}
	if cfg.Name == "" {
		cfg.Name = "director-agents"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		mcpServer: server.NewMCPServer(cfg.Name, cfg.Version, server.WithToolCapabilities(true)),
		directory: directory,
		logger:    cfg.Logger,
		tools:     make(map[string]domain.AgentDescriptor),
	}
	s.Sync(reg)
	return s, nil
}

// Sync makes the published tools match reg: new and changed agents are
// (re)registered, agents no longer in reg are removed.
func (s *Server) Sync(reg *registry.Registry) (added, removed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, reg.Len())
	for _, desc := range reg.ListAll() {
		name := agentclient.ToolName(desc.Address)
		seen[name] = true
		if current, ok := s.tools[name]; ok && current == desc {
			continue
		}
		s.addAgentTool(name, desc)
		added++
	}

	var stale []string
	for name := range s.tools {
		if !seen[name] {
			stale = append(stale, name)
		}
	}
	if len(stale) > 0 {
		s.mcpServer.DeleteTools(stale...)
		for _, name := range stale {
			delete(s.tools, name)
		}
	}
	return added, len(stale)
}

// Watch reloads the registry every interval and syncs the tools until ctx
// is cancelled. A failed reload keeps the current tools.
func (s *Server) Watch(ctx context.Context, loader registry.Loader, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		reg, err := loader.Load(ctx)
		if err != nil {
			s.logger.Warn("failed to reload agent registry", "error", err)
			continue
		}
		if added, removed := s.Sync(reg); added > 0 || removed > 0 {
			s.logger.Info("agent tools updated", "added", added, "removed", removed, "tools", reg.Len())
		}
	}
}

// MCPServer returns the underlying MCP server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Tools returns the names of the registered tools, sorted.
func (s *Server) Tools() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tools))
	for name := range s.tools {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ListenAndServe serves streamable HTTP on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.mcpServer)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("agent server listening", "addr", addr, "tools", len(s.Tools()))
		errCh <- httpServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("agent server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("agent server shutdown: %w", err)
	}
	return nil
}

// addAgentTool registers or replaces the tool for desc. s.mu must be held.
func (s *Server) addAgentTool(name string, desc domain.AgentDescriptor) {
	tool := mcp.NewTool(name,
		mcp.WithDescription(fmt.Sprintf("%s: %s", desc.Name, desc.Description)),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("Instruction for the agent"),
		),
		mcp.WithString("agentID",
			mcp.Description("Identity of the calling plan step"),
		),
	)
	s.mcpServer.AddTool(tool, s.agentHandler(desc))
	s.tools[name] = desc
}

func (s *Server) agentHandler(desc domain.AgentDescriptor) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		prompt, err := req.RequireString("prompt")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		agentID := req.GetString("agentID", desc.ID)

		started := time.Now()
		out, err := s.directory.Invoke(ctx, desc, prompt, agentID)
		if err != nil {
			s.logger.Warn("agent tool failed", "agent", desc.Name, "agent_id", agentID, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.logger.Info("agent tool completed",
			"agent", desc.Name,
			"agent_id", agentID,
			"duration_ms", time.Since(started).Milliseconds(),
		)

		metadata := make(map[string]any, len(out.Metadata)+2)
		for k, v := range out.Metadata {
			metadata[k] = v
		}
		metadata["actualCost"] = pricing.Estimate(prompt, desc.CostPerOutputToken)
		metadata["price"] = pricing.DisplayPrice(desc.CostPerOutputToken)

		return &mcp.CallToolResult{
			Content:           []mcp.Content{mcp.NewTextContent(out.Text)},
			StructuredContent: metadata,
		}, nil
	}
}
