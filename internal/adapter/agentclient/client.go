// Package agentclient invokes remote agents exposed as MCP tools.
package agentclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/time/rate"
)

// ToolPrefix prefixes every agent tool name.
const ToolPrefix = "agent_"

// ToolName returns the MCP tool name for the agent at address.
func ToolName(address string) string {
	return ToolPrefix + strings.ToLower(address)
}

// Result is the outcome of a remote agent call.
type Result struct {
	Text     string
	Metadata map[string]any
}

// Dialer opens and initialises an MCP client.
type Dialer func(ctx context.Context) (*mcpclient.Client, error)

// Client calls agent tools on an MCP server. It connects lazily and
// reconnects after a transport failure.
type Client struct {
	dial    Dialer
	limiter *rate.Limiter

	mu   sync.Mutex
	conn *mcpclient.Client
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit bounds outbound calls to limit per second with the given burst.
// A non-positive limit disables limiting.
func WithRateLimit(limit float64, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
}

// New creates a client for the streamable-HTTP MCP endpoint at serverURL.
func New(serverURL string, opts ...Option) *Client {
	return NewWithDialer(func(ctx context.Context) (*mcpclient.Client, error) {
		c, err := mcpclient.NewStreamableHttpClient(serverURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create MCP client: %w", err)
		}
		return c, nil
	}, opts...)
}

// NewWithDialer creates a client around a custom dialer.
func NewWithDialer(dial Dialer, opts ...Option) *Client {
	c := &Client{
		dial:    dial,
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke calls the tool of the agent at address with prompt.
func (c *Client) Invoke(ctx context.Context, address, prompt, correlationID string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	conn, err := c.connection(ctx)
	if err != nil {
		return nil, err
	}

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: ToolName(address),
			Arguments: map[string]any{
				"prompt":  prompt,
				"agentID": correlationID,
			},
		},
	}
	res, err := conn.CallTool(ctx, req)
	if err != nil {
		if ctx.Err() == nil {
			c.reset(conn)
		}
		return nil, fmt.Errorf("call tool %s: %w", req.Params.Name, err)
	}

	text := joinText(res.Content)
	if res.IsError {
		if text == "" {
			text = "agent reported an error"
		}
		return nil, errors.New(text)
	}

	return &Result{Text: text, Metadata: decodeMetadata(res.StructuredContent)}, nil
}

// Ping checks that the MCP server answers.
func (c *Client) Ping(ctx context.Context) error {
	conn, err := c.connection(ctx)
	if err != nil {
		return err
	}
	if err := conn.Ping(ctx); err != nil {
		c.reset(conn)
		return fmt.Errorf("ping agent server: %w", err)
	}
	return nil
}

// Close closes the current connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) connection(ctx context.Context) (*mcpclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn, nil
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	if err := conn.Start(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	initReq := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    "director",
				Version: "1.0.0",
			},
		},
	}
	if _, err := conn.Initialize(ctx, initReq); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	c.conn = conn
	return conn, nil
}

func (c *Client) reset(conn *mcpclient.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func joinText(content []mcp.Content) string {
	var parts []string
	for _, item := range content {
		if tc, ok := mcp.AsTextContent(item); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func decodeMetadata(v any) map[string]any {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
