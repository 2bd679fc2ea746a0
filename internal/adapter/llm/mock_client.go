package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xiaot623/gogo/director/internal/textutil"
)

// HealthPrompt is the probe sent by agents that check backend reachability.
const HealthPrompt = "Reply with the single word OK."

// Markers the mock looks for in decomposition prompts.
const (
	UserRequestMarker     = "USER REQUEST:"
	AvailableAgentsMarker = "AVAILABLE AGENTS:"
)

// MockClient is a deterministic Generator used in mock mode and tests.
// It answers decomposition prompts with a keyword-matched plan and echoes
// everything else.
type MockClient struct{}

// NewMockClient creates a new mock generator.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Generate implements Generator.
func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.Contains(prompt, HealthPrompt) {
		return "OK", nil
	}
	if strings.Contains(prompt, AvailableAgentsMarker) {
		return m.generatePlan(prompt)
	}
	return fmt.Sprintf("[MOCK] Processed request: %q", truncate(lastLine(prompt), 100)), nil
}

// Name implements Generator.
func (m *MockClient) Name() string { return "mock" }

type mockAgent struct {
	address     string
	description string
}

type mockStep struct {
	AgentAddress string `json:"agentAddress"`
	AgentPrompt  string `json:"agentPrompt"`
}

// mockRules pair request keywords with description keywords, in pipeline order.
var mockRules = []struct {
	request     []string
	description string
}{
	{[]string{"http://", "https://", "www.", "scrap", "website"}, "scraping"},
	{[]string{"reddit"}, "reddit"},
	{[]string{"farcaster"}, "farcaster"},
	{[]string{"seo"}, "seo"},
	{[]string{"summar", "analy", "insight"}, "analysing content"},
	{[]string{"github", "pull request"}, "github"},
	{[]string{"image", "picture"}, "images"},
}

func (m *MockClient) generatePlan(prompt string) (string, error) {
	request, agents := parsePlanningPrompt(prompt)
	lower := strings.ToLower(request)

	steps := []mockStep{}
	used := map[string]bool{}
	for _, rule := range mockRules {
		if !containsAny(lower, rule.request) {
			continue
		}
		for _, a := range agents {
			if used[a.address] || !strings.Contains(strings.ToLower(a.description), rule.description) {
				continue
			}
			used[a.address] = true
			steps = append(steps, mockStep{AgentAddress: a.address, AgentPrompt: request})
			break
		}
	}
	if len(steps) == 0 && len(agents) > 0 {
		steps = append(steps, mockStep{AgentAddress: agents[0].address, AgentPrompt: request})
	}

	out, err := json.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("failed to encode mock plan: %w", err)
	}
	return string(out), nil
}

// parsePlanningPrompt extracts the user request and the numbered agent list.
func parsePlanningPrompt(prompt string) (string, []mockAgent) {
	var request string
	var agents []mockAgent
	inAgents := false

	scanner := bufio.NewScanner(strings.NewReader(prompt))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, UserRequestMarker):
			request = strings.TrimSpace(strings.TrimPrefix(line, UserRequestMarker))
		case strings.HasPrefix(line, AvailableAgentsMarker):
			inAgents = true
		case inAgents && line == "":
			inAgents = len(agents) == 0
		case inAgents:
			if a, ok := parseAgentLine(line); ok {
				agents = append(agents, a)
			}
		}
	}
	return request, agents
}

// parseAgentLine parses "N. agentAddress = <address> - <description>".
func parseAgentLine(line string) (mockAgent, bool) {
	_, rest, ok := strings.Cut(line, "agentAddress =")
	if !ok {
		return mockAgent{}, false
	}
	address, description, _ := strings.Cut(strings.TrimSpace(rest), " - ")
	if address == "" {
		return mockAgent{}, false
	}
	return mockAgent{address: strings.TrimSpace(address), description: strings.TrimSpace(description)}, true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	return textutil.Truncate(s, maxLen, "...")
}
