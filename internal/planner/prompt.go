package planner

import (
	"fmt"
	"strings"

	"github.com/xiaot623/gogo/director/internal/adapter/llm"
	"github.com/xiaot623/gogo/director/internal/domain"
)

// BuildPrompt renders the decomposition prompt for goal over agents.
func BuildPrompt(goal string, agents []domain.AgentDescriptor) string {
	var b strings.Builder

	b.WriteString("OBJECTIVE: You are a task orchestrator. Select the minimal ordered sequence of agents ")
	b.WriteString("that together fulfil the user request below, and write a precise instruction for each.\n\n")

	b.WriteString("CONSTRAINTS:\n")
	b.WriteString("- Use the minimum number of agents necessary.\n")
	b.WriteString("- Never use two agents for overlapping work and never repeat an agent without need.\n")
	b.WriteString("- Each agentPrompt must be self-contained and actionable on its own.\n")
	b.WriteString("- Order agents so that any agent depending on another's output comes after it.\n")
	b.WriteString("- Only use agent addresses from the list below.\n\n")

	fmt.Fprintf(&b, "%s %s\n\n", llm.UserRequestMarker, strings.TrimSpace(goal))

	b.WriteString(llm.AvailableAgentsMarker)
	b.WriteString("\n")
	for i, a := range agents {
		fmt.Fprintf(&b, "%d. agentAddress = %s - %s\n", i+1, a.Address, a.Description)
	}
	b.WriteString("\n")

	b.WriteString("OUTPUT FORMAT: Respond with ONLY a JSON array, no prose and no code fences:\n")
	b.WriteString(`[{"agentAddress": "0x...", "agentPrompt": "..."}]`)
	b.WriteString("\n")
	return b.String()
}
