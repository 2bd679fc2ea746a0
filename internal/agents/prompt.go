package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xiaot623/gogo/director/internal/adapter/llm"
	"github.com/xiaot623/gogo/director/internal/domain"
)

var rolePrompts = map[domain.Capability]string{
	domain.CapabilityContentAnalyzer: "You are an expert content analyst. Analyse the content below and report its purpose and audience, " +
		"overall sentiment and tone, main themes, structure and style, and prioritised recommendations.",
	domain.CapabilitySEOOptimizer: "You are an expert SEO consultant. Review the content or site described below and give concrete, " +
		"prioritised search-engine optimisation recommendations covering keywords, metadata, structure and technical issues.",
	domain.CapabilitySentimentAnalyzer: "You are a community sentiment analyst. Assess how the community discussed below feels about the topic, " +
		"summarise positive and negative signals, and propose a go-to-market strategy that follows from them.",
	domain.CapabilityCodePublisher: "You are a senior software engineer. Write the code the task asks for and describe the pull request " +
		"that would publish it: branch name, files changed, commit message and PR description.",
	domain.CapabilityImageGenerator: "You are an image generation specialist. Produce a detailed, self-contained image generation prompt " +
		"for the request below, including subject, composition, style, lighting and aspect ratio.",
	domain.CapabilityGeneric: "You are a capable assistant. Complete the task below accurately and concisely.",
}

// RolePrompt returns the system role used for a capability.
func RolePrompt(c domain.Capability) string {
	if p, ok := rolePrompts[c]; ok {
		return p
	}
	return rolePrompts[domain.CapabilityGeneric]
}

// PromptAgent answers instructions through a generative backend under a fixed role.
type PromptAgent struct {
	name       string
	capability domain.Capability
	generator  llm.Generator
}

// NewPromptAgent creates a prompt agent for desc.
func NewPromptAgent(desc domain.AgentDescriptor, generator llm.Generator) *PromptAgent {
	return &PromptAgent{name: desc.Name, capability: desc.Capability, generator: generator}
}

// Invoke implements Agent.
func (a *PromptAgent) Invoke(ctx context.Context, instruction, correlationID string) (*Output, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, errors.New("instruction is empty")
	}
	prompt := RolePrompt(a.capability) + "\n\nTASK:\n" + instruction
	text, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &Output{
		Text: strings.TrimSpace(text),
		Metadata: map[string]any{
			"capability": string(a.capability),
			"backend":    a.generator.Name(),
		},
	}, nil
}

// HealthCheck asks the backend for a trivial answer.
func (a *PromptAgent) HealthCheck(ctx context.Context) error {
	out, err := a.generator.Generate(ctx, llm.HealthPrompt)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	if !strings.Contains(strings.ToUpper(out), "OK") {
		return fmt.Errorf("unexpected health answer %q", truncateText(out, 40))
	}
	return nil
}
