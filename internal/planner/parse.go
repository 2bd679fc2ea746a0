package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/xiaot623/gogo/director/internal/errors"
	"github.com/xiaot623/gogo/director/internal/textutil"
)

const hintLength = 200

// RawStep is one element of the backend's plan array.
type RawStep struct {
	AgentAddress     string `json:"agentAddress"`
	AgentPrompt      string `json:"agentPrompt"`
	AgentInstruction string `json:"agentInstruction"`
}

// Instruction returns the step instruction, accepting agentInstruction as an alias.
func (s RawStep) Instruction() string {
	if strings.TrimSpace(s.AgentPrompt) != "" {
		return s.AgentPrompt
	}
	return s.AgentInstruction
}

// ParseSteps decodes the backend output into raw steps. The output must be a
// JSON array of objects, optionally wrapped in a markdown code fence.
func ParseSteps(output string) ([]RawStep, error) {
	body := stripFences(output)

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		return nil, planningError("response is not a JSON array", output, err)
	}
	if items == nil {
		return nil, planningError("response is not a JSON array", output, nil)
	}

	steps := make([]RawStep, 0, len(items))
	for i, item := range items {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, planningError(fmt.Sprintf("element %d is not an object", i), output, nil)
		}
		var step RawStep
		if err := json.Unmarshal(trimmed, &step); err != nil {
			return nil, planningError(fmt.Sprintf("element %d is malformed", i), output, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func planningError(reason, output string, cause error) error {
	hint := strings.TrimSpace(output)
	hint = textutil.Prefix(hint, hintLength)
	msg := fmt.Sprintf("failed to parse plan: %s (output: %q)", reason, hint)
	return apperrors.Planning(msg, cause)
}
