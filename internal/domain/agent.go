package domain

// AgentDescriptor describes one invocable agent.
type AgentDescriptor struct {
	ID                 string     `json:"id" yaml:"id"`
	Name               string     `json:"name" yaml:"name"`
	Description        string     `json:"description" yaml:"description"`
	Address            string     `json:"address" yaml:"address"`
	CostPerOutputToken float64    `json:"costPerOutputToken" yaml:"costPerOutputToken"`
	Capability         Capability `json:"capability,omitempty" yaml:"capability,omitempty"`
}

// AgentView is an AgentDescriptor as listed to API callers.
type AgentView struct {
	AgentDescriptor
	DisplayPrice string `json:"displayPrice"`
}

// AgentHealth is the result of probing one agent.
type AgentHealth struct {
	Agent   string `json:"agent"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}
