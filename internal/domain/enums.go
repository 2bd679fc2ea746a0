// Package domain defines the core domain models for the director.
package domain

import "strings"

// StepStatus represents the outcome of a single agent invocation.
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// JobStatus represents the overall outcome of an execution.
type JobStatus string

const (
	JobStatusQuoted         JobStatus = "quoted"
	JobStatusCompleted      JobStatus = "completed"
	JobStatusPartialFailure JobStatus = "partial_failure"
)

// Capability is the typed role of an agent.
type Capability string

const (
	CapabilityGeneric           Capability = "GENERIC"
	CapabilityURLFetcher        Capability = "URL_FETCHER"
	CapabilityCodePublisher     Capability = "CODE_PUBLISHER"
	CapabilitySentimentAnalyzer Capability = "SENTIMENT_ANALYZER"
	CapabilityImageGenerator    Capability = "IMAGE_GENERATOR"
	CapabilityContentAnalyzer   Capability = "CONTENT_ANALYZER"
	CapabilitySEOOptimizer      Capability = "SEO_OPTIMIZER"
)

var capabilities = map[Capability]struct{}{
	CapabilityGeneric:           {},
	CapabilityURLFetcher:        {},
	CapabilityCodePublisher:     {},
	CapabilitySentimentAnalyzer: {},
	CapabilityImageGenerator:    {},
	CapabilityContentAnalyzer:   {},
	CapabilitySEOOptimizer:      {},
}

// ParseCapability parses a capability tag. Unknown or empty values return false.
func ParseCapability(s string) (Capability, bool) {
	c := Capability(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := capabilities[c]; !ok {
		return "", false
	}
	return c, true
}

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	_, ok := capabilities[c]
	return ok
}
