// Package errors defines the coded error type shared by the director packages.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// Code identifies a class of failure.
type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeNoAgentsAvailable   Code = "NO_AGENTS_AVAILABLE"
	CodePlanning            Code = "PLANNING_ERROR"
	CodeUnresolvedAgent     Code = "UNRESOLVED_AGENT"
	CodeAgentExecution      Code = "AGENT_EXECUTION_ERROR"
	CodePolicyViolation     Code = "POLICY_VIOLATION"
	CodeRegistryUnavailable Code = "REGISTRY_UNAVAILABLE"
	CodeNotFound            Code = "NOT_FOUND"
	CodeInternal            Code = "INTERNAL"
)

// Fatal reports whether errors of this code abort the whole request.
// Unresolved agents and single agent failures are absorbed into the plan or ledger.
func (c Code) Fatal() bool {
	switch c {
	case CodeUnresolvedAgent, CodeAgentExecution:
		return false
	default:
		return true
	}
}

// Title returns the short name reported to API callers.
func (c Code) Title() string {
	switch c {
	case CodeValidation:
		return "ValidationError"
	case CodeNoAgentsAvailable:
		return "NoAgentsAvailableError"
	case CodePlanning:
		return "PlanningError"
	case CodeUnresolvedAgent:
		return "UnresolvedAgentError"
	case CodeAgentExecution:
		return "AgentExecutionError"
	case CodePolicyViolation:
		return "PolicyViolationError"
	case CodeRegistryUnavailable:
		return "RegistryUnavailableError"
	case CodeNotFound:
		return "NotFoundError"
	default:
		return "InternalError"
	}
}

// Error is the coded error type.
type Error struct {
	code     Code
	message  string
	cause    error
	metadata map[string]string
}

// Option customises an Error.
type Option func(*Error)

// WithMetadata attaches a key/value pair for diagnostics.
func WithMetadata(key, value string) Option {
	return func(e *Error) {
		if e.metadata == nil {
			e.metadata = make(map[string]string)
		}
		e.metadata[key] = value
	}
}

// New creates an error with the given code.
func New(code Code, message string, opts ...Option) *Error {
	e := &Error{code: code, message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Wrap creates an error with the given code around cause.
// A nil cause returns nil.
func Wrap(cause error, code Code, message string, opts ...Option) *Error {
	if cause == nil {
		return nil
	}
	e := New(code, message, opts...)
	e.cause = cause
	return e
}

// Error implements error.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause == nil {
		return e.message
	}
	if e.message == "" {
		return e.cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.message, e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !stdErrors.As(target, &t) || t == nil || e == nil {
		return false
	}
	return e.code == t.code
}

// Code returns the error code.
func (e *Error) Code() Code {
	if e == nil {
		return ""
	}
	return e.code
}

// Message returns the human readable message without the cause.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Metadata returns a copy of the attached metadata.
func (e *Error) Metadata() map[string]string {
	if e == nil || len(e.metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		out[k] = v
	}
	return out
}

// From extracts an *Error from err's chain.
func From(err error) (*Error, bool) {
	var e *Error
	if stdErrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of err, or CodeInternal when err is not coded.
func CodeOf(err error) Code {
	if e, ok := From(err); ok {
		return e.code
	}
	return CodeInternal
}

// HasCode reports whether err carries code anywhere in its chain.
func HasCode(err error, code Code) bool {
	return stdErrors.Is(err, &Error{code: code})
}

// Validation returns a ValidationError.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// NoAgentsAvailable returns a NoAgentsAvailableError.
func NoAgentsAvailable() *Error {
	return New(CodeNoAgentsAvailable, "no agents available in the system")
}

// Planning wraps a decomposition failure.
func Planning(message string, cause error) *Error {
	if cause == nil {
		return New(CodePlanning, message)
	}
	return Wrap(cause, CodePlanning, message)
}

// AgentExecution wraps a failed agent invocation.
func AgentExecution(agent string, cause error) *Error {
	if cause == nil {
		cause = stdErrors.New("agent call failed")
	}
	return Wrap(cause, CodeAgentExecution, fmt.Sprintf("agent %s failed", agent), WithMetadata("agent", agent))
}
