// Package errors defines the sentinel and structured error taxonomy shared
// across the engine: provider errors, tool errors, and ReAct loop errors.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for orchestration-level failures.
var (
	ErrMaxIterations    = errors.New("max execution steps exceeded")
	ErrContextCancelled = errors.New("context cancelled")
	ErrNoProvider       = errors.New("no llm provider configured")
	ErrToolNotFound     = errors.New("tool not found")
	ErrToolTimeout      = errors.New("tool execution timed out")
	ErrSessionNotFound  = errors.New("session not found")
	ErrDebuggerDetached = errors.New("cdp debugger detached")
)

// ProviderErrorCode classifies an LLM provider failure for retry purposes.
type ProviderErrorCode string

const (
	ProviderErrAuthentication ProviderErrorCode = "authentication"
	ProviderErrRateLimit      ProviderErrorCode = "rate_limit"
	ProviderErrInvalidRequest ProviderErrorCode = "invalid_request"
	ProviderErrNetwork        ProviderErrorCode = "network"
	ProviderErrTimeout        ProviderErrorCode = "timeout"
	ProviderErrToolCalling    ProviderErrorCode = "tool_calling"
	ProviderErrStream         ProviderErrorCode = "stream"
	ProviderErrAPI            ProviderErrorCode = "api"
)

// IsRetryable reports whether the provider error code is worth retrying with
// backoff. Authentication, invalid-request, and tool-calling errors are not.
func (c ProviderErrorCode) IsRetryable() bool {
	switch c {
	case ProviderErrRateLimit, ProviderErrNetwork, ProviderErrTimeout, ProviderErrAPI:
		return true
	case ProviderErrStream:
		return true // retried once by the caller, not by the base provider loop
	default:
		return false
	}
}

// ProviderError is a structured failure from an LLM provider call.
type ProviderError struct {
	Provider string
	Code     ProviderErrorCode
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Provider, e.Code, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %v", e.Provider, e.Code, e.Cause)
	}
	return fmt.Sprintf("[%s:%s]", e.Provider, e.Code)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// IsRetryable reports whether this provider error should be retried.
func (e *ProviderError) IsRetryable() bool { return e.Code.IsRetryable() }

// ClassifyProviderError infers a ProviderErrorCode from a raw transport
// error's text, for adapters whose SDK does not already expose a typed
// error.
func ClassifyProviderError(err error) ProviderErrorCode {
	if err == nil {
		return ProviderErrAPI
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "401") || strings.Contains(s, "unauthorized") || strings.Contains(s, "authentication"):
		return ProviderErrAuthentication
	case strings.Contains(s, "429") || strings.Contains(s, "rate limit") || strings.Contains(s, "rate_limit"):
		return ProviderErrRateLimit
	case strings.Contains(s, "400") || strings.Contains(s, "invalid") || strings.Contains(s, "validation"):
		return ProviderErrInvalidRequest
	case strings.Contains(s, "timeout") || strings.Contains(s, "deadline exceeded"):
		return ProviderErrTimeout
	case strings.Contains(s, "connection") || strings.Contains(s, "network") || strings.Contains(s, "dns"):
		return ProviderErrNetwork
	default:
		return ProviderErrAPI
	}
}

// ToolErrorType categorizes a tool execution failure for the ReAct engine's
// consecutive-failure counter.
type ToolErrorType string

const (
	ToolErrorNotFound     ToolErrorType = "not_found"
	ToolErrorInvalidInput ToolErrorType = "invalid_input"
	ToolErrorTimeout      ToolErrorType = "timeout"
	ToolErrorExecution    ToolErrorType = "execution"
	ToolErrorUnknown      ToolErrorType = "unknown"
)

// ToolError is a structured failure from Tool Registry execution.
type ToolError struct {
	Type     ToolErrorType
	ToolName string
	Message  string
	Cause    error
}

func (e *ToolError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("[tool:%s] %s: %s", e.Type, e.ToolName, e.Message)
	}
	return fmt.Sprintf("[tool:%s] %s: %v", e.Type, e.ToolName, e.Cause)
}

func (e *ToolError) Unwrap() error { return e.Cause }

// NewToolError builds a ToolError, classifying cause's type from its text.
func NewToolError(toolName string, cause error) *ToolError {
	e := &ToolError{ToolName: toolName, Cause: cause, Type: ToolErrorUnknown}
	if cause != nil {
		e.Message = cause.Error()
		e.Type = classifyToolError(cause)
	}
	return e
}

func classifyToolError(err error) ToolErrorType {
	if errors.Is(err, ErrToolNotFound) {
		return ToolErrorNotFound
	}
	if errors.Is(err, ErrToolTimeout) {
		return ToolErrorTimeout
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "timeout") || strings.Contains(s, "deadline"):
		return ToolErrorTimeout
	case strings.Contains(s, "invalid") || strings.Contains(s, "required") || strings.Contains(s, "missing"):
		return ToolErrorInvalidInput
	default:
		return ToolErrorExecution
	}
}

// ReActPhase identifies which step of the Observe/Think/Act/Reflect loop an
// error occurred in.
type ReActPhase string

const (
	PhaseObserve ReActPhase = "observe"
	PhaseThink   ReActPhase = "think"
	PhaseAct     ReActPhase = "act"
	PhaseReflect ReActPhase = "reflect"
)

// ReActError wraps a failure with the iteration and phase it occurred in.
type ReActError struct {
	Phase     ReActPhase
	Iteration int
	Cause     error
}

func (e *ReActError) Error() string {
	return fmt.Sprintf("react error at %s (iteration %d): %v", e.Phase, e.Iteration, e.Cause)
}

func (e *ReActError) Unwrap() error { return e.Cause }
