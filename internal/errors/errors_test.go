package errors

import (
	"errors"
	"testing"
)

func TestProviderErrorCode_IsRetryable(t *testing.T) {
	cases := map[ProviderErrorCode]bool{
		ProviderErrAuthentication: false,
		ProviderErrRateLimit:      true,
		ProviderErrInvalidRequest: false,
		ProviderErrNetwork:        true,
		ProviderErrTimeout:        true,
		ProviderErrToolCalling:    false,
		ProviderErrStream:         true,
		ProviderErrAPI:            true,
	}
	for code, want := range cases {
		if got := code.IsRetryable(); got != want {
			t.Errorf("%s.IsRetryable() = %v, want %v", code, got, want)
		}
	}
}

func TestClassifyProviderError_MatchesExpectedCodePerSubstring(t *testing.T) {
	cases := []struct {
		text string
		want ProviderErrorCode
	}{
		{"401 Unauthorized", ProviderErrAuthentication},
		{"authentication failed", ProviderErrAuthentication},
		{"429 Too Many Requests", ProviderErrRateLimit},
		{"rate limit exceeded", ProviderErrRateLimit},
		{"400 Bad Request", ProviderErrInvalidRequest},
		{"validation failed: missing field", ProviderErrInvalidRequest},
		{"context deadline exceeded", ProviderErrTimeout},
		{"request timeout", ProviderErrTimeout},
		{"connection reset by peer", ProviderErrNetwork},
		{"network is unreachable", ProviderErrNetwork},
		{"no such host: dns failure", ProviderErrNetwork},
		{"something unexpected happened", ProviderErrAPI},
	}
	for _, c := range cases {
		if got := ClassifyProviderError(errors.New(c.text)); got != c.want {
			t.Errorf("ClassifyProviderError(%q) = %s, want %s", c.text, got, c.want)
		}
	}
}

func TestClassifyProviderError_TimeoutBeatsNetworkWhenBothSubstringsPresent(t *testing.T) {
	got := ClassifyProviderError(errors.New("connection timeout"))
	if got != ProviderErrTimeout {
		t.Errorf("ClassifyProviderError(\"connection timeout\") = %s, want %s (timeout checked before network)", got, ProviderErrTimeout)
	}
}

func TestClassifyProviderError_NilErrorYieldsAPI(t *testing.T) {
	if got := ClassifyProviderError(nil); got != ProviderErrAPI {
		t.Errorf("ClassifyProviderError(nil) = %s, want %s", got, ProviderErrAPI)
	}
}

func TestProviderError_ErrorStringPrefersMessageOverCause(t *testing.T) {
	e := &ProviderError{Provider: "anthropic", Code: ProviderErrRateLimit, Message: "slow down", Cause: errors.New("raw")}
	if got, want := e.Error(), "[anthropic:rate_limit] slow down"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestProviderError_ErrorStringFallsBackToCauseThenBareCode(t *testing.T) {
	withCause := &ProviderError{Provider: "openai", Code: ProviderErrNetwork, Cause: errors.New("dial tcp: refused")}
	if got, want := withCause.Error(), "[openai:network] dial tcp: refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := &ProviderError{Provider: "openai", Code: ProviderErrAPI}
	if got, want := bare.Error(), "[openai:api]"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestProviderError_UnwrapAndIsRetryable(t *testing.T) {
	cause := errors.New("raw")
	e := &ProviderError{Code: ProviderErrTimeout, Cause: cause}
	if errors.Unwrap(e) != cause {
		t.Error("expected Unwrap to return the wrapped cause")
	}
	if !e.IsRetryable() {
		t.Error("expected a timeout ProviderError to be retryable")
	}
}

func TestNewToolError_ClassifiesSentinelErrorsByIdentity(t *testing.T) {
	e := NewToolError("click", ErrToolNotFound)
	if e.Type != ToolErrorNotFound {
		t.Errorf("Type = %s, want %s", e.Type, ToolErrorNotFound)
	}

	e2 := NewToolError("click", ErrToolTimeout)
	if e2.Type != ToolErrorTimeout {
		t.Errorf("Type = %s, want %s", e2.Type, ToolErrorTimeout)
	}
}

func TestNewToolError_ClassifiesByMessageSubstringWhenNotASentinel(t *testing.T) {
	cases := []struct {
		cause error
		want  ToolErrorType
	}{
		{errors.New("operation timeout"), ToolErrorTimeout},
		{errors.New("deadline for action"), ToolErrorTimeout},
		{errors.New("invalid selector"), ToolErrorInvalidInput},
		{errors.New("required field missing"), ToolErrorInvalidInput},
		{errors.New("element not interactable"), ToolErrorExecution},
	}
	for _, c := range cases {
		got := NewToolError("click", c.cause)
		if got.Type != c.want {
			t.Errorf("NewToolError(%q).Type = %s, want %s", c.cause, got.Type, c.want)
		}
	}
}

func TestNewToolError_NilCauseYieldsUnknownType(t *testing.T) {
	e := NewToolError("click", nil)
	if e.Type != ToolErrorUnknown {
		t.Errorf("Type = %s, want %s", e.Type, ToolErrorUnknown)
	}
	if e.Cause != nil {
		t.Error("expected nil Cause to remain nil")
	}
}

func TestToolError_ErrorStringAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := &ToolError{Type: ToolErrorExecution, ToolName: "click", Cause: cause}
	if got, want := e.Error(), "[tool:execution] click: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if errors.Unwrap(e) != cause {
		t.Error("expected Unwrap to return the wrapped cause")
	}

	withMessage := &ToolError{Type: ToolErrorInvalidInput, ToolName: "type", Message: "selector required"}
	if got, want := withMessage.Error(), "[tool:invalid_input] type: selector required"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestReActError_ErrorStringAndUnwrap(t *testing.T) {
	cause := errors.New("provider unavailable")
	e := &ReActError{Phase: PhaseThink, Iteration: 3, Cause: cause}
	if got, want := e.Error(), "react error at think (iteration 3): provider unavailable"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if errors.Unwrap(e) != cause {
		t.Error("expected Unwrap to return the wrapped cause")
	}
}
