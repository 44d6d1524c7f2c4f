package cdpsession

import (
	"context"
	"errors"
	"testing"

	engerrors "github.com/browzer-labs/browzer-agent/internal/errors"
)

func TestNew_ReturnsAnUnattachedSession(t *testing.T) {
	s := New()
	if s.IsAttached() {
		t.Error("expected a freshly constructed Session to be unattached")
	}
}

func TestEvaluate_OnUnattachedSessionReturnsErrDebuggerDetached(t *testing.T) {
	s := New()
	var out string
	err := s.Evaluate(context.Background(), "1+1", &out)
	if !errors.Is(err, engerrors.ErrDebuggerDetached) {
		t.Errorf("Evaluate on unattached session = %v, want %v", err, engerrors.ErrDebuggerDetached)
	}
}

func TestNoteLastKnownPageAndLastKnownPage_RoundTrip(t *testing.T) {
	s := New()
	s.NoteLastKnownPage("https://example.com", "Example")
	url, title := s.LastKnownPage()
	if url != "https://example.com" || title != "Example" {
		t.Errorf("LastKnownPage() = (%q, %q), want (%q, %q)", url, title, "https://example.com", "Example")
	}
}

func TestOnEvent_RegistersHandlerWithoutPanicking(t *testing.T) {
	s := New()
	called := false
	s.OnEvent(func(ev any) { called = true })
	if len(s.handlers) != 1 {
		t.Fatalf("expected 1 registered handler, got %d", len(s.handlers))
	}
	s.handlers[0](nil)
	if !called {
		t.Error("expected the registered handler to be invocable")
	}
}

func TestDetach_OnNeverAttachedSessionIsANoOp(t *testing.T) {
	s := New()
	s.Detach() // must not panic even though allocCancel/taskCancel are nil
	if s.IsAttached() {
		t.Error("expected Detach to leave an unattached session unattached")
	}
}
