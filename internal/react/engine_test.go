package react

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/browzer-labs/browzer-agent/internal/llm"
	"github.com/browzer-labs/browzer-agent/internal/toolregistry"
	"github.com/browzer-labs/browzer-agent/pkg/models"
)

type fakeProvider struct {
	responses func(call int) (*llm.CompletionResponse, error)
	calls     int
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) GenerateCompletion(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls++
	return f.responses(f.calls)
}
func (f *fakeProvider) StreamCompletion(ctx context.Context, req *llm.CompletionRequest) (<-chan *llm.StreamChunk, error) {
	return nil, nil
}
func (f *fakeProvider) GetCapabilities() llm.Capabilities { return llm.Capabilities{SupportsTools: true} }
func (f *fakeProvider) ListModels() []llm.Model           { return nil }
func (f *fakeProvider) Stats() llm.ProviderStats          { return llm.ProviderStats{} }

type fakeContextProvider struct{}

func (fakeContextProvider) GetContext(ctx context.Context, opts ContextOptions) *models.BrowserContext {
	return &models.BrowserContext{
		Page:          models.PageMetadata{URL: "https://example.com", Title: "Example"},
		ElementCounts: models.ElementCounts{Total: 3, Interactive: 2, Visible: 3},
	}
}

type fakeNavigateTool struct {
	calls int
}

func (t *fakeNavigateTool) Name() string               { return "navigate_to_url" }
func (t *fakeNavigateTool) Description() string        { return "Navigate to a URL" }
func (t *fakeNavigateTool) Schema() json.RawMessage     { return json.RawMessage(`{}`) }
func (t *fakeNavigateTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	t.calls++
	return &models.ToolResult{Success: true, Message: "navigated"}, nil
}

func newRegistry(tool toolregistry.Tool) *toolregistry.Registry {
	reg := toolregistry.New()
	reg.Register(tool, toolregistry.ExecConfig{Timeout: time.Second})
	return reg
}

func newExecCtx() *models.ExecutionContext {
	return &models.ExecutionContext{
		SessionID:         "sess-1",
		TabID:             "tab-1",
		Mode:              models.ModeAutonomous,
		CurrentGoal:       "navigate to example.com",
		MaxExecutionSteps: defaultMaxIterations,
	}
}

// TestEngine_NavigationGoal_CompletesInTwoIterations mirrors the literal
// end-to-end scenario: a navigation goal resolved by exactly one tool call,
// followed by a completion-classified reply.
func TestEngine_NavigationGoal_CompletesInTwoIterations(t *testing.T) {
	tool := &fakeNavigateTool{}
	provider := &fakeProvider{
		responses: func(call int) (*llm.CompletionResponse, error) {
			if call == 1 {
				return &llm.CompletionResponse{
					ToolCalls: []models.ToolCall{{ID: "call-1", Function: models.ToolCallFunc{
						Name:      "navigate_to_url",
						Arguments: json.RawMessage(`{"url":"https://example.com"}`),
					}}},
				}, nil
			}
			return &llm.CompletionResponse{Text: "Task complete, navigation succeeded."}, nil
		},
	}

	engine := New(provider, newRegistry(tool), fakeContextProvider{}, nil, Config{})
	execCtx := newExecCtx()

	var events []models.ReActEvent
	result := engine.Run(context.Background(), execCtx, func(e models.ReActEvent) { events = append(events, e) })

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.FinalState != models.StateCompleted {
		t.Errorf("FinalState = %s, want %s", result.FinalState, models.StateCompleted)
	}
	if len(result.Iterations) != 2 {
		t.Fatalf("Iterations = %d, want 2", len(result.Iterations))
	}
	if tool.calls != 1 {
		t.Errorf("tool.calls = %d, want 1", tool.calls)
	}
	if result.Iterations[0].Action.Type != models.ActionToolCall {
		t.Errorf("iteration 0 action = %s, want %s", result.Iterations[0].Action.Type, models.ActionToolCall)
	}
	if result.Iterations[1].Action.Type != models.ActionCompleteTask {
		t.Errorf("iteration 1 action = %s, want %s", result.Iterations[1].Action.Type, models.ActionCompleteTask)
	}
}

func TestEngine_ThreeConsecutiveFailures_AbortsWithFailedState(t *testing.T) {
	provider := &fakeProvider{
		responses: func(call int) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Text: "thinking about it still"}, nil
		},
	}
	engine := New(provider, toolregistry.New(), fakeContextProvider{}, nil, Config{})
	execCtx := newExecCtx()

	result := engine.Run(context.Background(), execCtx, nil)

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.FinalState != models.StateFailed {
		t.Errorf("FinalState = %s, want %s", result.FinalState, models.StateFailed)
	}
	if result.Summary != "Task failed due to repeated errors" {
		t.Errorf("Summary = %q, want %q", result.Summary, "Task failed due to repeated errors")
	}
	if len(result.Iterations) != maxConsecutiveFailures {
		t.Errorf("Iterations = %d, want %d", len(result.Iterations), maxConsecutiveFailures)
	}
}

func TestEngine_IterationCapReached_AbortsWithFailedState(t *testing.T) {
	tool := &fakeNavigateTool{}
	provider := &fakeProvider{
		responses: func(call int) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{
				ToolCalls: []models.ToolCall{{ID: "call", Function: models.ToolCallFunc{
					Name:      "navigate_to_url",
					Arguments: json.RawMessage(`{"url":"https://example.com"}`),
				}}},
			}, nil
		},
	}
	engine := New(provider, newRegistry(tool), fakeContextProvider{}, nil, Config{})
	execCtx := newExecCtx()
	execCtx.MaxExecutionSteps = 3

	result := engine.Run(context.Background(), execCtx, nil)

	if result.Success {
		t.Fatal("expected failure at the iteration cap")
	}
	if result.Summary != "Task did not complete within iteration limit" {
		t.Errorf("Summary = %q, want %q", result.Summary, "Task did not complete within iteration limit")
	}
	if len(result.Iterations) != 3 {
		t.Errorf("Iterations = %d, want 3", len(result.Iterations))
	}
}

func TestClassifyCompletion(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Task complete!", true},
		{"I have completed successfully the form submission.", true},
		{"I cannot find the login button.", true},
		{"unable to locate the element", true},
		{"This is impossible given the current page state.", true},
		{"Let me click the button now.", false},
		{"Navigating to the next page.", false},
	}
	for _, c := range cases {
		if got := classifyCompletion(c.text); got != c.want {
			t.Errorf("classifyCompletion(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestEngine_IterationCountAndThoughtInvariants(t *testing.T) {
	// Invariant from the testable properties: iterations never exceed
	// maxExecutionSteps, and every recorded non-tool-call iteration carries
	// thought reasoning.
	tool := &fakeNavigateTool{}
	provider := &fakeProvider{
		responses: func(call int) (*llm.CompletionResponse, error) {
			if call < 3 {
				return &llm.CompletionResponse{
					ToolCalls: []models.ToolCall{{ID: "call", Function: models.ToolCallFunc{
						Name:      "navigate_to_url",
						Arguments: json.RawMessage(`{"url":"https://example.com"}`),
					}}},
				}, nil
			}
			return &llm.CompletionResponse{Text: "done"}, nil
		},
	}
	engine := New(provider, newRegistry(tool), fakeContextProvider{}, nil, Config{})
	execCtx := newExecCtx()

	result := engine.Run(context.Background(), execCtx, nil)

	if len(result.Iterations) > execCtx.MaxExecutionSteps {
		t.Fatalf("Iterations = %d exceeds MaxExecutionSteps = %d", len(result.Iterations), execCtx.MaxExecutionSteps)
	}
	for _, it := range result.Iterations {
		if it.Thought.Reasoning == "" && it.Action.Type != models.ActionToolCall {
			t.Errorf("iteration %d has empty thought reasoning for a non-tool-call action", it.Iteration)
		}
	}
}
