package orchestrator

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/browzer-labs/browzer-agent/internal/chatsession"
	"github.com/browzer-labs/browzer-agent/internal/config"
	"github.com/browzer-labs/browzer-agent/internal/llm"
	"github.com/browzer-labs/browzer-agent/internal/memory"
	"github.com/browzer-labs/browzer-agent/internal/toolregistry"
	"github.com/browzer-labs/browzer-agent/pkg/models"
)

type fakeProvider struct {
	name      string
	responses func(call int) (*llm.CompletionResponse, error)
	calls     int
	cost      float64
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) GenerateCompletion(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls++
	return f.responses(f.calls)
}
func (f *fakeProvider) StreamCompletion(ctx context.Context, req *llm.CompletionRequest) (<-chan *llm.StreamChunk, error) {
	return nil, nil
}
func (f *fakeProvider) GetCapabilities() llm.Capabilities { return llm.Capabilities{SupportsTools: true} }
func (f *fakeProvider) ListModels() []llm.Model           { return nil }
func (f *fakeProvider) Stats() llm.ProviderStats          { return llm.ProviderStats{TotalCostUSD: f.cost} }

type fakeNavigateTool struct{}

func (t *fakeNavigateTool) Name() string           { return "navigate_to_url" }
func (t *fakeNavigateTool) Description() string    { return "Navigate to a URL" }
func (t *fakeNavigateTool) Schema() json.RawMessage { return json.RawMessage(`{}`) }
func (t *fakeNavigateTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	return &models.ToolResult{Success: true, Message: "navigated"}, nil
}

func newTestOrchestrator(responses func(call int) (*llm.CompletionResponse, error)) *Orchestrator {
	provider := &fakeProvider{name: "fake-model", responses: responses}
	reg := toolregistry.New()
	reg.Register(&fakeNavigateTool{}, toolregistry.ExecConfig{Timeout: time.Second})

	providers := NewProviderRegistry(nil, provider)
	chatMgr := chatsession.NewManager(nil)
	memMgr := memory.NewManager(memory.StrategySlidingWindow)

	cfg := config.OrchestratorConfig{
		Mode:              "autonomous",
		MaxExecutionSteps: 10,
		MaxThinkingTime:   5 * time.Second,
		MaxContextTokens:  100_000,
		EnableMemory:      true,
	}
	llmCfg := config.LLMConfig{DefaultModel: "fake-model"}

	return New(cfg, llmCfg, providers, reg, chatMgr, memMgr, nil)
}

func TestExecuteTask_HappyPath_AppendsAssistantAndToolMessagesOnly(t *testing.T) {
	o := newTestOrchestrator(func(call int) (*llm.CompletionResponse, error) {
		if call == 1 {
			return &llm.CompletionResponse{
				ToolCalls: []models.ToolCall{{ID: "call-1", Function: models.ToolCallFunc{
					Name:      "navigate_to_url",
					Arguments: json.RawMessage(`{"url":"https://example.com"}`),
				}}},
			}, nil
		}
		return &llm.CompletionResponse{Text: "Task complete, done."}, nil
	})

	result := o.ExecuteTask(context.Background(), "go to example.com", "tab-1", TaskOptions{UserID: "u1"})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	session := o.chatMgr.GetOrCreate(context.Background(), "tab-1", "u1")
	if len(session.Messages) < 3 {
		t.Fatalf("expected at least 3 persisted messages (user, assistant, tool), got %d", len(session.Messages))
	}
	if session.Messages[0].Role != models.RoleUser {
		t.Errorf("first message role = %s, want user", session.Messages[0].Role)
	}
	userCount := 0
	for _, m := range session.Messages {
		if m.Role == models.RoleUser {
			userCount++
		}
	}
	if userCount != 1 {
		t.Errorf("expected exactly 1 user message in the persisted session, got %d", userCount)
	}
	if session.Stats.TotalTokensUsed != result.TokensUsed {
		t.Errorf("session TotalTokensUsed = %d, want %d", session.Stats.TotalTokensUsed, result.TokensUsed)
	}
}

func TestExecuteTask_RecordingContextIsForwardedToTheEngineButNotPersisted(t *testing.T) {
	var capturedMessages []models.Message
	provider := &fakeProvider{
		name: "fake-model",
		responses: func(call int) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Text: "task complete"}, nil
		},
	}
	reg := toolregistry.New()
	providers := NewProviderRegistry(nil, provider)
	chatMgr := chatsession.NewManager(nil)
	memMgr := memory.NewManager(memory.StrategySlidingWindow)
	cfg := config.OrchestratorConfig{Mode: "autonomous", MaxExecutionSteps: 10, MaxThinkingTime: 5 * time.Second, MaxContextTokens: 100_000}
	llmCfg := config.LLMConfig{DefaultModel: "fake-model"}
	o := New(cfg, llmCfg, providers, reg, chatMgr, memMgr, nil)

	// Wrap the provider to capture the exact request the engine sent.
	capturing := &capturingProvider{inner: provider, capture: &capturedMessages}
	o.providers = NewProviderRegistry(nil, capturing)

	recording := []models.RecordedAction{
		{Type: models.ActionClick, Target: &models.ElementTarget{Text: "Submit"}},
	}
	result := o.ExecuteTask(context.Background(), "repeat the recorded workflow", "tab-2", TaskOptions{
		RecordingContext: recording,
	})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	foundInRequest := false
	for _, m := range capturedMessages {
		if strings.Contains(m.Content, "Reference workflow") {
			foundInRequest = true
		}
	}
	if !foundInRequest {
		t.Error("expected the recording-context reference workflow to reach the LLM request")
	}

	session := o.chatMgr.GetOrCreate(context.Background(), "tab-2", "")
	for _, m := range session.Messages {
		if strings.Contains(m.Content, "Reference workflow") {
			t.Error("recording-context message should not be persisted to the chat session")
		}
	}
}

type capturingProvider struct {
	inner   *fakeProvider
	capture *[]models.Message
}

func (c *capturingProvider) Name() string { return c.inner.Name() }
func (c *capturingProvider) GenerateCompletion(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	*c.capture = req.Messages
	return c.inner.GenerateCompletion(ctx, req)
}
func (c *capturingProvider) StreamCompletion(ctx context.Context, req *llm.CompletionRequest) (<-chan *llm.StreamChunk, error) {
	return c.inner.StreamCompletion(ctx, req)
}
func (c *capturingProvider) GetCapabilities() llm.Capabilities { return c.inner.GetCapabilities() }
func (c *capturingProvider) ListModels() []llm.Model           { return c.inner.ListModels() }
func (c *capturingProvider) Stats() llm.ProviderStats          { return c.inner.Stats() }

func TestFormatRecordingContext_TruncatesToLast20AndPrefersText(t *testing.T) {
	actions := make([]models.RecordedAction, 25)
	for i := range actions {
		actions[i] = models.RecordedAction{
			Type:   models.ActionClick,
			Target: &models.ElementTarget{Text: "button"},
		}
	}
	summary := formatRecordingContext(actions)
	lines := strings.Split(strings.TrimSpace(summary), "\n")
	// header + 20 action lines
	if len(lines) != 21 {
		t.Fatalf("expected 21 lines (1 header + 20 actions), got %d", len(lines))
	}
	if !strings.Contains(summary, `on "button"`) {
		t.Errorf("expected target text to appear, got %q", summary)
	}
}

func TestDescribeTarget_PrefersTextThenAriaThenSelectorThenTag(t *testing.T) {
	cases := []struct {
		target *models.ElementTarget
		want   string
	}{
		{nil, "(no target)"},
		{&models.ElementTarget{Text: "Submit"}, `on "Submit"`},
		{&models.ElementTarget{AriaLabel: "close"}, `on [aria-label="close"]`},
		{&models.ElementTarget{Selectors: []models.SelectorStrategy{{Kind: "css", Value: "#btn"}}}, `on css="#btn"`},
		{&models.ElementTarget{TagName: "button"}, "on <button>"},
	}
	for _, c := range cases {
		if got := describeTarget(c.target); got != c.want {
			t.Errorf("describeTarget(%+v) = %q, want %q", c.target, got, c.want)
		}
	}
}

func TestDistillMemories_PreferenceAndToolUsage(t *testing.T) {
	store := memory.NewStore()
	messages := []models.Message{
		{Role: models.RoleUser, Content: "I prefer dark mode on every page"},
		{Role: models.RoleAssistant, Content: "Noted."},
	}
	distillMemories(store, "sess-1", messages, []string{"navigate_to_url", "navigate_to_url", "click_element"})

	got := store.GetRelevantMemories("sess-1", "dark mode tools used", 10)
	var sawPreference, sawToolUsage bool
	for _, e := range got {
		if e.Type == models.MemoryPreference {
			sawPreference = true
		}
		if e.Type == models.MemoryToolUsage {
			sawToolUsage = true
			if !strings.Contains(e.Content, "navigate_to_url") || !strings.Contains(e.Content, "click_element") {
				t.Errorf("tool usage memory missing a tool name: %q", e.Content)
			}
			if strings.Count(e.Content, "navigate_to_url") != 1 {
				t.Errorf("tool usage memory should dedupe repeated tool names: %q", e.Content)
			}
		}
	}
	if !sawPreference {
		t.Error("expected a preference memory to be recorded")
	}
	if !sawToolUsage {
		t.Error("expected a tool-usage memory to be recorded")
	}
}

func TestProviderRegistry_SelectFallsBackToFirstAvailable(t *testing.T) {
	p1 := &fakeProvider{name: "aaa"}
	p2 := &fakeProvider{name: "zzz"}
	reg := NewProviderRegistry(nil, p1, p2)

	got, err := reg.Select(context.Background(), "unregistered-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name() != "aaa" {
		t.Errorf("Select fallback = %s, want aaa (first by name)", got.Name())
	}
}

func TestProviderRegistry_SelectWithFallback_UsesConfiguredFallbackBeforeFirstAvailable(t *testing.T) {
	p1 := &fakeProvider{name: "aaa"}
	p2 := &fakeProvider{name: "configured-fallback"}
	reg := NewProviderRegistry(nil, p1, p2)

	got, err := reg.SelectWithFallback(context.Background(), "missing-primary", "configured-fallback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name() != "configured-fallback" {
		t.Errorf("SelectWithFallback = %s, want configured-fallback", got.Name())
	}
}

func TestLifecycleOps_PauseResumeCancelClear(t *testing.T) {
	o := newTestOrchestrator(func(call int) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Text: "task complete"}, nil
	})
	result := o.ExecuteTask(context.Background(), "do something", "tab-3", TaskOptions{})
	if !result.Success {
		t.Fatalf("setup task failed: %+v", result)
	}

	var sessionID string
	for id := range o.executions {
		sessionID = id
	}
	if sessionID == "" {
		t.Fatal("expected a tracked execution after ExecuteTask")
	}

	if err := o.PauseExecution(sessionID); err != nil {
		t.Fatalf("PauseExecution: %v", err)
	}
	exec, _ := o.GetExecutionContext(sessionID)
	if exec.State != models.StatePaused {
		t.Errorf("state after pause = %s, want paused", exec.State)
	}

	if err := o.ResumeExecution(sessionID); err != nil {
		t.Fatalf("ResumeExecution: %v", err)
	}
	exec, _ = o.GetExecutionContext(sessionID)
	if exec.State != models.StateThinking {
		t.Errorf("state after resume = %s, want thinking", exec.State)
	}

	if err := o.CancelExecution(sessionID); err != nil {
		t.Fatalf("CancelExecution: %v", err)
	}
	if _, ok := o.GetExecutionContext(sessionID); ok {
		t.Error("expected execution to be removed after cancel")
	}

	if err := o.PauseExecution("unknown-session"); err == nil {
		t.Error("expected error pausing an unknown session")
	}

	o.ExecuteTask(context.Background(), "another task", "tab-4", TaskOptions{})
	o.ClearAllExecutions()
	stats := o.GetGlobalStats()
	if stats.ActiveExecutions != 0 {
		t.Errorf("ActiveExecutions after ClearAllExecutions = %d, want 0", stats.ActiveExecutions)
	}
	if stats.TasksExecuted < 2 {
		t.Errorf("TasksExecuted = %d, want >= 2", stats.TasksExecuted)
	}
}
