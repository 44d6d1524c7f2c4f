package toolregistry

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

type fakeTool struct {
	name   string
	result *models.ToolResult
	err    error
	calls  int
}

func (f *fakeTool) Name() string               { return f.name }
func (f *fakeTool) Description() string         { return "fake tool for testing" }
func (f *fakeTool) Schema() json.RawMessage     { return schemaFor(f.name) }
func (f *fakeTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestRegisterAndGet_RoundTrips(t *testing.T) {
	r := New()
	tool := &fakeTool{name: "get_page_info", result: &models.ToolResult{Success: true}}
	r.Register(tool, ExecConfig{})

	got, ok := r.Get("get_page_info")
	if !ok || got != tool {
		t.Fatalf("expected Get to return the registered tool, got %v, %v", got, ok)
	}
}

func TestRegister_ZeroTimeoutFallsBackToDefault(t *testing.T) {
	r := New()
	r.Register(&fakeTool{name: "get_page_info"}, ExecConfig{})
	if r.configs["get_page_info"].Timeout != defaultTimeout {
		t.Errorf("Timeout = %v, want the default %v", r.configs["get_page_info"].Timeout, defaultTimeout)
	}
}

func TestUnregister_RemovesToolAndConfig(t *testing.T) {
	r := New()
	r.Register(&fakeTool{name: "get_page_info"}, ExecConfig{})
	r.Unregister("get_page_info")
	if _, ok := r.Get("get_page_info"); ok {
		t.Error("expected the tool to be gone after Unregister")
	}
}

func TestGetToolsAsMCP_ReturnsOneEntryPerRegisteredTool(t *testing.T) {
	r := New()
	r.Register(&fakeTool{name: "get_page_info"}, ExecConfig{})
	r.Register(&fakeTool{name: "click_element"}, ExecConfig{})

	defs := r.GetToolsAsMCP()
	if len(defs) != 2 {
		t.Fatalf("expected 2 tool definitions, got %d", len(defs))
	}
}

func TestExecuteTool_UnknownToolReturnsFailedResultNotError(t *testing.T) {
	r := New()
	result, err := r.ExecuteTool(context.Background(), "does_not_exist", nil)
	if err != nil {
		t.Fatalf("expected no Go error, got %v", err)
	}
	if result.Success {
		t.Fatal("expected Success=false for an unknown tool")
	}
	if !strings.Contains(result.Error, "not found") {
		t.Errorf("Error = %q, want it to mention tool not found", result.Error)
	}
}

func TestExecuteTool_NameExceedingMaxLengthFailsFast(t *testing.T) {
	r := New()
	longName := strings.Repeat("a", MaxToolNameLength+1)
	result, err := r.ExecuteTool(context.Background(), longName, nil)
	if err != nil {
		t.Fatalf("expected no Go error, got %v", err)
	}
	if result.Success || !strings.Contains(result.Error, "maximum length") {
		t.Errorf("result = %+v, want a maximum-length failure", result)
	}
}

func TestExecuteTool_ParamsExceedingMaxSizeFailsFast(t *testing.T) {
	r := New()
	r.Register(&fakeTool{name: "get_page_info", result: &models.ToolResult{Success: true}}, ExecConfig{})
	bigParams := json.RawMessage(strings.Repeat("a", MaxToolParamsSize+1))
	result, err := r.ExecuteTool(context.Background(), "get_page_info", bigParams)
	if err != nil {
		t.Fatalf("expected no Go error, got %v", err)
	}
	if result.Success || !strings.Contains(result.Error, "maximum size") {
		t.Errorf("result = %+v, want a maximum-size failure", result)
	}
}

func TestExecuteTool_InvalidParamsFailsSchemaValidation(t *testing.T) {
	r := New()
	r.Register(&fakeTool{name: "click_element", result: &models.ToolResult{Success: true}}, ExecConfig{})
	// click_element requires selector_strategy/selector_value; omit both.
	result, err := r.ExecuteTool(context.Background(), "click_element", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("expected no Go error, got %v", err)
	}
	if result.Success {
		t.Fatal("expected Success=false for params missing required fields")
	}
	if !strings.Contains(result.Error, "invalid parameters") {
		t.Errorf("Error = %q, want it to mention invalid parameters", result.Error)
	}
}

func TestExecuteTool_ValidParamsDispatchesAndReturnsToolResult(t *testing.T) {
	r := New()
	want := &models.ToolResult{Success: true, Data: json.RawMessage(`{"title":"Example"}`)}
	tool := &fakeTool{name: "get_page_info", result: want}
	r.Register(tool, ExecConfig{})

	result, err := r.ExecuteTool(context.Background(), "get_page_info", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != want {
		t.Errorf("expected ExecuteTool to return the tool's own result, got %+v", result)
	}
	if tool.calls != 1 {
		t.Errorf("expected the tool to be called once, got %d", tool.calls)
	}
}

func TestExecuteTool_ToolExecutionErrorFoldsIntoFailedResult(t *testing.T) {
	r := New()
	r.Register(&fakeTool{name: "get_page_info", err: context.DeadlineExceeded}, ExecConfig{})

	result, err := r.ExecuteTool(context.Background(), "get_page_info", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("expected no Go error, got %v", err)
	}
	if result.Success {
		t.Fatal("expected Success=false when the tool itself errors")
	}
}

func TestExecuteTool_EmptyParamsDefaultToEmptyObjectForSchemasWithNoRequiredFields(t *testing.T) {
	r := New()
	r.Register(&fakeTool{name: "get_page_info", result: &models.ToolResult{Success: true}}, ExecConfig{})
	result, err := r.ExecuteTool(context.Background(), "get_page_info", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Errorf("expected nil params to validate against a schema with no required fields, got %+v", result)
	}
}

func TestExecuteTool_RespectsPerToolTimeout(t *testing.T) {
	r := New()
	blocking := &blockingTool{name: "get_page_info"}
	r.Register(blocking, ExecConfig{Timeout: 10 * time.Millisecond})

	start := time.Now()
	result, err := r.ExecuteTool(context.Background(), "get_page_info", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("expected no Go error, got %v", err)
	}
	if result.Success {
		t.Fatal("expected Success=false when the tool exceeds its timeout")
	}
	if time.Since(start) > time.Second {
		t.Errorf("expected the timeout to cut execution short, took %v", time.Since(start))
	}
}

type blockingTool struct{ name string }

func (b *blockingTool) Name() string           { return b.name }
func (b *blockingTool) Description() string    { return "blocks until its context is cancelled" }
func (b *blockingTool) Schema() json.RawMessage { return schemaFor(b.name) }
func (b *blockingTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
