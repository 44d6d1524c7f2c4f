// Package toolregistry catalogues the browser-automation primitives the
// ReAct Engine can call, validates arguments against each tool's JSON
// Schema, and dispatches execution.
package toolregistry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	engerrors "github.com/browzer-labs/browzer-agent/internal/errors"
	"github.com/browzer-labs/browzer-agent/internal/llm"
	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// Tool parameter limits, guarding against unbounded names/payloads.
const (
	MaxToolNameLength  = 256
	MaxToolParamsSize  = 10 << 20
	defaultTimeout     = 10 * time.Second
)

// Tool is one named, schema-described browser primitive.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error)
}

// ExecConfig is per-tool execution config (timeout, priority), letting
// take_screenshot or wait_for_element run with longer timeouts than
// click_element.
type ExecConfig struct {
	Timeout  time.Duration
	Priority int
}

// Registry holds the set of registered tools plus their per-tool execution
// config, thread-safe for concurrent registration and lookup.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	configs map[string]ExecConfig
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{tools: make(map[string]Tool), configs: make(map[string]ExecConfig)}
}

// Register adds tool to the registry, replacing any existing tool of the
// same name. An empty cfg falls back to defaultTimeout and priority 0.
func (r *Registry) Register(tool Tool, cfg ExecConfig) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
	r.configs[tool.Name()] = cfg
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
	delete(r.configs, name)
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// GetToolsAsMCP returns every registered tool's schema in the JSON-function-
// calling shape LLM adapters forward.
func (r *Registry) GetToolsAsMCP() []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llm.ToolDefinition, 0, len(r.tools))
	for name, t := range r.tools {
		out = append(out, llm.ToolDefinition{Name: name, Description: t.Description(), Schema: t.Schema()})
	}
	return out
}

// ExecuteTool validates name/params, enforces the per-tool timeout, and
// dispatches to the tool's implementation.
// Every failure, an unknown tool, oversized or schema-invalid input, a
// timeout or a tool error, comes back as ToolResult{Success: false} with a
// nil Go error.
func (r *Registry) ExecuteTool(ctx context.Context, name string, params json.RawMessage) (*models.ToolResult, error) {
	if len(name) > MaxToolNameLength {
		return &models.ToolResult{Success: false, Error: fmt.Sprintf("tool name exceeds maximum length of %d characters", MaxToolNameLength)}, nil
	}
	if len(params) > MaxToolParamsSize {
		return &models.ToolResult{Success: false, Error: fmt.Sprintf("tool parameters exceed maximum size of %d bytes", MaxToolParamsSize)}, nil
	}

	r.mu.RLock()
	tool, ok := r.tools[name]
	cfg := r.configs[name]
	r.mu.RUnlock()
	if !ok {
		err := engerrors.NewToolError(name, fmt.Errorf("tool not found"))
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}

	if err := validate(name, params); err != nil {
		toolErr := engerrors.NewToolError(name, fmt.Errorf("invalid parameters: %w", err))
		return &models.ToolResult{Success: false, Error: toolErr.Error()}, nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := tool.Execute(execCtx, params)
	if err != nil {
		toolErr := engerrors.NewToolError(name, err)
		return &models.ToolResult{Success: false, Error: toolErr.Error()}, nil
	}
	return result, nil
}
