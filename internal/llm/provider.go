// Package llm adapts heterogeneous LLM backends (Anthropic, OpenAI-compatible)
// behind one uniform streaming provider interface.
package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// Provider is the uniform LLM backend interface every adapter implements.
type Provider interface {
	// Name is the stable lowercase identifier used for routing and logging.
	Name() string

	// GenerateCompletion sends req and waits for the full response.
	GenerateCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// StreamCompletion sends req and returns a channel of incremental chunks.
	// The channel is closed when the stream ends, successfully or not.
	StreamCompletion(ctx context.Context, req *CompletionRequest) (<-chan *StreamChunk, error)

	// GetCapabilities describes what this provider supports.
	GetCapabilities() Capabilities

	// ListModels returns the provider's known model catalogue.
	ListModels() []Model

	// Stats returns cumulative usage accounting for this provider instance.
	Stats() ProviderStats
}

// Capabilities describes what a provider backend can do.
type Capabilities struct {
	SupportsTools      bool
	SupportsVision     bool
	SupportsStreaming  bool
	MaxContextTokens   int
}

// Model describes one available model.
type Model struct {
	ID             string
	Name           string
	ContextTokens  int
	SupportsVision bool
}

// CompletionRequest is the provider-agnostic request shape.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []models.Message
	Tools       []ToolDefinition
	MaxTokens   int
	Temperature float64
}

// ToolDefinition is a JSON-Schema-described tool the model may call.
type ToolDefinition struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

// CompletionResponse is a full, non-streamed completion.
type CompletionResponse struct {
	Text         string
	ToolCalls    []models.ToolCall
	InputTokens  int
	OutputTokens int
	StopReason   string
}

// StreamChunkType enumerates the chunk kinds a stream emits.
type StreamChunkType string

const (
	ChunkTextDelta       StreamChunkType = "text_delta"
	ChunkToolCallDelta   StreamChunkType = "tool_call_delta"
	ChunkToolCallComplete StreamChunkType = "tool_call_complete"
	ChunkMessageStart    StreamChunkType = "message_start"
	ChunkMessageComplete StreamChunkType = "message_complete"
	ChunkError           StreamChunkType = "error"
)

// StreamChunk is one increment of a streamed completion.
type StreamChunk struct {
	Type         StreamChunkType
	TextDelta    string
	ToolCall     *models.ToolCall
	InputTokens  int
	OutputTokens int
	Err          error
}

// ProviderStats accumulates usage across a provider instance's lifetime.
type ProviderStats struct {
	RequestCount      int
	SuccessCount      int
	FailureCount      int
	RetryCount        int
	TotalInputTokens  int
	TotalOutputTokens int
	TotalCostUSD      float64
	LastRequestAt     time.Time
}
