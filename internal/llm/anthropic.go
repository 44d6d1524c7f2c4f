package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	engerrors "github.com/browzer-labs/browzer-agent/internal/errors"
	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// anthropicPricePerMillion holds input/output USD pricing for cost
// accounting. Approximate, updated with each model generation.
var anthropicPricePerMillion = map[string][2]float64{
	"claude-sonnet-4-20250514":   {3.0, 15.0},
	"claude-opus-4-20250514":     {15.0, 75.0},
	"claude-3-5-sonnet-20241022": {3.0, 15.0},
	"claude-3-haiku-20240307":    {0.25, 1.25},
}

// AnthropicConfig configures an AnthropicProvider.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxRetries   int
	RetryDelay   time.Duration
}

// AnthropicProvider adapts the Anthropic Messages API to the Provider
// interface, converting between this package's message/tool-call model and
// the SDK's streaming event shapes.
type AnthropicProvider struct {
	base
	client       anthropic.Client
	defaultModel string
}

// NewAnthropicProvider validates cfg and returns a ready-to-use provider.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: api key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "claude-sonnet-4-20250514"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		base:         newBase("anthropic", cfg.MaxRetries, cfg.RetryDelay),
		client:       anthropic.NewClient(opts...),
		defaultModel: cfg.DefaultModel,
	}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Stats() ProviderStats { return p.snapshot() }

func (p *AnthropicProvider) GetCapabilities() Capabilities {
	return Capabilities{SupportsTools: true, SupportsVision: true, SupportsStreaming: true, MaxContextTokens: 200000}
}

func (p *AnthropicProvider) ListModels() []Model {
	return []Model{
		{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", ContextTokens: 200000, SupportsVision: true},
		{ID: "claude-opus-4-20250514", Name: "Claude Opus 4", ContextTokens: 200000, SupportsVision: true},
		{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", ContextTokens: 200000, SupportsVision: true},
		{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", ContextTokens: 200000, SupportsVision: true},
	}
}

func (p *AnthropicProvider) model(req *CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return p.defaultModel
}

func (p *AnthropicProvider) maxTokens(req *CompletionRequest) int64 {
	if req.MaxTokens > 0 {
		return int64(req.MaxTokens)
	}
	return 4096
}

func (p *AnthropicProvider) buildParams(req *CompletionRequest) (anthropic.MessageNewParams, error) {
	messages, err := convertMessagesAnthropic(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model(req)),
		Messages:  messages,
		MaxTokens: p.maxTokens(req),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
	}
	if len(req.Tools) > 0 {
		tools, err := convertToolsAnthropic(req.Tools)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		params.Tools = tools
	}
	return params, nil
}

// GenerateCompletion issues a non-streaming request with retry.
func (p *AnthropicProvider) GenerateCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, p.wrapError(err)
	}

	var msg *anthropic.Message
	err = p.retry(ctx, func() error {
		var callErr error
		msg, callErr = p.client.Messages.New(ctx, params)
		if callErr != nil {
			return p.wrapError(callErr)
		}
		return nil
	})
	if err != nil {
		p.recordRequest(false, 0, 0, 0)
		return nil, err
	}

	resp := &CompletionResponse{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
		StopReason:   string(msg.StopReason),
	}
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Text += b.Text
		case anthropic.ToolUseBlock:
			resp.ToolCalls = append(resp.ToolCalls, models.ToolCall{
				ID:       b.ID,
				Function: models.ToolCallFunc{Name: b.Name, Arguments: json.RawMessage(b.Input)},
			})
		}
	}

	cost := p.estimateCost(p.model(req), resp.InputTokens, resp.OutputTokens)
	p.recordRequest(true, resp.InputTokens, resp.OutputTokens, cost)
	return resp, nil
}

// StreamCompletion issues a streaming request, emitting incremental chunks.
func (p *AnthropicProvider) StreamCompletion(ctx context.Context, req *CompletionRequest) (<-chan *StreamChunk, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, p.wrapError(err)
	}

	out := make(chan *StreamChunk)
	model := p.model(req)

	go func() {
		defer close(out)

		var stream interface {
			Next() bool
			Current() anthropic.MessageStreamEventUnion
			Err() error
		}
		stream = p.client.Messages.NewStreaming(ctx, params)

		out <- &StreamChunk{Type: ChunkMessageStart}

		var toolCall *models.ToolCall
		var toolInput strings.Builder
		var inputTokens, outputTokens int

		for stream.Next() {
			event := stream.Current()
			switch event.Type {
			case "message_start":
				ms := event.AsMessageStart()
				inputTokens = int(ms.Message.Usage.InputTokens)
			case "content_block_start":
				cb := event.AsContentBlockStart().ContentBlock
				if cb.Type == "tool_use" {
					tu := cb.AsToolUse()
					toolCall = &models.ToolCall{ID: tu.ID, Function: models.ToolCallFunc{Name: tu.Name}}
					toolInput.Reset()
				}
			case "content_block_delta":
				delta := event.AsContentBlockDelta().Delta
				switch delta.Type {
				case "text_delta":
					if delta.Text != "" {
						out <- &StreamChunk{Type: ChunkTextDelta, TextDelta: delta.Text}
					}
				case "input_json_delta":
					toolInput.WriteString(delta.PartialJSON)
					if toolCall != nil {
						out <- &StreamChunk{Type: ChunkToolCallDelta, ToolCall: toolCall}
					}
				}
			case "content_block_stop":
				if toolCall != nil {
					toolCall.Function.Arguments = json.RawMessage(toolInput.String())
					out <- &StreamChunk{Type: ChunkToolCallComplete, ToolCall: toolCall}
					toolCall = nil
				}
			case "message_delta":
				md := event.AsMessageDelta()
				if md.Usage.OutputTokens > 0 {
					outputTokens = int(md.Usage.OutputTokens)
				}
			case "message_stop":
				cost := p.estimateCost(model, inputTokens, outputTokens)
				p.recordRequest(true, inputTokens, outputTokens, cost)
				out <- &StreamChunk{Type: ChunkMessageComplete, InputTokens: inputTokens, OutputTokens: outputTokens}
				return
			}
		}
		if err := stream.Err(); err != nil {
			p.recordRequest(false, inputTokens, outputTokens, 0)
			out <- &StreamChunk{Type: ChunkError, Err: p.wrapError(err)}
		}
	}()

	return out, nil
}

func (p *AnthropicProvider) estimateCost(model string, inputTokens, outputTokens int) float64 {
	price, ok := anthropicPricePerMillion[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1_000_000*price[0] + float64(outputTokens)/1_000_000*price[1]
}

func (p *AnthropicProvider) wrapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*engerrors.ProviderError); ok {
		return err
	}
	code := engerrors.ClassifyProviderError(err)
	return &engerrors.ProviderError{Provider: "anthropic", Code: code, Message: err.Error(), Cause: err}
}

func convertMessagesAnthropic(messages []models.Message) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam
	for _, msg := range messages {
		if msg.Role == models.RoleSystem {
			continue
		}
		var content []anthropic.ContentBlockParamUnion

		if msg.Role == models.RoleTool {
			isErr, _ := msg.Metadata["is_error"].(bool)
			content = append(content, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, isErr))
			result = append(result, anthropic.NewUserMessage(content...))
			continue
		}

		if msg.Content != "" {
			content = append(content, anthropic.NewTextBlock(msg.Content))
		}
		for _, tc := range msg.ToolCalls {
			var input map[string]any
			if err := json.Unmarshal(tc.Function.Arguments, &input); err != nil {
				return nil, fmt.Errorf("invalid tool call input: %w", err)
			}
			content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Function.Name))
		}
		if len(content) == 0 {
			continue
		}
		if msg.Role == models.RoleAssistant {
			result = append(result, anthropic.NewAssistantMessage(content...))
		} else {
			result = append(result, anthropic.NewUserMessage(content...))
		}
	}
	return result, nil
}

func convertToolsAnthropic(tools []ToolDefinition) ([]anthropic.ToolUnionParam, error) {
	var result []anthropic.ToolUnionParam
	for _, t := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(t.Schema, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", t.Name, err)
		}
		param := anthropic.ToolUnionParamOfTool(schema, t.Name)
		if param.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s", t.Name)
		}
		param.OfTool.Description = anthropic.String(t.Description)
		result = append(result, param)
	}
	return result, nil
}
