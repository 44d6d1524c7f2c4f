package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"

	engerrors "github.com/browzer-labs/browzer-agent/internal/errors"
	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// openaiPricePerMillion holds approximate USD input/output pricing for cost
// accounting.
var openaiPricePerMillion = map[string][2]float64{
	"gpt-4o":        {2.5, 10.0},
	"gpt-4-turbo":   {10.0, 30.0},
	"gpt-3.5-turbo": {0.5, 1.5},
}

// OpenAIConfig configures an OpenAIProvider. It also serves any
// OpenAI-compatible endpoint (local or hosted) via BaseURL.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxRetries   int
	RetryDelay   time.Duration
}

// OpenAIProvider adapts the Chat Completions streaming API to the Provider
// interface, accumulating per-index tool calls as the API delivers them.
type OpenAIProvider struct {
	base
	client       *openai.Client
	defaultModel string
}

// NewOpenAIProvider validates cfg and returns a ready-to-use provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gpt-4o"
	}

	oaiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaiCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		base:         newBase("openai", cfg.MaxRetries, cfg.RetryDelay),
		client:       openai.NewClientWithConfig(oaiCfg),
		defaultModel: cfg.DefaultModel,
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Stats() ProviderStats { return p.snapshot() }

func (p *OpenAIProvider) GetCapabilities() Capabilities {
	return Capabilities{SupportsTools: true, SupportsVision: true, SupportsStreaming: true, MaxContextTokens: 128000}
}

func (p *OpenAIProvider) ListModels() []Model {
	return []Model{
		{ID: "gpt-4o", Name: "GPT-4o", ContextTokens: 128000, SupportsVision: true},
		{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", ContextTokens: 128000, SupportsVision: true},
		{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", ContextTokens: 16385, SupportsVision: false},
	}
}

func (p *OpenAIProvider) model(req *CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return p.defaultModel
}

func (p *OpenAIProvider) buildRequest(req *CompletionRequest, stream bool) (openai.ChatCompletionRequest, error) {
	messages, err := convertMessagesOpenAI(req.Messages, req.System)
	if err != nil {
		return openai.ChatCompletionRequest{}, err
	}
	chatReq := openai.ChatCompletionRequest{
		Model:    p.model(req),
		Messages: messages,
		Stream:   stream,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		chatReq.Temperature = float32(req.Temperature)
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = convertToolsOpenAI(req.Tools)
	}
	return chatReq, nil
}

// GenerateCompletion issues a non-streaming request with retry.
func (p *OpenAIProvider) GenerateCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	chatReq, err := p.buildRequest(req, false)
	if err != nil {
		return nil, p.wrapError(err)
	}

	var resp openai.ChatCompletionResponse
	err = p.retry(ctx, func() error {
		var callErr error
		resp, callErr = p.client.CreateChatCompletion(ctx, chatReq)
		if callErr != nil {
			return p.wrapError(callErr)
		}
		return nil
	})
	if err != nil {
		p.recordRequest(false, 0, 0, 0)
		return nil, err
	}
	if len(resp.Choices) == 0 {
		p.recordRequest(false, 0, 0, 0)
		return nil, p.wrapError(fmt.Errorf("openai: empty choices"))
	}

	choice := resp.Choices[0]
	out := &CompletionResponse{
		Text:         choice.Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		StopReason:   string(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, models.ToolCall{
			ID:       tc.ID,
			Function: models.ToolCallFunc{Name: tc.Function.Name, Arguments: json.RawMessage(tc.Function.Arguments)},
		})
	}

	cost := p.estimateCost(p.model(req), out.InputTokens, out.OutputTokens)
	p.recordRequest(true, out.InputTokens, out.OutputTokens, cost)
	return out, nil
}

// StreamCompletion issues a streaming request, accumulating per-index tool
// calls the way the Chat Completions API delivers them.
func (p *OpenAIProvider) StreamCompletion(ctx context.Context, req *CompletionRequest) (<-chan *StreamChunk, error) {
	chatReq, err := p.buildRequest(req, true)
	if err != nil {
		return nil, p.wrapError(err)
	}
	model := p.model(req)

	out := make(chan *StreamChunk)
	go func() {
		defer close(out)

		var stream *openai.ChatCompletionStream
		err := p.retry(ctx, func() error {
			var callErr error
			stream, callErr = p.client.CreateChatCompletionStream(ctx, chatReq)
			if callErr != nil {
				return p.wrapError(callErr)
			}
			return nil
		})
		if err != nil {
			out <- &StreamChunk{Type: ChunkError, Err: err}
			return
		}
		defer stream.Close()

		out <- &StreamChunk{Type: ChunkMessageStart}

		toolCalls := make(map[int]*models.ToolCall)
		var inputTokens, outputTokens int

		for {
			resp, err := stream.Recv()
			if err != nil {
				if err == io.EOF {
					for _, tc := range toolCalls {
						if tc.ID != "" && tc.Function.Name != "" {
							out <- &StreamChunk{Type: ChunkToolCallComplete, ToolCall: tc}
						}
					}
					cost := p.estimateCost(model, inputTokens, outputTokens)
					p.recordRequest(true, inputTokens, outputTokens, cost)
					out <- &StreamChunk{Type: ChunkMessageComplete, InputTokens: inputTokens, OutputTokens: outputTokens}
					return
				}
				p.recordRequest(false, inputTokens, outputTokens, 0)
				out <- &StreamChunk{Type: ChunkError, Err: p.wrapError(err)}
				return
			}
			if resp.Usage != nil {
				inputTokens = resp.Usage.PromptTokens
				outputTokens = resp.Usage.CompletionTokens
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta

			if delta.Content != "" {
				out <- &StreamChunk{Type: ChunkTextDelta, TextDelta: delta.Content}
			}

			for _, tc := range delta.ToolCalls {
				idx := 0
				if tc.Index != nil {
					idx = *tc.Index
				}
				if toolCalls[idx] == nil {
					toolCalls[idx] = &models.ToolCall{}
				}
				if tc.ID != "" {
					toolCalls[idx].ID = tc.ID
				}
				if tc.Function.Name != "" {
					toolCalls[idx].Function.Name = tc.Function.Name
				}
				if tc.Function.Arguments != "" {
					toolCalls[idx].Function.Arguments = append(toolCalls[idx].Function.Arguments, tc.Function.Arguments...)
				}
				out <- &StreamChunk{Type: ChunkToolCallDelta, ToolCall: toolCalls[idx]}
			}

			if resp.Choices[0].FinishReason == openai.FinishReasonToolCalls {
				for _, tc := range toolCalls {
					if tc.ID != "" && tc.Function.Name != "" {
						out <- &StreamChunk{Type: ChunkToolCallComplete, ToolCall: tc}
					}
				}
				toolCalls = make(map[int]*models.ToolCall)
			}
		}
	}()

	return out, nil
}

func (p *OpenAIProvider) estimateCost(model string, inputTokens, outputTokens int) float64 {
	price, ok := openaiPricePerMillion[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1_000_000*price[0] + float64(outputTokens)/1_000_000*price[1]
}

func (p *OpenAIProvider) wrapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*engerrors.ProviderError); ok {
		return err
	}
	code := engerrors.ClassifyProviderError(err)
	return &engerrors.ProviderError{Provider: "openai", Code: code, Message: err.Error(), Cause: err}
}

func convertMessagesOpenAI(messages []models.Message, system string) ([]openai.ChatCompletionMessage, error) {
	result := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}

	for _, msg := range messages {
		switch msg.Role {
		case models.RoleTool:
			result = append(result, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		case models.RoleAssistant:
			oaiMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Content}
			if len(msg.ToolCalls) > 0 {
				oaiMsg.ToolCalls = make([]openai.ToolCall, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					oaiMsg.ToolCalls[i] = openai.ToolCall{
						ID:   tc.ID,
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      tc.Function.Name,
							Arguments: string(tc.Function.Arguments),
						},
					}
				}
			}
			result = append(result, oaiMsg)
		case models.RoleSystem:
			result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: msg.Content})
		default:
			result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: msg.Content})
		}
	}

	return result, nil
}

func convertToolsOpenAI(tools []ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		var schema map[string]any
		if err := json.Unmarshal(t.Schema, &schema); err != nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schema,
			},
		}
	}
	return result
}
