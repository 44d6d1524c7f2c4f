package react

import (
	"context"
	"time"

	"github.com/browzer-labs/browzer-agent/internal/llm"
	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// think appends the observation (and, on iteration 1, the original goal) as
// user messages, calls the LLM with the system prompt and tool schemas, and
// turns its reply into a Thought plus the Action the next phase should
// take.
func (e *Engine) think(ctx context.Context, execCtx *models.ExecutionContext, iteration int, observation models.AgentObservation) (thought models.AgentThought, action models.AgentAction, completionResp string, isComplete bool, tokensUsed int, err error) {
	if iteration == 1 {
		execCtx.Messages = append(execCtx.Messages, models.Message{
			ID:        newID(),
			SessionID: execCtx.SessionID,
			Role:      models.RoleUser,
			Content:   execCtx.CurrentGoal,
			CreatedAt: time.Now(),
		})
	}

	execCtx.Messages = append(execCtx.Messages, models.Message{
		ID:        newID(),
		SessionID: execCtx.SessionID,
		Role:      models.RoleUser,
		Content:   "Current page observation:\n" + observation.Summary,
		CreatedAt: time.Now(),
	})

	var tools []llm.ToolDefinition
	if e.registry != nil {
		tools = e.registry.GetToolsAsMCP()
	}

	req := &llm.CompletionRequest{
		System:      buildSystemPrompt(execCtx, tools),
		Messages:    execCtx.Messages,
		Tools:       tools,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}

	resp, genErr := e.provider.GenerateCompletion(ctx, req)
	if genErr != nil {
		return models.AgentThought{}, models.AgentAction{}, "", false, 0, genErr
	}
	tokensUsed = resp.InputTokens + resp.OutputTokens

	thought = models.AgentThought{
		ID:        newID(),
		Iteration: iteration,
		Reasoning: resp.Text,
		CreatedAt: time.Now(),
	}

	assistantMsg := models.Message{
		ID:        newID(),
		SessionID: execCtx.SessionID,
		Role:      models.RoleAssistant,
		Content:   resp.Text,
		ToolCalls: resp.ToolCalls,
		CreatedAt: time.Now(),
	}
	execCtx.Messages = append(execCtx.Messages, assistantMsg)

	if len(resp.ToolCalls) > 0 {
		call := resp.ToolCalls[0]
		action = models.AgentAction{
			ID:        newID(),
			Iteration: iteration,
			Type:      models.ActionToolCall,
			ToolCall:  &call,
			CreatedAt: time.Now(),
		}
		return thought, action, "", false, tokensUsed, nil
	}

	if classifyCompletion(resp.Text) {
		action = models.AgentAction{
			ID:        newID(),
			Iteration: iteration,
			Type:      models.ActionCompleteTask,
			Reason:    resp.Text,
			CreatedAt: time.Now(),
		}
		return thought, action, resp.Text, true, tokensUsed, nil
	}

	action = models.AgentAction{
		ID:        newID(),
		Iteration: iteration,
		Type:      models.ActionRetry,
		Reason:    "no tool call in response",
		CreatedAt: time.Now(),
	}
	return thought, action, "", false, tokensUsed, nil
}
