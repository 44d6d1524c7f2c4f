package react

import (
	"context"
	"encoding/json"
	"time"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// act executes the Think phase's decided action. For an ActionToolCall it
// dispatches via the Tool Registry and appends a role-tool result message;
// for an ActionRetry (no tool call was made) it synthesizes a failed
// ToolResult and appends a corrective user message. Returns the resulting
// ToolResult and whether it counts as a failure for the consecutive-failure
// abort rule.
func (e *Engine) act(ctx context.Context, execCtx *models.ExecutionContext, action models.AgentAction) (*models.ToolResult, bool) {
	switch action.Type {
	case models.ActionToolCall:
		return e.actToolCall(ctx, execCtx, action)
	case models.ActionRetry:
		return e.actRetry(execCtx, action)
	default:
		return nil, false
	}
}

func (e *Engine) actToolCall(ctx context.Context, execCtx *models.ExecutionContext, action models.AgentAction) (*models.ToolResult, bool) {
	call := action.ToolCall
	if call == nil || e.registry == nil {
		result := &models.ToolResult{Success: false, Error: "no tool call to execute"}
		appendToolResultMessage(execCtx, "", result)
		return result, true
	}

	result, err := e.registry.ExecuteTool(ctx, call.Function.Name, call.Function.Arguments)
	if err != nil {
		result = &models.ToolResult{Success: false, Error: err.Error()}
	}
	if result == nil {
		result = &models.ToolResult{Success: false, Error: "tool returned no result"}
	}

	appendToolResultMessage(execCtx, call.ID, result)
	return result, !result.Success
}

func (e *Engine) actRetry(execCtx *models.ExecutionContext, action models.AgentAction) (*models.ToolResult, bool) {
	result := &models.ToolResult{
		Success: false,
		Message: "You did not call any tool. You must call exactly one tool per turn to make progress.",
	}
	execCtx.Messages = append(execCtx.Messages, models.Message{
		ID:        newID(),
		SessionID: execCtx.SessionID,
		Role:      models.RoleUser,
		Content:   "You did not call any tool. Call exactly one tool to continue making progress on the goal.",
		CreatedAt: time.Now(),
	})
	return result, true
}

func appendToolResultMessage(execCtx *models.ExecutionContext, toolCallID string, result *models.ToolResult) {
	payload, _ := json.Marshal(result)
	execCtx.Messages = append(execCtx.Messages, models.Message{
		ID:         newID(),
		SessionID:  execCtx.SessionID,
		Role:       models.RoleTool,
		Content:    string(payload),
		ToolCallID: toolCallID,
		CreatedAt:  time.Now(),
	})
}
