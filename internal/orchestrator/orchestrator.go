// Package orchestrator implements the Agent Orchestrator: the single
// executeTask entrypoint that wires the Chat Session Manager, Context
// Memory Manager, Tool Registry, and ReAct Engine into one per-task
// workflow.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/browzer-labs/browzer-agent/internal/browsercontext"
	"github.com/browzer-labs/browzer-agent/internal/chatsession"
	"github.com/browzer-labs/browzer-agent/internal/config"
	engerrors "github.com/browzer-labs/browzer-agent/internal/errors"
	"github.com/browzer-labs/browzer-agent/internal/memory"
	"github.com/browzer-labs/browzer-agent/internal/observability"
	"github.com/browzer-labs/browzer-agent/internal/react"
	"github.com/browzer-labs/browzer-agent/internal/toolregistry"
	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// TaskOptions is ExecuteTask's options bag.
type TaskOptions struct {
	SessionID         string
	UserID            string
	Mode              models.ExecutionMode
	RecordingContext  []models.RecordedAction
	StreamingCallback react.EventSink
}

// GlobalStats is a process-wide snapshot surfaced by getGlobalStats.
type GlobalStats struct {
	ActiveExecutions int
	TasksExecuted    int
	TotalTokensUsed  int
	TotalCost        float64
}

// Orchestrator owns every live Execution Context and wires one task's
// worth of work through the Chat Session Manager, Context Memory Manager,
// Tool Registry, and ReAct Engine.
type Orchestrator struct {
	cfg        config.OrchestratorConfig
	llmCfg     config.LLMConfig
	providers  *ProviderRegistry
	registry   *toolregistry.Registry
	chatMgr    *chatsession.Manager
	memMgr     *memory.Manager
	log        *observability.Logger

	mu         sync.Mutex
	executions map[string]*models.ExecutionContext
	ctxProvs   map[string]*browsercontext.Provider // tabID -> context provider
	stats      GlobalStats
}

// New constructs an Orchestrator.
func New(cfg config.OrchestratorConfig, llmCfg config.LLMConfig, providers *ProviderRegistry, registry *toolregistry.Registry, chatMgr *chatsession.Manager, memMgr *memory.Manager, log *observability.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		llmCfg:     llmCfg,
		providers:  providers,
		registry:   registry,
		chatMgr:    chatMgr,
		memMgr:     memMgr,
		log:        log,
		executions: make(map[string]*models.ExecutionContext),
		ctxProvs:   make(map[string]*browsercontext.Provider),
	}
}

// RegisterContextProvider binds tabID to the Browser Context Provider that
// owns its CDP session, so ExecuteTask can observe that tab's page state.
func (o *Orchestrator) RegisterContextProvider(tabID string, prov *browsercontext.Provider) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ctxProvs[tabID] = prov
}

// ExecuteTask is the Orchestrator's single public entrypoint.
func (o *Orchestrator) ExecuteTask(ctx context.Context, userMessage, tabID string, opts TaskOptions) *models.AgentExecutionResult {
	start := time.Now()

	// Step 1: get or create the chat session, append the user message.
	session := o.chatMgr.GetOrCreate(ctx, tabID, opts.UserID)
	userMsg := models.Message{
		Role:      models.RoleUser,
		Content:   userMessage,
		CreatedAt: time.Now(),
	}
	if _, err := o.chatMgr.AppendMessage(ctx, session.ID, userMsg); err != nil {
		return o.fail(session.ID, err)
	}

	// Step 2: get or create the execution context for this session.
	execCtx := o.getOrCreateExecution(session, opts)
	execCtx.CurrentGoal = userMessage
	execCtx.State = models.StateThinking

	// Step 3: prepend recording-context reference workflow, if supplied.
	if len(opts.RecordingContext) > 0 {
		if summary := formatRecordingContext(opts.RecordingContext); summary != "" {
			execCtx.Messages = append(execCtx.Messages, models.Message{
				ID:        uuid.NewString(),
				SessionID: session.ID,
				Role:      models.RoleUser,
				Content:   summary,
				CreatedAt: time.Now(),
			})
		}
	}

	execCtx.Messages = append(execCtx.Messages, userMsg)

	// Step 4: compress the running message set if enabled.
	if o.cfg.ContextCompressionEnabled && o.memMgr != nil {
		ctxProv := o.lookupContextProvider(tabID)
		lw := lightweightContext(ctx, ctxProv)
		result := o.memMgr.OptimizeMessages(execCtx.Messages, "", lw, nil, o.cfg.MaxContextTokens)
		execCtx.Messages = result.OptimizedMessages
	}

	// Select the provider and build a ReAct Engine for this task.
	provider, err := o.providers.SelectWithFallback(ctx, o.llmCfg.DefaultModel, o.llmCfg.FallbackModel)
	if err != nil {
		execCtx.State = models.StateFailed
		return o.fail(session.ID, err)
	}

	engine := react.New(provider, o.registry, o.contextProviderFor(tabID), o.log, react.Config{
		EnableReflection: o.cfg.EnableReflection,
		MaxThinkingTime:  o.cfg.MaxThinkingTime,
	})

	statsBefore := provider.Stats()

	// Step 5: delegate to the ReAct Engine.
	result := engine.Run(ctx, execCtx, opts.StreamingCallback)

	statsAfter := provider.Stats()
	turnCost := statsAfter.TotalCostUSD - statsBefore.TotalCostUSD
	result.Cost = turnCost
	result.Duration = time.Since(start)

	// Step 6: append the assistant/tool messages accumulated this turn and
	// update session stats.
	o.appendTurnMessages(ctx, session.ID, execCtx, userMsg)
	if err := o.chatMgr.RecordUsage(ctx, session.ID, result.TokensUsed, turnCost); err != nil {
		o.log.Warn(ctx, "failed to record session usage", "error", err)
	}
	successfulTools := o.recordToolOutcomes(ctx, session.ID, result.Iterations)

	// Step 7: distill memories.
	if o.cfg.EnableMemory && o.memMgr != nil {
		distillMemories(o.memMgr.Store(), session.ID, execCtx.Messages, successfulTools)
	}

	// Step 8: finalize state.
	if result.Success {
		execCtx.State = models.StateCompleted
	} else {
		execCtx.State = models.StateFailed
	}

	o.mu.Lock()
	o.stats.TasksExecuted++
	o.stats.TotalTokensUsed += result.TokensUsed
	o.stats.TotalCost += turnCost
	o.mu.Unlock()

	return result
}

func (o *Orchestrator) getOrCreateExecution(session *models.ChatSession, opts TaskOptions) *models.ExecutionContext {
	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.executions[session.ID]; ok {
		return existing
	}

	mode := opts.Mode
	if mode == "" {
		mode = models.ExecutionMode(o.cfg.Mode)
	}
	maxSteps := o.cfg.MaxExecutionSteps
	if maxSteps <= 0 {
		maxSteps = 20
	}

	execCtx := &models.ExecutionContext{
		SessionID:         session.ID,
		TabID:             session.TabID,
		State:             models.StateIdle,
		Mode:              mode,
		MaxExecutionSteps: maxSteps,
		MaxThinkingTime:   o.cfg.MaxThinkingTime,
		StartTime:         time.Now(),
	}
	o.executions[session.ID] = execCtx
	return execCtx
}

func (o *Orchestrator) lookupContextProvider(tabID string) *browsercontext.Provider {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ctxProvs[tabID]
}

func (o *Orchestrator) contextProviderFor(tabID string) react.ContextProvider {
	prov := o.lookupContextProvider(tabID)
	if prov == nil {
		return nil
	}
	return newContextProviderAdapter(prov)
}

// appendTurnMessages replays execCtx.Messages onto the chat session,
// skipping everything already present (the user message appended in step 1
// and any recording-context message, which predate the engine run) so only
// the assistant reply and tool results the engine produced this turn are
// appended. A session's message log after a turn is the before-turn log
// plus exactly the user message, the assistant reply, and any tool-result
// messages, in that order.
func (o *Orchestrator) appendTurnMessages(ctx context.Context, sessionID string, execCtx *models.ExecutionContext, userMsg models.Message) {
	startIdx := 0
	for i, m := range execCtx.Messages {
		if m.Role == models.RoleUser && m.Content == userMsg.Content {
			startIdx = i + 1
			break
		}
	}
	for _, m := range execCtx.Messages[startIdx:] {
		if m.Role == models.RoleUser {
			continue // corrective retry messages are engine-internal scratch, not session history
		}
		if _, err := o.chatMgr.AppendMessage(ctx, sessionID, m); err != nil {
			o.log.Warn(ctx, "failed to append turn message to session", "error", err)
		}
	}
}

func (o *Orchestrator) recordToolOutcomes(ctx context.Context, sessionID string, iterations []models.ReActIteration) []string {
	var successful []string
	for _, it := range iterations {
		if it.ActionResult == nil {
			continue
		}
		if err := o.chatMgr.RecordToolOutcome(ctx, sessionID, it.ActionResult.Success); err != nil {
			o.log.Warn(ctx, "failed to record tool outcome", "error", err)
		}
		if it.ActionResult.Success && it.Action.ToolCall != nil {
			successful = append(successful, it.Action.ToolCall.Function.Name)
		}
	}
	return successful
}

func (o *Orchestrator) fail(sessionID string, err error) *models.AgentExecutionResult {
	return &models.AgentExecutionResult{
		Success:    false,
		FinalState: models.StateFailed,
		Error:      err.Error(),
	}
}

// PauseExecution transitions a live execution to paused without touching
// the persisted chat session.
func (o *Orchestrator) PauseExecution(sessionID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	exec, ok := o.executions[sessionID]
	if !ok {
		return engerrors.ErrSessionNotFound
	}
	exec.State = models.StatePaused
	return nil
}

// ResumeExecution transitions a paused execution back to thinking.
func (o *Orchestrator) ResumeExecution(sessionID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	exec, ok := o.executions[sessionID]
	if !ok {
		return engerrors.ErrSessionNotFound
	}
	if exec.State != models.StatePaused {
		return fmt.Errorf("execution %s is not paused", sessionID)
	}
	exec.State = models.StateThinking
	return nil
}

// CancelExecution removes the execution context and marks it failed. The
// persisted chat session is untouched.
func (o *Orchestrator) CancelExecution(sessionID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	exec, ok := o.executions[sessionID]
	if !ok {
		return engerrors.ErrSessionNotFound
	}
	exec.State = models.StateFailed
	delete(o.executions, sessionID)
	return nil
}

// ClearAllExecutions drops every tracked execution context.
func (o *Orchestrator) ClearAllExecutions() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.executions = make(map[string]*models.ExecutionContext)
}

// GetSessionManager exposes the underlying Chat Session Manager.
func (o *Orchestrator) GetSessionManager() *chatsession.Manager { return o.chatMgr }

// GetMemoryManager exposes the underlying Context Memory Manager.
func (o *Orchestrator) GetMemoryManager() *memory.Manager { return o.memMgr }

// GetExecutionContext returns the live execution context for sessionID, if
// any is tracked.
func (o *Orchestrator) GetExecutionContext(sessionID string) (*models.ExecutionContext, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	exec, ok := o.executions[sessionID]
	return exec, ok
}

// GetGlobalStats returns a snapshot of process-wide orchestrator counters.
func (o *Orchestrator) GetGlobalStats() GlobalStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	stats := o.stats
	stats.ActiveExecutions = len(o.executions)
	return stats
}
