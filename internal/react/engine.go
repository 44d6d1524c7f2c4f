// Package react implements the ReAct Engine: the bounded
// Observe/Think/Act/Reflect/Record state machine that drives one task to
// completion or failure. Each iteration is phase-tagged, bounded by
// MaxExecutionSteps, publishes typed events to a caller-supplied EventSink,
// and appends the assistant turn and tool results to the execution
// context's messages as it goes, with its own completion
// classifier and consecutive-failure abort rule.
package react

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/browzer-labs/browzer-agent/internal/llm"
	"github.com/browzer-labs/browzer-agent/internal/observability"
	"github.com/browzer-labs/browzer-agent/internal/toolregistry"
	"github.com/browzer-labs/browzer-agent/pkg/models"
)

const defaultMaxIterations = 10
const defaultTemperature = 0.2
const defaultMaxTokens = 4096
const maxConsecutiveFailures = 3
const defaultMaxThinkingTime = 300 * time.Second

// completionKeywords classify a tool-call-free assistant reply as a
// finished task.
var completionKeywords = []string{
	"task complete",
	"completed successfully",
	"finished",
	"done",
	"i cannot",
	"unable to",
	"impossible",
}

// ContextProvider is the minimal Browser Context Provider surface the
// engine's Observe step needs.
type ContextProvider interface {
	GetContext(ctx context.Context, opts ContextOptions) *models.BrowserContext
}

// ContextOptions mirrors internal/browsercontext.Options' fields this
// package actually sets, avoiding an import-cycle-prone direct dependency
// on that package's concrete Options type.
type ContextOptions struct {
	IncludePrunedDOM   bool
	IncludeConsoleLogs bool
	MaxElements        int
	MaxConsoleEntries  int
}

// EventSink receives every event the engine publishes during a run.
type EventSink func(models.ReActEvent)

// Config tunes one Engine instance.
type Config struct {
	EnableReflection bool
	MaxThinkingTime  time.Duration
}

// Engine runs the Observe/Think/Act/Reflect/Record cycle against a single
// ExecutionContext until it completes, fails, or exhausts its iteration
// budget.
type Engine struct {
	provider llm.Provider
	registry *toolregistry.Registry
	ctxProv  ContextProvider
	log      *observability.Logger
	cfg      Config
}

// New constructs an Engine.
func New(provider llm.Provider, registry *toolregistry.Registry, ctxProv ContextProvider, log *observability.Logger, cfg Config) *Engine {
	if cfg.MaxThinkingTime <= 0 {
		cfg.MaxThinkingTime = defaultMaxThinkingTime
	}
	return &Engine{provider: provider, registry: registry, ctxProv: ctxProv, log: log, cfg: cfg}
}

// Run drives execCtx's state machine to a terminal state and returns the
// outcome. execCtx.CurrentGoal must already be set; execCtx.Messages seeds
// the conversation (the Orchestrator is responsible for any recording
// context or compression applied before calling in).
func (e *Engine) Run(ctx context.Context, execCtx *models.ExecutionContext, emit EventSink) *models.AgentExecutionResult {
	if emit == nil {
		emit = func(models.ReActEvent) {}
	}

	start := time.Now()
	maxSteps := execCtx.MaxExecutionSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxIterations
	}

	thinkCtx, cancel := context.WithTimeout(ctx, e.cfg.MaxThinkingTime)
	defer cancel()

	execCtx.State = models.StateIdle
	transition(execCtx, models.StateIdle, emit)

	var tokensUsed int
	var finalResponse string
	var finalSuccess bool
	var finalState models.ExecutionState
	consecutiveFailures := 0

	for iteration := 1; iteration <= maxSteps; iteration++ {
		execCtx.ExecutionCount = iteration

		select {
		case <-thinkCtx.Done():
			finalState = models.StateFailed
			finalResponse = "Task did not complete within the thinking time budget"
			execCtx.State = finalState
			emit(models.NewReActEvent(models.EventError, execCtx.SessionID, finalResponse))
			return e.finish(execCtx, false, finalState, finalResponse, tokensUsed, start)
		default:
		}

		transition(execCtx, models.StateObserving, emit)
		observation, browserCtx := e.observe(thinkCtx, execCtx, iteration)
		emit(models.NewReActEvent(models.EventObservation, execCtx.SessionID, observation))

		transition(execCtx, models.StateThinking, emit)
		thought, action, completionResp, isComplete, thinkTokens, err := e.think(thinkCtx, execCtx, iteration, observation)
		tokensUsed += thinkTokens
		if err != nil {
			if iteration > 3 {
				finalState = models.StateFailed
				finalResponse = err.Error()
				execCtx.State = finalState
				emit(models.NewReActEvent(models.EventError, execCtx.SessionID, finalResponse))
				return e.finish(execCtx, false, finalState, finalResponse, tokensUsed, start)
			}
			consecutiveFailures++
			e.recordIteration(execCtx, iteration, observation, browserCtx, thought, action, nil, tokensUsed)
			if consecutiveFailures >= maxConsecutiveFailures {
				break
			}
			continue
		}
		emit(models.NewReActEvent(models.EventThought, execCtx.SessionID, thought.Reasoning))

		if isComplete {
			finalState = models.StateCompleted
			finalSuccess = true
			finalResponse = completionResp
			e.recordIteration(execCtx, iteration, observation, browserCtx, thought, action, nil, tokensUsed)
			execCtx.State = finalState
			emit(models.NewReActEvent(models.EventComplete, execCtx.SessionID, finalResponse))
			return e.finish(execCtx, finalSuccess, finalState, finalResponse, tokensUsed, start)
		}

		transition(execCtx, models.StateExecuting, emit)
		actionResult, actionFailed := e.act(thinkCtx, execCtx, action)
		emit(models.NewReActEvent(models.EventAction, execCtx.SessionID, action))

		if actionFailed {
			consecutiveFailures++
		} else {
			consecutiveFailures = 0
		}

		if e.cfg.EnableReflection && actionFailed {
			reflection := reflectOn(actionResult)
			emit(models.NewReActEvent(models.EventThought, execCtx.SessionID, reflection))
		}

		e.recordIteration(execCtx, iteration, observation, browserCtx, thought, action, actionResult, tokensUsed)

		if consecutiveFailures >= maxConsecutiveFailures {
			break
		}
	}

	if consecutiveFailures >= maxConsecutiveFailures {
		finalState = models.StateFailed
		finalResponse = "Task failed due to repeated errors"
	} else {
		finalState = models.StateFailed
		finalResponse = "Task did not complete within iteration limit"
	}
	execCtx.State = finalState
	emit(models.NewReActEvent(models.EventError, execCtx.SessionID, finalResponse))
	return e.finish(execCtx, false, finalState, finalResponse, tokensUsed, start)
}

func transition(execCtx *models.ExecutionContext, state models.ExecutionState, emit EventSink) {
	execCtx.State = state
	execCtx.LastUpdateTime = time.Now()
	emit(models.NewReActEvent(models.EventStateChange, execCtx.SessionID, state))
}

func (e *Engine) finish(execCtx *models.ExecutionContext, success bool, state models.ExecutionState, response string, tokensUsed int, start time.Time) *models.AgentExecutionResult {
	return &models.AgentExecutionResult{
		Success:    success,
		FinalState: state,
		Summary:    response,
		Iterations: execCtx.ExecutedSteps,
		TokensUsed: tokensUsed,
		Duration:   time.Since(start),
	}
}

func (e *Engine) recordIteration(execCtx *models.ExecutionContext, iteration int, obs models.AgentObservation, browserCtx *models.BrowserContext, thought models.AgentThought, action models.AgentAction, result *models.ToolResult, tokensUsed int) {
	execCtx.ExecutedSteps = append(execCtx.ExecutedSteps, models.ReActIteration{
		Iteration:      iteration,
		Observation:    obs,
		BrowserContext: browserCtx,
		Thought:        thought,
		Reasoning:      thought.Reasoning,
		Action:         action,
		ActionResult:   result,
		TokensUsed:     tokensUsed,
		Timestamp:      time.Now(),
	})
}

// classifyCompletion reports whether text signals the task is finished,
// matching the completion keyword list case-insensitively as a substring.
func classifyCompletion(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range completionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func reflectOn(result *models.ToolResult) string {
	errMsg := "unknown error"
	if result != nil && result.Error != "" {
		errMsg = result.Error
	} else if result != nil && result.Message != "" {
		errMsg = result.Message
	}
	return fmt.Sprintf("The action failed with error %s; I should try a different approach", errMsg)
}

func newID() string { return uuid.NewString() }
