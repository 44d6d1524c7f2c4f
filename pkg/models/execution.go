package models

import "time"

// ExecutionState is a node in the Execution Context's state machine.
type ExecutionState string

const (
	StateIdle      ExecutionState = "idle"
	StateThinking  ExecutionState = "thinking"
	StatePlanning  ExecutionState = "planning"
	StateExecuting ExecutionState = "executing"
	StateObserving ExecutionState = "observing"
	StateWaiting   ExecutionState = "waiting"
	StateCompleted ExecutionState = "completed"
	StateFailed    ExecutionState = "failed"
	StatePaused    ExecutionState = "paused"
)

// ExecutionMode controls how much autonomy the ReAct engine is given before
// a tool call requires explicit user approval.
type ExecutionMode string

const (
	ModeAutonomous     ExecutionMode = "autonomous"
	ModeSemiSupervised ExecutionMode = "semi-supervised"
	ModeSupervised     ExecutionMode = "supervised"
)

// AgentActionType is the kind of action an iteration's Think phase decided
// on.
type AgentActionType string

const (
	ActionToolCall     AgentActionType = "tool_call"
	ActionAskUser      AgentActionType = "ask_user"
	ActionCompleteTask AgentActionType = "complete_task"
	ActionRetry        AgentActionType = "retry"
	ActionAbort        AgentActionType = "abort"
)

// AgentThought is the reasoning artifact produced by one iteration's Think
// phase.
type AgentThought struct {
	ID        string    `json:"id"`
	Iteration int       `json:"iteration"`
	Reasoning string    `json:"reasoning"`
	CreatedAt time.Time `json:"created_at"`
}

// AgentAction is the decision an iteration's Think phase handed to Act.
type AgentAction struct {
	ID        string          `json:"id"`
	Iteration int             `json:"iteration"`
	Type      AgentActionType `json:"type"`
	ToolCall  *ToolCall       `json:"tool_call,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AgentObservation is what the Act/Reflect phases learned from executing an
// AgentAction, or the fresh browser state gathered by Observe.
type AgentObservation struct {
	ID        string    `json:"id"`
	Iteration int       `json:"iteration"`
	Summary   string    `json:"summary"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}

// ReActIteration is the full record of a single Observe/Think/Act/Reflect
// cycle.
type ReActIteration struct {
	Iteration      int              `json:"iteration"`
	Observation    AgentObservation `json:"observation"`
	BrowserContext *BrowserContext  `json:"browser_context,omitempty"`
	Thought        AgentThought     `json:"thought"`
	Reasoning      string           `json:"reasoning"`
	Action         AgentAction      `json:"action"`
	ActionResult   *ToolResult      `json:"action_result,omitempty"`
	TokensUsed     int              `json:"tokens_used"`
	Timestamp      time.Time        `json:"timestamp"`
}

// ExecutionContext is the per-session mutable state the ReAct Engine and
// Agent Orchestrator operate on. One exists per active task.
type ExecutionContext struct {
	SessionID            string           `json:"session_id"`
	TabID                string           `json:"tab_id"`
	State                ExecutionState   `json:"state"`
	Mode                 ExecutionMode    `json:"mode"`
	CurrentGoal          string           `json:"current_goal,omitempty"`
	Messages             []Message        `json:"messages"`
	ExecutedSteps        []ReActIteration `json:"executed_steps"`
	StartTime            time.Time        `json:"start_time"`
	LastUpdateTime       time.Time        `json:"last_update_time"`
	ExecutionCount       int              `json:"execution_count"`
	MaxExecutionSteps    int              `json:"max_execution_steps"`
	MaxThinkingTime      time.Duration    `json:"max_thinking_time"`
	RequiresUserApproval bool             `json:"requires_user_approval"`
	BrowserContext       *BrowserContext  `json:"browser_context,omitempty"`
}

// AgentExecutionResult is the terminal outcome an Orchestrator's
// executeTask call returns to its caller.
type AgentExecutionResult struct {
	Success    bool             `json:"success"`
	FinalState ExecutionState   `json:"final_state"`
	Summary    string           `json:"summary,omitempty"`
	Error      string           `json:"error,omitempty"`
	Iterations []ReActIteration `json:"iterations"`
	TokensUsed int              `json:"tokens_used"`
	Cost       float64          `json:"cost"`
	Duration   time.Duration    `json:"duration"`
}
