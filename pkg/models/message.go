package models

import (
	"encoding/json"
	"time"
)

// Role indicates the message author type.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ContentPart is one piece of a multi-part message (text or image), used for
// vision-capable providers.
type ContentPart struct {
	Type     string `json:"type"` // "text" | "image"
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Message is one turn in a chat session. Content carries plain text;
// Parts is populated instead when the message mixes text and image content.
type Message struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"session_id"`
	Role       Role           `json:"role"`
	Content    string         `json:"content,omitempty"`
	Parts      []ContentPart  `json:"parts,omitempty"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ToolCall represents an LLM's request to execute a tool.
type ToolCall struct {
	ID       string       `json:"id"`
	Function ToolCallFunc `json:"function"`
}

// ToolCallFunc is the function payload of a ToolCall.
type ToolCallFunc struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult is the output of a single tool execution.
type ToolResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// SessionStats tracks aggregate counters for a chat session.
type SessionStats struct {
	TotalMessages     int     `json:"total_messages"`
	TotalToolCalls    int     `json:"total_tool_calls"`
	TotalTokensUsed   int     `json:"total_tokens_used"`
	TotalCost         float64 `json:"total_cost"`
	SuccessfulActions int     `json:"successful_actions"`
	FailedActions     int     `json:"failed_actions"`
}

// Turn groups a user message with its assistant reply for analytics/UI.
type Turn struct {
	ID         string    `json:"id"`
	UserMsgID  string    `json:"user_msg_id"`
	ReplyMsgID string    `json:"reply_msg_id,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at,omitempty"`
}

// ChatSession is the authoritative, append-only per-tab conversation log.
// Only the Context Memory Manager may derive an optimized view from it; the
// optimized view is never written back here.
type ChatSession struct {
	ID             string          `json:"id"`
	TabID          string          `json:"tab_id"`
	UserID         string          `json:"user_id,omitempty"`
	Title          string          `json:"title,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	LastMessageAt  time.Time       `json:"last_message_at"`
	Messages       []Message       `json:"messages"`
	Turns          []Turn          `json:"turns"`
	Stats          SessionStats    `json:"stats"`
	CurrentContext *BrowserContext `json:"current_context,omitempty"`
}

// MemoryEntryType categorizes a stored memory fact.
type MemoryEntryType string

const (
	MemoryFact       MemoryEntryType = "fact"
	MemoryPreference MemoryEntryType = "preference"
	MemoryContext    MemoryEntryType = "context"
	MemoryToolUsage  MemoryEntryType = "tool_usage"
)

// MemoryEntry is one fact, preference, or derived note retained across turns
// for a session, scored for relevance on retrieval.
type MemoryEntry struct {
	ID             string          `json:"id"`
	SessionID      string          `json:"session_id"`
	Type           MemoryEntryType `json:"type"`
	Content        string          `json:"content"`
	Source         string          `json:"source"`
	Importance     float64         `json:"importance"`
	Timestamp      time.Time       `json:"timestamp"`
	AccessCount    int             `json:"access_count"`
	LastAccessedAt time.Time       `json:"last_accessed_at,omitempty"`
}
