// Package chatsession implements the Chat Session Manager: a per-tab,
// append-only message log with recorded turns and running statistics.
// A sync.RWMutex-guarded map backs the store, with clone-on-read/
// clone-on-write discipline so callers can never mutate stored state
// through a returned pointer.
package chatsession

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// maxMessagesPerSession bounds in-memory growth, trimming the oldest
// messages once exceeded.
const maxMessagesPerSession = 1000

const titleMaxLen = 50

// PersistFunc is an optional hook invoked after every AppendMessage. The
// on-disk layout is out of scope; Manager only guarantees the hook sees the
// post-append state. RecordToolOutcome, RecordUsage and SetCurrentContext
// change the session without invoking the hook.
type PersistFunc func(session *models.ChatSession)

// Manager owns every ChatSession for the process, keyed by both tab id and
// session id.
type Manager struct {
	mu        sync.RWMutex
	byID      map[string]*models.ChatSession
	byTab     map[string]string // tabID -> sessionID
	onPersist PersistFunc
}

// NewManager constructs an empty Manager. onPersist may be nil.
func NewManager(onPersist PersistFunc) *Manager {
	return &Manager{
		byID:      make(map[string]*models.ChatSession),
		byTab:     make(map[string]string),
		onPersist: onPersist,
	}
}

// GetOrCreate returns the session bound to tabID, creating one if absent.
func (m *Manager) GetOrCreate(ctx context.Context, tabID, userID string) *models.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byTab[tabID]; ok {
		if s, ok := m.byID[id]; ok {
			return cloneSession(s)
		}
	}

	now := time.Now()
	session := &models.ChatSession{
		ID:            uuid.NewString(),
		TabID:         tabID,
		UserID:        userID,
		CreatedAt:     now,
		LastMessageAt: now,
	}
	m.byID[session.ID] = session
	m.byTab[tabID] = session.ID
	return cloneSession(session)
}

// Get returns the session by id.
func (m *Manager) Get(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[sessionID]
	if !ok {
		return nil, errors.New("chat session not found")
	}
	return cloneSession(s), nil
}

// AppendMessage appends msg to sessionID's log, assigning an id/timestamp
// if absent, updating lastMessageAt, recording a title on the first user
// message, and tracking turns: a user message opens a new Turn, the next
// assistant message closes it. Tool-result messages (role "tool") must
// carry ToolCallID.
func (m *Manager) AppendMessage(ctx context.Context, sessionID string, msg models.Message) (*models.Message, error) {
	if msg.Role == models.RoleTool && msg.ToolCallID == "" {
		return nil, errors.New("tool result message requires a tool_call_id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.byID[sessionID]
	if !ok {
		return nil, errors.New("chat session not found")
	}

	clone := cloneMessage(&msg)
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	clone.SessionID = sessionID
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}

	session.Messages = append(session.Messages, *clone)
	if len(session.Messages) > maxMessagesPerSession {
		excess := len(session.Messages) - maxMessagesPerSession
		session.Messages = session.Messages[excess:]
	}
	session.LastMessageAt = clone.CreatedAt
	session.Stats.TotalMessages++
	if len(clone.ToolCalls) > 0 {
		session.Stats.TotalToolCalls += len(clone.ToolCalls)
	}

	if session.Title == "" && clone.Role == models.RoleUser {
		session.Title = generateTitle(clone.Content)
	}

	trackTurn(session, *clone)

	if m.onPersist != nil {
		m.onPersist(cloneSession(session))
	}
	return clone, nil
}

// trackTurn opens a new Turn on a user message and closes the most recent
// open turn on the following assistant reply.
func trackTurn(session *models.ChatSession, msg models.Message) {
	switch msg.Role {
	case models.RoleUser:
		session.Turns = append(session.Turns, models.Turn{
			ID:        uuid.NewString(),
			UserMsgID: msg.ID,
			StartedAt: msg.CreatedAt,
		})
	case models.RoleAssistant:
		for i := len(session.Turns) - 1; i >= 0; i-- {
			if session.Turns[i].ReplyMsgID == "" {
				session.Turns[i].ReplyMsgID = msg.ID
				session.Turns[i].EndedAt = msg.CreatedAt
				return
			}
		}
	}
}

// RecordToolOutcome updates the session's success/failure tool counters.
// Called once per tool execution regardless of whether its result message
// has been appended yet.
func (m *Manager) RecordToolOutcome(ctx context.Context, sessionID string, success bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.byID[sessionID]
	if !ok {
		return errors.New("chat session not found")
	}
	if success {
		session.Stats.SuccessfulActions++
	} else {
		session.Stats.FailedActions++
	}
	return nil
}

// RecordUsage accumulates token and cost counters onto the session stats.
func (m *Manager) RecordUsage(ctx context.Context, sessionID string, tokensUsed int, cost float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.byID[sessionID]
	if !ok {
		return errors.New("chat session not found")
	}
	session.Stats.TotalTokensUsed += tokensUsed
	session.Stats.TotalCost += cost
	session.LastMessageAt = time.Now()
	return nil
}

// SetCurrentContext stores the latest BrowserContext snapshot on the
// session, surfaced to callers that want "what did the agent last see".
func (m *Manager) SetCurrentContext(ctx context.Context, sessionID string, browserCtx *models.BrowserContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.byID[sessionID]
	if !ok {
		return errors.New("chat session not found")
	}
	session.CurrentContext = browserCtx
	return nil
}

// generateTitle synthesizes a short session title from the first user
// message: the first line, collapsed whitespace, truncated to 50 chars
// with an ellipsis if cut.
func generateTitle(content string) string {
	line := strings.TrimSpace(content)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.Join(strings.Fields(line), " ")
	if line == "" {
		return "New conversation"
	}
	runes := []rune(line)
	if len(runes) <= titleMaxLen {
		return line
	}
	return strings.TrimSpace(string(runes[:titleMaxLen-1])) + "…"
}

func cloneSession(s *models.ChatSession) *models.ChatSession {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Messages = append([]models.Message(nil), s.Messages...)
	clone.Turns = append([]models.Turn(nil), s.Turns...)
	return &clone
}

func cloneMessage(msg *models.Message) *models.Message {
	clone := *msg
	if msg.Metadata != nil {
		clone.Metadata = deepCloneMap(msg.Metadata)
	}
	if len(msg.ToolCalls) > 0 {
		clone.ToolCalls = append([]models.ToolCall(nil), msg.ToolCalls...)
	}
	if len(msg.Parts) > 0 {
		clone.Parts = append([]models.ContentPart(nil), msg.Parts...)
	}
	return &clone
}

func deepCloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	clone := make(map[string]any, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}
