package orchestrator

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/browzer-labs/browzer-agent/internal/memory"
	"github.com/browzer-labs/browzer-agent/pkg/models"
)

const (
	preferenceImportance = 0.8
	toolUsageImportance  = 0.6
)

var preferencePattern = regexp.MustCompile(`(?i)\bi (like|prefer)\b`)

// distillMemories turns every user message matching "i like|i prefer" into
// its own preference memory, and the set of tool names whose calls
// succeeded this turn into a single tool-usage memory.
func distillMemories(store *memory.Store, sessionID string, turnMessages []models.Message, successfulTools []string) {
	for _, m := range turnMessages {
		if m.Role != models.RoleUser {
			continue
		}
		if !preferencePattern.MatchString(m.Content) {
			continue
		}
		store.AddMemory(sessionID, models.MemoryEntry{
			ID:         uuid.NewString(),
			SessionID:  sessionID,
			Type:       models.MemoryPreference,
			Content:    strings.TrimSpace(m.Content),
			Source:     "user_message",
			Importance: preferenceImportance,
			Timestamp:  time.Now(),
		})
	}

	if len(successfulTools) == 0 {
		return
	}
	seen := make(map[string]bool, len(successfulTools))
	unique := make([]string, 0, len(successfulTools))
	for _, name := range successfulTools {
		if !seen[name] {
			seen[name] = true
			unique = append(unique, name)
		}
	}
	store.AddMemory(sessionID, models.MemoryEntry{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Type:       models.MemoryToolUsage,
		Content:    "Tools used successfully this turn: " + strings.Join(unique, ", "),
		Source:     "tool_execution",
		Importance: toolUsageImportance,
		Timestamp:  time.Now(),
	})
}
