package chatsession

import (
	"context"
	"strings"
	"testing"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

func TestManager_GetOrCreate_ReusesSessionForSameTab(t *testing.T) {
	mgr := NewManager(nil)
	ctx := context.Background()

	a := mgr.GetOrCreate(ctx, "tab-1", "user-1")
	b := mgr.GetOrCreate(ctx, "tab-1", "user-1")

	if a.ID != b.ID {
		t.Errorf("expected the same session id for repeated calls on tab-1, got %s and %s", a.ID, b.ID)
	}
}

func TestManager_AppendMessage_AppendOnlyInOrder(t *testing.T) {
	mgr := NewManager(nil)
	ctx := context.Background()
	session := mgr.GetOrCreate(ctx, "tab-1", "")

	before, err := mgr.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}

	if _, err := mgr.AppendMessage(ctx, session.ID, models.Message{Role: models.RoleUser, Content: "navigate to the docs page"}); err != nil {
		t.Fatalf("AppendMessage error: %v", err)
	}
	if _, err := mgr.AppendMessage(ctx, session.ID, models.Message{Role: models.RoleAssistant, Content: "done"}); err != nil {
		t.Fatalf("AppendMessage error: %v", err)
	}
	if _, err := mgr.AppendMessage(ctx, session.ID, models.Message{Role: models.RoleTool, Content: "{}", ToolCallID: "call-1"}); err != nil {
		t.Fatalf("AppendMessage error: %v", err)
	}

	after, err := mgr.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}

	if len(after.Messages) != len(before.Messages)+3 {
		t.Fatalf("messages len = %d, want %d", len(after.Messages), len(before.Messages)+3)
	}
	wantRoles := []models.Role{models.RoleUser, models.RoleAssistant, models.RoleTool}
	for i, role := range wantRoles {
		got := after.Messages[len(before.Messages)+i].Role
		if got != role {
			t.Errorf("message %d role = %s, want %s", i, got, role)
		}
	}
}

func TestManager_AppendMessage_ToolResultRequiresToolCallID(t *testing.T) {
	mgr := NewManager(nil)
	ctx := context.Background()
	session := mgr.GetOrCreate(ctx, "tab-1", "")

	_, err := mgr.AppendMessage(ctx, session.ID, models.Message{Role: models.RoleTool, Content: "{}"})
	if err == nil {
		t.Fatal("expected an error for a tool message missing ToolCallID")
	}
}

func TestManager_AppendMessage_SetsTitleFromFirstUserMessage(t *testing.T) {
	mgr := NewManager(nil)
	ctx := context.Background()
	session := mgr.GetOrCreate(ctx, "tab-1", "")

	mgr.AppendMessage(ctx, session.ID, models.Message{Role: models.RoleUser, Content: "please fill out the signup form and submit it for me"})

	got, _ := mgr.Get(ctx, session.ID)
	if got.Title == "" {
		t.Fatal("expected a generated title")
	}
	if len([]rune(got.Title)) > titleMaxLen {
		t.Errorf("title len = %d, want <= %d", len([]rune(got.Title)), titleMaxLen)
	}
}

func TestGenerateTitle_TruncatesWithEllipsis(t *testing.T) {
	long := strings.Repeat("a", 100)
	title := generateTitle(long)
	if len([]rune(title)) > titleMaxLen {
		t.Errorf("len = %d, want <= %d", len([]rune(title)), titleMaxLen)
	}
	if !strings.HasSuffix(title, "…") {
		t.Errorf("title = %q, want ellipsis suffix", title)
	}
}

func TestGenerateTitle_ShortContentUnchanged(t *testing.T) {
	title := generateTitle("hello there")
	if title != "hello there" {
		t.Errorf("title = %q, want %q", title, "hello there")
	}
}

func TestManager_AppendMessage_TracksTurns(t *testing.T) {
	mgr := NewManager(nil)
	ctx := context.Background()
	session := mgr.GetOrCreate(ctx, "tab-1", "")

	userMsg, _ := mgr.AppendMessage(ctx, session.ID, models.Message{Role: models.RoleUser, Content: "go to example.com"})
	replyMsg, _ := mgr.AppendMessage(ctx, session.ID, models.Message{Role: models.RoleAssistant, Content: "done"})

	got, _ := mgr.Get(ctx, session.ID)
	if len(got.Turns) != 1 {
		t.Fatalf("turns len = %d, want 1", len(got.Turns))
	}
	if got.Turns[0].UserMsgID != userMsg.ID || got.Turns[0].ReplyMsgID != replyMsg.ID {
		t.Errorf("turn = %+v, want user=%s reply=%s", got.Turns[0], userMsg.ID, replyMsg.ID)
	}
	if got.Turns[0].EndedAt.IsZero() {
		t.Error("expected EndedAt to be set once the assistant reply lands")
	}
}

func TestManager_RecordUsageAndToolOutcome(t *testing.T) {
	mgr := NewManager(nil)
	ctx := context.Background()
	session := mgr.GetOrCreate(ctx, "tab-1", "")

	mgr.RecordUsage(ctx, session.ID, 1200, 0.015)
	mgr.RecordToolOutcome(ctx, session.ID, true)
	mgr.RecordToolOutcome(ctx, session.ID, false)

	got, _ := mgr.Get(ctx, session.ID)
	if got.Stats.TotalTokensUsed != 1200 {
		t.Errorf("TotalTokensUsed = %d, want 1200", got.Stats.TotalTokensUsed)
	}
	if got.Stats.SuccessfulActions != 1 || got.Stats.FailedActions != 1 {
		t.Errorf("stats = %+v, want 1 success and 1 failure", got.Stats)
	}
}

func TestManager_MutationsUpdateLastMessageAt(t *testing.T) {
	mgr := NewManager(nil)
	ctx := context.Background()
	session := mgr.GetOrCreate(ctx, "tab-1", "")
	initial := session.LastMessageAt

	mgr.AppendMessage(ctx, session.ID, models.Message{Role: models.RoleUser, Content: "hi"})

	got, _ := mgr.Get(ctx, session.ID)
	if !got.LastMessageAt.After(initial) && !got.LastMessageAt.Equal(initial) {
		t.Error("expected LastMessageAt to advance after a mutation")
	}
}

func TestManager_ClonesPreventSharedMutation(t *testing.T) {
	mgr := NewManager(nil)
	ctx := context.Background()
	session := mgr.GetOrCreate(ctx, "tab-1", "")

	mgr.AppendMessage(ctx, session.ID, models.Message{Role: models.RoleUser, Content: "hi"})
	got, _ := mgr.Get(ctx, session.ID)
	got.Messages[0].Content = "mutated by caller"

	again, _ := mgr.Get(ctx, session.ID)
	if again.Messages[0].Content == "mutated by caller" {
		t.Fatal("caller mutation leaked into stored session state")
	}
}

func TestManager_PersistHookReceivesPostMutationState(t *testing.T) {
	var captured *models.ChatSession
	mgr := NewManager(func(s *models.ChatSession) { captured = s })
	ctx := context.Background()
	session := mgr.GetOrCreate(ctx, "tab-1", "")

	mgr.AppendMessage(ctx, session.ID, models.Message{Role: models.RoleUser, Content: "hi"})

	if captured == nil {
		t.Fatal("expected persist hook to be invoked")
	}
	if len(captured.Messages) != 1 {
		t.Errorf("persisted messages len = %d, want 1", len(captured.Messages))
	}
}
