package browsercontext

import (
	"strings"
	"testing"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

func TestContextToText_RendersAllPresentSections(t *testing.T) {
	ctx := &models.BrowserContext{
		Page: models.PageMetadata{URL: "https://example.com", Title: "Example", ReadyState: "complete"},
		InteractiveElements: []models.InteractiveElement{
			{Tag: "button", BestSelector: models.SelectorStrategy{Value: "#go"}, Score: 90, Text: "Go"},
		},
		AccessibilityTree: &models.A11yNode{Role: "group", Children: []models.A11yNode{
			{Role: "link", Name: "Home"},
		}},
		ConsoleLogs: []models.ConsoleEntry{
			{Level: models.ConsoleError, Message: "boom"},
		},
		NetworkActivity: []models.NetworkEntry{
			{Method: "GET", URL: "https://example.com/api", Status: 200},
			{Method: "POST", URL: "https://example.com/submit", Failed: true, ErrorText: "timeout"},
		},
	}

	text := ContextToText(ctx)

	for _, want := range []string{
		"=== CURRENT PAGE ===",
		"URL: https://example.com",
		"=== INTERACTIVE ELEMENTS ===",
		`selector="#go"`,
		"=== ACCESSIBILITY TREE ===",
		"- group",
		"  - link \"Home\"",
		"=== RECENT CONSOLE LOGS ===",
		"[error] boom",
		"=== RECENT NETWORK ACTIVITY ===",
		"GET https://example.com/api -> 200",
		"POST https://example.com/submit -> failed: timeout",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected rendered text to contain %q, got:\n%s", want, text)
		}
	}
}

func TestContextToText_OmitsEmptySections(t *testing.T) {
	ctx := &models.BrowserContext{Page: models.PageMetadata{URL: "https://example.com"}}
	text := ContextToText(ctx)

	for _, absent := range []string{
		"=== INTERACTIVE ELEMENTS ===",
		"=== ACCESSIBILITY TREE ===",
		"=== RECENT CONSOLE LOGS ===",
		"=== RECENT NETWORK ACTIVITY ===",
	} {
		if strings.Contains(text, absent) {
			t.Errorf("expected no %q section for an empty context, got:\n%s", absent, text)
		}
	}
}

func TestContextToText_CapsInteractiveElementsAt50(t *testing.T) {
	elements := make([]models.InteractiveElement, 60)
	for i := range elements {
		elements[i] = models.InteractiveElement{Tag: "button"}
	}
	ctx := &models.BrowserContext{InteractiveElements: elements}
	text := ContextToText(ctx)

	if strings.Count(text, "<button>") != 50 {
		t.Errorf("expected exactly 50 rendered elements, got %d", strings.Count(text, "<button>"))
	}
}

func TestContextToText_PendingNetworkStatusWhenZero(t *testing.T) {
	ctx := &models.BrowserContext{
		NetworkActivity: []models.NetworkEntry{{Method: "GET", URL: "https://example.com/slow"}},
	}
	text := ContextToText(ctx)
	if !strings.Contains(text, "GET https://example.com/slow -> pending") {
		t.Errorf("expected a pending status for a zero-status entry, got:\n%s", text)
	}
}

func TestSummary_TalliesElementsByTagAndReportsConsoleCount(t *testing.T) {
	ctx := &models.BrowserContext{
		Page:          models.PageMetadata{Title: "Example", URL: "https://example.com"},
		ElementCounts: models.ElementCounts{Total: 10, Interactive: 4, Visible: 8},
		InteractiveElements: []models.InteractiveElement{
			{Tag: "button"}, {Tag: "button"}, {Tag: "input"}, {Tag: "a"}, {Tag: "select"},
		},
		ConsoleLogs: []models.ConsoleEntry{{Level: models.ConsoleLog, Message: "hi"}},
	}

	summary := Summary(ctx)

	for _, want := range []string{
		"Page: Example",
		"URL: https://example.com",
		"Elements: 10 total, 4 interactive, 8 visible (buttons=2, inputs=2, links=1)",
		"Recent console entries: 1",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, summary)
		}
	}
}

func TestTallyElements_IgnoresUnknownTags(t *testing.T) {
	buttons, inputs, links := tallyElements([]models.InteractiveElement{
		{Tag: "button"}, {Tag: "textarea"}, {Tag: "div"}, {Tag: "a"},
	})
	if buttons != 1 || inputs != 1 || links != 1 {
		t.Errorf("tallyElements = (%d, %d, %d), want (1, 1, 1)", buttons, inputs, links)
	}
}
