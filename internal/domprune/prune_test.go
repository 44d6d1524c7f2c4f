package domprune

import (
	"strings"
	"testing"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

func rect() models.Rect { return models.Rect{Width: 10, Height: 10} }

func TestScore_AdditiveRulesCapAt100(t *testing.T) {
	tabIndex := 0
	e := RawElement{
		Tag: "button", Role: "button", Href: "#", HasOnClick: true,
		TabIndex: &tabIndex, TestID: "x", CursorPointer: true,
		AriaLabel: "go", AriaDescribedBy: "d",
	}
	if got := Score(e); got != 100 {
		t.Errorf("Score = %d, want 100 (capped)", got)
	}
}

func TestScore_PlainDivScoresZero(t *testing.T) {
	if got := Score(RawElement{Tag: "div"}); got != 0 {
		t.Errorf("Score(div) = %d, want 0", got)
	}
}

func TestPrune_ExcludesHiddenZeroAreaAndScriptTags(t *testing.T) {
	raw := []RawElement{
		{Tag: "script", Rect: rect(), Visible: true},
		{Tag: "button", Rect: models.Rect{}, Visible: true},
		{Tag: "button", Rect: rect(), Visible: false},
		{Tag: "button", Rect: rect(), Visible: true},
	}
	out, stats := Prune(raw, Options{MaxElements: 50, MinInteractivityScore: 0, MaxDepth: 5})
	if len(out) != 1 {
		t.Fatalf("expected 1 surviving element, got %d", len(out))
	}
	if stats.Total != 4 {
		t.Errorf("stats.Total = %d, want 4", stats.Total)
	}
}

func TestPrune_RespectsMaxDepth(t *testing.T) {
	raw := []RawElement{
		{Tag: "button", Rect: rect(), Visible: true, Depth: 3},
		{Tag: "button", Rect: rect(), Visible: true, Depth: 10},
	}
	out, _ := Prune(raw, Options{MaxElements: 50, MinInteractivityScore: 0, MaxDepth: 5})
	if len(out) != 1 {
		t.Fatalf("expected the depth-10 element to be excluded, got %d survivors", len(out))
	}
}

func TestPrune_FiltersBelowMinInteractivityScore(t *testing.T) {
	raw := []RawElement{
		{Tag: "div", Rect: rect(), Visible: true},          // score 0
		{Tag: "button", Rect: rect(), Visible: true},        // score 40
	}
	out, _ := Prune(raw, Options{MaxElements: 50, MinInteractivityScore: 30, MaxDepth: 5})
	if len(out) != 1 || out[0].Tag != "button" {
		t.Fatalf("expected only the button to survive, got %+v", out)
	}
}

func TestPrune_SortsDescendingByScoreAndCapsAtMaxElements(t *testing.T) {
	raw := []RawElement{
		{Tag: "div", Role: "navigation", Rect: rect(), Visible: true},       // 40
		{Tag: "button", Href: "#", HasOnClick: true, Rect: rect(), Visible: true}, // 40+30+20=90
		{Tag: "a", Href: "#", Rect: rect(), Visible: true},                  // 40+30=70
	}
	out, stats := Prune(raw, Options{MaxElements: 2, MinInteractivityScore: 0, MaxDepth: 5})
	if len(out) != 2 {
		t.Fatalf("expected exactly 2 elements (MaxElements cap), got %d", len(out))
	}
	if out[0].Score < out[1].Score {
		t.Errorf("expected descending score order, got %d then %d", out[0].Score, out[1].Score)
	}
	if stats.Pruned != 1 {
		t.Errorf("stats.Pruned = %d, want 1", stats.Pruned)
	}
}

func TestPrune_NeverReturnsErrorOnEmptyInput(t *testing.T) {
	out, stats := Prune(nil, DefaultOptions())
	if out == nil || len(out) != 0 {
		t.Errorf("expected empty non-nil slice, got %+v", out)
	}
	if stats.Total != 0 || stats.Pruned != 0 {
		t.Errorf("expected zeroed stats, got %+v", stats)
	}
}

func TestSelectors_PriorityOrderAndBestSelector(t *testing.T) {
	e := RawElement{Tag: "button", ID: "submit", TestID: "submit-btn", AriaLabel: "Submit", Text: "Go"}
	selectors := Selectors(e, 0, "")
	if selectors[0].Kind != "id" {
		t.Errorf("expected id selector first, got %s", selectors[0].Kind)
	}
	var best models.SelectorStrategy
	for _, s := range selectors {
		if s.Confidence > best.Confidence {
			best = s
		}
	}
	if best.Kind != "id" {
		t.Errorf("expected id selector to have the highest confidence, got %s", best.Kind)
	}
}

func TestSelectors_AlwaysIncludesXPathFallback(t *testing.T) {
	selectors := Selectors(RawElement{Tag: "div"}, 2, "")
	last := selectors[len(selectors)-1]
	if last.Kind != "xpath" || !strings.Contains(last.Value, "//div") {
		t.Errorf("expected an xpath fallback selector, got %+v", last)
	}
}

func TestFilterFrameworkClasses_StripsGeneratedClassesButKeepsTag(t *testing.T) {
	got := filterFrameworkClasses("div.ng-abc123.btn-primary._hash")
	if got != "div.btn-primary" {
		t.Errorf("filterFrameworkClasses = %q, want %q", got, "div.btn-primary")
	}
}

func TestTruncate_LeavesShortTextAloneAndCutsLongText(t *testing.T) {
	if got := truncate("  hi  ", 10); got != "hi" {
		t.Errorf("truncate short = %q, want trimmed %q", got, "hi")
	}
	if got := truncate(strings.Repeat("a", 200), 5); got != "aaaaa" {
		t.Errorf("truncate long = %q, want 5 chars", got)
	}
}
