// Package memory implements the Context Memory Manager: token estimation,
// four message-optimization strategies, and a keyword-scored memory store.
package memory

import (
	"math"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// charsPerToken estimates tokens by summing character counts and dividing
// by 4.
const charsPerToken = 4

// imageTokenCost is the flat per-image token estimate.
const imageTokenCost = 1000

// EstimateTokens approximates the token cost of everything the LLM call
// will carry: the system prompt, every message, the browser context, and
// the tool schemas.
func EstimateTokens(systemPrompt string, messages []models.Message, browserCtx *models.BrowserContext, tools []ToolSchema) int {
	chars := len(systemPrompt)
	imageTokens := 0

	for _, m := range messages {
		chars += len(m.Content)
		for _, p := range m.Parts {
			if p.Type == "image" {
				imageTokens += imageTokenCost
				continue
			}
			chars += len(p.Text)
		}
		for _, tc := range m.ToolCalls {
			chars += len(tc.Function.Name) + len(tc.Function.Arguments)
		}
	}

	if browserCtx != nil {
		chars += browserContextChars(browserCtx)
		if browserCtx.Visual != nil && browserCtx.Visual.ScreenshotBase64 != "" {
			imageTokens += imageTokenCost
		}
	}

	for _, t := range tools {
		chars += len(t.Name) + len(t.Description) + len(t.Schema)
	}

	return chars/charsPerToken + imageTokens
}

// ToolSchema is the minimal shape the memory manager needs from a tool
// definition; callers convert their own tool definitions into it.
type ToolSchema struct {
	Name        string
	Description string
	Schema      string
}

func browserContextChars(ctx *models.BrowserContext) int {
	chars := len(ctx.Page.URL) + len(ctx.Page.Title) + len(ctx.Page.ReadyState)
	for _, el := range ctx.InteractiveElements {
		chars += len(el.Tag) + len(el.Text)
		chars += len(el.Attributes.ID) + len(el.Attributes.Class) + len(el.Attributes.Role)
		chars += len(el.Attributes.AriaLabel) + len(el.Attributes.Placeholder)
		for _, sel := range el.Selectors {
			chars += len(sel.Value)
		}
	}
	chars += a11yChars(ctx.AccessibilityTree)
	for _, c := range ctx.ConsoleLogs {
		chars += len(c.Message) + len(c.Source)
	}
	for _, n := range ctx.NetworkActivity {
		chars += len(n.URL) + len(n.Method)
	}
	if ctx.Visual != nil {
		chars += len(ctx.Visual.Description)
	}
	return chars
}

func a11yChars(n *models.A11yNode) int {
	if n == nil {
		return 0
	}
	chars := len(n.Role) + len(n.Name) + len(n.Description) + len(n.Value)
	for _, c := range n.Children {
		chars += a11yChars(&c)
	}
	return chars
}

// averageTokensPerMessage divides the current estimate across however many
// non-system messages are present, with a floor of 1 to keep the
// sliding-window drop-count formula well defined on tiny inputs.
func averageTokensPerMessage(messages []models.Message, totalTokens int) float64 {
	n := 0
	for _, m := range messages {
		if m.Role != models.RoleSystem {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return math.Max(float64(totalTokens)/float64(n), 1)
}
