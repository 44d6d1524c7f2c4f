package browsercontext

import (
	"fmt"
	"strings"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// ContextToText renders a deterministic plain-text block for the LLM with a
// fixed section-header layout. Given a frozen BrowserContext, repeated
// calls produce byte-identical output.
func ContextToText(ctx *models.BrowserContext) string {
	var b strings.Builder

	b.WriteString("=== CURRENT PAGE ===\n")
	fmt.Fprintf(&b, "URL: %s\nTitle: %s\nReady state: %s\n\n", ctx.Page.URL, ctx.Page.Title, ctx.Page.ReadyState)

	if len(ctx.InteractiveElements) > 0 {
		b.WriteString("=== INTERACTIVE ELEMENTS ===\n")
		n := len(ctx.InteractiveElements)
		if n > 50 {
			n = 50
		}
		for i := 0; i < n; i++ {
			e := ctx.InteractiveElements[i]
			fmt.Fprintf(&b, "%d. <%s> selector=%q score=%d text=%q\n", i+1, e.Tag, e.BestSelector.Value, e.Score, e.Text)
		}
		b.WriteString("\n")
	}

	if ctx.AccessibilityTree != nil {
		b.WriteString("=== ACCESSIBILITY TREE ===\n")
		renderA11yNode(&b, *ctx.AccessibilityTree, 0)
		b.WriteString("\n")
	}

	if len(ctx.ConsoleLogs) > 0 {
		b.WriteString("=== RECENT CONSOLE LOGS ===\n")
		for _, e := range ctx.ConsoleLogs {
			fmt.Fprintf(&b, "[%s] %s\n", e.Level, e.Message)
		}
		b.WriteString("\n")
	}

	if len(ctx.NetworkActivity) > 0 {
		b.WriteString("=== RECENT NETWORK ACTIVITY ===\n")
		for _, e := range ctx.NetworkActivity {
			status := "pending"
			if e.Status != 0 {
				status = fmt.Sprintf("%d", e.Status)
			}
			if e.Failed {
				status = "failed: " + e.ErrorText
			}
			fmt.Fprintf(&b, "%s %s -> %s\n", e.Method, e.URL, status)
		}
	}

	return b.String()
}

func renderA11yNode(b *strings.Builder, n models.A11yNode, depth int) {
	fmt.Fprintf(b, "%s- %s %q\n", strings.Repeat("  ", depth), n.Role, n.Name)
	for _, c := range n.Children {
		renderA11yNode(b, c, depth+1)
	}
}

// Summary produces the compact human-readable summary the ReAct engine's
// Observe step publishes as an `observation` event: "Page: …", "URL: …",
// element counts, buttons/inputs/links tallies, recent console count.
func Summary(ctx *models.BrowserContext) string {
	buttons, inputs, links := tallyElements(ctx.InteractiveElements)
	return fmt.Sprintf(
		"Page: %s\nURL: %s\nElements: %d total, %d interactive, %d visible (buttons=%d, inputs=%d, links=%d)\nRecent console entries: %d",
		ctx.Page.Title, ctx.Page.URL,
		ctx.ElementCounts.Total, ctx.ElementCounts.Interactive, ctx.ElementCounts.Visible,
		buttons, inputs, links, len(ctx.ConsoleLogs),
	)
}

func tallyElements(elements []models.InteractiveElement) (buttons, inputs, links int) {
	for _, e := range elements {
		switch e.Tag {
		case "button":
			buttons++
		case "input", "select", "textarea":
			inputs++
		case "a":
			links++
		}
	}
	return
}
