package react

import (
	"context"
	"fmt"
	"time"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

const observeMaxElements = 50
const observeMaxConsoleEntries = 10

// observe calls the Context Provider and produces a human-readable summary:
// page title/URL, element counts, a buttons/inputs/links tally, and the
// recent console entry count.
func (e *Engine) observe(ctx context.Context, execCtx *models.ExecutionContext, iteration int) (models.AgentObservation, *models.BrowserContext) {
	var browserCtx *models.BrowserContext
	if e.ctxProv != nil {
		browserCtx = e.ctxProv.GetContext(ctx, ContextOptions{
			IncludePrunedDOM:   true,
			IncludeConsoleLogs: true,
			MaxElements:        observeMaxElements,
			MaxConsoleEntries:  observeMaxConsoleEntries,
		})
	}
	execCtx.BrowserContext = browserCtx

	summary := summarizeObservation(browserCtx)
	return models.AgentObservation{
		ID:        newID(),
		Iteration: iteration,
		Summary:   summary,
		Success:   true,
		CreatedAt: time.Now(),
	}, browserCtx
}

func summarizeObservation(ctx *models.BrowserContext) string {
	if ctx == nil {
		return "Page: unknown\nURL: unknown\nNo browser context available."
	}

	var buttons, inputs, links int
	for _, el := range ctx.InteractiveElements {
		switch el.Tag {
		case "button":
			buttons++
		case "input", "textarea", "select":
			inputs++
		case "a":
			links++
		}
	}

	return fmt.Sprintf(
		"Page: %s\nURL: %s\nElements: %d total, %d interactive, %d visible\nButtons: %d, Inputs: %d, Links: %d\nRecent console entries: %d",
		ctx.Page.Title, ctx.Page.URL,
		ctx.ElementCounts.Total, ctx.ElementCounts.Interactive, ctx.ElementCounts.Visible,
		buttons, inputs, links,
		len(ctx.ConsoleLogs),
	)
}
