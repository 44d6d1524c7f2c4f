package react

import (
	"fmt"
	"strings"

	"github.com/browzer-labs/browzer-agent/internal/llm"
	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// buildSystemPrompt constructs the system prompt used at every think step:
// the available tools with a one-sentence purpose each, a mandate to call
// an actual function rather than describe one in prose, a one-tool-per-turn
// rule, the completion conditions, and the current mode/step counters.
func buildSystemPrompt(execCtx *models.ExecutionContext, tools []llm.ToolDefinition) string {
	var b strings.Builder

	b.WriteString("You are a browser automation agent. You accomplish the user's goal by observing the page and calling exactly one tool per turn.\n\n")

	b.WriteString("Available tools:\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
	}
	b.WriteString("\n")

	b.WriteString("Rules:\n")
	b.WriteString("- You must call an actual tool via a function call. Do not describe what you would do in prose, and do not write pseudocode.\n")
	b.WriteString("- Call exactly one tool per turn.\n")
	b.WriteString("- When the goal is fully accomplished, reply in plain text only (no tool call) using a phrase such as \"task complete\" or \"completed successfully\".\n")
	b.WriteString("- If the goal is impossible given the current page, reply in plain text only using a phrase such as \"i cannot\" or \"unable to\".\n\n")

	fmt.Fprintf(&b, "Mode: %s\n", execCtx.Mode)
	fmt.Fprintf(&b, "Step %d of at most %d.\n", execCtx.ExecutionCount, execCtx.MaxExecutionSteps)
	if execCtx.CurrentGoal != "" {
		fmt.Fprintf(&b, "Goal: %s\n", execCtx.CurrentGoal)
	}

	return b.String()
}
