package orchestrator

import (
	"fmt"
	"strings"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

const maxRecordingContextActions = 20

// formatRecordingContext builds the reference-workflow user message used
// when the caller supplies a prior recording: up to the last 20 actions,
// each as its type plus the best-available target
// description (text, then aria-label, then selector), plus the action's
// value when set, followed by a note that the live page may have diverged
// since the recording was captured.
func formatRecordingContext(actions []models.RecordedAction) string {
	if len(actions) == 0 {
		return ""
	}
	if len(actions) > maxRecordingContextActions {
		actions = actions[len(actions)-maxRecordingContextActions:]
	}

	var b strings.Builder
	b.WriteString("Reference workflow (a prior recording of a similar task). The page may have changed since this was captured, so re-verify each step before acting:\n")
	for i, a := range actions {
		fmt.Fprintf(&b, "%d. %s %s", i+1, a.Type, describeTarget(a.Target))
		if a.Value != "" {
			fmt.Fprintf(&b, " = %q", a.Value)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func describeTarget(t *models.ElementTarget) string {
	if t == nil {
		return "(no target)"
	}
	if t.Text != "" {
		return fmt.Sprintf("on %q", t.Text)
	}
	if t.AriaLabel != "" {
		return fmt.Sprintf("on [aria-label=%q]", t.AriaLabel)
	}
	if len(t.Selectors) > 0 {
		return fmt.Sprintf("on %s=%q", t.Selectors[0].Kind, t.Selectors[0].Value)
	}
	return fmt.Sprintf("on <%s>", t.TagName)
}
