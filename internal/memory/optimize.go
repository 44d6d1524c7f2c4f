package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// Strategy selects how OptimizeMessages reduces a message set to fit a
// token budget.
type Strategy string

const (
	StrategySlidingWindow  Strategy = "sliding_window"
	StrategyCompression    Strategy = "compression"
	StrategyImportance     Strategy = "importance_based"
	StrategyHierarchical   Strategy = "hierarchical"
)

// OptimizeResult is the outcome of one OptimizeMessages call.
type OptimizeResult struct {
	OptimizedMessages  []models.Message
	CompressionApplied bool
	TokensSaved        int
	Summary            string
}

// Manager is the Context Memory Manager: it estimates token cost and
// applies one of the four message-reduction strategies to fit a budget,
// and retains a per-session keyword-scored memory store.
type Manager struct {
	strategy Strategy
	store    *Store
}

// NewManager constructs a Manager using the given strategy for
// OptimizeMessages calls. An empty strategy defaults to sliding_window, the
// cheapest of the four.
func NewManager(strategy Strategy) *Manager {
	if strategy == "" {
		strategy = StrategySlidingWindow
	}
	return &Manager{strategy: strategy, store: NewStore()}
}

// Store returns the memory manager's fact/preference store.
func (m *Manager) Store() *Store { return m.store }

// OptimizeMessages reduces messages to fit targetTokens, applying the
// manager's configured strategy. systemPrompt, browserCtx, and tools feed
// EstimateTokens but are never themselves altered.
func (m *Manager) OptimizeMessages(messages []models.Message, systemPrompt string, browserCtx *models.BrowserContext, tools []ToolSchema, targetTokens int) OptimizeResult {
	before := EstimateTokens(systemPrompt, messages, browserCtx, tools)
	if before <= targetTokens {
		return OptimizeResult{OptimizedMessages: messages}
	}

	var optimized []models.Message
	var summary string

	switch m.strategy {
	case StrategyCompression:
		optimized, summary = compress(messages)
	case StrategyImportance:
		optimized = importanceBased(messages, systemPrompt, browserCtx, tools, targetTokens)
	case StrategyHierarchical:
		optimized, summary = compress(messages)
		if EstimateTokens(systemPrompt, optimized, browserCtx, tools) > targetTokens {
			optimized = importanceBased(optimized, systemPrompt, browserCtx, tools, targetTokens)
		}
	default: // StrategySlidingWindow
		optimized = slidingWindow(messages, before, targetTokens)
	}

	after := EstimateTokens(systemPrompt, optimized, browserCtx, tools)
	return OptimizeResult{
		OptimizedMessages:  optimized,
		CompressionApplied: true,
		TokensSaved:        before - after,
		Summary:            summary,
	}
}

// slidingWindow always keeps system messages and drops a prefix of the
// non-system ones, sized by ceil((current - target) / averageTokensPerMessage).
func slidingWindow(messages []models.Message, current, target int) []models.Message {
	avg := averageTokensPerMessage(messages, current)
	excess := float64(current - target)
	dropCount := int(ceilDiv(excess, avg))

	var system []models.Message
	var rest []models.Message
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			system = append(system, m)
		} else {
			rest = append(rest, m)
		}
	}

	if dropCount >= len(rest) {
		dropCount = len(rest)
	}
	rest = rest[dropCount:]

	result := make([]models.Message, 0, len(system)+len(rest))
	result = append(result, system...)
	result = append(result, rest...)
	return result
}

func ceilDiv(a, b float64) float64 {
	if b <= 0 {
		return a
	}
	q := a / b
	if q != float64(int(q)) && q > 0 {
		return float64(int(q) + 1)
	}
	return q
}

// compress splits the non-system messages at the midpoint, replaces the
// older half with a single synthetic system summary message, and keeps the
// newer half untouched.
func compress(messages []models.Message) ([]models.Message, string) {
	var system []models.Message
	var rest []models.Message
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			system = append(system, m)
		} else {
			rest = append(rest, m)
		}
	}

	if len(rest) < 2 {
		return messages, ""
	}

	mid := len(rest) / 2
	older, newer := rest[:mid], rest[mid:]

	keyFacts := extractKeyFacts(older)
	summary := fmt.Sprintf("Previous conversation summary: %d earlier messages condensed.\nKey facts:\n%s",
		len(older), keyFacts)

	summaryMsg := models.Message{
		Role:    models.RoleSystem,
		Content: summary,
	}

	result := make([]models.Message, 0, len(system)+1+len(newer))
	result = append(result, system...)
	result = append(result, summaryMsg)
	result = append(result, newer...)
	return result, summary
}

// extractKeyFacts pulls a short bullet list of the most substantive older
// messages (longest content first) to stand in for the full transcript.
func extractKeyFacts(older []models.Message) string {
	type candidate struct {
		role    models.Role
		content string
	}
	var candidates []candidate
	for _, m := range older {
		c := strings.TrimSpace(m.Content)
		if c == "" {
			continue
		}
		candidates = append(candidates, candidate{role: m.Role, content: c})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].content) > len(candidates[j].content)
	})
	if len(candidates) > 5 {
		candidates = candidates[:5]
	}
	var b strings.Builder
	for _, c := range candidates {
		line := c.content
		if len(line) > 160 {
			line = line[:160] + "…"
		}
		fmt.Fprintf(&b, "- (%s) %s\n", c.role, line)
	}
	return b.String()
}

// importanceBased scores each message and greedily keeps the highest
// scoring ones until the budget is met, then restores chronological order.
func importanceBased(messages []models.Message, systemPrompt string, browserCtx *models.BrowserContext, tools []ToolSchema, targetTokens int) []models.Message {
	n := len(messages)
	type scored struct {
		idx   int
		msg   models.Message
		score float64
	}
	ranked := make([]scored, n)
	for i, m := range messages {
		ranked[i] = scored{idx: i, msg: m, score: importanceScore(m, i, n)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	kept := make(map[int]bool, n)
	var keptMsgs []models.Message
	for _, r := range ranked {
		keptMsgs = append(keptMsgs, r.msg)
		kept[r.idx] = true
		if EstimateTokens(systemPrompt, keptMsgs, browserCtx, tools) >= targetTokens {
			break
		}
	}

	ordered := make([]models.Message, 0, len(kept))
	for i, m := range messages {
		if kept[i] {
			ordered = append(ordered, m)
		}
	}
	return ordered
}

// importanceScore is an additive rubric: recency up to +0.3, system role
// +0.4, presence of tool calls +0.3, tool-result role +0.2, length over
// 500 chars +0.1.
func importanceScore(m models.Message, idx, total int) float64 {
	var score float64
	if total > 1 {
		score += 0.3 * float64(idx) / float64(total-1)
	}
	if m.Role == models.RoleSystem {
		score += 0.4
	}
	if len(m.ToolCalls) > 0 {
		score += 0.3
	}
	if m.Role == models.RoleTool {
		score += 0.2
	}
	if len(m.Content) > 500 {
		score += 0.1
	}
	return score
}
