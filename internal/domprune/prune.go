// Package domprune scores DOM nodes by interactivity and emits a small,
// stably-selectable subset. The scoring algorithm in this file is pure and
// independently testable; extract.go drives it from a live CDP session.
package domprune

import (
	"regexp"
	"sort"
	"strings"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// interactiveTags score +40 under the tag rule.
var interactiveTags = map[string]bool{
	"button": true, "a": true, "input": true, "select": true, "textarea": true,
	"form": true, "label": true, "summary": true, "details": true,
}

// interactiveRoles score +40 under the role rule.
var interactiveRoles = map[string]bool{
	"button": true, "link": true, "textbox": true, "searchbox": true,
	"combobox": true, "checkbox": true, "radio": true, "menuitem": true,
	"tab": true, "switch": true, "dialog": true, "alertdialog": true,
	"navigation": true, "main": true,
}

// excludedTags are never considered, regardless of score.
var excludedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "meta": true,
	"link": true, "head": true, "title": true, "base": true, "template": true,
}

// frameworkClassPattern filters generated classes out of CSS path synthesis.
var frameworkClassPattern = regexp.MustCompile(`^(ng-|_|css-)`)

// Options bounds a single prune pass.
type Options struct {
	MaxElements           int
	MinInteractivityScore int
	MaxDepth              int
}

// DefaultOptions returns the pruner's built-in numeric defaults.
func DefaultOptions() Options {
	return Options{MaxElements: 50, MinInteractivityScore: 30, MaxDepth: 5}
}

// Stats summarizes one prune pass.
type Stats struct {
	Total  int
	Pruned int
}

// RawElement is the scan-time representation of one DOM element, as
// produced by the page-side collection script in extract.go. It carries
// more raw signal than InteractiveElement so scoring can be unit tested
// without a live page.
type RawElement struct {
	Tag             string
	Depth           int
	ID              string
	Class           string
	Role            string
	AriaLabel       string
	AriaDescribedBy string
	Placeholder     string
	Value           string
	Href            string
	TestID          string
	DataCy          string
	Type            string
	HasOnClick      bool
	CursorPointer   bool
	TabIndex        *int
	Text            string
	Rect            models.Rect
	Visible         bool
}

// Score computes the 0-100 interactivity score for one element using an
// additive rule set.
func Score(e RawElement) int {
	score := 0
	if interactiveTags[e.Tag] {
		score += 40
	}
	if interactiveRoles[e.Role] {
		score += 40
	}
	if e.Href != "" {
		score += 30
	}
	if e.Tag == "form" {
		score += 25
	}
	if e.HasOnClick || e.Type == "submit" || e.Type == "button" {
		score += 20
	}
	if e.TabIndex != nil && *e.TabIndex >= 0 {
		score += 15
	}
	if e.TestID != "" || e.DataCy != "" {
		score += 15
	}
	if e.CursorPointer {
		score += 15
	}
	if e.AriaLabel != "" {
		score += 10
	}
	if e.AriaDescribedBy != "" {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}

// isExcluded reports whether an element is never considered regardless of
// score: excluded tags, invisible elements, or zero-area rects.
func isExcluded(e RawElement) bool {
	if excludedTags[e.Tag] {
		return true
	}
	if !e.Visible {
		return true
	}
	if e.Rect.Width <= 0 || e.Rect.Height <= 0 {
		return true
	}
	return false
}

// Selectors builds the full multi-strategy selector list for an element, in
// priority order; the first entry has the highest confidence.
func Selectors(e RawElement, siblingIndex int, cssPath string) []models.SelectorStrategy {
	var out []models.SelectorStrategy
	if e.ID != "" {
		out = append(out, models.SelectorStrategy{Kind: "id", Value: "#" + e.ID, Confidence: 95})
	}
	if e.TestID != "" {
		out = append(out, models.SelectorStrategy{Kind: "testid", Value: `[data-testid="` + e.TestID + `"]`, Confidence: 90})
	}
	if e.DataCy != "" {
		out = append(out, models.SelectorStrategy{Kind: "testid", Value: `[data-cy="` + e.DataCy + `"]`, Confidence: 90})
	}
	if e.AriaLabel != "" {
		out = append(out, models.SelectorStrategy{Kind: "aria_label", Value: `[aria-label="` + e.AriaLabel + `"]`, Confidence: 80})
	}
	if e.Role != "" && e.Text != "" {
		out = append(out, models.SelectorStrategy{Kind: "role_name", Value: `[role="` + e.Role + `"]`, Confidence: 75})
	}
	if e.Text != "" {
		out = append(out, models.SelectorStrategy{Kind: "text", Value: e.Tag + ":contains(\"" + truncate(e.Text, 40) + "\")", Confidence: 70})
	}
	if cssPath != "" {
		out = append(out, models.SelectorStrategy{Kind: "css", Value: filterFrameworkClasses(cssPath), Confidence: 60})
	}
	out = append(out, models.SelectorStrategy{Kind: "xpath", Value: xpathFor(e, siblingIndex), Confidence: 50})
	return out
}

func filterFrameworkClasses(cssPath string) string {
	parts := strings.Split(cssPath, ".")
	kept := parts[:1]
	for _, p := range parts[1:] {
		if !frameworkClassPattern.MatchString(p) {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

func xpathFor(e RawElement, siblingIndex int) string {
	if siblingIndex > 0 {
		return "//" + e.Tag + "[" + itoa(siblingIndex+1) + "]"
	}
	return "//" + e.Tag
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Prune filters and scores raw elements, returning them sorted by
// descending score and capped at opts.MaxElements, plus scan statistics.
// It never returns an error: a failed scan is represented as an empty slice
// with zeroed stats.
func Prune(raw []RawElement, opts Options) ([]models.InteractiveElement, Stats) {
	stats := Stats{Total: len(raw)}

	type scored struct {
		el    models.InteractiveElement
		score int
	}
	var candidates []scored

	for i, e := range raw {
		if e.Depth > opts.MaxDepth {
			continue
		}
		if isExcluded(e) {
			continue
		}
		score := Score(e)
		if score < opts.MinInteractivityScore {
			continue
		}
		selectors := Selectors(e, i, "")
		best := selectors[0]
		for _, s := range selectors {
			if s.Confidence > best.Confidence {
				best = s
			}
		}
		candidates = append(candidates, scored{
			el: models.InteractiveElement{
				Tag:          e.Tag,
				Selectors:    selectors,
				BestSelector: best,
				Score:        score,
				Rect:         e.Rect,
				Attributes: models.ElementAttributes{
					ID: e.ID, Class: e.Class, Role: e.Role, AriaLabel: e.AriaLabel,
					Placeholder: e.Placeholder, Value: e.Value, Href: e.Href, TestID: e.TestID,
				},
				Text:          truncate(e.Text, 100),
				IsVisible:     e.Visible,
				IsInteractive: true,
			},
			score: score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	if len(candidates) > opts.MaxElements {
		stats.Pruned = len(candidates) - opts.MaxElements
		candidates = candidates[:opts.MaxElements]
	}

	out := make([]models.InteractiveElement, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.el)
	}
	return out, stats
}
