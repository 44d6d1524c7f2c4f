package recorder

import (
	"strings"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// analyticsSubstrings filters beacon/tracking traffic out of verification.
var analyticsSubstrings = []string{
	"google-analytics.com", "doubleclick.net", "clarity.ms",
	"/log?", "/analytics", "/tracking",
}

// analyticsTypes are CDP resource types never counted as significant.
var analyticsTypes = map[string]bool{"Ping": true, "ping": true, "Beacon": true, "beacon": true}

// apiPathSubstrings mark an XHR/Fetch request as significant regardless of
// method.
var apiPathSubstrings = []string{"/api/", "/v1/", "/v2/", "/graphql", "/rest/", "/data/"}

var stateChangingMethods = map[string]bool{"POST": true, "PUT": true, "DELETE": true, "PATCH": true}

// isAnalytics reports whether a request should be dropped from verification
// entirely, by URL substring or CDP resource type.
func isAnalytics(url, resourceType string) bool {
	if analyticsTypes[resourceType] {
		return true
	}
	for _, s := range analyticsSubstrings {
		if strings.Contains(url, s) {
			return true
		}
	}
	return false
}

// isSignificant classifies a non-analytics request as "significant":
// Document requests always qualify; XHR/Fetch qualify on an API-ish
// path or a state-changing method.
func isSignificant(url, method, resourceType string) bool {
	if resourceType == "Document" {
		return true
	}
	if resourceType != "XHR" && resourceType != "Fetch" {
		return false
	}
	for _, s := range apiPathSubstrings {
		if strings.Contains(url, s) {
			return true
		}
	}
	return stateChangingMethods[strings.ToUpper(method)]
}

// classifyNetwork filters a window of observed requests down to the
// significant ones relevant to one action's verification.
func classifyNetwork(window []models.NetworkEntry) []models.NetworkEntry {
	var out []models.NetworkEntry
	for _, e := range window {
		if isAnalytics(e.URL, e.Type) {
			continue
		}
		if isSignificant(e.URL, e.Method, e.Type) {
			out = append(out, e)
		}
	}
	return out
}

// postActionState is the page-side snapshot taken during verification.
type postActionState struct {
	URL        string
	ScrollX    float64
	ScrollY    float64
	FocusedTag string
	ModalCount int
}

// focusableTags are the only tags whose focus change counts as an effect.
var focusableTags = map[string]bool{"INPUT": true, "TEXTAREA": true, "SELECT": true, "BUTTON": true}

// buildEffects compares pre/post state and classified network traffic into
// an ActionEffects. Summary is always set; the rest only when that effect
// was actually detected.
func buildEffects(pre preActionState, post postActionState, significant []models.NetworkEntry) models.ActionEffects {
	var phrases []string
	effects := models.ActionEffects{}

	if len(significant) > 0 {
		urls := make([]string, 0, len(significant))
		for _, e := range significant {
			urls = append(urls, e.URL)
		}
		effects.Network = &models.NetworkEffect{RequestCount: len(significant), URLs: urls}
		phrases = append(phrases, networkPhrase(len(significant)))
	}

	if post.FocusedTag != "" && post.FocusedTag != pre.ActiveTag && focusableTags[post.FocusedTag] {
		effects.Focus = &models.FocusEffect{NewFocusTagName: post.FocusedTag}
		phrases = append(phrases, "focus moved to "+post.FocusedTag)
	}

	dx := post.ScrollX - pre.ScrollX
	dy := post.ScrollY - pre.ScrollY
	if abs(dx)+abs(dy) > 200 {
		effects.Scroll = &models.ScrollEffect{DeltaX: dx, DeltaY: dy}
		phrases = append(phrases, "page scrolled")
	}

	if len(phrases) == 0 {
		effects.Summary = "no significant effects detected"
	} else {
		effects.Summary = strings.Join(phrases, "; ")
	}
	return effects
}

func networkPhrase(n int) string {
	if n == 1 {
		return "1 network request"
	}
	return itoaSimple(n) + " network requests"
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func itoaSimple(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
