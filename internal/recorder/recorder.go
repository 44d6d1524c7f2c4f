// Package recorder injects an event-capture script, observes user actions
// via the CSP-proof [BROWZER_ACTION] console channel, and verifies each
// action against its post-action network/focus/scroll effects.
package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"

	"github.com/browzer-labs/browzer-agent/internal/cdpsession"
	"github.com/browzer-labs/browzer-agent/internal/observability"
	"github.com/browzer-labs/browzer-agent/pkg/models"
)

const actionMarker = "[BROWZER_ACTION]"

// navigationExcludedSchemes are never emitted as navigate actions.
var navigationExcludedSchemes = []string{"data:", "about:", "chrome:", "chrome-extension:"}
var navigationExcludedSubstrings = []string{"/log?", "/analytics", "/tracking"}

// preActionState is the pre-click snapshot the in-page tracker attaches to
// a captured click.
type preActionState struct {
	URL        string  `json:"url"`
	ScrollX    float64 `json:"scrollX"`
	ScrollY    float64 `json:"scrollY"`
	ActiveTag  string  `json:"activeTag"`
	ModalCount int     `json:"modalCount"`
}

type inPagePayload struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Target    *targetPayload `json:"target"`
	Value     string         `json:"value"`
	Position  *models.Position `json:"position"`
	Metadata  map[string]any `json:"metadata"`
	PreState  preActionState `json:"preState"`
}

type targetPayload struct {
	TagName   string `json:"tagName"`
	Text      string `json:"text"`
	AriaLabel string `json:"ariaLabel"`
}

type pendingAction struct {
	action   models.RecordedAction
	actionTs time.Time
	pre      preActionState
	timer    *time.Timer
}

// Config bounds the verification window.
type Config struct {
	VerificationDelay    time.Duration // 500ms
	VerificationDeadline time.Duration // 1000ms
	NetworkWindow        time.Duration // 1500ms
}

// DefaultConfig returns the recorder's built-in verification window defaults.
func DefaultConfig() Config {
	return Config{
		VerificationDelay:    500 * time.Millisecond,
		VerificationDeadline: 1000 * time.Millisecond,
		NetworkWindow:        1500 * time.Millisecond,
	}
}

// Recorder is the Action Recorder & Verifier. One exists per recording
// session; it shares its CDP session with the Browser Context Provider
// under the single-debugger-owner rule.
type Recorder struct {
	sess       *cdpsession.Session
	remoteAddr string
	cfg        Config
	log        *observability.Logger

	mu       sync.Mutex
	sessionID string
	active    bool
	actions   []models.RecordedAction
	pending   map[string]*pendingAction
	network   []models.NetworkEntry // rolling window, trimmed on finalize
}

// New creates a Recorder bound to sess.
func New(sess *cdpsession.Session, remoteAddr string, cfg Config, logger *observability.Logger) *Recorder {
	return &Recorder{
		sess:       sess,
		remoteAddr: remoteAddr,
		cfg:        cfg,
		log:        logger,
		pending:    make(map[string]*pendingAction),
	}
}

// StartRecording attaches the CDP debugger if needed, injects the tracker
// into all frames, and begins observing action and navigation events.
func (r *Recorder) StartRecording(ctx context.Context, sessionID, targetID string) error {
	if !r.sess.IsAttached() {
		if err := r.sess.Attach(ctx, r.remoteAddr, targetID); err != nil {
			return fmt.Errorf("attach cdp session: %w", err)
		}
	}
	if err := r.sess.InjectOnNewDocument(ctx, trackerScript); err != nil {
		return fmt.Errorf("inject recorder tracker: %w", err)
	}

	r.mu.Lock()
	r.sessionID = sessionID
	r.active = true
	r.mu.Unlock()

	r.sess.OnEvent(r.handleEvent)
	return nil
}

// StopRecording stops observing and returns captured actions sorted
// ascending by timestamp.
func (r *Recorder) StopRecording() []models.RecordedAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	for _, p := range r.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
	}
	out := append([]models.RecordedAction(nil), r.actions...)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (r *Recorder) handleEvent(ev any) {
	switch e := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		r.handleConsoleEvent(e)
	case *network.EventRequestWillBeSent:
		r.trackNetworkRequest(e)
	case *network.EventLoadingFinished:
		r.finishNetworkRequest(string(e.RequestID), false, "")
	case *network.EventLoadingFailed:
		r.finishNetworkRequest(string(e.RequestID), true, e.ErrorText)
	case *page.EventFrameNavigated:
		r.handleNavigation(e)
	case *page.EventLoadEventFired:
		r.reinject()
	case *page.EventLifecycleEvent:
		if e.Name == "networkIdle" {
			r.finalizeDue(time.Time{})
		}
	}
}

// handleConsoleEvent parses the [BROWZER_ACTION] exfiltration channel. A
// malformed payload is logged as a warning (when a logger is set) and
// dropped, never a panic, never surfaced to the caller.
func (r *Recorder) handleConsoleEvent(e *runtime.EventConsoleAPICalled) {
	if len(e.Args) < 2 {
		return
	}
	first := e.Args[0]
	if first.Value == nil {
		return
	}
	var marker string
	if err := json.Unmarshal(first.Value, &marker); err != nil || marker != actionMarker {
		return
	}

	second := e.Args[1]
	var raw string
	if second.Value != nil {
		if err := json.Unmarshal(second.Value, &raw); err == nil {
			r.captureFromJSON(raw)
			return
		}
	}
	if second.Description != "" {
		r.captureFromJSON(second.Description)
	}
}

func (r *Recorder) captureFromJSON(raw string) {
	var payload inPagePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		if r.log != nil {
			r.log.Warn(context.Background(), "dropped malformed recorder payload", "error", err)
		}
		return
	}
	r.capture(payload)
}

func (r *Recorder) capture(payload inPagePayload) {
	actionTs := time.UnixMilli(payload.Timestamp)
	var target *models.ElementTarget
	var metadata map[string]any
	if payload.Target != nil {
		target = &models.ElementTarget{TagName: payload.Target.TagName, Text: payload.Target.Text, AriaLabel: payload.Target.AriaLabel}
	}
	if payload.Metadata != nil {
		metadata = payload.Metadata
		if clicked, ok := payload.Metadata["clickedElement"].(map[string]any); ok {
			metadata["clickedElement"] = clicked
		}
	}

	action := models.RecordedAction{
		Type:      models.RecordedActionType(payload.Type),
		Timestamp: actionTs,
		Target:    target,
		Value:     payload.Value,
		Position:  payload.Position,
		Metadata:  metadata,
	}

	key := fmt.Sprintf("%s-%d", payload.Type, payload.Timestamp)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	pa := &pendingAction{action: action, actionTs: actionTs, pre: payload.PreState}
	r.pending[key] = pa
	pa.timer = time.AfterFunc(r.cfg.VerificationDelay, func() { r.finalize(key) })
}

func (r *Recorder) trackNetworkRequest(e *network.EventRequestWillBeSent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.network = append(r.network, models.NetworkEntry{
		URL: e.Request.URL, Method: e.Request.Method, Type: e.Type.String(), Timestamp: e.Timestamp.Time(),
	})
	r.trimNetworkLocked()
}

func (r *Recorder) finishNetworkRequest(requestID string, failed bool, errText string) {
	// Correlation with the original request is by timing window at
	// finalize time, not by request id, since the verifier only cares
	// about "was there significant traffic", not individual completions.
	_ = requestID
	_ = failed
	_ = errText
}

func (r *Recorder) trimNetworkLocked() {
	cutoff := time.Now().Add(-2 * r.cfg.NetworkWindow)
	i := 0
	for ; i < len(r.network); i++ {
		if r.network[i].Timestamp.After(cutoff) {
			break
		}
	}
	r.network = r.network[i:]
}

func (r *Recorder) finalize(key string) {
	r.mu.Lock()
	pa, ok := r.pending[key]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.pending, key)
	windowEnd := pa.actionTs.Add(r.cfg.NetworkWindow)
	var window []models.NetworkEntry
	for _, n := range r.network {
		if !n.Timestamp.Before(pa.actionTs) && !n.Timestamp.After(windowEnd) {
			window = append(window, n)
		}
	}
	r.mu.Unlock()

	significant := classifyNetwork(window)
	post := r.evaluatePostActionState(context.Background())
	effects := buildEffects(pa.pre, post, significant)

	pa.action.Effects = &effects
	pa.action.Verified = true
	pa.action.VerificationTime = time.Since(pa.actionTs)

	r.mu.Lock()
	r.actions = append(r.actions, pa.action)
	r.mu.Unlock()
}

func (r *Recorder) finalizeDue(_ time.Time) {
	r.mu.Lock()
	keys := make([]string, 0, len(r.pending))
	for k := range r.pending {
		keys = append(keys, k)
	}
	r.mu.Unlock()
	for _, k := range keys {
		r.finalize(k)
	}
}

func (r *Recorder) evaluatePostActionState(ctx context.Context) postActionState {
	const script = `JSON.stringify({
		url: location.href, scrollX: window.scrollX, scrollY: window.scrollY,
		focusedTag: document.activeElement ? document.activeElement.tagName : '',
		modalCount: document.querySelectorAll('[role="dialog"],[role="alertdialog"],.modal:not([hidden])').length
	})`
	var raw string
	if err := r.sess.Evaluate(ctx, script, &raw); err != nil {
		return postActionState{}
	}
	var state struct {
		URL        string  `json:"url"`
		ScrollX    float64 `json:"scrollX"`
		ScrollY    float64 `json:"scrollY"`
		FocusedTag string  `json:"focusedTag"`
		ModalCount int     `json:"modalCount"`
	}
	if json.Unmarshal([]byte(raw), &state) != nil {
		return postActionState{}
	}
	return postActionState{URL: state.URL, ScrollX: state.ScrollX, ScrollY: state.ScrollY, FocusedTag: state.FocusedTag, ModalCount: state.ModalCount}
}

// handleNavigation emits an always-verified navigate action for top-level
// frame navigations.
func (r *Recorder) handleNavigation(e *page.EventFrameNavigated) {
	if e.Frame.ParentID != "" {
		return // not a top-level frame
	}
	url := e.Frame.URL
	if shouldSkipNavigation(url) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	r.actions = append(r.actions, models.RecordedAction{
		Type:             models.ActionNavigate,
		Timestamp:        time.Now(),
		Value:            url,
		Verified:         true,
		VerificationTime: 0,
	})
}

func shouldSkipNavigation(url string) bool {
	for _, scheme := range navigationExcludedSchemes {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	for _, s := range navigationExcludedSubstrings {
		if strings.Contains(url, s) {
			return true
		}
	}
	return false
}

func (r *Recorder) reinject() {
	if err := r.sess.InjectOnNewDocument(context.Background(), trackerScript); err != nil && r.log != nil {
		r.log.Warn(context.Background(), "failed to reinject recorder tracker", "error", err)
	}
}
