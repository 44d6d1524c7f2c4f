// Package browsercontext attaches to CDP, buffers console & network events,
// and assembles token-budgeted context snapshots.
package browsercontext

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"

	"github.com/browzer-labs/browzer-agent/internal/a11ytree"
	"github.com/browzer-labs/browzer-agent/internal/cdpsession"
	"github.com/browzer-labs/browzer-agent/internal/domprune"
	"github.com/browzer-labs/browzer-agent/internal/observability"
	"github.com/browzer-labs/browzer-agent/pkg/models"
)

const (
	consoleBufferCap = 100
	networkBufferCap = 100
)

// Options selects which parts of a snapshot to assemble.
type Options struct {
	IncludePrunedDOM         bool
	IncludeAccessibilityTree bool
	IncludeConsoleLogs       bool
	IncludeNetworkActivity   bool
	IncludeScreenshot        bool
	IncludeVisualDescription bool
	MaxElements              int
	MaxConsoleEntries        int
	MaxNetworkEntries        int
	ActivitySince            time.Time
}

// Provider owns the CDP debugger for a tab, buffering console and network
// activity so getContext can assemble a consistent snapshot on demand.
type Provider struct {
	sess       *cdpsession.Session
	remoteAddr string
	log        *observability.Logger

	mu          sync.Mutex
	console     *ringBuffer[models.ConsoleEntry]
	networkBuf  *ringBuffer[models.NetworkEntry]
	pendingReqs map[string]*models.NetworkEntry
}

// New creates a Provider bound to an existing CDP session (shared with the
// Recorder under the single-debugger-owner rule).
func New(sess *cdpsession.Session, remoteAddr string, logger *observability.Logger) *Provider {
	return &Provider{
		sess:        sess,
		remoteAddr:  remoteAddr,
		log:         logger,
		console:     newRingBuffer[models.ConsoleEntry](consoleBufferCap),
		networkBuf:  newRingBuffer[models.NetworkEntry](networkBufferCap),
		pendingReqs: make(map[string]*models.NetworkEntry),
	}
}

// StartMonitoring attaches the CDP debugger (if not already attached by the
// Recorder) and installs listeners that append to the bounded ring buffers.
func (p *Provider) StartMonitoring(ctx context.Context, targetID string) error {
	if !p.sess.IsAttached() {
		if err := p.sess.Attach(ctx, p.remoteAddr, targetID); err != nil {
			return fmt.Errorf("attach cdp session: %w", err)
		}
	}
	p.sess.OnEvent(p.handleEvent)
	return nil
}

func (p *Provider) handleEvent(ev any) {
	switch e := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		p.appendConsoleFromRuntime(e)
	case *log.EventEntryAdded:
		p.appendConsoleFromLog(e)
	case *network.EventRequestWillBeSent:
		p.trackRequest(e)
	case *network.EventResponseReceived:
		p.trackResponse(e)
	case *network.EventLoadingFinished:
		p.finishLoading(e.RequestID, false, "")
	case *network.EventLoadingFailed:
		p.finishLoading(e.RequestID, true, e.ErrorText)
	}
}

func (p *Provider) appendConsoleFromRuntime(e *runtime.EventConsoleAPICalled) {
	var msg strings.Builder
	for i, a := range e.Args {
		if i > 0 {
			msg.WriteByte(' ')
		}
		if a.Value != nil {
			var v any
			if json.Unmarshal(a.Value, &v) == nil {
				msg.WriteString(fmt.Sprint(v))
				continue
			}
		}
		msg.WriteString(a.Description)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.console.push(models.ConsoleEntry{
		Level:     consoleLevelFromRuntime(e.Type.String()),
		Message:   msg.String(),
		Timestamp: e.Timestamp.Time(),
		Source:    "console",
	})
}

func (p *Provider) appendConsoleFromLog(e *log.EventEntryAdded) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.console.push(models.ConsoleEntry{
		Level:     consoleLevelFromLog(string(e.Entry.Level)),
		Message:   e.Entry.Text,
		Timestamp: e.Entry.Timestamp.Time(),
		Source:    e.Entry.Source.String(),
	})
}

func consoleLevelFromRuntime(t string) models.ConsoleLevel {
	switch t {
	case "error":
		return models.ConsoleError
	case "warning":
		return models.ConsoleWarn
	case "debug":
		return models.ConsoleDebug
	case "info":
		return models.ConsoleInfo
	default:
		return models.ConsoleLog
	}
}

func consoleLevelFromLog(l string) models.ConsoleLevel {
	switch l {
	case "error":
		return models.ConsoleError
	case "warning":
		return models.ConsoleWarn
	case "verbose":
		return models.ConsoleDebug
	case "info":
		return models.ConsoleInfo
	default:
		return models.ConsoleLog
	}
}

// trackRequest opens a pending network entry keyed by request id, so the
// matching response/finish/failure can be correlated later.
func (p *Provider) trackRequest(e *network.EventRequestWillBeSent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pendingReqs[string(e.RequestID)] = &models.NetworkEntry{
		URL:       e.Request.URL,
		Method:    e.Request.Method,
		Type:      e.Type.String(),
		Timestamp: e.Timestamp.Time(),
	}
}

func (p *Provider) trackResponse(e *network.EventResponseReceived) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.pendingReqs[string(e.RequestID)]
	if !ok {
		return
	}
	entry.Status = int(e.Response.Status)
}

func (p *Provider) finishLoading(id network.RequestID, failed bool, errText string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.pendingReqs[string(id)]
	if !ok {
		return
	}
	delete(p.pendingReqs, string(id))
	entry.Failed = failed
	entry.ErrorText = errText
	p.networkBuf.push(*entry)
}

// GetContext assembles a BrowserContext per opts. It never returns an
// error: extraction failures degrade to a minimal snapshot with best-effort
// metadata.
func (p *Provider) GetContext(ctx context.Context, opts Options) *models.BrowserContext {
	out := &models.BrowserContext{CapturedAt: time.Now()}

	page, err := p.fetchPageMetadata(ctx)
	if err != nil {
		if !p.sess.IsAttached() {
			_ = p.sess.Reattach(ctx, p.remoteAddr)
			page, err = p.fetchPageMetadata(ctx)
		}
		if err != nil {
			url, title := p.sess.LastKnownPage()
			page = models.PageMetadata{URL: url, Title: title}
		}
	} else {
		p.sess.NoteLastKnownPage(page.URL, page.Title)
	}
	out.Page = page

	if opts.IncludePrunedDOM {
		maxEl := opts.MaxElements
		if maxEl == 0 {
			maxEl = domprune.DefaultOptions().MaxElements
		}
		elements, _ := domprune.Extract(ctx, p.sess, domprune.Options{
			MaxElements: maxEl, MinInteractivityScore: 30, MaxDepth: 5,
		})
		out.InteractiveElements = elements
	}

	if opts.IncludeAccessibilityTree {
		res := a11ytree.Extract(ctx, p.sess, a11ytree.DefaultOptions())
		out.AccessibilityTree = res.Tree
	}

	if opts.IncludeConsoleLogs {
		out.ConsoleLogs = p.recentConsole(opts.MaxConsoleEntries, opts.ActivitySince)
	}

	if opts.IncludeNetworkActivity {
		out.NetworkActivity = p.recentNetwork(opts.MaxNetworkEntries, opts.ActivitySince)
	}

	out.ElementCounts = countElements(out.InteractiveElements)

	return out
}

func countElements(elements []models.InteractiveElement) models.ElementCounts {
	counts := models.ElementCounts{Total: len(elements)}
	for _, e := range elements {
		if e.IsInteractive {
			counts.Interactive++
		}
		if e.IsVisible {
			counts.Visible++
		}
	}
	return counts
}

func (p *Provider) recentConsole(limit int, since time.Time) []models.ConsoleEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	entries := p.console.since(since, func(e models.ConsoleEntry) time.Time { return e.Timestamp })
	return tailSlice(entries, limit)
}

func (p *Provider) recentNetwork(limit int, since time.Time) []models.NetworkEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	entries := p.networkBuf.since(since, func(e models.NetworkEntry) time.Time { return e.Timestamp })
	return tailSlice(entries, limit)
}

func tailSlice[T any](items []T, limit int) []T {
	if limit <= 0 || len(items) <= limit {
		return items
	}
	return items[len(items)-limit:]
}

func (p *Provider) fetchPageMetadata(ctx context.Context) (models.PageMetadata, error) {
	const script = `JSON.stringify({
		url: document.location.href,
		title: document.title,
		readyState: document.readyState,
		scrollX: window.scrollX,
		scrollY: window.scrollY,
		viewportWidth: window.innerWidth,
		viewportHeight: window.innerHeight
	})`

	var raw string
	if err := p.sess.Evaluate(ctx, script, &raw); err != nil {
		return models.PageMetadata{}, err
	}
	var meta struct {
		URL            string  `json:"url"`
		Title          string  `json:"title"`
		ReadyState     string  `json:"readyState"`
		ScrollX        float64 `json:"scrollX"`
		ScrollY        float64 `json:"scrollY"`
		ViewportWidth  int     `json:"viewportWidth"`
		ViewportHeight int     `json:"viewportHeight"`
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return models.PageMetadata{}, err
	}
	return models.PageMetadata{
		URL: meta.URL, Title: meta.Title, ReadyState: meta.ReadyState,
		ScrollX: meta.ScrollX, ScrollY: meta.ScrollY,
		ViewportWidth: meta.ViewportWidth, ViewportHeight: meta.ViewportHeight,
	}, nil
}
