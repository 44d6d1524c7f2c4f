// Package cdpsession owns the single CDP debugger attachment for a tab and
// fans out its domain events to the Browser Context Provider and the Action
// Recorder & Verifier.
package cdpsession

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	engerrors "github.com/browzer-labs/browzer-agent/internal/errors"
)

// Domains enabled on attach: DOM, Page (with lifecycle events), Runtime,
// Network, Log. The Console domain is not enabled.
var domains = []string{"dom", "page", "runtime", "network", "log"}

// EventHandler receives a typed CDP event as delivered by chromedp's target
// listener (e.g. *runtime.EventConsoleAPICalled, *network.EventLoadingFailed).
type EventHandler func(ev any)

// Session is the single CDP debugger owner for one tab. The Context
// Provider and the Recorder share it; whichever attaches first wins, and a
// detach flips IsAttached to false without losing already-collected state
// owned by those callers.
type Session struct {
	mu         sync.RWMutex
	allocCtx   context.Context
	allocCancel context.CancelFunc
	taskCtx    context.Context
	taskCancel context.CancelFunc
	targetID   string
	lastURL    string
	lastTitle  string
	attached   bool

	handlersMu sync.RWMutex
	handlers   []EventHandler
}

// New creates an unattached Session.
func New() *Session {
	return &Session{}
}

// Attach connects to remoteAddr (a `--remote-debugging-port` endpoint) and
// binds to targetID, enabling the required CDP domains and installing the
// event fan-out. If targetID is empty, chromedp attaches to the first page
// target it finds.
func (s *Session) Attach(ctx context.Context, remoteAddr, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, remoteAddr)

	var opts []chromedp.ContextOption
	if targetID != "" {
		opts = append(opts, chromedp.WithTargetID(target.ID(targetID)))
	}
	taskCtx, taskCancel := chromedp.NewContext(allocCtx, opts...)

	if err := chromedp.Run(taskCtx, enableDomains()); err != nil {
		taskCancel()
		allocCancel()
		return fmt.Errorf("enable cdp domains: %w", err)
	}

	chromedp.ListenTarget(taskCtx, func(ev any) {
		s.handlersMu.RLock()
		handlers := append([]EventHandler(nil), s.handlers...)
		s.handlersMu.RUnlock()
		for _, h := range handlers {
			h(ev)
		}
	})

	s.allocCtx, s.allocCancel = allocCtx, allocCancel
	s.taskCtx, s.taskCancel = taskCtx, taskCancel
	s.targetID = targetID
	s.attached = true
	return nil
}

func enableDomains() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := dom.Enable().Do(ctx); err != nil {
			return err
		}
		if err := page.Enable().Do(ctx); err != nil {
			return err
		}
		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return err
		}
		if err := runtime.Enable().Do(ctx); err != nil {
			return err
		}
		if err := network.Enable().Do(ctx); err != nil {
			return err
		}
		return log.Enable().Do(ctx)
	})
}

// OnEvent registers a handler invoked for every CDP event this session
// receives. Handlers run synchronously on the event-dispatch goroutine and
// must not block.
func (s *Session) OnEvent(h EventHandler) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.handlers = append(s.handlers, h)
}

// IsAttached reports whether the debugger is currently attached.
func (s *Session) IsAttached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attached
}

// Evaluate runs a JavaScript expression in the page and decodes the result
// into out (pass a pointer, as with chromedp.Evaluate).
func (s *Session) Evaluate(ctx context.Context, expr string, out any) error {
	s.mu.RLock()
	taskCtx := s.taskCtx
	attached := s.attached
	s.mu.RUnlock()
	if !attached {
		return engerrors.ErrDebuggerDetached
	}
	return chromedp.Run(taskCtx, chromedp.Evaluate(expr, out))
}

// InjectOnNewDocument installs script to run on every future document load
// in this target, via Page.addScriptToEvaluateOnNewDocument, and also runs
// it against the current document so an already-loaded page is covered.
func (s *Session) InjectOnNewDocument(ctx context.Context, script string) error {
	s.mu.RLock()
	taskCtx := s.taskCtx
	attached := s.attached
	s.mu.RUnlock()
	if !attached {
		return engerrors.ErrDebuggerDetached
	}
	return chromedp.Run(taskCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
			return err
		}
		_, _, err := runtime.Evaluate(script).Do(ctx)
		return err
	}))
}

// CaptureScreenshot returns a PNG-encoded screenshot of the current page,
// via Page.captureScreenshot. Used by the take_screenshot tool and the
// Context Provider's optional visual context.
func (s *Session) CaptureScreenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	s.mu.RLock()
	taskCtx := s.taskCtx
	attached := s.attached
	s.mu.RUnlock()
	if !attached {
		return nil, engerrors.ErrDebuggerDetached
	}
	var buf []byte
	err := chromedp.Run(taskCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		shot := page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng)
		if fullPage {
			shot = shot.WithCaptureBeyondViewport(true)
		}
		data, err := shot.Do(ctx)
		if err != nil {
			return err
		}
		buf = data
		return nil
	}))
	return buf, err
}

// GetDocument returns the root DOM node, used by the DOM Pruner and
// Accessibility Tree Extractor as their traversal entrypoint.
func (s *Session) GetDocument(ctx context.Context) (*cdp.Node, error) {
	s.mu.RLock()
	taskCtx := s.taskCtx
	attached := s.attached
	s.mu.RUnlock()
	if !attached {
		return nil, engerrors.ErrDebuggerDetached
	}
	var root *cdp.Node
	err := chromedp.Run(taskCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		root, err = dom.GetDocument().Do(ctx)
		return err
	}))
	return root, err
}

// Reattach attempts to reconnect after a detected detach, reusing the last
// known target id. Callers (Context Provider, Recorder) invoke this on their
// own failure path as a single reattempt; it never retries in a loop.
func (s *Session) Reattach(ctx context.Context, remoteAddr string) error {
	s.mu.RLock()
	targetID := s.targetID
	s.mu.RUnlock()
	return s.Attach(ctx, remoteAddr, targetID)
}

// Detach tears down the debugger connection. Already-collected state owned
// by callers (buffered console/network entries, captured actions) is left
// untouched; only the live connection is closed.
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taskCancel != nil {
		s.taskCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.attached = false
}

// LastKnownPage returns the last URL/title observed before a detach, used as
// the Context Provider's fallback metadata source when a fresh fetch fails.
func (s *Session) LastKnownPage() (url, title string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastURL, s.lastTitle
}

// NoteLastKnownPage records the most recent URL/title so a later detach has
// a fallback to serve.
func (s *Session) NoteLastKnownPage(url, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastURL, s.lastTitle = url, title
}
