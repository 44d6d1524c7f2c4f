package toolregistry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/browzer-labs/browzer-agent/internal/observability"
	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// cdpSession is the subset of *cdpsession.Session these tools need; declared
// locally, matching the pattern in domprune/extract.go and a11ytree/tree.go,
// so this package never imports cdpsession directly.
type cdpSession interface {
	Evaluate(ctx context.Context, expr string, out any) error
	CaptureScreenshot(ctx context.Context, fullPage bool) ([]byte, error)
}

const pollInterval = 100 * time.Millisecond

// RegisterBrowserTools registers all 18 browser-automation tools against
// sess, with a per-tool timeout/priority split: screenshot and wait get
// longer timeouts than simple interaction tools.
func RegisterBrowserTools(reg *Registry, sess cdpSession, log *observability.Logger) {
	b := base{sess: sess, log: log}

	reg.Register(&navigateTool{b}, ExecConfig{Timeout: 30 * time.Second, Priority: 10})
	reg.Register(&goBackTool{b}, ExecConfig{Timeout: 15 * time.Second, Priority: 10})
	reg.Register(&goForwardTool{b}, ExecConfig{Timeout: 15 * time.Second, Priority: 10})
	reg.Register(&reloadTool{b}, ExecConfig{Timeout: 15 * time.Second, Priority: 10})
	reg.Register(&clickTool{b}, ExecConfig{Timeout: 5 * time.Second, Priority: 5})
	reg.Register(&typeTextTool{b}, ExecConfig{Timeout: 5 * time.Second, Priority: 5})
	reg.Register(&pressKeyTool{b}, ExecConfig{Timeout: 5 * time.Second, Priority: 5})
	reg.Register(&selectOptionTool{b}, ExecConfig{Timeout: 5 * time.Second, Priority: 5})
	reg.Register(&checkCheckboxTool{b}, ExecConfig{Timeout: 5 * time.Second, Priority: 5})
	reg.Register(&submitFormTool{b}, ExecConfig{Timeout: 10 * time.Second, Priority: 5})
	reg.Register(&getPageInfoTool{b}, ExecConfig{Timeout: 5 * time.Second, Priority: 1})
	reg.Register(&findElementTool{b}, ExecConfig{Timeout: 5 * time.Second, Priority: 1})
	reg.Register(&verifyElementExistsTool{b}, ExecConfig{Timeout: 5 * time.Second, Priority: 1})
	reg.Register(&verifyTextPresentTool{b}, ExecConfig{Timeout: 5 * time.Second, Priority: 1})
	reg.Register(&getElementTextTool{b}, ExecConfig{Timeout: 5 * time.Second, Priority: 1})
	reg.Register(&getElementAttributeTool{b}, ExecConfig{Timeout: 5 * time.Second, Priority: 1})
	reg.Register(&waitForElementTool{b}, ExecConfig{Timeout: 30 * time.Second, Priority: 3})
	reg.Register(&takeScreenshotTool{b}, ExecConfig{Timeout: 20 * time.Second, Priority: 1})
}

// base is embedded by every tool, carrying the shared CDP session and
// logger threaded through every action handler.
type base struct {
	sess cdpSession
	log  *observability.Logger
}

// evalJSON evaluates script (expected to return a JSON string) and decodes
// it into out.
func (b base) evalJSON(ctx context.Context, script string, out any) error {
	var raw string
	if err := b.sess.Evaluate(ctx, script, &raw); err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

func ok(message string, data any) (*models.ToolResult, error) {
	var raw json.RawMessage
	if data != nil {
		raw, _ = json.Marshal(data)
	}
	return &models.ToolResult{Success: true, Message: message, Data: raw}, nil
}

func fail(format string, args ...any) (*models.ToolResult, error) {
	return &models.ToolResult{Success: false, Error: fmt.Sprintf(format, args...)}, nil
}

// selectorParams is the argument fragment shared by every selector-accepting
// tool's params struct.
type selectorParams struct {
	SelectorStrategy string `json:"selector_strategy"`
	SelectorValue    string `json:"selector_value"`
}

func decode[T any](params json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(params, &v)
	return v, err
}

// --- navigate_to_url ---

type navigateTool struct{ base }

func (t *navigateTool) Name() string             { return "navigate_to_url" }
func (t *navigateTool) Description() string      { return "Navigate the current page to the given URL." }
func (t *navigateTool) Schema() json.RawMessage   { return schemaFor(t.Name()) }

func (t *navigateTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	p, err := decode[struct {
		URL         string `json:"url"`
		WaitForLoad bool   `json:"wait_for_load"`
	}](params)
	if err != nil {
		return fail("invalid parameters: %v", err)
	}

	script := fmt.Sprintf(`(function() { window.location.href = %s; return "{}"; })()`, jsString(p.URL))
	var discard string
	if err := t.sess.Evaluate(ctx, script, &discard); err != nil {
		return fail("navigation failed: %v", err)
	}

	if p.WaitForLoad {
		if err := t.waitReady(ctx); err != nil {
			return fail("navigation did not reach readyState complete: %v", err)
		}
	}
	return ok(fmt.Sprintf("navigated to %s", p.URL), map[string]string{"url": p.URL})
}

func (t *navigateTool) waitReady(ctx context.Context) error {
	const script = `document.readyState`
	for {
		var state string
		if err := t.sess.Evaluate(ctx, script, &state); err == nil && state == "complete" {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// --- go_back / go_forward / reload_page ---

type goBackTool struct{ base }

func (t *goBackTool) Name() string           { return "go_back" }
func (t *goBackTool) Description() string    { return "Navigate back in the browser history." }
func (t *goBackTool) Schema() json.RawMessage { return schemaFor(t.Name()) }
func (t *goBackTool) Execute(ctx context.Context, _ json.RawMessage) (*models.ToolResult, error) {
	var discard string
	if err := t.sess.Evaluate(ctx, `(function(){ history.back(); return "{}"; })()`, &discard); err != nil {
		return fail("go back failed: %v", err)
	}
	return ok("navigated back", nil)
}

type goForwardTool struct{ base }

func (t *goForwardTool) Name() string           { return "go_forward" }
func (t *goForwardTool) Description() string    { return "Navigate forward in the browser history." }
func (t *goForwardTool) Schema() json.RawMessage { return schemaFor(t.Name()) }
func (t *goForwardTool) Execute(ctx context.Context, _ json.RawMessage) (*models.ToolResult, error) {
	var discard string
	if err := t.sess.Evaluate(ctx, `(function(){ history.forward(); return "{}"; })()`, &discard); err != nil {
		return fail("go forward failed: %v", err)
	}
	return ok("navigated forward", nil)
}

type reloadTool struct{ base }

func (t *reloadTool) Name() string           { return "reload_page" }
func (t *reloadTool) Description() string    { return "Reload the current page." }
func (t *reloadTool) Schema() json.RawMessage { return schemaFor(t.Name()) }
func (t *reloadTool) Execute(ctx context.Context, _ json.RawMessage) (*models.ToolResult, error) {
	var discard string
	if err := t.sess.Evaluate(ctx, `(function(){ location.reload(); return "{}"; })()`, &discard); err != nil {
		return fail("reload failed: %v", err)
	}
	return ok("page reloaded", nil)
}

// --- click_element ---

type clickTool struct{ base }

func (t *clickTool) Name() string           { return "click_element" }
func (t *clickTool) Description() string    { return "Click an element located by a selector strategy." }
func (t *clickTool) Schema() json.RawMessage { return schemaFor(t.Name()) }

func (t *clickTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	p, err := decode[struct {
		selectorParams
		ClickCount int `json:"click_count"`
	}](params)
	if err != nil {
		return fail("invalid parameters: %v", err)
	}
	clickCount := p.ClickCount
	if clickCount <= 0 {
		clickCount = 1
	}

	script := resolveFn + fmt.Sprintf(`
(function() {
  var el = __browzerResolve(%s, %s);
  if (!el) return JSON.stringify({found: false});
  for (var i = 0; i < %d; i++) el.click();
  return JSON.stringify({found: true});
})()`, jsString(p.SelectorStrategy), jsString(p.SelectorValue), clickCount)

	var res struct {
		Found bool `json:"found"`
	}
	if err := t.evalJSON(ctx, script, &res); err != nil {
		return fail("click failed: %v", err)
	}
	if !res.Found {
		return fail("no element matched %s=%s", p.SelectorStrategy, p.SelectorValue)
	}
	return ok(fmt.Sprintf("clicked element %s=%s", p.SelectorStrategy, p.SelectorValue), nil)
}

// --- type_text ---

type typeTextTool struct{ base }

func (t *typeTextTool) Name() string           { return "type_text" }
func (t *typeTextTool) Description() string    { return "Type text into an input or textarea element." }
func (t *typeTextTool) Schema() json.RawMessage { return schemaFor(t.Name()) }

func (t *typeTextTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	p, err := decode[struct {
		selectorParams
		Text  string `json:"text"`
		Clear bool   `json:"clear"`
	}](params)
	if err != nil {
		return fail("invalid parameters: %v", err)
	}

	script := resolveFn + fmt.Sprintf(`
(function() {
  var el = __browzerResolve(%s, %s);
  if (!el) return JSON.stringify({found: false});
  if (%t) el.value = '';
  el.value = el.value + %s;
  el.dispatchEvent(new Event('input', {bubbles: true}));
  el.dispatchEvent(new Event('change', {bubbles: true}));
  return JSON.stringify({found: true});
})()`, jsString(p.SelectorStrategy), jsString(p.SelectorValue), p.Clear, jsString(p.Text))

	var res struct {
		Found bool `json:"found"`
	}
	if err := t.evalJSON(ctx, script, &res); err != nil {
		return fail("type failed: %v", err)
	}
	if !res.Found {
		return fail("no element matched %s=%s", p.SelectorStrategy, p.SelectorValue)
	}
	return ok(fmt.Sprintf("typed text into %s=%s", p.SelectorStrategy, p.SelectorValue), nil)
}

// --- press_key ---

type pressKeyTool struct{ base }

func (t *pressKeyTool) Name() string           { return "press_key" }
func (t *pressKeyTool) Description() string    { return "Dispatch a key press, optionally targeted at a selected element." }
func (t *pressKeyTool) Schema() json.RawMessage { return schemaFor(t.Name()) }

func (t *pressKeyTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	p, err := decode[struct {
		selectorParams
		Key string `json:"key"`
	}](params)
	if err != nil {
		return fail("invalid parameters: %v", err)
	}

	var targetExpr string
	if p.SelectorValue != "" {
		targetExpr = fmt.Sprintf(`__browzerResolve(%s, %s) || document.activeElement || document.body`, jsString(p.SelectorStrategy), jsString(p.SelectorValue))
	} else {
		targetExpr = `document.activeElement || document.body`
	}

	script := resolveFn + fmt.Sprintf(`
(function() {
  var el = %s;
  if (!el) return JSON.stringify({found: false});
  var ev = new KeyboardEvent('keydown', {key: %s, bubbles: true});
  el.dispatchEvent(ev);
  return JSON.stringify({found: true});
})()`, targetExpr, jsString(p.Key))

	var res struct {
		Found bool `json:"found"`
	}
	if err := t.evalJSON(ctx, script, &res); err != nil {
		return fail("press key failed: %v", err)
	}
	if !res.Found {
		return fail("no target element for key press")
	}
	return ok(fmt.Sprintf("pressed key %s", p.Key), nil)
}

// --- select_option ---

type selectOptionTool struct{ base }

func (t *selectOptionTool) Name() string           { return "select_option" }
func (t *selectOptionTool) Description() string    { return "Select an option in a <select> element by value or visible text." }
func (t *selectOptionTool) Schema() json.RawMessage { return schemaFor(t.Name()) }

func (t *selectOptionTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	p, err := decode[struct {
		selectorParams
		Value string `json:"value"`
	}](params)
	if err != nil {
		return fail("invalid parameters: %v", err)
	}

	script := resolveFn + fmt.Sprintf(`
(function() {
  var el = __browzerResolve(%s, %s);
  if (!el || el.tagName !== 'SELECT') return JSON.stringify({found: false});
  var matched = false;
  for (var i = 0; i < el.options.length; i++) {
    var o = el.options[i];
    if (o.value === %s || o.text === %s) { el.selectedIndex = i; matched = true; break; }
  }
  if (!matched) return JSON.stringify({found: true, matched: false});
  el.dispatchEvent(new Event('change', {bubbles: true}));
  return JSON.stringify({found: true, matched: true});
})()`, jsString(p.SelectorStrategy), jsString(p.SelectorValue), jsString(p.Value), jsString(p.Value))

	var res struct {
		Found   bool `json:"found"`
		Matched bool `json:"matched"`
	}
	if err := t.evalJSON(ctx, script, &res); err != nil {
		return fail("select failed: %v", err)
	}
	if !res.Found {
		return fail("no select element matched %s=%s", p.SelectorStrategy, p.SelectorValue)
	}
	if !res.Matched {
		return fail("no option matching %q in %s=%s", p.Value, p.SelectorStrategy, p.SelectorValue)
	}
	return ok(fmt.Sprintf("selected option %q", p.Value), nil)
}

// --- check_checkbox ---

type checkCheckboxTool struct{ base }

func (t *checkCheckboxTool) Name() string           { return "check_checkbox" }
func (t *checkCheckboxTool) Description() string    { return "Set a checkbox or radio input's checked state." }
func (t *checkCheckboxTool) Schema() json.RawMessage { return schemaFor(t.Name()) }

func (t *checkCheckboxTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	p, err := decode[struct {
		selectorParams
		Checked *bool `json:"checked"`
	}](params)
	if err != nil {
		return fail("invalid parameters: %v", err)
	}
	checked := true
	if p.Checked != nil {
		checked = *p.Checked
	}

	script := resolveFn + fmt.Sprintf(`
(function() {
  var el = __browzerResolve(%s, %s);
  if (!el) return JSON.stringify({found: false});
  if (el.checked !== %t) { el.checked = %t; el.dispatchEvent(new Event('change', {bubbles: true})); }
  return JSON.stringify({found: true});
})()`, jsString(p.SelectorStrategy), jsString(p.SelectorValue), checked, checked)

	var res struct {
		Found bool `json:"found"`
	}
	if err := t.evalJSON(ctx, script, &res); err != nil {
		return fail("checkbox toggle failed: %v", err)
	}
	if !res.Found {
		return fail("no element matched %s=%s", p.SelectorStrategy, p.SelectorValue)
	}
	return ok(fmt.Sprintf("set checked=%t on %s=%s", checked, p.SelectorStrategy, p.SelectorValue), nil)
}

// --- submit_form ---

type submitFormTool struct{ base }

func (t *submitFormTool) Name() string           { return "submit_form" }
func (t *submitFormTool) Description() string    { return "Submit the form containing or matching the selected element." }
func (t *submitFormTool) Schema() json.RawMessage { return schemaFor(t.Name()) }

func (t *submitFormTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	p, err := decode[selectorParams](params)
	if err != nil {
		return fail("invalid parameters: %v", err)
	}

	script := resolveFn + fmt.Sprintf(`
(function() {
  var el = __browzerResolve(%s, %s);
  var form = el && (el.tagName === 'FORM' ? el : el.closest('form'));
  if (!form) return JSON.stringify({found: false});
  if (typeof form.requestSubmit === 'function') form.requestSubmit(); else form.submit();
  return JSON.stringify({found: true});
})()`, jsString(p.SelectorStrategy), jsString(p.SelectorValue))

	var res struct {
		Found bool `json:"found"`
	}
	if err := t.evalJSON(ctx, script, &res); err != nil {
		return fail("submit failed: %v", err)
	}
	if !res.Found {
		return fail("no form found for %s=%s", p.SelectorStrategy, p.SelectorValue)
	}
	return ok("form submitted", nil)
}

// --- get_page_info ---

type getPageInfoTool struct{ base }

func (t *getPageInfoTool) Name() string           { return "get_page_info" }
func (t *getPageInfoTool) Description() string    { return "Return the current URL, title, and document ready state." }
func (t *getPageInfoTool) Schema() json.RawMessage { return schemaFor(t.Name()) }

func (t *getPageInfoTool) Execute(ctx context.Context, _ json.RawMessage) (*models.ToolResult, error) {
	const script = `JSON.stringify({
		url: document.location.href,
		title: document.title,
		readyState: document.readyState
	})`
	var info struct {
		URL        string `json:"url"`
		Title      string `json:"title"`
		ReadyState string `json:"readyState"`
	}
	if err := t.evalJSON(ctx, script, &info); err != nil {
		return fail("get page info failed: %v", err)
	}
	return ok(fmt.Sprintf("on %s", info.URL), info)
}

// --- find_element ---

type findElementTool struct{ base }

func (t *findElementTool) Name() string           { return "find_element" }
func (t *findElementTool) Description() string    { return "Locate an element and report its tag, text, and visibility." }
func (t *findElementTool) Schema() json.RawMessage { return schemaFor(t.Name()) }

func (t *findElementTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	p, err := decode[selectorParams](params)
	if err != nil {
		return fail("invalid parameters: %v", err)
	}

	script := resolveFn + fmt.Sprintf(`
(function() {
  var el = __browzerResolve(%s, %s);
  if (!el) return JSON.stringify({found: false});
  var r = el.getBoundingClientRect();
  return JSON.stringify({
    found: true,
    tag: el.tagName.toLowerCase(),
    text: (el.innerText || el.textContent || '').trim().slice(0, 200),
    visible: r.width > 0 && r.height > 0
  });
})()`, jsString(p.SelectorStrategy), jsString(p.SelectorValue))

	var res struct {
		Found   bool   `json:"found"`
		Tag     string `json:"tag"`
		Text    string `json:"text"`
		Visible bool   `json:"visible"`
	}
	if err := t.evalJSON(ctx, script, &res); err != nil {
		return fail("find element failed: %v", err)
	}
	if !res.Found {
		return fail("no element matched %s=%s", p.SelectorStrategy, p.SelectorValue)
	}
	return ok(fmt.Sprintf("found <%s> %q", res.Tag, res.Text), res)
}

// --- verify_element_exists ---

type verifyElementExistsTool struct{ base }

func (t *verifyElementExistsTool) Name() string           { return "verify_element_exists" }
func (t *verifyElementExistsTool) Description() string    { return "Check whether an element matching a selector strategy exists." }
func (t *verifyElementExistsTool) Schema() json.RawMessage { return schemaFor(t.Name()) }

func (t *verifyElementExistsTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	p, err := decode[selectorParams](params)
	if err != nil {
		return fail("invalid parameters: %v", err)
	}

	script := resolveFn + fmt.Sprintf(`
(function() {
  var el = __browzerResolve(%s, %s);
  return JSON.stringify({exists: !!el});
})()`, jsString(p.SelectorStrategy), jsString(p.SelectorValue))

	var res struct {
		Exists bool `json:"exists"`
	}
	if err := t.evalJSON(ctx, script, &res); err != nil {
		return fail("verify element exists failed: %v", err)
	}
	return ok(fmt.Sprintf("exists=%t for %s=%s", res.Exists, p.SelectorStrategy, p.SelectorValue), res)
}

// --- verify_text_present ---

type verifyTextPresentTool struct{ base }

func (t *verifyTextPresentTool) Name() string           { return "verify_text_present" }
func (t *verifyTextPresentTool) Description() string    { return "Check whether the given text appears anywhere on the page." }
func (t *verifyTextPresentTool) Schema() json.RawMessage { return schemaFor(t.Name()) }

func (t *verifyTextPresentTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	p, err := decode[struct {
		Text string `json:"text"`
	}](params)
	if err != nil {
		return fail("invalid parameters: %v", err)
	}

	script := fmt.Sprintf(`
(function() {
  var body = document.body.innerText || document.body.textContent || '';
  return JSON.stringify({present: body.indexOf(%s) !== -1});
})()`, jsString(p.Text))

	var res struct {
		Present bool `json:"present"`
	}
	if err := t.evalJSON(ctx, script, &res); err != nil {
		return fail("verify text present failed: %v", err)
	}
	return ok(fmt.Sprintf("present=%t for %q", res.Present, p.Text), res)
}

// --- get_element_text ---

type getElementTextTool struct{ base }

func (t *getElementTextTool) Name() string           { return "get_element_text" }
func (t *getElementTextTool) Description() string    { return "Read the text content of the element matching a selector strategy." }
func (t *getElementTextTool) Schema() json.RawMessage { return schemaFor(t.Name()) }

func (t *getElementTextTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	p, err := decode[selectorParams](params)
	if err != nil {
		return fail("invalid parameters: %v", err)
	}

	script := resolveFn + fmt.Sprintf(`
(function() {
  var el = __browzerResolve(%s, %s);
  if (!el) return JSON.stringify({found: false});
  return JSON.stringify({found: true, text: (el.innerText || el.textContent || '').trim()});
})()`, jsString(p.SelectorStrategy), jsString(p.SelectorValue))

	var res struct {
		Found bool   `json:"found"`
		Text  string `json:"text"`
	}
	if err := t.evalJSON(ctx, script, &res); err != nil {
		return fail("get element text failed: %v", err)
	}
	if !res.Found {
		return fail("no element matched %s=%s", p.SelectorStrategy, p.SelectorValue)
	}
	return ok(res.Text, res)
}

// --- get_element_attribute ---

type getElementAttributeTool struct{ base }

func (t *getElementAttributeTool) Name() string        { return "get_element_attribute" }
func (t *getElementAttributeTool) Description() string { return "Read an attribute's value from the element matching a selector strategy." }
func (t *getElementAttributeTool) Schema() json.RawMessage { return schemaFor(t.Name()) }

func (t *getElementAttributeTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	p, err := decode[struct {
		selectorParams
		Attribute string `json:"attribute"`
	}](params)
	if err != nil {
		return fail("invalid parameters: %v", err)
	}

	script := resolveFn + fmt.Sprintf(`
(function() {
  var el = __browzerResolve(%s, %s);
  if (!el) return JSON.stringify({found: false});
  var v = el.getAttribute(%s);
  return JSON.stringify({found: true, hasAttribute: v !== null, value: v || ''});
})()`, jsString(p.SelectorStrategy), jsString(p.SelectorValue), jsString(p.Attribute))

	var res struct {
		Found        bool   `json:"found"`
		HasAttribute bool   `json:"hasAttribute"`
		Value        string `json:"value"`
	}
	if err := t.evalJSON(ctx, script, &res); err != nil {
		return fail("get element attribute failed: %v", err)
	}
	if !res.Found {
		return fail("no element matched %s=%s", p.SelectorStrategy, p.SelectorValue)
	}
	return ok(res.Value, res)
}

// --- wait_for_element ---

type waitForElementTool struct{ base }

func (t *waitForElementTool) Name() string           { return "wait_for_element" }
func (t *waitForElementTool) Description() string    { return "Poll until an element matching a selector strategy appears, or time out." }
func (t *waitForElementTool) Schema() json.RawMessage { return schemaFor(t.Name()) }

func (t *waitForElementTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	p, err := decode[struct {
		selectorParams
		TimeoutMs int `json:"timeout_ms"`
	}](params)
	if err != nil {
		return fail("invalid parameters: %v", err)
	}
	timeout := time.Duration(p.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	deadline := time.Now().Add(timeout)

	script := resolveFn + fmt.Sprintf(`
(function() {
  var el = __browzerResolve(%s, %s);
  return JSON.stringify({exists: !!el});
})()`, jsString(p.SelectorStrategy), jsString(p.SelectorValue))

	for {
		var res struct {
			Exists bool `json:"exists"`
		}
		if err := t.evalJSON(ctx, script, &res); err == nil && res.Exists {
			return ok(fmt.Sprintf("element %s=%s appeared", p.SelectorStrategy, p.SelectorValue), nil)
		}
		if time.Now().After(deadline) {
			return fail("timed out waiting for %s=%s", p.SelectorStrategy, p.SelectorValue)
		}
		select {
		case <-ctx.Done():
			return fail("wait for element cancelled: %v", ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

// --- take_screenshot ---

type takeScreenshotTool struct{ base }

func (t *takeScreenshotTool) Name() string           { return "take_screenshot" }
func (t *takeScreenshotTool) Description() string    { return "Capture a screenshot of the current page as base64-encoded PNG." }
func (t *takeScreenshotTool) Schema() json.RawMessage { return schemaFor(t.Name()) }

func (t *takeScreenshotTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	p, err := decode[struct {
		FullPage bool `json:"full_page"`
	}](params)
	if err != nil {
		return fail("invalid parameters: %v", err)
	}

	png, err := t.sess.CaptureScreenshot(ctx, p.FullPage)
	if err != nil {
		return fail("take screenshot failed: %v", err)
	}
	encoded := base64.StdEncoding.EncodeToString(png)
	return ok(fmt.Sprintf("captured screenshot (%d bytes)", len(png)), map[string]any{
		"full_page":      p.FullPage,
		"image_base64":   encoded,
		"content_type":   "image/png",
	})
}
