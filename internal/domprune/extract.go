package domprune

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// cdpSession is the subset of *cdpsession.Session the pruner needs; declared
// locally so this package does not import cdpsession (which would create an
// import cycle once cdpsession grows a helper layer that wants DOM pruning).
type cdpSession interface {
	Evaluate(ctx context.Context, expr string, out any) error
}

// collectScript walks document.body in the page and serializes every
// element's raw signal as JSON, bounded by maxDepth. It never throws: a
// traversal error yields an empty array.
const collectScript = `
(function(maxDepth) {
  try {
    var out = [];
    function visible(el) {
      var r = el.getBoundingClientRect();
      if (r.width <= 0 || r.height <= 0) return false;
      var s = window.getComputedStyle(el);
      return s.display !== 'none' && s.visibility !== 'hidden' && s.opacity !== '0';
    }
    function walk(el, depth) {
      if (!el || depth > maxDepth) return;
      var r = el.getBoundingClientRect();
      var s = window.getComputedStyle(el);
      out.push({
        Tag: el.tagName.toLowerCase(),
        Depth: depth,
        ID: el.id || '',
        Class: el.className && el.className.toString ? el.className.toString() : '',
        Role: el.getAttribute('role') || '',
        AriaLabel: el.getAttribute('aria-label') || '',
        AriaDescribedBy: el.getAttribute('aria-describedby') || '',
        Placeholder: el.getAttribute('placeholder') || '',
        Value: el.value || '',
        Href: el.getAttribute('href') || '',
        TestID: el.getAttribute('data-testid') || '',
        DataCy: el.getAttribute('data-cy') || '',
        Type: el.getAttribute('type') || '',
        HasOnClick: !!el.onclick,
        CursorPointer: s.cursor === 'pointer',
        TabIndex: el.hasAttribute('tabindex') ? parseInt(el.getAttribute('tabindex'), 10) : null,
        Text: (el.innerText || el.textContent || '').trim().slice(0, 200),
        Rect: {x: r.x, y: r.y, width: r.width, height: r.height},
        Visible: visible(el)
      });
      for (var i = 0; i < el.children.length; i++) walk(el.children[i], depth + 1);
    }
    walk(document.body, 0);
    return JSON.stringify(out);
  } catch (e) {
    return '[]';
  }
})(%d)
`

// Extract drives a live page through a CDP session: it evaluates the
// collection script, decodes the raw elements, and prunes them. On any
// evaluate or decode failure it returns an empty set and zeroed stats
// rather than an error.
func Extract(ctx context.Context, sess cdpSession, opts Options) ([]models.InteractiveElement, Stats) {
	script := fmt.Sprintf(collectScript, opts.MaxDepth)

	var raw string
	if err := sess.Evaluate(ctx, script, &raw); err != nil {
		return nil, Stats{}
	}

	var elements []RawElement
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		return nil, Stats{}
	}

	return Prune(elements, opts)
}
