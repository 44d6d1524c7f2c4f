// Package a11ytree builds a semantic role/name/value tree as a DOM
// alternative.
package a11ytree

import (
	"context"
	"encoding/json"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// implicitRoles maps a tag to its implicit ARIA role when no explicit role
// attribute is present. Entries with a precondition (e.g. a[href]) are
// handled by the collection script's resolveRole function.
var implicitRoles = map[string]string{
	"a": "link", "button": "button", "nav": "navigation", "main": "main",
	"h1": "heading", "h2": "heading", "h3": "heading", "h4": "heading",
	"h5": "heading", "h6": "heading", "input": "textbox", "select": "combobox",
	"textarea": "textbox", "img": "img", "form": "form", "table": "table",
	"ul": "list", "ol": "list", "li": "listitem",
}

// Options bounds a single extraction.
type Options struct {
	MaxDepth int
	MaxNodes int
}

// DefaultOptions returns the built-in extraction caps (depth 10, nodes 200).
func DefaultOptions() Options {
	return Options{MaxDepth: 10, MaxNodes: 200}
}

// Result is the Extractor's full contract return shape.
type Result struct {
	Tree      *models.A11yNode
	NodeCount int
	Truncated bool
}

// rawNode mirrors the page-side collection script's JSON shape.
type rawNode struct {
	Role        string    `json:"role"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Value       string    `json:"value"`
	Focused     bool      `json:"focused"`
	Disabled    bool      `json:"disabled"`
	Children    []rawNode `json:"children"`
}

func (n rawNode) toModel() models.A11yNode {
	out := models.A11yNode{
		Role: n.Role, Name: n.Name, Description: n.Description,
		Value: n.Value, Focused: n.Focused, Disabled: n.Disabled,
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, c.toModel())
	}
	return out
}

// cdpSession is the subset of *cdpsession.Session this package needs.
type cdpSession interface {
	Evaluate(ctx context.Context, expr string, out any) error
}

// Extract walks document.body via a CDP session and returns the
// accessibility tree, capped at opts.MaxDepth/opts.MaxNodes. Hidden and
// aria-hidden subtrees are skipped by the collection script itself. Any
// evaluate or decode failure yields a nil tree with zero NodeCount rather
// than an error, matching the Context Provider's no-throw contract.
func Extract(ctx context.Context, sess cdpSession, opts Options) Result {
	script := buildScript(opts.MaxDepth, opts.MaxNodes)

	var raw string
	if err := sess.Evaluate(ctx, script, &raw); err != nil {
		return Result{}
	}

	var payload struct {
		Tree      *rawNode `json:"tree"`
		NodeCount int      `json:"nodeCount"`
		Truncated bool     `json:"truncated"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Result{}
	}

	res := Result{NodeCount: payload.NodeCount, Truncated: payload.Truncated}
	if payload.Tree != nil {
		t := payload.Tree.toModel()
		res.Tree = &t
	}
	return res
}

// buildScript renders the page-side traversal. Accessible name resolution
// follows this order: aria-label, aria-labelledby text, label element,
// placeholder (inputs), alt/title (images), text content (links/buttons),
// title attribute, truncated text content.
func buildScript(maxDepth, maxNodes int) string {
	return `(function(maxDepth, maxNodes) {
  try {
    var count = 0, truncated = false;
    var implicit = ` + implicitRolesJS() + `;

    function accessibleName(el) {
      var al = el.getAttribute('aria-label');
      if (al) return al;
      var labelledby = el.getAttribute('aria-labelledby');
      if (labelledby) {
        var txt = labelledby.split(/\s+/).map(function(id) {
          var r = document.getElementById(id);
          return r ? r.textContent.trim() : '';
        }).join(' ').trim();
        if (txt) return txt;
      }
      if (el.tagName === 'INPUT' || el.tagName === 'SELECT' || el.tagName === 'TEXTAREA') {
        var lbl = el.labels && el.labels[0];
        if (lbl) return lbl.textContent.trim();
        var ph = el.getAttribute('placeholder');
        if (ph) return ph;
      }
      if (el.tagName === 'IMG') {
        return el.getAttribute('alt') || el.getAttribute('title') || '';
      }
      if (el.tagName === 'A' || el.tagName === 'BUTTON') {
        var txt = (el.innerText || el.textContent || '').trim();
        if (txt) return txt;
      }
      var title = el.getAttribute('title');
      if (title) return title;
      return (el.innerText || el.textContent || '').trim().slice(0, 100);
    }

    function resolveRole(el) {
      var explicit = el.getAttribute('role');
      if (explicit) return explicit;
      if (el.tagName === 'A' && !el.getAttribute('href')) return '';
      return implicit[el.tagName.toLowerCase()] || '';
    }

    function isHidden(el) {
      if (el.getAttribute('aria-hidden') === 'true') return true;
      var s = window.getComputedStyle(el);
      return s.display === 'none' || s.visibility === 'hidden';
    }

    function walk(el, depth) {
      if (!el || depth > maxDepth || count >= maxNodes) {
        if (count >= maxNodes) truncated = true;
        return null;
      }
      if (isHidden(el)) return null;

      var role = resolveRole(el);
      var children = [];
      for (var i = 0; i < el.children.length; i++) {
        var child = walk(el.children[i], depth + 1);
        if (child) children.push(child);
      }

      if (!role && children.length === 0) return null;

      var node = null;
      if (role) {
        count++;
        node = {
          role: role,
          name: accessibleName(el),
          disabled: !!el.disabled,
          focused: document.activeElement === el,
          children: children
        };
      } else if (children.length > 0) {
        return children.length === 1 ? children[0] : { role: 'group', children: children };
      }
      return node;
    }

    var tree = walk(document.body, 0);
    return JSON.stringify({ tree: tree, nodeCount: count, truncated: truncated });
  } catch (e) {
    return JSON.stringify({ tree: null, nodeCount: 0, truncated: false });
  }
})(` + itoa(maxDepth) + `, ` + itoa(maxNodes) + `)`
}

func implicitRolesJS() string {
	b, _ := json.Marshal(implicitRoles)
	return string(b)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}
