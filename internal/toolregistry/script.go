package toolregistry

import "encoding/json"

// resolveFn is a JS function, embedded into every selector-accepting tool's
// script, that resolves {selector_strategy, selector_value} to a single
// element. "text" matches the first element, in document order, whose
// trimmed text content contains the value and none of whose child elements
// also contains it (the innermost match); "aria_label"/"placeholder" match the
// corresponding attribute; "css" is passed straight to querySelector.
const resolveFn = `
function __browzerResolve(strategy, value) {
  if (strategy === 'css') {
    return document.querySelector(value);
  }
  if (strategy === 'aria_label') {
    return document.querySelector('[aria-label="' + value + '"]');
  }
  if (strategy === 'placeholder') {
    return document.querySelector('[placeholder="' + value + '"]');
  }
  if (strategy === 'text') {
    var all = document.querySelectorAll('body *');
    for (var i = 0; i < all.length; i++) {
      var el = all[i];
      var txt = (el.innerText || el.textContent || '').trim();
      if (txt && txt.indexOf(value) !== -1) {
        var hasElementChildWithSameText = false;
        for (var j = 0; j < el.children.length; j++) {
          var c = el.children[j];
          if ((c.innerText || c.textContent || '').trim().indexOf(value) !== -1) {
            hasElementChildWithSameText = true;
            break;
          }
        }
        if (!hasElementChildWithSameText) return el;
      }
    }
    return null;
  }
  return null;
}
`

// jsString encodes s as a JS string literal, safe to splice into a script.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
