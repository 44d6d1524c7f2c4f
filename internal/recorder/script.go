package recorder

// trackerScript is the in-page event-capture tracker injected via
// Page.addScriptToEvaluateOnNewDocument. It is a single idempotent IIFE
// guarded by window.__browzerRecorderInstalled, so re-injection after
// Page.loadEventFired installs at most one listener set. Captured events are
// exfiltrated as console.info("[BROWZER_ACTION]", JSON.stringify(payload))
// — a CSP-proof channel the host observes via Runtime.consoleAPICalled.
const trackerScript = `
(function() {
  if (window.__browzerRecorderInstalled) return;
  window.__browzerRecorderInstalled = true;

  var IMPORTANT_KEYS = ['Enter', 'Escape', 'Tab', 'Backspace', 'Delete',
    'ArrowUp', 'ArrowDown', 'ArrowLeft', 'ArrowRight', 'Home', 'End', 'PageUp', 'PageDown'];
  var SENSITIVE = /password|secret|token|key|ssn|credit/i;
  var inputTimers = {};

  function emit(type, detail) {
    detail.type = type;
    detail.timestamp = Date.now();
    try { console.info('[BROWZER_ACTION]', JSON.stringify(detail)); } catch (e) {}
  }

  function isInteractive(el) {
    if (!el || !el.tagName) return false;
    var tag = el.tagName.toLowerCase();
    if (['a', 'button', 'input', 'select', 'textarea', 'label'].indexOf(tag) >= 0) return true;
    var role = el.getAttribute && el.getAttribute('role');
    if (role && ['button', 'link', 'textbox', 'checkbox', 'radio', 'menuitem', 'tab', 'switch'].indexOf(role) >= 0) return true;
    if (el.onclick) return true;
    if (window.getComputedStyle(el).cursor === 'pointer') return true;
    var ti = el.getAttribute && el.getAttribute('tabindex');
    return ti !== null && parseInt(ti, 10) >= 0;
  }

  function target(el) {
    return {
      tagName: el.tagName,
      selectors: [],
      text: (el.innerText || el.textContent || '').trim().slice(0, 100),
      ariaLabel: el.getAttribute ? (el.getAttribute('aria-label') || '') : ''
    };
  }

  function modalCount() {
    return document.querySelectorAll('[role="dialog"],[role="alertdialog"],.modal:not([hidden])').length;
  }

  document.addEventListener('click', function(ev) {
    var el = ev.target, depth = 0, interactive = null;
    while (el && depth < 5) {
      if (isInteractive(el)) { interactive = el; break; }
      el = el.parentElement;
      depth++;
    }
    var effective = interactive || ev.target;
    var meta = {};
    if (interactive && interactive !== ev.target) meta.clickedElement = target(ev.target);
    emit('click', {
      target: target(effective),
      position: { x: ev.clientX, y: ev.clientY },
      metadata: meta,
      preState: {
        url: location.href, scrollX: window.scrollX, scrollY: window.scrollY,
        activeTag: document.activeElement ? document.activeElement.tagName : '',
        modalCount: modalCount()
      }
    });
  }, true);

  document.addEventListener('input', function(ev) {
    var el = ev.target;
    var immediate = ['checkbox', 'radio', 'file', 'range', 'color'].indexOf(el.type) >= 0;
    var key = el.name || el.id || 'anon';
    var fire = function() {
      emit('input', { target: target(el), value: SENSITIVE.test(key) ? '[REDACTED]' : el.value });
    };
    if (immediate) { fire(); return; }
    clearTimeout(inputTimers[key]);
    inputTimers[key] = setTimeout(fire, 500);
  }, true);

  document.addEventListener('change', function(ev) {
    var el = ev.target, tag = el.tagName.toLowerCase();
    if (tag === 'select') {
      var opts = Array.prototype.filter.call(el.options, function(o) { return o.selected; });
      emit('select', {
        target: target(el),
        metadata: { multiple: el.multiple, values: opts.map(function(o) { return o.value; }), texts: opts.map(function(o) { return o.text; }) }
      });
    } else if (el.type === 'checkbox') {
      emit('checkbox', { target: target(el), value: String(el.checked) });
    } else if (el.type === 'radio') {
      emit('radio', { target: target(el), value: el.value });
    } else if (el.type === 'file') {
      var files = Array.prototype.map.call(el.files || [], function(f) { return { name: f.name, size: f.size, type: f.type }; });
      emit('file-upload', { target: target(el), metadata: { files: files } });
    }
  }, true);

  document.addEventListener('submit', function(ev) {
    var form = ev.target, data = {};
    Array.prototype.forEach.call(form.elements, function(el) {
      if (!el.name) return;
      data[el.name] = SENSITIVE.test(el.name) ? '[REDACTED]' : el.value;
    });
    emit('submit', { target: target(form), metadata: { formData: data } });
  }, true);

  document.addEventListener('keydown', function(ev) {
    if (!(ev.ctrlKey || ev.metaKey || ev.altKey || IMPORTANT_KEYS.indexOf(ev.key) >= 0)) return;
    emit('keypress', { target: target(ev.target), value: ev.key, metadata: { modifiers: { ctrl: ev.ctrlKey, meta: ev.metaKey, alt: ev.altKey, shift: ev.shiftKey } } });
  }, true);
})();
`
