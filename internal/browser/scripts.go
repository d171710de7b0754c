package browser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// snapshotScript serializes document.documentElement into the dom.Snapshot
// JSON shape.
const snapshotScript = `(() => {
  const walk = (node) => {
    if (node.nodeType === Node.TEXT_NODE) {
      return node.nodeValue ? { text: node.nodeValue } : null;
    }
    if (node.nodeType !== Node.ELEMENT_NODE) {
      return null;
    }
    const out = { tag: node.tagName.toLowerCase() };
    if (node.attributes.length > 0) {
      out.attrs = Array.from(node.attributes, (a) => ({ name: a.name, value: a.value }));
    }
    if (typeof node.offsetWidth === "number" && node.offsetWidth > 0) {
      out.width = node.offsetWidth;
    }
    const style = window.getComputedStyle(node);
    if (node.hidden || style.display === "none" || style.visibility === "hidden") {
      out.hidden = true;
    }
    const children = [];
    for (const child of node.childNodes) {
      const c = walk(child);
      if (c) {
        children.push(c);
      }
    }
    if (children.length > 0) {
      out.children = children;
    }
    return out;
  };
  return JSON.stringify({
    url: location.href,
    viewportWidth: window.innerWidth,
    root: walk(document.documentElement),
  });
})()`

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) //nolint:errcheck // encoding a string cannot fail
	return strings.TrimSuffix(buf.String(), "\n")
}

// wrap runs body inside a try block that reports exceptions as
// {"error": message}.
func wrap(body string) string {
	return fmt.Sprintf(`(() => {
  try {
%s
  } catch (e) {
    return JSON.stringify({ error: String((e && e.message) || e) });
  }
})()`, body)
}

func injectStyleScript(id, css string) string {
	return wrap(fmt.Sprintf(`    let style = document.getElementById(%s);
    if (!style) {
      style = document.createElement("style");
      style.id = %s;
      (document.head || document.documentElement).appendChild(style);
    }
    style.textContent = %s;
    return JSON.stringify({ count: 1 });`, jsString(id), jsString(id), jsString(css)))
}

func removeClassScript(class string) string {
	return wrap(fmt.Sprintf(`    const els = document.getElementsByClassName(%s);
    const list = Array.from(els);
    list.forEach((el) => el.classList.remove(%s));
    return JSON.stringify({ count: list.length });`, jsString(class), jsString(class)))
}

func addClassScript(selector, class string) string {
	return wrap(fmt.Sprintf(`    const els = document.querySelectorAll(%s);
    els.forEach((el) => el.classList.add(%s));
    return JSON.stringify({ count: els.length });`, jsString(selector), jsString(class)))
}

func scrollScript(selector string) string {
	return wrap(fmt.Sprintf(`    const el = document.querySelector(%s);
    if (el) {
      el.scrollIntoView({ behavior: "smooth", block: "center" });
    }
    return JSON.stringify({ count: el ? 1 : 0 });`, jsString(selector)))
}
