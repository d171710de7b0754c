package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// approximateLayout fills the layout map for a statically parsed document.
//
// Without a rendering engine only explicit sizes are known: inline width and
// min-width in px, and the width attribute on replaced elements. Everything
// else keeps an unknown (zero) width and never counts as overflowing.
func (d *Document) approximateLayout() {
	for _, n := range d.Elements() {
		box := Box{Hidden: staticHidden(n)}

		decls := parseInlineStyle(Attr(n, "style"))
		for _, prop := range []string{"width", "min-width"} {
			if w, ok := pixels(decls[prop]); ok && w > box.Width {
				box.Width = w
			}
		}
		if box.Width == 0 && hasWidthAttr(n) {
			if w, ok := pixels(Attr(n, "width")); ok {
				box.Width = w
			}
		}

		if box != (Box{}) {
			d.layout[n] = box
		}
	}
}

// hasWidthAttr reports whether the element's width attribute affects layout.
func hasWidthAttr(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Img, atom.Table, atom.Iframe, atom.Canvas, atom.Video, atom.Embed, atom.Object, atom.Td, atom.Th:
		return true
	}
	return false
}

func staticHidden(n *html.Node) bool {
	if HasAttr(n, "hidden") {
		return true
	}
	decls := parseInlineStyle(Attr(n, "style"))
	if decls["display"] == "none" {
		return true
	}
	v := decls["visibility"]
	return v == "hidden" || v == "collapse"
}

// parseInlineStyle splits a style attribute into lower-cased property/value
// pairs. Later declarations win, !important markers are dropped.
func parseInlineStyle(style string) map[string]string {
	decls := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.ToLower(strings.TrimSpace(val))
		val = strings.TrimSpace(strings.TrimSuffix(val, "!important"))
		if prop == "" || val == "" {
			continue
		}
		decls[prop] = val
	}
	return decls
}

// pixels converts "640", "640px" or "640.5px" to whole pixels.
// Relative units (%, em, vw...) are not resolvable statically.
func pixels(v string) (int, bool) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return int(f), true
}
