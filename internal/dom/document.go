package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/vibesense/internal/model"
)

// DefaultViewportWidth is the viewport width assumed for static documents
// when the caller does not provide one. It matches a common laptop window.
const DefaultViewportWidth = 1280

// Box is the layout information known for one element.
type Box struct {
	// Width is the rendered width in CSS pixels (offsetWidth in a browser).
	// Zero means unknown.
	Width int

	// Hidden is true when the element is not rendered
	// (display:none, visibility:hidden or the hidden attribute).
	Hidden bool
}

// Document is an explicit handle on one page's DOM.
//
// The scanner, the selector synthesizer and the highlighter all take a
// Document (or nodes from it) as a parameter instead of reaching for an
// ambient global document, so every check can be tested against a synthetic
// tree.
//
// A Document is not safe for concurrent mutation. Reads from several
// goroutines are fine as long as nobody highlights at the same time.
type Document struct {
	// URL is the address the document was loaded from.
	URL string

	// Root is the html.DocumentNode at the top of the tree.
	Root *html.Node

	// ViewportWidth is the width of the window the page is laid out in.
	// Zero disables width-based checks.
	ViewportWidth int

	// Backend records how the document was obtained.
	Backend model.Backend

	// layout holds the known boxes keyed by element node.
	layout map[*html.Node]Box
}

// New wraps an already parsed tree. Layout starts empty.
func New(pageURL string, root *html.Node, viewportWidth int) *Document {
	return &Document{
		URL:           pageURL,
		Root:          root,
		ViewportWidth: viewportWidth,
		Backend:       model.BackendStatic,
		layout:        make(map[*html.Node]Box),
	}
}

// Parse parses HTML from r and approximates layout from inline styles and
// width attributes. A viewportWidth of zero selects DefaultViewportWidth;
// pass a negative value to disable width-based checks.
func Parse(r io.Reader, pageURL string, viewportWidth int) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	switch {
	case viewportWidth == 0:
		viewportWidth = DefaultViewportWidth
	case viewportWidth < 0:
		viewportWidth = 0
	}

	doc := New(pageURL, root, viewportWidth)
	doc.approximateLayout()
	return doc, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s, pageURL string, viewportWidth int) (*Document, error) {
	return Parse(strings.NewReader(s), pageURL, viewportWidth)
}

// SetBox records layout information for an element.
func (d *Document) SetBox(n *html.Node, box Box) {
	d.layout[n] = box
}

// Box returns the layout information recorded for n.
func (d *Document) Box(n *html.Node) (Box, bool) {
	box, ok := d.layout[n]
	return box, ok
}

// Width returns the rendered width of n, or zero when unknown.
func (d *Document) Width(n *html.Node) int {
	return d.layout[n].Width
}

// IsHidden reports whether n itself is known to be hidden.
// Hidden ancestors are not considered; see VisibleText for subtree handling.
func (d *Document) IsHidden(n *html.Node) bool {
	return d.layout[n].Hidden
}

// HTML returns the <html> element, or nil for an empty document.
func (d *Document) HTML() *html.Node {
	for c := d.Root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Html {
			return c
		}
	}
	return nil
}

// Body returns the <body> element, or nil when the document has none
// (for example a frameset document).
func (d *Document) Body() *html.Node {
	return d.findChild(atom.Body)
}

// Head returns the <head> element, or nil.
func (d *Document) Head() *html.Node {
	return d.findChild(atom.Head)
}

func (d *Document) findChild(a atom.Atom) *html.Node {
	root := d.HTML()
	if root == nil {
		return nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

// Title returns the trimmed text of the <title> element.
func (d *Document) Title() string {
	for _, n := range d.Elements() {
		if n.DataAtom == atom.Title {
			return strings.TrimSpace(TextContent(n))
		}
	}
	return ""
}

// Elements returns every element node in document (pre-)order, the same
// order as querySelectorAll('*').
func (d *Document) Elements() []*html.Node {
	elements := make([]*html.Node, 0)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			elements = append(elements, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.Root)
	return elements
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.Root)
}

// DepthFromBody returns how many element levels n sits below <body>.
// Children of body are at depth 1. Elements outside body (head content, the
// html and body elements themselves) return 0.
func DepthFromBody(n *html.Node) int {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			return 0
		}
		if p.DataAtom == atom.Body {
			return depth
		}
		depth++
	}
	return 0
}

// Attr retrieves an attribute value from an HTML node.
func Attr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// HasAttr reports whether the attribute is present, even with an empty value.
func HasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces an attribute value.
func SetAttr(n *html.Node, key, val string) {
	for i, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func RemoveAttr(n *html.Node, key string) {
	for i, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// TagName returns the lower-cased tag name of an element.
func TagName(n *html.Node) string {
	return strings.ToLower(n.Data)
}

// IsElement reports whether n is an element with the given atom.
func IsElement(n *html.Node, a atom.Atom) bool {
	return n != nil && n.Type == html.ElementNode && n.DataAtom == a
}
