package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// nonRenderedText lists elements whose text content never shows up on screen.
var nonRenderedText = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Template: true,
	atom.Noscript: true,
	atom.Head:     true,
}

// TextContent returns the concatenated text of every descendant text node,
// like Node.textContent.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// VisibleText approximates HTMLElement.innerText: the trimmed text of n's
// subtree, skipping script-like elements and descendants known to be hidden.
// Like innerText, a hidden n itself still reports its own text.
func (d *Document) VisibleText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		switch cur.Type {
		case html.TextNode:
			sb.WriteString(cur.Data)
			return
		case html.ElementNode:
			if nonRenderedText[cur.DataAtom] || (cur != n && d.IsHidden(cur)) {
				return
			}
			if cur.DataAtom == atom.Br {
				sb.WriteString("\n")
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
