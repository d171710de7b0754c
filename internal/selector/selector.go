// Package selector synthesizes CSS selector paths for elements found by the
// scanner, so they can be handed to a highlighter running in another document
// (a browser tab) or re-resolved after the page is re-parsed.
package selector

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Separator joins path fragments, ancestor first.
const Separator = " > "

// Synthesize builds a selector path for n.
//
// The path walks up the parent chain and stops before body or html. An
// element with a non-empty id contributes "tag#id" and ends the walk.
// Otherwise each element contributes its tag, followed by :nth-of-type(k)
// when it is not the first sibling of that tag.
//
// Ids are used verbatim. An id containing CSS-special characters or shared by
// several elements yields a selector that does not resolve to exactly n.
func Synthesize(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}

	fragments := make([]string, 0)
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if cur.DataAtom == atom.Body || cur.DataAtom == atom.Html {
			break
		}

		tag := strings.ToLower(cur.Data)
		if id := attr(cur, "id"); id != "" {
			fragments = append(fragments, tag+"#"+id)
			break
		}

		fragment := tag
		if k := nthOfType(cur); k > 1 {
			fragment += ":nth-of-type(" + strconv.Itoa(k) + ")"
		}
		fragments = append(fragments, fragment)
	}

	reverse(fragments)
	return strings.Join(fragments, Separator)
}

// SynthesizeAll returns one selector per node, preserving order.
func SynthesizeAll(nodes []*html.Node) []string {
	selectors := make([]string, 0, len(nodes))
	for _, n := range nodes {
		selectors = append(selectors, Synthesize(n))
	}
	return selectors
}

// nthOfType is 1 plus the number of preceding element siblings with the same
// tag name.
func nthOfType(n *html.Node) int {
	k := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && strings.EqualFold(s.Data, n.Data) {
			k++
		}
	}
	return k
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
