package dom

import (
	"context"
	"slices"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/vibesense/internal/model"
)

// QueryAll returns every element matching the CSS selector in document order.
// A selector that does not parse yields a *model.SelectorResolutionError.
func (d *Document) QueryAll(selector string) ([]*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, &model.SelectorResolutionError{Selector: selector, Err: err}
	}
	return sel.MatchAll(d.Root), nil
}

// ElementsWithClass returns the elements whose class list contains class.
func (d *Document) ElementsWithClass(class string) []*html.Node {
	matched := make([]*html.Node, 0)
	for _, n := range d.Elements() {
		if HasClass(n, class) {
			matched = append(matched, n)
		}
	}
	return matched
}

// HasClass reports whether the element's class list contains class.
func HasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(Attr(n, "class")), class)
}

// AddClass adds class to every element the selector resolves to and returns
// how many elements matched.
func (d *Document) AddClass(_ context.Context, selector, class string) (int, error) {
	nodes, err := d.QueryAll(selector)
	if err != nil {
		return 0, err
	}
	for _, n := range nodes {
		if HasClass(n, class) {
			continue
		}
		classes := strings.Fields(Attr(n, "class"))
		SetAttr(n, "class", strings.Join(append(classes, class), " "))
	}
	return len(nodes), nil
}

// RemoveClass removes class from every element carrying it and returns how
// many elements were changed. An emptied class attribute is dropped.
func (d *Document) RemoveClass(_ context.Context, class string) (int, error) {
	nodes := d.ElementsWithClass(class)
	for _, n := range nodes {
		classes := slices.DeleteFunc(strings.Fields(Attr(n, "class")), func(c string) bool {
			return c == class
		})
		if len(classes) == 0 {
			RemoveAttr(n, "class")
			continue
		}
		SetAttr(n, "class", strings.Join(classes, " "))
	}
	return len(nodes), nil
}

// InjectStyle places a <style id=id> element with css into <head>.
// Calling it again with the same id replaces the content instead of adding
// a second element.
func (d *Document) InjectStyle(_ context.Context, id, css string) error {
	for _, n := range d.Elements() {
		if n.DataAtom == atom.Style && Attr(n, "id") == id {
			for n.FirstChild != nil {
				n.RemoveChild(n.FirstChild)
			}
			n.AppendChild(&html.Node{Type: html.TextNode, Data: css})
			return nil
		}
	}

	parent := d.Head()
	if parent == nil {
		parent = d.HTML()
	}
	if parent == nil {
		parent = d.Root
	}
	style := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "id", Val: id}},
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	parent.AppendChild(style)
	return nil
}

// ScrollIntoView has nothing to scroll in a static document. It only checks
// that the selector resolves.
func (d *Document) ScrollIntoView(_ context.Context, selector string) error {
	_, err := d.QueryAll(selector)
	return err
}
