package dom

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/vibesense/internal/model"
)

// ErrEmptySnapshot is returned when a snapshot has no document element.
var ErrEmptySnapshot = errors.New("snapshot has no document element")

// Snapshot is the serialized form of a rendered page produced by the live
// backend. Every element carries its measured layout, so the resulting
// Document has exact node-to-layout correspondence.
type Snapshot struct {
	URL           string       `json:"url"`
	ViewportWidth int          `json:"viewportWidth"`
	Root          SnapshotNode `json:"root"`
}

// SnapshotNode is one node of a Snapshot. Text nodes have an empty Tag.
type SnapshotNode struct {
	Tag      string         `json:"tag,omitempty"`
	Text     string         `json:"text,omitempty"`
	Attrs    []SnapshotAttr `json:"attrs,omitempty"`
	Width    int            `json:"width,omitempty"`
	Hidden   bool           `json:"hidden,omitempty"`
	Children []SnapshotNode `json:"children,omitempty"`
}

// SnapshotAttr is a single attribute in source order.
type SnapshotAttr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DecodeSnapshot unmarshals the JSON produced by the snapshot script.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// FromSnapshot builds a Document from a snapshot.
func FromSnapshot(s *Snapshot) (*Document, error) {
	if s == nil || s.Root.Tag == "" {
		return nil, ErrEmptySnapshot
	}

	root := &html.Node{Type: html.DocumentNode}
	doc := New(s.URL, root, s.ViewportWidth)
	doc.Backend = model.BackendBrowser
	root.AppendChild(doc.buildNode(&s.Root))
	return doc, nil
}

func (d *Document) buildNode(sn *SnapshotNode) *html.Node {
	if sn.Tag == "" {
		return &html.Node{Type: html.TextNode, Data: sn.Text}
	}

	tag := strings.ToLower(sn.Tag)
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for _, a := range sn.Attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: strings.ToLower(a.Name), Val: a.Value})
	}
	if sn.Width != 0 || sn.Hidden {
		d.layout[n] = Box{Width: sn.Width, Hidden: sn.Hidden}
	}
	for i := range sn.Children {
		n.AppendChild(d.buildNode(&sn.Children[i]))
	}
	return n
}
