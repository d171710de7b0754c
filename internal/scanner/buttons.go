package scanner

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/vibesense/internal/dom"
	"github.com/nao1215/vibesense/internal/model"
	"github.com/nao1215/vibesense/internal/selector"
)

// labelAttributes provide an accessible name when non-empty.
var labelAttributes = []string{"aria-label", "aria-labelledby", "title"}

// EmptyButtonCheck finds buttons a screen reader cannot name: no visible
// text and no label attribute. Both <button> and role="button" elements are
// inspected.
type EmptyButtonCheck struct{}

// NewEmptyButtonCheck creates an EmptyButtonCheck.
func NewEmptyButtonCheck() *EmptyButtonCheck {
	return &EmptyButtonCheck{}
}

// Type returns model.IssueEmptyButtons.
func (c *EmptyButtonCheck) Type() model.IssueType {
	return model.IssueEmptyButtons
}

// Run collects every unnamed button in document order.
func (c *EmptyButtonCheck) Run(_ context.Context, doc *dom.Document) (*model.Issue, error) {
	offenders := make([]*html.Node, 0)
	for _, n := range doc.Elements() {
		if !isButton(n) {
			continue
		}
		if doc.VisibleText(n) != "" || hasLabel(n) {
			continue
		}
		offenders = append(offenders, n)
	}

	if len(offenders) == 0 {
		return nil, nil
	}

	count := len(offenders)
	issue := model.NewIssue(
		model.IssueEmptyButtons,
		fmt.Sprintf("Empty Buttons (%d found)", count),
		fmt.Sprintf("Found %d buttons without text or labels. This is a common accessibility issue.", count),
		fmt.Sprintf("Found %d buttons without text or labels.", count),
		count,
		selector.SynthesizeAll(offenders),
	)
	return &issue, nil
}

func isButton(n *html.Node) bool {
	if n.DataAtom == atom.Button {
		return true
	}
	for _, role := range strings.Fields(dom.Attr(n, "role")) {
		if strings.EqualFold(role, "button") {
			return true
		}
	}
	return false
}

func hasLabel(n *html.Node) bool {
	for _, key := range labelAttributes {
		if strings.TrimSpace(dom.Attr(n, key)) != "" {
			return true
		}
	}
	return false
}
