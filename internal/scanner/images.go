package scanner

import (
	"context"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/vibesense/internal/dom"
	"github.com/nao1215/vibesense/internal/model"
	"github.com/nao1215/vibesense/internal/selector"
)

// MissingAltCheck finds <img> elements without an alt attribute.
// alt="" marks a decorative image and is accepted.
type MissingAltCheck struct{}

// NewMissingAltCheck creates a MissingAltCheck.
func NewMissingAltCheck() *MissingAltCheck {
	return &MissingAltCheck{}
}

// Type returns model.IssueMissingAlt.
func (c *MissingAltCheck) Type() model.IssueType {
	return model.IssueMissingAlt
}

// Run collects images lacking the attribute in document order.
func (c *MissingAltCheck) Run(_ context.Context, doc *dom.Document) (*model.Issue, error) {
	offenders := make([]*html.Node, 0)
	for _, n := range doc.Elements() {
		if n.DataAtom == atom.Img && !dom.HasAttr(n, "alt") {
			offenders = append(offenders, n)
		}
	}

	if len(offenders) == 0 {
		return nil, nil
	}

	count := len(offenders)
	issue := model.NewIssue(
		model.IssueMissingAlt,
		fmt.Sprintf("Missing Alt Text (%d images)", count),
		fmt.Sprintf("Found %d images missing descriptive alt text. This affects accessibility and SEO.", count),
		fmt.Sprintf("Found %d images missing descriptive alt text.", count),
		count,
		selector.SynthesizeAll(offenders),
	)
	return &issue, nil
}
