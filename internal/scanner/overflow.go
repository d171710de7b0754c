package scanner

import (
	"context"
	"fmt"

	"golang.org/x/net/html"

	"github.com/nao1215/vibesense/internal/dom"
	"github.com/nao1215/vibesense/internal/model"
	"github.com/nao1215/vibesense/internal/selector"
)

// OverflowCheck finds elements wider than the viewport.
//
// Only the first offenders up to the cap get selectors. Count keeps the real
// total, so the issue title can claim more elements than a highlight marks.
type OverflowCheck struct {
	maxSelectors int
}

// NewOverflowCheck creates an OverflowCheck. A non-positive maxSelectors
// falls back to DefaultOverflowCap.
func NewOverflowCheck(maxSelectors int) *OverflowCheck {
	if maxSelectors <= 0 {
		maxSelectors = DefaultOverflowCap
	}
	return &OverflowCheck{maxSelectors: maxSelectors}
}

// Type returns model.IssueOverflow.
func (c *OverflowCheck) Type() model.IssueType {
	return model.IssueOverflow
}

// Run compares each known width with the viewport. Documents without a
// viewport width are skipped.
func (c *OverflowCheck) Run(_ context.Context, doc *dom.Document) (*model.Issue, error) {
	if doc.ViewportWidth <= 0 {
		return nil, nil
	}

	offenders := make([]*html.Node, 0)
	for _, n := range doc.Elements() {
		if doc.Width(n) > doc.ViewportWidth {
			offenders = append(offenders, n)
		}
	}

	if len(offenders) == 0 {
		return nil, nil
	}

	count := len(offenders)
	if len(offenders) > c.maxSelectors {
		offenders = offenders[:c.maxSelectors]
	}
	issue := model.NewIssue(
		model.IssueOverflow,
		fmt.Sprintf("Horizontal Overflow (%d elements)", count),
		fmt.Sprintf("Found %d elements causing horizontal scroll issues. This affects mobile responsiveness.", count),
		fmt.Sprintf("Found %d elements causing horizontal scroll issues.", count),
		count,
		selector.SynthesizeAll(offenders),
	)
	return &issue, nil
}
