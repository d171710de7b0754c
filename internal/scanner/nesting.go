package scanner

import (
	"context"
	"fmt"

	"github.com/nao1215/vibesense/internal/dom"
	"github.com/nao1215/vibesense/internal/model"
)

// DeepNestingCheck reports documents with many elements far below body.
// The issue is informational and carries no selectors.
type DeepNestingCheck struct {
	depth int
	limit int
}

// NewDeepNestingCheck creates a check that fires when more than limit
// elements sit at depth or deeper. A non-positive depth or a negative limit
// falls back to the default.
func NewDeepNestingCheck(depth, limit int) *DeepNestingCheck {
	if depth <= 0 {
		depth = DefaultDepthThreshold
	}
	if limit < 0 {
		limit = DefaultDeepElementLimit
	}
	return &DeepNestingCheck{depth: depth, limit: limit}
}

// Type returns model.IssueDeepNesting.
func (c *DeepNestingCheck) Type() model.IssueType {
	return model.IssueDeepNesting
}

// Run counts deep elements.
func (c *DeepNestingCheck) Run(_ context.Context, doc *dom.Document) (*model.Issue, error) {
	count := 0
	for _, n := range doc.Elements() {
		if dom.DepthFromBody(n) >= c.depth {
			count++
		}
	}

	if count <= c.limit {
		return nil, nil
	}

	issue := model.NewIssue(
		model.IssueDeepNesting,
		"Deep DOM Nesting",
		fmt.Sprintf("DOM tree is too deep/nested (%d elements at depth %d+). This may cause performance or AI refactoring issues.", count, c.depth),
		"DOM tree is too deep/nested. This may cause performance or AI refactoring issues.",
		count,
		nil,
	)
	return &issue, nil
}
