package scanner

import (
	"context"

	"github.com/nao1215/vibesense/internal/dom"
	"github.com/nao1215/vibesense/internal/model"
)

// Check is one independent inspection of a document.
//
// Run returns nil when the document does not exhibit the issue. Checks must
// not modify the document.
type Check interface {
	// Type returns the issue type the check reports.
	Type() model.IssueType

	// Run inspects doc.
	Run(ctx context.Context, doc *dom.Document) (*model.Issue, error)
}
