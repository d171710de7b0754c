package highlight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/vibesense/internal/model"
)

// Target is a page that can be marked up.
//
// dom.Document implements it for static pages and browser.Tab for a live
// tab. AddClass resolves one selector and returns the number of elements it
// marked; an unparsable selector yields a *model.SelectorResolutionError.
type Target interface {
	InjectStyle(ctx context.Context, id, css string) error
	RemoveClass(ctx context.Context, class string) (int, error)
	AddClass(ctx context.Context, selector, class string) (int, error)
	ScrollIntoView(ctx context.Context, selector string) error
}

// Option configures a Highlighter.
type Option func(*Highlighter)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Highlighter) {
		h.logger = logger
	}
}

// Highlighter toggles issue markers on a Target.
type Highlighter struct {
	logger *slog.Logger
}

// New creates a Highlighter.
func New(opts ...Option) *Highlighter {
	h := &Highlighter{logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Toggle shows or hides the marks of one issue type. It returns whether the
// type is shown afterwards and how many elements were marked.
//
// Empty selectors or a type without a marker leave both the page and the
// state untouched. Otherwise the stylesheet is injected, the type's class is
// removed from every element, and when the type was hidden it is added back
// to the elements each selector resolves to, and the first match is scrolled
// into view. A *model.SelectorResolutionError is logged and the selector
// skipped; any other error aborts the toggle with the state unchanged.
func (h *Highlighter) Toggle(ctx context.Context, target Target, state *State, t model.IssueType, selectors []string) (bool, int, error) {
	class, ok := ClassFor(t)
	if !ok || len(selectors) == 0 {
		return state.Shown(t), 0, nil
	}

	if err := target.InjectStyle(ctx, StyleID, Stylesheet()); err != nil {
		return state.Shown(t), 0, fmt.Errorf("failed to inject highlight style: %w", err)
	}
	if _, err := target.RemoveClass(ctx, class); err != nil {
		return state.Shown(t), 0, fmt.Errorf("failed to clear highlights: %w", err)
	}

	if state.Shown(t) {
		state.Set(t, false)
		h.logger.Debug("highlight hidden", "type", t)
		return false, 0, nil
	}

	marked := 0
	for _, sel := range selectors {
		n, err := target.AddClass(ctx, sel, class)
		if err != nil {
			var selErr *model.SelectorResolutionError
			if !errors.As(err, &selErr) {
				return false, 0, fmt.Errorf("failed to highlight %q: %w", sel, err)
			}
			h.logger.Debug("selector skipped", "selector", sel, "error", selErr)
			continue
		}
		marked += n
	}

	if err := target.ScrollIntoView(ctx, selectors[0]); err != nil {
		h.logger.Debug("scroll failed", "selector", selectors[0], "error", err)
	}

	state.Set(t, true)
	h.logger.Debug("highlight shown", "type", t, "elements", marked)
	return true, marked, nil
}

// Clear removes every marker class from the target and resets state.
func (h *Highlighter) Clear(ctx context.Context, target Target, state *State) error {
	for _, class := range Classes() {
		if _, err := target.RemoveClass(ctx, class); err != nil {
			return fmt.Errorf("failed to clear highlights: %w", err)
		}
	}
	state.Reset()
	return nil
}
