package highlight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/vibesense/internal/dom"
	"github.com/nao1215/vibesense/internal/model"
)

var _ Target = (*dom.Document)(nil)

// recordingTarget records calls and can fail on demand.
type recordingTarget struct {
	injected  int
	removed   []string
	added     []string
	scrolled  []string
	badSel    string
	injectErr error
	addErr    error
	scrollErr error
}

func (r *recordingTarget) InjectStyle(_ context.Context, _, _ string) error {
	if r.injectErr != nil {
		return r.injectErr
	}
	r.injected++
	return nil
}

func (r *recordingTarget) RemoveClass(_ context.Context, class string) (int, error) {
	r.removed = append(r.removed, class)
	return 0, nil
}

func (r *recordingTarget) AddClass(_ context.Context, sel, _ string) (int, error) {
	if r.addErr != nil {
		return 0, r.addErr
	}
	if sel == r.badSel {
		return 0, &model.SelectorResolutionError{Selector: sel, Err: errors.New("syntax error")}
	}
	r.added = append(r.added, sel)
	return 1, nil
}

func (r *recordingTarget) ScrollIntoView(_ context.Context, sel string) error {
	r.scrolled = append(r.scrolled, sel)
	return r.scrollErr
}

func parse(t *testing.T, src string) *dom.Document {
	t.Helper()

	doc, err := dom.ParseString(src, "https://example.com/", 0)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	return doc
}

// TestToggle tests highlight toggling.
func TestToggle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("two ids mark exactly those elements", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<body><button id="a"></button><button id="b"></button><button id="c"></button></body>`)
		state := NewState()
		shown, n, err := New().Toggle(ctx, doc, state, model.IssueEmptyButtons, []string{"button#a", "button#b"})
		if err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
		if !shown || !state.Shown(model.IssueEmptyButtons) {
			t.Error("expected type to be shown")
		}
		if n != 2 {
			t.Errorf("marked = %d, want 2", n)
		}

		marked := doc.ElementsWithClass("vibesense-highlight-empty-button")
		if len(marked) != 2 {
			t.Fatalf("expected 2 marked elements, got %d", len(marked))
		}
		if dom.Attr(marked[0], "id") != "a" || dom.Attr(marked[1], "id") != "b" {
			t.Errorf("unexpected marked elements %q %q", dom.Attr(marked[0], "id"), dom.Attr(marked[1], "id"))
		}
		styles, _ := doc.QueryAll("style#" + StyleID)
		if len(styles) != 1 {
			t.Errorf("expected one injected style, got %d", len(styles))
		}
	})

	t.Run("double toggle leaves nothing marked", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<body><img id="x"><img id="y"></body>`)
		state := NewState()
		h := New()
		selectors := []string{"img#x", "img#y"}

		if _, _, err := h.Toggle(ctx, doc, state, model.IssueMissingAlt, selectors); err != nil {
			t.Fatalf("first toggle failed: %v", err)
		}
		shown, _, err := h.Toggle(ctx, doc, state, model.IssueMissingAlt, selectors)
		if err != nil {
			t.Fatalf("second toggle failed: %v", err)
		}
		if shown || state.Shown(model.IssueMissingAlt) {
			t.Error("expected type to be hidden")
		}
		if got := len(doc.ElementsWithClass("vibesense-highlight-missing-alt")); got != 0 {
			t.Errorf("expected 0 marked elements, got %d", got)
		}
		styles, _ := doc.QueryAll("style#" + StyleID)
		if len(styles) != 1 {
			t.Errorf("expected style to be injected once, got %d", len(styles))
		}
	})

	t.Run("types are independent", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<body><button id="b"></button><img id="i"></body>`)
		state := NewState()
		h := New()
		_, _, _ = h.Toggle(ctx, doc, state, model.IssueEmptyButtons, []string{"button#b"})
		_, _, _ = h.Toggle(ctx, doc, state, model.IssueMissingAlt, []string{"img#i"})
		_, _, _ = h.Toggle(ctx, doc, state, model.IssueEmptyButtons, []string{"button#b"})

		if got := len(doc.ElementsWithClass("vibesense-highlight-missing-alt")); got != 1 {
			t.Errorf("expected missing-alt mark to survive, got %d", got)
		}
		if got := len(doc.ElementsWithClass("vibesense-highlight-empty-button")); got != 0 {
			t.Errorf("expected empty-button marks removed, got %d", got)
		}
		types := state.ShownTypes()
		if len(types) != 1 || types[0] != model.IssueMissingAlt {
			t.Errorf("unexpected shown types %v", types)
		}
	})

	t.Run("empty selectors are a no-op", func(t *testing.T) {
		t.Parallel()

		target := &recordingTarget{}
		state := NewState()
		shown, _, err := New().Toggle(ctx, target, state, model.IssueOverflow, nil)
		if err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
		if shown || state.Shown(model.IssueOverflow) {
			t.Error("expected state to stay hidden")
		}
		if target.injected != 0 || len(target.removed) != 0 {
			t.Error("expected no page mutation")
		}
	})

	t.Run("type without marker is a no-op", func(t *testing.T) {
		t.Parallel()

		target := &recordingTarget{}
		state := NewState()
		shown, _, err := New().Toggle(ctx, target, state, model.IssueDeepNesting, []string{"div"})
		if err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
		if shown || target.injected != 0 {
			t.Error("expected no-op for deep nesting")
		}
	})

	t.Run("bad selector is skipped", func(t *testing.T) {
		t.Parallel()

		target := &recordingTarget{badSel: "div[", scrollErr: errors.New("detached")}
		state := NewState()
		shown, n, err := New().Toggle(ctx, target, state, model.IssueOverflow, []string{"div[", "main > div"})
		if err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
		if !shown {
			t.Error("expected type to be shown")
		}
		if n != 1 {
			t.Errorf("marked = %d, want 1", n)
		}
		if len(target.added) != 1 || target.added[0] != "main > div" {
			t.Errorf("unexpected added selectors %v", target.added)
		}
		if len(target.scrolled) != 1 || target.scrolled[0] != "div[" {
			t.Errorf("expected scroll to first selector, got %v", target.scrolled)
		}
	})

	t.Run("inject failure keeps state", func(t *testing.T) {
		t.Parallel()

		target := &recordingTarget{injectErr: errors.New("tab closed")}
		state := NewState()
		if _, _, err := New().Toggle(ctx, target, state, model.IssueOverflow, []string{"div"}); err == nil {
			t.Fatal("expected error")
		}
		if state.Shown(model.IssueOverflow) {
			t.Error("state must not flip on failure")
		}
	})

	t.Run("failure to mark keeps state", func(t *testing.T) {
		t.Parallel()

		target := &recordingTarget{addErr: errors.New("websocket closed")}
		state := NewState()
		shown, n, err := New().Toggle(ctx, target, state, model.IssueEmptyButtons, []string{"button#a"})
		if err == nil || !strings.Contains(err.Error(), "websocket closed") {
			t.Fatalf("expected the mark error, got %v", err)
		}
		var selErr *model.SelectorResolutionError
		if errors.As(err, &selErr) {
			t.Error("a failed evaluation is not a selector error")
		}
		if shown || n != 0 || state.Shown(model.IssueEmptyButtons) {
			t.Errorf("state must not flip: shown=%v marked=%d", shown, n)
		}
		if len(target.scrolled) != 0 {
			t.Error("nothing should be scrolled after a failure")
		}
	})

	t.Run("clear removes every class", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<body><button id="b"></button><img id="i"></body>`)
		state := NewState()
		h := New()
		_, _, _ = h.Toggle(ctx, doc, state, model.IssueEmptyButtons, []string{"button#b"})
		_, _, _ = h.Toggle(ctx, doc, state, model.IssueMissingAlt, []string{"img#i"})

		if err := h.Clear(ctx, doc, state); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		for _, class := range Classes() {
			if got := len(doc.ElementsWithClass(class)); got != 0 {
				t.Errorf("%s: expected 0 marked, got %d", class, got)
			}
		}
		if len(state.ShownTypes()) != 0 {
			t.Error("expected state reset")
		}
	})
}

// TestStylesheet tests the injected CSS.
func TestStylesheet(t *testing.T) {
	t.Parallel()

	css := Stylesheet()
	for _, want := range []string{
		".vibesense-highlight-empty-button {",
		"outline: 3px solid #ef4444 !important;",
		".vibesense-highlight-missing-alt::after {",
		`content: "⚠ Missing Alt" !important;`,
		".vibesense-highlight-overflow::before {",
		"outline: 3px solid #8b5cf6 !important;",
		"z-index: 999999 !important;",
	} {
		if !strings.Contains(css, want) {
			t.Errorf("stylesheet missing %q", want)
		}
	}

	// Page styles must not override any marker or badge declaration.
	for _, line := range strings.Split(css, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasSuffix(line, ";") && !strings.HasSuffix(line, " !important;") {
			t.Errorf("declaration without !important: %q", line)
		}
	}

	if _, ok := ClassFor(model.IssueGeneral); ok {
		t.Error("general issues must not have a class")
	}
	if class, ok := ClassFor(model.IssueOverflow); !ok || class != "vibesense-highlight-overflow" {
		t.Errorf("unexpected overflow class %q", class)
	}
}
