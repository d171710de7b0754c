package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/nao1215/vibesense/internal/dom"
	"github.com/nao1215/vibesense/internal/model"
)

// Tab is one open page. It implements highlight.Target.
type Tab struct {
	ctx    context.Context
	cancel context.CancelFunc
	url    string
	settle time.Duration
	logger *slog.Logger
}

// URL returns the address the tab was opened with.
func (t *Tab) URL() string {
	return t.url
}

// Close closes the tab.
func (t *Tab) Close() {
	t.cancel()
}

// run executes actions in the tab, bounded by both the tab's lifetime and
// the caller's ctx. The target must already be attached by Open; a first
// Run on runCtx would tie the tab's event loop to this call.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()

	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (t *Tab) loadActions(nav chromedp.Action) []chromedp.Action {
	actions := []chromedp.Action{nav, chromedp.WaitReady("body")}
	if t.settle > 0 {
		actions = append(actions, chromedp.Sleep(t.settle))
	}
	return actions
}

// evaluate runs a script that returns a JSON string and decodes it into v.
func (t *Tab) evaluate(ctx context.Context, script string, v any) error {
	var raw string
	if err := t.run(ctx, chromedp.Evaluate(script, &raw)); err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}

// Snapshot serializes the rendered DOM with measured widths and visibility.
// Failure is returned as *model.PlatformInjectionError.
func (t *Tab) Snapshot(ctx context.Context) (*dom.Document, error) {
	var snap dom.Snapshot
	if err := t.evaluate(ctx, snapshotScript, &snap); err != nil {
		return nil, model.NewPlatformInjectionError(t.url, fmt.Errorf("snapshot failed: %w", err))
	}

	doc, err := dom.FromSnapshot(&snap)
	if err != nil {
		return nil, model.NewPlatformInjectionError(t.url, err)
	}
	return doc, nil
}

// Reload reloads the page. Highlights are lost with the old document.
func (t *Tab) Reload(ctx context.Context) error {
	if err := t.run(ctx, t.loadActions(chromedp.Reload())...); err != nil {
		return model.NewPlatformInjectionError(t.url, fmt.Errorf("reload failed: %w", err))
	}
	return nil
}

// Screenshot captures the full page as PNG (quality 100) or JPEG.
func (t *Tab) Screenshot(ctx context.Context, quality int) ([]byte, error) {
	var buf []byte
	if err := t.run(ctx, chromedp.FullScreenshot(&buf, quality)); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// InjectStyle adds or replaces the <style id=id> element.
func (t *Tab) InjectStyle(ctx context.Context, id, css string) error {
	var res scriptResult
	if err := t.evaluate(ctx, injectStyleScript(id, css), &res); err != nil {
		return err
	}
	return res.err()
}

// RemoveClass strips class from every element carrying it.
func (t *Tab) RemoveClass(ctx context.Context, class string) (int, error) {
	var res scriptResult
	if err := t.evaluate(ctx, removeClassScript(class), &res); err != nil {
		return 0, err
	}
	return res.Count, res.err()
}

// AddClass adds class to every element matching selector. A selector the
// page rejects yields a *model.SelectorResolutionError.
func (t *Tab) AddClass(ctx context.Context, selector, class string) (int, error) {
	var res scriptResult
	if err := t.evaluate(ctx, addClassScript(selector, class), &res); err != nil {
		return 0, err
	}
	if err := res.err(); err != nil {
		return 0, &model.SelectorResolutionError{Selector: selector, Err: err}
	}
	return res.Count, nil
}

// ScrollIntoView smoothly scrolls the first match to the middle of the
// window.
func (t *Tab) ScrollIntoView(ctx context.Context, selector string) error {
	var res scriptResult
	if err := t.evaluate(ctx, scrollScript(selector), &res); err != nil {
		return err
	}
	if err := res.err(); err != nil {
		return &model.SelectorResolutionError{Selector: selector, Err: err}
	}
	return nil
}

// scriptResult is what the helper scripts return.
type scriptResult struct {
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

func (r scriptResult) err() error {
	if r.Error == "" {
		return nil
	}
	return errors.New(r.Error)
}
