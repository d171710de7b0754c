package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/vibesense/internal/model"
	"github.com/nao1215/vibesense/internal/session"
)

type memoryClipboard struct {
	mu   sync.Mutex
	text string
	err  error
}

func (m *memoryClipboard) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.text = text
	return nil
}

func (m *memoryClipboard) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// useClipboard replaces the system clipboard for the duration of a test.
// Tests calling it must not run in parallel.
func useClipboard(t *testing.T, c session.Clipboard) {
	t.Helper()

	orig := newClipboard
	newClipboard = func() session.Clipboard { return c }
	t.Cleanup(func() { newClipboard = orig })
}

func promptSession(t *testing.T, content string) (*session.Session, []string) {
	t.Helper()

	cfg := testConfig(writePage(t, "index.html", content))
	sess, src, err := newSession(cfg, cfg.Targets[0], discardLogger())
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	t.Cleanup(src.Close)
	return sess, cfg.Targets
}

// TestRunPrompt tests printing prompts.
func TestRunPrompt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("every issue by default", func(t *testing.T) {
		t.Parallel()

		sess, targets := promptSession(t, buttonPage)
		var stdout, stderr bytes.Buffer
		err := runPrompt(ctx, sess, testConfig(targets...), nil, false, &stdout, &stderr)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := stdout.String()
		if got := strings.Count(out, "[VIBESENSE ANALYSIS REPORT]"); got != 2 {
			t.Errorf("expected 2 prompts, got %d", got)
		}
		if !strings.Contains(out, "---") {
			t.Error("prompts should be separated")
		}
		if !strings.Contains(out, "Target URL: file://") {
			t.Error("prompt should name the page")
		}
	})

	t.Run("missing type", func(t *testing.T) {
		t.Parallel()

		sess, targets := promptSession(t, cleanPage)
		var stdout, stderr bytes.Buffer
		err := runPrompt(ctx, sess, testConfig(targets...), []model.IssueType{model.IssueMissingAlt}, false, &stdout, &stderr)
		if err == nil || err.Error() != "no matching issues on this page" {
			t.Errorf("unexpected error: %v", err)
		}
		if !strings.Contains(stderr.String(), "No Missing Alt found.") {
			t.Errorf("stderr = %q", stderr.String())
		}
	})
}

// TestRunPromptCopy tests copying prompts to the clipboard.
func TestRunPromptCopy(t *testing.T) {
	ctx := context.Background()

	t.Run("single prompt", func(t *testing.T) {
		clip := &memoryClipboard{}
		useClipboard(t, clip)

		sess, targets := promptSession(t, buttonPage)
		var stdout, stderr bytes.Buffer
		err := runPrompt(ctx, sess, testConfig(targets...), []model.IssueType{model.IssueEmptyButtons}, true, &stdout, &stderr)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.HasPrefix(clip.Text(), "[VIBESENSE ANALYSIS REPORT]") {
			t.Errorf("clipboard = %q", clip.Text())
		}
		if stdout.Len() != 0 {
			t.Error("nothing should be printed when copying")
		}
		if !strings.Contains(stderr.String(), "Copied prompt for Empty Buttons to the clipboard.") {
			t.Errorf("stderr = %q", stderr.String())
		}
	})

	t.Run("several prompts", func(t *testing.T) {
		clip := &memoryClipboard{}
		useClipboard(t, clip)

		sess, targets := promptSession(t, buttonPage)
		var stdout, stderr bytes.Buffer
		if err := runPrompt(ctx, sess, testConfig(targets...), nil, true, &stdout, &stderr); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(clip.Text(), "[VIBESENSE ANALYSIS REPORT]") != 2 {
			t.Errorf("clipboard = %q", clip.Text())
		}
		if !strings.Contains(stderr.String(), "Copied 2 prompts to the clipboard.") {
			t.Errorf("stderr = %q", stderr.String())
		}
	})

	t.Run("clipboard failure", func(t *testing.T) {
		useClipboard(t, &memoryClipboard{err: errors.New("xclip not found")})

		sess, targets := promptSession(t, buttonPage)
		var stdout, stderr bytes.Buffer
		err := runPrompt(ctx, sess, testConfig(targets...), nil, true, &stdout, &stderr)

		var cwe *model.ClipboardWriteError
		if !errors.As(err, &cwe) {
			t.Errorf("expected ClipboardWriteError, got %v", err)
		}
	})
}
