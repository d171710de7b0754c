// Package session ties the scanner, the highlighter and the prompt builder
// to one page, the way the popup does for the active tab.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nao1215/vibesense/internal/dom"
	"github.com/nao1215/vibesense/internal/highlight"
	"github.com/nao1215/vibesense/internal/model"
	"github.com/nao1215/vibesense/internal/prompt"
	"github.com/nao1215/vibesense/internal/scanner"
)

var (
	// ErrScanInProgress is returned when Scan is called while a scan runs.
	ErrScanInProgress = errors.New("scan already in progress")

	// ErrNotScanned is returned by issue operations before the first scan.
	ErrNotScanned = errors.New("page has not been scanned")

	// ErrNoSuchIssue is returned for an out-of-range issue index.
	ErrNoSuchIssue = errors.New("no such issue")

	// ErrNoClipboard is wrapped into a ClipboardWriteError when the session
	// has no clipboard.
	ErrNoClipboard = errors.New("no clipboard available")
)

// Page is a loaded document together with the surface highlights are drawn
// on. For static pages Target is the Document itself.
type Page struct {
	Document *dom.Document
	Target   highlight.Target
}

// Source loads a fresh copy of the page.
type Source interface {
	Load(ctx context.Context) (*Page, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Page, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) (*Page, error) {
	return f(ctx)
}

// Clipboard receives copied prompts.
type Clipboard interface {
	WriteText(text string) error
}

// Option configures a Session.
type Option func(*Session)

// WithScanner replaces the default scanner.
func WithScanner(s *scanner.Scanner) Option {
	return func(sess *Session) {
		sess.scanner = s
	}
}

// WithHighlighter replaces the default highlighter.
func WithHighlighter(h *highlight.Highlighter) Option {
	return func(sess *Session) {
		sess.highlighter = h
	}
}

// WithClipboard sets the clipboard used by CopyPrompt.
func WithClipboard(c Clipboard) Option {
	return func(sess *Session) {
		sess.clipboard = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(sess *Session) {
		sess.logger = logger
	}
}

// Session owns one page source, its latest scan result and the highlight
// state. Methods are safe for concurrent use; only one scan runs at a time.
type Session struct {
	source      Source
	scanner     *scanner.Scanner
	highlighter *highlight.Highlighter
	clipboard   Clipboard
	logger      *slog.Logger
	state       *highlight.State

	scanning atomic.Bool

	mu     sync.Mutex
	page   *Page
	result *model.ScanResult
}

// New creates a Session for source.
func New(source Source, opts ...Option) *Session {
	s := &Session{
		source: source,
		logger: slog.Default(),
		state:  highlight.NewState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scanner == nil {
		s.scanner = scanner.New(scanner.WithLogger(s.logger))
	}
	if s.highlighter == nil {
		s.highlighter = highlight.New(highlight.WithLogger(s.logger))
	}
	return s
}

// Scanning reports whether a scan is running.
func (s *Session) Scanning() bool {
	return s.scanning.Load()
}

// Scan loads the page and scans it. The previous result and every
// highlight flag are replaced, since loading yields a new document.
//
// Failure to obtain the document is a *model.PlatformInjectionError.
func (s *Session) Scan(ctx context.Context) (*model.ScanResult, error) {
	if !s.scanning.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.scanning.Store(false)

	page, err := s.source.Load(ctx)
	if err != nil {
		var pie *model.PlatformInjectionError
		if errors.As(err, &pie) {
			return nil, err
		}
		return nil, model.NewPlatformInjectionError("", err)
	}
	if page == nil || page.Document == nil {
		return nil, model.NewPlatformInjectionError("", scanner.ErrNoDocument)
	}
	if page.Target == nil {
		page.Target = page.Document
	}

	result, err := s.scanner.Scan(ctx, page.Document)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.page = page
	s.result = result
	s.state.Reset()
	s.mu.Unlock()

	s.logger.Debug("page scanned", "url", result.PageURL, "issues", len(result.Issues))
	return result, nil
}

// Result returns the latest scan result, or nil before the first scan.
func (s *Session) Result() *model.ScanResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Page returns the page of the latest scan, or nil.
func (s *Session) Page() *Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// State returns the highlight state.
func (s *Session) State() *highlight.State {
	return s.state
}

// Shown reports whether issue index is currently highlighted.
func (s *Session) Shown(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil || index < 0 || index >= len(s.result.Issues) {
		return false
	}
	return s.state.Shown(s.result.Issues[index].Type)
}

// Toggle shows or hides the highlights of issue index. It returns whether
// they are shown afterwards and how many elements were marked.
func (s *Session) Toggle(ctx context.Context, index int) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, err := s.issueLocked(index)
	if err != nil {
		return false, 0, err
	}
	return s.highlighter.Toggle(ctx, s.page.Target, s.state, issue.Type, issue.Selectors)
}

// Prompt builds the prompt of issue index.
func (s *Session) Prompt(index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, err := s.issueLocked(index)
	if err != nil {
		return "", err
	}
	return prompt.ForIssue(s.result, issue), nil
}

// CopyPrompt builds the prompt of issue index and writes it to the
// clipboard. Write failures are returned as *model.ClipboardWriteError.
func (s *Session) CopyPrompt(index int) (string, error) {
	text, err := s.Prompt(index)
	if err != nil {
		return "", err
	}
	if s.clipboard == nil {
		return "", &model.ClipboardWriteError{Err: ErrNoClipboard}
	}
	if err := s.clipboard.WriteText(text); err != nil {
		var cwe *model.ClipboardWriteError
		if errors.As(err, &cwe) {
			return "", err
		}
		return "", &model.ClipboardWriteError{Err: err}
	}
	return text, nil
}

func (s *Session) issueLocked(index int) (model.Issue, error) {
	if s.result == nil {
		return model.Issue{}, ErrNotScanned
	}
	if index < 0 || index >= len(s.result.Issues) {
		return model.Issue{}, fmt.Errorf("%w: index %d of %d", ErrNoSuchIssue, index, len(s.result.Issues))
	}
	return s.result.Issues[index], nil
}
