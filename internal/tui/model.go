package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nao1215/vibesense/internal/model"
)

// copiedFor is how long a card shows "Copied!" after a successful copy.
const copiedFor = 2 * time.Second

// Session is the part of session.Session the inspector drives.
type Session interface {
	Scan(ctx context.Context) (*model.ScanResult, error)
	Toggle(ctx context.Context, index int) (bool, int, error)
	Shown(index int) bool
	CopyPrompt(index int) (string, error)
}

type scanFinishedMsg struct {
	result *model.ScanResult
	err    error
}

type toggleFinishedMsg struct {
	index int
	shown bool
	err   error
}

type copyFinishedMsg struct {
	index int
	err   error
}

type copyResetMsg struct {
	seq int
}

// Option configures a Model.
type Option func(*Model)

// WithTarget sets the page name shown in the header.
func WithTarget(target string) Option {
	return func(m *Model) {
		m.target = target
	}
}

// WithClipboardAvailable marks whether copying can work at all. Without a
// clipboard the copy button is shown as unavailable.
func WithClipboardAvailable(available bool) Option {
	return func(m *Model) {
		m.clipboardOK = available
	}
}

// Model is the inspector: a scan button, a status line and one card per
// issue with "Show on Page" and "Copy Prompt" actions.
type Model struct {
	ctx    context.Context
	sess   Session
	target string

	spinner     spinner.Model
	scanning    bool
	result      *model.ScanResult
	cursor      int
	status      string
	failed      bool
	clipboardOK bool

	copiedIndex int
	copySeq     int

	width int
}

// New creates the inspector for sess. Long-running actions use ctx.
func New(ctx context.Context, sess Session, opts ...Option) Model {
	m := Model{
		ctx:         ctx,
		sess:        sess,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
		clipboardOK: true,
		copiedIndex: -1,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case scanFinishedMsg:
		m.scanning = false
		if msg.err != nil {
			m.failed = true
			m.status = "❌ Error scanning page"
			return m, nil
		}
		m.failed = false
		m.result = msg.result
		m.cursor = 0
		m.status = fmt.Sprintf("✅ Found %d recommendation(s)", len(msg.result.Issues))
		return m, nil

	case toggleFinishedMsg:
		if msg.err != nil {
			m.failed = true
			m.status = "❌ " + msg.err.Error()
		}
		return m, nil

	case copyFinishedMsg:
		if msg.err != nil {
			m.failed = true
			m.status = "❌ " + msg.err.Error()
			return m, nil
		}
		m.copiedIndex = msg.index
		m.copySeq++
		seq := m.copySeq
		return m, tea.Tick(copiedFor, func(time.Time) tea.Msg {
			return copyResetMsg{seq: seq}
		})

	case copyResetMsg:
		if msg.seq == m.copySeq {
			m.copiedIndex = -1
		}
		return m, nil

	case spinner.TickMsg:
		if !m.scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit

	case "s":
		// The scan button is disabled while a scan runs.
		if m.scanning {
			return m, nil
		}
		m.scanning = true
		m.failed = false
		m.status = ""
		m.result = nil
		m.copiedIndex = -1
		return m, tea.Batch(m.spinner.Tick, m.scanCmd())

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.result != nil && m.cursor < len(m.result.Issues)-1 {
			m.cursor++
		}
		return m, nil

	case "enter", "h":
		issue, ok := m.selected()
		if !ok || !issue.Highlightable() {
			return m, nil
		}
		return m, m.toggleCmd(m.cursor)

	case "c":
		if _, ok := m.selected(); !ok {
			return m, nil
		}
		return m, m.copyCmd(m.cursor)
	}

	return m, nil
}

func (m Model) selected() (model.Issue, bool) {
	if m.scanning || m.result == nil || m.cursor < 0 || m.cursor >= len(m.result.Issues) {
		return model.Issue{}, false
	}
	return m.result.Issues[m.cursor], true
}

func (m Model) scanCmd() tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		result, err := sess.Scan(ctx)
		return scanFinishedMsg{result: result, err: err}
	}
}

func (m Model) toggleCmd(index int) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		shown, _, err := sess.Toggle(ctx, index)
		return toggleFinishedMsg{index: index, shown: shown, err: err}
	}
}

func (m Model) copyCmd(index int) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		_, err := sess.CopyPrompt(index)
		return copyFinishedMsg{index: index, err: err}
	}
}

// Scanning reports whether a scan is running.
func (m Model) Scanning() bool {
	return m.scanning
}

// Result returns the latest result shown, or nil.
func (m Model) Result() *model.ScanResult {
	return m.result
}

// Cursor returns the index of the selected card.
func (m Model) Cursor() int {
	return m.cursor
}

// Status returns the status line text.
func (m Model) Status() string {
	return m.status
}
