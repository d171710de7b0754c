package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nao1215/vibesense/internal/model"
)

// Colors follow the extension popup: indigo buttons, gray when active.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#6366f1"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	statusOKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	statusErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	selectedCardStyle = cardStyle.
				BorderForeground(lipgloss.Color("#6366f1"))

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("#6366f1")).
			Padding(0, 1)

	activeButtonStyle = buttonStyle.
				Background(lipgloss.Color("#6b7280"))

	disabledButtonStyle = buttonStyle.
				Background(lipgloss.Color("238")).
				Foreground(lipgloss.Color("245"))

	severityStyles = map[model.Severity]lipgloss.Style{
		model.SeverityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		model.SeverityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		model.SeverityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		model.SeverityInfo:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
)

const (
	defaultWidth = 72
	maxCardWidth = 96
)

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("VibeSense"))
	if m.target != "" {
		sb.WriteString("  " + subtleStyle.Render(m.target))
	}
	sb.WriteString("\n\n")

	if m.scanning {
		sb.WriteString(disabledButtonStyle.Render("Scan Page"))
		sb.WriteString("  " + m.spinner.View() + " Scanning page...")
	} else {
		sb.WriteString(buttonStyle.Render("Scan Page"))
	}
	sb.WriteString("\n")

	if m.status != "" {
		style := statusOKStyle
		if m.failed {
			style = statusErrStyle
		}
		sb.WriteString("\n" + style.Render(m.status) + "\n")
	}

	if m.result != nil {
		sb.WriteString(subtleStyle.Render("Tech: "+string(m.result.TechHint)) + "\n\n")
		for i, issue := range m.result.Issues {
			sb.WriteString(m.renderCard(i, issue))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(subtleStyle.Render(m.helpLine()))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) cardWidth() int {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	return min(width-4, maxCardWidth)
}

func (m Model) renderCard(index int, issue model.Issue) string {
	style := cardStyle
	if index == m.cursor {
		style = selectedCardStyle
	}
	style = style.Width(m.cardWidth())

	severity := severityStyles[issue.Severity].Render(issue.Severity.String())
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(issue.Title) + "  " + severity,
		issue.Description,
		"",
		m.renderButtons(index, issue),
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m Model) renderButtons(index int, issue model.Issue) string {
	buttons := make([]string, 0, 2)

	if issue.Highlightable() {
		if m.sess.Shown(index) {
			buttons = append(buttons, activeButtonStyle.Render("Hide Highlights"))
		} else {
			buttons = append(buttons, buttonStyle.Render("Show on Page"))
		}
	}

	switch {
	case !m.clipboardOK:
		buttons = append(buttons, disabledButtonStyle.Render("Copy Prompt (no clipboard)"))
	case index == m.copiedIndex:
		buttons = append(buttons, activeButtonStyle.Render("✓ Copied!"))
	default:
		buttons = append(buttons, buttonStyle.Render("Copy Prompt"))
	}

	return strings.Join(buttons, " ")
}

func (m Model) helpLine() string {
	if m.result == nil {
		return "s scan • q quit"
	}
	return "s scan • ↑/↓ select • enter/h show on page • c copy prompt • q quit"
}
