package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/vibesense/internal/model"
	"github.com/nao1215/vibesense/internal/prompt"
)

// SimpleWriter outputs human-readable text reports.
// It uses plain ASCII so output can be piped to files or other tools.
type SimpleWriter struct {
	baseWriter

	// verbose adds impact and recommendation text to every issue.
	verbose bool

	// maxSelectors limits how many selectors are listed per issue.
	// Zero lists all of them.
	maxSelectors int
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithSelectorLimit limits the selectors listed per issue.
func WithSelectorLimit(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.maxSelectors = n
	}
}

// WithSimplePrompts appends the AI prompt to each issue.
func WithSimplePrompts(enabled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.prompts = enabled
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:   newBaseWriter(output),
		verbose:      false,
		maxSelectors: 10,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one result in human-readable format.
func (w *SimpleWriter) Write(result *model.ScanResult) (int, error) {
	var sb strings.Builder
	w.writeResult(&sb, result)
	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

// WriteAll outputs every result followed by an overall summary.
func (w *SimpleWriter) WriteAll(results []*model.ScanResult) (int, error) {
	var sb strings.Builder
	for _, result := range results {
		w.writeResult(&sb, result)
	}
	if len(results) > 1 {
		w.writeTotals(&sb, results)
	}
	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeResult(sb *strings.Builder, result *model.ScanResult) {
	w.writeHeader(sb, result)
	w.writeSummary(sb, result)
	w.writeIssues(sb, result)
}

// writeHeader writes the report header with scan information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.ScanResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         VIBESENSE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Page:       %s\n", result.PageURL)
	fmt.Fprintf(sb, "Tech Stack: %s\n", result.TechHint)
	fmt.Fprintf(sb, "Backend:    %s\n", result.Backend)
	if !result.ScannedAt.IsZero() {
		fmt.Fprintf(sb, "Scan Date:  %s\n", result.ScannedAt.Format("2006-01-02 15:04:05 MST"))
	}
	sb.WriteString("\n")
}

// writeSummary writes the severity summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, result *model.ScanResult) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SEVERITY SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	counts := totals([]*model.ScanResult{result})
	for _, severity := range severityOrder[:3] {
		fmt.Fprintf(sb, "  %-7s %d\n", severity.String()+":", counts[severity])
	}
	sb.WriteString("\n")
}

// writeIssues writes all issues in scan order.
func (w *SimpleWriter) writeIssues(sb *strings.Builder, result *model.ScanResult) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ISSUES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for i, issue := range result.Issues {
		fmt.Fprintf(sb, "%d. [%s] %s\n", i+1, w.getSeverityIndicator(issue.Severity), issue.Title)
		fmt.Fprintf(sb, "   %s\n", issue.Description)

		if w.verbose {
			info := model.GetIssueInfo(issue.Type)
			fmt.Fprintf(sb, "   Impact: %s\n", info.Impact)
			fmt.Fprintf(sb, "   Recommendation: %s\n", info.Recommendation)
		}

		w.writeSelectors(sb, issue)

		if w.prompts {
			sb.WriteString("\n   Prompt:\n")
			for _, line := range strings.Split(prompt.ForIssue(result, issue), "\n") {
				fmt.Fprintf(sb, "   | %s\n", line)
			}
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeSelectors(sb *strings.Builder, issue model.Issue) {
	if !issue.Highlightable() {
		return
	}

	selectors := issue.Selectors
	if w.maxSelectors > 0 && len(selectors) > w.maxSelectors {
		selectors = selectors[:w.maxSelectors]
	}
	for _, sel := range selectors {
		fmt.Fprintf(sb, "   - %s\n", sel)
	}
	if rest := issue.Count - len(selectors); rest > 0 {
		fmt.Fprintf(sb, "   ... and %d more\n", rest)
	}
}

// writeTotals writes the summary across several pages.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, results []*model.ScanResult) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "TOTAL (%d pages)\n", len(results))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	counts := totals(results)
	for _, severity := range severityOrder[:3] {
		fmt.Fprintf(sb, "  %-7s %d\n", severity.String()+":", counts[severity])
	}
	fmt.Fprintf(sb, "\n  TOTAL:  %d issues\n\n", sum(counts))
}

// getSeverityIndicator returns a visual indicator for the severity level.
func (w *SimpleWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by VibeSense\n")
	sb.WriteString("https://github.com/nao1215/vibesense\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
