package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/vibesense/internal/model"
	"github.com/nao1215/vibesense/internal/prompt"
)

// MarkdownWriter outputs reports in Markdown format, suitable for pull
// request comments and issue trackers.
type MarkdownWriter struct {
	baseWriter
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownPrompts appends the AI prompt to each issue as a code block.
func WithMarkdownPrompts(enabled bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.prompts = enabled
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs one result in Markdown format.
func (w *MarkdownWriter) Write(result *model.ScanResult) (int, error) {
	return w.WriteAll([]*model.ScanResult{result})
}

// WriteAll outputs several results. The summary and chart cover all pages.
func (w *MarkdownWriter) WriteAll(results []*model.ScanResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("VibeSense Report")
	md.PlainText("")

	w.writeSummary(md, results)

	for _, result := range results {
		w.writePage(md, result)
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeSummary writes the severity table, chart and alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, results []*model.ScanResult) {
	counts := totals(results)

	md.H2("Severity Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 High", strconv.Itoa(counts[model.SeverityHigh])},
			{"🟡 Medium", strconv.Itoa(counts[model.SeverityMedium])},
			{"🔵 Low", strconv.Itoa(counts[model.SeverityLow])},
			{"**Total**", "**" + strconv.Itoa(sum(counts)) + "**"},
		},
	})
	md.PlainText("")

	if sum(counts) > 0 {
		w.writePieChart(md, counts)
	}

	w.writeAlert(md, counts)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.Severity]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Issue Severity Distribution"),
		piechart.WithShowData(true),
	)

	for _, severity := range severityOrder {
		if counts[severity] > 0 {
			chart.LabelAndIntValue(titleCaser.String(strings.ToLower(severity.String())), uint64(counts[severity]))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on severity counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, counts map[model.Severity]int) {
	switch {
	case counts[model.SeverityHigh] > 0:
		md.Warningf(
			"%d high severity issue(s) block assistive technology users and should be fixed first.",
			counts[model.SeverityHigh],
		)
	case counts[model.SeverityMedium] > 0:
		md.Importantf(
			"%d medium severity issue(s) degrade the experience for some users.",
			counts[model.SeverityMedium],
		)
	case sum(counts) > 0:
		md.Note("Only low severity issues detected.")
	default:
		md.Tip("No critical problems detected. Consider an overall UI polish pass.")
	}
	md.PlainText("")
}

// writePage writes the properties and issues of one scanned page.
func (w *MarkdownWriter) writePage(md *markdown.Markdown, result *model.ScanResult) {
	md.H2(result.PageURL)
	md.PlainText("")

	rows := [][]string{
		{"Page", "`" + result.PageURL + "`"},
		{"Tech Stack", string(result.TechHint)},
		{"Backend", string(result.Backend)},
	}
	if !result.ScannedAt.IsZero() {
		rows = append(rows, []string{"Scan Date", result.ScannedAt.Format("2006-01-02 15:04:05 MST")})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, issue := range result.Issues {
		w.writeIssue(md, result, issue)
	}
}

func (w *MarkdownWriter) writeIssue(md *markdown.Markdown, result *model.ScanResult, issue model.Issue) {
	md.PlainText(fmt.Sprintf("### %s %s", severityIcon(issue.Severity), issue.Title))
	md.PlainText("")
	md.PlainText(issue.Description)
	md.PlainText("")

	info := model.GetIssueInfo(issue.Type)
	md.Table(markdown.TableSet{
		Header: []string{"Type", "Severity", "Count"},
		Rows: [][]string{
			{TypeLabel(issue.Type), issue.Severity.String(), strconv.Itoa(issue.Count)},
		},
	})
	md.PlainText("")

	if issue.Highlightable() {
		items := make([]string, 0, len(issue.Selectors))
		for _, sel := range issue.Selectors {
			items = append(items, "`"+sel+"`")
		}
		md.BulletList(items...)
		md.PlainText("")
		if issue.Truncated() {
			md.PlainTextf("*Showing %d of %d elements.*", len(issue.Selectors), issue.Count)
			md.PlainText("")
		}
	}

	md.Details("Impact and recommendation", info.Impact+"\n\n"+info.Recommendation)
	md.PlainText("")

	if w.prompts {
		md.CodeBlocks(markdown.SyntaxHighlight("text"), prompt.ForIssue(result, issue))
		md.PlainText("")
	}
}

// severityIcon returns the emoji used for a severity in headings.
func severityIcon(s model.Severity) string {
	switch s {
	case model.SeverityHigh:
		return "🔴"
	case model.SeverityMedium:
		return "🟡"
	case model.SeverityLow:
		return "🔵"
	default:
		return "⚪"
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [VibeSense](https://github.com/nao1215/vibesense)*")
}
