package report

import (
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/vibesense/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs one scan result and returns the number of bytes written.
	Write(result *model.ScanResult) (int, error)

	// WriteAll outputs several results (a crawl or a batch) as one report.
	WriteAll(results []*model.ScanResult) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the result to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(result *model.ScanResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteAll outputs the results to all configured Writers.
func (m *MultiWriter) WriteAll(results []*model.ScanResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteAll(results)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer

	// prompts appends the generated AI prompt to every issue.
	prompts bool
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// severityOrder lists severities from most to least severe.
var severityOrder = []model.Severity{
	model.SeverityHigh,
	model.SeverityMedium,
	model.SeverityLow,
	model.SeverityInfo,
}

var titleCaser = cases.Title(language.English)

// TypeLabel turns an issue tag such as "empty-buttons" into "Empty Buttons".
func TypeLabel(t model.IssueType) string {
	return titleCaser.String(strings.ReplaceAll(string(t), "-", " "))
}

// totals sums the issue counts of several results per severity.
// The general placeholder is not counted.
func totals(results []*model.ScanResult) map[model.Severity]int {
	counts := make(map[model.Severity]int)
	for _, r := range results {
		for _, issue := range r.Issues {
			if issue.Type == model.IssueGeneral {
				continue
			}
			counts[issue.Severity]++
		}
	}
	return counts
}

func sum(counts map[model.Severity]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
