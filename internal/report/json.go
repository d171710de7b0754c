package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/vibesense/internal/model"
	"github.com/nao1215/vibesense/internal/prompt"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is written into the envelope when non-empty.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the tool version in the output envelope.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// WithJSONPrompts includes the generated prompts in the output.
func WithJSONPrompts(enabled bool) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prompts = enabled
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the envelope written by JSONWriter.
type JSONReport struct {
	// Version is the VibeSense version that generated this report.
	Version string `json:"version,omitempty"`

	// Results holds one entry per scanned page.
	Results []JSONResult `json:"results"`
}

// JSONResult is a scan result with optional prompts attached.
type JSONResult struct {
	*model.ScanResult

	// Prompts holds one prompt per issue, in issue order.
	Prompts []string `json:"prompts,omitempty"`
}

// Write outputs one result wrapped in the report envelope.
func (w *JSONWriter) Write(result *model.ScanResult) (int, error) {
	return w.WriteAll([]*model.ScanResult{result})
}

// WriteAll outputs all results in one envelope.
func (w *JSONWriter) WriteAll(results []*model.ScanResult) (int, error) {
	report := JSONReport{
		Version: w.version,
		Results: make([]JSONResult, 0, len(results)),
	}
	for _, r := range results {
		entry := JSONResult{ScanResult: r}
		if w.prompts {
			entry.Prompts = prompt.All(r)
		}
		report.Results = append(report.Results, entry)
	}
	return w.writeJSON(report)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output.
	data = append(data, '\n')

	return w.output.Write(data)
}
