package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/vibesense/internal/model"
)

// createTestResult creates a result with sample issues for testing.
func createTestResult() *model.ScanResult {
	return &model.ScanResult{
		ID:       "scan-1",
		PageURL:  "https://example.com/",
		TechHint: model.TechTailwind,
		Issues: []model.Issue{
			model.NewIssue(model.IssueEmptyButtons, "Empty Buttons (2 found)",
				"Found 2 buttons without text or labels. This is a common accessibility issue.",
				"Found 2 buttons without text or labels.", 2,
				[]string{"div#app > button", "div#app > button:nth-of-type(2)"}),
			model.NewIssue(model.IssueMissingAlt, "Missing Alt Text (1 images)",
				"Found 1 images missing descriptive alt text. This affects accessibility and SEO.",
				"Found 1 images missing descriptive alt text.", 1,
				[]string{"main > img"}),
		},
		ScannedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Backend:   model.BackendStatic,
	}
}

func createCleanResult() *model.ScanResult {
	return &model.ScanResult{
		ID:       "scan-2",
		PageURL:  "https://example.com/clean",
		TechHint: model.TechStandard,
		Issues: []model.Issue{
			model.NewIssue(model.IssueGeneral, "General UI Polish",
				"No critical bugs found. Suggest overall UI polish and optimization.",
				"No critical bugs found. Suggest overall UI polish.", 0, nil),
		},
		Backend: model.BackendBrowser,
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "VIBESENSE REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "https://example.com/") {
			t.Error("expected output to contain page URL")
		}
		if !strings.Contains(output, "Tailwind CSS") {
			t.Error("expected output to contain tech hint")
		}
	})

	t.Run("writes severity summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "HIGH:   1") {
			t.Errorf("expected one high issue, got:\n%s", output)
		}
		if !strings.Contains(output, "MEDIUM: 1") {
			t.Errorf("expected one medium issue, got:\n%s", output)
		}
	})

	t.Run("lists selectors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "- div#app > button:nth-of-type(2)") {
			t.Error("expected selector in output")
		}
	})

	t.Run("selector limit reports remainder", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithSelectorLimit(1))

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "nth-of-type(2)") {
			t.Error("expected second selector to be cut")
		}
		if !strings.Contains(output, "... and 1 more") {
			t.Error("expected remainder line")
		}
	})

	t.Run("verbose adds recommendation", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "Recommendation:") {
			t.Error("expected recommendation in verbose output")
		}
	})

	t.Run("prompts are appended", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithSimplePrompts(true))

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "| [VIBESENSE ANALYSIS REPORT]") {
			t.Error("expected prompt block")
		}
	})

	t.Run("write all adds totals", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.WriteAll([]*model.ScanResult{createTestResult(), createCleanResult()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "TOTAL (2 pages)") {
			t.Error("expected totals section")
		}
		if !strings.Contains(output, "TOTAL:  2 issues") {
			t.Errorf("expected placeholder to be excluded from totals, got:\n%s", output)
		}
	})

	t.Run("returns bytes written", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		n, err := w.Write(createTestResult())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes, got %d", buf.Len(), n)
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes title and tables", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# VibeSense Report",
			"## Severity Summary",
			"Tailwind CSS",
			"Empty Buttons",
			"`div#app > button`",
			"mermaid",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("warns on high severity", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "[!WARNING]") {
			t.Error("expected warning alert")
		}
	})

	t.Run("clean page gets tip and no chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createCleanResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected tip alert")
		}
		if strings.Contains(output, "mermaid") {
			t.Error("expected no chart without issues")
		}
	})

	t.Run("includes prompts when enabled", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf, WithMarkdownPrompts(true))

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "INSTRUCTIONS FOR AI:") {
			t.Error("expected prompt in output")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithVersion("v1.0.0"))

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded struct {
			Version string `json:"version"`
			Results []struct {
				URL             string        `json:"url"`
				Tech            string        `json:"tech"`
				Recommendations []model.Issue `json:"recommendations"`
			} `json:"results"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}

		if decoded.Version != "v1.0.0" {
			t.Errorf("expected version v1.0.0, got %q", decoded.Version)
		}
		if len(decoded.Results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(decoded.Results))
		}
		got := decoded.Results[0]
		if got.URL != "https://example.com/" || got.Tech != "Tailwind CSS" {
			t.Errorf("unexpected result header: %+v", got)
		}
		if len(got.Recommendations) != 2 || got.Recommendations[0].Severity != model.SeverityHigh {
			t.Errorf("unexpected recommendations: %+v", got.Recommendations)
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  \"results\"") {
			t.Error("expected indented output")
		}
	})

	t.Run("prompts are included when enabled", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithJSONPrompts(true))

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded struct {
			Results []struct {
				Prompts []string `json:"prompts"`
			} `json:"results"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded.Results[0].Prompts) != 2 {
			t.Errorf("expected 2 prompts, got %d", len(decoded.Results[0].Prompts))
		}
	})

	t.Run("prompts omitted by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "\"prompts\"") {
			t.Error("expected no prompts field")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		n, err := m.Write(createTestResult())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var js bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(failingWriter{}), NewJSONWriter(&js))

		if _, err := m.WriteAll([]*model.ScanResult{createTestResult()}); err == nil {
			t.Fatal("expected error")
		}
		if js.Len() != 0 {
			t.Error("expected second writer to be skipped")
		}
	})
}

// TestTypeLabel tests issue tag title-casing.
func TestTypeLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   model.IssueType
		want string
	}{
		{model.IssueEmptyButtons, "Empty Buttons"},
		{model.IssueMissingAlt, "Missing Alt"},
		{model.IssueDeepNesting, "Deep Nesting"},
		{model.IssueOverflow, "Overflow"},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			t.Parallel()
			if got := TypeLabel(tt.in); got != tt.want {
				t.Errorf("TypeLabel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
