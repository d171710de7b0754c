package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/vibesense/internal/database"
	"github.com/nao1215/vibesense/internal/model"
)

func openTestDB(t *testing.T) *database.ScanDB {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func saveScan(t *testing.T, db *database.ScanDB, id, pageURL string, at time.Time, issues ...model.Issue) {
	t.Helper()

	result := &model.ScanResult{
		ID:        id,
		PageURL:   pageURL,
		TechHint:  model.TechStandard,
		Issues:    issues,
		ScannedAt: at,
		Backend:   model.BackendStatic,
	}
	if err := db.Save(context.Background(), result); err != nil {
		t.Fatalf("failed to save scan: %v", err)
	}
}

func emptyButtons(count int) model.Issue {
	return model.NewIssue(model.IssueEmptyButtons, "Empty Buttons", "Buttons need labels.", "fix", count, []string{"#a"})
}

func missingAlt(count int) model.Issue {
	return model.NewIssue(model.IssueMissingAlt, "Missing Alt", "Images need alt.", "fix", count, []string{"#img"})
}

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	if !strings.HasPrefix(cmd.Use, "history") {
		t.Errorf("expected use starting with 'history', got %q", cmd.Use)
	}
	for _, name := range []string{"limit", "with-scan-id", "json", "fail-on-regression", "db-dir"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

// TestListScannedPages tests listing pages.
func TestListScannedPages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty database", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		if err := listScannedPages(ctx, openTestDB(t), &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "No scanned pages found") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("pages are listed", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		saveScan(t, db, "scan-1", "http://localhost:3000/", time.Now(), emptyButtons(1))
		saveScan(t, db, "scan-2", "http://localhost:3000/about", time.Now(), missingAlt(1))

		var out bytes.Buffer
		if err := listScannedPages(ctx, db, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := out.String()
		for _, want := range []string{"Scanned pages (2):", "• http://localhost:3000/", "• http://localhost:3000/about"} {
			if !strings.Contains(got, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})
}

// TestShowPageHistory tests the scan list and comparison.
func TestShowPageHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	const pageURL = "http://localhost:3000/"
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("single scan", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		saveScan(t, db, "scan-1", pageURL, base, emptyButtons(2))

		var out bytes.Buffer
		if err := showPageHistory(ctx, db, pageURL, historyOptions{limit: 10}, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := out.String()
		if !strings.Contains(got, "Scan history for "+pageURL+" (1 scans)") {
			t.Errorf("output = %q", got)
		}
		if !strings.Contains(got, "Scan the page again") {
			t.Error("expected a hint to scan again")
		}
	})

	t.Run("regression is compared and detected", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		saveScan(t, db, "scan-1", pageURL, base, emptyButtons(2))
		saveScan(t, db, "scan-2", pageURL, base.Add(time.Hour), emptyButtons(5), missingAlt(1))

		var out bytes.Buffer
		err := showPageHistory(ctx, db, pageURL, historyOptions{limit: 10, failOnRegression: true}, &out)
		if !errors.Is(err, errRegressed) {
			t.Errorf("expected errRegressed, got %v", err)
		}

		got := out.String()
		for _, want := range []string{
			"New issues (1):",
			"+ Missing Alt (1 elements)",
			"~ Empty Buttons: 2 -> 5",
			"Result: worsened",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("output missing %q:\n%s", want, got)
			}
		}
	})

	t.Run("improvement", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		saveScan(t, db, "scan-1", pageURL, base, emptyButtons(2), missingAlt(1))
		saveScan(t, db, "scan-2", pageURL, base.Add(time.Hour), emptyButtons(2))

		var out bytes.Buffer
		if err := showPageHistory(ctx, db, pageURL, historyOptions{limit: 10, failOnRegression: true}, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := out.String()
		if !strings.Contains(got, "- Missing Alt") || !strings.Contains(got, "Result: improved") {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("json comparison", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		saveScan(t, db, "scan-1", pageURL, base, emptyButtons(2))
		saveScan(t, db, "scan-2", pageURL, base.Add(time.Hour), missingAlt(3))

		var out bytes.Buffer
		if err := showPageHistory(ctx, db, pageURL, historyOptions{limit: 10, jsonOutput: true}, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got comparisonJSON
		if err := json.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Previous.ID != "scan-1" || got.Current.ID != "scan-2" {
			t.Errorf("scans = %s -> %s", got.Previous.ID, got.Current.ID)
		}
		if len(got.New) != 1 || got.New[0] != "missing-alt" {
			t.Errorf("New = %v", got.New)
		}
		if len(got.Resolved) != 1 || got.Resolved[0] != "empty-buttons" {
			t.Errorf("Resolved = %v", got.Resolved)
		}
		if !got.Regressed {
			t.Error("expected regressed")
		}
	})

	t.Run("compare with a specific scan", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		saveScan(t, db, "scan-1", pageURL, base, emptyButtons(4))
		saveScan(t, db, "scan-2", pageURL, base.Add(time.Hour), emptyButtons(3))
		saveScan(t, db, "scan-3", pageURL, base.Add(2*time.Hour), emptyButtons(1))

		var out bytes.Buffer
		if err := showPageHistory(ctx, db, pageURL, historyOptions{limit: 10, withScanID: "scan-1"}, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "~ Empty Buttons: 4 -> 1") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("unknown scan id", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		saveScan(t, db, "scan-1", pageURL, base, emptyButtons(1))

		var out bytes.Buffer
		err := showPageHistory(ctx, db, pageURL, historyOptions{limit: 10, withScanID: "nope"}, &out)
		if err == nil || !strings.Contains(err.Error(), "scan nope not found") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("no history", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		err := showPageHistory(ctx, openTestDB(t), pageURL, historyOptions{limit: 10}, &out)
		if err == nil || !strings.Contains(err.Error(), "no scan history found") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestResolveHistoryURL tests matching the argument to stored URLs.
func TestResolveHistoryURL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	saveScan(t, db, "scan-1", "http://localhost:3000/", time.Now(), emptyButtons(1))

	got, err := resolveHistoryURL(ctx, db, "http://localhost:3000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "http://localhost:3000/" {
		t.Errorf("got %q, want the stored URL with a trailing slash", got)
	}

	got, err = resolveHistoryURL(ctx, db, "index.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "file:///") {
		t.Errorf("local path should become a file URL, got %q", got)
	}
}

// TestFormatIssueSummary tests the severity summary column.
func TestFormatIssueSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		summary map[string]int
		want    string
	}{
		{name: "nil", summary: nil, want: "N/A"},
		{name: "empty", summary: map[string]int{}, want: "No issues"},
		{name: "mixed", summary: map[string]int{"high": 1, "low": 3}, want: "H:1 L:3"},
		{name: "all", summary: map[string]int{"high": 1, "medium": 2, "low": 3}, want: "H:1 M:2 L:3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatIssueSummary(tt.summary); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
