package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/vibesense/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *ScanDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func newResult(id, pageURL string, at time.Time, issues ...model.Issue) *model.ScanResult {
	if len(issues) == 0 {
		issues = []model.Issue{model.NewIssue(model.IssueGeneral, "General UI Polish", "", "", 0, nil)}
	}
	return &model.ScanResult{
		ID:        id,
		PageURL:   pageURL,
		TechHint:  model.TechStandard,
		Issues:    issues,
		ScannedAt: at,
		Backend:   model.BackendStatic,
	}
}

func emptyButtons(n int) model.Issue {
	sels := make([]string, n)
	for i := range sels {
		sels[i] = "button"
	}
	return model.NewIssue(model.IssueEmptyButtons, "Empty Buttons", "", "", n, sels)
}

func missingAlt(n int) model.Issue {
	sels := make([]string, n)
	for i := range sels {
		sels[i] = "img"
	}
	return model.NewIssue(model.IssueMissingAlt, "Missing Alt Text", "", "", n, sels)
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db.Close()
	})
}

// TestSaveAndLoad tests storing and retrieving scan results.
func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("latest returns the newest scan", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		page := "https://example.com/"

		if err := db.Save(ctx, newResult("a", page, base, emptyButtons(2))); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := db.Save(ctx, newResult("b", page, base.Add(time.Hour), missingAlt(1))); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := db.Latest(ctx, page)
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if got.ID != "b" {
			t.Errorf("expected scan b, got %q", got.ID)
		}
		if len(got.Issues) != 1 || got.Issues[0].Severity != model.SeverityMedium {
			t.Errorf("issues did not round-trip: %+v", got.Issues)
		}
		if !got.ScannedAt.Equal(base.Add(time.Hour)) {
			t.Errorf("expected timestamp %v, got %v", base.Add(time.Hour), got.ScannedAt)
		}
	})

	t.Run("sub-second ordering", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		page := "https://example.com/fast"

		if err := db.Save(ctx, newResult("first", page, base.Add(500*time.Millisecond))); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := db.Save(ctx, newResult("second", page, base.Add(time.Second))); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := db.Latest(ctx, page)
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if got.ID != "second" {
			t.Errorf("expected second, got %q", got.ID)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if err := db.Save(ctx, newResult("xyz", "https://example.com/", base)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := db.GetByID(ctx, "xyz")
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.PageURL != "https://example.com/" {
			t.Errorf("unexpected page %q", got.PageURL)
		}
	})

	t.Run("missing scan returns ErrNotFound", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if _, err := db.Latest(ctx, "https://nowhere.example/"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := db.GetByID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("duplicate scan id is rejected", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		r := newResult("dup", "https://example.com/", base)
		if err := db.Save(ctx, r); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := db.Save(ctx, r); err == nil {
			t.Error("expected error on duplicate scan id")
		}
	})

	t.Run("nil result", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if err := db.Save(ctx, nil); err == nil {
			t.Error("expected error for nil result")
		}
	})
}

// TestHistory tests listing stored scans.
func TestHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	db := setupTestDB(t)

	page := "https://example.com/"
	for i, r := range []*model.ScanResult{
		newResult("1", page, base, emptyButtons(3), missingAlt(1)),
		newResult("2", page, base.Add(time.Minute), emptyButtons(1)),
		newResult("3", "https://example.com/about", base),
	} {
		if err := db.Save(ctx, r); err != nil {
			t.Fatalf("Save %d failed: %v", i, err)
		}
	}

	t.Run("pages are distinct and sorted", func(t *testing.T) {
		t.Parallel()

		pages, err := db.ListPages(ctx)
		if err != nil {
			t.Fatalf("ListPages failed: %v", err)
		}
		if len(pages) != 2 || pages[0] != "https://example.com/" || pages[1] != "https://example.com/about" {
			t.Errorf("unexpected pages: %v", pages)
		}
	})

	t.Run("history is newest first with summary", func(t *testing.T) {
		t.Parallel()

		history, err := db.History(ctx, page, 0)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(history))
		}
		if history[0].ScanID != "2" || history[1].ScanID != "1" {
			t.Errorf("unexpected order: %s, %s", history[0].ScanID, history[1].ScanID)
		}
		if history[1].IssueSummary["high"] != 1 || history[1].IssueSummary["medium"] != 1 {
			t.Errorf("unexpected summary: %v", history[1].IssueSummary)
		}
		if history[0].TechHint != string(model.TechStandard) || history[0].Backend != string(model.BackendStatic) {
			t.Errorf("unexpected metadata: %+v", history[0])
		}
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()

		history, err := db.History(ctx, page, 1)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(history) != 1 {
			t.Errorf("expected 1 entry, got %d", len(history))
		}
	})
}

// TestCompare tests diffing two scans.
func TestCompare(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("new resolved and changed", func(t *testing.T) {
		t.Parallel()

		prev := newResult("p", "u", base, emptyButtons(3), missingAlt(2))
		cur := newResult("c", "u", base, emptyButtons(1),
			model.NewIssue(model.IssueOverflow, "Horizontal Overflow", "", "", 1, []string{"div"}))

		cmp := Compare(prev, cur)
		if len(cmp.New) != 1 || cmp.New[0] != model.IssueOverflow {
			t.Errorf("unexpected new: %v", cmp.New)
		}
		if len(cmp.Resolved) != 1 || cmp.Resolved[0] != model.IssueMissingAlt {
			t.Errorf("unexpected resolved: %v", cmp.Resolved)
		}
		if len(cmp.Changed) != 1 || cmp.Changed[0] != (CountChange{Type: model.IssueEmptyButtons, Before: 3, After: 1}) {
			t.Errorf("unexpected changed: %v", cmp.Changed)
		}
		if !cmp.HasChanges() || !cmp.Regressed() {
			t.Error("expected changes and a regression")
		}
	})

	t.Run("placeholder is ignored", func(t *testing.T) {
		t.Parallel()

		cmp := Compare(newResult("p", "u", base), newResult("c", "u", base))
		if cmp.HasChanges() {
			t.Errorf("expected no changes, got %+v", cmp)
		}
	})

	t.Run("compare latest", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := setupTestDB(t)
		page := "https://example.com/"

		if _, err := db.CompareLatest(ctx, page); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		if err := db.Save(ctx, newResult("old", page, base, missingAlt(2))); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := db.Save(ctx, newResult("new", page, base.Add(time.Hour))); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		cmp, err := db.CompareLatest(ctx, page)
		if err != nil {
			t.Fatalf("CompareLatest failed: %v", err)
		}
		if cmp.Current.ID != "new" || cmp.Previous.ID != "old" {
			t.Errorf("unexpected scans: %s vs %s", cmp.Previous.ID, cmp.Current.ID)
		}
		if len(cmp.Resolved) != 1 || cmp.Regressed() {
			t.Errorf("expected one resolved type and no regression, got %+v", cmp)
		}
	})
}

// TestParseTimestamp tests timestamp parsing fallbacks.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	if got := parseTimestamp("2025-03-01 10:00:00"); got.IsZero() {
		t.Error("expected SQLite datetime to parse")
	}
	if got := parseTimestamp("2025-03-01T10:00:00.500000000Z"); got.Nanosecond() != 500000000 {
		t.Errorf("expected fractional seconds, got %v", got)
	}
	if got := parseTimestamp("not a time"); !got.IsZero() {
		t.Errorf("expected zero time, got %v", got)
	}
}
