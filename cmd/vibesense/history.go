package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/vibesense/internal/config"
	"github.com/nao1215/vibesense/internal/crawler"
	"github.com/nao1215/vibesense/internal/database"
	"github.com/nao1215/vibesense/internal/model"
	"github.com/nao1215/vibesense/internal/report"
)

// errRegressed is returned by history --fail-on-regression.
var errRegressed = errors.New("issues regressed since the previous scan")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url-or-file]",
		Short: "Show stored scans and compare the latest two",
		Long: `History reads the local scan database written by 'vibesense scan'.

Without an argument it lists every scanned page. With a page it lists the
page's scans and compares the latest scan with the previous one:
- New issue types that appeared
- Issue types that were resolved
- Issue types whose element count changed

Examples:
  # List all scanned pages
  vibesense history

  # Scan history and comparison for a page
  vibesense history http://localhost:3000/

  # Compare with a specific earlier scan
  vibesense history --with-scan-id 0b6f... http://localhost:3000/

  # Fail (exit 1) when something got worse, for CI
  vibesense history --fail-on-regression http://localhost:3000/`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 10,
		"Number of scans to list (0 lists all)")
	cmd.Flags().StringP("with-scan-id", "i", "",
		"Compare the latest scan with this scan instead of the previous one")
	cmd.Flags().BoolP("json", "j", false,
		"Output the comparison in JSON format")
	cmd.Flags().Bool("fail-on-regression", false,
		"Exit with an error when an issue type appeared or got worse")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// historyOptions holds the history command's flags.
type historyOptions struct {
	limit            int
	withScanID       string
	jsonOutput       bool
	failOnRegression bool
	dbDir            string
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var opts historyOptions
	var err error

	opts.limit, err = cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	opts.withScanID, err = cmd.Flags().GetString("with-scan-id")
	if err != nil {
		return err
	}
	opts.jsonOutput, err = cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	opts.failOnRegression, err = cmd.Flags().GetBool("fail-on-regression")
	if err != nil {
		return err
	}
	opts.dbDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listScannedPages(ctx, db, out)
	}

	pageURL, err := resolveHistoryURL(ctx, db, args[0])
	if err != nil {
		return err
	}
	return showPageHistory(ctx, db, pageURL, opts, out)
}

// resolveHistoryURL maps the argument to the URL stored by scan: local
// paths become file:// URLs and a missing trailing slash is tolerated.
func resolveHistoryURL(ctx context.Context, db *database.ScanDB, arg string) (string, error) {
	pageURL := arg
	if !crawler.IsRemote(arg) {
		var err error
		pageURL, err = browserURL(arg)
		if err != nil {
			return "", err
		}
	}

	candidates := []string{pageURL}
	if strings.HasSuffix(pageURL, "/") {
		candidates = append(candidates, strings.TrimSuffix(pageURL, "/"))
	} else {
		candidates = append(candidates, pageURL+"/")
	}

	for _, candidate := range candidates {
		history, err := db.History(ctx, candidate, 1)
		if err != nil {
			return "", err
		}
		if len(history) > 0 {
			return candidate, nil
		}
	}
	return pageURL, nil
}

// listScannedPages prints every page with at least one stored scan.
func listScannedPages(ctx context.Context, db *database.ScanDB, out io.Writer) error {
	pages, err := db.ListPages(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pages: %w", err)
	}

	if len(pages) == 0 {
		fmt.Fprintln(out, "No scanned pages found in the database.")
		fmt.Fprintln(out, "\nUse 'vibesense scan <url>' to scan a page.")
		return nil
	}

	fmt.Fprintf(out, "Scanned pages (%d):\n\n", len(pages))
	for _, page := range pages {
		fmt.Fprintf(out, "  • %s\n", page)
	}
	fmt.Fprintln(out, "\nUse 'vibesense history <url>' to see the scan history of a page.")

	return nil
}

// showPageHistory prints the scan list and the comparison for one page.
func showPageHistory(ctx context.Context, db *database.ScanDB, pageURL string, opts historyOptions, out io.Writer) error {
	history, err := db.History(ctx, pageURL, opts.limit)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("no scan history found for %s", pageURL)
	}

	cmp, err := comparePageScans(ctx, db, pageURL, history, opts.withScanID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}

	if opts.jsonOutput {
		if cmp == nil {
			return fmt.Errorf("at least 2 scans are required for comparison (found %d)", len(history))
		}
		if err := writeComparisonJSON(cmp, out); err != nil {
			return err
		}
	} else {
		writeHistoryText(pageURL, history, out)
		if cmp == nil {
			fmt.Fprintln(out, "\nScan the page again to compare with this scan.")
		} else {
			writeComparisonText(cmp, out)
		}
	}

	if opts.failOnRegression && cmp != nil && cmp.Regressed() {
		return errRegressed
	}
	return nil
}

// comparePageScans compares the latest scan with withScanID, or with the
// previous scan when withScanID is empty.
func comparePageScans(ctx context.Context, db *database.ScanDB, pageURL string, history []database.ScanMetadata, withScanID string) (*database.Comparison, error) {
	if withScanID == "" {
		return db.CompareLatest(ctx, pageURL)
	}

	current, err := db.GetByID(ctx, history[0].ScanID)
	if err != nil {
		return nil, err
	}
	previous, err := db.GetByID(ctx, withScanID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("scan %s not found", withScanID)
		}
		return nil, err
	}
	if previous.PageURL != current.PageURL {
		return nil, fmt.Errorf("scan %s belongs to %s, not %s", withScanID, previous.PageURL, current.PageURL)
	}
	return database.Compare(previous, current), nil
}

// writeHistoryText prints the scan list, newest first.
func writeHistoryText(pageURL string, history []database.ScanMetadata, out io.Writer) {
	fmt.Fprintf(out, "Scan history for %s (%d scans):\n\n", pageURL, len(history))
	fmt.Fprintf(out, "  %-36s  %-19s  %-8s  %s\n", "ID", "Date", "Backend", "Issues")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 80))

	for _, meta := range history {
		fmt.Fprintf(out, "  %-36s  %-19s  %-8s  %s\n",
			meta.ScanID,
			meta.Timestamp.Local().Format("2006-01-02 15:04:05"),
			meta.Backend,
			formatIssueSummary(meta.IssueSummary),
		)
	}
}

// formatIssueSummary formats severity counts as "H:1 M:2".
func formatIssueSummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	if v := summary["high"]; v > 0 {
		parts = append(parts, fmt.Sprintf("H:%d", v))
	}
	if v := summary["medium"]; v > 0 {
		parts = append(parts, fmt.Sprintf("M:%d", v))
	}
	if v := summary["low"]; v > 0 {
		parts = append(parts, fmt.Sprintf("L:%d", v))
	}

	if len(parts) == 0 {
		return "No issues"
	}
	return strings.Join(parts, " ")
}

// writeComparisonText prints what changed between two scans.
func writeComparisonText(cmp *database.Comparison, out io.Writer) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Comparison:")
	fmt.Fprintf(out, "  Previous: %s (%s)\n", cmp.Previous.ScannedAt.Local().Format(time.DateTime), cmp.Previous.ID)
	fmt.Fprintf(out, "  Current:  %s (%s)\n", cmp.Current.ScannedAt.Local().Format(time.DateTime), cmp.Current.ID)

	if !cmp.HasChanges() {
		fmt.Fprintln(out, "\nNo changes between the two scans.")
		return
	}

	if len(cmp.New) > 0 {
		fmt.Fprintf(out, "\nNew issues (%d):\n", len(cmp.New))
		for _, t := range cmp.New {
			issue, _ := cmp.Current.Issue(t)
			fmt.Fprintf(out, "  + %s (%d elements)\n", report.TypeLabel(t), issue.Count)
		}
	}

	if len(cmp.Resolved) > 0 {
		fmt.Fprintf(out, "\nResolved issues (%d):\n", len(cmp.Resolved))
		for _, t := range cmp.Resolved {
			fmt.Fprintf(out, "  - %s\n", report.TypeLabel(t))
		}
	}

	if len(cmp.Changed) > 0 {
		fmt.Fprintf(out, "\nChanged (%d):\n", len(cmp.Changed))
		for _, ch := range cmp.Changed {
			fmt.Fprintf(out, "  ~ %s: %d -> %d\n", report.TypeLabel(ch.Type), ch.Before, ch.After)
		}
	}

	if cmp.Regressed() {
		fmt.Fprintln(out, "\nResult: worsened")
	} else {
		fmt.Fprintln(out, "\nResult: improved")
	}
}

// comparisonJSON is the JSON shape of a comparison.
type comparisonJSON struct {
	URL       string           `json:"url"`
	Previous  scanRef          `json:"previous_scan"`
	Current   scanRef          `json:"current_scan"`
	New       []string         `json:"new"`
	Resolved  []string         `json:"resolved"`
	Changed   []countChangeRef `json:"changed"`
	Regressed bool             `json:"regressed"`
}

type scanRef struct {
	ID        string    `json:"id"`
	ScannedAt time.Time `json:"scanned_at"`
}

type countChangeRef struct {
	Type   string `json:"type"`
	Before int    `json:"before"`
	After  int    `json:"after"`
}

// writeComparisonJSON writes cmp as indented JSON.
func writeComparisonJSON(cmp *database.Comparison, out io.Writer) error {
	result := comparisonJSON{
		URL:       cmp.Current.PageURL,
		Previous:  scanRef{ID: cmp.Previous.ID, ScannedAt: cmp.Previous.ScannedAt},
		Current:   scanRef{ID: cmp.Current.ID, ScannedAt: cmp.Current.ScannedAt},
		New:       typeNames(cmp.New),
		Resolved:  typeNames(cmp.Resolved),
		Changed:   make([]countChangeRef, 0, len(cmp.Changed)),
		Regressed: cmp.Regressed(),
	}
	for _, ch := range cmp.Changed {
		result.Changed = append(result.Changed, countChangeRef{Type: string(ch.Type), Before: ch.Before, After: ch.After})
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func typeNames(types []model.IssueType) []string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	return names
}
