package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/vibesense/internal/config"
	"github.com/nao1215/vibesense/internal/model"
	"github.com/nao1215/vibesense/internal/report"
	"github.com/nao1215/vibesense/internal/session"
)

// defaultScreenshotFile is written by highlight --browser without -o.
const defaultScreenshotFile = "vibesense-highlight.png"

// NewHighlightCmd creates the highlight command.
func NewHighlightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "highlight <url-or-file>",
		Short: "Mark the elements behind each issue",
		Long: `Highlight scans a page and outlines the offending elements of the selected
issue types with a colored outline and label.

Without --browser the annotated HTML is written (stdout by default).
With --browser a full-page PNG screenshot is written instead.

Examples:
  # Outline every highlightable issue and save the HTML
  vibesense highlight -o annotated.html ./dist/index.html

  # Only empty buttons and images without alt text
  vibesense highlight --type empty-buttons --type missing-alt http://localhost:3000

  # Screenshot of a rendered page with overflow marked
  vibesense highlight --browser --type overflow -o overflow.png http://localhost:3000`,
		Args: cobra.ExactArgs(1),
		RunE: runHighlightCmd,
	}

	addPageFlags(cmd)

	cmd.Flags().StringSlice("type", nil,
		"Issue type to highlight (repeatable; default: all): empty-buttons, missing-alt, overflow")
	cmd.Flags().StringP("output", "o", "",
		"Output file (default: stdout for HTML, "+defaultScreenshotFile+" with --browser)")

	return cmd
}

// runHighlightCmd executes the highlight command.
func runHighlightCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildPageConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	typeValues, err := cmd.Flags().GetStringSlice("type")
	if err != nil {
		return err
	}
	types, err := parseTypes(typeValues)
	if err != nil {
		return err
	}

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if output == "" && cfg.Browser {
		output = defaultScreenshotFile
	}

	logger := setupLogger(cfg.Verbose)
	ctx, cancel := signalContext(logger)
	defer cancel()

	return runHighlight(ctx, cfg, types, output, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// runHighlight scans the target, toggles the selected issues on and writes
// the annotated page.
func runHighlight(ctx context.Context, cfg *config.Config, types []model.IssueType, output string, logger *slog.Logger, stdout, stderr io.Writer) error {
	target := cfg.Targets[0]

	sess, src, err := newSession(cfg, target, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	result, err := sess.Scan(ctx)
	if err != nil {
		return errors.New(scanErrorMessage(target, err))
	}

	if len(types) == 0 {
		for _, issue := range result.Issues {
			if issue.Highlightable() {
				types = append(types, issue.Type)
			}
		}
	}

	highlighted := highlightTypes(ctx, sess, result, types, stderr)
	if highlighted == 0 {
		fmt.Fprintln(stderr, "Nothing to highlight on this page.")
	}

	if cfg.Browser {
		return writeScreenshot(ctx, src, output, cfg.Timeout, stderr)
	}
	return writeAnnotatedHTML(sess.Page(), output, stdout, stderr)
}

// highlightTypes shows each requested issue and returns how many elements
// were marked.
func highlightTypes(ctx context.Context, sess *session.Session, result *model.ScanResult, types []model.IssueType, stderr io.Writer) int {
	highlighted := 0
	for _, t := range types {
		index := issueIndex(result, t)
		if index < 0 {
			fmt.Fprintf(stderr, "No %s found.\n", report.TypeLabel(t))
			continue
		}

		issue := result.Issues[index]
		if !issue.Highlightable() {
			fmt.Fprintf(stderr, "%s cannot be shown on the page.\n", report.TypeLabel(t))
			continue
		}

		if sess.Shown(index) {
			continue
		}
		shown, marked, err := sess.Toggle(ctx, index)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to highlight %s: %v\n", report.TypeLabel(t), err)
			continue
		}
		if shown {
			highlighted += marked
			fmt.Fprintf(stderr, "Highlighted %d element(s) for %s\n", marked, report.TypeLabel(t))
		}
	}
	return highlighted
}

// writeAnnotatedHTML renders the highlighted static document.
func writeAnnotatedHTML(page *session.Page, output string, stdout, stderr io.Writer) error {
	w, closeOutput, err := openOutput(output, stdout)
	if err != nil {
		return err
	}
	if err := page.Document.Render(w); err != nil {
		_ = closeOutput() //nolint:errcheck // the render error is more useful
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	if err := closeOutput(); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(stderr, "Wrote %s\n", output)
	}
	return nil
}

// writeScreenshot saves a full-page PNG of the highlighted tab.
func writeScreenshot(ctx context.Context, src *pageSource, output string, timeout time.Duration, stderr io.Writer) error {
	tab := src.Tab()
	if tab == nil {
		return errors.New("no browser tab to capture")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	png, err := tab.Screenshot(ctx, 100)
	if err != nil {
		return err
	}

	w, closeOutput, err := openOutput(output, nil)
	if err != nil {
		return err
	}
	if _, err := w.Write(png); err != nil {
		_ = closeOutput() //nolint:errcheck // the write error is more useful
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	if err := closeOutput(); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Wrote %s\n", output)
	return nil
}
