package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nao1215/vibesense/internal/config"
	"github.com/nao1215/vibesense/internal/crawler"
	"github.com/nao1215/vibesense/internal/database"
	"github.com/nao1215/vibesense/internal/dom"
	"github.com/nao1215/vibesense/internal/model"
	"github.com/nao1215/vibesense/internal/pipeline"
	"github.com/nao1215/vibesense/internal/report"
	"github.com/nao1215/vibesense/internal/scanner"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url-or-file...]",
		Short: "Scan pages for UI and accessibility issues",
		Long: `Scan inspects one or more pages and reports:
- Buttons without visible text or an accessible label
- Images without an alt attribute
- Deeply nested markup
- Elements wider than the viewport

Every finding lists CSS selectors of the offending elements. Use --prompts
to append a ready-to-paste AI prompt per finding. Each scan is stored in the
local history database unless --no-history is given.

Examples:
  # Scan a local development server
  vibesense scan http://localhost:3000

  # Scan a static file
  vibesense scan ./dist/index.html

  # Render in Chrome first (for client-side rendered apps)
  vibesense scan --browser --settle 2s http://localhost:5173

  # Crawl two link levels deep and write a Markdown report
  vibesense scan --depth 2 --markdown -o report.md https://example.com

  # Scan several pages concurrently as JSON with prompts
  vibesense scan --json --prompts https://a.example https://b.example

Configuration file (.vibesense) example:
  defaults:
    viewport: 1280
  sites:
    "localhost:3000":
      cookie: "session=dev"
      disabledChecks:
        - deep-nesting`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	addPageFlags(cmd)

	// Crawl flags
	cmd.Flags().IntP("depth", "d", config.DefaultCrawlDepth,
		"Link levels to follow from each URL (0 scans only the given page)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages scanned per URL when crawling")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Delay between requests when crawling")

	// Batch scanning flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent scans")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("prompts", false,
		"Append an AI prompt for every issue")
	cmd.Flags().Bool("no-history", false,
		"Do not store the scan in the history database")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runScan(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildConfig creates a Config from the scan command's flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := buildPageConfig(cmd, args)
	if err != nil {
		return nil, err
	}

	cfg.CrawlDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Prompts, err = cmd.Flags().GetBool("prompts")
	if err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory

	return cfg, nil
}

// runScan scans every target and writes one report.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	logger.Info("starting scan",
		"targets", cfg.Targets,
		"browser", cfg.Browser,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.ScanDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline { return newScanPipeline(cfg, db, logger) },
		pipeline.WithConcurrency(min(cfg.BatchSize, len(cfg.Targets))),
		pipeline.WithBatchLogger(logger),
	)

	spin := startSpinner(cfg, stderr)
	startTime := time.Now()
	jobs, batchErr := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(job *pipeline.Job, _ int) {
		logger.Info("target finished", "target", job.Target, "pages", len(job.Results), "error", job.Err)
	})
	if spin != nil {
		spin.Stop()
	}
	logger.Info("scan finished", "elapsed", time.Since(startTime).Round(time.Millisecond))

	results, failed := collectResults(jobs, stderr)

	if len(results) > 0 {
		if err := writeReport(cfg, results, stdout); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if batchErr != nil {
		return batchErr
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d targets could not be scanned", failed, len(jobs))
	}
	return nil
}

// collectResults flattens the job results in target order and reports
// failures. A job that scanned but could not be saved still contributes its
// results.
func collectResults(jobs []*pipeline.Job, stderr io.Writer) ([]*model.ScanResult, int) {
	results := make([]*model.ScanResult, 0, len(jobs))
	failed := 0
	for _, job := range jobs {
		if job.Err != nil {
			if len(job.Results) == 0 {
				failed++
				fmt.Fprintln(stderr, scanErrorMessage(job.Target, job.Err))
				continue
			}
			fmt.Fprintf(stderr, "Warning: %v\n", job.Err)
		}
		results = append(results, job.Results...)
	}
	return results, failed
}

// newScanPipeline builds load, scan and (optionally) save steps.
func newScanPipeline(cfg *config.Config, db *database.ScanDB, logger *slog.Logger) *pipeline.Pipeline {
	steps := []pipeline.Step{
		pipeline.NewLoadStep(newTargetLoader(cfg, logger)),
		pipeline.NewScanStep(&siteScanner{cfg: cfg, logger: logger}),
	}
	if db != nil {
		steps = append(steps, pipeline.NewSaveStep(db))
	}
	return pipeline.New(steps, pipeline.WithLogger(logger))
}

// newTargetLoader loads a target with the site's settings: a crawl when a
// depth is configured for a URL, otherwise the single page.
func newTargetLoader(cfg *config.Config, logger *slog.Logger) pipeline.Loader {
	return pipeline.LoaderFunc(func(ctx context.Context, target string) ([]*dom.Document, error) {
		ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()

		site := siteConfigFor(cfg, target)
		depth := cfg.CrawlDepth
		if site.Depth > 0 {
			depth = site.Depth
		}

		if cfg.Browser {
			if depth > 0 {
				logger.Warn("crawling is not supported with --browser, scanning the given page only", "target", target)
			}
			return loadWithBrowser(ctx, cfg, site, target, logger)
		}

		loader, err := newStaticLoader(cfg, site, logger)
		if err != nil {
			return nil, err
		}

		if depth == 0 || !crawler.IsRemote(target) {
			doc, err := loader.Load(ctx, target)
			if err != nil {
				return nil, err
			}
			return []*dom.Document{doc}, nil
		}

		spider := crawler.NewSpider(loader,
			crawler.WithMaxDepth(depth),
			crawler.WithMaxPages(cfg.MaxPages),
			crawler.WithDelay(cfg.CrawlDelay),
			crawler.WithIgnorePatterns(site.IgnorePatterns),
			crawler.WithFollowPatterns(site.FollowPatterns),
			crawler.WithSpiderLogger(logger),
		)
		pages, err := spider.Crawl(ctx, target)
		if err != nil {
			if len(pages) == 0 {
				return nil, err
			}
			logger.Warn("crawl stopped early", "target", target, "pages", len(pages), "error", err)
		}

		docs := make([]*dom.Document, 0, len(pages))
		for _, page := range pages {
			docs = append(docs, page.Document)
		}
		return docs, nil
	})
}

// loadWithBrowser renders target in a fresh Chrome and snapshots it.
func loadWithBrowser(ctx context.Context, cfg *config.Config, site config.SiteConfig, target string, logger *slog.Logger) ([]*dom.Document, error) {
	pageURL, err := browserURL(target)
	if err != nil {
		return nil, err
	}

	b, err := newBrowser(cfg, site, logger)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	tab, err := b.Open(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer tab.Close()

	doc, err := tab.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return []*dom.Document{doc}, nil
}

// siteScanner picks the disabled checks by the host of each document, so
// crawled pages and batch targets each get their own site settings.
type siteScanner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// Scan implements pipeline.Scanner.
func (s *siteScanner) Scan(ctx context.Context, doc *dom.Document) (*model.ScanResult, error) {
	if doc == nil {
		return nil, model.NewPlatformInjectionError("", scanner.ErrNoDocument)
	}
	sc, err := newScanner(s.cfg, siteConfigFor(s.cfg, doc.URL), s.logger)
	if err != nil {
		return nil, err
	}
	return sc.Scan(ctx, doc)
}

// startSpinner shows progress on an interactive stderr. Verbose runs log
// instead.
func startSpinner(cfg *config.Config, stderr io.Writer) *spinner.Spinner {
	f, ok := stderr.(*os.File)
	if !ok || cfg.Verbose || !isatty.IsTerminal(f.Fd()) {
		return nil
	}

	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(f))
	if len(cfg.Targets) == 1 {
		s.Suffix = " Scanning " + cfg.Targets[0]
	} else {
		s.Suffix = fmt.Sprintf(" Scanning %d targets", len(cfg.Targets))
	}
	s.Start()
	return s
}

// writeReport renders results in the requested format.
func writeReport(cfg *config.Config, results []*model.ScanResult, stdout io.Writer) error {
	output, closeOutput, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output,
			report.WithPrettyPrint(),
			report.WithVersion(getVersion()),
			report.WithJSONPrompts(cfg.Prompts),
		)
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output, report.WithMarkdownPrompts(cfg.Prompts))
	default:
		writer = report.NewSimpleWriter(output,
			report.WithVerbose(cfg.Verbose),
			report.WithSimplePrompts(cfg.Prompts),
		)
	}

	if _, err := writer.WriteAll(results); err != nil {
		_ = closeOutput() //nolint:errcheck // the write error is more useful
		return err
	}
	return closeOutput()
}
