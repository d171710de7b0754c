package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/vibesense/internal/browser"
	"github.com/nao1215/vibesense/internal/clipboard"
	"github.com/nao1215/vibesense/internal/config"
	"github.com/nao1215/vibesense/internal/crawler"
	applog "github.com/nao1215/vibesense/internal/log"
	"github.com/nao1215/vibesense/internal/model"
	"github.com/nao1215/vibesense/internal/scanner"
	"github.com/nao1215/vibesense/internal/session"
)

// errInvalidViewport is returned for a malformed --viewport value.
var errInvalidViewport = errors.New("invalid viewport (use WIDTHxHEIGHT, e.g. 1280x800, or WIDTH)")

// addPageFlags registers the flags shared by every command that loads and
// scans a page.
func addPageFlags(cmd *cobra.Command) {
	// Backend flags
	cmd.Flags().Bool("browser", false,
		"Render pages in Chrome instead of parsing static HTML")
	cmd.Flags().Bool("no-headless", false,
		"Show the browser window (only with --browser)")
	cmd.Flags().String("chrome", "",
		"Chrome executable path (default: autodetect)")
	cmd.Flags().Duration("settle", 0,
		"Extra wait after page load for client-side rendering (only with --browser)")
	cmd.Flags().String("viewport",
		fmt.Sprintf("%dx%d", config.DefaultViewportWidth, config.DefaultViewportHeight),
		"Viewport size as WIDTHxHEIGHT")

	// Request flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for loading and scanning one target")
	cmd.Flags().String("proxy", "",
		"Proxy URL (socks5://, http:// or https://)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent for static HTTP requests")

	// Scanner tuning
	cmd.Flags().Int("depth-threshold", config.DefaultDepthThreshold,
		"Depth below <body> at which an element counts as deeply nested")
	cmd.Flags().Int("deep-limit", config.DefaultDeepElementLimit,
		"Number of deeply nested elements tolerated before reporting")
	cmd.Flags().Int("overflow-cap", config.DefaultOverflowCap,
		"Maximum number of overflowing elements listed")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .vibesense in current or home directory)")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildPageConfig creates a Config from the flags registered by
// addPageFlags and loads the configuration file.
func buildPageConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.Browser, err = cmd.Flags().GetBool("browser")
	if err != nil {
		return nil, err
	}

	noHeadless, err := cmd.Flags().GetBool("no-headless")
	if err != nil {
		return nil, err
	}
	cfg.Headless = !noHeadless

	cfg.ChromePath, err = cmd.Flags().GetString("chrome")
	if err != nil {
		return nil, err
	}

	cfg.Settle, err = cmd.Flags().GetDuration("settle")
	if err != nil {
		return nil, err
	}

	viewport, err := cmd.Flags().GetString("viewport")
	if err != nil {
		return nil, err
	}
	cfg.ViewportWidth, cfg.ViewportHeight, err = parseViewport(viewport)
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.Proxy, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.DepthThreshold, err = cmd.Flags().GetInt("depth-threshold")
	if err != nil {
		return nil, err
	}

	cfg.DeepElementLimit, err = cmd.Flags().GetInt("deep-limit")
	if err != nil {
		return nil, err
	}

	cfg.OverflowCap, err = cmd.Flags().GetInt("overflow-cap")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly given config file must exist; otherwise a missing file
	// just means no site overrides.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.Targets = args

	return cfg, nil
}

// parseViewport parses "1280x800" or a bare width, which keeps the default
// height.
func parseViewport(s string) (int, int, error) {
	widthStr, heightStr, found := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	width, err := strconv.Atoi(widthStr)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", errInvalidViewport, s)
	}
	if !found {
		return width, config.DefaultViewportHeight, nil
	}
	height, err := strconv.Atoi(heightStr)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", errInvalidViewport, s)
	}
	return width, height, nil
}

// setupLogger creates the masking logger on stderr and makes it the default.
func setupLogger(verbose bool) *slog.Logger {
	logger := applog.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// siteConfigFor returns the merged configuration for target's host.
// Local files only get the defaults.
func siteConfigFor(cfg *config.Config, target string) config.SiteConfig {
	if cfg.SiteConfigs == nil {
		return config.SiteConfig{}
	}
	return cfg.SiteConfigs.GetSiteConfig(config.SiteKey(target))
}

// viewportWidthFor applies the site override to the configured width.
func viewportWidthFor(cfg *config.Config, site config.SiteConfig) int {
	if site.Viewport > 0 {
		return site.Viewport
	}
	return cfg.ViewportWidth
}

// newScanner creates a scanner with the configured thresholds and the
// site's disabled checks.
func newScanner(cfg *config.Config, site config.SiteConfig, logger *slog.Logger) (*scanner.Scanner, error) {
	disabled, err := site.IssueTypes()
	if err != nil {
		return nil, err
	}
	return scanner.New(
		scanner.WithOptions(scanner.Options{
			DepthThreshold:   cfg.DepthThreshold,
			DeepElementLimit: cfg.DeepElementLimit,
			OverflowCap:      cfg.OverflowCap,
			Disabled:         disabled,
		}),
		scanner.WithLogger(logger),
	), nil
}

// newStaticLoader creates a loader carrying the site's cookie and headers.
func newStaticLoader(cfg *config.Config, site config.SiteConfig, logger *slog.Logger) (*crawler.Loader, error) {
	client, err := crawler.NewHTTPClient(cfg.Proxy, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	opts := []crawler.LoaderOption{
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithViewportWidth(viewportWidthFor(cfg, site)),
		crawler.WithLoaderLogger(logger),
	}
	if cfg.MaxBodySize > 0 {
		opts = append(opts, crawler.WithMaxBodySize(cfg.MaxBodySize))
	}
	if site.Cookie != "" {
		opts = append(opts, crawler.WithCookie(site.Cookie))
	}
	if len(site.Headers) > 0 {
		opts = append(opts, crawler.WithHeaders(site.Headers))
	}

	return crawler.NewLoader(client, opts...), nil
}

// newBrowser starts Chrome sized to the site's viewport. The site's cookie
// travels as an extra header.
func newBrowser(cfg *config.Config, site config.SiteConfig, logger *slog.Logger) (*browser.Browser, error) {
	headers := maps.Clone(site.Headers)
	if site.Cookie != "" {
		if headers == nil {
			headers = make(map[string]string)
		}
		headers["Cookie"] = site.Cookie
	}

	opts := []browser.Option{
		browser.WithHeadless(cfg.Headless),
		browser.WithViewport(viewportWidthFor(cfg, site), cfg.ViewportHeight),
		browser.WithSettle(cfg.Settle),
		browser.WithLogger(logger),
	}
	if cfg.ChromePath != "" {
		opts = append(opts, browser.WithExecPath(cfg.ChromePath))
	}
	if cfg.Proxy != "" {
		opts = append(opts, browser.WithProxy(cfg.Proxy))
	}
	if cfg.UserAgent != "" && cfg.UserAgent != config.DefaultUserAgent {
		opts = append(opts, browser.WithUserAgent(cfg.UserAgent))
	}
	if len(headers) > 0 {
		opts = append(opts, browser.WithHeaders(headers))
	}

	return browser.New(opts...)
}

// browserURL turns a local path into a file:// URL Chrome can open.
func browserURL(target string) (string, error) {
	if crawler.IsRemote(target) || strings.HasPrefix(strings.ToLower(target), "file://") {
		return target, nil
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// pageSource loads one target for a session, either as static HTML or from
// a browser tab that stays open between scans.
type pageSource struct {
	cfg    *config.Config
	site   config.SiteConfig
	target string
	logger *slog.Logger

	loader  *crawler.Loader
	browser *browser.Browser
	tab     *browser.Tab
}

var _ session.Source = (*pageSource)(nil)

// newPageSource prepares a source for target. Chrome is started lazily on
// the first Load.
func newPageSource(cfg *config.Config, target string, logger *slog.Logger) (*pageSource, error) {
	src := &pageSource{
		cfg:    cfg,
		site:   siteConfigFor(cfg, target),
		target: target,
		logger: logger,
	}
	if cfg.Browser {
		return src, nil
	}

	loader, err := newStaticLoader(cfg, src.site, logger)
	if err != nil {
		return nil, err
	}
	src.loader = loader
	return src, nil
}

// Load implements session.Source. In browser mode the first call opens the
// tab and later calls reload it.
func (p *pageSource) Load(ctx context.Context) (*session.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	if !p.cfg.Browser {
		doc, err := p.loader.Load(ctx, p.target)
		if err != nil {
			return nil, err
		}
		return &session.Page{Document: doc, Target: doc}, nil
	}

	if err := p.openTab(ctx); err != nil {
		return nil, err
	}
	doc, err := p.tab.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &session.Page{Document: doc, Target: p.tab}, nil
}

func (p *pageSource) openTab(ctx context.Context) error {
	if p.tab != nil {
		return p.tab.Reload(ctx)
	}

	pageURL, err := browserURL(p.target)
	if err != nil {
		return model.NewPlatformInjectionError(p.target, err)
	}

	if p.browser == nil {
		b, err := newBrowser(p.cfg, p.site, p.logger)
		if err != nil {
			return model.NewPlatformInjectionError(p.target, err)
		}
		p.browser = b
	}

	tab, err := p.browser.Open(ctx, pageURL)
	if err != nil {
		return err
	}
	p.tab = tab
	return nil
}

// Tab returns the open browser tab, or nil in static mode.
func (p *pageSource) Tab() *browser.Tab {
	return p.tab
}

// Close releases the tab and the browser.
func (p *pageSource) Close() {
	if p.tab != nil {
		p.tab.Close()
	}
	if p.browser != nil {
		p.browser.Close()
	}
}

// openOutput returns the writer for path, or fallback when path is empty.
// Files are created with owner-only permissions; reports may contain URLs
// with credentials.
func openOutput(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return fallback, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-chosen output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// scanErrorMessage renders a failed scan for the terminal.
func scanErrorMessage(target string, err error) string {
	var pie *model.PlatformInjectionError
	if errors.As(err, &pie) {
		if pie.Target != "" {
			target = pie.Target
		}
		return fmt.Sprintf("Error scanning page: %s: %v", target, pie.Err)
	}
	return fmt.Sprintf("Error scanning page: %s: %v", target, err)
}

// parseTypes converts --type values. Empty input means every type.
func parseTypes(values []string) ([]model.IssueType, error) {
	types := make([]model.IssueType, 0, len(values))
	for _, v := range values {
		t, ok := model.ParseIssueType(strings.TrimSpace(v))
		if !ok {
			return nil, fmt.Errorf("%w: %q", config.ErrUnknownCheck, v)
		}
		types = append(types, t)
	}
	return types, nil
}

// newClipboard returns the clipboard prompts are copied to.
var newClipboard = func() session.Clipboard {
	return clipboard.NewSystem()
}

// newSession wires a page source, a site-aware scanner and the system
// clipboard into a session for target. The caller closes the source.
func newSession(cfg *config.Config, target string, logger *slog.Logger) (*session.Session, *pageSource, error) {
	src, err := newPageSource(cfg, target, logger)
	if err != nil {
		return nil, nil, err
	}

	sc, err := newScanner(cfg, src.site, logger)
	if err != nil {
		src.Close()
		return nil, nil, err
	}

	sess := session.New(src,
		session.WithScanner(sc),
		session.WithClipboard(newClipboard()),
		session.WithLogger(logger),
	)
	return sess, src, nil
}

// issueIndex returns the position of the issue of type t in result.
func issueIndex(result *model.ScanResult, t model.IssueType) int {
	for i, issue := range result.Issues {
		if issue.Type == t {
			return i
		}
	}
	return -1
}
