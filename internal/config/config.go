package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "vibesense"

	// DefaultTimeout bounds one whole scan of one target, including page
	// load and, in browser mode, rendering.
	DefaultTimeout = 60 * time.Second

	// DefaultCrawlDepth of 0 scans only the given page.
	DefaultCrawlDepth = 0

	// DefaultMaxPages caps the pages scanned per target when crawling.
	DefaultMaxPages = 20

	// DefaultBatchSize is the number of targets scanned concurrently.
	DefaultBatchSize = 4

	// DefaultCrawlDelay is the delay between requests during crawling.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultUserAgent is sent with static HTTP requests.
	DefaultUserAgent = "Mozilla/5.0 (compatible; VibeSense/1.0; +https://github.com/nao1215/vibesense)"

	// DefaultMaxBodySize limits the page body read (10MB).
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultViewportWidth and DefaultViewportHeight size the layout viewport.
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800

	// DefaultDepthThreshold is the depth below body that counts as deep.
	DefaultDepthThreshold = 10

	// DefaultDeepElementLimit is how many deep elements are tolerated.
	DefaultDeepElementLimit = 50

	// DefaultOverflowCap bounds the overflow selectors reported.
	DefaultOverflowCap = 20
)

// Config holds all configuration options for VibeSense.
// It is populated from CLI flags and passed through the application
// rather than kept in global state.
type Config struct {
	// Targets are the URLs or file paths to scan.
	Targets []string

	// Timeout bounds the scan of one target.
	Timeout time.Duration

	// CrawlDepth is how many link levels to follow from each target.
	// 0 scans only the target page.
	CrawlDepth int

	// MaxPages is the maximum number of pages scanned per target when
	// crawling.
	MaxPages int

	// CrawlDelay is the delay between HTTP requests during crawling.
	CrawlDelay time.Duration

	// BatchSize is the number of targets scanned concurrently.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the explicit configuration file path.
	// If empty, .vibesense is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds the loaded configuration file, if any.
	SiteConfigs *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// Prompts appends the AI prompt for every issue to the report.
	Prompts bool

	// DBDir is where the history database lives.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB stores every scan in the history database.
	SaveToDB bool

	// UserAgent is sent with static HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum page body size in bytes.
	MaxBodySize int64

	// Proxy routes static requests and the browser through a proxy
	// (socks5://, socks5h://, http:// or https://).
	Proxy string

	// Browser renders pages in Chrome instead of parsing static HTML.
	Browser bool

	// Headless hides the browser window. Only used with Browser.
	Headless bool

	// ChromePath overrides the Chrome executable. Empty means autodetect.
	ChromePath string

	// Settle is extra time to wait after load for client-side rendering.
	Settle time.Duration

	// ViewportWidth and ViewportHeight size the layout viewport.
	ViewportWidth  int
	ViewportHeight int

	// DepthThreshold, DeepElementLimit and OverflowCap tune the scanner.
	DepthThreshold   int
	DeepElementLimit int
	OverflowCap      int
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:          DefaultTimeout,
		CrawlDepth:       DefaultCrawlDepth,
		MaxPages:         DefaultMaxPages,
		CrawlDelay:       DefaultCrawlDelay,
		BatchSize:        DefaultBatchSize,
		SaveToDB:         true,
		DBDir:            XDGDataDir(),
		UserAgent:        DefaultUserAgent,
		MaxBodySize:      DefaultMaxBodySize,
		Headless:         true,
		ViewportWidth:    DefaultViewportWidth,
		ViewportHeight:   DefaultViewportHeight,
		DepthThreshold:   DefaultDepthThreshold,
		DeepElementLimit: DefaultDeepElementLimit,
		OverflowCap:      DefaultOverflowCap,
	}
}

// XDGDataDir returns the XDG data directory for VibeSense.
// On Linux: ~/.local/share/vibesense
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for VibeSense.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for VibeSense.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.CrawlDepth < 0 {
		return ErrInvalidCrawlDepth
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return ErrInvalidViewport
	}

	if c.DepthThreshold <= 0 || c.DeepElementLimit < 0 || c.OverflowCap <= 0 {
		return ErrInvalidThreshold
	}

	if c.Settle < 0 {
		return ErrInvalidSettle
	}

	if c.Proxy != "" && !validProxy(c.Proxy) {
		return ErrInvalidProxy
	}

	if c.SiteConfigs != nil {
		if err := c.SiteConfigs.Validate(); err != nil {
			return err
		}
	}

	return nil
}
