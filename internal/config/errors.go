package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrNoTarget is returned when no URL or file was given.
	ErrNoTarget = errors.New("no target specified: provide a URL or an HTML file")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidCrawlDepth is returned when the crawl depth is negative.
	ErrInvalidCrawlDepth = errors.New("invalid crawl depth: must be non-negative")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidViewport is returned when a viewport dimension is not positive.
	ErrInvalidViewport = errors.New("invalid viewport: width and height must be positive")

	// ErrInvalidThreshold is returned for out-of-range scanner thresholds.
	ErrInvalidThreshold = errors.New("invalid scanner threshold: depth and overflow cap must be positive, deep element limit non-negative")

	// ErrInvalidSettle is returned when the settle delay is negative.
	ErrInvalidSettle = errors.New("invalid settle delay: must be non-negative")

	// ErrInvalidProxy is returned for a proxy URL with an unsupported scheme.
	ErrInvalidProxy = errors.New("invalid proxy: use socks5://, socks5h://, http:// or https://")

	// ErrUnknownCheck is returned when disabledChecks names an unknown check.
	ErrUnknownCheck = errors.New("unknown check in disabledChecks")
)
