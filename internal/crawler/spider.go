package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/vibesense/internal/dom"
)

// Spider walks a site breadth-first from a start URL and collects the pages
// to scan. Only links on the start host are followed.
type Spider struct {
	// loader fetches and parses each page.
	loader *Loader

	// maxDepth limits how deep to crawl from the starting URL.
	// 0 means only the starting page, 1 means one level of links, etc.
	maxDepth int

	// maxPages limits the total number of pages to crawl.
	maxPages int

	// delay is the time to wait between requests.
	delay time.Duration

	// ignorePatterns are URL path patterns to skip during crawling.
	// Patterns use glob syntax (e.g., "/admin/*", "*.pdf").
	ignorePatterns []string

	// followPatterns are URL path patterns to follow during crawling.
	// If set, only URLs matching these patterns are crawled.
	// Empty means all URLs are allowed (subject to ignorePatterns).
	followPatterns []string

	logger *slog.Logger

	// visited tracks URLs already visited to avoid duplicates.
	visited map[string]bool

	// mutex protects concurrent access to visited.
	mutex sync.Mutex

	// pageCount tracks pages crawled.
	pageCount int
}

// Page is one crawled page.
type Page struct {
	// URL is the address the page was fetched from.
	URL string

	// Depth is the link distance from the start page.
	Depth int

	// Title is the page title.
	Title string

	// Document is the parsed page, ready for scanning.
	Document *dom.Document
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the starting page, 1 = starting page plus linked pages, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxPages sets the maximum number of pages to crawl.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the delay between requests.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
// URLs matching any of these patterns will not be crawled.
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow during crawling.
// Patterns use glob syntax (e.g., "/docs/*", "/blog/*").
// If set, only URLs matching at least one pattern are crawled.
// Empty slice means all URLs are allowed (default behavior).
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithSpiderLogger sets the logger.
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a new Spider that fetches through loader.
func NewSpider(loader *Loader, opts ...SpiderOption) *Spider {
	s := &Spider{
		loader:    loader,
		maxDepth:  1,
		maxPages:  20,
		delay:     500 * time.Millisecond,
		logger:    slog.Default(),
		visited:   make(map[string]bool),
		pageCount: 0,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Crawl starts crawling from the given URL and returns the pages found, in
// visit order. Pages that fail to load are logged and skipped, except the
// start page, whose failure is returned.
func (s *Spider) Crawl(ctx context.Context, startURL string) ([]*Page, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}
	if start.Scheme != "http" && start.Scheme != "https" {
		return nil, fmt.Errorf("invalid start URL: %q is not an http(s) URL", startURL)
	}

	pages := make([]*Page, 0)
	queue := make([]queueItem, 0)
	queue = append(queue, queueItem{url: start.String(), depth: 0})

	for len(queue) > 0 && s.pageCount < s.maxPages {
		select {
		case <-ctx.Done():
			return pages, ctx.Err()
		default:
		}

		item := queue[0]
		queue = queue[1:]

		if s.isVisited(item.url) {
			continue
		}
		s.markVisited(item.url)

		doc, err := s.loader.Load(ctx, item.url)
		if err != nil {
			if item.depth == 0 {
				return nil, err
			}
			s.logger.Debug("skipping page", "url", item.url, "error", err)
			continue
		}

		parser, err := NewParser(doc.URL)
		if err != nil {
			continue
		}
		parsed := parser.ParseDocument(doc)

		pages = append(pages, &Page{
			URL:      item.url,
			Depth:    item.depth,
			Title:    parsed.Title,
			Document: doc,
		})
		s.pageCount++

		if item.depth < s.maxDepth {
			for _, link := range parsed.InternalLinks {
				if !s.isVisited(link) && s.isSameSite(start.Host, link) && s.shouldCrawl(link) {
					queue = append(queue, queueItem{url: link, depth: item.depth + 1})
				}
			}
		}

		// Politeness delay
		if s.delay > 0 && len(queue) > 0 {
			select {
			case <-ctx.Done():
				return pages, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	return pages, nil
}

// queueItem represents an item in the crawl queue.
type queueItem struct {
	url   string
	depth int
}

// isVisited checks if a URL has been visited.
func (s *Spider) isVisited(pageURL string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.visited[s.normalizeURL(pageURL)]
}

// markVisited marks a URL as visited.
func (s *Spider) markVisited(pageURL string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.visited[s.normalizeURL(pageURL)] = true
}

// normalizeURL normalizes a URL for deduplication: the fragment is dropped,
// scheme and host are lower-cased, and an empty path becomes "/".
func (s *Spider) normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// isSameSite checks if a URL is on the start host.
func (s *Spider) isSameSite(baseHost, targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	return strings.EqualFold(u.Host, baseHost)
}

// Reset clears the spider's state, allowing it to be reused.
func (s *Spider) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.visited = make(map[string]bool)
	s.pageCount = 0
}

// Stats returns current crawl statistics.
func (s *Spider) Stats() SpiderStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return SpiderStats{
		PagesVisited: s.pageCount,
		URLsQueued:   len(s.visited),
	}
}

// SpiderStats contains crawl statistics.
type SpiderStats struct {
	// PagesVisited is the number of pages successfully crawled.
	PagesVisited int

	// URLsQueued is the number of unique URLs encountered.
	URLsQueued int
}

// shouldCrawl applies the ignore and follow patterns to the URL path.
// Ignore wins over follow; with no follow patterns everything not ignored
// is crawled.
func (s *Spider) shouldCrawl(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	matches := func(pattern string) bool { return matchPattern(pattern, path) }

	if slices.ContainsFunc(s.ignorePatterns, matches) {
		return false
	}
	return len(s.followPatterns) == 0 || slices.ContainsFunc(s.followPatterns, matches)
}

// matchPattern reports whether a URL path matches a glob pattern.
//
// "/admin/*" matches the prefix and everything below it, "*.pdf" matches
// by extension anywhere, and other patterns use path.Match, falling back
// to the last segment when the pattern has no slash.
func matchPattern(pattern, urlPath string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/") {
			return true
		}
	}
	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") && strings.HasSuffix(urlPath, ext) {
		return true
	}
	if matched, err := path.Match(pattern, urlPath); err == nil && matched {
		return true
	}
	if !strings.Contains(pattern, "/") {
		matched, err := path.Match(pattern, path.Base(urlPath))
		return err == nil && matched
	}
	return false
}
