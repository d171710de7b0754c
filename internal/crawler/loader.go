package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/vibesense/internal/dom"
	"github.com/nao1215/vibesense/internal/model"
)

// DefaultUserAgent identifies the tool to the servers it fetches from.
const DefaultUserAgent = "Mozilla/5.0 (compatible; VibeSense/1.0; +https://github.com/nao1215/vibesense)"

// DefaultMaxBodySize is the largest page body read (10MB).
const DefaultMaxBodySize = 10 * 1024 * 1024

var (
	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrNotHTML is returned when the response is not an HTML document.
	ErrNotHTML = errors.New("content is not HTML")
)

// Response is a fetched page body before parsing.
type Response struct {
	// URL is the final URL after redirects, or a file:// URL.
	URL string

	// StatusCode is the HTTP status (200 for files).
	StatusCode int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the raw body, truncated at the size limit.
	Body []byte
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) LoaderOption {
	return func(l *Loader) {
		l.userAgent = ua
	}
}

// WithHeaders adds request headers sent with every fetch.
func WithHeaders(headers map[string]string) LoaderOption {
	return func(l *Loader) {
		for k, v := range headers {
			l.headers.Set(k, v)
		}
	}
}

// WithCookie sets a Cookie header, e.g. for pages behind a login.
func WithCookie(cookie string) LoaderOption {
	return func(l *Loader) {
		l.cookie = cookie
	}
}

// WithMaxBodySize limits how much of a body is read.
func WithMaxBodySize(size int64) LoaderOption {
	return func(l *Loader) {
		l.maxBodySize = size
	}
}

// WithViewportWidth sets the viewport width assumed for layout.
func WithViewportWidth(width int) LoaderOption {
	return func(l *Loader) {
		l.viewportWidth = width
	}
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// Loader reads pages from HTTP(S) URLs or local files and parses them into
// static documents.
type Loader struct {
	client        *http.Client
	userAgent     string
	headers       http.Header
	cookie        string
	maxBodySize   int64
	viewportWidth int
	logger        *slog.Logger
}

// NewLoader creates a Loader. A nil client selects http.DefaultClient.
func NewLoader(client *http.Client, opts ...LoaderOption) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	l := &Loader{
		client:        client,
		userAgent:     DefaultUserAgent,
		headers:       make(http.Header),
		maxBodySize:   DefaultMaxBodySize,
		viewportWidth: dom.DefaultViewportWidth,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsRemote reports whether target is an http(s) URL rather than a file.
func IsRemote(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Load fetches target and parses it. Every failure is returned as a
// *model.PlatformInjectionError naming target.
func (l *Loader) Load(ctx context.Context, target string) (*dom.Document, error) {
	resp, err := l.Fetch(ctx, target)
	if err != nil {
		return nil, model.NewPlatformInjectionError(target, err)
	}

	doc, err := dom.Parse(bytes.NewReader(resp.Body), resp.URL, l.viewportWidth)
	if err != nil {
		return nil, model.NewPlatformInjectionError(target, err)
	}
	return doc, nil
}

// Fetch reads the raw page without parsing.
func (l *Loader) Fetch(ctx context.Context, target string) (*Response, error) {
	if IsRemote(target) {
		return l.fetchHTTP(ctx, target)
	}
	return l.readFile(target)
}

func (l *Loader) fetchHTTP(ctx context.Context, target string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, vals := range l.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if l.cookie != "" {
		req.Header.Set("Cookie", l.cookie)
	}

	l.logger.Debug("fetching page", "url", target)
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return &Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}

func (l *Loader) readFile(target string) (*Response, error) {
	path := target
	if strings.HasPrefix(strings.ToLower(target), "file://") {
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("invalid file URL: %w", err)
		}
		path = u.Path
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	f, err := os.Open(abs) //nolint:gosec // reading a user-specified page is the point
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, l.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return &Response{
		URL:         (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		StatusCode:  http.StatusOK,
		ContentType: "text/html",
		Body:        body,
	}, nil
}

// isHTML accepts HTML and XHTML, and a missing Content-Type.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
