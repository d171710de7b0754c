package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/nao1215/vibesense/internal/model"
)

// Default window settings.
const (
	DefaultWidth  = 1280
	DefaultHeight = 800
)

// ErrClosed is returned when a closed Browser is used.
var ErrClosed = errors.New("browser is closed")

// Option configures a Browser.
type Option func(*Browser)

// WithHeadless toggles headless mode. A visible window lets the user watch
// highlights appear.
func WithHeadless(headless bool) Option {
	return func(b *Browser) {
		b.headless = headless
	}
}

// WithViewport sets the window and layout viewport size.
func WithViewport(width, height int) Option {
	return func(b *Browser) {
		if width > 0 {
			b.width = width
		}
		if height > 0 {
			b.height = height
		}
	}
}

// WithSettle waits after the page is ready, for client-side rendering.
func WithSettle(d time.Duration) Option {
	return func(b *Browser) {
		b.settle = d
	}
}

// WithExecPath selects the Chrome binary.
func WithExecPath(path string) Option {
	return func(b *Browser) {
		b.execPath = path
	}
}

// WithProxy routes browser traffic through a proxy server.
func WithProxy(proxyURL string) Option {
	return func(b *Browser) {
		b.proxy = proxyURL
	}
}

// WithUserAgent overrides the browser User-Agent.
func WithUserAgent(ua string) Option {
	return func(b *Browser) {
		b.userAgent = ua
	}
}

// WithHeaders sends extra headers (including Cookie) with every request a
// tab makes.
func WithHeaders(headers map[string]string) Option {
	return func(b *Browser) {
		for k, v := range headers {
			b.headers[k] = v
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Browser) {
		b.logger = logger
	}
}

// Browser is one Chrome process.
type Browser struct {
	headless  bool
	width     int
	height    int
	settle    time.Duration
	execPath  string
	proxy     string
	userAgent string
	headers   network.Headers
	logger    *slog.Logger

	allocCancel   context.CancelFunc
	ctx           context.Context
	browserCancel context.CancelFunc
}

// New starts Chrome. The process lives until Close.
func New(opts ...Option) (*Browser, error) {
	b := &Browser{
		headless: true,
		width:    DefaultWidth,
		height:   DefaultHeight,
		headers:  make(network.Headers),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), b.allocatorOptions()...)
	ctx, browserCancel := chromedp.NewContext(allocCtx)
	b.allocCancel = allocCancel
	b.ctx = ctx
	b.browserCancel = browserCancel

	// Running with no actions launches the process.
	if err := chromedp.Run(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	b.logger.Debug("browser started", "headless", b.headless, "width", b.width, "height", b.height)
	return b, nil
}

func (b *Browser) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.WindowSize(b.width, b.height),
	)
	if b.headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if b.execPath != "" {
		opts = append(opts, chromedp.ExecPath(b.execPath))
	}
	if b.proxy != "" {
		opts = append(opts, chromedp.ProxyServer(b.proxy))
	}
	if b.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.userAgent))
	}
	return opts
}

// Open navigates a new tab to pageURL and waits for the body. Navigation
// failures are returned as *model.PlatformInjectionError.
func (b *Browser) Open(ctx context.Context, pageURL string) (*Tab, error) {
	if b.ctx == nil || b.ctx.Err() != nil {
		return nil, ErrClosed
	}

	tabCtx, cancel := chromedp.NewContext(b.ctx)
	tab := &Tab{
		ctx:    tabCtx,
		cancel: cancel,
		url:    pageURL,
		settle: b.settle,
		logger: b.logger,
	}

	// The first Run attaches the target and starts its event loop on the
	// context it receives, so it must be the tab context itself. Later runs
	// go through tab.run with per-call deadlines.
	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(tabCtx)
	if !stop() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		cancel()
		return nil, model.NewPlatformInjectionError(pageURL, fmt.Errorf("failed to open tab: %w", err))
	}

	actions := []chromedp.Action{
		chromedp.EmulateViewport(int64(b.width), int64(b.height)),
	}
	if len(b.headers) > 0 {
		actions = append(actions,
			network.Enable(),
			network.SetExtraHTTPHeaders(b.headers),
		)
	}
	actions = append(actions, tab.loadActions(chromedp.Navigate(pageURL))...)

	if err := tab.run(ctx, actions...); err != nil {
		cancel()
		return nil, model.NewPlatformInjectionError(pageURL, fmt.Errorf("navigation failed: %w", err))
	}

	b.logger.Debug("tab opened", "url", pageURL)
	return tab, nil
}

// Close stops Chrome. It is safe to call more than once.
func (b *Browser) Close() {
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
}
