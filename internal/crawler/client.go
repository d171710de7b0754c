package crawler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects bounds redirect chains.
const maxRedirects = 10

// ErrUnsupportedProxy is returned for proxy URLs that are neither SOCKS5 nor
// HTTP(S).
var ErrUnsupportedProxy = errors.New("unsupported proxy scheme (use socks5://, http:// or https://)")

// NewHTTPClient creates the HTTP client used to fetch pages.
//
// proxyURL may be empty for a direct connection, "socks5://host:port" for a
// SOCKS5 proxy (dialed through golang.org/x/net/proxy), or an http(s) URL for
// a regular forward proxy. Cookies set by the site are kept in a jar so a
// crawl stays inside one session.
func NewHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}

	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}

		switch u.Scheme {
		case "socks5", "socks5h":
			dialer, err := proxy.FromURL(u, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
			}
			transport.Proxy = nil
			transport.DialContext = dialContext(dialer)
		case "http", "https":
			transport.Proxy = http.ProxyURL(u)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedProxy, u.Scheme)
		}
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// dialContext uses the dialer's native context support when present.
func dialContext(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}
}
