package config

import (
	"fmt"
	"maps"
	"net/url"
	"strings"

	"github.com/nao1215/vibesense/internal/model"
)

// SiteConfig holds site-specific configuration for one host.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent to this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers sent to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the global crawl depth for this site.
	// If zero, the global CrawlDepth is used.
	Depth int `yaml:"depth,omitempty"`

	// Viewport overrides the viewport width for this site.
	Viewport int `yaml:"viewport,omitempty"`

	// DisabledChecks lists issue types that are not checked on this site,
	// e.g. "deep-nesting".
	DisabledChecks []string `yaml:"disabledChecks,omitempty"`

	// IgnorePatterns are URL path patterns skipped during crawling.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns restrict crawling to matching URL paths.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .vibesense configuration file.
type File struct {
	// Sites maps host names (e.g. "example.com" or "localhost:3000") to
	// their configuration.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to all sites unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// SiteKey returns the key used to look up a target in File.Sites: the host
// of a URL, or "" for local files.
func SiteKey(target string) string {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return strings.ToLower(u.Host)
}

// GetSiteConfig returns the configuration for a host merged over defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.Depth != 0 {
		result.Depth = siteConfig.Depth
	}
	if siteConfig.Viewport != 0 {
		result.Viewport = siteConfig.Viewport
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	if len(siteConfig.DisabledChecks) > 0 {
		result.DisabledChecks = siteConfig.DisabledChecks
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}

	return result
}

// IssueTypes converts DisabledChecks to issue types.
func (sc SiteConfig) IssueTypes() ([]model.IssueType, error) {
	types := make([]model.IssueType, 0, len(sc.DisabledChecks))
	for _, name := range sc.DisabledChecks {
		t, ok := model.ParseIssueType(name)
		if !ok || t == model.IssueGeneral {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCheck, name)
		}
		types = append(types, t)
	}
	return types, nil
}

// Validate checks the defaults and every site entry.
func (cf *File) Validate() error {
	if _, err := cf.Defaults.IssueTypes(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	for host, sc := range cf.Sites {
		if _, err := sc.IssueTypes(); err != nil {
			return fmt.Errorf("site %s: %w", host, err)
		}
		if sc.Viewport < 0 {
			return fmt.Errorf("site %s: %w", host, ErrInvalidViewport)
		}
	}
	if cf.Defaults.Viewport < 0 {
		return fmt.Errorf("defaults: %w", ErrInvalidViewport)
	}
	return nil
}
