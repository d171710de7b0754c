package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/vibesense/internal/dom"
)

// Parser extracts navigation data from HTML: the title, links (split into
// same-site and external), and the meta tags a report shows.
type Parser struct {
	// baseURL is used for resolving relative URLs.
	baseURL *url.URL
}

// ParseResult contains the information extracted from one page.
type ParseResult struct {
	// Title is the page title from <title> tag.
	Title string

	// Links contains all resolved href targets in document order.
	Links []string

	// InternalLinks are links to the same host.
	InternalLinks []string

	// ExternalLinks are links to other hosts.
	ExternalLinks []string

	// MetaTags maps meta name (or OpenGraph property) to content.
	MetaTags map[string]string
}

// NewParser creates a new HTML parser with the given base URL.
// The base URL is used to resolve relative links.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses HTML content and extracts all relevant information.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	root, err := html.Parse(content)
	if err != nil {
		return nil, err
	}
	return p.ParseNode(root), nil
}

// ParseDocument extracts information from an already parsed document.
func (p *Parser) ParseDocument(doc *dom.Document) *ParseResult {
	return p.ParseNode(doc.Root)
}

// ParseNode walks the tree below root.
func (p *Parser) ParseNode(root *html.Node) *ParseResult {
	result := &ParseResult{
		Links:         make([]string, 0),
		InternalLinks: make([]string, 0),
		ExternalLinks: make([]string, 0),
		MetaTags:      make(map[string]string),
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.processElement(n, result)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return result
}

// processElement handles HTML element nodes.
func (p *Parser) processElement(n *html.Node, result *ParseResult) {
	switch n.Data {
	case "title":
		if result.Title == "" {
			result.Title = strings.TrimSpace(dom.TextContent(n))
		}

	case "a", "area":
		if href := dom.Attr(n, "href"); href != "" {
			resolved := p.resolveURL(href)
			if resolved != "" {
				result.Links = append(result.Links, resolved)
				p.classifyLink(resolved, result)
			}
		}

	case "meta":
		name := dom.Attr(n, "name")
		if name == "" {
			name = dom.Attr(n, "property") // OpenGraph uses property
		}
		content := dom.Attr(n, "content")
		if name != "" && content != "" {
			result.MetaTags[name] = content
		}
	}
}

// resolveURL resolves a relative URL against the base URL. Links that do
// not lead to a page (javascript:, mailto:, bare fragments) resolve to "".
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(u)
	resolved.Fragment = ""
	return resolved.String()
}

// classifyLink sorts a link into internal or external by host.
func (p *Parser) classifyLink(link string, result *ParseResult) {
	u, err := url.Parse(link)
	if err != nil {
		return
	}

	if u.Host == "" || strings.EqualFold(u.Host, p.baseURL.Host) {
		result.InternalLinks = append(result.InternalLinks, link)
		return
	}
	result.ExternalLinks = append(result.ExternalLinks, link)
}
