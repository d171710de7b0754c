// Package crawler loads pages for static scanning.
//
// # Components
//
//   - Loader: fetches one page over HTTP(S) or reads a local file and
//     parses it into a dom.Document
//   - Spider: breadth-first crawl of one site, returning every page found
//     within the depth and page limits
//   - Parser: extracts the title, links and meta tags used by the Spider
//
// Requests can go through a SOCKS5 or HTTP proxy (see NewHTTPClient), and
// can carry a cookie and extra headers for pages behind a login or a
// preview gate.
//
// # Usage
//
//	client, _ := crawler.NewHTTPClient("", 30*time.Second)
//	loader := crawler.NewLoader(client, crawler.WithViewportWidth(375))
//	doc, err := loader.Load(ctx, "http://localhost:3000")
//
//	spider := crawler.NewSpider(loader, crawler.WithMaxDepth(2))
//	pages, err := spider.Crawl(ctx, "http://localhost:3000")
//
// Failures to obtain a page are returned as *model.PlatformInjectionError.
package crawler
