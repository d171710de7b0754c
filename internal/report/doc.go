// Package report renders scan results for people and tools.
//
// This package contains writers for different output formats:
//   - SimpleWriter: plain text for the terminal
//   - MarkdownWriter: Markdown with summary tables and a severity chart
//   - JSONWriter: structured JSON for tool integration
//
// Writers implement the Writer interface, so they can be used
// interchangeably and combined with MultiWriter.
package report
