// Package model defines the core data structures used throughout VibeSense.
//
// This package contains the following main types:
//   - Issue: one detected class of UI problem and the selectors of the
//     affected elements
//   - ScanResult: the outcome of scanning a single page
//   - Severity: the impact level attached to each issue type
//   - PlatformInjectionError, SelectorResolutionError, ClipboardWriteError:
//     the error taxonomy shared by the scanner, highlighter and session
//
// The models are serializable to JSON for report output and for the scan
// history database. The JSON field names follow the result object the
// in-page scan script has always returned (url, tech, recommendations).
package model
