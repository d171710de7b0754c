// Package scanner inspects a page document and reports UI and accessibility
// issues.
//
// A Scanner runs a fixed list of checks over a dom.Document in one synchronous
// pass:
//
//   - empty buttons (no visible text and no accessible label)
//   - images without an alt attribute
//   - deep DOM nesting
//   - elements wider than the viewport
//
// Each check that fires produces one aggregated model.Issue carrying a
// selector path per offending element. When nothing fires the result holds a
// single general polish issue, so a ScanResult is never empty.
//
// The scanner performs no I/O. Obtaining the document (HTTP, file or a live
// browser tab) is the job of the crawler and browser packages.
package scanner
