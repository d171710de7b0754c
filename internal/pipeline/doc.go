// Package pipeline runs scans of one or more targets.
//
// Each target becomes a Job that flows through an ordered list of Steps:
// loading the page (or crawling the site), scanning every loaded document
// and optionally saving the results. BatchProcessor runs one pipeline per
// target with bounded concurrency and keeps results in input order.
package pipeline
