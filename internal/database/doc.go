// Package database stores scan history in SQLite.
//
// Every scan of a page is saved as one row holding the full result as JSON
// plus a small per-severity summary, so history listings do not need to
// decode whole results. Two scans of the same page can be compared to see
// which issue types appeared or were fixed.
//
// SQLite is provided by modernc.org/sqlite, which needs no CGO.
package database
