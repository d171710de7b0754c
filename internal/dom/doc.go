// Package dom provides the document handle every VibeSense component works on.
//
// A Document is an x/net/html tree plus the layout facts the checks need
// (rendered width and visibility per element). Static documents come from
// Parse, which approximates layout from inline styles. Live documents come
// from FromSnapshot, which takes the measured tree serialized by a browser
// tab. CSS selector queries are handled by cascadia.
package dom
