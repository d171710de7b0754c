// Package browser is the live page backend. It drives Chrome through the
// DevTools protocol (chromedp), captures a measured snapshot of the rendered
// DOM for the scanner, and draws highlights directly in the tab.
//
// A Browser owns one Chrome process. Each Tab is one page in it. Tab
// implements highlight.Target, so the same Highlighter that annotates static
// documents marks up the live page.
package browser
