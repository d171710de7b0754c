// Package tui implements the interactive inspector, a terminal version of
// the VibeSense popup.
//
// The inspector shows a Scan button, a status line and one card per issue.
// Each card offers "Show on Page", which toggles the issue's highlights on
// the page, and "Copy Prompt", which copies the AI prompt. The scan button
// is disabled while a scan is in flight.
package tui
