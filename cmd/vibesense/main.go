// Package main provides the entry point for the VibeSense CLI.
//
// VibeSense scans web pages for common UI and accessibility problems
// (empty buttons, images without alt text, deep nesting, horizontal
// overflow), highlights the offending elements and builds prompts that can
// be pasted into an AI coding assistant.
//
// Usage:
//
//	vibesense scan <url-or-file>
//	vibesense inspect --browser --no-headless <url>
//
// See --help for all available options.
package main

// main is the entry point for VibeSense.
func main() {
	Execute()
}
