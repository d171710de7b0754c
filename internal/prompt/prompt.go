// Package prompt formats detected issues into instructions for an AI coding
// assistant.
package prompt

import (
	"fmt"
	"strings"

	"github.com/nao1215/vibesense/internal/model"
)

const template = `
[VIBESENSE ANALYSIS REPORT]
Target URL: %s
Tech Stack: %s

IDENTIFIED ISSUE:
%s

INSTRUCTIONS FOR AI:
I am using a Vibe Coding environment. Please refactor the code to fix the issue listed above.
Ensure the fixes are performant and adhere to the existing design system.
Provide the complete updated code block for the fix.
`

// Build returns the prompt for one issue. The inputs are inserted verbatim
// and the result has no leading or trailing whitespace.
func Build(pageURL, tech, issueText string) string {
	return strings.TrimSpace(fmt.Sprintf(template, pageURL, tech, issueText))
}

// ForIssue builds the prompt for an issue of a scan result.
func ForIssue(result *model.ScanResult, issue model.Issue) string {
	return Build(result.PageURL, string(result.TechHint), issue.IssueText)
}

// All returns one prompt per issue of the result, in issue order.
func All(result *model.ScanResult) []string {
	prompts := make([]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		prompts = append(prompts, ForIssue(result, issue))
	}
	return prompts
}
