package model

import (
	"encoding/json"
	"time"
)

// IssueType is the tag identifying one class of UI problem.
// The string values are stable: they appear in JSON reports, in the history
// database and on the command line (--type).
type IssueType string

const (
	// IssueEmptyButtons marks buttons without visible text or accessible label.
	IssueEmptyButtons IssueType = "empty-buttons"

	// IssueMissingAlt marks images without an alt attribute.
	IssueMissingAlt IssueType = "missing-alt"

	// IssueDeepNesting marks documents with too many deeply nested elements.
	// It is informational only and never carries selectors.
	IssueDeepNesting IssueType = "deep-nesting"

	// IssueOverflow marks elements wider than the viewport.
	IssueOverflow IssueType = "overflow"

	// IssueGeneral is the placeholder returned when no check fires.
	IssueGeneral IssueType = "general"
)

// AllIssueTypes lists every issue type in the order checks run.
var AllIssueTypes = []IssueType{
	IssueEmptyButtons,
	IssueMissingAlt,
	IssueDeepNesting,
	IssueOverflow,
	IssueGeneral,
}

// ParseIssueType converts a command-line value to an IssueType.
// It returns false when the value is not a known type.
func ParseIssueType(s string) (IssueType, bool) {
	for _, t := range AllIssueTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// String returns the tag value.
func (t IssueType) String() string {
	return string(t)
}

// Issue is one detected class of problem on a page together with the
// selectors of the elements exhibiting it.
//
// Issues are created fresh on every scan and are not modified afterwards.
type Issue struct {
	// Type is the issue tag.
	Type IssueType `json:"type"`

	// Title is a short headline, e.g. "Empty Buttons (3 found)".
	Title string `json:"title"`

	// Description is the longer human-readable explanation shown in reports.
	Description string `json:"description"`

	// IssueText is the sentence placed into the AI prompt.
	IssueText string `json:"issue"`

	// Selectors are CSS selector paths of the offending elements, in document
	// order. For overflow issues the list is capped (see Truncated).
	Selectors []string `json:"selectors"`

	// Count is the true number of offending elements. It may be larger than
	// len(Selectors) when the selector list was capped.
	Count int `json:"count"`

	// Severity is copied from the issue type mapping at scan time.
	Severity Severity `json:"severity"`
}

// NewIssue creates an Issue and fills Severity from the issue type mapping.
// A nil selector slice is normalized to an empty one so JSON output always
// carries an array.
func NewIssue(t IssueType, title, description, issueText string, count int, selectors []string) Issue {
	if selectors == nil {
		selectors = []string{}
	}
	return Issue{
		Type:        t,
		Title:       title,
		Description: description,
		IssueText:   issueText,
		Selectors:   selectors,
		Count:       count,
		Severity:    GetSeverity(t),
	}
}

// Highlightable reports whether the issue can be shown on the page.
// Deep nesting and the general placeholder never carry selectors.
func (i Issue) Highlightable() bool {
	return len(i.Selectors) > 0
}

// Truncated reports whether the selector list covers only part of the
// offending elements. The overflow check caps its selectors, so the count
// shown to the user and the highlighted set can differ.
func (i Issue) Truncated() bool {
	return i.Highlightable() && i.Count > len(i.Selectors)
}

// Backend identifies how the scanned document was obtained.
type Backend string

const (
	// BackendStatic means the HTML was fetched or read and parsed without
	// rendering. Layout information is approximated from inline styles.
	BackendStatic Backend = "static"

	// BackendBrowser means the document was captured from a live browser tab.
	BackendBrowser Backend = "browser"
)

// TechHint labels the styling approach detected on the page.
type TechHint string

const (
	// TechTailwind is reported when utility classes such as bg-* or text-*
	// are present.
	TechTailwind TechHint = "Tailwind CSS"

	// TechStandard is reported otherwise.
	TechStandard TechHint = "Standard CSS"
)

// ScanResult is the outcome of one scan of one page.
type ScanResult struct {
	// ID uniquely identifies the scan. It is assigned by the scanner.
	ID string `json:"id"`

	// PageURL is the URL (or file URL) of the scanned document.
	PageURL string `json:"url"`

	// TechHint is the detected styling approach.
	TechHint TechHint `json:"tech"`

	// Issues is never empty: a general polish placeholder is substituted
	// when no check fires.
	Issues []Issue `json:"recommendations"`

	// ScannedAt is when the scan finished.
	ScannedAt time.Time `json:"scanned_at"`

	// Backend records whether the page was rendered.
	Backend Backend `json:"backend"`
}

// HasProblems reports whether any issue other than the placeholder exists.
func (r *ScanResult) HasProblems() bool {
	for _, issue := range r.Issues {
		if issue.Type != IssueGeneral {
			return true
		}
	}
	return false
}

// Issue returns the issue of the given type.
func (r *ScanResult) Issue(t IssueType) (Issue, bool) {
	for _, issue := range r.Issues {
		if issue.Type == t {
			return issue, true
		}
	}
	return Issue{}, false
}

// CountBySeverity returns the number of issues at the given severity.
func (r *ScanResult) CountBySeverity(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// IssuesBySeverity returns all issues at the given severity in scan order.
func (r *ScanResult) IssuesBySeverity(s Severity) []Issue {
	issues := make([]Issue, 0)
	for _, issue := range r.Issues {
		if issue.Severity == s {
			issues = append(issues, issue)
		}
	}
	return issues
}

// Summary returns the offending-element count per issue type.
// The placeholder issue is not included.
func (r *ScanResult) Summary() map[IssueType]int {
	summary := make(map[IssueType]int)
	for _, issue := range r.Issues {
		if issue.Type == IssueGeneral {
			continue
		}
		summary[issue.Type] = issue.Count
	}
	return summary
}

// MarshalJSON renders the severity as its label so JSON reports stay
// readable.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the label produced by MarshalJSON.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	switch label {
	case "LOW":
		*s = SeverityLow
	case "MEDIUM":
		*s = SeverityMedium
	case "HIGH":
		*s = SeverityHigh
	default:
		*s = SeverityInfo
	}
	return nil
}
