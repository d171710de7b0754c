package model

// Severity represents how strongly an issue affects users of the page.
// The level drives report ordering and the summary counts.
type Severity int

const (
	// SeverityInfo indicates informational issues with no direct user impact.
	// Example: the "general polish" placeholder.
	SeverityInfo Severity = iota

	// SeverityLow indicates structural issues that rarely block users.
	// Example: deep DOM nesting.
	SeverityLow

	// SeverityMedium indicates issues that degrade the experience for some users.
	// Examples: missing alt text, horizontal overflow on narrow viewports.
	SeverityMedium

	// SeverityHigh indicates issues that make a control unusable for assistive
	// technology users.
	// Example: buttons without any text or accessible label.
	SeverityHigh
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// IssueInfo contains metadata about an issue type including severity,
// impact description, and remediation recommendation.
type IssueInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// issueInfoMapping maps issue types to their metadata.
// Every IssueType declared in issue.go has an entry here.
var issueInfoMapping = map[IssueType]IssueInfo{
	IssueEmptyButtons: {
		Severity:       SeverityHigh,
		Impact:         "Screen readers announce these controls as \"button\" with no purpose, so keyboard and assistive technology users cannot tell what they do.",
		Recommendation: "Give every button visible text, or an aria-label when the button only contains an icon.",
	},
	IssueMissingAlt: {
		Severity:       SeverityMedium,
		Impact:         "Images without an alt attribute are announced by file name or skipped, and search engines lose their description.",
		Recommendation: "Add descriptive alt text. Use alt=\"\" for purely decorative images.",
	},
	IssueOverflow: {
		Severity:       SeverityMedium,
		Impact:         "Elements wider than the viewport force horizontal scrolling and break layouts on mobile devices.",
		Recommendation: "Use fluid widths (max-width: 100%, flex/grid wrapping) instead of fixed pixel widths.",
	},
	IssueDeepNesting: {
		Severity:       SeverityLow,
		Impact:         "Deeply nested markup slows style recalculation and makes components hard to refactor.",
		Recommendation: "Flatten wrapper elements and extract repeated structures into components.",
	},
	IssueGeneral: {
		Severity:       SeverityInfo,
		Impact:         "No critical problems were detected by the automated checks.",
		Recommendation: "Review spacing, typography and contrast for overall polish.",
	},
}

// GetSeverity returns the severity level for an issue type.
// Returns SeverityInfo if the issue type is not in the mapping.
func GetSeverity(issueType IssueType) Severity {
	if info, ok := issueInfoMapping[issueType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetIssueInfo returns the full issue information for an issue type.
// Returns a default IssueInfo with SeverityInfo if the type is not in the mapping.
func GetIssueInfo(issueType IssueType) IssueInfo {
	if info, ok := issueInfoMapping[issueType]; ok {
		return info
	}
	return IssueInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown issue type. Review manually.",
		Recommendation: "Inspect the affected elements and assess the impact.",
	}
}
