package highlight

import (
	"fmt"
	"strings"

	"github.com/nao1215/vibesense/internal/model"
)

// StyleID is the id of the injected <style> element.
const StyleID = "vibesense-highlight-style"

// Marker describes how one issue type is drawn on the page.
type Marker struct {
	// Class is added to every highlighted element.
	Class string

	// Color is the outline and label background.
	Color string

	// Label is the text of the pseudo-element badge.
	Label string

	// Pseudo is the pseudo-element carrying the badge ("before" or "after").
	Pseudo string

	// Tint is the translucent background fill.
	Tint string
}

// markers lists the highlightable issue types. Deep nesting and the general
// placeholder have no marker.
var markers = map[model.IssueType]Marker{
	model.IssueEmptyButtons: {
		Class:  "vibesense-highlight-empty-button",
		Color:  "#ef4444",
		Label:  "⚠ Empty Button",
		Pseudo: "before",
		Tint:   "rgba(239, 68, 68, 0.1)",
	},
	model.IssueMissingAlt: {
		Class:  "vibesense-highlight-missing-alt",
		Color:  "#f59e0b",
		Label:  "⚠ Missing Alt",
		Pseudo: "after",
		Tint:   "rgba(245, 158, 11, 0.1)",
	},
	model.IssueOverflow: {
		Class:  "vibesense-highlight-overflow",
		Color:  "#8b5cf6",
		Label:  "⚠ Overflow",
		Pseudo: "before",
		Tint:   "rgba(139, 92, 246, 0.1)",
	},
}

// markerOrder fixes the rule order in the stylesheet.
var markerOrder = []model.IssueType{
	model.IssueEmptyButtons,
	model.IssueMissingAlt,
	model.IssueOverflow,
}

// MarkerFor returns the marker of an issue type.
func MarkerFor(t model.IssueType) (Marker, bool) {
	m, ok := markers[t]
	return m, ok
}

// ClassFor returns the highlight class of an issue type.
func ClassFor(t model.IssueType) (string, bool) {
	m, ok := markers[t]
	return m.Class, ok
}

// Classes returns every highlight class in stylesheet order.
func Classes() []string {
	classes := make([]string, 0, len(markerOrder))
	for _, t := range markerOrder {
		classes = append(classes, markers[t].Class)
	}
	return classes
}

// Stylesheet returns the CSS injected once per page.
func Stylesheet() string {
	var sb strings.Builder
	for _, t := range markerOrder {
		m := markers[t]
		fmt.Fprintf(&sb, ".%s {\n", m.Class)
		fmt.Fprintf(&sb, "  outline: 3px solid %s !important;\n", m.Color)
		sb.WriteString("  outline-offset: 2px !important;\n")
		fmt.Fprintf(&sb, "  background-color: %s !important;\n", m.Tint)
		sb.WriteString("  position: relative !important;\n")
		sb.WriteString("}\n")
		fmt.Fprintf(&sb, ".%s::%s {\n", m.Class, m.Pseudo)
		fmt.Fprintf(&sb, "  content: %q !important;\n", m.Label)
		sb.WriteString("  position: absolute !important;\n")
		sb.WriteString("  top: -20px !important;\n")
		sb.WriteString("  left: 0 !important;\n")
		fmt.Fprintf(&sb, "  background: %s !important;\n", m.Color)
		sb.WriteString("  color: white !important;\n")
		sb.WriteString("  padding: 2px 6px !important;\n")
		sb.WriteString("  font-size: 11px !important;\n")
		sb.WriteString("  font-weight: bold !important;\n")
		sb.WriteString("  z-index: 999999 !important;\n")
		sb.WriteString("  border-radius: 3px !important;\n")
		sb.WriteString("}\n")
	}
	return sb.String()
}
