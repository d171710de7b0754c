// Package highlight draws issue markers on a page.
//
// Each highlightable issue type owns a CSS class, injected once through a
// shared stylesheet. Toggling a type adds or removes that class on the
// elements its selectors resolve to. The shown/hidden flags live in a State
// owned by the caller, not in the page.
package highlight
