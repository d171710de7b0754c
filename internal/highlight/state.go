package highlight

import (
	"sync"

	"github.com/nao1215/vibesense/internal/model"
)

// State records which issue types are currently shown on a page.
//
// It belongs to whoever owns the page (a session) and is passed to the
// Highlighter explicitly. Reset it whenever the page reloads or navigates,
// because the marks disappear with the old document.
type State struct {
	mu    sync.Mutex
	shown map[model.IssueType]bool
}

// NewState returns a State with nothing shown.
func NewState() *State {
	return &State{shown: make(map[model.IssueType]bool)}
}

// Shown reports whether the type is currently highlighted.
func (s *State) Shown(t model.IssueType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown[t]
}

// Set records the visibility of a type.
func (s *State) Set(t model.IssueType, shown bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if shown {
		s.shown[t] = true
		return
	}
	delete(s.shown, t)
}

// ShownTypes returns the highlighted types in check order.
func (s *State) ShownTypes() []model.IssueType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]model.IssueType, 0, len(s.shown))
	for _, t := range model.AllIssueTypes {
		if s.shown[t] {
			types = append(types, t)
		}
	}
	return types
}

// Reset clears every flag.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.shown)
}
