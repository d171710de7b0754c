// Package clipboard writes prompts to the system clipboard.
package clipboard

import (
	"github.com/atotto/clipboard"

	"github.com/nao1215/vibesense/internal/model"
)

// System writes to the operating system clipboard. On Linux it needs xclip,
// xsel or wl-copy on PATH.
type System struct{}

// NewSystem returns the system clipboard.
func NewSystem() *System {
	return &System{}
}

// Available reports whether a clipboard utility was found.
func (s *System) Available() bool {
	return !clipboard.Unsupported
}

// WriteText copies text. Failures are returned as *model.ClipboardWriteError.
func (s *System) WriteText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return &model.ClipboardWriteError{Err: err}
	}
	return nil
}
