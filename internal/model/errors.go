package model

import (
	"errors"
	"fmt"
)

// ErrPlatformInjection is the sentinel matched by every PlatformInjectionError.
// Callers that only need the category can use errors.Is.
var ErrPlatformInjection = errors.New("error scanning page")

// PlatformInjectionError is returned when the scanner cannot run against the
// target document at all: the page could not be loaded, the browser refused
// to evaluate the scan script, or the content is not HTML.
// Individual checks never fail; this error is terminal for the whole scan.
type PlatformInjectionError struct {
	// Target is the URL or path that was being scanned.
	Target string

	// Err is the underlying cause.
	Err error
}

// NewPlatformInjectionError wraps err for target.
func NewPlatformInjectionError(target string, err error) *PlatformInjectionError {
	return &PlatformInjectionError{Target: target, Err: err}
}

// Error implements error.
func (e *PlatformInjectionError) Error() string {
	msg := ErrPlatformInjection.Error()
	if e.Target != "" {
		msg += ": " + e.Target
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *PlatformInjectionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPlatformInjection) succeed.
func (e *PlatformInjectionError) Is(target error) bool {
	return target == ErrPlatformInjection
}

// SelectorResolutionError is returned when a synthesized selector cannot be
// parsed or evaluated at highlight time, typically because the page changed
// between scan and highlight. The highlighter skips the selector and keeps
// going; the error is only logged.
type SelectorResolutionError struct {
	// Selector is the selector that failed.
	Selector string

	// Err is the underlying parse or evaluation error.
	Err error
}

// Error implements error.
func (e *SelectorResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve selector %q: %v", e.Selector, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SelectorResolutionError) Unwrap() error {
	return e.Err
}

// ClipboardWriteError is returned when the generated prompt could not be
// written to the system clipboard. It is surfaced to the user so the UI never
// claims "copied" after a failed write.
type ClipboardWriteError struct {
	Err error
}

// Error implements error.
func (e *ClipboardWriteError) Error() string {
	return fmt.Sprintf("failed to copy prompt to clipboard: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *ClipboardWriteError) Unwrap() error {
	return e.Err
}
