package godocx

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Error names used by the engine.
const (
	NameTemplate    = "TemplateError"
	NameRendering   = "RenderingError"
	NameScopeParser = "ScopeParserError"
	NameMulti       = "Multi error"
)

// Error is the structured error returned by New and Render. A construction or
// render pass collects every problem it finds and returns them together as a
// "Multi error" whose Errors hold the individual failures; an individual
// failure may carry the underlying cause in RootError.
type Error struct {
	Name        string
	Message     string
	ID          string
	Explanation string
	// Tag is the raw placeholder text the error refers to, if any.
	Tag string
	// File is the archive part being processed, e.g. "word/document.xml".
	File string
	// Offset is the byte offset of Tag in the concatenated text of File.
	Offset int

	RootError error
	Errors    []error

	stack []uintptr
}

func newError(name, id, message string) *Error {
	return &Error{
		Name:    name,
		ID:      id,
		Message: message,
		Offset:  -1,
		stack:   callers(),
	}
}

func multiError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	e := newError(NameMulti, "multi_error", "Multi error")
	e.Explanation = fmt.Sprintf("%d errors occurred", len(errs))
	e.Errors = errs
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Tag != "" {
		fmt.Fprintf(&b, " (tag %q", e.Tag)
		if e.File != "" {
			fmt.Fprintf(&b, " in %s", e.File)
		}
		b.WriteString(")")
	}
	if e.RootError != nil {
		fmt.Fprintf(&b, ": %v", e.RootError)
	}
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "\n  [%d] %v", i+1, err)
	}
	return b.String()
}

// Unwrap exposes RootError and Errors to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	var out []error
	if e.RootError != nil {
		out = append(out, e.RootError)
	}
	return append(out, e.Errors...)
}

// StackTrace returns the stack captured when the error was created.
func (e *Error) StackTrace() errors.StackTrace {
	st := make(errors.StackTrace, len(e.stack))
	for i, pc := range e.stack {
		st[i] = errors.Frame(pc)
	}
	return st
}

func callers() []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}
