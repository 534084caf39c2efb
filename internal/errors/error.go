package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/vango-dev/navstate/pkg/deeplink"
	"github.com/vango-dev/navstate/pkg/navtree"
	"github.com/vango-dev/navstate/pkg/snapstore"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryTree     Category = "tree"
	CategoryDeepLink Category = "deeplink"
	CategoryStore    Category = "store"
	CategoryCLI      Category = "cli"
)

// Location is a position in a config file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as file:line[:column].
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// NavError is a coded error with a fix suggestion.
type NavError struct {
	// Code is a unique error identifier (e.g., "N101").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation.
	Detail string

	// Location points into the config file that caused the error.
	Location *Location

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *NavError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *NavError) Unwrap() error {
	return e.Wrapped
}

// WithLocation sets the config file position.
func (e *NavError) WithLocation(file string, line, column int) *NavError {
	e.Location = &Location{File: file, Line: line, Column: column}
	return e
}

// WithSuggestion adds a fix suggestion.
func (e *NavError) WithSuggestion(s string) *NavError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation.
func (e *NavError) WithDetail(d string) *NavError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *NavError) Wrap(err error) *NavError {
	e.Wrapped = err
	return e
}

// New creates a NavError from a registered code.
func New(code string) *NavError {
	template, ok := registry[code]
	if !ok {
		return &NavError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &NavError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a NavError with a formatted message and no code.
func Newf(category Category, format string, args ...any) *NavError {
	return &NavError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Classify wraps err in the NavError matching the engine sentinel it
// carries. NavErrors are returned unchanged and unknown errors get code
// fallback.
func Classify(err error, fallback string) *NavError {
	if err == nil {
		return nil
	}
	var ne *NavError
	if stderrors.As(err, &ne) {
		return ne
	}

	code := fallback
	switch {
	case stderrors.Is(err, navtree.ErrInvalidSnapshot):
		code = "N103"
	case stderrors.Is(err, navtree.ErrNotFound):
		code = "N101"
	case stderrors.Is(err, navtree.ErrStructural):
		code = "N102"
	case stderrors.Is(err, deeplink.ErrUnbalancedBraces),
		stderrors.Is(err, deeplink.ErrEmptyParam),
		stderrors.Is(err, deeplink.ErrDuplicateParam),
		stderrors.Is(err, deeplink.ErrDuplicatePattern):
		code = "N202"
	case stderrors.Is(err, snapstore.ErrClosed):
		code = "N401"
	}
	return New(code).Wrap(err)
}

// FromTOML converts a TOML decode error into N002 with its position.
func FromTOML(file string, err error) *NavError {
	ne := New("N002").Wrap(err)
	var perr toml.ParseError
	if stderrors.As(err, &perr) {
		ne.WithLocation(file, perr.Position.Line, 0)
		ne.Detail = perr.Message
	}
	return ne
}
