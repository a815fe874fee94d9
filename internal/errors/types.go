// Package errors defines the startup error taxonomy: discovery, annotation
// syntax, registration and configuration failures raised while building a
// router. Request-time errors live in the dispatch package.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// DispatchError is implemented by every startup error.
type DispatchError interface {
	error
	ErrorCode() ErrorCode
	Location() SourceLocation
	Context() map[string]any
	Suggestions() []string
}

// ErrorCode classifies a startup error.
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota
	SyntaxErrorCode
	RegistrationErrorCode
	FileSystemErrorCode
	DiscoveryErrorCode
	ConfigurationErrorCode
	DependencyErrorCode
)

var codeNames = [...]string{
	UnknownErrorCode:       "UnknownError",
	SyntaxErrorCode:        "SyntaxError",
	RegistrationErrorCode:  "RegistrationError",
	FileSystemErrorCode:    "FileSystemError",
	DiscoveryErrorCode:     "DiscoveryError",
	ConfigurationErrorCode: "ConfigurationError",
	DependencyErrorCode:    "DependencyError",
}

func (e ErrorCode) String() string {
	if e < 0 || int(e) >= len(codeNames) {
		return codeNames[UnknownErrorCode]
	}
	return codeNames[e]
}

// SourceLocation points at a Go source position; Line and Column are 1-based
// and zero when unknown.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

func (s SourceLocation) String() string {
	switch {
	case s.File == "":
		return "unknown location"
	case s.Line == 0:
		return s.File
	case s.Column == 0:
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// BaseError is the DispatchError every constructor in this package returns.
// The With* methods mutate and return the receiver for chaining.
type BaseError struct {
	code    ErrorCode
	message string
	loc     SourceLocation
	cause   error
	context map[string]any
	hints   []string
}

// New creates an error with the given code and message.
func New(code ErrorCode, message string) *BaseError {
	return &BaseError{code: code, message: message}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *BaseError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates an error caused by cause.
func Wrap(code ErrorCode, message string, cause error) *BaseError {
	return &BaseError{code: code, message: message, cause: cause}
}

func (e *BaseError) Error() string {
	var b strings.Builder
	if e.loc.File != "" {
		b.WriteString(e.loc.String())
		b.WriteString(": ")
	}
	b.WriteString(e.message)
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *BaseError) ErrorCode() ErrorCode     { return e.code }
func (e *BaseError) Location() SourceLocation { return e.loc }
func (e *BaseError) Suggestions() []string    { return e.hints }
func (e *BaseError) Unwrap() error            { return e.cause }

// Context returns the key/value details attached with WithContext. It is
// never nil.
func (e *BaseError) Context() map[string]any {
	if e.context == nil {
		return map[string]any{}
	}
	return e.context
}

func (e *BaseError) WithLocation(loc SourceLocation) *BaseError {
	e.loc = loc
	return e
}

func (e *BaseError) WithContext(key string, value any) *BaseError {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

func (e *BaseError) WithSuggestion(suggestion string) *BaseError {
	e.hints = append(e.hints, suggestion)
	return e
}

// MultipleErrors collects startup errors so they are reported together.
type MultipleErrors struct {
	Errors []error
}

func (e *MultipleErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "multiple errors (%d total):", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, err)
	}
	return b.String()
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e *MultipleErrors) Unwrap() []error {
	return e.Errors
}

// Add appends err unless it is nil.
func (e *MultipleErrors) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// ErrorOrNil returns nil when empty, the only error when there is one, and
// the collection otherwise.
func (e *MultipleErrors) ErrorOrNil() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	}
	return e
}

// CodeOf returns the code of the first DispatchError in err's tree.
func CodeOf(err error) ErrorCode {
	var de DispatchError
	if stderrors.As(err, &de) {
		return de.ErrorCode()
	}
	return UnknownErrorCode
}
