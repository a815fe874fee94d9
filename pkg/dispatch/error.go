package dispatch

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusCoder is implemented by errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// HttpStatusError is an error with an HTTP status and message.
type HttpStatusError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *HttpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// StatusCode returns the HTTP status.
func (e *HttpStatusError) StatusCode() int {
	return e.Status
}

// NewHttpStatusError creates an error with the given status and message.
func NewHttpStatusError(status int, message string) *HttpStatusError {
	return &HttpStatusError{Status: status, Message: message}
}

// ErrBadRequest creates a 400 Bad Request error
func ErrBadRequest(message string) *HttpStatusError {
	return NewHttpStatusError(http.StatusBadRequest, message)
}

// ErrUnauthorized creates a 401 Unauthorized error
func ErrUnauthorized(message string) *HttpStatusError {
	return NewHttpStatusError(http.StatusUnauthorized, message)
}

// ErrForbidden creates a 403 Forbidden error
func ErrForbidden(message string) *HttpStatusError {
	return NewHttpStatusError(http.StatusForbidden, message)
}

// ErrNotFound creates a 404 Not Found error
func ErrNotFound(message string) *HttpStatusError {
	return NewHttpStatusError(http.StatusNotFound, message)
}

// ErrConflict creates a 409 Conflict error
func ErrConflict(message string) *HttpStatusError {
	return NewHttpStatusError(http.StatusConflict, message)
}

// ErrUnprocessableEntity creates a 422 Unprocessable Entity error
func ErrUnprocessableEntity(message string) *HttpStatusError {
	return NewHttpStatusError(http.StatusUnprocessableEntity, message)
}

// ErrInternalServerError creates a 500 Internal Server Error
func ErrInternalServerError(message string) *HttpStatusError {
	return NewHttpStatusError(http.StatusInternalServerError, message)
}

// ValidationIssue locates a conversion or validation failure. Path starts
// with the parameter name followed by the fields traversed to the value.
type ValidationIssue struct {
	Path     []string `json:"path"`
	Messages []string `json:"messages"`
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s in parameter %s", strings.Join(i.Messages, ", "), strings.Join(i.Path, "->"))
}

// ConversionError aggregates every conversion failure of one request.
type ConversionError struct {
	Issues []ValidationIssue
}

// Error renders one line per issue:
// Unable to convert "<raw>" into <Type> in parameter a->b
func (e *ConversionError) Error() string {
	lines := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		lines[i] = issue.String()
	}
	return strings.Join(lines, "\n")
}

// StatusCode returns 400.
func (e *ConversionError) StatusCode() int {
	return http.StatusBadRequest
}

// ValidationError aggregates every validator failure of one request.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		lines[i] = issue.String()
	}
	return strings.Join(lines, "\n")
}

// StatusCode returns 422.
func (e *ValidationError) StatusCode() int {
	return http.StatusUnprocessableEntity
}

// ErrorHandler writes the response for an error raised while dispatching.
type ErrorHandler func(c *Context, err error)

// DefaultErrorHandler writes conversion errors as text (400), validation
// errors as a JSON issue list (422), HttpStatusError messages as text with
// their status, other StatusCoder errors with their status text, and
// anything else as 500.
func DefaultErrorHandler(c *Context, err error) {
	var (
		conversion *ConversionError
		validation *ValidationError
		status     *HttpStatusError
		coder      StatusCoder
		result     *ActionResult
	)
	switch {
	case errors.As(err, &conversion):
		result = NewResult(conversion.Error()).SetStatus(conversion.StatusCode())
	case errors.As(err, &validation):
		result = NewResult(validation.Issues).SetStatus(validation.StatusCode())
	case errors.As(err, &status):
		result = NewResult(status.Message).SetStatus(status.Status)
	case errors.As(err, &coder):
		result = NewResult(http.StatusText(coder.StatusCode())).SetStatus(coder.StatusCode())
	default:
		result = NewResult(http.StatusText(http.StatusInternalServerError)).SetStatus(http.StatusInternalServerError)
	}
	_ = result.Execute(c)
}
