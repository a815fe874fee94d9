// Package annotations parses "//dispatch:" comment annotations attached to
// controller types and their methods.
package annotations

import (
	"fmt"

	derrors "github.com/toyz/dispatch/internal/errors"
)

// Prefix starts every annotation comment.
const Prefix = "//dispatch:"

// AnnotationType represents the type of annotation
type AnnotationType int

const (
	RootAnnotation AnnotationType = iota
	RouteAnnotation
	IgnoreAnnotation
	MiddlewareAnnotation
	BindAnnotation
	ValidateAnnotation
	AuthorizeAnnotation
)

// String returns the string representation of the annotation type
func (a AnnotationType) String() string {
	switch a {
	case RootAnnotation:
		return "root"
	case RouteAnnotation:
		return "route"
	case IgnoreAnnotation:
		return "ignore"
	case MiddlewareAnnotation:
		return "middleware"
	case BindAnnotation:
		return "bind"
	case ValidateAnnotation:
		return "validate"
	case AuthorizeAnnotation:
		return "authorize"
	default:
		return "unknown"
	}
}

// ParseAnnotationType converts string to AnnotationType
func ParseAnnotationType(s string) (AnnotationType, error) {
	switch s {
	case "root":
		return RootAnnotation, nil
	case "route":
		return RouteAnnotation, nil
	case "ignore":
		return IgnoreAnnotation, nil
	case "middleware":
		return MiddlewareAnnotation, nil
	case "bind":
		return BindAnnotation, nil
	case "validate":
		return ValidateAnnotation, nil
	case "authorize":
		return AuthorizeAnnotation, nil
	default:
		return 0, fmt.Errorf("unknown annotation type: %s", s)
	}
}

// Target is the declaration an annotation is attached to.
type Target int

const (
	TypeTarget Target = 1 << iota
	MethodTarget
)

func (t Target) String() string {
	switch t {
	case TypeTarget:
		return "type"
	case MethodTarget:
		return "method"
	default:
		return "type or method"
	}
}

// SourceLocation is shared with the error taxonomy.
type SourceLocation = derrors.SourceLocation

// ParsedAnnotation is a validated annotation with its positional and named arguments.
type ParsedAnnotation struct {
	Type     AnnotationType
	Args     []string
	Named    map[string]string
	Location SourceLocation
	Raw      string
}

// Arg returns the positional argument at i, or "" when absent.
func (a *ParsedAnnotation) Arg(i int) string {
	if i < len(a.Args) {
		return a.Args[i]
	}
	return ""
}

// HasArg reports whether a positional argument exists at i, even if empty.
func (a *ParsedAnnotation) HasArg(i int) bool {
	return i < len(a.Args)
}

// Param returns a named argument.
func (a *ParsedAnnotation) Param(key string) (string, bool) {
	v, ok := a.Named[key]
	return v, ok
}
