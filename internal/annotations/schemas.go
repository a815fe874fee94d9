package annotations

import (
	"fmt"
	"strings"
)

// AnnotationSchema describes where an annotation may appear and which
// arguments it accepts.
type AnnotationSchema struct {
	Type        AnnotationType
	Targets     Target
	MinArgs     int
	MaxArgs     int // -1 for unbounded
	Keys        []string
	Description string
	Examples    []string
	Validator   func(*ParsedAnnotation) error
}

var httpVerbs = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "TRACE", "OPTIONS"}

// BindSources lists the values accepted as the second argument of //dispatch:bind.
var BindSources = []string{"ctx", "request", "body", "header", "query", "user", "file", "custom"}

var schemas = map[AnnotationType]AnnotationSchema{
	RootAnnotation: {
		Type:        RootAnnotation,
		Targets:     TypeTarget,
		MinArgs:     1,
		MaxArgs:     1,
		Description: "Overrides the controller URL prefix",
		Examples:    []string{"//dispatch:root /beast"},
	},
	RouteAnnotation: {
		Type:        RouteAnnotation,
		Targets:     MethodTarget,
		MinArgs:     1,
		MaxArgs:     2,
		Description: "Exposes a method as an HTTP action",
		Examples: []string{
			"//dispatch:route get",
			"//dispatch:route post /animal",
			`//dispatch:route get ""`,
			"//dispatch:route put :id",
		},
		Validator: func(a *ParsedAnnotation) error {
			verb := strings.ToUpper(a.Arg(0))
			for _, v := range httpVerbs {
				if v == verb {
					return nil
				}
			}
			return fmt.Errorf("unknown HTTP verb '%s', must be one of: %s", a.Arg(0), strings.Join(httpVerbs, ", "))
		},
	},
	IgnoreAnnotation: {
		Type:        IgnoreAnnotation,
		Targets:     MethodTarget,
		Description: "Excludes a method from the route table",
		Examples:    []string{"//dispatch:ignore"},
	},
	MiddlewareAnnotation: {
		Type:        MiddlewareAnnotation,
		Targets:     TypeTarget | MethodTarget,
		MinArgs:     1,
		MaxArgs:     -1,
		Description: "Applies named middleware registered on the application",
		Examples:    []string{"//dispatch:middleware Auth Audit"},
	},
	BindAnnotation: {
		Type:        BindAnnotation,
		Targets:     MethodTarget,
		MinArgs:     2,
		MaxArgs:     3,
		Description: "Binds a parameter from a specific request source",
		Examples: []string{
			"//dispatch:bind data body",
			"//dispatch:bind token header authorization",
			"//dispatch:bind ua request headers.user-agent",
			"//dispatch:bind tenant custom Tenant",
		},
		Validator: func(a *ParsedAnnotation) error {
			source := a.Arg(1)
			valid := false
			for _, s := range BindSources {
				if s == source {
					valid = true
					break
				}
			}
			if !valid {
				return fmt.Errorf("unknown bind source '%s', must be one of: %s", source, strings.Join(BindSources, ", "))
			}
			if source == "custom" && a.Arg(2) == "" {
				return fmt.Errorf("bind source 'custom' requires a registered binder name")
			}
			if source == "user" && a.HasArg(2) {
				return fmt.Errorf("bind source 'user' takes no path")
			}
			return nil
		},
	},
	ValidateAnnotation: {
		Type:        ValidateAnnotation,
		Targets:     MethodTarget,
		MinArgs:     2,
		MaxArgs:     2,
		Description: "Runs a keyed validator against a bound parameter",
		Examples:    []string{"//dispatch:validate email email", "//dispatch:validate age gte=18"},
	},
	AuthorizeAnnotation: {
		Type:        AuthorizeAnnotation,
		Targets:     TypeTarget | MethodTarget,
		MinArgs:     1,
		MaxArgs:     -1,
		Keys:        []string{"param"},
		Description: "Attaches authorization metadata",
		Examples: []string{
			"//dispatch:authorize public",
			"//dispatch:authorize role admin superadmin",
			"//dispatch:authorize role admin param=salary",
		},
		Validator: func(a *ParsedAnnotation) error {
			switch a.Arg(0) {
			case "public":
				if len(a.Args) > 1 || len(a.Named) > 0 {
					return fmt.Errorf("'authorize public' takes no further arguments")
				}
			case "role":
				if len(a.Args) < 2 {
					return fmt.Errorf("'authorize role' requires at least one role")
				}
			default:
				return fmt.Errorf("unknown authorize kind '%s', must be 'public' or 'role'", a.Arg(0))
			}
			return nil
		},
	},
}

// SchemaFor returns the schema of an annotation type.
func SchemaFor(t AnnotationType) (AnnotationSchema, bool) {
	s, ok := schemas[t]
	return s, ok
}

// Validate checks an annotation against its schema for the given target.
func Validate(a *ParsedAnnotation, target Target) error {
	schema, ok := schemas[a.Type]
	if !ok {
		return fmt.Errorf("no schema for annotation '%s'", a.Type)
	}

	if schema.Targets&target == 0 {
		return fmt.Errorf("'%s' cannot be used on a %s, only on a %s", a.Type, target, schema.Targets)
	}
	if len(a.Args) < schema.MinArgs {
		return fmt.Errorf("'%s' expects at least %d argument(s), got %d", a.Type, schema.MinArgs, len(a.Args))
	}
	if schema.MaxArgs >= 0 && len(a.Args) > schema.MaxArgs {
		return fmt.Errorf("'%s' expects at most %d argument(s), got %d", a.Type, schema.MaxArgs, len(a.Args))
	}
	for key := range a.Named {
		allowed := false
		for _, k := range schema.Keys {
			if k == key {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("'%s' does not accept parameter '%s'", a.Type, key)
		}
	}
	if schema.Validator != nil {
		return schema.Validator(a)
	}
	return nil
}
