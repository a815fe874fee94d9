package dispatch

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/toyz/dispatch/internal/valuepath"
)

// ValidatorInfo describes the parameter being validated.
type ValidatorInfo struct {
	Context   *Context
	Route     *RouteInfo
	Parameter *ParameterDescriptor
}

// ValidatorFunc validates one converted parameter value. A non-nil error
// becomes a validation issue whose message is the error text.
type ValidatorFunc func(value any, info ValidatorInfo) error

// ParameterValidator validates a converted parameter as a whole and returns
// the issues it found. It is the global hook set in Config.Validator.
type ParameterValidator func(value any, info ValidatorInfo) []ValidationIssue

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// structValidator returns the shared go-playground validator. Field names in
// its errors follow json tags so issue paths match request keys.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// DefaultValidator validates model parameters with their `validate` struct
// tags. Other values pass.
func DefaultValidator(value any, info ValidatorInfo) []ValidationIssue {
	if value == nil {
		return nil
	}
	t := reflect.TypeOf(value)
	for t.Kind() == reflect.Pointer {
		if reflect.ValueOf(value).IsNil() {
			return nil
		}
		t = t.Elem()
	}
	if !isModelType(t) {
		return nil
	}

	err := structValidator().Struct(value)
	return fieldIssues(info.Parameter.Name, err, true)
}

// fieldIssues turns go-playground errors into issues rooted at name. When
// nested is set the struct type in each namespace is replaced by name.
func fieldIssues(name string, err error, nested bool) []ValidationIssue {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return nil
		}
		return []ValidationIssue{{Path: []string{name}, Messages: []string{err.Error()}}}
	}

	issues := make([]ValidationIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := []string{name}
		if nested {
			path = append(path, namespacePath(fe.Namespace())...)
		}
		issues = append(issues, ValidationIssue{Path: path, Messages: []string{validationMessage(fe)}})
	}
	return issues
}

// namespacePath splits "User.items[0].name" into [items 0 name], dropping
// the root type.
func namespacePath(namespace string) []string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return nil
	}
	parsed, err := valuepath.Parse(rest)
	if err != nil {
		return strings.Split(rest, ".")
	}
	out := make([]string, len(parsed))
	for i, seg := range parsed {
		if seg.IsIndex {
			out[i] = strconv.Itoa(seg.Index)
		} else {
			out[i] = seg.Name
		}
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_unless", "required_with", "required_without":
		return "Required"
	case "email":
		return "Invalid email address"
	case "url", "uri":
		return "Invalid URL"
	case "uuid", "uuid4":
		return "Invalid UUID"
	case "min", "gte":
		if isLengthKind(fe.Kind()) {
			return fmt.Sprintf("Length must be at least %s", fe.Param())
		}
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "max", "lte":
		if isLengthKind(fe.Kind()) {
			return fmt.Sprintf("Length must be at most %s", fe.Param())
		}
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lt":
		return fmt.Sprintf("Must be less than %s", fe.Param())
	case "len":
		return fmt.Sprintf("Length must be %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.Join(strings.Fields(fe.Param()), ", "))
	}
	if fe.Param() != "" {
		return fmt.Sprintf("Failed %s=%s validation", fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("Failed %s validation", fe.Tag())
}

func isLengthKind(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

// validateParameter runs the parameter's validators followed by the global
// hook. Parameters marked skip are never validated; parameters marked
// optional are skipped when absent.
func validateParameter(c *Context, p *ParameterDescriptor, value any) []ValidationIssue {
	if p.hasValidatorKey(ValidatorSkip) {
		return nil
	}
	if isAbsent(value) && p.hasValidatorKey(ValidatorOptional) {
		return nil
	}

	info := ValidatorInfo{Context: c, Route: c.Route, Parameter: p}
	var issues []ValidationIssue
	for _, d := range p.Decorators {
		v, ok := d.(ValidatorDecorator)
		if !ok || v.Key == ValidatorSkip || v.Key == ValidatorOptional {
			continue
		}
		switch {
		case v.Func != nil:
			if err := v.Func(value, info); err != nil {
				issues = append(issues, ValidationIssue{Path: []string{p.Name}, Messages: []string{err.Error()}})
			}
		case c.Config.Validators[v.Key] != nil:
			if err := c.Config.Validators[v.Key](value, info); err != nil {
				issues = append(issues, ValidationIssue{Path: []string{p.Name}, Messages: []string{err.Error()}})
			}
		default:
			err := structValidator().Var(value, v.Key)
			issues = append(issues, fieldIssues(p.Name, err, false)...)
		}
	}

	if c.Config.Validator != nil {
		issues = append(issues, c.Config.Validator(value, info)...)
	}
	return issues
}

func isAbsent(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
