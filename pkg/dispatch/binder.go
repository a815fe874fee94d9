package dispatch

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/toyz/dispatch/internal/valuepath"
)

// bindParameters produces the action arguments for c. Each parameter is
// bound by the first strategy that applies: ambient types, a binding
// decorator, model binding from the body, then the query value named after
// the parameter. Conversion issues of every parameter are collected into one
// *ConversionError; validators run only when conversion succeeded and their
// issues are collected into one *ValidationError.
func bindParameters(c *Context) ([]any, error) {
	action := c.Route.Action
	cv := newConverter(c.Config.Converters)
	values := make([]any, len(action.Parameters))
	ambient := make([]bool, len(action.Parameters))

	for i, p := range action.Parameters {
		if v, ok := c.ambientValue(p.Type); ok {
			values[i], ambient[i] = v, true
			continue
		}

		raw, err := c.rawParameter(p)
		if err != nil {
			return nil, err
		}
		v, ok := cv.convert(raw, p.Type, []string{p.Name})
		if ok && v.IsValid() {
			values[i] = v.Interface()
		}
	}
	if len(cv.issues) > 0 {
		return nil, &ConversionError{Issues: cv.issues}
	}

	var issues []ValidationIssue
	for i, p := range action.Parameters {
		if ambient[i] {
			continue
		}
		issues = append(issues, validateParameter(c, p, values[i])...)
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return values, nil
}

// ambientValue returns the request-scoped value injected for t, if any.
func (c *Context) ambientValue(t reflect.Type) (any, bool) {
	switch t {
	case contextType:
		return c.Context(), true
	case dispatchContextType:
		return c, true
	case requestType:
		return c.Request, true
	case responseWriterType:
		return c.Response, true
	}
	return nil, false
}

// rawParameter returns the unconverted value for p.
func (c *Context) rawParameter(p *ParameterDescriptor) (any, error) {
	log := c.logger()
	if binding, ok := p.Binding(); ok {
		log.Debug("decorator binder",
			zap.String("action", c.Route.ActionName()),
			zap.String("parameter", p.Name),
			zap.Stringer("kind", binding.Kind),
			zap.String("part", binding.Part))
		return c.bindDecorator(p, binding)
	}

	if bindsFromBody(p.Type) {
		log.Debug("model binder",
			zap.String("action", c.Route.ActionName()),
			zap.String("parameter", p.Name),
			zap.Stringer("type", p.Type))
		return c.Body()
	}

	value, _ := queryValue(c.Query, p.Name)
	log.Debug("regular binder",
		zap.String("action", c.Route.ActionName()),
		zap.String("parameter", p.Name),
		zap.Any("value", value))
	return value, nil
}

func (c *Context) bindDecorator(p *ParameterDescriptor, binding BindingDecorator) (any, error) {
	switch binding.Kind {
	case BindContext:
		if reflect.TypeOf(c).AssignableTo(p.Type) {
			return c, nil
		}
		return c.contextTree(), nil
	case BindRequest:
		if requestType.AssignableTo(p.Type) {
			return c.Request, nil
		}
		return c.requestTree(), nil
	case BindContextPath:
		if readsBody(binding.Part, "request.body") {
			if _, err := c.Body(); err != nil {
				return nil, err
			}
		}
		return lookupPath(c.contextTree(), binding.Part)
	case BindRequestPath:
		if readsBody(binding.Part, "body") {
			if _, err := c.Body(); err != nil {
				return nil, err
			}
		}
		return lookupPath(c.requestTree(), binding.Part)
	case BindCustom:
		process := binding.Process
		if process == nil {
			var ok bool
			process, ok = c.Config.Binders.Get(binding.Part)
			if !ok {
				return nil, fmt.Errorf("binder %q is not registered", binding.Part)
			}
		}
		return process(c)
	case BindFile:
		if c.Config.FileParser == nil {
			return nil, fmt.Errorf("parameter %s binds a file but no FileParser is configured", p.Name)
		}
		return c.Config.FileParser(c), nil
	}
	return nil, fmt.Errorf("unknown binding kind %s", binding.Kind)
}

func readsBody(part, prefix string) bool {
	return part == prefix || strings.HasPrefix(part, prefix+".") || strings.HasPrefix(part, prefix+"[")
}

func lookupPath(tree map[string]any, part string) (any, error) {
	v, found, err := valuepath.Lookup(tree, part)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return v, nil
}

// queryValue looks name up in the lower-cased query, exactly first and then
// ignoring case. A single value is returned as a string, repeated keys as a
// string slice.
func queryValue(query map[string][]string, name string) (any, bool) {
	values, ok := query[strings.ToLower(name)]
	if !ok {
		for k, v := range query {
			if strings.EqualFold(k, name) {
				values, ok = v, true
				break
			}
		}
	}
	switch {
	case !ok || len(values) == 0:
		return nil, false
	case len(values) == 1:
		return values[0], true
	default:
		return values, true
	}
}

// bindsFromBody reports whether a parameter of type t is bound from the
// request body: structs, maps and slices of structs.
func bindsFromBody(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct:
		return isModelType(t)
	case reflect.Map:
		return true
	case reflect.Slice, reflect.Array:
		elem := t.Elem()
		for elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		return isModelType(elem) || elem.Kind() == reflect.Map
	}
	return false
}

func (c *Context) logger() *zap.Logger {
	if c.Config == nil || c.Config.Logger == nil {
		return zap.NewNop()
	}
	return c.Config.Logger
}
