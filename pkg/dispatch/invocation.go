package dispatch

import (
	"fmt"
	"net/http"
	"reflect"

	derrors "github.com/toyz/dispatch/internal/errors"
)

// actionInvocation is the innermost link: it resolves the controller, calls
// the action with the bound parameters and normalizes its result.
type actionInvocation struct {
	context *Context
}

func (a *actionInvocation) Context() *Context {
	return a.context
}

func (a *actionInvocation) Proceed() (*ActionResult, error) {
	c := a.context
	route := c.Route

	instance, err := c.Config.DependencyResolver.Resolve(route.Controller.Type)
	if err != nil {
		return nil, derrors.WrapDependencyError(route.Controller.Name, err)
	}
	method := reflect.ValueOf(instance).MethodByName(route.Action.Name)
	if !method.IsValid() {
		return nil, fmt.Errorf("controller %s resolved to %T which has no method %s", route.Controller.Name, instance, route.Action.Name)
	}

	args := make([]reflect.Value, len(route.Action.Parameters))
	for i, p := range route.Action.Parameters {
		var value any
		if i < len(c.Parameters) {
			value = c.Parameters[i]
		}
		if value == nil {
			args[i] = reflect.Zero(p.Type)
		} else {
			args[i] = reflect.ValueOf(value)
		}
	}

	var out []reflect.Value
	if route.Action.Variadic {
		out = method.CallSlice(args)
	} else {
		out = method.Call(args)
	}

	value, err := splitResults(out)
	if err != nil {
		return nil, err
	}

	status := c.Config.statusFor(route.Method)
	switch v := value.(type) {
	case *ActionResult:
		if v == nil {
			return NewResult(nil).SetStatus(status), nil
		}
		if v.Status == 0 {
			v.Status = status
		}
		return v, nil
	case ActionResult:
		if v.Status == 0 {
			v.Status = status
		}
		return &v, nil
	default:
		return NewResult(value).SetStatus(status), nil
	}
}

// splitResults separates the action's value from its trailing error.
func splitResults(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}

	last := out[len(out)-1]
	var err error
	if last.Type() == errorType {
		if !last.IsNil() {
			err = last.Interface().(error)
		}
		out = out[:len(out)-1]
	}
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	v := out[0]
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return nil, nil
		}
	}
	return v.Interface(), nil
}

// statusFor returns the configured status for a verb, defaulting to 200.
func (c *Config) statusFor(method HttpMethod) int {
	if status, ok := c.ResponseStatus[method]; ok && status > 0 {
		return status
	}
	return http.StatusOK
}
