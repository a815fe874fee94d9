package dispatch

import (
	"fmt"
	"reflect"
	"strconv"
)

// ControllerOption configures a controller built with Controller. Class
// decorators (Route.Root, Use, UseNamed, Authorize.*) and Action are options.
type ControllerOption interface {
	applyController(b *controllerBuilder)
}

// ActionOption configures an action built with Action. Method decorators
// (Route.*, Use, UseNamed, Authorize.*) and Param are options.
type ActionOption interface {
	applyAction(b *actionBuilder)
}

type controllerBuilder struct {
	desc    *ClassDescriptor
	actions []actionSpec
}

type actionBuilder struct {
	desc   *MethodDescriptor
	params []paramSpec
}

type actionSpec struct {
	name    string
	options []ActionOption
}

type paramSpec struct {
	name       string
	decorators []ParameterDecorator
}

func (d RootDecorator) applyController(b *controllerBuilder) {
	b.desc.Decorators = append(b.desc.Decorators, d)
}

func (d MiddlewareDecorator) applyController(b *controllerBuilder) {
	b.desc.Decorators = append(b.desc.Decorators, d)
}

func (d AuthorizePublic) applyController(b *controllerBuilder) {
	b.desc.Decorators = append(b.desc.Decorators, d)
}

func (d AuthorizeRole) applyController(b *controllerBuilder) {
	b.desc.Decorators = append(b.desc.Decorators, d)
}

func (s actionSpec) applyController(b *controllerBuilder) {
	b.actions = append(b.actions, s)
}

func (d RouteDecorator) applyAction(b *actionBuilder) {
	b.desc.Decorators = append(b.desc.Decorators, d)
}

func (d IgnoreDecorator) applyAction(b *actionBuilder) {
	b.desc.Decorators = append(b.desc.Decorators, d)
}

func (d MiddlewareDecorator) applyAction(b *actionBuilder) {
	b.desc.Decorators = append(b.desc.Decorators, d)
}

func (d AuthorizePublic) applyAction(b *actionBuilder) {
	b.desc.Decorators = append(b.desc.Decorators, d)
}

func (d AuthorizeRole) applyAction(b *actionBuilder) {
	b.desc.Decorators = append(b.desc.Decorators, d)
}

func (s paramSpec) applyAction(b *actionBuilder) {
	b.params = append(b.params, s)
}

// Action attaches metadata to the exported method called name.
func Action(name string, options ...ActionOption) ControllerOption {
	return actionSpec{name: name, options: options}
}

// Param names the next non-ambient parameter of an action and attaches
// decorators to it. Parameters of type context.Context, *Context,
// *http.Request and http.ResponseWriter are injected and skipped; the
// remaining unnamed parameters are called argN.
func Param(name string, decorators ...ParameterDecorator) ActionOption {
	return paramSpec{name: name, decorators: decorators}
}

// Controller builds a descriptor from v's type and options. Actions named by
// Action come first, in option order, followed by the remaining exported
// methods sorted by name. Build errors are reported by Application.Initialize.
func Controller(v any, options ...ControllerOption) *ClassDescriptor {
	t := reflect.TypeOf(v)
	if t == nil {
		return &ClassDescriptor{err: fmt.Errorf("controller must not be nil")}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	desc := &ClassDescriptor{Name: t.Name(), Type: t}
	if t.Kind() != reflect.Struct {
		desc.err = fmt.Errorf("controller %s must be a struct type", t)
		return desc
	}

	b := &controllerBuilder{desc: desc}
	for _, opt := range options {
		if opt != nil {
			opt.applyController(b)
		}
	}

	methods, err := describeMethods(t, b.actions)
	if err != nil {
		desc.err = err
		return desc
	}
	desc.Methods = methods
	return desc
}

func describeMethods(t reflect.Type, actions []actionSpec) ([]*MethodDescriptor, error) {
	ptr := reflect.PointerTo(t)
	seen := make(map[string]bool)
	var result []*MethodDescriptor

	for _, spec := range actions {
		m, ok := ptr.MethodByName(spec.name)
		if !ok {
			return nil, fmt.Errorf("controller %s has no exported method %s", t.Name(), spec.name)
		}
		if seen[spec.name] {
			return nil, fmt.Errorf("action %s.%s configured more than once", t.Name(), spec.name)
		}
		seen[spec.name] = true

		desc, err := describeMethod(m, spec.options)
		if err != nil {
			return nil, fmt.Errorf("action %s.%s: %w", t.Name(), spec.name, err)
		}
		result = append(result, desc)
	}

	for i := 0; i < ptr.NumMethod(); i++ {
		m := ptr.Method(i)
		if seen[m.Name] {
			continue
		}
		desc, err := describeMethod(m, nil)
		if err != nil {
			return nil, fmt.Errorf("action %s.%s: %w", t.Name(), m.Name, err)
		}
		result = append(result, desc)
	}
	return result, nil
}

func describeMethod(m reflect.Method, options []ActionOption) (*MethodDescriptor, error) {
	desc := &MethodDescriptor{Name: m.Name, Variadic: m.Type.IsVariadic()}
	b := &actionBuilder{desc: desc}
	for _, opt := range options {
		if opt != nil {
			opt.applyAction(b)
		}
	}

	if !isIgnored(desc) {
		if err := checkResults(m.Type); err != nil {
			return nil, err
		}
	}

	next := 0
	// In(0) is the receiver
	for i := 1; i < m.Type.NumIn(); i++ {
		pt := m.Type.In(i)
		p := &ParameterDescriptor{Index: i - 1, Type: pt, TypeName: pt.String()}
		switch {
		case isAmbientType(pt):
			p.Name = ambientName(pt)
		case next < len(b.params):
			p.Name = b.params[next].name
			p.Decorators = flattenParameterDecorators(b.params[next].decorators)
			next++
		default:
			p.Name = "arg" + strconv.Itoa(i-1)
		}
		desc.Parameters = append(desc.Parameters, p)
	}
	if next < len(b.params) {
		return nil, fmt.Errorf("%d parameter option(s) given but only %d bindable parameter(s) declared", len(b.params), next)
	}
	return desc, nil
}

// checkResults accepts func(...), func(...) T, func(...) error and
// func(...) (T, error).
func checkResults(ft reflect.Type) error {
	switch ft.NumOut() {
	case 0, 1:
		return nil
	case 2:
		if ft.Out(1) != errorType {
			return fmt.Errorf("second result must be error, got %s", ft.Out(1))
		}
		return nil
	default:
		return fmt.Errorf("actions return at most a value and an error, got %d results", ft.NumOut())
	}
}

func isIgnored(m *MethodDescriptor) bool {
	for _, d := range m.Decorators {
		if _, ok := d.(IgnoreDecorator); ok {
			return true
		}
	}
	return false
}
