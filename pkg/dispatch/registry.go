package dispatch

import (
	"fmt"
	"reflect"

	"github.com/toyz/dispatch/internal/registry"
)

// MiddlewareRegistry holds middleware referenced by name from
// MiddlewareDecorator.Names and //dispatch:middleware annotations.
type MiddlewareRegistry struct {
	items *registry.Registry[Middleware]
}

// NewMiddlewareRegistry creates an empty middleware registry.
func NewMiddlewareRegistry() *MiddlewareRegistry {
	return &MiddlewareRegistry{items: registry.New[Middleware]("middleware")}
}

// Register adds middleware under name.
func (r *MiddlewareRegistry) Register(name string, mw Middleware) error {
	if mw == nil {
		return fmt.Errorf("middleware '%s' cannot be nil", name)
	}
	return r.items.Register(name, mw)
}

// Get retrieves middleware by name.
func (r *MiddlewareRegistry) Get(name string) (Middleware, bool) {
	if r == nil {
		return nil, false
	}
	return r.items.Get(name)
}

// Validate checks that every name is registered.
func (r *MiddlewareRegistry) Validate(names []string) error {
	if r == nil {
		r = NewMiddlewareRegistry()
	}
	return r.items.Validate(names)
}

// Names returns the registered names in sorted order.
func (r *MiddlewareRegistry) Names() []string {
	if r == nil {
		return nil
	}
	return r.items.Names()
}

// BinderRegistry holds custom binders referenced by Bind.Named and
// "//dispatch:bind <param> custom <name>".
type BinderRegistry struct {
	items *registry.Registry[CustomBinder]
}

// NewBinderRegistry creates an empty binder registry.
func NewBinderRegistry() *BinderRegistry {
	return &BinderRegistry{items: registry.New[CustomBinder]("binder")}
}

// Register adds a binder under name.
func (r *BinderRegistry) Register(name string, binder CustomBinder) error {
	if binder == nil {
		return fmt.Errorf("binder '%s' cannot be nil", name)
	}
	return r.items.Register(name, binder)
}

// Get retrieves a binder by name.
func (r *BinderRegistry) Get(name string) (CustomBinder, bool) {
	if r == nil {
		return nil, false
	}
	return r.items.Get(name)
}

// Validate checks that every name is registered.
func (r *BinderRegistry) Validate(names []string) error {
	if r == nil {
		r = NewBinderRegistry()
	}
	return r.items.Validate(names)
}

// TypeRegistry links controller names found in source files to their
// runtime types.
type TypeRegistry struct {
	items *registry.Registry[reflect.Type]
}

// NewTypeRegistry creates a registry holding the types of values.
func NewTypeRegistry(values ...any) (*TypeRegistry, error) {
	r := &TypeRegistry{items: registry.New[reflect.Type]("type")}
	if err := r.Register(values...); err != nil {
		return nil, err
	}
	return r, nil
}

// MustTypeRegistry is like NewTypeRegistry but panics on error.
func MustTypeRegistry(values ...any) *TypeRegistry {
	r, err := NewTypeRegistry(values...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds the struct type of each value (or what it points to) under
// its type name.
func (r *TypeRegistry) Register(values ...any) error {
	for _, v := range values {
		t := reflect.TypeOf(v)
		if t == nil {
			return fmt.Errorf("cannot register a nil value")
		}
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return fmt.Errorf("type %s is not a struct", t)
		}
		if err := r.items.Register(t.Name(), t); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the type registered under name.
func (r *TypeRegistry) Lookup(name string) (reflect.Type, bool) {
	if r == nil {
		return nil, false
	}
	return r.items.Get(name)
}

// Names returns the registered type names in sorted order.
func (r *TypeRegistry) Names() []string {
	if r == nil {
		return nil
	}
	return r.items.Names()
}
