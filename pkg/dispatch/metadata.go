package dispatch

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ClassDescriptor describes a controller. Root is the directory-derived
// prefix of a discovered controller and is empty for explicit ones.
type ClassDescriptor struct {
	Name       string
	Type       reflect.Type
	Root       string
	File       string
	Decorators []ClassDecorator
	Methods    []*MethodDescriptor

	err error
}

// Err returns the error recorded while the descriptor was built, if any.
func (c *ClassDescriptor) Err() error {
	return c.err
}

// Method returns the action with the given name.
func (c *ClassDescriptor) Method(name string) (*MethodDescriptor, bool) {
	for _, m := range c.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// MethodDescriptor describes one action.
type MethodDescriptor struct {
	Name       string
	Decorators []MethodDecorator
	Parameters []*ParameterDescriptor
	Variadic   bool
}

// Parameter returns the parameter with the given name, compared case-insensitively.
func (m *MethodDescriptor) Parameter(name string) (*ParameterDescriptor, bool) {
	for _, p := range m.Parameters {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return nil, false
}

// ParameterDescriptor describes one action parameter. Type is nil for
// descriptors built from source only; TypeName is always set.
type ParameterDescriptor struct {
	Name       string
	Index      int
	TypeName   string
	Type       reflect.Type
	Decorators []ParameterDecorator
}

// HasTypeInfo reports whether the binder can convert into this parameter.
func (p *ParameterDescriptor) HasTypeInfo() bool {
	if p.Type != nil {
		return p.Type.Kind() != reflect.Interface || isAmbientType(p.Type)
	}
	switch strings.TrimSpace(p.TypeName) {
	case "", "any", "interface{}":
		return false
	}
	return true
}

// Binding returns the first binding decorator of the parameter.
func (p *ParameterDescriptor) Binding() (BindingDecorator, bool) {
	for _, d := range p.Decorators {
		if b, ok := d.(BindingDecorator); ok {
			return b, true
		}
	}
	return BindingDecorator{}, false
}

func (p *ParameterDescriptor) hasValidatorKey(key string) bool {
	for _, d := range p.Decorators {
		if v, ok := d.(ValidatorDecorator); ok && v.Key == key {
			return true
		}
	}
	return false
}

var (
	contextType         = reflect.TypeOf((*context.Context)(nil)).Elem()
	dispatchContextType = reflect.TypeOf((*Context)(nil))
	requestType         = reflect.TypeOf((*http.Request)(nil))
	responseWriterType  = reflect.TypeOf((*http.ResponseWriter)(nil)).Elem()
	errorType           = reflect.TypeOf((*error)(nil)).Elem()
	timeType            = reflect.TypeOf(time.Time{})
	uuidType            = reflect.TypeOf(uuid.UUID{})
)

// isAmbientType reports whether t is injected from the request itself rather
// than bound from request data.
func isAmbientType(t reflect.Type) bool {
	return t == contextType || t == dispatchContextType || t == requestType || t == responseWriterType
}

func ambientName(t reflect.Type) string {
	switch t {
	case contextType:
		return "ctx"
	case dispatchContextType:
		return "context"
	case requestType:
		return "request"
	case responseWriterType:
		return "response"
	}
	return ""
}

// isValueStruct reports whether t is a struct converted as a single value.
func isValueStruct(t reflect.Type) bool {
	return t == timeType || t == uuidType
}

// isModelType reports whether t (or what it points to) is a struct converted
// field by field.
func isModelType(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && !isValueStruct(t) && !isAmbientType(reflect.PointerTo(t))
}

// modelField is a bindable field of a model struct.
type modelField struct {
	Name   string // json name
	GoName string
	Index  []int
	Type   reflect.Type
}

var modelFieldCache sync.Map // reflect.Type -> []modelField

// modelFields lists the exported fields of a struct using encoding/json naming
// rules. Anonymous struct fields without a json name are flattened.
func modelFields(t reflect.Type) []modelField {
	if cached, ok := modelFieldCache.Load(t); ok {
		return cached.([]modelField)
	}
	fields := collectFields(t, nil)
	modelFieldCache.Store(t, fields)
	return fields
}

func collectFields(t reflect.Type, index []int) []modelField {
	var fields []modelField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		name := strings.Split(tag, ",")[0]
		if name == "-" {
			continue
		}

		idx := append(append([]int(nil), index...), i)
		ft := f.Type
		if f.Anonymous && name == "" {
			inner := ft
			if inner.Kind() == reflect.Pointer {
				inner = inner.Elem()
			}
			if inner.Kind() == reflect.Struct {
				if ft.Kind() == reflect.Pointer {
					// pointer embeds need allocation during assignment; treat as a named field
					if f.IsExported() {
						fields = append(fields, modelField{Name: f.Name, GoName: f.Name, Index: idx, Type: ft})
					}
					continue
				}
				fields = append(fields, collectFields(inner, idx)...)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fields = append(fields, modelField{Name: name, GoName: f.Name, Index: idx, Type: ft})
	}
	return fields
}
