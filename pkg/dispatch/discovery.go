package dispatch

import (
	"fmt"
	"reflect"

	"github.com/toyz/dispatch/internal/annotations"
	derrors "github.com/toyz/dispatch/internal/errors"
	"github.com/toyz/dispatch/internal/scanner"
)

// DescribeSource scans a Go file or directory for controllers annotated with
// //dispatch: comments and returns descriptors without runtime types. They
// carry enough information to build and analyze the route table, but cannot
// be dispatched.
func DescribeSource(path string) ([]*ClassDescriptor, error) {
	found, err := scanner.New().ScanPath(path)
	if err != nil {
		return nil, err
	}

	var (
		result []*ClassDescriptor
		errs   derrors.MultipleErrors
	)
	for _, ctrl := range found {
		desc, err := describeScanned(ctrl, nil)
		if err != nil {
			errs.Add(err)
			continue
		}
		result = append(result, desc)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return result, nil
}

// discoverControllers scans cfg's controller path and links every
// controller found to the runtime type registered in cfg.Types.
func discoverControllers(cfg *Config) ([]*ClassDescriptor, error) {
	path := cfg.controllerPath()
	if path == "" {
		return nil, nil
	}
	found, err := scanner.New().ScanPath(path)
	if err != nil {
		return nil, err
	}

	var (
		result []*ClassDescriptor
		errs   derrors.MultipleErrors
	)
	for _, ctrl := range found {
		t, ok := cfg.Types.Lookup(ctrl.Name)
		if !ok {
			errs.Add(derrors.DiscoveryError(ctrl.Name, ctrl.Location, "type is not registered").
				WithSuggestion(fmt.Sprintf("add new(%s) to Config.Types", ctrl.Name)))
			continue
		}
		desc, err := describeScanned(ctrl, t)
		if err != nil {
			errs.Add(err)
			continue
		}
		result = append(result, desc)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return result, nil
}

// describeScanned converts a scanned controller into a descriptor. When t is
// non-nil every method is matched against the runtime method set of *t.
func describeScanned(ctrl *scanner.Controller, t reflect.Type) (*ClassDescriptor, error) {
	desc := &ClassDescriptor{Name: ctrl.Name, Type: t, File: ctrl.File}
	if ctrl.Dir != "" {
		desc.Root = "/" + ctrl.Dir
	}

	for _, a := range ctrl.Annotations {
		d, err := classDecorator(a)
		if err != nil {
			return nil, derrors.DiscoveryError(ctrl.Name, a.Location, err.Error())
		}
		desc.Decorators = append(desc.Decorators, d)
	}

	for _, m := range ctrl.Methods {
		method, err := describeScannedMethod(m, t)
		if err != nil {
			return nil, derrors.DiscoveryError(ctrl.Name, m.Location, fmt.Sprintf("method %s: %v", m.Name, err))
		}
		desc.Methods = append(desc.Methods, method)
	}
	return desc, nil
}

func describeScannedMethod(m *scanner.Method, t reflect.Type) (*MethodDescriptor, error) {
	desc := &MethodDescriptor{Name: m.Name}
	for i, p := range m.Params {
		desc.Parameters = append(desc.Parameters, &ParameterDescriptor{Name: p.Name, Index: i, TypeName: p.Type})
	}

	for _, a := range m.Annotations {
		if err := applyMethodAnnotation(desc, a); err != nil {
			return nil, err
		}
	}
	for _, p := range desc.Parameters {
		p.Decorators = flattenParameterDecorators(p.Decorators)
	}

	if t == nil {
		return desc, nil
	}

	rm, ok := reflect.PointerTo(t).MethodByName(m.Name)
	if !ok {
		return nil, fmt.Errorf("not found on %s", t)
	}
	if rm.Type.NumIn()-1 != len(desc.Parameters) {
		return nil, fmt.Errorf("source declares %d parameter(s) but %s has %d", len(desc.Parameters), rm.Type, rm.Type.NumIn()-1)
	}
	desc.Variadic = rm.Type.IsVariadic()
	for i, p := range desc.Parameters {
		p.Type = rm.Type.In(i + 1)
		p.TypeName = p.Type.String()
	}
	if !isIgnored(desc) {
		if err := checkResults(rm.Type); err != nil {
			return nil, err
		}
	}
	return desc, nil
}

func classDecorator(a *annotations.ParsedAnnotation) (ClassDecorator, error) {
	switch a.Type {
	case annotations.RootAnnotation:
		return Route.Root(a.Arg(0)), nil
	case annotations.MiddlewareAnnotation:
		return UseNamed(a.Args...), nil
	case annotations.AuthorizeAnnotation:
		if _, ok := a.Param("param"); ok {
			return nil, fmt.Errorf("'authorize role param=' applies to methods only")
		}
		if a.Arg(0) == "public" {
			return Authorize.Public(), nil
		}
		return Authorize.Role(a.Args[1:]...), nil
	}
	return nil, fmt.Errorf("annotation '%s' cannot be applied to a type", a.Type)
}

func applyMethodAnnotation(desc *MethodDescriptor, a *annotations.ParsedAnnotation) error {
	switch a.Type {
	case annotations.RouteAnnotation:
		method, err := ParseHttpMethod(a.Arg(0))
		if err != nil {
			return err
		}
		if a.HasArg(1) {
			desc.Decorators = append(desc.Decorators, newRoute(method, []string{a.Arg(1)}))
		} else {
			desc.Decorators = append(desc.Decorators, newRoute(method, nil))
		}
	case annotations.IgnoreAnnotation:
		desc.Decorators = append(desc.Decorators, Route.Ignore())
	case annotations.MiddlewareAnnotation:
		desc.Decorators = append(desc.Decorators, UseNamed(a.Args...))
	case annotations.AuthorizeAnnotation:
		if a.Arg(0) == "public" {
			desc.Decorators = append(desc.Decorators, Authorize.Public())
			return nil
		}
		role := Authorize.Role(a.Args[1:]...)
		name, ok := a.Param("param")
		if !ok {
			desc.Decorators = append(desc.Decorators, role)
			return nil
		}
		p, err := annotatedParameter(desc, name)
		if err != nil {
			return err
		}
		p.Decorators = append(p.Decorators, role)
	case annotations.BindAnnotation:
		p, err := annotatedParameter(desc, a.Arg(0))
		if err != nil {
			return err
		}
		p.Decorators = append(p.Decorators, bindingFromSource(a.Arg(1), a.Arg(2)))
	case annotations.ValidateAnnotation:
		p, err := annotatedParameter(desc, a.Arg(0))
		if err != nil {
			return err
		}
		p.Decorators = append(p.Decorators, Validate(a.Arg(1)))
	default:
		return fmt.Errorf("annotation '%s' cannot be applied to a method", a.Type)
	}
	return nil
}

func annotatedParameter(desc *MethodDescriptor, name string) (*ParameterDescriptor, error) {
	for _, p := range desc.Parameters {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown parameter '%s'", name)
}

// bindingFromSource maps a //dispatch:bind source to its decorator.
func bindingFromSource(source, part string) ParameterDecorator {
	switch source {
	case "ctx":
		return Bind.Ctx(part)
	case "request":
		return Bind.Request(part)
	case "body":
		return Bind.Body(part)
	case "header":
		return Bind.Header(part)
	case "query":
		return Bind.Query(part)
	case "user":
		return Bind.User()
	case "file":
		return Bind.File()
	default:
		return Bind.Named(part)
	}
}
