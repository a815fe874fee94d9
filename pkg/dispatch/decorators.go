package dispatch

import (
	"strings"
)

// ClassDecorator is metadata attached to a controller.
type ClassDecorator interface {
	classDecorator()
}

// MethodDecorator is metadata attached to an action.
type MethodDecorator interface {
	methodDecorator()
}

// ParameterDecorator is metadata attached to an action parameter.
type ParameterDecorator interface {
	parameterDecorator()
}

// RouteDecorator exposes an action under an explicit verb and optional URL.
// HasURL distinguishes an omitted URL from the empty string.
type RouteDecorator struct {
	Method HttpMethod
	URL    string
	HasURL bool
}

// RootDecorator overrides the controller URL prefix.
type RootDecorator struct {
	URL string
}

// IgnoreDecorator excludes an action from the route table.
type IgnoreDecorator struct{}

// MiddlewareDecorator applies middleware to every action of a controller or
// to a single action. Names refer to the application's MiddlewareRegistry
// and are resolved per request after Value.
type MiddlewareDecorator struct {
	Names []string
	Value []Middleware
}

// BindingKind is the source a BindingDecorator reads from.
type BindingKind int

const (
	BindContext BindingKind = iota
	BindContextPath
	BindRequest
	BindRequestPath
	BindCustom
	BindFile
)

func (k BindingKind) String() string {
	switch k {
	case BindContext:
		return "context"
	case BindContextPath:
		return "context-path"
	case BindRequest:
		return "request"
	case BindRequestPath:
		return "request-path"
	case BindCustom:
		return "custom"
	case BindFile:
		return "file"
	default:
		return "unknown"
	}
}

// CustomBinder extracts a parameter value from the request context.
type CustomBinder func(c *Context) (any, error)

// BindingDecorator tells the binder where a parameter's value comes from.
// Part is a dot path for the *Path kinds and the registered binder name for
// a BindCustom decorator without Process.
type BindingDecorator struct {
	Kind    BindingKind
	Part    string
	Process CustomBinder
}

// Internal validator keys understood by the binder.
const (
	ValidatorSkip     = "internal:skip"
	ValidatorOptional = "internal:optional"
)

// ValidatorDecorator runs a validator after conversion. Func wins over Key;
// Key is looked up in Config.Validators and otherwise used as a
// go-playground validator tag.
type ValidatorDecorator struct {
	Key  string
	Func ValidatorFunc
}

// AuthorizePublic marks a controller or action as accessible without a role.
type AuthorizePublic struct{}

// AuthorizeRole restricts a controller, action or parameter to roles. On a
// parameter it also marks the parameter optional for validation.
type AuthorizeRole struct {
	Roles []string
}

// parameterDecorators is a group produced by helpers that attach more than one
// decorator at once. It is flattened when attached.
type parameterDecorators []ParameterDecorator

func (RouteDecorator) methodDecorator() {}
func (RootDecorator) classDecorator() {}
func (IgnoreDecorator) methodDecorator() {}
func (MiddlewareDecorator) classDecorator() {}
func (MiddlewareDecorator) methodDecorator() {}
func (BindingDecorator) parameterDecorator() {}
func (ValidatorDecorator) parameterDecorator() {}
func (AuthorizePublic) classDecorator() {}
func (AuthorizePublic) methodDecorator() {}
func (AuthorizeRole) classDecorator() {}
func (AuthorizeRole) methodDecorator() {}
func (AuthorizeRole) parameterDecorator() {}
func (parameterDecorators) parameterDecorator() {}

// flattenParameterDecorators expands groups and adds the optional marker that
// accompanies a parameter-level AuthorizeRole.
func flattenParameterDecorators(decorators []ParameterDecorator) []ParameterDecorator {
	var out []ParameterDecorator
	for _, d := range decorators {
		switch v := d.(type) {
		case parameterDecorators:
			out = append(out, flattenParameterDecorators(v)...)
		case AuthorizeRole:
			out = append(out, v, ValidatorDecorator{Key: ValidatorOptional})
		case nil:
		default:
			out = append(out, v)
		}
	}
	return out
}

// RouteBuilder creates route metadata. Use the package-level Route value.
type RouteBuilder struct{}

// Route builds RouteDecorator, RootDecorator and IgnoreDecorator values.
var Route RouteBuilder

func newRoute(method HttpMethod, url []string) RouteDecorator {
	if len(url) == 0 {
		return RouteDecorator{Method: method}
	}
	return RouteDecorator{Method: method, URL: url[0], HasURL: true}
}

// Get exposes an action as GET. An omitted url uses the method name, "" uses
// the controller prefix only, a leading "/" is absolute.
func (RouteBuilder) Get(url ...string) RouteDecorator { return newRoute(GET, url) }

// Post exposes an action as POST.
func (RouteBuilder) Post(url ...string) RouteDecorator { return newRoute(POST, url) }

// Put exposes an action as PUT.
func (RouteBuilder) Put(url ...string) RouteDecorator { return newRoute(PUT, url) }

// Delete exposes an action as DELETE.
func (RouteBuilder) Delete(url ...string) RouteDecorator { return newRoute(DELETE, url) }

// Patch exposes an action as PATCH.
func (RouteBuilder) Patch(url ...string) RouteDecorator { return newRoute(PATCH, url) }

// Head exposes an action as HEAD.
func (RouteBuilder) Head(url ...string) RouteDecorator { return newRoute(HEAD, url) }

// Trace exposes an action as TRACE.
func (RouteBuilder) Trace(url ...string) RouteDecorator { return newRoute(TRACE, url) }

// Options exposes an action as OPTIONS.
func (RouteBuilder) Options(url ...string) RouteDecorator { return newRoute(OPTIONS, url) }

// Root overrides the controller prefix.
func (RouteBuilder) Root(url string) RootDecorator { return RootDecorator{URL: url} }

// Ignore excludes an action from routing.
func (RouteBuilder) Ignore() IgnoreDecorator { return IgnoreDecorator{} }

// BindBuilder creates parameter binding metadata. Use the package-level Bind value.
type BindBuilder struct{}

// Bind builds BindingDecorator values.
var Bind BindBuilder

func joinPath(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ".")
}

func optionalPart(part []string) string {
	if len(part) == 0 {
		return ""
	}
	return part[0]
}

// Ctx binds the whole *Context, or the value at a dot path of the context
// tree ("request.body.id", "state.user"). Validation is skipped.
func (BindBuilder) Ctx(part ...string) ParameterDecorator {
	p := optionalPart(part)
	binding := BindingDecorator{Kind: BindContext}
	if p != "" {
		binding = BindingDecorator{Kind: BindContextPath, Part: p}
	}
	return parameterDecorators{binding, ValidatorDecorator{Key: ValidatorSkip}}
}

// Request binds the *http.Request, or the value at a dot path of the request
// tree ("headers.accept", "query.page"). Validation is skipped.
func (BindBuilder) Request(part ...string) ParameterDecorator {
	p := optionalPart(part)
	binding := BindingDecorator{Kind: BindRequest}
	if p != "" {
		binding = BindingDecorator{Kind: BindRequestPath, Part: p}
	}
	return parameterDecorators{binding, ValidatorDecorator{Key: ValidatorSkip}}
}

// Body binds the parsed request body or one of its properties.
func (BindBuilder) Body(part ...string) BindingDecorator {
	return BindingDecorator{Kind: BindRequestPath, Part: joinPath("body", optionalPart(part))}
}

// Header binds all request headers or a single one.
func (BindBuilder) Header(name ...string) BindingDecorator {
	return BindingDecorator{Kind: BindRequestPath, Part: joinPath("headers", optionalPart(name))}
}

// Query binds all query values or a single one.
func (BindBuilder) Query(name ...string) BindingDecorator {
	return BindingDecorator{Kind: BindRequestPath, Part: joinPath("query", optionalPart(name))}
}

// User binds the "user" entry of the request state.
func (BindBuilder) User() BindingDecorator {
	return BindingDecorator{Kind: BindContextPath, Part: "state.user"}
}

// File binds a FileParser produced by Config.FileParser.
func (BindBuilder) File() BindingDecorator {
	return BindingDecorator{Kind: BindFile}
}

// Custom binds the value returned by fn.
func (BindBuilder) Custom(fn CustomBinder) BindingDecorator {
	return BindingDecorator{Kind: BindCustom, Process: fn}
}

// Named binds with a CustomBinder registered in Config.Binders under name.
func (BindBuilder) Named(name string) BindingDecorator {
	return BindingDecorator{Kind: BindCustom, Part: name}
}

// Validate attaches a keyed validator.
func Validate(key string) ValidatorDecorator {
	return ValidatorDecorator{Key: key}
}

// ValidateWith attaches a validator function.
func ValidateWith(fn ValidatorFunc) ValidatorDecorator {
	return ValidatorDecorator{Func: fn}
}

// Use applies middleware instances.
func Use(middleware ...Middleware) MiddlewareDecorator {
	return MiddlewareDecorator{Value: middleware}
}

// UseNamed applies middleware registered by name.
func UseNamed(names ...string) MiddlewareDecorator {
	return MiddlewareDecorator{Names: names}
}

// AuthorizeBuilder creates authorization metadata. Use the package-level Authorize value.
type AuthorizeBuilder struct{}

// Authorize builds AuthorizePublic and AuthorizeRole values.
var Authorize AuthorizeBuilder

// Public marks a controller or action public.
func (AuthorizeBuilder) Public() AuthorizePublic { return AuthorizePublic{} }

// Role restricts access to the given roles.
func (AuthorizeBuilder) Role(roles ...string) AuthorizeRole { return AuthorizeRole{Roles: roles} }

// Authorization is the effective authorization metadata of a route.
type Authorization struct {
	Public bool
	Roles  []string
}

// AuthorizationOf reads the authorization metadata of a route. Action-level
// decorators replace controller-level ones when present.
func AuthorizationOf(route *RouteInfo) Authorization {
	var auth Authorization
	collect := func(d any) bool {
		switch v := d.(type) {
		case AuthorizePublic:
			auth.Public = true
			return true
		case AuthorizeRole:
			auth.Roles = append(auth.Roles, v.Roles...)
			return true
		}
		return false
	}

	found := false
	for _, d := range route.Action.Decorators {
		if collect(d) {
			found = true
		}
	}
	if !found {
		for _, d := range route.Controller.Decorators {
			collect(d)
		}
	}
	return auth
}

// ParameterRoles returns the roles required to supply a parameter.
func ParameterRoles(p *ParameterDescriptor) []string {
	var roles []string
	for _, d := range p.Decorators {
		if r, ok := d.(AuthorizeRole); ok {
			roles = append(roles, r.Roles...)
		}
	}
	return roles
}
