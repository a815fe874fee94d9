package dispatch

// Invocation is one link of the middleware chain. Proceed runs everything
// inward of this link and returns its result.
type Invocation interface {
	Context() *Context
	Proceed() (*ActionResult, error)
}

// Middleware wraps an invocation. It continues the chain by calling
// next.Proceed, or short-circuits by returning its own result.
type Middleware interface {
	Execute(next Invocation) (*ActionResult, error)
}

// MiddlewareFunc adapts a function to Middleware.
type MiddlewareFunc func(next Invocation) (*ActionResult, error)

// Execute calls f(next).
func (f MiddlewareFunc) Execute(next Invocation) (*ActionResult, error) {
	return f(next)
}

// HandlerMiddleware adapts host-style middleware that works on the context
// and a continuation. Calling next runs the rest of the chain and stages its
// result on the context; the staged response is what the middleware returns
// to the chain, so it may also short-circuit by staging a response without
// calling next.
type HandlerMiddleware func(c *Context, next func() error) error

// Execute runs the handler and reports the context's staged response.
func (h HandlerMiddleware) Execute(next Invocation) (*ActionResult, error) {
	c := next.Context()
	err := h(c, func() error {
		result, err := next.Proceed()
		if err != nil {
			return err
		}
		result.stage(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ResultFromContext(c), nil
}

type middlewareInvocation struct {
	middleware Middleware
	context    *Context
	next       Invocation
}

func (i *middlewareInvocation) Context() *Context {
	return i.context
}

func (i *middlewareInvocation) Proceed() (*ActionResult, error) {
	return i.middleware.Execute(i.next)
}

// pipe folds middleware right to left around invocation; middleware[0] ends
// up outermost.
func pipe(middleware []Middleware, c *Context, invocation Invocation) Invocation {
	for i := len(middleware) - 1; i >= 0; i-- {
		invocation = &middlewareInvocation{middleware: middleware[i], context: c, next: invocation}
	}
	return invocation
}

// routeMiddleware returns the middleware of a route in execution order:
// controller-level declarations, then action-level ones. Named middleware is
// looked up in registry.
func routeMiddleware(route *RouteInfo, registry *MiddlewareRegistry) []Middleware {
	var result []Middleware
	add := func(d MiddlewareDecorator) {
		result = append(result, d.Value...)
		for _, name := range d.Names {
			if mw, ok := registry.Get(name); ok {
				result = append(result, mw)
			}
		}
	}

	for _, d := range route.Controller.Decorators {
		if mw, ok := d.(MiddlewareDecorator); ok {
			add(mw)
		}
	}
	for _, d := range route.Action.Decorators {
		if mw, ok := d.(MiddlewareDecorator); ok {
			add(mw)
		}
	}
	return result
}
