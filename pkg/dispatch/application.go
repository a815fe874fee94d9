package dispatch

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/toyz/dispatch/internal/diagnostics"
	derrors "github.com/toyz/dispatch/internal/errors"
)

// Application collects configuration and application-wide middleware and
// builds a Router.
type Application struct {
	config     *Config
	middleware []Middleware
}

// New creates an application. A nil config uses DefaultConfig.
func New(config *Config) *Application {
	if config == nil {
		config = DefaultConfig()
	}
	return &Application{config: config}
}

// Use appends application-wide middleware. It runs outside every controller
// and action middleware, in the order added.
func (a *Application) Use(middleware ...Middleware) *Application {
	a.middleware = append(a.middleware, middleware...)
	return a
}

// Initialize freezes a copy of the configuration, gathers controller
// descriptors, builds the route table and, in debug mode, prints the route
// analysis to Config.DiagnosticOutput.
func (a *Application) Initialize() (*Router, error) {
	cfg := a.config.clone()
	cfg.withDefaults()

	controllers, err := collectControllers(cfg)
	if err != nil {
		return nil, err
	}
	if err := checkNames(cfg, controllers); err != nil {
		return nil, err
	}

	routes := TransformControllers(controllers)
	matcher, err := NewMatcher(routes, cfg.MatchCacheSize)
	if err != nil {
		return nil, derrors.Wrap(derrors.ConfigurationErrorCode, "invalid route pattern", err)
	}

	if cfg.Mode == ModeDebug {
		reporter := diagnostics.NewReporter(cfg.DiagnosticOutput, false)
		reporter.Header("Route Analysis Report")
		warnings, errs := printAnalysis(reporter, AnalyzeRoutes(routes))
		reporter.Summary(len(routes), warnings, errs)
	}

	cfg.Logger.Info("dispatch initialized",
		zap.String("mode", string(cfg.Mode)),
		zap.Int("controllers", len(controllers)),
		zap.Int("routes", len(routes)))

	return &Router{
		config:     cfg,
		routes:     routes,
		matcher:    matcher,
		middleware: append([]Middleware(nil), a.middleware...),
	}, nil
}

// collectControllers returns the configured descriptors followed by the ones
// discovered under the controller path.
func collectControllers(cfg *Config) ([]*ClassDescriptor, error) {
	var errs derrors.MultipleErrors
	controllers := make([]*ClassDescriptor, 0, len(cfg.Controllers))
	for _, c := range cfg.Controllers {
		switch {
		case c == nil:
			continue
		case c.Err() != nil:
			errs.Add(derrors.RegistrationError("controller", c.Name, c.Err().Error()))
		case c.Type == nil:
			errs.Add(derrors.RegistrationError("controller", c.Name, "descriptor has no runtime type").
				WithSuggestion("build descriptors with dispatch.Controller, or register the type in Config.Types"))
		default:
			controllers = append(controllers, c)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	discovered, err := discoverControllers(cfg)
	if err != nil {
		return nil, err
	}
	return append(controllers, discovered...), nil
}

// checkNames verifies that every named middleware and binder is registered.
func checkNames(cfg *Config, controllers []*ClassDescriptor) error {
	var middleware, binders []string
	collect := func(decorators []MiddlewareDecorator) {
		for _, d := range decorators {
			middleware = append(middleware, d.Names...)
		}
	}

	for _, c := range controllers {
		collect(middlewareDecorators(c.Decorators))
		for _, m := range c.Methods {
			collect(middlewareDecorators(m.Decorators))
			for _, p := range m.Parameters {
				if b, ok := p.Binding(); ok && b.Kind == BindCustom && b.Process == nil {
					binders = append(binders, b.Part)
				}
			}
		}
	}

	var errs derrors.MultipleErrors
	if err := cfg.Middlewares.Validate(middleware); err != nil {
		errs.Add(derrors.Wrap(derrors.RegistrationErrorCode, "named middleware", err).
			WithSuggestion("register it with Config.Middlewares.Register"))
	}
	if err := cfg.Binders.Validate(binders); err != nil {
		errs.Add(derrors.Wrap(derrors.RegistrationErrorCode, "named binder", err).
			WithSuggestion("register it with Config.Binders.Register"))
	}
	return errs.ErrorOrNil()
}

func middlewareDecorators[D any](decorators []D) []MiddlewareDecorator {
	var out []MiddlewareDecorator
	for _, d := range decorators {
		if mw, ok := any(d).(MiddlewareDecorator); ok {
			out = append(out, mw)
		}
	}
	return out
}

// Router dispatches requests to controller actions. It is safe for
// concurrent use.
type Router struct {
	config     *Config
	routes     RouteTable
	matcher    *Matcher
	middleware []Middleware
}

// Routes returns the route table in match order.
func (r *Router) Routes() RouteTable {
	return r.routes
}

// ServeHTTP dispatches the request, answering 404 when no route matches.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.dispatch(w, req, http.NotFoundHandler())
}

// Handler returns a handler that dispatches matching requests and passes
// the rest to next.
func (r *Router) Handler(next http.Handler) http.Handler {
	if next == nil {
		next = http.NotFoundHandler()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.dispatch(w, req, next)
	})
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request, next http.Handler) {
	match, ok := r.matcher.Match(req.Method, req.URL.EscapedPath())
	if !ok {
		next.ServeHTTP(w, req)
		return
	}

	c := newContext(w, req, r.config, match)
	log := r.config.Logger.With(
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("route", match.Route.URL),
		zap.String("action", match.Route.ActionName()))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic while dispatching", zap.Any("panic", rec), zap.Stack("stack"))
			r.config.ErrorHandler(c, fmt.Errorf("panic: %v", rec))
		}
	}()

	params, err := bindParameters(c)
	if err != nil {
		log.Debug("parameter binding failed", zap.Error(err))
		r.config.ErrorHandler(c, err)
		return
	}
	c.Parameters = params

	chain := append(append([]Middleware(nil), r.middleware...), routeMiddleware(match.Route, r.config.Middlewares)...)
	result, err := pipe(chain, c, &actionInvocation{context: c}).Proceed()
	if err != nil {
		if statusOf(err) >= http.StatusInternalServerError {
			log.Error("action failed", zap.Error(err))
		} else {
			log.Debug("action failed", zap.Error(err))
		}
		r.config.ErrorHandler(c, err)
		return
	}
	if result == nil {
		result = ResultFromContext(c)
	}

	if err := result.Execute(c); err != nil {
		log.Error("failed to write response", zap.Error(err))
	}
}

// statusOf returns the HTTP status an error maps to by default.
func statusOf(err error) int {
	var coder StatusCoder
	if errors.As(err, &coder) {
		return coder.StatusCode()
	}
	return http.StatusInternalServerError
}
