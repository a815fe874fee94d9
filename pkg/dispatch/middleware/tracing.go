package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/toyz/dispatch/pkg/dispatch"
)

// TracerName is the default instrumentation name.
const TracerName = "github.com/toyz/dispatch"

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
	TracerName     string
}

// Tracing starts a server span per request using tp.
func Tracing(tp trace.TracerProvider) dispatch.Middleware {
	return TracingWithConfig(TracingConfig{TracerProvider: tp})
}

// TracingWithConfig returns a tracing middleware with custom configuration.
// The span is named after the route pattern and the request context carries
// it for the rest of the chain.
func TracingWithConfig(config TracingConfig) dispatch.Middleware {
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	if config.Propagators == nil {
		config.Propagators = otel.GetTextMapPropagator()
	}
	if config.TracerName == "" {
		config.TracerName = TracerName
	}
	tracer := config.TracerProvider.Tracer(config.TracerName)

	return dispatch.MiddlewareFunc(func(next dispatch.Invocation) (*dispatch.ActionResult, error) {
		c := next.Context()
		ctx := config.Propagators.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, string(c.Route.Method)+" "+c.Route.URL,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", c.Route.URL),
				attribute.String("http.target", c.Request.URL.Path),
				attribute.String("dispatch.action", c.Route.ActionName()),
			),
		)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request.id", requestID))
		}

		result, err := next.Proceed()

		status := statusOf(result, err)
		span.SetAttributes(attribute.Int("http.status_code", status))
		if err != nil {
			span.RecordError(err)
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		return result, err
	})
}
