package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/toyz/dispatch/pkg/dispatch"
)

func setupTracingTest() (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return tp, recorder
}

func attributeValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int64
		code   codes.Code
		events int
	}{
		{"success", "/status/ok", http.StatusOK, codes.Unset, 0},
		{"client error", "/status/conflict", http.StatusConflict, codes.Unset, 1},
		{"server error", "/status/broken", http.StatusInternalServerError, codes.Error, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, recorder := setupTracingTest()
			router := newRouter(t, Tracing(tp))

			get(router, tt.target)

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, "GET "+tt.target, span.Name())
			assert.Equal(t, trace.SpanKindServer, span.SpanKind())
			assert.Equal(t, tt.code, span.Status().Code)
			assert.Len(t, span.Events(), tt.events)

			status, ok := attributeValue(span.Attributes(), "http.status_code")
			require.True(t, ok)
			assert.Equal(t, tt.status, status.AsInt64())

			route, ok := attributeValue(span.Attributes(), "http.route")
			require.True(t, ok)
			assert.Equal(t, tt.target, route.AsString())
		})
	}
}

func TestTracing_PropagatesParentAndContext(t *testing.T) {
	tp, recorder := setupTracingTest()

	var inner trace.SpanContext
	capture := dispatch.MiddlewareFunc(func(next dispatch.Invocation) (*dispatch.ActionResult, error) {
		inner = trace.SpanContextFromContext(next.Context().Context())
		return next.Proceed()
	})
	router := newRouter(t, TracingWithConfig(TracingConfig{
		TracerProvider: tp,
		Propagators:    propagation.TraceContext{},
	}), capture)

	parentCtx, parent := tp.Tracer("client").Start(context.Background(), "client")
	carrier := propagation.HeaderCarrier(http.Header{})
	propagation.TraceContext{}.Inject(parentCtx, carrier)
	parent.End()

	get(router, "/status/ok", "traceparent", carrier.Get("traceparent"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	server := spans[1]
	assert.Equal(t, parent.SpanContext().TraceID(), server.SpanContext().TraceID())
	assert.Equal(t, parent.SpanContext().SpanID(), server.Parent().SpanID())
	assert.Equal(t, server.SpanContext().SpanID(), inner.SpanID())
}

func TestTracing_RequestIDAttribute(t *testing.T) {
	tp, recorder := setupTracingTest()
	router := newRouter(t, RequestID(), Tracing(tp))

	get(router, "/status/ok", RequestIDHeader, "trace-me")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	id, ok := attributeValue(spans[0].Attributes(), "request.id")
	require.True(t, ok)
	assert.Equal(t, "trace-me", id.AsString())
}
