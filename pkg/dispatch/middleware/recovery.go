package middleware

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/toyz/dispatch/pkg/dispatch"
)

// Recovery turns a panic inside the chain into a 500 error so that outer
// middleware (logging, metrics, tracing) still observe the request.
func Recovery(logger *zap.Logger) dispatch.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return dispatch.MiddlewareFunc(func(next dispatch.Invocation) (result *dispatch.ActionResult, err error) {
		c := next.Context()
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := []zap.Field{
				zap.Any("error", rec),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Stack("stack"),
			}
			if requestID := GetRequestID(c); requestID != "" {
				fields = append(fields, zap.String("requestID", requestID))
			}
			logger.Error("panic recovered", fields...)

			trace.SpanFromContext(c.Context()).RecordError(fmt.Errorf("panic: %v", rec))

			result = nil
			err = dispatch.ErrInternalServerError(http.StatusText(http.StatusInternalServerError))
		}()
		return next.Proceed()
	})
}
