package middleware

import (
	"time"

	"go.uber.org/zap"

	"github.com/toyz/dispatch/pkg/dispatch"
)

// Logger logs one entry per dispatched request. Server errors are logged at
// error level, client errors at warn level and everything else at info.
func Logger(logger *zap.Logger) dispatch.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return dispatch.MiddlewareFunc(func(next dispatch.Invocation) (*dispatch.ActionResult, error) {
		c := next.Context()
		start := time.Now()

		result, err := next.Proceed()

		status := statusOf(result, err)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.Route.URL),
			zap.String("action", c.Route.ActionName()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("remoteAddr", c.Request.RemoteAddr),
		}
		if requestID := GetRequestID(c); requestID != "" {
			fields = append(fields, zap.String("requestID", requestID))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		switch {
		case status >= 500:
			logger.Error("request completed", fields...)
		case status >= 400:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
		return result, err
	})
}
