package middleware

import (
	"github.com/google/uuid"

	"github.com/toyz/dispatch/pkg/dispatch"
)

const (
	// RequestIDHeader is the header name for request ID.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the state key for request ID.
	RequestIDKey = "requestID"
)

// RequestID reuses the incoming X-Request-ID or generates one, stores it in
// the context state and echoes it on the response.
func RequestID() dispatch.Middleware {
	return dispatch.MiddlewareFunc(func(next dispatch.Invocation) (*dispatch.ActionResult, error) {
		c := next.Context()
		requestID := c.Request.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Response.Header().Set(RequestIDHeader, requestID)
		return next.Proceed()
	})
}

// GetRequestID returns the request ID from the context.
func GetRequestID(c *dispatch.Context) string {
	if id, ok := c.Get(RequestIDKey); ok {
		if requestID, ok := id.(string); ok {
			return requestID
		}
	}
	return ""
}
