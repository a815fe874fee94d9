// Package middleware provides dispatch middleware for request logging,
// request IDs, panic recovery, Prometheus metrics and OpenTelemetry tracing.
//
// Each constructor returns a dispatch.Middleware that can be installed for
// the whole application with Application.Use, on a controller or action with
// dispatch.Use, or by name through Config.Middlewares.
package middleware

import (
	"errors"
	"net/http"

	"github.com/toyz/dispatch/pkg/dispatch"
)

// statusOf reports the status a chain outcome will be written with.
func statusOf(result *dispatch.ActionResult, err error) int {
	if err != nil {
		var coder dispatch.StatusCoder
		if errors.As(err, &coder) {
			return coder.StatusCode()
		}
		return http.StatusInternalServerError
	}
	if result == nil || result.Status == 0 {
		return http.StatusOK
	}
	return result.Status
}
