package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/dispatch/pkg/dispatch"
)

type StatusController struct{}

func (StatusController) Ok() string { return "ok" }

func (StatusController) Conflict() error { return dispatch.ErrConflict("busy") }

func (StatusController) Broken() error { return errors.New("disk on fire") }

func (StatusController) Panic() string { panic("boom") }

func newRouter(t *testing.T, middleware ...dispatch.Middleware) *dispatch.Router {
	t.Helper()
	cfg := dispatch.DefaultConfig()
	cfg.Mode = dispatch.ModeProduction
	cfg.Controllers = []*dispatch.ClassDescriptor{dispatch.Controller(new(StatusController))}
	router, err := dispatch.New(cfg).Use(middleware...).Initialize()
	require.NoError(t, err)
	return router
}

func get(h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusOK, statusOf(nil, nil))
	assert.Equal(t, http.StatusOK, statusOf(dispatch.NewResult("x"), nil))
	assert.Equal(t, http.StatusCreated, statusOf(dispatch.Created("x"), nil))
	assert.Equal(t, http.StatusConflict, statusOf(nil, dispatch.ErrConflict("busy")))
	assert.Equal(t, http.StatusInternalServerError, statusOf(nil, errors.New("x")))
}

func TestRequestID(t *testing.T) {
	var seen string
	capture := dispatch.MiddlewareFunc(func(next dispatch.Invocation) (*dispatch.ActionResult, error) {
		seen = GetRequestID(next.Context())
		return next.Proceed()
	})
	router := newRouter(t, RequestID(), capture)

	rec := get(router, "/status/ok", RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", seen)

	rec = get(router, "/status/conflict")
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, seen)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRecovery(t *testing.T) {
	var status int
	observe := dispatch.MiddlewareFunc(func(next dispatch.Invocation) (*dispatch.ActionResult, error) {
		result, err := next.Proceed()
		status = statusOf(result, err)
		return result, err
	})
	logger, logs := observedLogger()
	router := newRouter(t, observe, Recovery(logger))

	rec := get(router, "/status/panic")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", rec.Body.String())
	assert.Equal(t, http.StatusInternalServerError, status)

	entries := logs.FilterMessage("panic recovered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/status/panic", entries[0].ContextMap()["path"])

	rec = get(router, "/status/ok")
	assert.Equal(t, http.StatusOK, rec.Code)
}
