package adapters

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/toyz/dispatch/pkg/dispatch"
)

// EchoAdapter serves a Router through Echo v4.
type EchoAdapter struct {
	engine *echo.Echo
}

// NewEchoAdapter creates a new Echo adapter
func NewEchoAdapter(e *echo.Echo) *EchoAdapter {
	return &EchoAdapter{engine: e}
}

// NewDefaultEchoAdapter creates a new Echo adapter with default Echo instance
func NewDefaultEchoAdapter() *EchoAdapter {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return &EchoAdapter{engine: e}
}

// EchoMiddleware runs router before Echo's routing. Requests it does not
// match continue to the Echo handler chain.
func EchoMiddleware(router *dispatch.Router) echo.MiddlewareFunc {
	return echo.WrapMiddleware(router.Handler)
}

// Mount installs the router as Echo pre-routing middleware.
func (ea *EchoAdapter) Mount(router *dispatch.Router) {
	ea.engine.Pre(EchoMiddleware(router))
}

// Register adds every route of router to Echo's route table.
func (ea *EchoAdapter) Register(router *dispatch.Router) {
	handler := echo.WrapHandler(router)
	register(router, func(method, path string) {
		ea.engine.Add(method, path, handler)
	})
}

// Start starts the server
func (ea *EchoAdapter) Start(addr string) error {
	return ea.engine.Start(addr)
}

// Stop stops the server
func (ea *EchoAdapter) Stop(ctx context.Context) error {
	return ea.engine.Shutdown(ctx)
}

// Name returns the adapter name
func (ea *EchoAdapter) Name() string {
	return "Echo"
}

// GetEngine returns the underlying Echo instance
func (ea *EchoAdapter) GetEngine() *echo.Echo {
	return ea.engine
}
