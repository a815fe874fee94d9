package adapters

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/toyz/dispatch/pkg/dispatch"
)

// FiberAdapter serves a Router through Fiber v2. Requests are converted to
// net/http by Fiber's adaptor package.
type FiberAdapter struct {
	app *fiber.App
}

// NewFiberAdapter creates a new Fiber adapter
func NewFiberAdapter(app *fiber.App) *FiberAdapter {
	return &FiberAdapter{app: app}
}

// NewDefaultFiberAdapter creates a new Fiber adapter with default Fiber instance
func NewDefaultFiberAdapter() *FiberAdapter {
	return &FiberAdapter{app: fiber.New(fiber.Config{DisableStartupMessage: true})}
}

// FiberMiddleware runs router for every request. Requests it does not match
// continue to the next Fiber handler.
func FiberMiddleware(router *dispatch.Router) fiber.Handler {
	return adaptor.HTTPMiddleware(router.Handler)
}

// Mount installs the router as Fiber middleware.
func (fa *FiberAdapter) Mount(router *dispatch.Router) {
	fa.app.Use(FiberMiddleware(router))
}

// Register adds every route of router to Fiber's route table.
func (fa *FiberAdapter) Register(router *dispatch.Router) {
	handler := adaptor.HTTPHandler(router)
	register(router, func(method, path string) {
		fa.app.Add(method, path, handler)
	})
}

// Start starts the Fiber server
func (fa *FiberAdapter) Start(addr string) error {
	return fa.app.Listen(addr)
}

// Stop stops the Fiber server
func (fa *FiberAdapter) Stop(ctx context.Context) error {
	return fa.app.ShutdownWithContext(ctx)
}

// Name returns the adapter name
func (fa *FiberAdapter) Name() string {
	return "Fiber"
}

// GetApp returns the underlying Fiber app
func (fa *FiberAdapter) GetApp() *fiber.App {
	return fa.app
}
