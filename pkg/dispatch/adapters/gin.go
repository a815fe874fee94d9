package adapters

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/toyz/dispatch/pkg/dispatch"
)

// GinAdapter serves a Router through Gin.
type GinAdapter struct {
	engine *gin.Engine
	server *http.Server
}

// NewGinAdapter creates a new Gin adapter
func NewGinAdapter(g *gin.Engine) *GinAdapter {
	return &GinAdapter{engine: g}
}

// NewDefaultGinAdapter creates a new Gin adapter with default Gin instance
func NewDefaultGinAdapter() *GinAdapter {
	return &GinAdapter{engine: gin.Default()}
}

// GinMiddleware runs router for every request. Matched requests are
// answered and aborted; the rest continue down the Gin chain.
func GinMiddleware(router *dispatch.Router) gin.HandlerFunc {
	return func(c *gin.Context) {
		handled := true
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			handled = false
			c.Request = r
		})
		router.Handler(next).ServeHTTP(c.Writer, c.Request)
		if handled {
			c.Abort()
			return
		}
		c.Next()
	}
}

// Mount installs the router as global Gin middleware. Gin binds global
// middleware when a route is added, so call Mount before adding Gin routes.
func (ga *GinAdapter) Mount(router *dispatch.Router) {
	ga.engine.Use(GinMiddleware(router))
}

// Register adds every route of router to Gin's route table. Gin panics on
// conflicting wildcards such as "/user/:id" next to "/user/:name"; use Mount
// for such tables.
func (ga *GinAdapter) Register(router *dispatch.Router) {
	handler := gin.WrapH(router)
	register(router, func(method, path string) {
		ga.engine.Handle(method, path, handler)
	})
}

// Start starts the server
func (ga *GinAdapter) Start(addr string) error {
	ga.server = &http.Server{
		Addr:              addr,
		Handler:           ga.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := ga.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the server
func (ga *GinAdapter) Stop(ctx context.Context) error {
	if ga.server == nil {
		return nil
	}
	return ga.server.Shutdown(ctx)
}

// Name returns the adapter name
func (ga *GinAdapter) Name() string {
	return "Gin"
}

// GetEngine returns the underlying Gin engine
func (ga *GinAdapter) GetEngine() *gin.Engine {
	return ga.engine
}
