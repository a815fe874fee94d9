package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/dispatch/pkg/dispatch"
)

type GreetingController struct{}

func (GreetingController) Hello(name string) string { return "hello " + name }

func (GreetingController) Item(id *int) any {
	if id == nil {
		return []int{}
	}
	return map[string]int{"id": *id}
}

func newRouter(t *testing.T) *dispatch.Router {
	t.Helper()
	cfg := dispatch.DefaultConfig()
	cfg.Mode = dispatch.ModeProduction
	cfg.Controllers = []*dispatch.ClassDescriptor{
		dispatch.Controller(new(GreetingController),
			dispatch.Action("Hello", dispatch.Param("name")),
			dispatch.Action("Item", dispatch.Route.Get("item/:id?"), dispatch.Param("id")),
		),
	}
	router, err := dispatch.New(cfg).Initialize()
	require.NoError(t, err)
	return router
}

func TestPaths(t *testing.T) {
	tests := []struct {
		url      string
		expected []string
	}{
		{"/", []string{"/"}},
		{"/greeting/hello", []string{"/greeting/hello"}},
		{"/greeting/hello/", []string{"/greeting/hello"}},
		{"/item/:id?", []string{"/item/:id", "/item"}},
		{"/:a?/:b?", []string{"/:a/:b", "/:a", "/:b", "/"}},
		{"/files/:name/raw", []string{"/files/:name/raw"}},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, Paths(tt.url))
		})
	}
}
