// Package adapters serves a dispatch Router through Echo, Gin or Fiber.
//
// Mount installs the router as middleware in front of the framework's own
// routes, so dispatch semantics (first match wins, optional segments,
// trailing slash) are kept exactly. Register instead adds every dispatch
// route to the framework's route table, which makes the routes visible to
// framework tooling at the cost of the framework deciding which route runs.
package adapters

import (
	"context"
	"strings"

	"github.com/toyz/dispatch/pkg/dispatch"
)

// Adapter serves a Router through a third-party web framework.
type Adapter interface {
	Mount(router *dispatch.Router)
	Register(router *dispatch.Router)
	Start(addr string) error
	Stop(ctx context.Context) error
	Name() string
}

// Paths expands a route URL into the framework paths that cover it. Every
// optional ":name?" segment doubles the set: once present, once omitted.
func Paths(url string) []string {
	segments := strings.Split(strings.Trim(url, "/"), "/")
	paths := []string{""}
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		optional := strings.HasPrefix(seg, ":") && strings.HasSuffix(seg, "?")
		seg = strings.TrimSuffix(seg, "?")

		next := make([]string, 0, len(paths)*2)
		for _, p := range paths {
			next = append(next, p+"/"+seg)
			if optional {
				next = append(next, p)
			}
		}
		paths = next
	}

	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			p = "/"
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func register(router *dispatch.Router, add func(method, path string)) {
	for _, route := range router.Routes() {
		for _, p := range Paths(route.URL) {
			add(string(route.Method), p)
		}
	}
}

var (
	_ Adapter = (*EchoAdapter)(nil)
	_ Adapter = (*GinAdapter)(nil)
	_ Adapter = (*FiberAdapter)(nil)
)
