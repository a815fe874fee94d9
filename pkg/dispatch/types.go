package dispatch

import (
	"fmt"
	"strings"
)

// HttpMethod is an HTTP verb supported by routes.
type HttpMethod string

const (
	GET     HttpMethod = "GET"
	POST    HttpMethod = "POST"
	PUT     HttpMethod = "PUT"
	DELETE  HttpMethod = "DELETE"
	PATCH   HttpMethod = "PATCH"
	HEAD    HttpMethod = "HEAD"
	TRACE   HttpMethod = "TRACE"
	OPTIONS HttpMethod = "OPTIONS"
)

// HttpMethods lists every supported verb.
var HttpMethods = []HttpMethod{GET, POST, PUT, DELETE, PATCH, HEAD, TRACE, OPTIONS}

// ParseHttpMethod converts a case-insensitive verb into an HttpMethod.
func ParseHttpMethod(s string) (HttpMethod, error) {
	m := HttpMethod(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range HttpMethods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported HTTP method: %s", s)
}

func (m HttpMethod) String() string {
	return string(m)
}

// RouteInfo is one entry of the route table. Its identity is (Method, URL).
type RouteInfo struct {
	URL        string
	Method     HttpMethod
	Action     *MethodDescriptor
	Controller *ClassDescriptor
}

// ActionName renders the route's action as "Controller.Method(param, ...)".
func (r *RouteInfo) ActionName() string {
	names := make([]string, len(r.Action.Parameters))
	for i, p := range r.Action.Parameters {
		names[i] = p.Name
	}
	return fmt.Sprintf("%s.%s(%s)", r.Controller.Name, r.Action.Name, strings.Join(names, ", "))
}

func (r *RouteInfo) String() string {
	return fmt.Sprintf("%s %s -> %s", r.Method, r.URL, r.ActionName())
}

// RouteTable is the immutable, ordered list of routes built at startup.
type RouteTable []*RouteInfo

// ByController returns the routes whose controller has the given name.
func (t RouteTable) ByController(name string) RouteTable {
	var filtered RouteTable
	for _, r := range t {
		if r.Controller.Name == name {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ByMethod returns the routes for a verb.
func (t RouteTable) ByMethod(method HttpMethod) RouteTable {
	var filtered RouteTable
	for _, r := range t {
		if r.Method == method {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Find returns the route registered for the exact (method, url) pair.
func (t RouteTable) Find(method HttpMethod, url string) (*RouteInfo, bool) {
	for _, r := range t {
		if r.Method == method && r.URL == url {
			return r, true
		}
	}
	return nil, false
}
