package dispatch

import (
	"strings"
)

const controllerSuffix = "controller"

// IsController reports whether a descriptor follows the controller naming
// convention (case-insensitive "Controller" suffix).
func IsController(c *ClassDescriptor) bool {
	return strings.HasSuffix(strings.ToLower(c.Name), controllerSuffix)
}

// controllerPrefix is the root override when present, otherwise "/" plus the
// lower-cased name without its suffix.
func controllerPrefix(c *ClassDescriptor) string {
	for i := len(c.Decorators) - 1; i >= 0; i-- {
		if root, ok := c.Decorators[i].(RootDecorator); ok {
			return root.URL
		}
	}
	name := strings.ToLower(c.Name)
	return "/" + strings.TrimSuffix(name, controllerSuffix)
}

// TransformController builds the routes of one controller. Descriptors that
// do not follow the naming convention produce no routes.
func TransformController(c *ClassDescriptor) []*RouteInfo {
	if !IsController(c) {
		return nil
	}

	prefix := controllerPrefix(c)
	var routes []*RouteInfo
	for _, method := range c.Methods {
		if isIgnored(method) {
			continue
		}

		var explicit []RouteDecorator
		for _, d := range method.Decorators {
			if r, ok := d.(RouteDecorator); ok {
				explicit = append(explicit, r)
			}
		}

		if len(explicit) == 0 {
			routes = append(routes, &RouteInfo{
				URL:        c.Root + prefix + "/" + strings.ToLower(method.Name),
				Method:     GET,
				Action:     method,
				Controller: c,
			})
			continue
		}

		for i := len(explicit) - 1; i >= 0; i-- {
			routes = append(routes, &RouteInfo{
				URL:        routeURL(c.Root, prefix, method, explicit[i]),
				Method:     explicit[i].Method,
				Action:     method,
				Controller: c,
			})
		}
	}
	return routes
}

func routeURL(root, prefix string, method *MethodDescriptor, d RouteDecorator) string {
	switch {
	case d.HasURL && strings.HasPrefix(d.URL, "/"):
		return root + d.URL
	case d.HasURL && d.URL == "":
		return root + prefix
	case d.HasURL:
		return root + prefix + "/" + d.URL
	default:
		return root + prefix + "/" + strings.ToLower(method.Name)
	}
}

// TransformControllers builds the route table of several controllers in order.
func TransformControllers(controllers []*ClassDescriptor) RouteTable {
	var routes RouteTable
	for _, c := range controllers {
		routes = append(routes, TransformController(c)...)
	}
	return routes
}
