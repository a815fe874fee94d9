package dispatch

import (
	"strings"

	"github.com/toyz/dispatch/internal/cache"
	"github.com/toyz/dispatch/internal/pattern"
)

// DefaultMatchCacheSize bounds the (method, path) result cache.
const DefaultMatchCacheSize = 10000

// Match is a matched route with its path parameters. Parameter names are
// lower-cased.
type Match struct {
	Route  *RouteInfo
	Params map[string]string
}

type matchEntry struct {
	index  int // -1 when nothing matched
	params map[string]string
}

// Matcher finds the first route matching a request. It is safe for
// concurrent use.
type Matcher struct {
	routes   []*RouteInfo
	patterns []*pattern.Pattern
	cache    *cache.Cache[string, matchEntry]
}

// NewMatcher compiles every route URL. cacheSize bounds the result cache;
// zero uses DefaultMatchCacheSize and a negative value disables caching.
func NewMatcher(routes []*RouteInfo, cacheSize int) (*Matcher, error) {
	m := &Matcher{routes: routes, patterns: make([]*pattern.Pattern, len(routes))}
	for i, r := range routes {
		p, err := pattern.Compile(r.URL)
		if err != nil {
			return nil, err
		}
		m.patterns[i] = p
	}

	if cacheSize == 0 {
		cacheSize = DefaultMatchCacheSize
	}
	if cacheSize > 0 {
		m.cache = cache.New[string, matchEntry](cacheSize)
	}
	return m, nil
}

// Match returns the first route, in table order, whose verb equals method
// (case-insensitively) and whose pattern matches the whole path.
func (m *Matcher) Match(method, path string) (*Match, bool) {
	method = strings.ToUpper(method)

	var entry matchEntry
	if m.cache != nil {
		entry = m.cache.GetOrCompute(method+" "+path, func() matchEntry {
			return m.find(method, path)
		})
	} else {
		entry = m.find(method, path)
	}

	if entry.index < 0 {
		return nil, false
	}
	params := make(map[string]string, len(entry.params))
	for k, v := range entry.params {
		params[k] = v
	}
	return &Match{Route: m.routes[entry.index], Params: params}, true
}

func (m *Matcher) find(method, path string) matchEntry {
	for i, r := range m.routes {
		if string(r.Method) != method {
			continue
		}
		captured, ok := m.patterns[i].Match(path)
		if !ok {
			continue
		}
		params := make(map[string]string, len(captured))
		for k, v := range captured {
			params[strings.ToLower(k)] = v
		}
		return matchEntry{index: i, params: params}
	}
	return matchEntry{index: -1}
}
