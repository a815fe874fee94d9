// Package pattern compiles Express-style route URLs ("/animal/:id") into
// regular expressions that capture named path parameters.
package pattern

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// paramToken matches a named capture segment, optionally marked optional with "?".
var paramToken = regexp.MustCompile(`:([a-zA-Z_][a-zA-Z0-9_]*)(\?)?`)

// Pattern is a compiled route URL.
type Pattern struct {
	source string
	regex  *regexp.Regexp
	names  []string
}

// Compile turns an Express-style URL into a Pattern. Literal segments match
// case-sensitively and a single trailing slash is tolerated.
func Compile(source string) (*Pattern, error) {
	var b strings.Builder
	b.WriteString("^")

	var names []string
	last := 0
	for _, loc := range paramToken.FindAllStringSubmatchIndex(source, -1) {
		start, end := loc[0], loc[1]
		name := source[loc[2]:loc[3]]
		optional := loc[4] >= 0

		literal := source[last:start]
		if optional && strings.HasSuffix(literal, "/") {
			b.WriteString(regexp.QuoteMeta(strings.TrimSuffix(literal, "/")))
			b.WriteString(`(?:/([^/]+?))?`)
		} else {
			b.WriteString(regexp.QuoteMeta(literal))
			if optional {
				b.WriteString(`([^/]+?)?`)
			} else {
				b.WriteString(`([^/]+?)`)
			}
		}
		names = append(names, name)
		last = end
	}

	tail := strings.TrimSuffix(source[last:], "/")
	b.WriteString(regexp.QuoteMeta(tail))
	b.WriteString(`/?$`)

	regex, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid route pattern %q: %w", source, err)
	}
	return &Pattern{source: source, regex: regex, names: names}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(source string) *Pattern {
	p, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return p
}

// Source returns the URL the pattern was compiled from.
func (p *Pattern) Source() string {
	return p.source
}

// Names returns the capture names in declaration order.
func (p *Pattern) Names() []string {
	return p.names
}

// Match reports whether path matches the whole pattern and returns the
// unescaped captured values keyed by capture name. Absent optional segments
// are omitted.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	groups := p.regex.FindStringSubmatchIndex(path)
	if groups == nil {
		return nil, false
	}

	params := make(map[string]string, len(p.names))
	for i, name := range p.names {
		start, end := groups[2*(i+1)], groups[2*(i+1)+1]
		if start < 0 {
			continue
		}
		raw := path[start:end]
		if value, err := url.PathUnescape(raw); err == nil {
			raw = value
		}
		params[name] = raw
	}
	return params, true
}

// Params returns the names of every capture segment in url without compiling it.
func Params(source string) []string {
	var names []string
	for _, m := range paramToken.FindAllStringSubmatch(source, -1) {
		names = append(names, m[1])
	}
	return names
}
