// Package valuepath evaluates dotted property paths such as "body.items[0].id"
// against generic value trees.
package valuepath

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Segment is one step of a parsed path: either a property name or an index.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

func (s Segment) String() string {
	if s.IsIndex {
		return fmt.Sprintf("[%d]", s.Index)
	}
	return s.Name
}

// Path is a parsed dot path.
type Path []Segment

// Parse splits a dot path into segments. Array indexes are written as
// "items[0]" and may be chained ("grid[1][2]").
func Parse(expr string) (Path, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	var path Path
	for _, part := range strings.Split(expr, ".") {
		if part == "" {
			return nil, fmt.Errorf("invalid path %q: empty segment", expr)
		}

		name := part
		if open := strings.IndexByte(part, '['); open >= 0 {
			name = part[:open]
			rest := part[open:]
			if name != "" {
				path = append(path, Segment{Name: name})
			}
			for rest != "" {
				if rest[0] != '[' {
					return nil, fmt.Errorf("invalid path %q: unexpected %q", expr, rest)
				}
				end := strings.IndexByte(rest, ']')
				if end < 0 {
					return nil, fmt.Errorf("invalid path %q: unterminated index", expr)
				}
				idx, err := strconv.Atoi(rest[1:end])
				if err != nil || idx < 0 {
					return nil, fmt.Errorf("invalid path %q: bad index %q", expr, rest[1:end])
				}
				path = append(path, Segment{Index: idx, IsIndex: true})
				rest = rest[end+1:]
			}
			continue
		}
		path = append(path, Segment{Name: name})
	}
	return path, nil
}

// MustParse is like Parse but panics on error.
func MustParse(expr string) Path {
	p, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if !s.IsIndex && i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// Get walks the path over root. The second result is false when any segment
// along the way is absent; Get never panics on missing data.
func Get(root any, path Path) (any, bool) {
	current := root
	for _, seg := range path {
		next, ok := step(current, seg)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Lookup parses expr and evaluates it against root.
func Lookup(root any, expr string) (any, bool, error) {
	path, err := Parse(expr)
	if err != nil {
		return nil, false, err
	}
	v, ok := Get(root, path)
	return v, ok, nil
}

func step(current any, seg Segment) (any, bool) {
	switch v := current.(type) {
	case nil:
		return nil, false
	case map[string]any:
		if seg.IsIndex {
			return nil, false
		}
		return lookupKey(v, seg.Name)
	case url.Values:
		if seg.IsIndex {
			return nil, false
		}
		return lookupValues(v, seg.Name)
	case http.Header:
		if seg.IsIndex {
			return nil, false
		}
		values := v.Values(seg.Name)
		if len(values) == 0 {
			return nil, false
		}
		if len(values) == 1 {
			return values[0], true
		}
		return values, true
	case []any:
		if !seg.IsIndex || seg.Index >= len(v) {
			return nil, false
		}
		return v[seg.Index], true
	}
	return reflectStep(reflect.ValueOf(current), seg)
}

func lookupKey(m map[string]any, name string) (any, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func lookupValues(values url.Values, name string) (any, bool) {
	raw, ok := values[name]
	if !ok {
		for k, v := range values {
			if strings.EqualFold(k, name) {
				raw, ok = v, true
				break
			}
		}
	}
	if !ok || len(raw) == 0 {
		return nil, false
	}
	if len(raw) == 1 {
		return raw[0], true
	}
	return raw, true
}

func reflectStep(rv reflect.Value, seg Segment) (any, bool) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if !seg.IsIndex || seg.Index >= rv.Len() {
			return nil, false
		}
		return rv.Index(seg.Index).Interface(), true
	case reflect.Map:
		if seg.IsIndex || rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		key := reflect.ValueOf(seg.Name).Convert(rv.Type().Key())
		if v := rv.MapIndex(key); v.IsValid() {
			return v.Interface(), true
		}
		iter := rv.MapRange()
		for iter.Next() {
			if strings.EqualFold(iter.Key().String(), seg.Name) {
				return iter.Value().Interface(), true
			}
		}
		return nil, false
	case reflect.Struct:
		if seg.IsIndex {
			return nil, false
		}
		return structField(rv, seg.Name)
	}
	return nil, false
}

func structField(rv reflect.Value, name string) (any, bool) {
	t := rv.Type()
	var fallback = -1
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tagName := strings.Split(f.Tag.Get("json"), ",")[0]
		if tagName == "-" {
			continue
		}
		if tagName == name || f.Name == name {
			return rv.Field(i).Interface(), true
		}
		if fallback < 0 && (strings.EqualFold(tagName, name) || strings.EqualFold(f.Name, name)) {
			fallback = i
		}
	}
	if fallback >= 0 {
		return rv.Field(fallback).Interface(), true
	}
	return nil, false
}
