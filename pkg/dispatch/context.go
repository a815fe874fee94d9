package dispatch

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// Context carries one request through binding, middleware and the action.
// Response values staged with SetStatus, SetBody and SetHeader are what
// HandlerMiddleware reports back to the pipeline.
type Context struct {
	Request  *http.Request
	Response http.ResponseWriter
	Route    *RouteInfo
	Config   *Config

	// Query holds the URL query merged with path parameters.
	Query url.Values
	// Params holds path parameters keyed by lower-cased name.
	Params map[string]string
	// State is per-request storage shared by middleware, for example "user".
	State map[string]any
	// Parameters holds the bound action arguments once binding succeeded.
	Parameters []any

	status  int
	body    any
	headers map[string]string

	bodyOnce   sync.Once
	parsedBody any
	bodyErr    error
}

func newContext(w http.ResponseWriter, r *http.Request, cfg *Config, match *Match) *Context {
	query := url.Values{}
	for k, v := range r.URL.Query() {
		query[strings.ToLower(k)] = append(query[strings.ToLower(k)], v...)
	}
	for k, v := range match.Params {
		query.Set(k, v)
	}

	state := make(map[string]any)
	if seeded, ok := r.Context().Value(stateKey{}).(map[string]any); ok {
		for k, v := range seeded {
			state[k] = v
		}
	}

	return &Context{
		Request:  r,
		Response: w,
		Route:    match.Route,
		Config:   cfg,
		Query:    query,
		Params:   match.Params,
		State:    state,
		headers:  make(map[string]string),
	}
}

type stateKey struct{}

// WithState returns a shallow copy of r whose dispatch Context starts with
// State[key] = value. Host-level middleware running before the router uses it
// to hand values such as the authenticated "user" to Bind.User parameters.
func WithState(r *http.Request, key string, value any) *http.Request {
	state := make(map[string]any)
	if existing, ok := r.Context().Value(stateKey{}).(map[string]any); ok {
		for k, v := range existing {
			state[k] = v
		}
	}
	state[key] = value
	return r.WithContext(context.WithValue(r.Context(), stateKey{}, state))
}

// Context returns the request's context.Context.
func (c *Context) Context() context.Context {
	return c.Request.Context()
}

// Get returns a state value.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.State[key]
	return v, ok
}

// Set stores a state value.
func (c *Context) Set(key string, value any) {
	c.State[key] = value
}

// Body parses the request body once. JSON bodies decode into generic maps and
// slices with numbers kept as json.Number; form bodies decode into a map of
// strings (or string slices for repeated keys). Other content types yield nil.
func (c *Context) Body() (any, error) {
	c.bodyOnce.Do(func() {
		c.parsedBody, c.bodyErr = c.parseBody()
	})
	return c.parsedBody, c.bodyErr
}

func (c *Context) parseBody() (any, error) {
	r := c.Request
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	if c.Config != nil && c.Config.BodyLimit > 0 {
		r.Body = http.MaxBytesReader(c.Response, r.Body, c.Config.BodyLimit)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, ErrBadRequest("unable to read request body")
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var body any
		if err := dec.Decode(&body); err != nil {
			return nil, ErrBadRequest("invalid JSON body")
		}
		return body, nil
	case mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data":
		if mediaType == "multipart/form-data" {
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				return nil, ErrBadRequest("invalid multipart body")
			}
		} else if err := r.ParseForm(); err != nil {
			return nil, ErrBadRequest("invalid form body")
		}
		return flattenValues(r.PostForm), nil
	}
	return nil, nil
}

func flattenValues(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			out[k] = v[0]
			continue
		}
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		out[k] = items
	}
	return out
}

// requestTree is the value tree behind request dot paths.
func (c *Context) requestTree() map[string]any {
	r := c.Request
	tree := map[string]any{
		"method":   r.Method,
		"url":      r.URL.String(),
		"path":     r.URL.Path,
		"host":     r.Host,
		"ip":       clientIP(r),
		"protocol": r.Proto,
		"query":    c.Query,
		"headers":  r.Header,
		"params":   c.Params,
	}
	if body, err := c.Body(); err == nil && body != nil {
		tree["body"] = body
	}
	return tree
}

// contextTree is the value tree behind context dot paths.
func (c *Context) contextTree() map[string]any {
	return map[string]any{
		"request": c.requestTree(),
		"state":   c.State,
		"params":  c.Params,
		"query":   c.Query,
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}

// SetStatus stages the response status.
func (c *Context) SetStatus(status int) {
	c.status = status
}

// Status returns the staged response status.
func (c *Context) Status() int {
	return c.status
}

// SetBody stages the response body.
func (c *Context) SetBody(body any) {
	c.body = body
}

// ResponseBody returns the staged response body.
func (c *Context) ResponseBody() any {
	return c.body
}

// SetHeader stages a response header.
func (c *Context) SetHeader(key, value string) {
	c.headers[key] = value
}
