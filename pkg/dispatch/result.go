package dispatch

import (
	"io"
	"net/http"

	"github.com/goccy/go-json"
)

// ActionResult is the normalized outcome of an action or middleware. A zero
// Status means "not set" and is defaulted by the pipeline.
type ActionResult struct {
	Body    any
	Status  int
	Headers map[string]string
}

// NewResult creates a result with the given body and an unset status.
func NewResult(body any) *ActionResult {
	return &ActionResult{Body: body, Headers: make(map[string]string)}
}

// OK creates a 200 result.
func OK(body any) *ActionResult {
	return NewResult(body).SetStatus(http.StatusOK)
}

// Created creates a 201 result.
func Created(body any) *ActionResult {
	return NewResult(body).SetStatus(http.StatusCreated)
}

// NoContent creates a 204 result.
func NoContent() *ActionResult {
	return NewResult(nil).SetStatus(http.StatusNoContent)
}

// Redirect creates a 302 result pointing at url.
func Redirect(url string) *ActionResult {
	return NewResult(nil).SetStatus(http.StatusFound).SetHeader("Location", url)
}

// SetStatus sets the status and returns the result for chaining.
func (r *ActionResult) SetStatus(status int) *ActionResult {
	r.Status = status
	return r
}

// SetHeader sets a header and returns the result for chaining.
func (r *ActionResult) SetHeader(key, value string) *ActionResult {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

// ResultFromContext builds a result from the response values staged on c.
func ResultFromContext(c *Context) *ActionResult {
	r := NewResult(c.body).SetStatus(c.status)
	for k, v := range c.headers {
		r.Headers[k] = v
	}
	return r
}

// stage copies the result onto the context's staged response.
func (r *ActionResult) stage(c *Context) {
	if r == nil {
		return
	}
	c.status = r.Status
	c.body = r.Body
	for k, v := range r.Headers {
		c.headers[k] = v
	}
}

// Execute writes headers, status and body to the response. Strings are sent
// as text/plain, byte slices as application/octet-stream, readers are
// streamed and anything else is encoded as JSON. A nil body writes no body.
func (r *ActionResult) Execute(c *Context) error {
	w := c.Response
	header := w.Header()
	for k, v := range r.Headers {
		header.Set(k, v)
	}

	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}

	var payload []byte
	switch body := r.Body.(type) {
	case nil:
		w.WriteHeader(status)
		return nil
	case string:
		setDefaultContentType(header, "text/plain; charset=utf-8")
		payload = []byte(body)
	case []byte:
		setDefaultContentType(header, "application/octet-stream")
		payload = body
	case io.Reader:
		setDefaultContentType(header, "application/octet-stream")
		w.WriteHeader(status)
		_, err := io.Copy(w, body)
		if closer, ok := body.(io.Closer); ok {
			closer.Close()
		}
		return err
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		setDefaultContentType(header, "application/json; charset=utf-8")
		payload = data
	}

	w.WriteHeader(status)
	if c.Request != nil && c.Request.Method == http.MethodHead {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

func setDefaultContentType(h http.Header, contentType string) {
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", contentType)
	}
}
