package dispatch

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeResult(t *testing.T, method string, result *ActionResult) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	c := newContext(rec, httptest.NewRequest(method, "/", nil), DefaultConfig(), &Match{})
	require.NoError(t, result.Execute(c))
	return rec
}

func TestActionResult_Execute(t *testing.T) {
	tests := []struct {
		name        string
		result      *ActionResult
		status      int
		contentType string
		body        string
	}{
		{"string", NewResult("hi"), 200, "text/plain; charset=utf-8", "hi"},
		{"bytes", OK([]byte{1, 2}), 200, "application/octet-stream", "\x01\x02"},
		{"reader", NewResult(strings.NewReader("stream")), 200, "application/octet-stream", "stream"},
		{"json", Created(map[string]int{"id": 1}), 201, "application/json; charset=utf-8", `{"id":1}`},
		{"number", NewResult(42), 200, "application/json; charset=utf-8", "42"},
		{"nil", NoContent(), 204, "", ""},
		{"explicit content type", NewResult("<b/>").SetHeader("Content-Type", "text/html"), 200, "text/html", "<b/>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := executeResult(t, http.MethodGet, tt.result)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestActionResult_Redirect(t *testing.T) {
	rec := executeResult(t, http.MethodGet, Redirect("/login"))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestActionResult_Head(t *testing.T) {
	rec := executeResult(t, http.MethodHead, OK("body"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Body.String())
}

func TestActionResult_Unencodable(t *testing.T) {
	rec := httptest.NewRecorder()
	c := newContext(rec, httptest.NewRequest(http.MethodGet, "/", nil), DefaultConfig(), &Match{})
	assert.Error(t, NewResult(make(chan int)).Execute(c))
}

func TestResultFromContext(t *testing.T) {
	rec := httptest.NewRecorder()
	c := newContext(rec, httptest.NewRequest(http.MethodGet, "/", nil), DefaultConfig(), &Match{})
	c.SetStatus(http.StatusAccepted)
	c.SetBody("queued")
	c.SetHeader("X-Job", "7")

	r := ResultFromContext(c)
	assert.Equal(t, &ActionResult{Body: "queued", Status: http.StatusAccepted, Headers: map[string]string{"X-Job": "7"}}, r)

	var nilResult *ActionResult
	nilResult.stage(c)
	assert.Equal(t, "queued", c.ResponseBody())

	OK("done").SetHeader("X-Other", "1").stage(c)
	assert.Equal(t, http.StatusOK, c.Status())
	assert.Equal(t, "done", c.ResponseBody())
	assert.Equal(t, map[string]string{"X-Job": "7", "X-Other": "1"}, c.headers)
}
