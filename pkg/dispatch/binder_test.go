package dispatch

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type BindController struct{}

func (BindController) Echo(value any) any { return value }

func (BindController) Header(agent string) string { return agent }

func (BindController) Body(name string) string { return name }

func (BindController) Headers(h map[string]string) map[string]string { return h }

func (BindController) User(user map[string]any) map[string]any { return user }

func (BindController) Upload(parser FileParser) ([]FileUploadInfo, error) {
	return parser.Save()
}

func (BindController) Request(r *http.Request) string { return r.URL.Path }

func (BindController) Ctx(c *Context) string { return c.Route.URL }

func (BindController) Tenant(tenant string) string { return tenant }

func (BindController) Size(size int) int { return size }

func bindRouter(t *testing.T, cfg *Config, options ...ControllerOption) *Router {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Mode = ModeProduction
	cfg.Controllers = []*ClassDescriptor{Controller(new(BindController), options...)}
	router, err := New(cfg).Initialize()
	require.NoError(t, err)
	return router
}

func TestBinder_DecoratorSources(t *testing.T) {
	router := bindRouter(t, nil,
		Action("Echo", Route.Post("ctx"), Param("value", Bind.Ctx("request.body.items[1].name"))),
		Action("Header", Route.Get(), Param("agent", Bind.Header("user-agent"))),
		Action("Body", Route.Post(), Param("name", Bind.Body("name"))),
		Action("Headers", Route.Get(), Param("h", Bind.Header())),
		Action("Request", Route.Get()),
		Action("Ctx", Route.Get()),
		Action("Size", Route.Get(), Param("size", Bind.Query("limit"))),
	)

	rec := do(router, http.MethodPost, "/bind/ctx", `{"items":[{"name":"a"},{"name":"b"}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/bind/header", nil)
	req.Header.Set("User-Agent", "dispatch-test")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "dispatch-test", rec.Body.String())

	rec = do(router, http.MethodPost, "/bind/body", `{"name":"Ketut"}`)
	assert.Equal(t, "Ketut", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/bind/headers", nil)
	req.Header.Set("X-Custom", "1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var headers map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &headers))
	assert.Equal(t, "1", headers["X-Custom"])

	rec = do(router, http.MethodGet, "/bind/request", "")
	assert.Equal(t, "/bind/request", rec.Body.String())

	rec = do(router, http.MethodGet, "/bind/ctx", "")
	assert.Equal(t, "/bind/ctx", rec.Body.String())

	rec = do(router, http.MethodGet, "/bind/size?limit=25", "")
	assert.Equal(t, "25", rec.Body.String())

	rec = do(router, http.MethodGet, "/bind/size?limit=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `Unable to convert "lots" into Number in parameter size`, rec.Body.String())
}

func TestBinder_UserFromState(t *testing.T) {
	router := bindRouter(t, nil, Action("User", Route.Get(), Param("user", Bind.User())))
	auth := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			r = WithState(r, "user", map[string]any{"role": "admin"})
		}
		router.ServeHTTP(w, r)
	})

	req := httptest.NewRequest(http.MethodGet, "/bind/user", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	auth.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"role":"admin"}`, rec.Body.String())

	rec = do(auth, http.MethodGet, "/bind/user", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestBinder_CustomBinders(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Binders.Register("tenant", func(c *Context) (any, error) {
		return c.Request.Header.Get("X-Tenant"), nil
	}))

	router := bindRouter(t, cfg,
		Action("Tenant", Route.Get(), Param("tenant", Bind.Named("tenant"))),
		Action("Size", Route.Get(), Param("size", Bind.Custom(func(c *Context) (any, error) {
			return "7", nil
		}))),
	)

	req := httptest.NewRequest(http.MethodGet, "/bind/tenant", nil)
	req.Header.Set("X-Tenant", "acme")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "acme", rec.Body.String())

	rec = do(router, http.MethodGet, "/bind/size", "")
	assert.Equal(t, "7", rec.Body.String())
}

func TestBinder_FileUpload(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.FileParser = MultipartFileParser(dir)
	router := bindRouter(t, cfg, Action("Upload", Route.Post(), Param("parser", Bind.File())))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/bind/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var infos []FileUploadInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "avatar", infos[0].Field)
	assert.Equal(t, "me.png", infos[0].OriginalName)
	assert.Equal(t, int64(9), infos[0].Size)
	assert.Equal(t, dir, filepath.Dir(infos[0].FileName))

	data, err := os.ReadFile(infos[0].FileName)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestBinder_FileWithoutParser(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FileParser = nil
	router := bindRouter(t, cfg, Action("Upload", Route.Post(), Param("parser", Bind.File())))

	rec := do(router, http.MethodPost, "/bind/upload", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBinder_FormBody(t *testing.T) {
	router := bindRouter(t, nil, Action("Body", Route.Post(), Param("name", Bind.Body("name"))))

	req := httptest.NewRequest(http.MethodPost, "/bind/body", bytes.NewBufferString("name=Made&x=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "Made", rec.Body.String())
}

func TestQueryValue(t *testing.T) {
	query := map[string][]string{"name": {"a"}, "ids": {"1", "2"}, "MiXeD": {"x"}}

	v, ok := queryValue(query, "Name")
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = queryValue(query, "ids")
	assert.True(t, ok)
	assert.Equal(t, []string{"1", "2"}, v)

	v, ok = queryValue(query, "mixed")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = queryValue(query, "missing")
	assert.False(t, ok)
}
