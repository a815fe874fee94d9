package dispatch

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/toyz/dispatch/internal/errors"
)

type OrderController struct{}

func (OrderController) Get(id int) string { return "order" }

func (OrderController) Create(order map[string]any) map[string]any { return order }

func (OrderController) Salary(amount *int) string {
	if amount == nil {
		return "none"
	}
	return "some"
}

func (OrderController) Internal() {}

const orderSource = `package shop

//dispatch:root /shop
type OrderController struct{}

//dispatch:route get :id
//dispatch:validate id gte=1
func (c OrderController) Get(id int) string { return "" }

//dispatch:route post ""
//dispatch:bind order body
func (c OrderController) Create(order map[string]any) map[string]any { return nil }

//dispatch:authorize role admin param=amount
func (c OrderController) Salary(amount *int) string { return "" }

//dispatch:ignore
func (c OrderController) Internal() {}
`

func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDescribeSource(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "order.go", orderSource)

	descs, err := DescribeSource(dir)
	require.NoError(t, err)
	require.Len(t, descs, 1)

	desc := descs[0]
	assert.Equal(t, "OrderController", desc.Name)
	assert.Nil(t, desc.Type)
	assert.Equal(t, []string{
		"GET /shop/:id",
		"POST /shop",
		"GET /shop/salary",
	}, routeStrings(TransformController(desc)))

	salary := desc.Methods[2].Parameters[0]
	assert.Equal(t, []string{"admin"}, ParameterRoles(salary))
	assert.True(t, salary.hasValidatorKey(ValidatorOptional))
}

func TestDescribeSource_NestedDirectory(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "admin/user.go", "package admin\n\ntype UserController struct{}\n\nfunc (c UserController) List() []string { return nil }\n")

	descs, err := DescribeSource(dir)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, []string{"GET /admin/user/list"}, routeStrings(TransformController(descs[0])))
}

func TestDiscovery_Dispatch(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "order.go", orderSource)

	cfg := DefaultConfig()
	cfg.Mode = ModeProduction
	cfg.RootPath = dir
	cfg.ControllerPath = "."
	cfg.Types = MustTypeRegistry(new(OrderController))
	router, err := New(cfg).Initialize()
	require.NoError(t, err)
	require.Len(t, router.Routes(), 3)

	rec := do(router, http.MethodGet, "/shop/7", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "order", rec.Body.String())

	rec = do(router, http.MethodGet, "/shop/0", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(router, http.MethodPost, "/shop", `{"sku":"A1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sku":"A1"}`, rec.Body.String())

	rec = do(router, http.MethodGet, "/shop/salary", "")
	assert.Equal(t, "none", rec.Body.String())

	rec = do(router, http.MethodGet, "/shop/internal", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDiscovery_Errors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		types    *TypeRegistry
		contains string
	}{
		{
			name:     "unregistered type",
			source:   orderSource,
			contains: "type is not registered",
		},
		{
			name:     "missing method",
			source:   "package shop\n\ntype OrderController struct{}\n\nfunc (c OrderController) Refund() {}\n",
			types:    MustTypeRegistry(new(OrderController)),
			contains: "method Refund: not found",
		},
		{
			name:     "parameter count mismatch",
			source:   "package shop\n\ntype OrderController struct{}\n\nfunc (c OrderController) Get(id int, verbose bool) string { return \"\" }\n",
			types:    MustTypeRegistry(new(OrderController)),
			contains: "source declares 2 parameter(s)",
		},
		{
			name:     "unknown parameter",
			source:   "package shop\n\ntype OrderController struct{}\n\n//dispatch:validate code required\nfunc (c OrderController) Get(id int) string { return \"\" }\n",
			types:    MustTypeRegistry(new(OrderController)),
			contains: "unknown parameter 'code'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeSource(t, dir, "order.go", tt.source)

			cfg := DefaultConfig()
			cfg.Mode = ModeProduction
			cfg.ControllerPath = dir
			cfg.Types = tt.types
			_, err := New(cfg).Initialize()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Equal(t, derrors.DiscoveryErrorCode, derrors.CodeOf(err))
		})
	}
}

func TestBindingFromSource(t *testing.T) {
	assert.Equal(t, Bind.Header("x-token"), bindingFromSource("header", "x-token"))
	assert.Equal(t, Bind.Query("page"), bindingFromSource("query", "page"))
	assert.Equal(t, Bind.Body(), bindingFromSource("body", ""))
	assert.Equal(t, Bind.Ctx("state.user"), bindingFromSource("ctx", "state.user"))
	assert.Equal(t, Bind.Named("tenant"), bindingFromSource("custom", "tenant"))
}
