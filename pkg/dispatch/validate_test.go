package dispatch

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type SignupController struct{}

func (SignupController) Register(email string, age int, code *string) string { return email }

func signupRouter(t *testing.T, cfg *Config, options ...ActionOption) *Router {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Mode = ModeProduction
	cfg.Controllers = []*ClassDescriptor{Controller(new(SignupController),
		Action("Register", append([]ActionOption{Route.Get("")}, options...)...))}
	router, err := New(cfg).Initialize()
	require.NoError(t, err)
	return router
}

func decodeIssues(t *testing.T, body string) []ValidationIssue {
	t.Helper()
	var issues []ValidationIssue
	require.NoError(t, json.Unmarshal([]byte(body), &issues))
	return issues
}

func TestValidate_TagKeys(t *testing.T) {
	router := signupRouter(t, nil,
		Param("email", Validate("email")),
		Param("age", Validate("gte=18")),
		Param("code"),
	)

	rec := do(router, http.MethodGet, "/signup?email=a@b.co&age=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.co", rec.Body.String())

	rec = do(router, http.MethodGet, "/signup?email=nope&age=12", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, []ValidationIssue{
		{Path: []string{"email"}, Messages: []string{"Invalid email address"}},
		{Path: []string{"age"}, Messages: []string{"Must be greater than or equal to 18"}},
	}, decodeIssues(t, rec.Body.String()))
}

func TestValidate_ConversionRunsFirst(t *testing.T) {
	router := signupRouter(t, nil,
		Param("email", Validate("email")),
		Param("age"),
		Param("code"),
	)

	rec := do(router, http.MethodGet, "/signup?email=nope&age=old", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `Unable to convert "old" into Number in parameter age`, rec.Body.String())
}

func TestValidate_RegisteredValidators(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Validators["corporate"] = func(value any, info ValidatorInfo) error {
		if !strings.HasSuffix(value.(string), "@corp.example") {
			return errors.New("Must be a corporate address")
		}
		assert.Equal(t, "email", info.Parameter.Name)
		assert.Equal(t, "SignupController.Register(email, age, code)", info.Route.ActionName())
		return nil
	}
	router := signupRouter(t, cfg, Param("email", Validate("corporate")), Param("age"), Param("code"))

	rec := do(router, http.MethodGet, "/signup?email=me@corp.example&age=1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodGet, "/signup?email=me@home.example&age=1", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []ValidationIssue{
		{Path: []string{"email"}, Messages: []string{"Must be a corporate address"}},
	}, decodeIssues(t, rec.Body.String()))
}

func TestValidate_ValidateWith(t *testing.T) {
	even := ValidateWith(func(value any, _ ValidatorInfo) error {
		if value.(int)%2 != 0 {
			return errors.New("Must be even")
		}
		return nil
	})
	router := signupRouter(t, nil, Param("email"), Param("age", even), Param("code"))

	rec := do(router, http.MethodGet, "/signup?age=3", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []ValidationIssue{
		{Path: []string{"age"}, Messages: []string{"Must be even"}},
	}, decodeIssues(t, rec.Body.String()))
}

func TestValidate_RequiredOnAbsentValue(t *testing.T) {
	router := signupRouter(t, nil, Param("email"), Param("age"), Param("code", Validate("required")))

	rec := do(router, http.MethodGet, "/signup", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []ValidationIssue{
		{Path: []string{"code"}, Messages: []string{"Required"}},
	}, decodeIssues(t, rec.Body.String()))
}

func TestValidate_OptionalMarker(t *testing.T) {
	router := signupRouter(t, nil,
		Param("email"),
		Param("age"),
		Param("code", Validate("required"), Authorize.Role("admin")),
	)

	rec := do(router, http.MethodGet, "/signup", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodGet, "/signup?code=x", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidate_SkipMarker(t *testing.T) {
	router := signupRouter(t, nil,
		Param("email", Bind.Request("query.email"), Validate("email")),
		Param("age"),
		Param("code"),
	)

	rec := do(router, http.MethodGet, "/signup?email=not-an-email", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not-an-email", rec.Body.String())
}

func TestValidate_GlobalHook(t *testing.T) {
	cfg := DefaultConfig()
	var seen []string
	cfg.Validator = func(value any, info ValidatorInfo) []ValidationIssue {
		seen = append(seen, info.Parameter.Name)
		return nil
	}
	router := signupRouter(t, cfg, Param("email"), Param("age"), Param("code"))

	rec := do(router, http.MethodGet, "/signup?email=x", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"email", "age", "code"}, seen)
}

func TestNamespacePath(t *testing.T) {
	assert.Equal(t, []string{"address", "city"}, namespacePath("Person.address.city"))
	assert.Equal(t, []string{"items", "0", "name"}, namespacePath("Order.items[0].name"))
	assert.Nil(t, namespacePath("Person"))
}

func TestValidationMessages(t *testing.T) {
	type Form struct {
		Name  string   `json:"name" validate:"min=3"`
		Kind  string   `json:"kind" validate:"oneof=cat dog"`
		Count int      `json:"count" validate:"lt=5"`
		Tags  []string `json:"tags" validate:"max=1"`
	}

	issues := DefaultValidator(Form{Name: "ab", Kind: "cow", Count: 9, Tags: []string{"a", "b"}},
		ValidatorInfo{Parameter: &ParameterDescriptor{Name: "form"}})

	assert.ElementsMatch(t, []ValidationIssue{
		{Path: []string{"form", "name"}, Messages: []string{"Length must be at least 3"}},
		{Path: []string{"form", "kind"}, Messages: []string{"Must be one of: cat, dog"}},
		{Path: []string{"form", "count"}, Messages: []string{"Must be less than 5"}},
		{Path: []string{"form", "tags"}, Messages: []string{"Length must be at most 1"}},
	}, issues)

	assert.Nil(t, DefaultValidator("plain", ValidatorInfo{Parameter: &ParameterDescriptor{Name: "x"}}))
	assert.Nil(t, DefaultValidator((*Form)(nil), ValidatorInfo{Parameter: &ParameterDescriptor{Name: "x"}}))
}
