package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/toyz/dispatch/internal/errors"
)

func TestParseValid(t *testing.T) {
	parser := NewParser()
	loc := SourceLocation{File: "animal.go", Line: 3}

	tests := []struct {
		name   string
		input  string
		target Target
		kind   AnnotationType
		args   []string
		named  map[string]string
	}{
		{name: "root", input: "//dispatch:root /beast", target: TypeTarget, kind: RootAnnotation, args: []string{"/beast"}},
		{name: "route without url", input: "//dispatch:route get", target: MethodTarget, kind: RouteAnnotation, args: []string{"get"}},
		{name: "route absolute", input: "//dispatch:route post /animal/:id", target: MethodTarget, kind: RouteAnnotation, args: []string{"post", "/animal/:id"}},
		{name: "route relative param", input: "//dispatch:route put :id", target: MethodTarget, kind: RouteAnnotation, args: []string{"put", ":id"}},
		{name: "route empty url", input: `//dispatch:route get ""`, target: MethodTarget, kind: RouteAnnotation, args: []string{"get", ""}},
		{name: "spaced prefix", input: "// dispatch:ignore", target: MethodTarget, kind: IgnoreAnnotation},
		{name: "middleware list", input: "//dispatch:middleware Auth Audit", target: TypeTarget, kind: MiddlewareAnnotation, args: []string{"Auth", "Audit"}},
		{name: "bind header", input: "//dispatch:bind token header authorization", target: MethodTarget, kind: BindAnnotation, args: []string{"token", "header", "authorization"}},
		{name: "bind dotted path", input: "//dispatch:bind id request body.items[0].id", target: MethodTarget, kind: BindAnnotation, args: []string{"id", "request", "body.items[0].id"}},
		{name: "validate tag", input: "//dispatch:validate age gte=18", target: MethodTarget, kind: ValidateAnnotation, args: []string{"age", "gte=18"}},
		{name: "authorize role param", input: "//dispatch:authorize role admin param=salary", target: MethodTarget, kind: AuthorizeAnnotation, args: []string{"role", "admin"}, named: map[string]string{"param": "salary"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.Parse(tt.input, tt.target, loc)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.Type)
			assert.Equal(t, tt.args, got.Args)
			if tt.named == nil {
				tt.named = map[string]string{}
			}
			assert.Equal(t, tt.named, got.Named)
			assert.Equal(t, loc, got.Location)
		})
	}
}

func TestParseValidateQuotedTag(t *testing.T) {
	got, err := NewParser().Parse(`//dispatch:validate age "gte=18"`, MethodTarget, SourceLocation{})
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "gte=18"}, got.Args)
}

func TestParseInvalid(t *testing.T) {
	parser := NewParser()
	loc := SourceLocation{File: "animal.go", Line: 9}

	tests := []struct {
		name   string
		input  string
		target Target
		errMsg string
	}{
		{name: "unknown kind", input: "//dispatch:controller", target: TypeTarget, errMsg: "unknown annotation type"},
		{name: "wrong target", input: "//dispatch:root /x", target: MethodTarget, errMsg: "cannot be used on a method"},
		{name: "missing verb", input: "//dispatch:route", target: MethodTarget, errMsg: "at least 1"},
		{name: "bad verb", input: "//dispatch:route fetch", target: MethodTarget, errMsg: "unknown HTTP verb"},
		{name: "bad bind source", input: "//dispatch:bind a cookie", target: MethodTarget, errMsg: "unknown bind source"},
		{name: "custom without name", input: "//dispatch:bind a custom", target: MethodTarget, errMsg: "requires a registered binder"},
		{name: "bad authorize", input: "//dispatch:authorize everyone", target: TypeTarget, errMsg: "unknown authorize kind"},
		{name: "role without roles", input: "//dispatch:authorize role", target: TypeTarget, errMsg: "at least one role"},
		{name: "not an annotation", input: "// plain comment", target: TypeTarget, errMsg: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.input, tt.target, loc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Equal(t, derrors.SyntaxErrorCode, derrors.CodeOf(err))
			assert.Contains(t, err.Error(), "animal.go:9")
		})
	}
}

func TestIsAnnotation(t *testing.T) {
	assert.True(t, IsAnnotation("//dispatch:route get"))
	assert.True(t, IsAnnotation("  //dispatch:ignore"))
	assert.True(t, IsAnnotation("// dispatch:ignore"))
	assert.False(t, IsAnnotation("// dispatch is great"))
	assert.False(t, IsAnnotation("//router:get /"))
}

func TestAnnotationTypeRoundTrip(t *testing.T) {
	for _, kind := range []AnnotationType{RootAnnotation, RouteAnnotation, IgnoreAnnotation, MiddlewareAnnotation, BindAnnotation, ValidateAnnotation, AuthorizeAnnotation} {
		parsed, err := ParseAnnotationType(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}
}
