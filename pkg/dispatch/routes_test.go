package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routeStrings(routes []*RouteInfo) []string {
	out := make([]string, len(routes))
	for i, r := range routes {
		out[i] = string(r.Method) + " " + r.URL
	}
	return out
}

func TestTransformController(t *testing.T) {
	tests := []struct {
		name     string
		desc     *ClassDescriptor
		expected []string
	}{
		{
			name:     "implicit GET from method name",
			desc:     Controller(new(AnimalController)),
			expected: []string{"GET /animal/method"},
		},
		{
			name:     "explicit verb without url uses method name",
			desc:     Controller(new(AnimalController), Action("Method", Route.Post())),
			expected: []string{"POST /animal/method"},
		},
		{
			name:     "empty url maps to the controller prefix",
			desc:     Controller(new(AnimalController), Action("Method", Route.Get(""))),
			expected: []string{"GET /animal"},
		},
		{
			name:     "relative url is appended to the prefix",
			desc:     Controller(new(AnimalController), Action("Method", Route.Get(":id"))),
			expected: []string{"GET /animal/:id"},
		},
		{
			name:     "absolute url ignores the prefix",
			desc:     Controller(new(AnimalController), Action("Method", Route.Get("/beast/:id"))),
			expected: []string{"GET /beast/:id"},
		},
		{
			name:     "root decorator replaces the prefix",
			desc:     Controller(new(AnimalController), Route.Root("/beast"), Action("Method", Route.Get(":id"))),
			expected: []string{"GET /beast/:id"},
		},
		{
			name:     "last root decorator wins",
			desc:     Controller(new(AnimalController), Route.Root("/one"), Route.Root("/two")),
			expected: []string{"GET /two/method"},
		},
		{
			name: "multiple route decorators are emitted in reverse order",
			desc: Controller(new(AnimalController), Action("Method",
				Route.Get("first"),
				Route.Put("second"),
			)),
			expected: []string{"PUT /animal/second", "GET /animal/first"},
		},
		{
			name:     "ignored methods produce no routes",
			desc:     Controller(new(AnimalController), Action("Method", Route.Ignore())),
			expected: []string{},
		},
		{
			name:     "types without the controller suffix are skipped",
			desc:     Controller(new(NotARoutingType)),
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.desc.Err())
			assert.Equal(t, tt.expected, routeStrings(TransformController(tt.desc)))
		})
	}
}

func TestTransformController_RootPrefix(t *testing.T) {
	desc := Controller(new(AnimalController), Action("Method", Route.Get("/abs"), Route.Get("")))
	desc.Root = "/api/v1"

	assert.Equal(t, []string{"GET /api/v1/animal", "GET /api/v1/abs"}, routeStrings(TransformController(desc)))
}

func TestTransformControllers_Order(t *testing.T) {
	routes := TransformControllers([]*ClassDescriptor{
		Controller(new(UserController), Action("Save", Route.Post(""))),
		Controller(new(AnimalController)),
	})

	assert.Equal(t, []string{
		"POST /user",
		"GET /user/list",
		"GET /animal/method",
	}, routeStrings(routes))

	assert.Len(t, routes.ByController("UserController"), 2)
	assert.Len(t, routes.ByMethod(GET), 2)

	r, ok := routes.Find(POST, "/user")
	require.True(t, ok)
	assert.Equal(t, "UserController.Save(arg0)", r.ActionName())

	_, ok = routes.Find(DELETE, "/user")
	assert.False(t, ok)
}

func TestIsController(t *testing.T) {
	assert.True(t, IsController(&ClassDescriptor{Name: "AnimalController"}))
	assert.True(t, IsController(&ClassDescriptor{Name: "Animalcontroller"}))
	assert.False(t, IsController(&ClassDescriptor{Name: "AnimalService"}))
}
