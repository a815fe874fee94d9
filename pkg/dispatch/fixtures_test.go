package dispatch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type AnimalController struct{}

func (AnimalController) Method(id int) string { return "" }

type UserController struct{}

func (UserController) List() []string { return []string{"a", "b"} }

func (UserController) Save(name string) string { return name }

type NotARoutingType struct{}

func (NotARoutingType) Method() {}

type Address struct {
	Street string `json:"street"`
	City   string `json:"city" validate:"required"`
}

type Person struct {
	Name     string    `json:"name"`
	Age      int       `json:"age" validate:"gte=0"`
	Born     time.Time `json:"born"`
	Active   *bool     `json:"active"`
	Address  *Address  `json:"address"`
	Tags     []string  `json:"tags"`
	internal string
}

type Tagged struct {
	Items []any `json:"items"`
}

type Empty struct {
	hidden int
}

type ProbeController struct{}

func (ProbeController) Bool(b bool) bool { return b }
func (ProbeController) Number(n float64) float64 { return n }
func (ProbeController) Int(n int) int { return n }
func (ProbeController) Date(d time.Time) string { return d.Format(time.RFC3339) }
func (ProbeController) ID(id uuid.UUID) string { return id.String() }
func (ProbeController) Optional(n *int) string { return describeOptional(n) }
func (ProbeController) Tags(tags []int) []int { return tags }
func (ProbeController) Create(p Person) Person { return p }
func (ProbeController) People(people []Person) int { return len(people) }
func (ProbeController) Ambient(ctx context.Context, r *http.Request, c *Context) string {
	if ctx == nil || r == nil || c == nil {
		return "missing"
	}
	return r.Method + " " + c.Route.URL
}
func (ProbeController) Fail() error { return errors.New("boom") }
func (ProbeController) Forbidden() (string, error) { return "", ErrForbidden("no access") }
func (ProbeController) Panic() string { panic("kaboom") }
func (ProbeController) Result() *ActionResult { return Created(map[string]string{"ok": "yes"}) }
func (ProbeController) Nothing() {}

func describeOptional(n *int) string {
	if n == nil {
		return "absent"
	}
	return "present"
}
