// Package dispatch turns controller types into an HTTP route table and
// dispatches requests to their actions.
//
// Controllers are plain structs whose name ends with "Controller". Every
// exported method becomes an action. Route, binding, validation, middleware
// and authorization metadata is attached either with the builder API:
//
//	dispatch.Controller(new(AnimalController),
//	    dispatch.Route.Root("/beast"),
//	    dispatch.Action("Get", dispatch.Route.Get(":id"), dispatch.Param("id")),
//	    dispatch.Action("Save", dispatch.Route.Post(""), dispatch.Param("data", dispatch.Bind.Body())),
//	)
//
// or with "//dispatch:" comments in controller source files, discovered from
// Config.ControllerPath and linked to runtime types through Config.Types:
//
//	//dispatch:root /beast
//	type AnimalController struct{}
//
//	//dispatch:route get :id
//	func (c *AnimalController) Get(id int) *Animal { ... }
//
// A request flows through matching, parameter binding and conversion, the
// middleware chain and finally the action, whose return value is normalized
// into an ActionResult and written once.
package dispatch
