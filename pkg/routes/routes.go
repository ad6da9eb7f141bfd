// Package routes registers handler route tables on a ServeMux.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group is the route table a domain handler exposes: a shared path prefix
// plus the routes mounted under it.
type Group struct {
	Prefix string
	Routes []Route
}

// Register adds every route of the given groups to the mux. Patterns are
// composed as "METHOD prefix+pattern", so an empty route pattern binds the
// group prefix itself.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		for _, route := range group.Routes {
			pattern := route.Method + " " + group.Prefix + route.Pattern
			mux.HandleFunc(pattern, route.Handler)
		}
	}
}
