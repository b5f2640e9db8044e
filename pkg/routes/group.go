// Package routes declares HTTP route groups and registers them on a ServeMux.
package routes

import "net/http"

// Group organizes routes under a common prefix. Group middleware applies to
// every route in the group and its children, outside route-level middleware.
type Group struct {
	Prefix     string
	Middleware []Middleware
	Routes     []Route
	Children   []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", nil, group)
	}
}

func registerGroup(mux *http.ServeMux, parentPrefix string, inherited []Middleware, group Group) {
	prefix := parentPrefix + group.Prefix
	chain := append(append([]Middleware{}, inherited...), group.Middleware...)

	for _, route := range group.Routes {
		h := route.Build()
		for i := len(chain) - 1; i >= 0; i-- {
			h = chain[i](h)
		}
		mux.Handle(route.Method+" "+prefix+route.Pattern, h)
	}

	for _, child := range group.Children {
		registerGroup(mux, prefix, chain, child)
	}
}
