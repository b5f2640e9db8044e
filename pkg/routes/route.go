package routes

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Route binds an HTTP method and pattern to a handler. Middleware wraps the
// handler in declaration order, the first entry being outermost.
type Route struct {
	Method     string
	Pattern    string
	Handler    http.HandlerFunc
	Middleware []Middleware
}

// Build returns the route handler wrapped with route-level middleware.
func (r Route) Build() http.Handler {
	var h http.Handler = r.Handler
	for i := len(r.Middleware) - 1; i >= 0; i-- {
		h = r.Middleware[i](h)
	}
	return h
}
