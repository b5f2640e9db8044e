// Package module mounts independently middlewared sub-routers under
// single-level path prefixes.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/JaimeStill/certify/pkg/middleware"
)

// Module serves the requests under one prefix. The prefix is stripped before
// the inner router sees the request.
type Module struct {
	prefix string
	router http.Handler
	stack  middleware.System

	build   sync.Once
	handler http.Handler
}

// New creates a Module for prefix, such as "/api" or "/notifications".
// It panics on an empty, relative, or multi-level prefix.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix: prefix,
		router: router,
		stack:  middleware.New(),
	}
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware to the module's stack. The first middleware added
// runs outermost. Middleware added after the first request is ignored.
func (m *Module) Use(mw ...func(http.Handler) http.Handler) {
	for _, fn := range mw {
		m.stack.Use(fn)
	}
}

// ServeHTTP strips the prefix and dispatches through the middleware stack.
func (m *Module) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	m.build.Do(func() {
		m.handler = m.stack.Apply(m.router)
	})
	m.handler.ServeHTTP(w, strip(req, m.prefix))
}

func strip(req *http.Request, prefix string) *http.Request {
	path := strings.TrimPrefix(req.URL.Path, prefix)
	if path == "" {
		path = "/"
	}

	out := req.Clone(req.Context())
	out.URL = &url.URL{}
	*out.URL = *req.URL
	out.URL.Path = path
	out.URL.RawPath = ""
	return out
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1:
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	}
	return nil
}
