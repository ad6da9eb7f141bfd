// Package module mounts self-contained HTTP surfaces under single-level
// path prefixes, each with its own middleware chain.
package module

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/cascade/pkg/middleware"
)

// Module is an HTTP handler bound to a path prefix. Requests are served by
// the inner router with the prefix stripped, wrapped in the module's
// middleware chain.
type Module struct {
	prefix string
	router http.Handler
	stack  *middleware.Stack
}

// New creates a Module with the given single-level prefix (e.g. "/api").
// Panics if the prefix is empty, missing a leading slash, or multi-level.
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

// Use appends middleware to the module's chain.
func (m *Module) Use(mw middleware.Middleware) {
	m.stack.Use(mw)
}

// Handler returns the inner router wrapped in the middleware chain.
func (m *Module) Handler() http.Handler {
	return m.stack.Apply(m.router)
}

// Serve dispatches the request to the inner router with the module prefix
// stripped from the path. The request is cloned; the caller's request is
// never mutated.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	inner := req.Clone(req.Context())
	inner.URL.Path = strippedPath(req.URL.Path, m.prefix)
	inner.URL.RawPath = ""

	m.Handler().ServeHTTP(w, inner)
}

// strippedPath removes the prefix, mapping a bare prefix request to "/".
func strippedPath(path, prefix string) string {
	stripped := path[len(prefix):]
	if stripped == "" {
		return "/"
	}
	return stripped
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("module prefix cannot be empty")
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	}
	if strings.Count(prefix, "/") != 1 {
		return fmt.Errorf("module prefix must be a single-level sub-path: %s", prefix)
	}
	return nil
}
