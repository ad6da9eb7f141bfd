// Package middleware provides the HTTP middleware chain and the standard
// middlewares modules mount: CORS and request logging.
package middleware

import "net/http"

// Middleware wraps an http.Handler with cross-cutting behavior.
type Middleware func(http.Handler) http.Handler

// Stack is an ordered middleware chain. The first middleware added sees
// the request first.
type Stack struct {
	chain []Middleware
}

// New creates an empty Stack.
func New() *Stack {
	return &Stack{}
}

// Use appends mw to the chain.
func (s *Stack) Use(mw Middleware) {
	s.chain = append(s.chain, mw)
}

// Apply wraps handler in the chain, outermost first.
func (s *Stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.chain) - 1; i >= 0; i-- {
		handler = s.chain[i](handler)
	}
	return handler
}
