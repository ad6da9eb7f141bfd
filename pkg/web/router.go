package web

import "net/http"

// Router is a ServeMux that can hand unmatched requests to a fallback
// handler instead of the mux's own 404, the shape embedded asset serving
// needs.
type Router struct {
	mux      *http.ServeMux
	fallback http.Handler
}

// NewRouter creates a Router with no fallback; unmatched requests get the
// mux's usual 404.
func NewRouter() *Router {
	return &Router{mux: http.NewServeMux()}
}

// Handle registers a handler for the given pattern.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
}

// HandleFunc registers a handler function for the given pattern.
func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.mux.HandleFunc(pattern, handler)
}

// SetFallback routes requests matching no registered pattern to handler.
func (r *Router) SetFallback(handler http.Handler) {
	r.fallback = handler
}

// ServeHTTP serves registered patterns from the mux and everything else
// from the fallback when one is set.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.fallback != nil {
		if _, pattern := r.mux.Handler(req); pattern == "" {
			r.fallback.ServeHTTP(w, req)
			return
		}
	}
	r.mux.ServeHTTP(w, req)
}
