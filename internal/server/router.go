package server

import (
	"net/http"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] internally for routing, with method-qualified patterns such as
// "GET /api/v1/profile" and wildcards such as "{id}".
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	auth        Middleware
}

// NewBasicRouter creates a new [BasicRouter] instance.
//
// auth guards routes marked [Route.Auth]. A nil auth serves them unguarded.
func NewBasicRouter(auth Middleware) *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
		auth:        auth,
	}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a [http.Handler] for the specified HTTP method and path.
//
// Requests with another method get 405 from the mux. An empty method matches all methods.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	pattern := path
	if method != "" {
		pattern = method + " " + path
	}
	r.mux.Handle(pattern, handler)
}

// Mount registers a [Handler] implementation.
//
// All routes returned by [Handler.Routes] are registered, wrapped with the auth middleware when required.
func (r *BasicRouter) Mount(handler Handler) {
	for _, route := range handler.Routes() {
		var h http.Handler = route.Handler
		if route.Auth && r.auth != nil {
			h = r.auth(h)
		}
		r.Handle(route.Method, route.Path, h)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
//
// The middleware stack wraps the mux so it also sees unmatched and preflight requests.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Apply(r.mux).ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}
