// Package routes declares method-qualified routes in nested groups and
// registers them on a ServeMux-style router.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Mux is satisfied by *http.ServeMux and the web and module routers.
type Mux interface {
	HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request))
}
