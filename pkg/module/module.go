// Package module mounts independently routed handlers under single-level
// path prefixes such as /uploader and /api.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/JaimeStill/docriver/pkg/middleware"
)

// Module serves an inner handler beneath a prefix. The prefix is stripped
// before the inner handler sees the request.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System
	handler    http.Handler
}

// New creates a Module for prefix. The prefix must be a single path segment
// with a leading slash.
func New(prefix string, router http.Handler) (*Module, error) {
	if err := validatePrefix(prefix); err != nil {
		return nil, err
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}, nil
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use adds middleware to the module's stack. Middleware added after the
// first request is served has no effect.
func (m *Module) Use(mw middleware.Func) {
	m.middleware.Use(mw)
}

// Handler returns the inner router wrapped with the module's middleware.
func (m *Module) Handler() http.Handler {
	if m.handler == nil {
		m.handler = m.middleware.Apply(m.router)
	}
	return m.handler
}

// ServeHTTP strips the prefix and dispatches to the wrapped inner router.
func (m *Module) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	m.Handler().ServeHTTP(w, strip(req, m.prefix))
}

func strip(req *http.Request, prefix string) *http.Request {
	path := strings.TrimPrefix(req.URL.Path, prefix)
	if path == "" {
		path = "/"
	}

	r := new(http.Request)
	*r = *req
	r.URL = new(url.URL)
	*r.URL = *req.URL
	r.URL.Path = path
	r.URL.RawPath = ""
	return r
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case prefix == "/" || strings.Count(prefix, "/") != 1:
		return fmt.Errorf("module prefix must be a single-level sub-path: %s", prefix)
	}
	return nil
}
