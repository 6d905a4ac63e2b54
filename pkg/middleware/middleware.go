// Package middleware provides an ordered http.Handler middleware stack and
// the request-scoped middleware the docriver server installs on it.
package middleware

import "net/http"

// Func wraps a handler.
type Func func(http.Handler) http.Handler

// System manages an ordered stack of HTTP middleware. The first middleware
// added is the outermost.
type System interface {
	Use(mw Func)
	Apply(handler http.Handler) http.Handler
	Len() int
}

type stack struct {
	fns []Func
}

// New creates an empty middleware System.
func New(fns ...Func) System {
	return &stack{fns: append([]Func{}, fns...)}
}

func (s *stack) Use(fn Func) {
	s.fns = append(s.fns, fn)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.fns) - 1; i >= 0; i-- {
		handler = s.fns[i](handler)
	}
	return handler
}

func (s *stack) Len() int {
	return len(s.fns)
}
