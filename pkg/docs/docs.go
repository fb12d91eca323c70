// Package docs annotates handler documentation with the routes the handler
// is registered on.
package docs

import (
	"net/http"
	"strings"
	"sync"

	"github.com/Suhaibinator/SRouterTools/pkg/router"
)

// Documented is implemented by handlers that carry documentation text.
type Documented interface {
	Doc() string
	PrefixDoc(line string)
}

// Handler is a router.Handler with documentation.
type Handler struct {
	fn router.HandlerFunc

	mu       sync.RWMutex
	doc      string
	prefixes []string
}

// Func returns fn documented with doc.
func Func(doc string, fn router.HandlerFunc) *Handler {
	return &Handler{fn: fn, doc: doc}
}

// ServeCall implements router.Handler.
func (h *Handler) ServeCall(c *router.Call) (any, error) {
	return h.fn(c)
}

// Doc returns the prefix lines in the order they were added, one per line,
// followed by the original documentation.
func (h *Handler) Doc() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	lines := make([]string, 0, len(h.prefixes)+1)
	lines = append(lines, h.prefixes...)
	if h.doc != "" {
		lines = append(lines, h.doc)
	}
	return strings.Join(lines, "\n")
}

// PrefixDoc adds line after the previously added prefix lines and before
// the original documentation.
func (h *Handler) PrefixDoc(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prefixes = append(h.prefixes, line)
}

// Registrar wraps a router.Registrar. Every documented handler registered
// through it gets a "<METHOD> <path>" line prefixed to its documentation.
type Registrar struct {
	reg router.Registrar
}

// Prefix wraps reg.
func Prefix(reg router.Registrar) *Registrar {
	return &Registrar{reg: reg}
}

// Handle registers h with the wrapped registrar and records the route on h
// if it is Documented. The recorded path is the full registered path.
func (p *Registrar) Handle(method, path string, h router.Handler, opts ...router.RouteOption) *router.Route {
	route := p.reg.Handle(method, path, h, opts...)
	if d, ok := h.(Documented); ok {
		d.PrefixDoc(route.Method + " " + route.Path)
	}
	return route
}

// Group creates a group whose registrations are documented.
func (p *Registrar) Group(prefix string, mws ...router.Middleware) *router.Group {
	return router.NewGroup(p, prefix, mws...)
}

// GET registers a GET route.
func (p *Registrar) GET(path string, h router.Handler, opts ...router.RouteOption) *router.Route {
	return p.Handle(http.MethodGet, path, h, opts...)
}

// POST registers a POST route.
func (p *Registrar) POST(path string, h router.Handler, opts ...router.RouteOption) *router.Route {
	return p.Handle(http.MethodPost, path, h, opts...)
}

// PUT registers a PUT route.
func (p *Registrar) PUT(path string, h router.Handler, opts ...router.RouteOption) *router.Route {
	return p.Handle(http.MethodPut, path, h, opts...)
}

// PATCH registers a PATCH route.
func (p *Registrar) PATCH(path string, h router.Handler, opts ...router.RouteOption) *router.Route {
	return p.Handle(http.MethodPatch, path, h, opts...)
}

// DELETE registers a DELETE route.
func (p *Registrar) DELETE(path string, h router.Handler, opts ...router.RouteOption) *router.Route {
	return p.Handle(http.MethodDelete, path, h, opts...)
}

// OPTIONS registers an OPTIONS route.
func (p *Registrar) OPTIONS(path string, h router.Handler, opts ...router.RouteOption) *router.Route {
	return p.Handle(http.MethodOptions, path, h, opts...)
}
