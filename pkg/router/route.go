package router

import (
	"net/http"
	"slices"
	"time"

	"github.com/Suhaibinator/SRouterTools/pkg/codec"
)

// Handler produces the result for a matched route. The returned value is
// rendered by the router; a returned error is rendered as an HTTP error.
type Handler interface {
	ServeCall(c *Call) (any, error)
}

// HandlerFunc adapts an ordinary function to Handler.
type HandlerFunc func(c *Call) (any, error)

// ServeCall calls f(c).
func (f HandlerFunc) ServeCall(c *Call) (any, error) {
	return f(c)
}

// Call carries one dispatch into a route handler. It is created per request
// and replaces any ambient request/response state: everything a handler or
// plugin needs travels through it explicitly.
type Call struct {
	// Request is the live request.
	Request *http.Request

	// Response is the live response writer.
	Response http.ResponseWriter

	// Route is the matched route.
	Route *Route

	// Positional holds arguments passed ahead of the named ones. Plugins may
	// prepend to it.
	Positional []any

	// Named holds named arguments. The router seeds it with path parameters.
	Named map[string]any
}

// Param returns the path parameter name, or "" when it is absent.
func (c *Call) Param(name string) string {
	return GetParam(c.Request, name)
}

// Route is a (path pattern, method) pair bound to a handler.
type Route struct {
	Method      string         // HTTP method
	Path        string         // httprouter path pattern
	Handler     Handler        // Route handler
	Config      map[string]any // Per-route configuration overlay
	Codec       codec.Codec    // Result codec; the router default when nil
	Timeout     time.Duration  // Overrides RouterConfig.GlobalTimeout when > 0
	MaxBodySize int64          // Overrides RouterConfig.GlobalMaxBodySize when > 0
	Middlewares []Middleware   // Route-specific middlewares
	Skip        []string       // Names of plugins not applied to this route

	router *Router
}

// ConfigValue looks key up in the route's overlay, then in the router config.
func (rt *Route) ConfigValue(key string) (any, bool) {
	if v, ok := rt.Config[key]; ok {
		return v, true
	}
	if rt.router == nil {
		return nil, false
	}
	return rt.router.config.Get(key)
}

// ConfigBool returns the boolean value of key, or false when it is unset or
// not a bool.
func (rt *Route) ConfigBool(key string) bool {
	v, ok := rt.ConfigValue(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Skips reports whether the plugin named name is disabled for the route.
func (rt *Route) Skips(name string) bool {
	return slices.Contains(rt.Skip, name)
}

// Registrar is the route registration capability. Router and Group implement
// it; wrappers can intercept every registration by implementing it too.
type Registrar interface {
	Handle(method, path string, h Handler, opts ...RouteOption) *Route
}

// Plugin is a per-router installable unit that wraps route callbacks.
type Plugin interface {
	// Name identifies the plugin. Names are unique per router.
	Name() string

	// Setup is called once on Install, before the plugin is used.
	Setup(r *Router) error

	// Apply wraps next for route. It is called at dispatch time.
	Apply(next HandlerFunc, route *Route) HandlerFunc
}

// Group registers routes under a common path prefix with shared middlewares.
type Group struct {
	parent      Registrar
	prefix      string
	middlewares []Middleware
}

// Handle registers h for method at the group prefix joined with path.
func (g *Group) Handle(method, path string, h Handler, opts ...RouteOption) *Route {
	if len(g.middlewares) > 0 {
		opts = append([]RouteOption{WithMiddlewares(g.middlewares...)}, opts...)
	}
	return g.parent.Handle(method, g.prefix+path, h, opts...)
}

// NewGroup creates a group registering through parent. It lets registrar
// wrappers offer groups of their own.
func NewGroup(parent Registrar, prefix string, mws ...Middleware) *Group {
	return &Group{parent: parent, prefix: prefix, middlewares: mws}
}

// Group creates a nested group.
func (g *Group) Group(prefix string, mws ...Middleware) *Group {
	return NewGroup(g, prefix, mws...)
}

// GET registers a GET route.
func (g *Group) GET(path string, h Handler, opts ...RouteOption) *Route {
	return g.Handle(http.MethodGet, path, h, opts...)
}

// POST registers a POST route.
func (g *Group) POST(path string, h Handler, opts ...RouteOption) *Route {
	return g.Handle(http.MethodPost, path, h, opts...)
}

// PUT registers a PUT route.
func (g *Group) PUT(path string, h Handler, opts ...RouteOption) *Route {
	return g.Handle(http.MethodPut, path, h, opts...)
}

// PATCH registers a PATCH route.
func (g *Group) PATCH(path string, h Handler, opts ...RouteOption) *Route {
	return g.Handle(http.MethodPatch, path, h, opts...)
}

// DELETE registers a DELETE route.
func (g *Group) DELETE(path string, h Handler, opts ...RouteOption) *Route {
	return g.Handle(http.MethodDelete, path, h, opts...)
}

// OPTIONS registers an OPTIONS route.
func (g *Group) OPTIONS(path string, h Handler, opts ...RouteOption) *Route {
	return g.Handle(http.MethodOptions, path, h, opts...)
}
