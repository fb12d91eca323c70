// Package reqresp provides a router plugin that passes the live request and
// response writer to handlers as their leading positional arguments.
package reqresp

import (
	"github.com/Suhaibinator/SRouterTools/pkg/router"
)

// Name is the plugin name, usable with router.WithSkip.
const Name = "reqresp"

// Configuration keys read per route.
const (
	KeyPassRequest  = "reqresp.pass_request"
	KeyPassResponse = "reqresp.pass_response"
)

// Plugin prepends *http.Request and http.ResponseWriter, in that order, to
// router.Call.Positional.
type Plugin struct {
	passRequest  bool
	passResponse bool
}

// Option configures the plugin.
type Option func(*Plugin)

// WithPassRequest sets the router-wide default for passing the request.
func WithPassRequest(pass bool) Option {
	return func(p *Plugin) {
		p.passRequest = pass
	}
}

// WithPassResponse sets the router-wide default for passing the response
// writer.
func WithPassResponse(pass bool) Option {
	return func(p *Plugin) {
		p.passResponse = pass
	}
}

// New creates the plugin. Both arguments are passed unless disabled.
func New(opts ...Option) *Plugin {
	p := &Plugin{passRequest: true, passResponse: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements router.Plugin.
func (p *Plugin) Name() string { return Name }

// Setup defines the configuration keys with the plugin's options as
// defaults. Routes override them with router.WithConfig.
func (p *Plugin) Setup(r *router.Router) error {
	r.Config().Define(KeyPassRequest, p.passRequest,
		"Pass the current request as the first positional argument")
	r.Config().Define(KeyPassResponse, p.passResponse,
		"Pass the current response writer as the first positional argument after the request")
	return nil
}

// Apply implements router.Plugin.
func (p *Plugin) Apply(next router.HandlerFunc, route *router.Route) router.HandlerFunc {
	passRequest := route.ConfigBool(KeyPassRequest)
	passResponse := route.ConfigBool(KeyPassResponse)
	if !passRequest && !passResponse {
		return next
	}

	return func(c *router.Call) (any, error) {
		pre := make([]any, 0, 2+len(c.Positional))
		if passRequest {
			pre = append(pre, c.Request)
		}
		if passResponse {
			pre = append(pre, c.Response)
		}
		c.Positional = append(pre, c.Positional...)
		return next(c)
	}
}
