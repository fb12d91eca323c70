package docs

import (
	"fmt"

	"github.com/Suhaibinator/SRouterTools/pkg/router"
	"gopkg.in/yaml.v3"
)

// Entry is one route in the documentation index.
type Entry struct {
	Method string `json:"method" yaml:"method"`
	Path   string `json:"path" yaml:"path"`
	Doc    string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// Collect lists r's routes in registration order with their documentation.
func Collect(r *router.Router) []Entry {
	routes := r.Routes()
	entries := make([]Entry, 0, len(routes))
	for _, route := range routes {
		e := Entry{Method: route.Method, Path: route.Path}
		if d, ok := route.Handler.(Documented); ok {
			e.Doc = d.Doc()
		}
		entries = append(entries, e)
	}
	return entries
}

// IndexHandler serves Collect(r) as JSON, or as YAML with ?format=yaml.
func IndexHandler(r *router.Router) router.HandlerFunc {
	return func(c *router.Call) (any, error) {
		entries := Collect(r)
		if c.Request.URL.Query().Get("format") != "yaml" {
			return entries, nil
		}

		out, err := yaml.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("marshaling docs index: %w", err)
		}
		c.Response.Header().Set("Content-Type", "application/yaml")
		return out, nil
	}
}
