// Package args binds request values to handler parameters.
//
// A handler declares its parameters with a Signature. Fill wraps the handler
// so that, per request, every parameter is resolved from the query string,
// the form body and the JSON body, in increasing precedence, and checked
// against its declared Kind before the handler runs. Resolution failures are
// returned as *router.HTTPError values and the handler is not called.
package args

import (
	"fmt"
	"net/http"

	"github.com/Suhaibinator/SRouterTools/pkg/codec"
	"github.com/Suhaibinator/SRouterTools/pkg/router"
)

// Kind is a scalar parameter type.
type Kind int

const (
	String Kind = iota + 1
	Int
	Float
	Bool
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Accepts reports whether v has exactly the runtime type k describes.
// Values are never converted: "3" is not an Int.
func (k Kind) Accepts(v any) bool {
	switch k {
	case String:
		_, ok := v.(string)
		return ok
	case Int:
		switch v.(type) {
		case int64, int:
			return true
		}
		return false
	case Float:
		_, ok := v.(float64)
		return ok
	case Bool:
		_, ok := v.(bool)
		return ok
	default:
		return false
	}
}

// Signature describes a handler's parameter list.
type Signature struct {
	// Params are the parameter names in declaration order.
	Params []string

	// Defaults are default values for the last len(Defaults) parameters.
	Defaults []any

	// Types optionally constrains parameters to a scalar Kind.
	Types map[string]Kind
}

// defaults maps parameter names to their default values.
func (s Signature) defaults() map[string]any {
	if len(s.Defaults) > len(s.Params) {
		panic(fmt.Sprintf("args: %d defaults for %d parameters", len(s.Defaults), len(s.Params)))
	}
	out := make(map[string]any, len(s.Defaults))
	offset := len(s.Params) - len(s.Defaults)
	for i, v := range s.Defaults {
		out[s.Params[offset+i]] = v
	}
	return out
}

// Option configures resolution.
type Option func(*options)

type options struct {
	jsonOnly bool
	sources  []Source
}

// WithJSONOnly rejects requests without a JSON object body with 415
// Unsupported Media Type.
func WithJSONOnly() Option {
	return func(o *options) {
		o.jsonOnly = true
	}
}

// WithSources replaces the default sources. Later sources take precedence.
func WithSources(sources ...Source) Option {
	return func(o *options) {
		o.sources = sources
	}
}

func newOptions(opts []Option) *options {
	o := &options{sources: DefaultSources()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Resolve computes the named arguments of sig for c. Parameters already
// filled positionally are skipped; parameters already present in c.Named,
// such as path parameters, count as supplied.
func Resolve(sig Signature, c *router.Call, opts ...Option) (map[string]any, error) {
	return resolve(sig, sig.defaults(), newOptions(opts), c)
}

func resolve(sig Signature, defaults map[string]any, o *options, c *router.Call) (map[string]any, error) {
	if o.jsonOnly {
		if _, err := codec.DecodeObject(c.Request); err != nil {
			return nil, router.NewHTTPError(http.StatusUnsupportedMediaType, `please use "application/json"`)
		}
	}

	merged := make(map[string]any)
	for _, src := range o.sources {
		values, err := src.Values(c.Request)
		if err != nil {
			return nil, router.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Cannot read %s arguments: %v", src.Name(), err))
		}
		for k, v := range values {
			merged[k] = v
		}
	}

	resolved := make(map[string]any, len(sig.Params))
	for i, name := range sig.Params {
		if i < len(c.Positional) {
			continue
		}

		if v, ok := merged[name]; ok {
			if kind, typed := sig.Types[name]; typed && !kind.Accepts(v) {
				return nil, router.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Please provide `%s: %s`", name, kind))
			}
			resolved[name] = v
			continue
		}

		// Path parameters are seeded into Named and are held to the same
		// type constraint as request values.
		if v, ok := c.Named[name]; ok {
			if kind, typed := sig.Types[name]; typed && !kind.Accepts(v) {
				return nil, router.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Please provide `%s: %s`", name, kind))
			}
			continue
		}
		if v, ok := defaults[name]; ok {
			resolved[name] = v
			continue
		}
		return nil, router.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Please provide `%s`", name))
	}
	return resolved, nil
}

// Fill wraps fn so that its parameters are resolved before it runs. The
// resolved values are merged into c.Named. Temporary files of a parsed
// multipart body are removed once fn returns. Fill panics if sig has more
// defaults than parameters.
func Fill(sig Signature, fn router.HandlerFunc, opts ...Option) router.HandlerFunc {
	defaults := sig.defaults()
	o := newOptions(opts)

	return func(c *router.Call) (any, error) {
		defer func() {
			if mf := c.Request.MultipartForm; mf != nil {
				_ = mf.RemoveAll()
			}
		}()

		resolved, err := resolve(sig, defaults, o, c)
		if err != nil {
			return nil, err
		}
		if c.Named == nil {
			c.Named = make(map[string]any, len(resolved))
		}
		for k, v := range resolved {
			c.Named[k] = v
		}
		return fn(c)
	}
}

// Value returns the named argument name as a T.
func Value[T any](c *router.Call, name string) (T, bool) {
	v, ok := c.Named[name].(T)
	return v, ok
}
