// Package router provides the host router the SRouterTools layers plug into:
// a route table over httprouter, handlers that return values, after-request
// hooks, plugins and a definable configuration store.
package router

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/Suhaibinator/SRouterTools/pkg/codec"
	"github.com/Suhaibinator/SRouterTools/pkg/common"
	"github.com/Suhaibinator/SRouterTools/pkg/middleware"
	"go.uber.org/zap"
)

// RouterConfig defines the global configuration for the router.
type RouterConfig struct {
	Logger            *zap.Logger                  // Logger for all router operations
	GlobalTimeout     time.Duration                // Default response timeout for all routes
	GlobalMaxBodySize int64                        // Default maximum request body size in bytes
	EnableMetrics     bool                         // Enable Prometheus request metrics
	MetricsConfig     *middleware.PrometheusConfig // Metrics configuration; all metrics on the default registerer when nil
	EnableTraceID     bool                         // Assign trace ids and log them
	ThrottleRPS       int                          // Pace all requests to this rate; 0 disables
	HandleOPTIONS     bool                         // Let httprouter answer OPTIONS for paths without an OPTIONS route
	Middlewares       []common.Middleware          // Global middlewares applied to all requests
	Codec             codec.Codec                  // Default result codec; JSON when nil
}

// Middleware is an alias for common.Middleware.
type Middleware = common.Middleware

// RouteOption configures a route at registration time.
type RouteOption func(*Route)

// WithConfig sets a per-route configuration value. Route values take
// precedence over router-level values for the same key.
func WithConfig(key string, value any) RouteOption {
	return func(rt *Route) {
		if rt.Config == nil {
			rt.Config = make(map[string]any)
		}
		rt.Config[key] = value
	}
}

// WithCodec sets the codec used to encode the route's results.
func WithCodec(c codec.Codec) RouteOption {
	return func(rt *Route) {
		rt.Codec = c
	}
}

// WithTimeout overrides the global timeout for the route.
func WithTimeout(d time.Duration) RouteOption {
	return func(rt *Route) {
		rt.Timeout = d
	}
}

// WithMaxBodySize overrides the global max body size for the route.
func WithMaxBodySize(n int64) RouteOption {
	return func(rt *Route) {
		rt.MaxBodySize = n
	}
}

// WithMiddlewares adds middlewares applied only to the route.
func WithMiddlewares(mws ...Middleware) RouteOption {
	return func(rt *Route) {
		rt.Middlewares = append(rt.Middlewares, mws...)
	}
}

// WithSkip disables the named plugins for the route.
func WithSkip(plugins ...string) RouteOption {
	return func(rt *Route) {
		rt.Skip = append(rt.Skip, plugins...)
	}
}

// ConfigMeta describes a defined configuration key.
type ConfigMeta struct {
	Default any
	Help    string
}

// Config is a router-wide key/value store. Plugins define the keys they read
// with a default and a help text; routes overlay it with their own values.
// It is safe for concurrent use.
type Config struct {
	mu     sync.RWMutex
	values map[string]any
	meta   map[string]ConfigMeta
}

// NewConfig creates an empty Config.
func NewConfig() *Config {
	return &Config{
		values: make(map[string]any),
		meta:   make(map[string]ConfigMeta),
	}
}

// Define declares key with a default value and help text. An explicitly set
// value is kept; otherwise the default becomes the value.
func (c *Config) Define(key string, def any, help string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.meta[key] = ConfigMeta{Default: def, Help: help}
	if _, ok := c.values[key]; !ok {
		c.values[key] = def
	}
}

// Set stores value under key. If key was defined with a default, value must
// have the same dynamic type as the default.
func (c *Config) Set(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.meta[key]; ok && m.Default != nil {
		if reflect.TypeOf(m.Default) != reflect.TypeOf(value) {
			return fmt.Errorf("router: config %q expects %T, got %T", key, m.Default, value)
		}
	}
	c.values[key] = value
	return nil
}

// Get returns the value stored under key.
func (c *Config) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.values[key]
	return v, ok
}

// Meta returns the definition of key, if it was defined.
func (c *Config) Meta(key string) (ConfigMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.meta[key]
	return m, ok
}

// Keys returns all keys holding a value, sorted.
func (c *Config) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
