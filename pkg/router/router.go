package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Suhaibinator/SRouterTools/pkg/codec"
	"github.com/Suhaibinator/SRouterTools/pkg/common"
	"github.com/Suhaibinator/SRouterTools/pkg/middleware"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Router is the main router struct that implements http.Handler.
// It keeps the route table in registration order, dispatches matched routes
// through installed plugins and runs after-request hooks on every response.
type Router struct {
	cfg     RouterConfig
	router  *httprouter.Router
	logger  *zap.Logger
	codec   codec.Codec
	config  *Config
	handler http.Handler

	mu      sync.RWMutex
	routes  []*Route
	plugins []Plugin
	hooks   []Hook

	wg         sync.WaitGroup
	shutdown   bool
	shutdownMu sync.RWMutex
}

// Hook runs after a request has been handled, immediately before the
// response header is committed. Hooks may set headers but must not write the
// body.
type Hook func(w http.ResponseWriter, req *http.Request)

// contextKey is a type for context keys.
type contextKey string

const (
	// ParamsKey is the key used to store httprouter.Params in the request context.
	ParamsKey contextKey = "params"

	// routeKey holds the *routeSlot of the current request.
	routeKey contextKey = "route"
)

// routeSlot is filled by dispatch so outer middlewares can see which route
// matched.
type routeSlot struct {
	route *Route
}

// NewRouter creates a new Router with the given configuration.
// It returns an error only when metrics are enabled and their collectors
// cannot be registered.
func NewRouter(config RouterConfig) (*Router, error) {
	hr := httprouter.New()
	hr.HandleOPTIONS = config.HandleOPTIONS

	logger := config.Logger
	if logger == nil {
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			logger = zap.NewNop()
		}
	}

	c := config.Codec
	if c == nil {
		c = codec.NewJSONCodec()
	}

	r := &Router{
		cfg:    config,
		router: hr,
		logger: logger,
		codec:  c,
		config: NewConfig(),
	}

	// Outermost first: recovery, trace ids, logging, metrics, global middlewares, throttling.
	chain := common.NewMiddlewareChain(middleware.Recovery(logger))
	if config.EnableTraceID {
		chain = chain.Append(middleware.TraceMiddleware())
	}
	chain = chain.Append(middleware.Logging(logger))
	if config.EnableMetrics {
		mcfg := middleware.PrometheusConfig{
			EnableLatency:    true,
			EnableThroughput: true,
			EnableQPS:        true,
			EnableErrors:     true,
		}
		if config.MetricsConfig != nil {
			mcfg = *config.MetricsConfig
		}
		metrics, err := middleware.PrometheusMetrics(mcfg, RoutePattern)
		if err != nil {
			return nil, fmt.Errorf("router: registering metrics: %w", err)
		}
		chain = chain.Append(metrics)
	}
	chain = chain.Append(config.Middlewares...)
	if config.ThrottleRPS > 0 {
		chain = chain.Append(middleware.Throttle(config.ThrottleRPS))
	}
	r.handler = chain.Then(hr)

	return r, nil
}

// Logger returns the router's logger.
func (r *Router) Logger() *zap.Logger {
	return r.logger
}

// Config returns the router-wide configuration store.
func (r *Router) Config() *Config {
	return r.config
}

// Handle registers h for method and path. It panics, like httprouter, when
// the path conflicts with an existing registration.
func (r *Router) Handle(method, path string, h Handler, opts ...RouteOption) *Route {
	route := &Route{
		Method:  method,
		Path:    path,
		Handler: h,
		router:  r,
	}
	for _, opt := range opts {
		opt(route)
	}

	r.router.Handle(method, path, r.dispatch(route))

	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.mu.Unlock()

	r.logger.Debug("Route registered",
		zap.String("method", method),
		zap.String("path", path),
	)
	return route
}

// GET registers a GET route.
func (r *Router) GET(path string, h Handler, opts ...RouteOption) *Route {
	return r.Handle(http.MethodGet, path, h, opts...)
}

// POST registers a POST route.
func (r *Router) POST(path string, h Handler, opts ...RouteOption) *Route {
	return r.Handle(http.MethodPost, path, h, opts...)
}

// PUT registers a PUT route.
func (r *Router) PUT(path string, h Handler, opts ...RouteOption) *Route {
	return r.Handle(http.MethodPut, path, h, opts...)
}

// PATCH registers a PATCH route.
func (r *Router) PATCH(path string, h Handler, opts ...RouteOption) *Route {
	return r.Handle(http.MethodPatch, path, h, opts...)
}

// DELETE registers a DELETE route.
func (r *Router) DELETE(path string, h Handler, opts ...RouteOption) *Route {
	return r.Handle(http.MethodDelete, path, h, opts...)
}

// OPTIONS registers an OPTIONS route.
func (r *Router) OPTIONS(path string, h Handler, opts ...RouteOption) *Route {
	return r.Handle(http.MethodOptions, path, h, opts...)
}

// Group returns a registrar that prefixes paths and adds middlewares.
func (r *Router) Group(prefix string, mws ...Middleware) *Group {
	return NewGroup(r, prefix, mws...)
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []*Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make([]*Route, len(r.routes))
	copy(routes, r.routes)
	return routes
}

// AfterRequest registers a hook run for every request, matched or not.
// Hooks run in registration order.
func (r *Router) AfterRequest(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

// Install sets up p and adds it to the router. Installing two plugins with
// the same name is an error.
func (r *Router) Install(p Plugin) error {
	r.mu.RLock()
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			r.mu.RUnlock()
			return fmt.Errorf("router: plugin %q already installed", p.Name())
		}
	}
	r.mu.RUnlock()

	if err := p.Setup(r); err != nil {
		return fmt.Errorf("router: setting up plugin %q: %w", p.Name(), err)
	}

	r.mu.Lock()
	r.plugins = append(r.plugins, p)
	r.mu.Unlock()

	r.logger.Debug("Plugin installed", zap.String("plugin", p.Name()))
	return nil
}

// callback builds the handler chain for route from the installed plugins.
// The first installed plugin is the outermost.
func (r *Router) callback(route *Route) HandlerFunc {
	r.mu.RLock()
	plugins := make([]Plugin, len(r.plugins))
	copy(plugins, r.plugins)
	r.mu.RUnlock()

	fn := HandlerFunc(route.Handler.ServeCall)
	for i := len(plugins) - 1; i >= 0; i-- {
		if route.Skips(plugins[i].Name()) {
			continue
		}
		fn = plugins[i].Apply(fn, route)
	}
	return fn
}

// dispatch converts a route into an httprouter.Handle. It stores the params
// in the request context, builds the Call and renders the result.
func (r *Router) dispatch(route *Route) httprouter.Handle {
	var once sync.Once
	var handler http.Handler

	build := func() {
		h := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ps := GetParams(req)
			named := make(map[string]any, len(ps))
			for _, p := range ps {
				named[p.Key] = p.Value
			}

			call := &Call{
				Request:  req,
				Response: w,
				Route:    route,
				Named:    named,
			}

			result, err := r.callback(route)(call)
			if err != nil {
				r.handleError(w, req, err)
				return
			}
			r.render(w, req, route, result)
		}))

		chain := common.NewMiddlewareChain(route.Middlewares...)
		if n := r.effectiveMaxBodySize(route); n > 0 {
			chain = chain.Append(middleware.MaxBodySize(n))
		}
		if d := r.effectiveTimeout(route); d > 0 {
			chain = chain.Append(middleware.Timeout(d))
		}
		handler = chain.Then(h)
	}

	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		once.Do(build)

		if slot, ok := req.Context().Value(routeKey).(*routeSlot); ok {
			slot.route = route
		}
		ctx := context.WithValue(req.Context(), ParamsKey, ps)
		handler.ServeHTTP(w, req.WithContext(ctx))
	}
}

func (r *Router) effectiveTimeout(route *Route) time.Duration {
	if route.Timeout > 0 {
		return route.Timeout
	}
	return r.cfg.GlobalTimeout
}

func (r *Router) effectiveMaxBodySize(route *Route) int64 {
	if route.MaxBodySize > 0 {
		return route.MaxBodySize
	}
	return r.cfg.GlobalMaxBodySize
}

// render writes a handler result. Strings are written as text, byte slices as
// an octet stream, nil writes nothing, and anything else goes through the
// route's codec.
func (r *Router) render(w http.ResponseWriter, req *http.Request, route *Route, result any) {
	switch v := result.(type) {
	case nil:
		return
	case string:
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		_, _ = w.Write([]byte(v))
	case []byte:
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		_, _ = w.Write(v)
	default:
		c := route.Codec
		if c == nil {
			c = r.codec
		}
		if err := c.Encode(w, v); err != nil {
			r.handleError(w, req, fmt.Errorf("encoding result: %w", err))
		}
	}
}

// ServeHTTP implements the http.Handler interface.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.wg.Add(1)

	r.shutdownMu.RLock()
	isShutdown := r.shutdown
	r.shutdownMu.RUnlock()

	if isShutdown {
		r.wg.Done()
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	defer r.wg.Done()

	r.mu.RLock()
	hooks := make([]Hook, len(r.hooks))
	copy(hooks, r.hooks)
	r.mu.RUnlock()

	ctx := context.WithValue(req.Context(), routeKey, &routeSlot{})
	req = req.WithContext(ctx)

	hw := &hookWriter{ResponseWriter: w, hooks: hooks, req: req}
	r.handler.ServeHTTP(hw, req)
	hw.runHooks()
}

// Shutdown gracefully shuts down the router.
// It stops accepting new requests and waits for existing requests to complete.
// If the context is canceled before all requests complete, it returns the context's error.
func (r *Router) Shutdown(ctx context.Context) error {
	r.shutdownMu.Lock()
	r.shutdown = true
	r.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetParams retrieves the httprouter.Params from the request context.
func GetParams(r *http.Request) httprouter.Params {
	params, _ := r.Context().Value(ParamsKey).(httprouter.Params)
	return params
}

// GetParam retrieves a specific parameter from the request context.
func GetParam(r *http.Request, name string) string {
	return GetParams(r).ByName(name)
}

// MatchedRoute returns the route that matched req, or nil.
// It is only populated for requests served by a Router.
func MatchedRoute(req *http.Request) *Route {
	if slot, ok := req.Context().Value(routeKey).(*routeSlot); ok {
		return slot.route
	}
	return nil
}

// RoutePattern returns the path pattern of the route that matched req, or
// "unmatched".
func RoutePattern(req *http.Request) string {
	if route := MatchedRoute(req); route != nil {
		return route.Path
	}
	return "unmatched"
}

// handleError logs err and writes an HTTP error response.
// An *HTTPError controls the status code and message; any other error is a
// 500 Internal Server Error.
func (r *Router) handleError(w http.ResponseWriter, req *http.Request, err error) {
	statusCode := http.StatusInternalServerError
	message := http.StatusText(statusCode)

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		statusCode = httpErr.StatusCode
		message = httpErr.Message
	}

	fields := []zap.Field{
		zap.Error(err),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", statusCode),
	}
	if r.cfg.EnableTraceID {
		if traceID := middleware.GetTraceID(req); traceID != "" {
			fields = append([]zap.Field{zap.String("trace_id", traceID)}, fields...)
		}
	}

	if statusCode >= 500 {
		r.logger.Error("Handler error", fields...)
	} else {
		r.logger.Debug("Request rejected", fields...)
	}

	http.Error(w, message, statusCode)
}

// HTTPError represents an HTTP error with a status code and message.
// Handlers return it to control the exact error response sent to clients.
type HTTPError struct {
	StatusCode int    // HTTP status code (e.g., 400, 404, 500)
	Message    string // Error message to be sent in the response body
}

// Error implements the error interface.
// It returns a string representation of the HTTP error in the format "status: message".
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates a new HTTPError with the specified status code and message.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// hookWriter runs the router's after-request hooks exactly once, right
// before the header is committed or when the request finishes without
// writing.
type hookWriter struct {
	http.ResponseWriter
	hooks []Hook
	req   *http.Request
	ran   bool
	mu    sync.Mutex
}

func (hw *hookWriter) runHooks() {
	hw.mu.Lock()
	if hw.ran {
		hw.mu.Unlock()
		return
	}
	hw.ran = true
	hw.mu.Unlock()

	for _, h := range hw.hooks {
		h(hw.ResponseWriter, hw.req)
	}
}

// WriteHeader runs the hooks and calls the underlying ResponseWriter.WriteHeader
func (hw *hookWriter) WriteHeader(statusCode int) {
	hw.runHooks()
	hw.ResponseWriter.WriteHeader(statusCode)
}

// Write runs the hooks and calls the underlying ResponseWriter.Write
func (hw *hookWriter) Write(b []byte) (int, error) {
	hw.runHooks()
	return hw.ResponseWriter.Write(b)
}

// Flush calls the underlying ResponseWriter.Flush if it implements http.Flusher
func (hw *hookWriter) Flush() {
	hw.runHooks()
	if f, ok := hw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (hw *hookWriter) Unwrap() http.ResponseWriter {
	return hw.ResponseWriter
}
