// Package cors answers cross-origin preflight requests for the routes already
// registered on a router and stamps the CORS origin headers on every response.
package cors

import (
	"net/http"
	"slices"
	"strings"

	"github.com/Suhaibinator/SRouterTools/pkg/router"
	"go.uber.org/zap"
)

// AllowHeaders is the fixed request header allow-list sent with every header set.
const AllowHeaders = "Origin, Accept, Content-Type, X-Requested-With, X-CSRF-Token"

// Header names.
const (
	HeaderAllowHeaders     = "Access-Control-Allow-Headers"
	HeaderAllowOrigin      = "Access-Control-Allow-Origin"
	HeaderAllowMethods     = "Access-Control-Allow-Methods"
	HeaderAllowCredentials = "Access-Control-Allow-Credentials"
)

// Credentials is the tri-state Access-Control-Allow-Credentials setting.
type Credentials int

const (
	// CredentialsUnset omits the credentials header.
	CredentialsUnset Credentials = iota
	// CredentialsAllow sends "true".
	CredentialsAllow
	// CredentialsDeny sends "false".
	CredentialsDeny
)

func (c Credentials) String() string {
	switch c {
	case CredentialsAllow:
		return "true"
	case CredentialsDeny:
		return "false"
	default:
		return ""
	}
}

// Headers builds the CORS header set for one response. Allow-Methods is only
// included when methods is non-empty and Allow-Credentials only when cred is
// not CredentialsUnset.
func Headers(cred Credentials, origin, methods string) http.Header {
	h := http.Header{}
	h.Set(HeaderAllowHeaders, AllowHeaders)
	h.Set(HeaderAllowOrigin, origin)
	if methods != "" {
		h.Set(HeaderAllowMethods, methods)
	}
	if cred != CredentialsUnset {
		h.Set(HeaderAllowCredentials, cred.String())
	}
	return h
}

// Option configures Add.
type Option func(*config)

type config struct {
	origin      string
	credentials Credentials
	logger      *zap.Logger
}

// WithOrigin fixes Access-Control-Allow-Origin. Without it the request's
// Origin header is echoed.
func WithOrigin(origin string) Option {
	return func(cfg *config) {
		cfg.origin = origin
	}
}

// WithCredentials sets the credentials header. Default: CredentialsAllow.
func WithCredentials(c Credentials) Option {
	return func(cfg *config) {
		cfg.credentials = c
	}
}

// WithLogger sets the logger. Default: the router's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// Add registers an OPTIONS preflight route for every path of r that has no
// OPTIONS route yet, and an after-request hook that sets the origin and
// credentials headers on every response. It returns the number of preflight
// routes added.
//
// Add must be called after all routes are registered: the preflight answer
// lists the methods known at the time of the call.
func Add(r *router.Router, opts ...Option) int {
	cfg := &config{credentials: CredentialsAllow}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = r.Logger()
	}

	// Group methods by path, keeping first-seen order for both.
	var paths []string
	methods := make(map[string][]string)
	for _, route := range r.Routes() {
		if _, ok := methods[route.Path]; !ok {
			paths = append(paths, route.Path)
		}
		if !slices.Contains(methods[route.Path], route.Method) {
			methods[route.Path] = append(methods[route.Path], route.Method)
		}
	}

	added := 0
	for _, path := range paths {
		if slices.Contains(methods[path], http.MethodOptions) {
			continue
		}
		r.OPTIONS(path, preflight(cfg, strings.Join(methods[path], ", ")))
		added++
		cfg.logger.Debug("CORS preflight route added",
			zap.String("path", path),
			zap.Strings("methods", methods[path]),
		)
	}

	r.AfterRequest(func(w http.ResponseWriter, req *http.Request) {
		if origin := cfg.resolveOrigin(req); origin != "" {
			w.Header().Set(HeaderAllowOrigin, origin)
		}
		if cfg.credentials != CredentialsUnset {
			w.Header().Set(HeaderAllowCredentials, cfg.credentials.String())
		}
	})

	cfg.logger.Info("CORS enabled",
		zap.Int("preflight_routes", added),
		zap.String("origin", cfg.origin),
	)
	return added
}

func (cfg *config) resolveOrigin(req *http.Request) string {
	if cfg.origin != "" {
		return cfg.origin
	}
	return req.Header.Get("Origin")
}

func preflight(cfg *config, methods string) router.HandlerFunc {
	return func(c *router.Call) (any, error) {
		origin := cfg.resolveOrigin(c.Request)
		for k, v := range Headers(cfg.credentials, origin, methods) {
			if k == HeaderAllowOrigin && origin == "" {
				continue
			}
			c.Response.Header()[k] = v
		}
		return nil, nil
	}
}
