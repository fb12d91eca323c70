package middleware

import (
	"net/http"

	"go.uber.org/ratelimit"
)

// Throttle paces requests through next to at most rps requests per second
// using a leaky bucket. Requests over the rate wait for their slot instead of
// being rejected. A non-positive rps disables throttling.
func Throttle(rps int, opts ...ratelimit.Option) Middleware {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := ratelimit.New(rps, opts...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter.Take()
			if err := r.Context().Err(); err != nil {
				http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
