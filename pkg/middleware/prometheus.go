package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusConfig selects which request metrics are collected.
type PrometheusConfig struct {
	Registerer       prometheus.Registerer // Defaults to prometheus.DefaultRegisterer
	Namespace        string                // Namespace for metrics
	Subsystem        string                // Subsystem for metrics
	EnableLatency    bool                  // request_duration_seconds histogram
	EnableThroughput bool                  // response_bytes_total counter
	EnableQPS        bool                  // requests_total counter
	EnableErrors     bool                  // request_errors_total counter (status >= 400)
}

// RouteLabeler returns the label used for the route of a request. Using the
// route pattern rather than the raw URL path keeps label cardinality bounded.
type RouteLabeler func(r *http.Request) string

// PrometheusMetrics returns a middleware that records request metrics with
// method, route and status labels. Collectors are registered once on
// cfg.Registerer; registering the same collectors twice returns an error.
func PrometheusMetrics(cfg PrometheusConfig, route RouteLabeler) (Middleware, error) {
	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if route == nil {
		route = func(r *http.Request) string { return r.URL.Path }
	}

	labels := []string{"method", "route", "status"}

	var (
		latency    *prometheus.HistogramVec
		throughput *prometheus.CounterVec
		requests   *prometheus.CounterVec
		errs       *prometheus.CounterVec
	)

	if cfg.EnableLatency {
		latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "request_duration_seconds",
			Help:      "Time spent serving HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, labels)
		if err := reg.Register(latency); err != nil {
			return nil, err
		}
	}
	if cfg.EnableThroughput {
		throughput = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "response_bytes_total",
			Help:      "Response body bytes written.",
		}, labels)
		if err := reg.Register(throughput); err != nil {
			return nil, err
		}
	}
	if cfg.EnableQPS {
		requests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "requests_total",
			Help:      "HTTP requests served.",
		}, labels)
		if err := reg.Register(requests); err != nil {
			return nil, err
		}
	}
	if cfg.EnableErrors {
		errs = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "request_errors_total",
			Help:      "HTTP requests answered with a 4xx or 5xx status.",
		}, labels)
		if err := reg.Register(errs); err != nil {
			return nil, err
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := NewStatusRecorder(w)

			next.ServeHTTP(rw, r)

			lv := []string{r.Method, route(r), strconv.Itoa(rw.Status())}
			if latency != nil {
				latency.WithLabelValues(lv...).Observe(time.Since(start).Seconds())
			}
			if throughput != nil {
				throughput.WithLabelValues(lv...).Add(float64(rw.BytesWritten()))
			}
			if requests != nil {
				requests.WithLabelValues(lv...).Inc()
			}
			if errs != nil && rw.Status() >= 400 {
				errs.WithLabelValues(lv...).Inc()
			}
		})
	}, nil
}

// PrometheusHandler returns an HTTP handler exposing the metrics gathered by g.
// A nil gatherer exposes prometheus.DefaultGatherer.
func PrometheusHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
