package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric returns the gathered metric family with the given name.
func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() returned error: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

// TestPrometheusMetrics tests that requests are counted with route labels
func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	mw, err := PrometheusMetrics(PrometheusConfig{
		Registerer:       reg,
		Namespace:        "test",
		Subsystem:        "api",
		EnableLatency:    true,
		EnableThroughput: true,
		EnableQPS:        true,
		EnableErrors:     true,
	}, func(r *http.Request) string { return "/users/:id" })
	if err != nil {
		t.Fatalf("PrometheusMetrics() returned error: %v", err)
	}

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/missing" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("Hello, World!"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/users/1", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/users/2", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/users/missing", nil))

	requests := findMetric(t, reg, "test_api_requests_total")
	if requests == nil {
		t.Fatal("Expected test_api_requests_total to be registered")
	}
	total := 0.0
	for _, m := range requests.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "route" && lp.GetValue() != "/users/:id" {
				t.Errorf("Expected route label %q, got %q", "/users/:id", lp.GetValue())
			}
		}
		total += m.GetCounter().GetValue()
	}
	if total != 3 {
		t.Errorf("Expected 3 requests counted, got %v", total)
	}

	errs := findMetric(t, reg, "test_api_request_errors_total")
	if errs == nil || len(errs.GetMetric()) != 1 || errs.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Errorf("Expected exactly one error counted, got %v", errs)
	}

	if findMetric(t, reg, "test_api_request_duration_seconds") == nil {
		t.Error("Expected latency histogram to be registered")
	}
	if findMetric(t, reg, "test_api_response_bytes_total") == nil {
		t.Error("Expected throughput counter to be registered")
	}
}

// TestPrometheusMetricsDuplicateRegistration tests that registering twice fails
func TestPrometheusMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := PrometheusConfig{Registerer: reg, EnableQPS: true}

	if _, err := PrometheusMetrics(cfg, nil); err != nil {
		t.Fatalf("First registration returned error: %v", err)
	}
	if _, err := PrometheusMetrics(cfg, nil); err == nil {
		t.Error("Expected the second registration to fail")
	}
}

// TestPrometheusHandler tests that gathered metrics are exposed
func TestPrometheusHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "exposed_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	rr := httptest.NewRecorder()
	PrometheusHandler(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "exposed_total 1") {
		t.Errorf("Expected body to contain %q, got %q", "exposed_total 1", rr.Body.String())
	}
}
