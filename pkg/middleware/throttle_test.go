package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestThrottleDisabled(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	wrapped := Throttle(0)(handler)
	for i := 0; i < 5; i++ {
		wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	}
	if calls != 5 {
		t.Errorf("Expected 5 calls, got %d", calls)
	}
}

func TestThrottlePassesRequests(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNoContent)
	})

	wrapped := Throttle(1000)(handler)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
		if rr.Code != http.StatusNoContent {
			t.Errorf("Expected status code %d, got %d", http.StatusNoContent, rr.Code)
		}
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestThrottleCanceledRequest(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not run for a canceled request")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rr := httptest.NewRecorder()
	Throttle(1000)(handler).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil).WithContext(ctx))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status code %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}
