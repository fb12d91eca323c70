package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestRecovery tests the Recovery middleware
func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	logger := zap.New(core)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	rr := httptest.NewRecorder()
	Recovery(logger)(handler).ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status code %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if logs.FilterMessage("Panic recovered").Len() != 1 {
		t.Errorf("Expected one 'Panic recovered' log message, got %d", logs.FilterMessage("Panic recovered").Len())
	}
}

// TestLogging tests the log level chosen by the Logging middleware
func TestLogging(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		level   zapcore.Level
	}{
		{"ok", http.StatusOK, "Request", zapcore.DebugLevel},
		{"client error", http.StatusBadRequest, "Client error", zapcore.WarnLevel},
		{"server error", http.StatusBadGateway, "Server error", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			logger := zap.New(core)

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			Logging(logger)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/test", nil))

			entries := logs.FilterMessage(tt.message).All()
			if len(entries) != 1 {
				t.Fatalf("Expected one %q log message, got %d", tt.message, len(entries))
			}
			if entries[0].Level != tt.level {
				t.Errorf("Expected level %v, got %v", tt.level, entries[0].Level)
			}

			fields := entries[0].ContextMap()
			if fields["method"] != "GET" {
				t.Errorf("Expected method field %q, got %v", "GET", fields["method"])
			}
			if fields["path"] != "/test" {
				t.Errorf("Expected path field %q, got %v", "/test", fields["path"])
			}
			if fields["status"] != int64(tt.status) {
				t.Errorf("Expected status field %d, got %v", tt.status, fields["status"])
			}
		})
	}
}

// TestMaxBodySize tests that bodies over the limit fail to read
func TestMaxBodySize(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(r.Body)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	MaxBodySize(5)(handler).ServeHTTP(rr, httptest.NewRequest("POST", "/test", strings.NewReader("0123456789")))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status code %d, got %d", http.StatusRequestEntityTooLarge, rr.Code)
	}

	rr = httptest.NewRecorder()
	MaxBodySize(5)(handler).ServeHTTP(rr, httptest.NewRequest("POST", "/test", strings.NewReader("0123")))
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, rr.Code)
	}
}

// TestTimeout tests the Timeout middleware
func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		<-release
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("late"))
	})

	rr := httptest.NewRecorder()
	Timeout(20*time.Millisecond)(slow).ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))
	close(release)

	if rr.Code != http.StatusRequestTimeout {
		t.Errorf("Expected status code %d, got %d", http.StatusRequestTimeout, rr.Code)
	}

	fast := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	rr = httptest.NewRecorder()
	Timeout(time.Second)(fast).ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))
	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status code %d, got %d", http.StatusCreated, rr.Code)
	}

	headerOnly := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Set", "yes")
	})

	rr = httptest.NewRecorder()
	Timeout(time.Second)(headerOnly).ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))
	if rr.Header().Get("X-Set") != "yes" {
		t.Errorf("Expected headers set without a write to reach the response, got %v", rr.Header())
	}
}

// TestTimeoutPropagatesPanic tests that panics in the handler goroutine reach Recovery
func TestTimeoutPropagatesPanic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	Recovery(zap.New(core))(Timeout(time.Second)(panicking)).ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status code %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if logs.Len() != 1 {
		t.Errorf("Expected the panic to be logged once, got %d entries", logs.Len())
	}
}

// TestStatusRecorder tests that the recorder captures status and size
func TestStatusRecorder(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := NewStatusRecorder(rr)

	if rw.Status() != http.StatusOK {
		t.Errorf("Expected default status %d, got %d", http.StatusOK, rw.Status())
	}

	rw.WriteHeader(http.StatusAccepted)
	n, err := rw.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	rw.Flush()

	if rw.Status() != http.StatusAccepted {
		t.Errorf("Expected status %d, got %d", http.StatusAccepted, rw.Status())
	}
	if rw.BytesWritten() != 5 {
		t.Errorf("Expected 5 bytes written, got %d", rw.BytesWritten())
	}
	if !rr.Flushed {
		t.Error("Expected the underlying recorder to be flushed")
	}
}
