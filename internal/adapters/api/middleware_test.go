package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"remote addr only", "203.0.113.10:54321", "", "203.0.113.10"},
		{"forwarded single", "10.0.0.1:80", "198.51.100.7", "198.51.100.7"},
		{"forwarded chain", "10.0.0.1:80", "198.51.100.7, 10.0.0.2, 10.0.0.1", "198.51.100.7"},
		{"forwarded with spaces", "10.0.0.1:80", "  198.51.100.7 , 10.0.0.2", "198.51.100.7"},
		{"no port", "203.0.113.10", "", "203.0.113.10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestLoggingCapturesStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	h := WithRequestLogging(logger)(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v2/admin/x", nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("middleware altered the status: %d", rec.Code)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"status":403`)) {
		t.Fatalf("status not logged: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"path":"/api/v2/admin/x"`)) {
		t.Fatalf("path not logged: %s", buf.String())
	}
}

func TestServerHeaderStamped(t *testing.T) {
	h := WithServerHeader(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if got := rec.Header().Get("Server"); got != serverHeader {
		t.Fatalf("Server header = %q, want %q", got, serverHeader)
	}
}
