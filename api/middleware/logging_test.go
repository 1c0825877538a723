package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			t.Fatalf("log line is not json: %q", raw)
		}
		lines = append(lines, line)
	}
	return lines
}

func TestLoggingRecordsRouteStatusAndSize(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("info"), Output: &buf})

	r := chi.NewRouter()
	r.Use(Logging(logg))
	r.Get("/api/v1/orders/{orderNumber}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	})
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/GH2610190001", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	lines := logLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected probe to log below info, got %d lines", len(lines))
	}
	line := lines[0]
	if line["route"] != "/api/v1/orders/{orderNumber}" || line["status"] != float64(200) || line["bytes"] != float64(5) {
		t.Fatalf("unexpected fields %v", line)
	}
	if line["remote_ip"] != "203.0.113.9" || line["message"] != "request.complete" {
		t.Fatalf("unexpected fields %v", line)
	}
}

func TestLoggingWarnsOnServerErrors(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("info"), Output: &buf})

	h := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil))

	lines := logLines(t, &buf)
	if len(lines) != 1 || lines[0]["level"] != "warn" || lines[0]["route"] != "unmatched" {
		t.Fatalf("unexpected log %v", lines)
	}
}
