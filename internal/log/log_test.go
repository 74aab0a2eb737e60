package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := ConfigFromEnv("warn", "JSON", ComponentWorker)
	cfg.Output = &buf
	logger := New(cfg)

	logger.Info("dropped")
	logger.Warn("kept", FieldExpenseID, int64(42))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line above warn level, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "kept" || entry[FieldComponent] != ComponentWorker || entry[FieldExpenseID] != float64(42) {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentApp, Output: &buf})
	logger.Debug("hello", FieldYear, 2025)
	if out := buf.String(); !strings.Contains(out, "component=app") || !strings.Contains(out, "year=2025") {
		t.Errorf("unexpected text output %q", out)
	}
}

func TestMiddleware_LoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentHTTP, Output: &buf})

	var got *Logger
	handler := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
			got.InfoContext(r.Context(), "inside")
		})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/expenses", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("logger not propagated: %+v", got)
	}
	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Errorf("request id missing from %q", buf.String())
	}
}

func TestFromContext_Default(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected default logger %+v", l)
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentAuth).
		WithUser(7, "admin").
		WithError(errors.New("boom")).
		WithError(nil)

	if f[FieldUserID] != int64(7) || f[FieldRole] != "admin" || f[FieldError] != "boom" {
		t.Errorf("unexpected fields %v", f)
	}
	if got := len(f.ToSlice()); got != 2*len(f) {
		t.Errorf("ToSlice length = %d, want %d", got, 2*len(f))
	}
}

func TestComponentMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentHTTP, Output: &buf})

	handler := Middleware(base)(ComponentMiddleware(ComponentContract)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := FromContext(r.Context())
			if l.Component() != ComponentContract {
				t.Errorf("component = %q, want %q", l.Component(), ComponentContract)
			}
			l.InfoContext(r.Context(), "inside")
		})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/contracts", nil))

	if !strings.Contains(buf.String(), `"component":"contract"`) {
		t.Errorf("component missing from %q", buf.String())
	}
}

func TestRequestIDMiddleware_EmptyID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})

	handler := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Contains(buf.String(), FieldRequestID) {
		t.Errorf("empty request id should not be logged: %q", buf.String())
	}
}

func TestStructuredLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})

	NewStructuredLogger(logger).LogError(context.Background(), "Backfill sync failed", errors.New("quota exceeded"),
		ComponentWorker, OpBackfill, LogFields{FieldExpenseID: int64(9)})
	NewStructuredLogger(logger).LogError(context.Background(), "no extra fields", errors.New("x"), ComponentBilling, OpPost, nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["level"] != "ERROR" || entry[FieldError] != "quota exceeded" ||
		entry[FieldOperation] != OpBackfill || entry[FieldComponent] != ComponentWorker ||
		entry[FieldExpenseID] != float64(9) {
		t.Errorf("unexpected entry %v", entry)
	}
}
