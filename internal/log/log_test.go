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
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_JSONFormatAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentLedger, Output: &buf})
	logger.Debug("hidden")
	logger.Info("Transaction added", FieldTransactionID, 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec[FieldComponent] != ComponentLedger {
		t.Errorf("component = %v", rec[FieldComponent])
	}
	if rec[FieldTransactionID] != float64(7) {
		t.Errorf("transaction_id = %v", rec[FieldTransactionID])
	}
}

func TestLogFields_ToSliceIsSorted(t *testing.T) {
	fields := NewFields().
		WithOperation(OpCreate).
		WithTransaction(3, "Expense", "food", "12.50").
		WithError(errors.New("boom")).
		WithError(nil)

	got := fields.ToSlice()
	var keys []string
	for i := 0; i < len(got); i += 2 {
		keys = append(keys, got[i].(string))
	}
	want := "amount,category,error,operation,transaction_id,type"
	if strings.Join(keys, ",") != want {
		t.Fatalf("keys = %v, want %s", keys, want)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Output: &buf, Component: ComponentHTTP})

	handler := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("request id missing: %q", buf.String())
	}
}

func TestFromContextDefault(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Fatalf("unexpected component %q", l.Component())
	}
}

func TestStructuredLogger_LogHTTPEndLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Output: &buf}))
	r := httptest.NewRequest(http.MethodGet, "/api/balance", nil)
	r.Header.Set(RequestIDHeader, "req-9")

	sl.LogHTTPEnd(context.Background(), r, http.StatusNotFound, 3, "10.0.0.1")
	sl.LogHTTPEnd(context.Background(), r, http.StatusInternalServerError, 3, "10.0.0.1")

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "level=ERROR") {
		t.Fatalf("unexpected levels: %q", out)
	}
	if !strings.Contains(out, "status_code=404") {
		t.Fatalf("status missing: %q", out)
	}
	if strings.Count(out, "request_id=req-9") != 2 {
		t.Fatalf("request id missing: %q", out)
	}
}

func TestStructuredLogger_LogError(t *testing.T) {
	tests := []struct {
		name   string
		fields LogFields
		want   []string
	}{
		{"without fields", nil, []string{"level=ERROR", "error=disk", "error_type=persistence_error", "operation=create"}},
		{"with request fields", NewFields().WithHTTPRequest(http.MethodPost, "/api/transactions", "", ""), []string{"method=POST", "path=/api/transactions", "error_type=persistence_error"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Output: &buf}))
			sl.LogError(context.Background(), "Request failed", errors.New("disk"), ErrorTypePersistence, OpCreate, tt.fields)
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("missing %s: %q", w, buf.String())
				}
			}
		})
	}
}
