package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"cashbook/internal/ledger"
	applog "cashbook/internal/log"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", fmt.Errorf("%w: x", errBadRequest), http.StatusBadRequest},
		{"validation", fmt.Errorf("%w: x", ledger.ErrValidation), http.StatusUnprocessableEntity},
		{"not found", &ledger.NotFoundError{ID: 3}, http.StatusNotFound},
		{"invalid token", ledger.ErrInvalidToken, http.StatusNotFound},
		{"write failure", &ledger.PersistenceWriteError{Key: "transactions", Err: errors.New("full")}, http.StatusInternalServerError},
		{"read failure", &ledger.PersistenceReadError{Key: "transactions", Err: errors.New("offline")}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusOf(tt.err); got != tt.want {
				t.Fatalf("statusOf = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorTypeOfAndPublicMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType string
		wantMsg  string
	}{
		{"bad request", fmt.Errorf("%w: x", errBadRequest), applog.ErrorTypeValidation, "internal error"},
		{"validation", fmt.Errorf("%w: x", ledger.ErrValidation), applog.ErrorTypeValidation, "internal error"},
		{"not found", &ledger.NotFoundError{ID: 3}, applog.ErrorTypeNotFound, "internal error"},
		{"invalid token", ledger.ErrInvalidToken, applog.ErrorTypeInvalidToken, "internal error"},
		{"write failure", &ledger.PersistenceWriteError{Key: "transactions", Err: errors.New("full")}, applog.ErrorTypePersistence, "could not save the ledger"},
		{"read failure", &ledger.PersistenceReadError{Key: "transactions", Err: errors.New("offline")}, applog.ErrorTypePersistence, "could not read the ledger"},
		{"unknown", errors.New("boom"), applog.ErrorTypeInternal, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorTypeOf(tt.err); got != tt.wantType {
				t.Errorf("errorTypeOf = %q, want %q", got, tt.wantType)
			}
			if got := publicMessage(tt.err); got != tt.wantMsg {
				t.Errorf("publicMessage = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i, want := range []bool{true, true, false} {
		if got := rl.allow("10.0.0.1"); got != want {
			t.Fatalf("request %d: allow = %v, want %v", i, got, want)
		}
	}
	if !rl.allow("10.0.0.2") {
		t.Fatal("other clients have their own window")
	}

	now = now.Add(time.Minute)
	if !rl.allow("10.0.0.1") {
		t.Fatal("window should reset")
	}

	now = now.Add(time.Hour)
	rl.cleanupStaleEntries()
	if len(rl.clients) != 0 {
		t.Fatalf("stale clients kept: %d", len(rl.clients))
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.5:1234", "", "203.0.113.5"},
		{"trusted proxy", "10.0.0.2:80", "198.51.100.7, 10.0.0.2", "198.51.100.7"},
		{"untrusted proxy ignored", "203.0.113.5:80", "198.51.100.7", "203.0.113.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := extractClientIP(r); got != tt.want {
				t.Fatalf("extractClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
