// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"cashbook/internal/ledger"
	applog "cashbook/internal/log"
	"cashbook/internal/services"

	"github.com/google/uuid"
)

// Server wraps http.Server with the ledger it serves.
type Server struct {
	http.Server

	store     *ledger.Store
	processor *services.RecurringProcessor
	currency  string

	limiter      *rateLimiter
	access       *applog.StructuredLogger
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
// processor may be nil, in which case POST /api/recurring/run answers 503.
func NewServer(addr string, store *ledger.Store, processor *services.RecurringProcessor, currency string) *Server {
	mux := http.NewServeMux()
	logger := applog.New(applog.Config{Handler: slog.Default().Handler(), Component: applog.ComponentHTTP})

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		store:     store,
		processor: processor,
		currency:  currency,
		limiter:   newRateLimiter(120, time.Minute),
		access:    applog.NewStructuredLogger(logger),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.fresh(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.limited(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.fresh(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.limited(s.handleEditTransaction))
	mux.HandleFunc("POST /api/transactions/{id}/delete-request", s.limited(s.handleDeleteRequest))
	mux.HandleFunc("POST /api/clear-request", s.limited(s.handleClearRequest))
	mux.HandleFunc("POST /api/confirmations/{token}", s.limited(s.handleConfirm))
	mux.HandleFunc("DELETE /api/confirmations/{token}", s.limited(s.handleCancel))

	mux.HandleFunc("GET /api/templates", s.fresh(s.handleTemplates))
	mux.HandleFunc("POST /api/recurring/run", s.limited(s.handleRunRecurring))

	mux.HandleFunc("GET /api/balance", s.fresh(s.handleBalance))
	mux.HandleFunc("GET /api/capital", s.fresh(s.handleGetCapital))
	mux.HandleFunc("PUT /api/capital", s.limited(s.handleSetCapital))
	mux.HandleFunc("GET /api/summary", s.fresh(s.handleSummary))
	mux.HandleFunc("GET /api/categories", s.handleCategories)

	s.Handler = applog.Middleware(logger)(s.trace(applog.RequestIDMiddleware(requestIDOf)(mux)))
	return s
}

// Shutdown stops the rate limiter and the underlying server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
	})
	return s.Server.Shutdown(ctx)
}

// trace assigns a request id, sets the common headers and logs completion.
func (s *Server) trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if requestIDOf(r) == "" {
			r.Header.Set(applog.RequestIDHeader, uuid.NewString())
		}
		w.Header().Set(applog.RequestIDHeader, requestIDOf(r))
		setSecurityHeaders(w)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.access.LogHTTPEnd(r.Context(), r, rw.statusCode,
			time.Since(start).Milliseconds(), extractClientIP(r))
	})
}

func requestIDOf(r *http.Request) string {
	return r.Header.Get(applog.RequestIDHeader)
}

// fresh re-reads the ledger before serving a read, so entries written by
// another process sharing the backend show up.
func (s *Server) fresh(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.Reload(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r)
	}
}

// limited applies the per-IP rate limit to mutating routes.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(extractClientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
			return
		}
		next(w, r)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports degraded while some stored values failed to load.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if errs := s.store.ReadErrors(); len(errs) > 0 {
		keys := make([]string, 0, len(errs))
		for _, e := range errs {
			keys = append(keys, e.Key)
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "degraded", "unreadable": keys})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
