package http

import (
	"net/http"

	"cashbook/internal/report"
)

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance := s.money(s.store.Balance())
	writeJSON(w, http.StatusOK, map[string]any{
		"balance":        balance["amount"],
		"formatted":      balance["formatted"],
		"initialCapital": s.store.InitialCapital().String(),
		"currency":       s.currency,
	})
}

func (s *Server) handleGetCapital(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.money(s.store.InitialCapital()))
}

func (s *Server) handleSetCapital(w http.ResponseWriter, r *http.Request) {
	var req capitalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := req.parseCapital()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.SetInitialCapital(r.Context(), v); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.money(v))
}

// handleSummary groups by calendar month; ?by=year keeps years apart.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var out []bucketView
	switch r.URL.Query().Get("by") {
	case "year":
		summary := s.store.MonthlySummaryByYear()
		for _, ym := range report.SortedYearMonths(summary) {
			out = append(out, s.bucketOf(ym.String(), summary[ym]))
		}
	case "", "month":
		summary := s.store.MonthlySummary()
		for _, m := range report.SortedMonths(summary) {
			out = append(out, s.bucketOf(m.String(), summary[m]))
		}
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "by must be month or year"})
		return
	}
	if out == nil {
		out = []bucketView{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": out})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.store.Categories().Names()})
}
