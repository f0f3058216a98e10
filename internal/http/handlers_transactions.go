package http

import (
	"net/http"

	"cashbook/internal/ledger"
	applog "cashbook/internal/log"
	"cashbook/internal/report"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, err := report.ParseCriteria(q.Get("from"), q.Get("to"), q.Get("category"), q.Get("type"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	txs := s.viewsOf(s.store.Filter(c))
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs, "count": len(txs)})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.store.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(t))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.store.Add(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		applog.NewFields().
			WithTransaction(t.ID, string(t.Type), t.Category, t.Amount.String()).
			WithOperation(applog.OpCreate).
			ToSlice()...)
	writeJSON(w, http.StatusCreated, s.viewOf(t))
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	existing, err := s.store.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := req.toTransaction(existing)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.Edit(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.store.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(updated))
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	tpl := s.viewsOf(s.store.Templates())
	writeJSON(w, http.StatusOK, map[string]any{"templates": tpl, "count": len(tpl)})
}

func (s *Server) handleRunRecurring(w http.ResponseWriter, r *http.Request) {
	if s.processor == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "recurring processor not configured"})
		return
	}
	created, err := s.processor.ProcessDue(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"created":           s.viewsOf(created),
		"count":             len(created),
		"lastProcessedDate": s.store.LastProcessedDate(),
	})
}

func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.store.RequestDelete(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, p)
}

func (s *Server) handleClearRequest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusAccepted, s.store.RequestClear())
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	token := ledger.Token(r.PathValue("token"))
	if err := s.store.Confirm(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Destructive request confirmed",
		applog.FieldOperation, applog.OpConfirm)
	writeJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Cancel(ledger.Token(r.PathValue("token"))); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
