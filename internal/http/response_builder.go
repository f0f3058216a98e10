package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cashbook/internal/core"
	"cashbook/internal/ledger"
	applog "cashbook/internal/log"
	"cashbook/internal/report"

	"github.com/shopspring/decimal"
)

// transactionView is a transaction plus its amount rendered in the ledger
// currency.
type transactionView struct {
	ID           int64     `json:"id"`
	Date         core.Date `json:"date"`
	Timestamp    time.Time `json:"timestamp"`
	Type         core.Type `json:"type"`
	Category     string    `json:"category"`
	Amount       string    `json:"amount"`
	Formatted    string    `json:"formatted"`
	Description  string    `json:"description"`
	IsRecurring  bool      `json:"isRecurring"`
	RecurringDay int       `json:"recurringDay,omitempty"`
	TemplateID   int64     `json:"templateId,omitempty"`
}

type bucketView struct {
	Period     string            `json:"period"`
	Income     string            `json:"income"`
	Expense    string            `json:"expense"`
	Net        string            `json:"net"`
	Formatted  string            `json:"formatted"`
	Categories map[string]string `json:"categories"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) viewOf(t core.Transaction) transactionView {
	return transactionView{
		ID:           t.ID,
		Date:         t.Date,
		Timestamp:    t.Timestamp,
		Type:         t.Type,
		Category:     t.Category,
		Amount:       t.Amount.String(),
		Formatted:    t.Amount.Format(s.currency),
		Description:  t.Description,
		IsRecurring:  t.IsRecurring,
		RecurringDay: t.RecurringDay,
		TemplateID:   t.TemplateID,
	}
}

func (s *Server) viewsOf(txs []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, s.viewOf(t))
	}
	return out
}

func (s *Server) bucketOf(period string, b *report.Bucket) bucketView {
	cats := make(map[string]string, len(b.Categories))
	for name, v := range b.Categories {
		cats[name] = v.String()
	}
	return bucketView{
		Period:     period,
		Income:     b.Income.String(),
		Expense:    b.Expense.String(),
		Net:        b.Net().String(),
		Formatted:  core.FormatDecimal(b.Net(), s.currency),
		Categories: cats,
	}
}

func (s *Server) money(v decimal.Decimal) map[string]string {
	return map[string]string{
		"amount":    v.String(),
		"formatted": core.FormatDecimal(v, s.currency),
	}
}

// writeJSON encodes body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// statusOf maps ledger errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, ledger.ErrInvalidToken):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorTypeOf classifies err for the error_type log field.
func errorTypeOf(err error) string {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, ledger.ErrValidation):
		return applog.ErrorTypeValidation
	case errors.Is(err, ledger.ErrNotFound):
		return applog.ErrorTypeNotFound
	case errors.Is(err, ledger.ErrInvalidToken):
		return applog.ErrorTypeInvalidToken
	case errors.Is(err, ledger.ErrPersistenceWrite), errors.Is(err, ledger.ErrPersistenceRead):
		return applog.ErrorTypePersistence
	default:
		return applog.ErrorTypeInternal
	}
}

func operationOf(r *http.Request) string {
	switch r.Method {
	case http.MethodGet:
		return applog.OpRead
	case http.MethodPost:
		return applog.OpCreate
	case http.MethodPut:
		return applog.OpUpdate
	case http.MethodDelete:
		return applog.OpDelete
	default:
		return r.Method
	}
}

// publicMessage is the body text of a 5xx; internal details stay in the log.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, ledger.ErrPersistenceWrite):
		return "could not save the ledger"
	case errors.Is(err, ledger.ErrPersistenceRead):
		return "could not read the ledger"
	default:
		return "internal error"
	}
}

// writeError maps err to a status and hides internal details on 5xx.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	status := statusOf(err)
	fields := applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent())

	msg := err.Error()
	if status >= 500 {
		applog.NewStructuredLogger(logger).LogError(ctx, "Request failed", err, errorTypeOf(err), operationOf(r), fields)
		msg = publicMessage(err)
	} else {
		logger.LogFields(ctx, slog.LevelDebug, "Request rejected", fields.
			WithError(err).
			WithErrorType(errorTypeOf(err)).
			WithOperation(operationOf(r)))
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
