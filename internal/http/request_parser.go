package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"cashbook/internal/core"
	"cashbook/internal/ledger"

	"github.com/shopspring/decimal"
)

// maxBodyBytes bounds request bodies; the largest is a single transaction.
const maxBodyBytes = 64 << 10

// errBadRequest marks malformed requests, as opposed to invalid ledger input.
var errBadRequest = errors.New("bad request")

// transactionRequest is the body of POST and PUT /api/transactions.
// Amount accepts a JSON number or a string such as "12,50".
type transactionRequest struct {
	Type         string          `json:"type"`
	Category     string          `json:"category"`
	Amount       json.RawMessage `json:"amount"`
	Description  string          `json:"description"`
	IsRecurring  bool            `json:"isRecurring"`
	RecurringDay int             `json:"recurringDay"`
	// Date is only read on edit; empty keeps the stored date.
	Date string `json:"date,omitempty"`
}

type capitalRequest struct {
	Amount json.RawMessage `json:"amount"`
}

// decodeJSON reads a single JSON object from the body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// parseID reads the {id} path value.
func parseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid transaction id %q", errBadRequest, raw)
	}
	return id, nil
}

// rawNumber unquotes a JSON number or string.
func rawNumber(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// toInput converts the request to ledger input. Field errors come back as
// core validation errors so they map to 422.
func (req transactionRequest) toInput() (core.Input, error) {
	typ, err := core.ParseType(req.Type)
	if err != nil {
		return core.Input{}, fmt.Errorf("%w: %w", ledger.ErrValidation, err)
	}
	amount, err := core.ParseAmount(rawNumber(req.Amount))
	if err != nil {
		return core.Input{}, fmt.Errorf("%w: %w", ledger.ErrValidation, err)
	}
	return core.Input{
		Type:         typ,
		Category:     strings.TrimSpace(req.Category),
		Amount:       amount,
		Description:  sanitizeInput(req.Description),
		IsRecurring:  req.IsRecurring,
		RecurringDay: req.RecurringDay,
	}, nil
}

// toTransaction builds the edited transaction on top of the stored one.
func (req transactionRequest) toTransaction(existing core.Transaction) (core.Transaction, error) {
	in, err := req.toInput()
	if err != nil {
		return core.Transaction{}, err
	}
	date := existing.Date
	if strings.TrimSpace(req.Date) != "" {
		if date, err = core.ParseDate(strings.TrimSpace(req.Date)); err != nil {
			return core.Transaction{}, fmt.Errorf("%w: invalid date %q", ledger.ErrValidation, req.Date)
		}
	}
	return core.Transaction{
		ID:           existing.ID,
		Date:         date,
		Type:         in.Type,
		Category:     in.Category,
		Amount:       in.Amount,
		Description:  in.Description,
		IsRecurring:  in.IsRecurring,
		RecurringDay: in.RecurringDay,
	}, nil
}

// parseCapital accepts negative values, unlike transaction amounts.
func (req capitalRequest) parseCapital() (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(rawNumber(req.Amount)), ",", ".")
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid capital %q", ledger.ErrValidation, s)
	}
	return v, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
