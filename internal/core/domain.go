package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	Income  Type = "Income"
	Expense Type = "Expense"
	Other   Type = "Other"
)

// MaxDescriptionLength bounds the free-text description of a transaction.
const MaxDescriptionLength = 200

type (
	// Type encodes the sign of a transaction. Other is inert for the balance.
	Type string

	// Transaction is a single ledger entry. Recurring templates share the same shape.
	Transaction struct {
		ID           int64     `json:"id"`
		Date         Date      `json:"date"`
		Timestamp    time.Time `json:"timestamp"`
		Type         Type      `json:"type"`
		Category     string    `json:"category"`
		Amount       Amount    `json:"amount"`
		Description  string    `json:"description"`
		IsRecurring  bool      `json:"isRecurring"`
		RecurringDay int       `json:"recurringDay,omitempty"`
		TemplateID   int64     `json:"templateId,omitempty"` // source template of a materialized entry
	}

	// Input carries the user supplied fields of a new transaction.
	Input struct {
		Type         Type
		Category     string
		Amount       Amount
		Description  string
		IsRecurring  bool
		RecurringDay int
	}
)

var (
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidRecurringDay = errors.New("invalid recurring day")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
)

// ParseType accepts the canonical names case-insensitively.
func ParseType(s string) (Type, error) {
	for _, t := range []Type{Income, Expense, Other} {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, nil
		}
	}
	return "", ErrInvalidType
}

func (t Type) Valid() bool {
	switch t {
	case Income, Expense, Other:
		return true
	default:
		return false
	}
}

// Validate checks the input against the closed category set.
func (in Input) Validate(categories CategorySet) error {
	return validateFields(in.Type, in.Category, in.Amount, in.Description, in.IsRecurring, in.RecurringDay, categories)
}

// Validate checks an edited transaction the same way Add checks its input.
func (t Transaction) Validate(categories CategorySet) error {
	if err := validateFields(t.Type, t.Category, t.Amount, t.Description, t.IsRecurring, t.RecurringDay, categories); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func validateFields(typ Type, category string, amount Amount, description string, recurring bool, day int, categories CategorySet) error {
	if !typ.Valid() {
		return ErrInvalidType
	}
	if !categories.Contains(category) {
		return ErrInvalidCategory
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if len(description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if recurring && (day < 1 || day > 31) {
		return ErrInvalidRecurringDay
	}
	return nil
}

// Signed returns the amount with the sign implied by the type.
func (t Transaction) Signed() Amount {
	switch t.Type {
	case Income:
		return t.Amount
	case Expense:
		return Amount{t.Amount.Neg()}
	default:
		return Amount{}
	}
}

// UnmarshalJSON tolerates timestamps that are not RFC3339, such as the
// locale strings written by older clients; they decode as the zero time.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type alias Transaction
	aux := struct {
		*alias
		Timestamp json.RawMessage `json:"timestamp"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.Timestamp = time.Time{}
	var s string
	if len(aux.Timestamp) > 0 && json.Unmarshal(aux.Timestamp, &s) == nil {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			t.Timestamp = ts
		}
	}
	return nil
}
