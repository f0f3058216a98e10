// Package core holds the ledger's domain types.
//
// This file contains the Amount type and the helpers that parse amounts
// typed by users and render them in the ledger's currency.
package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Amount is a non-negative quantity in the ledger's currency unit.
// The sign of a movement is carried by the transaction Type.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps a decimal value.
func NewAmount(v decimal.Decimal) Amount {
	return Amount{Decimal: v}
}

// AmountFromFloat is a convenience for tests and literals.
func AmountFromFloat(f float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(f)}
}

// ParseAmount converts user input to an Amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted.
// Signs are rejected: the direction of money is expressed by the type.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("-3")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Amount{}, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return Amount{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{Decimal: d}, nil
}

// Validate rejects negative amounts. Zero is a valid, if useless, amount.
func (a Amount) Validate() error {
	if a.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Format renders the amount with the symbol and fraction of a currency code.
func (a Amount) Format(currency string) string {
	return FormatDecimal(a.Decimal, currency)
}

// FormatDecimal renders any decimal value (a balance can be negative)
// with the symbol and fraction of the given ISO currency code.
func FormatDecimal(v decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return v.StringFixed(2)
	}
	minor := v.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// MarshalJSON writes the amount as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON accepts numbers and numeric strings. Anything else reads
// as zero, so a single malformed entry cannot make the ledger unreadable.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*a = Amount{}
			return nil
		}
		raw = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		*a = Amount{}
		return nil
	}
	*a = Amount{Decimal: d}
	return nil
}
