package report

import (
	"fmt"
	"strings"

	"cashbook/internal/core"
)

// Criteria selects transactions. Zero fields match everything and the
// date bounds are inclusive.
type Criteria struct {
	StartDate *core.Date
	EndDate   *core.Date
	Category  string
	Type      core.Type
}

// ParseCriteria builds Criteria from raw query values. Blank values are
// wildcards; "all" is accepted for category and type.
func ParseCriteria(from, to, category, typ string) (Criteria, error) {
	var c Criteria
	if s := strings.TrimSpace(from); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return Criteria{}, fmt.Errorf("start date %q: %w", s, err)
		}
		c.StartDate = &d
	}
	if s := strings.TrimSpace(to); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return Criteria{}, fmt.Errorf("end date %q: %w", s, err)
		}
		c.EndDate = &d
	}
	if s := strings.TrimSpace(category); s != "" && !strings.EqualFold(s, "all") {
		c.Category = s
	}
	if s := strings.TrimSpace(typ); s != "" && !strings.EqualFold(s, "all") {
		t, err := core.ParseType(s)
		if err != nil {
			return Criteria{}, fmt.Errorf("type %q: %w", s, err)
		}
		c.Type = t
	}
	return c, nil
}

// Match reports whether t satisfies every set criterion.
func (c Criteria) Match(t core.Transaction) bool {
	if c.StartDate != nil && t.Date.Before(c.StartDate.Time) {
		return false
	}
	if c.EndDate != nil && t.Date.After(c.EndDate.Time) {
		return false
	}
	if c.Category != "" && t.Category != c.Category {
		return false
	}
	if c.Type != "" && t.Type != c.Type {
		return false
	}
	return true
}

// Filter returns the matching transactions in their original order.
// The input slice is not modified.
func Filter(txs []core.Transaction, c Criteria) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if c.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
