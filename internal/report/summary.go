package report

import (
	"fmt"
	"slices"
	"time"

	"cashbook/internal/core"

	"github.com/shopspring/decimal"
)

// Bucket accumulates the totals of one aggregation period.
type Bucket struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	// Categories sums every amount by category, whatever its type.
	Categories map[string]decimal.Decimal
}

func newBucket() *Bucket {
	return &Bucket{Categories: map[string]decimal.Decimal{}}
}

// Net is income minus expense.
func (b *Bucket) Net() decimal.Decimal {
	return b.Income.Sub(b.Expense)
}

func (b *Bucket) add(t core.Transaction) {
	if t.Type == core.Income {
		b.Income = b.Income.Add(t.Amount.Decimal)
	} else {
		b.Expense = b.Expense.Add(t.Amount.Decimal)
	}
	b.Categories[t.Category] = b.Categories[t.Category].Add(t.Amount.Decimal)
}

// MonthlySummary groups transactions by calendar month. The year is not
// part of the key: March 2023 and March 2024 share a bucket.
// Transactions without a date are skipped.
func MonthlySummary(txs []core.Transaction) map[time.Month]*Bucket {
	out := map[time.Month]*Bucket{}
	for _, t := range txs {
		if t.Date.IsZero() {
			continue
		}
		b, ok := out[t.Date.Month()]
		if !ok {
			b = newBucket()
			out[t.Date.Month()] = b
		}
		b.add(t)
	}
	return out
}

// YearMonth identifies a calendar month of a given year.
type YearMonth struct {
	Year  int
	Month time.Month
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) before(o YearMonth) bool {
	if ym.Year != o.Year {
		return ym.Year < o.Year
	}
	return ym.Month < o.Month
}

// MonthlySummaryByYear is MonthlySummary keyed by year and month.
func MonthlySummaryByYear(txs []core.Transaction) map[YearMonth]*Bucket {
	out := map[YearMonth]*Bucket{}
	for _, t := range txs {
		if t.Date.IsZero() {
			continue
		}
		key := YearMonth{Year: t.Date.Year(), Month: t.Date.Month()}
		b, ok := out[key]
		if !ok {
			b = newBucket()
			out[key] = b
		}
		b.add(t)
	}
	return out
}

// SortedMonths returns the keys of a monthly summary from January on.
func SortedMonths(m map[time.Month]*Bucket) []time.Month {
	out := make([]time.Month, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// SortedYearMonths returns the keys of a year-aware summary in calendar order.
func SortedYearMonths(m map[YearMonth]*Bucket) []YearMonth {
	out := make([]YearMonth, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.SortFunc(out, func(a, b YearMonth) int {
		switch {
		case a.before(b):
			return -1
		case b.before(a):
			return 1
		default:
			return 0
		}
	})
	return out
}

// SortedCategories returns the category names of a bucket in lexical order.
func (b *Bucket) SortedCategories() []string {
	out := make([]string, 0, len(b.Categories))
	for k := range b.Categories {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
