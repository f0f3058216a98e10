// Package report derives read-only views from a list of transactions:
// the running balance, monthly aggregation and filtering.
package report

import (
	"cashbook/internal/core"

	"github.com/shopspring/decimal"
)

// Balance returns capital plus income minus expenses. Other transactions
// do not move the balance.
func Balance(txs []core.Transaction, capital decimal.Decimal) decimal.Decimal {
	total := capital
	for _, t := range txs {
		total = total.Add(t.Signed().Decimal)
	}
	return total
}
