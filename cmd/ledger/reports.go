package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"cashbook/internal/cli"
	"cashbook/internal/core"
	"cashbook/internal/report"

	"github.com/google/subcommands"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
)

type listCmd struct {
	env      *ledgerEnv
	from     string
	to       string
	category string
	typ      string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list transactions, optionally filtered" }
func (*listCmd) Usage() string {
	return `ledger list [-from <YYYY-MM-DD>] [-to <YYYY-MM-DD>] [-category <name>] [-type <type>]

  Date bounds are inclusive. "all" matches every category or type.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day to include.")
	f.StringVar(&c.to, "to", "", "Last day to include.")
	f.StringVar(&c.category, "category", "", "Only this category.")
	f.StringVar(&c.typ, "type", "", "Only this type.")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	criteria, err := report.ParseCriteria(c.from, c.to, c.category, c.typ)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	return c.env.withApp(ctx, func(app *cli.App) error {
		renderTransactions(c.env.out, app.Store.Filter(criteria), app.Currency)
		return nil
	})
}

type templatesCmd struct {
	env *ledgerEnv
}

func (*templatesCmd) Name() string           { return "templates" }
func (*templatesCmd) Synopsis() string       { return "list recurring templates" }
func (*templatesCmd) Usage() string          { return "ledger templates\n" }
func (*templatesCmd) SetFlags(*flag.FlagSet) {}

func (c *templatesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.withApp(ctx, func(app *cli.App) error {
		renderTransactions(c.env.out, app.Store.Templates(), app.Currency)
		return nil
	})
}

type balanceCmd struct {
	env *ledgerEnv
}

func (*balanceCmd) Name() string           { return "balance" }
func (*balanceCmd) Synopsis() string       { return "print the current balance" }
func (*balanceCmd) Usage() string          { return "ledger balance\n" }
func (*balanceCmd) SetFlags(*flag.FlagSet) {}

func (c *balanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.withApp(ctx, func(app *cli.App) error {
		renderBalance(c.env.out, app.Store.InitialCapital(), app.Store.Balance(), app.Currency)
		return nil
	})
}

type summaryCmd struct {
	env    *ledgerEnv
	byYear bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "income and expense per month" }
func (*summaryCmd) Usage() string {
	return `ledger summary [-by-year]

  Without -by-year the same month of different years is added together.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.byYear, "by-year", false, "Keep months of different years apart.")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.withApp(ctx, func(app *cli.App) error {
		var rows []summaryRow
		if c.byYear {
			m := app.Store.MonthlySummaryByYear()
			for _, ym := range report.SortedYearMonths(m) {
				rows = append(rows, summaryRow{label: ym.String(), bucket: m[ym]})
			}
		} else {
			m := app.Store.MonthlySummary()
			for _, month := range report.SortedMonths(m) {
				rows = append(rows, summaryRow{label: month.String(), bucket: m[month]})
			}
		}
		renderSummary(c.env.out, rows, app.Currency)
		return nil
	})
}

type capitalCmd struct {
	env *ledgerEnv
}

func (*capitalCmd) Name() string     { return "capital" }
func (*capitalCmd) Synopsis() string { return "show or set the initial capital" }
func (*capitalCmd) Usage() string {
	return `ledger capital [amount]

  Without an argument prints the initial capital. Negative values are allowed.
`
}

func (*capitalCmd) SetFlags(*flag.FlagSet) {}

func (c *capitalCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Error: at most one amount expected")
		return subcommands.ExitUsageError
	}
	var value *decimal.Decimal
	if f.NArg() == 1 {
		v, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(f.Arg(0)), ",", "."))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid amount %q\n", f.Arg(0))
			return subcommands.ExitUsageError
		}
		value = &v
	}
	return c.env.withApp(ctx, func(app *cli.App) error {
		if value != nil {
			if err := app.Store.SetInitialCapital(ctx, *value); err != nil {
				return err
			}
		}
		fmt.Fprintf(c.env.out, "Initial capital: %s\n", core.FormatDecimal(app.Store.InitialCapital(), app.Currency))
		return nil
	})
}

type categoriesCmd struct {
	env *ledgerEnv
}

func (*categoriesCmd) Name() string           { return "categories" }
func (*categoriesCmd) Synopsis() string       { return "list the accepted categories" }
func (*categoriesCmd) Usage() string          { return "ledger categories\n" }
func (*categoriesCmd) SetFlags(*flag.FlagSet) {}

func (c *categoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.withApp(ctx, func(app *cli.App) error {
		for _, name := range app.Store.Categories().Names() {
			fmt.Fprintln(c.env.out, name)
		}
		return nil
	})
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func renderTransactions(w io.Writer, txs []core.Transaction, currency string) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "No transactions.")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Date", "Type", "Category", "Amount", "Repeats", "Description"})
	for _, tx := range txs {
		repeats := ""
		if tx.IsRecurring {
			repeats = fmt.Sprintf("day %d", tx.RecurringDay)
		}
		t.AppendRow(table.Row{tx.ID, tx.Date.String(), tx.Type, tx.Category, colorAmount(tx, currency), repeats, tx.Description})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
}

func colorAmount(tx core.Transaction, currency string) string {
	s := tx.Amount.Format(currency)
	switch tx.Type {
	case core.Income:
		return text.FgGreen.Sprint(s)
	case core.Expense:
		return text.FgRed.Sprint(s)
	}
	return s
}

func renderBalance(w io.Writer, capital, balance decimal.Decimal, currency string) {
	t := newTable(w)
	t.AppendRow(table.Row{"Initial capital", core.FormatDecimal(capital, currency)})
	t.AppendRow(table.Row{"Transactions", core.FormatDecimal(balance.Sub(capital), currency)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Balance", core.FormatDecimal(balance, currency)})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.Render()
}

type summaryRow struct {
	label  string
	bucket *report.Bucket
}

func renderSummary(w io.Writer, rows []summaryRow, currency string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No transactions.")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Month", "Income", "Expense", "Net", "Top category"})
	var income, expense decimal.Decimal
	for _, r := range rows {
		income = income.Add(r.bucket.Income)
		expense = expense.Add(r.bucket.Expense)
		t.AppendRow(table.Row{
			r.label,
			core.FormatDecimal(r.bucket.Income, currency),
			core.FormatDecimal(r.bucket.Expense, currency),
			core.FormatDecimal(r.bucket.Net(), currency),
			topCategory(r.bucket),
		})
	}
	t.AppendFooter(table.Row{
		"Total",
		core.FormatDecimal(income, currency),
		core.FormatDecimal(expense, currency),
		core.FormatDecimal(income.Sub(expense), currency),
		"",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()
}

// topCategory is the category with the largest total; ties go to the
// alphabetically first name.
func topCategory(b *report.Bucket) string {
	best := ""
	for _, name := range b.SortedCategories() {
		if best == "" || b.Categories[name].GreaterThan(b.Categories[best]) {
			best = name
		}
	}
	return best
}
