package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"cashbook/internal/cli"
	"cashbook/internal/core"
	"cashbook/internal/ledger"

	"github.com/google/subcommands"
)

// txFlags are the editable fields shared by add and edit.
type txFlags struct {
	typ          string
	category     string
	amount       string
	description  string
	recurringDay int
}

func (f *txFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.typ, "type", "Expense", "Transaction type: Income, Expense or Other.")
	fs.StringVar(&f.category, "category", "", "Category of the transaction.")
	fs.StringVar(&f.amount, "amount", "", "Amount, dot or comma as decimal separator.")
	fs.StringVar(&f.description, "desc", "", "Free text description.")
	fs.IntVar(&f.recurringDay, "recurring-day", 0, "Day of month (1-31) to repeat the transaction on. 0 means one-off.")
}

type addCmd struct {
	env *ledgerEnv
	txFlags
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a transaction dated today" }
func (*addCmd) Usage() string {
	return `ledger add -type <type> -category <name> -amount <n> [-desc <text>] [-recurring-day <d>]

  Adds a transaction. With -recurring-day it also becomes a monthly template.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) { c.txFlags.register(f) }

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	typ, err := core.ParseType(c.typ)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	amount, err := core.ParseAmount(c.amount)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	in := core.Input{
		Type:         typ,
		Category:     strings.TrimSpace(c.category),
		Amount:       amount,
		Description:  c.description,
		IsRecurring:  c.recurringDay != 0,
		RecurringDay: c.recurringDay,
	}
	return c.env.withApp(ctx, func(app *cli.App) error {
		t, err := app.Store.Add(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.out, "Added transaction %d: %s %s %s\n", t.ID, t.Type, t.Category, t.Amount.Format(app.Currency))
		return nil
	})
}

type editCmd struct {
	env  *ledgerEnv
	id   int64
	date string
	txFlags
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "change fields of a transaction" }
func (*editCmd) Usage() string {
	return `ledger edit -id <n> [-type <type>] [-category <name>] [-amount <n>] [-desc <text>] [-recurring-day <d>] [-date <YYYY-MM-DD>]

  Only the flags given are changed. -recurring-day 0 stops the repetition.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	c.txFlags.register(f)
	f.Int64Var(&c.id, "id", 0, "Id of the transaction to edit.")
	f.StringVar(&c.date, "date", "", "New date of the transaction.")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -id is required")
		return subcommands.ExitUsageError
	}
	set := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	return c.env.withApp(ctx, func(app *cli.App) error {
		t, err := app.Store.Get(c.id)
		if err != nil {
			return err
		}
		if set["type"] {
			if t.Type, err = core.ParseType(c.typ); err != nil {
				return err
			}
		}
		if set["category"] {
			t.Category = strings.TrimSpace(c.category)
		}
		if set["amount"] {
			if t.Amount, err = core.ParseAmount(c.amount); err != nil {
				return err
			}
		}
		if set["desc"] {
			t.Description = c.description
		}
		if set["recurring-day"] {
			t.IsRecurring = c.recurringDay != 0
			t.RecurringDay = c.recurringDay
		}
		if set["date"] {
			if t.Date, err = core.ParseDate(c.date); err != nil {
				return err
			}
		}
		if err := app.Store.Edit(ctx, t); err != nil {
			return err
		}
		fmt.Fprintf(c.env.out, "Updated transaction %d\n", t.ID)
		return nil
	})
}

type deleteCmd struct {
	env *ledgerEnv
	id  int64
	yes bool
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a transaction after confirmation" }
func (*deleteCmd) Usage() string {
	return `ledger delete -id <n> [-yes]

  Deletes the transaction and its recurring template, if any.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "Id of the transaction to delete.")
	f.BoolVar(&c.yes, "yes", false, "Do not ask for confirmation.")
}

func (c *deleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -id is required")
		return subcommands.ExitUsageError
	}
	return c.env.withApp(ctx, func(app *cli.App) error {
		p, err := app.Store.RequestDelete(c.id)
		if err != nil {
			return err
		}
		return c.env.settle(ctx, app.Store, p, c.yes, fmt.Sprintf("Delete transaction %d?", c.id))
	})
}

type clearCmd struct {
	env *ledgerEnv
	yes bool
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "erase every transaction and the initial capital" }
func (*clearCmd) Usage() string {
	return `ledger clear [-yes]

  Empties the ledger. This cannot be undone.
`
}

func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Do not ask for confirmation.")
}

func (c *clearCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.withApp(ctx, func(app *cli.App) error {
		p := app.Store.RequestClear()
		return c.env.settle(ctx, app.Store, p, c.yes, "Erase all ledger data?")
	})
}

var errAborted = errors.New("aborted")

// settle confirms or cancels a pending destructive request.
func (e *ledgerEnv) settle(ctx context.Context, store *ledger.Store, p ledger.Pending, yes bool, question string) error {
	if !yes && !e.confirm(question) {
		if err := store.Cancel(p.Token); err != nil {
			return err
		}
		return errAborted
	}
	if err := store.Confirm(ctx, p.Token); err != nil {
		return err
	}
	switch p.Action {
	case ledger.ActionDelete:
		fmt.Fprintf(e.out, "Deleted transaction %d\n", p.ID)
	case ledger.ActionClear:
		fmt.Fprintln(e.out, "Ledger cleared")
	}
	return nil
}

type processCmd struct {
	env *ledgerEnv
}

func (*processCmd) Name() string     { return "process" }
func (*processCmd) Synopsis() string { return "create today's recurring transactions" }
func (*processCmd) Usage() string {
	return `ledger process

  Runs the recurring scheduler once and lists what it created. Every other
  command runs it too, unless -no-recurring is given. Running it twice on the
  same day creates nothing.
`
}

func (*processCmd) SetFlags(*flag.FlagSet) {}

func (c *processCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, false, func(app *cli.App) error {
		created, err := app.Processor.ProcessDue(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.out, "Created %d recurring transaction(s)\n", len(created))
		if len(created) > 0 {
			renderTransactions(c.env.out, created, app.Currency)
		}
		return nil
	})
}
