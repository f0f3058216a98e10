package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cashbook/internal/cli"

	"github.com/google/subcommands"
)

// ledgerEnv is what every subcommand shares: where to write, where to read
// confirmations from, and how to open the ledger.
type ledgerEnv struct {
	out  io.Writer
	in   io.Reader
	open func(ctx context.Context) (*cli.App, error)

	// skipRecurring turns off the catch-up run in withApp.
	skipRecurring bool
}

func commands(env *ledgerEnv) []subcommands.Command {
	return []subcommands.Command{
		&addCmd{env: env},
		&editCmd{env: env},
		&deleteCmd{env: env},
		&listCmd{env: env},
		&balanceCmd{env: env},
		&summaryCmd{env: env},
		&capitalCmd{env: env},
		&clearCmd{env: env},
		&templatesCmd{env: env},
		&processCmd{env: env},
		&categoriesCmd{env: env},
	}
}

// withApp opens the ledger, creates the recurring transactions due today,
// runs fn and closes it. Errors are printed and turned into ExitFailure.
func (e *ledgerEnv) withApp(ctx context.Context, fn func(*cli.App) error) subcommands.ExitStatus {
	return e.run(ctx, !e.skipRecurring, fn)
}

func (e *ledgerEnv) run(ctx context.Context, catchUp bool, fn func(*cli.App) error) subcommands.ExitStatus {
	app, err := e.open(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer app.Close()

	if catchUp {
		// A failed run leaves the marker alone; the command still works on
		// what is stored.
		created, err := app.Processor.ProcessDue(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Recurring processing failed", "error", err)
		} else if len(created) > 0 {
			slog.InfoContext(ctx, "Created recurring transactions", "count", len(created))
		}
	}

	if err := fn(app); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// confirm asks a yes/no question on out and reads the answer from in.
func (e *ledgerEnv) confirm(question string) bool {
	fmt.Fprintf(e.out, "%s [y/N] ", question)
	line, _ := bufio.NewReader(e.in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
