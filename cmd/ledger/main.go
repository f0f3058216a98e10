// Command ledger manages the cashbook ledger from the terminal.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path"

	"cashbook/internal/cli"
	"cashbook/internal/config"
	applog "cashbook/internal/log"

	"github.com/google/subcommands"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	// Logs go to stderr so tables on stdout stay clean.
	level := slog.LevelWarn
	if l, err := applog.ParseLevel(cfg.LogLevel); err == nil && l > level {
		level = l
	}
	logger := applog.New(applog.Config{Level: level, Format: cfg.LogFormat, Component: applog.ComponentCLI, Output: os.Stderr})
	applog.SetDefault(logger)

	env := &ledgerEnv{
		out: os.Stdout,
		in:  os.Stdin,
		open: func(ctx context.Context) (*cli.App, error) {
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return cli.OpenLedger(ctx, cfg, logger.Logger)
		},
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range commands(env) {
		commander.Register(c, "ledger")
	}

	flag.BoolVar(&env.skipRecurring, "no-recurring", false, "Do not create the recurring transactions due today before running the command.")
	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
