// Command recurring-worker materializes due recurring templates on a timer.
// It is for deployments that run only the ledger CLI against a shared
// backend, with no ledger-server up. Running it next to ledger-server is
// harmless: both re-read the processing marker before materializing, so a
// day is processed once.
package main

import (
	"os"
	"time"

	"cashbook/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	logger.Info("Starting recurring-worker")

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	app, err := cli.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer app.Close()

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringCheckInterval,
		"strategy", cfg.RecurringStrategy,
		"backend", cfg.DataBackend)

	// Run processes once immediately, then on every tick until shutdown.
	if err := app.Processor.Run(ctx, cfg.RecurringCheckInterval); err != nil {
		logger.Error("Recurring processor stopped", "error", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Recurring-worker shutdown complete")
}
