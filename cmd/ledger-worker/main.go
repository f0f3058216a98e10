// Command ledger-worker mirrors the SQLite ledger to a Google Sheets tab.
// It copies the ledger whenever an event arrives over AMQP and on a timer
// as a backup for lost messages.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"cashbook/internal/amqp"
	"cashbook/internal/backend"
	"cashbook/internal/cli"
	"cashbook/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	logger.Info("Starting ledger-worker")

	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger)

	source, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to open ledger database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer source.Cleanup()

	mirror, err := factory.CreateBackend(context.Background(), backendCfg.MirrorConfig())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirrorWorker := worker.NewMirrorWorker(source.Store, mirror.Store)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Performing startup sync...")
	if err := mirrorWorker.StartupSync(ctx); err != nil {
		// Not fatal: the periodic sync retries.
		logger.Error("Failed startup sync", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeEvents(gctx, mirrorWorker.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.MirrorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if _, err := mirrorWorker.Sync(gctx); err != nil {
					logger.Error("Periodic sync failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
