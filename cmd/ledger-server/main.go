// Command ledger-server serves the ledger JSON API and runs the recurring
// scheduler in the same process.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cashbook/internal/cli"
	apphttp "cashbook/internal/http"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := cli.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer app.Close()

	if errs := app.Store.ReadErrors(); len(errs) > 0 {
		logger.Warn("Ledger loaded with unreadable values", "count", len(errs))
	}

	srv := apphttp.NewServer(":"+cfg.Port, app.Store, app.Processor, cfg.Currency)
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting ledger server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return app.Processor.Run(gctx, cfg.RecurringCheckInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		app.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
