package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cashbook/internal/backend"
	"cashbook/internal/config"
	"cashbook/internal/ledger"
	"cashbook/internal/services"
)

// App bundles a loaded ledger with the collaborators built from config.
type App struct {
	Store     *ledger.Store
	Processor *services.RecurringProcessor
	Currency  string

	cleanups []backend.CleanupFunc
}

// OpenLedger builds the persistence port and the event sink selected by
// cfg and loads the ledger through them.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	return openLedger(ctx, cfg, backend.NewFactory(logger))
}

func openLedger(ctx context.Context, cfg *config.Config, factory backend.Factory) (_ *App, err error) {
	app := &App{Currency: cfg.Currency}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	categories, err := cfg.CategorySet()
	if err != nil {
		return nil, err
	}
	capital, err := cfg.InitialCapital()
	if err != nil {
		return nil, fmt.Errorf("parse default capital: %w", err)
	}
	checker, err := services.GetDuenessChecker(cfg.RecurringStrategy)
	if err != nil {
		return nil, err
	}

	be, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	app.cleanups = append(app.cleanups, be.Cleanup)

	notifier, err := factory.CreateNotifier(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create notifier: %w", err)
	}
	app.cleanups = append(app.cleanups, notifier.Cleanup)

	store, err := ledger.New(ctx, be.Store,
		ledger.WithLocation(loc),
		ledger.WithNotifier(notifier.Notifier),
		ledger.WithCategories(categories),
		ledger.WithDefaultCapital(capital),
		ledger.WithTokenTTL(cfg.ConfirmTokenTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	app.Store = store
	app.Processor = services.NewRecurringProcessor(store, ledger.SystemClock{}, loc, checker)
	return app, nil
}

// Close releases the backend and the event sink, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if c := a.cleanups[i]; c != nil {
			errs = append(errs, c())
		}
	}
	a.cleanups = nil
	return errors.Join(errs...)
}
