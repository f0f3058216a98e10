package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cashbook/internal/core"
	"cashbook/internal/ledger"
)

// RecurringProcessor materializes the recurring templates that are due today.
// Running it more than once on the same calendar day has no effect.
type RecurringProcessor struct {
	store   *ledger.Store
	clock   ledger.Clock
	loc     *time.Location
	checker DuenessChecker
}

// NewRecurringProcessor creates a processor. A nil clock uses the system
// clock, a nil location the store's, and a nil checker ExactDayChecker.
func NewRecurringProcessor(store *ledger.Store, clock ledger.Clock, loc *time.Location, checker DuenessChecker) *RecurringProcessor {
	if clock == nil {
		clock = ledger.SystemClock{}
	}
	if loc == nil && store != nil {
		loc = store.Location()
	}
	if checker == nil {
		checker = ExactDayChecker{}
	}
	return &RecurringProcessor{store: store, clock: clock, loc: loc, checker: checker}
}

// ProcessDue creates today's transactions from the due templates and
// returns them. Days that were missed are not caught up.
func (p *RecurringProcessor) ProcessDue(ctx context.Context) ([]core.Transaction, error) {
	if p.store == nil {
		return nil, errors.New("processor not properly initialized")
	}
	today := ledger.Today(p.clock, p.loc)

	created, err := p.store.MaterializeDue(ctx, today, p.checker.IsDue)
	if err != nil {
		return created, err
	}
	for _, t := range created {
		slog.InfoContext(ctx, "Created transaction from recurring template",
			"template_id", t.TemplateID,
			"transaction_id", t.ID,
			"category", t.Category,
			"amount", t.Amount.String())
	}
	slog.InfoContext(ctx, "Recurring processing complete",
		"date", today.String(),
		"created", len(created))
	return created, nil
}

// Run calls ProcessDue immediately and then on every tick until ctx is done.
// Failures are logged and retried on the next tick.
func (p *RecurringProcessor) Run(ctx context.Context, interval time.Duration) error {
	if _, err := p.ProcessDue(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial recurring processing failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Recurring processor stopped", "reason", ctx.Err())
			return nil
		case now := <-ticker.C:
			if _, err := p.ProcessDue(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic recurring processing failed", "error", err)
				continue
			}
			slog.DebugContext(ctx, "Next recurring check", "at", now.Add(interval).Format("15:04:05"))
		}
	}
}
