// Package events carries ledger change notifications to observers.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Kind names what happened to the ledger.
type Kind string

const (
	TransactionAdded   Kind = "transaction.added"
	TransactionEdited  Kind = "transaction.edited"
	TransactionDeleted Kind = "transaction.deleted"
	RecurringProcessed Kind = "recurring.processed"
	DataCleared        Kind = "data.cleared"
	CapitalChanged     Kind = "capital.changed"
)

// Event is emitted after a mutation has been persisted.
type Event struct {
	Kind          Kind      `json:"kind"`
	TransactionID int64     `json:"transactionId,omitempty"`
	// Count is the number of transactions created by a recurrence run.
	Count int       `json:"count,omitempty"`
	At    time.Time `json:"at"`
}

// Notifier receives ledger events. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, e Event) error

func (f NotifierFunc) Notify(ctx context.Context, e Event) error { return f(ctx, e) }

// Discard drops every event.
var Discard Notifier = NotifierFunc(func(context.Context, Event) error { return nil })

// LogNotifier writes events to a slog logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, e Event) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	args := []any{"kind", string(e.Kind)}
	if e.TransactionID != 0 {
		args = append(args, "transaction_id", e.TransactionID)
	}
	if e.Count != 0 {
		args = append(args, "count", e.Count)
	}
	logger.InfoContext(ctx, "Ledger event", args...)
	return nil
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
