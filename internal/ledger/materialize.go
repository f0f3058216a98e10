package ledger

import (
	"context"
	"log/slog"

	"cashbook/internal/core"
	"cashbook/internal/events"
)

// DueFunc reports whether a template should produce a transaction on day.
type DueFunc func(template core.Transaction, day core.Date) bool

// MaterializeDue creates one transaction dated today for every template
// that due selects, then moves the processing marker to today. It is a
// no-op when the marker, as last written by any process, is already today
// or later, so repeated calls on the same day create nothing. The marker
// moves even when nothing is due.
func (s *Store) MaterializeDue(ctx context.Context, today core.Date, due DueFunc) ([]core.Transaction, error) {
	s.mu.Lock()
	if err := s.refresh(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !s.lastProcessed.IsZero() && !today.After(s.lastProcessed.Time) {
		s.mu.Unlock()
		slog.DebugContext(ctx, "Recurring templates already processed",
			"today", today.String(), "last_processed", s.lastProcessed.String())
		return nil, nil
	}

	now := s.clock.Now()
	var created []core.Transaction
	for _, tmpl := range s.templates {
		if !due(tmpl, today) {
			continue
		}
		t := tmpl
		t.ID = s.nextID
		t.Date = today
		t.Timestamp = now
		t.IsRecurring = false
		t.RecurringDay = 0
		t.TemplateID = tmpl.ID
		s.nextID++
		created = append(created, t)
	}
	s.transactions = append(s.transactions, created...)
	s.lastProcessed = today

	values := map[string]*string{KeyLastProcessedDate: encodeMarker(today)}
	if len(created) > 0 {
		values[KeyTransactions] = encodeList(s.transactions)
		values[KeyNextTransactionID] = encodeInt(s.nextID)
	}
	err := s.persist(ctx, values)
	s.mu.Unlock()

	if err != nil {
		return created, err
	}
	if len(created) > 0 {
		s.notify(ctx, events.Event{Kind: events.RecurringProcessed, Count: len(created)})
	}
	return created, nil
}
