package ledger

import (
	"context"
	"testing"
	"time"

	"cashbook/internal/core"
	"cashbook/internal/events"
	"cashbook/internal/kv/memory"
)

func byDay(tmpl core.Transaction, d core.Date) bool { return tmpl.RecurringDay == d.Day() }

func TestMaterializeDueOncePerDay(t *testing.T) {
	rec := &recorder{}
	s := newTestStore(t, memory.New(), WithNotifier(rec))
	ctx := context.Background()
	rent := mustAdd(t, s, core.Input{
		Type: core.Expense, Category: "rent", Amount: core.AmountFromFloat(30),
		IsRecurring: true, RecurringDay: 15,
	})

	day := core.NewDate(2024, time.April, 15)
	first, err := s.MaterializeDue(ctx, day, byDay)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected one transaction, got %d", len(first))
	}
	got := first[0]
	if got.Type != core.Expense || got.Category != "rent" || !got.Amount.Equal(rent.Amount.Decimal) {
		t.Errorf("unexpected copy: %+v", got)
	}
	if !got.Date.SameDay(day) || got.ID == rent.ID || got.TemplateID != rent.ID {
		t.Errorf("unexpected identity: %+v", got)
	}
	if got.IsRecurring || got.RecurringDay != 0 {
		t.Errorf("copy must not be recurring: %+v", got)
	}

	second, err := s.MaterializeDue(ctx, day, byDay)
	if err != nil || len(second) != 0 {
		t.Fatalf("second run same day: %v, %d created", err, len(second))
	}
	if n := len(s.Templates()); n != 1 {
		t.Fatalf("templates changed: %d", n)
	}

	var processed []events.Event
	for _, e := range rec.events {
		if e.Kind == events.RecurringProcessed {
			processed = append(processed, e)
		}
	}
	if len(processed) != 1 || processed[0].Count != 1 {
		t.Fatalf("expected one recurring.processed event with count 1, got %+v", processed)
	}
}

func TestMaterializeMarker(t *testing.T) {
	s := newTestStore(t, memory.New())
	ctx := context.Background()
	mustAdd(t, s, core.Input{
		Type: core.Expense, Category: "rent", Amount: core.AmountFromFloat(30),
		IsRecurring: true, RecurringDay: 15,
	})

	// Nothing due still moves the marker.
	if _, err := s.MaterializeDue(ctx, core.NewDate(2024, time.April, 10), byDay); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.LastProcessedDate().String() != "2024-04-10" {
		t.Fatalf("marker = %s", s.LastProcessedDate())
	}

	// A clock that went backwards neither processes nor moves the marker.
	created, err := s.MaterializeDue(ctx, core.NewDate(2024, time.March, 15), byDay)
	if err != nil || len(created) != 0 {
		t.Fatalf("backwards run created %d (%v)", len(created), err)
	}
	if s.LastProcessedDate().String() != "2024-04-10" {
		t.Fatalf("marker moved back to %s", s.LastProcessedDate())
	}

	// Same day-of-month in a later month is a new day.
	s2 := newTestStore(t, memory.New())
	mustAdd(t, s2, core.Input{
		Type: core.Expense, Category: "rent", Amount: core.AmountFromFloat(30),
		IsRecurring: true, RecurringDay: 15,
	})
	for _, d := range []core.Date{core.NewDate(2024, time.March, 15), core.NewDate(2024, time.April, 15)} {
		created, err := s2.MaterializeDue(ctx, d, byDay)
		if err != nil || len(created) != 1 {
			t.Fatalf("%s: created %d (%v)", d, len(created), err)
		}
	}
}
