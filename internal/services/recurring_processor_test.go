package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"cashbook/internal/core"
	"cashbook/internal/kv/memory"
	"cashbook/internal/ledger"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func setup(t *testing.T, start time.Time) (*ledger.Store, *stepClock) {
	t.Helper()
	clock := &stepClock{now: start}
	store, err := ledger.New(context.Background(), memory.New(),
		ledger.WithClock(clock), ledger.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, clock
}

func addTemplate(t *testing.T, s *ledger.Store, day int) core.Transaction {
	t.Helper()
	tx, err := s.Add(context.Background(), core.Input{
		Type: core.Expense, Category: "rent", Amount: core.AmountFromFloat(30),
		IsRecurring: true, RecurringDay: day,
	})
	if err != nil {
		t.Fatalf("add template: %v", err)
	}
	return tx
}

func TestProcessDue_RentExample(t *testing.T) {
	store, clock := setup(t, time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC))
	addTemplate(t, store, 15)
	p := NewRecurringProcessor(store, clock, time.UTC, nil)
	ctx := context.Background()

	clock.Set(time.Date(2024, time.March, 15, 7, 0, 0, 0, time.UTC))
	created, err := p.ProcessDue(ctx)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected exactly one transaction, got %d", len(created))
	}
	got := created[0]
	if got.Type != core.Expense || got.Category != "rent" || got.Amount.String() != "30" || got.Date.String() != "2024-03-15" {
		t.Fatalf("unexpected transaction: %+v", got)
	}

	// Second run on the same calendar day, a few hours later.
	clock.Set(time.Date(2024, time.March, 15, 22, 0, 0, 0, time.UTC))
	again, err := p.ProcessDue(ctx)
	if err != nil || len(again) != 0 {
		t.Fatalf("second run created %d (%v)", len(again), err)
	}
	if n := len(store.List()); n != 2 {
		t.Fatalf("expected template source + 1 copy, got %d", n)
	}
}

func TestProcessDue_NoCatchUp(t *testing.T) {
	store, clock := setup(t, time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC))
	addTemplate(t, store, 15)
	p := NewRecurringProcessor(store, clock, time.UTC, ExactDayChecker{})

	clock.Set(time.Date(2024, time.March, 16, 8, 0, 0, 0, time.UTC))
	created, err := p.ProcessDue(context.Background())
	if err != nil || len(created) != 0 {
		t.Fatalf("missed day must not be backfilled: %d (%v)", len(created), err)
	}
	if store.LastProcessedDate().String() != "2024-03-16" {
		t.Fatalf("marker = %s", store.LastProcessedDate())
	}
}

func TestProcessDue_SameDayOfMonthNextMonth(t *testing.T) {
	store, clock := setup(t, time.Date(2024, time.March, 15, 8, 0, 0, 0, time.UTC))
	addTemplate(t, store, 15)
	p := NewRecurringProcessor(store, clock, time.UTC, nil)
	ctx := context.Background()

	if created, _ := p.ProcessDue(ctx); len(created) != 1 {
		t.Fatalf("March run created %d", len(created))
	}
	clock.Set(time.Date(2024, time.April, 15, 8, 0, 0, 0, time.UTC))
	if created, _ := p.ProcessDue(ctx); len(created) != 1 {
		t.Fatalf("April run created %d", len(created))
	}
}

func TestProcessDue_ClampStrategy(t *testing.T) {
	store, clock := setup(t, time.Date(2024, time.April, 1, 8, 0, 0, 0, time.UTC))
	addTemplate(t, store, 31)
	p := NewRecurringProcessor(store, clock, time.UTC, ClampedDayChecker{})

	clock.Set(time.Date(2024, time.April, 30, 8, 0, 0, 0, time.UTC))
	created, err := p.ProcessDue(context.Background())
	if err != nil || len(created) != 1 {
		t.Fatalf("clamped run created %d (%v)", len(created), err)
	}
}

func TestProcessDue_UsesLocation(t *testing.T) {
	// 22:30 UTC on the 14th is the 15th in UTC+2.
	store, clock := setup(t, time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC))
	addTemplate(t, store, 15)
	p := NewRecurringProcessor(store, clock, time.FixedZone("UTC+2", 2*60*60), nil)

	clock.Set(time.Date(2024, time.March, 14, 22, 30, 0, 0, time.UTC))
	created, err := p.ProcessDue(context.Background())
	if err != nil || len(created) != 1 {
		t.Fatalf("created %d (%v)", len(created), err)
	}
	if created[0].Date.String() != "2024-03-15" {
		t.Fatalf("date = %s", created[0].Date)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store, clock := setup(t, time.Date(2024, time.March, 15, 8, 0, 0, 0, time.UTC))
	addTemplate(t, store, 15)
	p := NewRecurringProcessor(store, clock, time.UTC, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, time.Millisecond) }()

	deadline := time.After(2 * time.Second)
	for len(store.List()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("initial run did not happen")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := len(store.List()); n != 2 {
		t.Fatalf("ticks on the same day must not duplicate, got %d", n)
	}
}

func TestProcessDue_Uninitialized(t *testing.T) {
	p := NewRecurringProcessor(nil, nil, nil, nil)
	if _, err := p.ProcessDue(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
