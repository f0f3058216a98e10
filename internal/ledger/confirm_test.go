package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cashbook/internal/kv/memory"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	s := newTestStore(t, memory.New())
	ctx := context.Background()
	tx := mustAdd(t, s, expense(5, "food"))

	p, err := s.RequestDelete(tx.ID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if p.Action != ActionDelete || p.ID != tx.ID || p.Token == "" {
		t.Fatalf("unexpected pending: %+v", p)
	}
	if len(s.List()) != 1 {
		t.Fatalf("request alone must not delete")
	}
	if err := s.Confirm(ctx, p.Token); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if len(s.List()) != 0 {
		t.Fatalf("confirm should delete")
	}
	if err := s.Confirm(ctx, p.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token must be single use, got %v", err)
	}
}

func TestRequestDeleteUnknownID(t *testing.T) {
	s := newTestStore(t, memory.New())
	if _, err := s.RequestDelete(7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelAndExpiry(t *testing.T) {
	clock := &manualClock{now: march15}
	s := newTestStore(t, memory.New(), WithClock(clock), WithTokenTTL(time.Minute))
	ctx := context.Background()
	mustAdd(t, s, expense(5, "food"))

	cancelled := s.RequestClear()
	if err := s.Cancel(cancelled.Token); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := s.Confirm(ctx, cancelled.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("cancelled token confirmed: %v", err)
	}
	if err := s.Cancel("nope"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("unknown cancel: %v", err)
	}

	expired := s.RequestClear()
	clock.Advance(time.Minute)
	if err := s.Confirm(ctx, expired.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token confirmed: %v", err)
	}
	if len(s.List()) != 1 {
		t.Fatalf("ledger must be untouched")
	}

	live := s.RequestClear()
	clock.Advance(30 * time.Second)
	if err := s.Confirm(ctx, live.Token); err != nil {
		t.Fatalf("confirm clear: %v", err)
	}
	if len(s.List()) != 0 {
		t.Fatalf("clear not applied")
	}
}
