package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"cashbook/internal/core"
	"cashbook/internal/kv/memory"
	"cashbook/internal/storage"

	"github.com/shopspring/decimal"
)

func TestStoresSharingSQLiteKeepEachOthersWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	open := func() *Store {
		repo, err := storage.NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { repo.Close() })
		return newTestStore(t, repo)
	}

	// Both loaded before either writes, like a CLI run next to the server.
	cli, server := open(), open()

	food := mustAdd(t, cli, expense(99, "food"))
	rent := mustAdd(t, server, expense(1, "rent"))
	if food.ID == rent.ID {
		t.Fatalf("both processes issued id %d", food.ID)
	}

	food.Description = "groceries"
	if err := server.Edit(ctx, food); err != nil {
		t.Fatalf("edit a transaction added by the other store: %v", err)
	}
	if err := server.SetInitialCapital(ctx, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("capital: %v", err)
	}
	mustAdd(t, cli, expense(5, "misc"))

	reloaded := open()
	list := reloaded.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 transactions, got %d: %+v", len(list), list)
	}
	if list[0].ID != food.ID || list[0].Description != "groceries" {
		t.Errorf("edit lost: %+v", list[0])
	}
	if !reloaded.InitialCapital().Equal(decimal.NewFromInt(100)) {
		t.Errorf("capital lost: %s", reloaded.InitialCapital())
	}
	if got := reloaded.Balance(); !got.Equal(decimal.NewFromInt(-5)) {
		t.Errorf("balance = %s, want -5", got)
	}
}

func TestStoresSharingAPortMaterializeOnce(t *testing.T) {
	ctx := context.Background()
	port := memory.New()
	a, b := newTestStore(t, port), newTestStore(t, port)
	mustAdd(t, a, core.Input{Type: core.Expense, Category: "rent", Amount: core.AmountFromFloat(30), IsRecurring: true, RecurringDay: 15})

	today := core.DateOf(march15)
	always := func(core.Transaction, core.Date) bool { return true }
	first, err := a.MaterializeDue(ctx, today, always)
	if err != nil || len(first) != 1 {
		t.Fatalf("first run: %v, err=%v", first, err)
	}
	second, err := b.MaterializeDue(ctx, today, always)
	if err != nil || len(second) != 0 {
		t.Fatalf("second store re-ran today's templates: %v, err=%v", second, err)
	}
	if n := len(b.List()); n != 2 {
		t.Fatalf("expected template source plus one copy, got %d", n)
	}
}

// unreadableStore fails every read once broken is set.
type unreadableStore struct {
	*memory.Store
	broken bool
}

func (s *unreadableStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.broken {
		return "", false, errors.New("disk gone")
	}
	return s.Store.Get(ctx, key)
}

func TestMutationAbortsWhenPortUnreadable(t *testing.T) {
	ctx := context.Background()
	port := &unreadableStore{Store: memory.New()}
	s := newTestStore(t, port)
	mustAdd(t, s, expense(1, "food"))

	port.broken = true
	_, err := s.Add(ctx, expense(2, "food"))
	var re *PersistenceReadError
	if !errors.Is(err, ErrPersistenceRead) || !errors.As(err, &re) {
		t.Fatalf("expected persistence read error, got %v", err)
	}
	if err := s.ClearAll(ctx); !errors.Is(err, ErrPersistenceRead) {
		t.Fatalf("clear should fail too, got %v", err)
	}

	port.broken = false
	if n := len(newTestStore(t, port).List()); n != 1 {
		t.Fatalf("stored ledger changed by aborted mutations: %d transactions", n)
	}
}

func TestLoadKeepsReadableSiblings(t *testing.T) {
	ctx := context.Background()
	port := memory.New()
	txs := `[
		{"id":1,"date":"2024-03-01","type":"Income","category":"salary","amount":500},
		{"id":2,"date":"not-a-date","type":"Expense","category":"food","amount":20},
		{"id":7,"date":"2024-03-02","type":{"bad":true},"category":"food","amount":3}
	]`
	if err := port.Set(ctx, KeyTransactions, txs); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := newTestStore(t, port)
	list := s.List()
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 2 || !list[1].Date.IsZero() {
		t.Fatalf("unexpected transactions: %+v", list)
	}
	errs := s.ReadErrors()
	if len(errs) != 1 || errs[0].Key != KeyTransactions {
		t.Fatalf("expected one problem on %s, got %v", KeyTransactions, errs)
	}

	// The unreadable entry still reserves its id.
	if tx := mustAdd(t, s, expense(1, "food")); tx.ID != 8 {
		t.Fatalf("id = %d, want 8", tx.ID)
	}
	again := newTestStore(t, port).List()
	if len(again) != 3 || again[0].ID != 1 || !again[0].Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("valid entries lost after a write: %+v", again)
	}
}
