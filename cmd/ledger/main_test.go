package main

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"
	"time"

	"cashbook/internal/cli"
	"cashbook/internal/kv/memory"
	"cashbook/internal/ledger"
	"cashbook/internal/services"

	"github.com/google/subcommands"
	"github.com/jedib0t/go-pretty/v6/text"
)

func init() {
	text.DisableColors()
}

type testEnv struct {
	*ledgerEnv
	buf   *bytes.Buffer
	input *strings.Reader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newSeededEnv(t, nil)
}

// newSeededEnv starts from the stored values in seed, on 2024-03-15.
func newSeededEnv(t *testing.T, seed map[string]string) *testEnv {
	t.Helper()
	ctx := context.Background()
	port := memory.New()
	for k, v := range seed {
		if err := port.Set(ctx, k, v); err != nil {
			t.Fatalf("seed %s: %v", k, err)
		}
	}
	clock := ledger.FixedClock(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	store, err := ledger.New(ctx, port, ledger.WithClock(clock), ledger.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	app := &cli.App{
		Store:     store,
		Processor: services.NewRecurringProcessor(store, clock, time.UTC, services.ExactDayChecker{}),
		Currency:  "USD",
	}
	te := &testEnv{buf: &bytes.Buffer{}, input: strings.NewReader("")}
	te.ledgerEnv = &ledgerEnv{
		out:  te.buf,
		in:   te.input,
		open: func(context.Context) (*cli.App, error) { return app, nil },
	}
	return te
}

func (te *testEnv) run(t *testing.T, name string, args ...string) subcommands.ExitStatus {
	t.Helper()
	te.buf.Reset()
	for _, c := range commands(te.ledgerEnv) {
		if c.Name() != name {
			continue
		}
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		c.SetFlags(fs)
		if err := fs.Parse(args); err != nil {
			t.Fatalf("parse %v: %v", args, err)
		}
		return c.Execute(context.Background(), fs)
	}
	t.Fatalf("unknown command %q", name)
	return subcommands.ExitFailure
}

func (te *testEnv) store(t *testing.T) *ledger.Store {
	t.Helper()
	app, _ := te.open(context.Background())
	return app.Store
}

func TestAddAndList(t *testing.T) {
	te := newTestEnv(t)

	if st := te.run(t, "add", "-type", "income", "-category", "salary", "-amount", "1000"); st != subcommands.ExitSuccess {
		t.Fatalf("add income: status %v", st)
	}
	if !strings.Contains(te.buf.String(), "Added transaction 1") {
		t.Fatalf("unexpected output: %q", te.buf.String())
	}
	if st := te.run(t, "add", "-category", "food", "-amount", "12,50", "-desc", "lunch"); st != subcommands.ExitSuccess {
		t.Fatalf("add expense: status %v", st)
	}

	te.run(t, "list", "-type", "expense")
	out := te.buf.String()
	if !strings.Contains(out, "lunch") || !strings.Contains(out, "$12.50") {
		t.Fatalf("expense missing from list:\n%s", out)
	}
	if strings.Contains(out, "salary") {
		t.Fatalf("filter by type leaked income:\n%s", out)
	}

	te.run(t, "balance")
	if !strings.Contains(te.buf.String(), "$987.50") {
		t.Fatalf("unexpected balance:\n%s", te.buf.String())
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want subcommands.ExitStatus
	}{
		{"bad type", []string{"-type", "gift", "-category", "food", "-amount", "1"}, subcommands.ExitUsageError},
		{"bad amount", []string{"-category", "food", "-amount", "abc"}, subcommands.ExitUsageError},
		{"unknown category", []string{"-category", "yachts", "-amount", "1"}, subcommands.ExitFailure},
		{"bad recurring day", []string{"-category", "rent", "-amount", "1", "-recurring-day", "32"}, subcommands.ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEnv(t)
			if st := te.run(t, "add", tt.args...); st != tt.want {
				t.Fatalf("expected status %v, got %v", tt.want, st)
			}
			if n := len(te.store(t).List()); n != 0 {
				t.Fatalf("expected empty ledger, got %d transactions", n)
			}
		})
	}
}

func TestEditChangesOnlyGivenFlags(t *testing.T) {
	te := newTestEnv(t)
	te.run(t, "add", "-category", "rent", "-amount", "800", "-desc", "flat")

	if st := te.run(t, "edit", "-id", "1", "-amount", "850", "-recurring-day", "1"); st != subcommands.ExitSuccess {
		t.Fatalf("edit: status %v", st)
	}
	got, err := te.store(t).Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount.String() != "850" || got.Description != "flat" || got.Category != "rent" {
		t.Fatalf("unexpected transaction: %+v", got)
	}
	if !got.IsRecurring || got.RecurringDay != 1 {
		t.Fatalf("expected recurring on day 1, got %+v", got)
	}
	if n := len(te.store(t).Templates()); n != 1 {
		t.Fatalf("expected 1 template, got %d", n)
	}

	if st := te.run(t, "edit", "-id", "9", "-amount", "1"); st != subcommands.ExitFailure {
		t.Fatalf("expected failure for unknown id, got %v", st)
	}
	if st := te.run(t, "edit", "-amount", "1"); st != subcommands.ExitUsageError {
		t.Fatalf("expected usage error without id, got %v", st)
	}
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	te := newTestEnv(t)
	te.run(t, "add", "-category", "food", "-amount", "5")

	te.input.Reset("n\n")
	if st := te.run(t, "delete", "-id", "1"); st != subcommands.ExitFailure {
		t.Fatalf("expected aborted delete to fail, got %v", st)
	}
	if n := len(te.store(t).List()); n != 1 {
		t.Fatalf("declined delete removed the transaction")
	}

	te.input.Reset("y\n")
	if st := te.run(t, "delete", "-id", "1"); st != subcommands.ExitSuccess {
		t.Fatalf("delete: status %v", st)
	}
	if !strings.Contains(te.buf.String(), "Deleted transaction 1") {
		t.Fatalf("unexpected output: %q", te.buf.String())
	}
	if n := len(te.store(t).List()); n != 0 {
		t.Fatalf("expected empty ledger, got %d", n)
	}
}

func TestClearWithYes(t *testing.T) {
	te := newTestEnv(t)
	te.run(t, "capital", "250")
	te.run(t, "add", "-category", "food", "-amount", "5")

	if st := te.run(t, "clear", "-yes"); st != subcommands.ExitSuccess {
		t.Fatalf("clear: status %v", st)
	}
	s := te.store(t)
	if len(s.List()) != 0 || !s.InitialCapital().IsZero() {
		t.Fatalf("ledger not cleared: %d transactions, capital %s", len(s.List()), s.InitialCapital())
	}
}

func TestCapital(t *testing.T) {
	te := newTestEnv(t)
	// Negative values follow "--" so they are not read as flags.
	if st := te.run(t, "capital", "--", "-120,5"); st != subcommands.ExitSuccess {
		t.Fatalf("capital: status %v", st)
	}
	if got := te.store(t).InitialCapital().String(); got != "-120.5" {
		t.Fatalf("expected -120.5, got %s", got)
	}
	if st := te.run(t, "capital", "abc"); st != subcommands.ExitUsageError {
		t.Fatalf("expected usage error, got %v", st)
	}
}

// salaryOn15 is an Income template for the 15th, added a month earlier.
const salaryOn15 = `[{"id":1,"date":"2024-02-15","timestamp":"2024-02-15T08:00:00Z","type":"Income","category":"salary","amount":100,"description":"pay","isRecurring":true,"recurringDay":15}]`

func salarySeed() map[string]string {
	return map[string]string{
		ledger.KeyTransactions:       salaryOn15,
		ledger.KeyRecurringTemplates: salaryOn15,
		ledger.KeyNextTransactionID:  "2",
	}
}

func TestProcessCreatesOncePerDay(t *testing.T) {
	te := newSeededEnv(t, salarySeed())

	te.run(t, "process")
	if !strings.Contains(te.buf.String(), "Created 1 recurring transaction(s)") {
		t.Fatalf("unexpected output:\n%s", te.buf.String())
	}
	te.run(t, "process")
	if !strings.Contains(te.buf.String(), "Created 0 recurring transaction(s)") {
		t.Fatalf("second run should create nothing:\n%s", te.buf.String())
	}
	te.run(t, "list")
	if n := len(te.store(t).List()); n != 2 {
		t.Fatalf("expected original plus one copy, got %d", n)
	}
}

func TestCommandsCatchUpOnDueTemplates(t *testing.T) {
	tests := []struct {
		name    string
		skip    bool
		args    []string
		want    string
		notWant string
		stored  int
	}{
		{"balance", false, []string{"balance"}, "$200.00", "", 2},
		{"list", false, []string{"list", "-from", "2024-03-15"}, "2024-03-15", "No transactions.", 2},
		{"add", false, []string{"add", "-category", "food", "-amount", "5"}, "Added transaction 3", "", 3},
		{"balance without catch-up", true, []string{"balance"}, "$100.00", "$200.00", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newSeededEnv(t, salarySeed())
			te.skipRecurring = tt.skip

			if st := te.run(t, tt.args[0], tt.args[1:]...); st != subcommands.ExitSuccess {
				t.Fatalf("status %v", st)
			}
			out := te.buf.String()
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
			if tt.notWant != "" && strings.Contains(out, tt.notWant) {
				t.Errorf("output should not contain %q:\n%s", tt.notWant, out)
			}
			if n := len(te.store(t).List()); n != tt.stored {
				t.Errorf("stored %d transactions, want %d", n, tt.stored)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	te := newTestEnv(t)
	te.run(t, "add", "-type", "income", "-category", "salary", "-amount", "100")
	te.run(t, "add", "-category", "food", "-amount", "30")

	te.run(t, "summary")
	out := te.buf.String()
	for _, want := range []string{"March", "$100.00", "$30.00", "$70.00", "Total"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	te.run(t, "summary", "-by-year")
	if !strings.Contains(te.buf.String(), "2024-03") {
		t.Fatalf("expected year-month label:\n%s", te.buf.String())
	}
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderTransactions(&buf, nil, "USD")
	renderSummary(&buf, nil, "USD")
	if got := buf.String(); got != "No transactions.\nNo transactions.\n" {
		t.Fatalf("unexpected output %q", got)
	}
}
