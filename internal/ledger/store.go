// Package ledger owns the ledger state: the transactions, the recurring
// templates, the initial capital, the id counter and the daily processing
// marker. Every mutation first re-reads the state through a kv.Store and is
// written back before the call returns, so processes sharing one store see
// each other's writes.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"cashbook/internal/core"
	"cashbook/internal/events"
	"cashbook/internal/kv"
	"cashbook/internal/report"

	"github.com/shopspring/decimal"
)

// DefaultTokenTTL is how long a delete or clear request stays confirmable.
const DefaultTokenTTL = 5 * time.Minute

type Store struct {
	mu sync.Mutex

	kv             kv.Store
	clock          Clock
	loc            *time.Location
	notifier       events.Notifier
	categories     core.CategorySet
	defaultCapital decimal.Decimal
	tokenTTL       time.Duration

	capital       decimal.Decimal
	transactions  []core.Transaction
	templates     []core.Transaction
	lastProcessed core.Date
	nextID        int64
	pending       map[Token]pendingAction
	readErrs      []*PersistenceReadError
}

// Option configures a Store.
type Option func(*Store)

func WithClock(c Clock) Option { return func(s *Store) { s.clock = c } }

// WithLocation sets the time zone that decides the calendar day.
func WithLocation(loc *time.Location) Option { return func(s *Store) { s.loc = loc } }

func WithNotifier(n events.Notifier) Option { return func(s *Store) { s.notifier = n } }

// WithCategories sets the closed category set. An empty set accepts any name.
func WithCategories(c core.CategorySet) Option { return func(s *Store) { s.categories = c } }

// WithDefaultCapital is the capital used when none has been stored.
func WithDefaultCapital(v decimal.Decimal) Option {
	return func(s *Store) { s.defaultCapital = v }
}

func WithTokenTTL(d time.Duration) Option { return func(s *Store) { s.tokenTTL = d } }

// New loads the ledger through port. Unreadable values fall back to their
// defaults; see ReadErrors.
func New(ctx context.Context, port kv.Store, opts ...Option) (*Store, error) {
	if port == nil {
		return nil, errors.New("ledger: nil persistence port")
	}
	s := &Store{
		kv:         port,
		clock:      SystemClock{},
		loc:        time.Local,
		notifier:   events.Discard,
		categories: core.NewCategorySet(core.DefaultCategories),
		tokenTTL:   DefaultTokenTTL,
		pending:    map[Token]pendingAction{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.notifier == nil {
		s.notifier = events.Discard
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = DefaultTokenTTL
	}
	s.load(ctx)
	slog.DebugContext(ctx, "Ledger loaded",
		"transactions", len(s.transactions),
		"templates", len(s.templates),
		"next_id", s.nextID)
	return s, nil
}

// Add validates in, assigns it the next id and today's date, and appends it.
// A recurring input also becomes a template with the same id.
func (s *Store) Add(ctx context.Context, in core.Input) (core.Transaction, error) {
	if err := in.Validate(s.categories); err != nil {
		return core.Transaction{}, validationError(err)
	}

	s.mu.Lock()
	if err := s.refresh(ctx); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	now := s.clock.Now()
	t := core.Transaction{
		ID:           s.nextID,
		Date:         core.DateOf(now.In(s.loc)),
		Timestamp:    now,
		Type:         in.Type,
		Category:     in.Category,
		Amount:       in.Amount,
		Description:  in.Description,
		IsRecurring:  in.IsRecurring,
		RecurringDay: in.RecurringDay,
	}
	if !t.IsRecurring {
		t.RecurringDay = 0
	}
	s.nextID++
	s.transactions = append(s.transactions, t)
	values := map[string]*string{
		KeyTransactions:      encodeList(s.transactions),
		KeyNextTransactionID: encodeInt(s.nextID),
	}
	if t.IsRecurring {
		s.templates = append(s.templates, t)
		values[KeyRecurringTemplates] = encodeList(s.templates)
	}
	err := s.persist(ctx, values)
	s.mu.Unlock()

	if err != nil {
		return t, err
	}
	s.notify(ctx, events.Event{Kind: events.TransactionAdded, TransactionID: t.ID})
	return t, nil
}

// Edit replaces the transaction with the same id. Id and timestamp are kept.
// The companion template follows the recurring flag: it is created or
// updated when set and removed when cleared.
func (s *Store) Edit(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(s.categories); err != nil {
		return validationError(err)
	}

	s.mu.Lock()
	if err := s.refresh(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	i := indexOf(s.transactions, t.ID)
	if i < 0 {
		s.mu.Unlock()
		return &NotFoundError{ID: t.ID}
	}
	orig := s.transactions[i]
	t.Timestamp = orig.Timestamp
	t.TemplateID = orig.TemplateID
	if !t.IsRecurring {
		t.RecurringDay = 0
	}
	s.transactions[i] = t

	if t.IsRecurring {
		if j := indexOf(s.templates, t.ID); j >= 0 {
			s.templates[j] = t
		} else {
			s.templates = append(s.templates, t)
		}
	} else {
		s.templates = removeID(s.templates, t.ID)
	}
	err := s.persist(ctx, map[string]*string{
		KeyTransactions:       encodeList(s.transactions),
		KeyRecurringTemplates: encodeList(s.templates),
	})
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify(ctx, events.Event{Kind: events.TransactionEdited, TransactionID: t.ID})
	return nil
}

// Delete removes the transaction and any template with the same id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	if err := s.refresh(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	if indexOf(s.transactions, id) < 0 && indexOf(s.templates, id) < 0 {
		s.mu.Unlock()
		return &NotFoundError{ID: id}
	}
	s.transactions = removeID(s.transactions, id)
	s.templates = removeID(s.templates, id)
	err := s.persist(ctx, map[string]*string{
		KeyTransactions:       encodeList(s.transactions),
		KeyRecurringTemplates: encodeList(s.templates),
	})
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify(ctx, events.Event{Kind: events.TransactionDeleted, TransactionID: id})
	return nil
}

// SetInitialCapital stores the baseline the balance starts from. Negative
// values are accepted.
func (s *Store) SetInitialCapital(ctx context.Context, v decimal.Decimal) error {
	s.mu.Lock()
	if err := s.refresh(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	s.capital = v
	err := s.persist(ctx, map[string]*string{KeyInitialCapital: encodeDecimal(v)})
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify(ctx, events.Event{Kind: events.CapitalChanged})
	return nil
}

// ClearAll empties the ledger and resets capital and the id counter. The
// processing marker survives so recurring templates are not re-run today.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	if err := s.refresh(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	s.transactions = []core.Transaction{}
	s.templates = []core.Transaction{}
	s.capital = decimal.Zero
	s.nextID = 1
	err := s.persist(ctx, map[string]*string{
		KeyTransactions:       nil,
		KeyRecurringTemplates: nil,
		KeyInitialCapital:     nil,
		KeyNextTransactionID:  nil,
	})
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify(ctx, events.Event{Kind: events.DataCleared})
	return nil
}

// List returns a copy of the transactions in insertion order.
func (s *Store) List() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.transactions)
}

// Templates returns a copy of the recurring templates.
func (s *Store) Templates() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.templates)
}

func (s *Store) Get(id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.transactions, id)
	if i < 0 {
		return core.Transaction{}, &NotFoundError{ID: id}
	}
	return s.transactions[i], nil
}

func (s *Store) InitialCapital() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capital
}

// LastProcessedDate is the day the recurrence scheduler last ran; zero if never.
func (s *Store) LastProcessedDate() core.Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastProcessed
}

// Snapshot returns a copy of the persisted state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		InitialCapital:    s.capital,
		Transactions:      slices.Clone(s.transactions),
		Templates:         slices.Clone(s.templates),
		LastProcessedDate: s.lastProcessed,
		NextID:            s.nextID,
	}
}

// Categories returns the accepted category set.
func (s *Store) Categories() core.CategorySet { return s.categories }

// Location is the time zone used for calendar days.
func (s *Store) Location() *time.Location { return s.loc }

// Today is the current calendar day according to the store's clock.
func (s *Store) Today() core.Date { return Today(s.clock, s.loc) }

// ReadErrors lists the values that could not be read on the last load.
func (s *Store) ReadErrors() []*PersistenceReadError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.readErrs)
}

// Reload re-reads the state through the port, picking up writes made by
// other processes. Reads between mutations otherwise serve the last state
// seen.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx)
}

func (s *Store) Balance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return report.Balance(s.transactions, s.capital)
}

func (s *Store) MonthlySummary() map[time.Month]*report.Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return report.MonthlySummary(s.transactions)
}

func (s *Store) MonthlySummaryByYear() map[report.YearMonth]*report.Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return report.MonthlySummaryByYear(s.transactions)
}

func (s *Store) Filter(c report.Criteria) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return report.Filter(s.transactions, c)
}

// notify delivers e to the notifier. Failures are logged only.
func (s *Store) notify(ctx context.Context, e events.Event) {
	if e.At.IsZero() {
		e.At = s.clock.Now()
	}
	if err := s.notifier.Notify(ctx, e); err != nil {
		slog.WarnContext(ctx, "Failed to deliver ledger event", "kind", string(e.Kind), "error", err)
	}
}

func indexOf(txs []core.Transaction, id int64) int {
	return slices.IndexFunc(txs, func(t core.Transaction) bool { return t.ID == id })
}

func removeID(txs []core.Transaction, id int64) []core.Transaction {
	return slices.DeleteFunc(txs, func(t core.Transaction) bool { return t.ID == id })
}
