package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"cashbook/internal/core"
	"cashbook/internal/kv"

	"github.com/shopspring/decimal"
)

// Keys of the blobs written through the persistence port.
const (
	KeyInitialCapital     = "initialCapital"
	KeyTransactions       = "transactions"
	KeyRecurringTemplates = "recurringTemplates"
	KeyLastProcessedDate  = "lastProcessedDate"
	KeyNextTransactionID  = "nextTransactionId"

	// legacyKeyRecurring is where older clients kept the templates.
	legacyKeyRecurring = "recurringTransactions"
)

// PersistedKeys lists every key the store writes.
var PersistedKeys = []string{
	KeyInitialCapital,
	KeyTransactions,
	KeyRecurringTemplates,
	KeyLastProcessedDate,
	KeyNextTransactionID,
}

// State is a snapshot of everything the store persists.
type State struct {
	InitialCapital    decimal.Decimal
	Transactions      []core.Transaction
	Templates         []core.Transaction
	LastProcessedDate core.Date
	NextID            int64
}

// load reads the state at startup. Missing, unreachable or unreadable
// values fall back to their defaults; the problems are kept in s.readErrs.
func (s *Store) load(ctx context.Context) {
	values, failed := s.fetch(ctx)
	st, problems := s.decode(values)
	s.apply(st, append(failed, problems...))
	for _, p := range s.readErrs {
		slog.WarnContext(ctx, "Ignoring unreadable ledger value", "key", p.Key, "error", p.Err)
	}
	if dup := duplicateIDs(s.transactions); len(dup) > 0 {
		slog.WarnContext(ctx, "Stored ledger contains duplicate transaction ids", "ids", dup)
	}
}

// refresh re-reads the state through the port before a mutation, so writes
// made by another process sharing the same store are not overwritten.
// A port that cannot be read aborts the mutation. Called with s.mu held.
func (s *Store) refresh(ctx context.Context) error {
	values, failed := s.fetch(ctx)
	if len(failed) > 0 {
		slog.ErrorContext(ctx, "Failed to re-read ledger state", "key", failed[0].Key, "error", failed[0].Err)
		return failed[0]
	}
	st, problems := s.decode(values)
	if !st.LastProcessedDate.After(s.lastProcessed.Time) {
		st.LastProcessedDate = s.lastProcessed
	}
	s.apply(st, problems)
	for _, p := range problems {
		slog.DebugContext(ctx, "Ignoring unreadable ledger value", "key", p.Key, "error", p.Err)
	}
	return nil
}

func (s *Store) apply(st State, problems []*PersistenceReadError) {
	s.capital = st.InitialCapital
	s.transactions = st.Transactions
	s.templates = st.Templates
	s.lastProcessed = st.LastProcessedDate
	s.nextID = st.NextID
	s.readErrs = problems
}

// readKeys are fetched on every read: the persisted keys plus the legacy
// template key.
var readKeys = append(slices.Clone(PersistedKeys), legacyKeyRecurring)

// fetch reads the raw blobs, in one round trip when the port is a
// kv.Snapshotter. Keys that could not be read are listed in failed.
func (s *Store) fetch(ctx context.Context) (map[string]string, []*PersistenceReadError) {
	if snap, ok := s.kv.(kv.Snapshotter); ok {
		all, err := snap.All(ctx)
		if err != nil {
			return map[string]string{}, []*PersistenceReadError{{Key: strings.Join(readKeys, ","), Err: err}}
		}
		return all, nil
	}
	values := make(map[string]string, len(readKeys))
	var failed []*PersistenceReadError
	for _, key := range readKeys {
		raw, ok, err := s.kv.Get(ctx, key)
		switch {
		case err != nil:
			failed = append(failed, &PersistenceReadError{Key: key, Err: err})
		case ok:
			values[key] = raw
		}
	}
	return values, failed
}

// decode turns raw blobs into a State, using defaults for missing and
// unreadable values.
func (s *Store) decode(values map[string]string) (State, []*PersistenceReadError) {
	var problems []*PersistenceReadError
	bad := func(key string, err error) {
		problems = append(problems, &PersistenceReadError{Key: key, Err: err})
	}

	st := State{InitialCapital: s.defaultCapital}
	if raw, ok := values[KeyInitialCapital]; ok {
		v, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			bad(KeyInitialCapital, err)
		} else {
			st.InitialCapital = v
		}
	}

	txs, txFloor, err := decodeList(values[KeyTransactions])
	if err != nil {
		bad(KeyTransactions, err)
	}
	st.Transactions = txs

	tmplKey := KeyRecurringTemplates
	if _, ok := values[tmplKey]; !ok {
		tmplKey = legacyKeyRecurring
	}
	tmpls, tmplFloor, err := decodeList(values[tmplKey])
	if err != nil {
		bad(tmplKey, err)
	}
	st.Templates = tmpls

	if raw, ok := values[KeyLastProcessedDate]; ok {
		d, err := core.ParseDate(raw)
		if err != nil {
			bad(KeyLastProcessedDate, err)
		} else {
			st.LastProcessedDate = d
		}
	}

	floor := max(nextIDFloor(txs, tmpls), txFloor+1, tmplFloor+1)
	st.NextID = floor
	if raw, ok := values[KeyNextTransactionID]; ok {
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		switch {
		case err != nil:
			bad(KeyNextTransactionID, err)
		case n >= floor:
			st.NextID = n
		}
	}
	return st, problems
}

// decodeList decodes a stored transaction array. When some entries cannot
// be decoded the readable ones are kept, and the largest id found among the
// others is returned so new ids never collide with them. Entries whose date
// could not be read are kept with a zero date and reported in err.
func decodeList(raw string) ([]core.Transaction, int64, error) {
	if strings.TrimSpace(raw) == "" {
		return []core.Transaction{}, 0, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []core.Transaction{}, 0, err
	}

	out := make([]core.Transaction, 0, len(items))
	var floor int64
	var skipped, undated int
	for _, item := range items {
		var t core.Transaction
		if err := json.Unmarshal(item, &t); err != nil {
			skipped++
			var ref struct {
				ID json.Number `json:"id"`
			}
			if json.Unmarshal(item, &ref) == nil {
				if n, err := ref.ID.Int64(); err == nil {
					floor = max(floor, n)
				}
			}
			continue
		}
		if t.Date.IsZero() {
			undated++
		}
		out = append(out, t)
	}

	var err error
	switch {
	case skipped > 0 && undated > 0:
		err = fmt.Errorf("%d of %d entries unreadable, %d without a valid date", skipped, len(items), undated)
	case skipped > 0:
		err = fmt.Errorf("%d of %d entries unreadable", skipped, len(items))
	case undated > 0:
		err = fmt.Errorf("%d of %d entries without a valid date", undated, len(items))
	}
	return out, floor, err
}

// persist writes values in one batch when the adapter supports it.
// A nil value deletes the key.
func (s *Store) persist(ctx context.Context, values map[string]*string) error {
	err := kv.SetMany(ctx, s.kv, values)
	if err == nil {
		return nil
	}
	key := ""
	var we *kv.WriteError
	if errors.As(err, &we) {
		key = we.Key
	} else {
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		key = strings.Join(keys, ",")
	}
	slog.ErrorContext(ctx, "Failed to persist ledger state", "key", key, "error", err)
	return &PersistenceWriteError{Key: key, Err: err}
}

func encodeList(txs []core.Transaction) *string {
	if txs == nil {
		txs = []core.Transaction{}
	}
	b, err := json.Marshal(txs)
	if err != nil {
		// Transaction holds only marshalable fields.
		panic(err)
	}
	s := string(b)
	return &s
}

func encodeDecimal(v decimal.Decimal) *string {
	s := v.String()
	return &s
}

func encodeInt(n int64) *string {
	s := strconv.FormatInt(n, 10)
	return &s
}

func encodeMarker(d core.Date) *string {
	s := d.Format(time.RFC3339)
	return &s
}

// nextIDFloor is the smallest id that cannot collide with stored data.
func nextIDFloor(lists ...[]core.Transaction) int64 {
	var maxID int64
	var count int
	for _, l := range lists {
		for _, t := range l {
			maxID = max(maxID, t.ID)
		}
		count = max(count, len(l))
	}
	return max(maxID, int64(count)) + 1
}

func duplicateIDs(txs []core.Transaction) []int64 {
	seen := make(map[int64]bool, len(txs))
	var dup []int64
	for _, t := range txs {
		if seen[t.ID] && !slices.Contains(dup, t.ID) {
			dup = append(dup, t.ID)
		}
		seen[t.ID] = true
	}
	return dup
}
