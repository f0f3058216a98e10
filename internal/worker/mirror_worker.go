package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"cashbook/internal/amqp"
	"cashbook/internal/kv"
	"cashbook/internal/ledger"
)

// MirrorWorker copies the ledger blobs from the primary backend to a
// secondary store, typically a Google Sheets tab kept for reading.
type MirrorWorker struct {
	source kv.Store
	mirror kv.Store
	keys   []string

	mu   sync.Mutex
	last map[string]*string
}

func NewMirrorWorker(source, mirror kv.Store) *MirrorWorker {
	return &MirrorWorker{
		source: source,
		mirror: mirror,
		keys:   ledger.PersistedKeys,
		last:   map[string]*string{},
	}
}

// HandleEvent processes a single ledger event from AMQP. The event only
// signals that something changed; the whole ledger is copied.
func (w *MirrorWorker) HandleEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"kind", string(msg.Kind),
		"transaction_id", msg.TransactionID)

	if _, err := w.Sync(ctx); err != nil {
		return fmt.Errorf("mirror ledger: %w", err)
	}
	return nil
}

// Sync copies every key whose value differs from the last successful copy
// and returns how many keys were written. A key missing from the source is
// deleted from the mirror.
func (w *MirrorWorker) Sync(ctx context.Context) (int, error) {
	if w.source == nil || w.mirror == nil {
		return 0, errors.New("mirror worker not configured")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	changed := map[string]*string{}
	for _, key := range w.keys {
		value, ok, err := w.source.Get(ctx, key)
		if err != nil {
			return 0, fmt.Errorf("read %s from source: %w", key, err)
		}
		var current *string
		if ok {
			current = &value
		}
		prev, seen := w.last[key]
		if seen && sameValue(prev, current) {
			continue
		}
		changed[key] = current
	}
	if len(changed) == 0 {
		slog.DebugContext(ctx, "Mirror up to date")
		return 0, nil
	}

	if err := kv.SetMany(ctx, w.mirror, changed); err != nil {
		return 0, fmt.Errorf("write mirror: %w", err)
	}
	for key, value := range changed {
		w.last[key] = value
	}

	slog.InfoContext(ctx, "Ledger mirrored", "keys", len(changed))
	return len(changed), nil
}

// StartupSync forces a full copy, recovering from events missed while the
// worker was down.
func (w *MirrorWorker) StartupSync(ctx context.Context) error {
	w.mu.Lock()
	w.last = map[string]*string{}
	w.mu.Unlock()

	n, err := w.Sync(ctx)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "keys", n)
	return nil
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
