package cache

import (
	"context"
	"log/slog"
	"time"

	"cashbook/internal/kv"
)

// entry remembers misses too, so absent keys cost one read per ttl.
type entry struct {
	value string
	ok    bool
}

// Store is a read-through, write-through cache in front of a slow
// persistence adapter such as Google Sheets.
type Store struct {
	inner kv.Store
	cache *LRUCache[entry]
}

var (
	_ kv.Store   = (*Store)(nil)
	_ kv.Batcher = (*Store)(nil)
)

func NewStore(inner kv.Store, maxSize int, ttl time.Duration) *Store {
	return &Store{inner: inner, cache: NewLRUCache[entry](maxSize, ttl)}
}

// Get serves from the cache. On a miss an inner kv.Snapshotter is asked for
// every key at once and the result replaces the whole cache, so keys deleted
// elsewhere stop being served.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if e, ok := s.cache.Get(key); ok {
		return e.value, e.ok, nil
	}
	if snap, ok := s.inner.(kv.Snapshotter); ok {
		all, err := snap.All(ctx)
		if err != nil {
			return "", false, err
		}
		s.cache.Purge()
		for k, v := range all {
			s.cache.Set(k, entry{value: v, ok: true})
		}
		v, found := all[key]
		if !found {
			s.cache.Set(key, entry{})
		}
		slog.DebugContext(ctx, "Cache filled from snapshot", "keys", len(all))
		return v, found, nil
	}

	v, found, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	s.cache.Set(key, entry{value: v, ok: found})
	return v, found, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]*string{key: &value})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.SetMany(ctx, map[string]*string{key: nil})
}

// SetMany writes through. On failure the touched keys are forgotten so the
// next read goes back to the adapter.
func (s *Store) SetMany(ctx context.Context, values map[string]*string) error {
	if err := kv.SetMany(ctx, s.inner, values); err != nil {
		for k := range values {
			s.cache.Delete(k)
		}
		return err
	}
	for k, v := range values {
		if v == nil {
			s.cache.Set(k, entry{})
		} else {
			s.cache.Set(k, entry{value: *v, ok: true})
		}
	}
	return nil
}
