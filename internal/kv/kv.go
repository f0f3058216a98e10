// Package kv defines the persistence port of the ledger: a store of named
// string blobs. Adapters live in the sub-packages and in internal/storage.
package kv

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by adapters that enforce a size limit.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Ports for outbound adapters.
type (
	// Store gets and sets named blobs. A missing key is reported with ok=false
	// and a nil error.
	Store interface {
		Get(ctx context.Context, key string) (value string, ok bool, err error)
		Set(ctx context.Context, key, value string) error
		Delete(ctx context.Context, key string) error
	}

	// Batcher is implemented by adapters able to apply several writes as one
	// unit. Keys mapped to nil are deleted.
	Batcher interface {
		SetMany(ctx context.Context, values map[string]*string) error
	}

	// Snapshotter is implemented by adapters that read every blob in one
	// round trip.
	Snapshotter interface {
		All(ctx context.Context) (map[string]string, error)
	}
)

// SetMany applies values through b when the store supports batching and
// falls back to sequential writes otherwise.
func SetMany(ctx context.Context, s Store, values map[string]*string) error {
	if b, ok := s.(Batcher); ok {
		return b.SetMany(ctx, values)
	}
	for k, v := range values {
		var err error
		if v == nil {
			err = s.Delete(ctx, k)
		} else {
			err = s.Set(ctx, k, *v)
		}
		if err != nil {
			return &WriteError{Key: k, Err: err}
		}
	}
	return nil
}

// WriteError names the key whose write failed inside a batch.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string { return "write " + e.Key + ": " + e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }
