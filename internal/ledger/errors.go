package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation wraps the core validation errors returned by Add and Edit.
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("transaction not found")
	ErrPersistenceWrite = errors.New("persistence write failed")
	ErrPersistenceRead  = errors.New("persistence read failed")
	ErrInvalidToken     = errors.New("invalid or expired confirmation token")
)

// NotFoundError reports an unknown transaction id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string        { return fmt.Sprintf("transaction %d not found", e.ID) }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PersistenceWriteError is returned when the port rejects a write. The
// in-memory state holds the change until the next mutation re-reads the port.
type PersistenceWriteError struct {
	Key string
	Err error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}
func (e *PersistenceWriteError) Unwrap() error        { return e.Err }
func (e *PersistenceWriteError) Is(target error) bool { return target == ErrPersistenceWrite }

// PersistenceReadError describes a stored value that could not be read or
// parsed. Load falls back to the default for that key and keeps going; a
// mutation that cannot re-read the port returns it and changes nothing.
type PersistenceReadError struct {
	Key string
	Err error
}

func (e *PersistenceReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Key, e.Err)
}
func (e *PersistenceReadError) Unwrap() error        { return e.Err }
func (e *PersistenceReadError) Is(target error) bool { return target == ErrPersistenceRead }

func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
