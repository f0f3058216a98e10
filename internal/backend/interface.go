package backend

import (
	"context"

	"cashbook/internal/events"
	"cashbook/internal/kv"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the persistence port and optional cleanup function
type BackendResult struct {
	Store   kv.Store
	Cleanup CleanupFunc
}

// NotifierResult contains the event sink and optional cleanup function
type NotifierResult struct {
	Notifier events.Notifier
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates the persistence port selected by config.Type
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateNotifier creates the event sink; AMQP is added when configured
	CreateNotifier(ctx context.Context, config Config) (*NotifierResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP, optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory backend specific
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
