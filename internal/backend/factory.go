package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cashbook/internal/amqp"
	"cashbook/internal/cache"
	"cashbook/internal/events"
	"cashbook/internal/kv/google"
	"cashbook/internal/kv/memory"
	"cashbook/internal/storage"
)

// Every Sheets read fetches the whole tab, so reads are cached briefly.
const (
	sheetsCacheSize = 16
	sheetsCacheTTL  = 30 * time.Second
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   sqliteRepo,
		Cleanup: sqliteRepo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := google.New(ctx, google.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)

	return &BackendResult{
		Store:   cache.NewStore(cli, sheetsCacheSize, sheetsCacheTTL),
		Cleanup: nil, // No cleanup needed for sheets backend
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	var store *memory.Store
	if config.DataDirectory != "" {
		store = memory.NewFromFiles(config.DataDirectory)
	} else {
		store = memory.New()
	}

	f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)

	return &BackendResult{
		Store:   store,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}

// CreateNotifier implements Factory.CreateNotifier. Events always go to the
// log; an AMQP publisher is added when AMQPURL is set. A broker that cannot
// be reached at startup is logged and skipped.
func (f *DefaultFactory) CreateNotifier(ctx context.Context, config Config) (*NotifierResult, error) {
	sinks := events.Multi{events.LogNotifier{Logger: f.logger}}
	result := &NotifierResult{}

	if config.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without event publishing", "error", err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			sinks = append(sinks, amqpClient)
			result.Cleanup = amqpClient.Close
		}
	}

	result.Notifier = sinks
	return result, nil
}
