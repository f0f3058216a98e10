package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cashbook/internal/kv"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements the persistence port on a single kv_blobs table.
type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ kv.Store       = (*SQLiteRepository)(nil)
	_ kv.Batcher     = (*SQLiteRepository)(nil)
	_ kv.Snapshotter = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Debug("SQLite repository ready", "path", dbPath, "schema_version", version)
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Get implements kv.Store
func (r *SQLiteRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set implements kv.Store
func (r *SQLiteRepository) Set(ctx context.Context, key, value string) error {
	if err := upsert(ctx, r.db, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete implements kv.Store
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// SetMany implements kv.Batcher inside one SQL transaction.
func (r *SQLiteRepository) SetMany(ctx context.Context, values map[string]*string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for key, value := range values {
		if value == nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv_blobs WHERE key = ?`, key); err != nil {
				return &kv.WriteError{Key: key, Err: err}
			}
			continue
		}
		if err := upsert(ctx, tx, key, *value); err != nil {
			return &kv.WriteError{Key: key, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	slog.DebugContext(ctx, "Batch saved to SQLite", "keys", len(values))
	return nil
}

// All implements kv.Snapshotter with a single query.
func (r *SQLiteRepository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM kv_blobs`)
	if err != nil {
		return nil, fmt.Errorf("read all blobs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan blob: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO kv_blobs (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	return err
}
