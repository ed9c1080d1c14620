package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fintracker/internal/log"

	_ "modernc.org/sqlite"
)

const (
	selectRecord = `SELECT payload FROM scoped_records
WHERE namespace = ? AND user_id = ? AND collection = ?`

	upsertRecord = `INSERT INTO scoped_records (namespace, user_id, collection, storage_key, payload, updated_at)
VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (namespace, user_id, collection) DO UPDATE SET
    storage_key = excluded.storage_key,
    payload     = excluded.payload,
    updated_at  = CURRENT_TIMESTAMP`

	deleteUserRecords = `DELETE FROM scoped_records WHERE namespace = ? AND user_id = ?`
)

// SQLiteBackend stores every bucket as one row of scoped_records.
type SQLiteBackend struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLiteBackend(dbPath string, logger *log.Logger) (*SQLiteBackend, error) {
	if logger == nil {
		logger = log.Default(log.ComponentStorage)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteBackend{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (b *SQLiteBackend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *SQLiteBackend) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, selectRecord, key.Namespace, key.UserID, key.Collection).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return payload, true, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, key Key, value []byte) error {
	if _, err := b.db.ExecContext(ctx, upsertRecord,
		key.Namespace, key.UserID, key.Collection, key.String(), value); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	b.logger.DebugContext(ctx, "Snapshot stored",
		log.FieldKey, key.String(),
		"bytes", len(value))
	return nil
}

func (b *SQLiteBackend) DeleteUser(ctx context.Context, namespace, userID string) error {
	res, err := b.db.ExecContext(ctx, deleteUserRecords, namespace, userID)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", userID, err)
	}
	n, _ := res.RowsAffected()
	b.logger.InfoContext(ctx, "User storage cleared",
		log.FieldUserID, userID,
		log.FieldCount, n)
	return nil
}

var _ Backend = (*SQLiteBackend)(nil)
