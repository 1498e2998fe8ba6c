package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"aetherflow/local-app/src/pkg/log"
)

// SQLiteKV implements KV on the kv table.
type SQLiteKV struct {
	db     Database
	logger *log.Logger
}

// NewSQLiteKV creates a KV backed by an opened database with its schema applied.
func NewSQLiteKV(db Database, logger *log.Logger) *SQLiteKV {
	return &SQLiteKV{db: db, logger: logger}
}

// Get returns the value stored under key.
func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug(ctx, "Slot not found", log.Fields{"key": key})
		return "", false, nil
	}
	if err != nil {
		s.logger.Error(ctx, "Failed to read slot", log.Fields{"key": key, "error": err})
		return "", false, fmt.Errorf("failed to read slot %q: %w", key, err)
	}
	return value, true, nil
}

// Set upserts value under key.
func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated = excluded.updated`,
			key, value, time.Now().UTC())
		if err != nil {
			s.logger.Error(ctx, "Failed to write slot", log.Fields{"key": key, "error": err})
			return fmt.Errorf("failed to write slot %q: %w", key, err)
		}
		s.logger.Debug(ctx, "Slot written", log.Fields{"key": key, "bytes": len(value)})
		return nil
	})
}

// Delete removes key.
func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete slot %q: %w", key, err)
	}
	return nil
}
