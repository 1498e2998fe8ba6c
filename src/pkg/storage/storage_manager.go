package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
)

// Storage bundles the persistence slot and the snapshot store selected by
// configuration.
type Storage struct {
	db        Database
	KV        KV
	Snapshots SnapshotStore
}

// NewStorage opens the backend named by cfg.Storage.Type.
func NewStorage(cfg *model.Config, logger *log.Logger) (*Storage, error) {
	ctx := context.Background()
	logger.Info(ctx, "Initializing storage", log.Fields{"type": cfg.Storage.Type})

	switch cfg.Storage.Type {
	case "memory":
		return &Storage{KV: NewMemoryKV(), Snapshots: NewMemorySnapshotStore()}, nil

	case "file":
		kv, err := NewFileKV(cfg.Storage.Dir)
		if err != nil {
			return nil, err
		}
		// Snapshots are not kept across runs by the file backend.
		return &Storage{KV: kv, Snapshots: NewMemorySnapshotStore()}, nil

	case "sqlite", "":
		db, err := NewDatabase(SQLite, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create database instance: %w", err)
		}

		dataSourceName := filepath.Join(cfg.Storage.Dir, cfg.Storage.File)
		if err := db.Open(dataSourceName); err != nil {
			return nil, fmt.Errorf("failed to open database connection '%s': %w", dataSourceName, err)
		}
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}

		return &Storage{
			db:        db,
			KV:        NewSQLiteKV(db, logger),
			Snapshots: NewSQLiteSnapshotStore(db, logger),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}

// Close releases the database connection, if any.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// GetDatabase returns the database instance, nil for non-SQL backends.
func (s *Storage) GetDatabase() Database {
	return s.db
}
