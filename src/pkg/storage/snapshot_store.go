package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
)

// ErrSnapshotNotFound is returned when a snapshot id is unknown.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore keeps named copies of serialized map states.
type SnapshotStore interface {
	SnapshotAdd(ctx context.Context, mapID, title, data string) (*model.Snapshot, error)
	SnapshotList(ctx context.Context, mapID string) ([]model.Snapshot, error)
	SnapshotGet(ctx context.Context, id string) (*model.Snapshot, error)
	SnapshotDelete(ctx context.Context, id string) error
}

// SQLiteSnapshotStore implements SnapshotStore on the snapshots table.
type SQLiteSnapshotStore struct {
	db     Database
	logger *log.Logger
	now    func() time.Time
}

// NewSQLiteSnapshotStore creates a SnapshotStore backed by db.
func NewSQLiteSnapshotStore(db Database, logger *log.Logger) *SQLiteSnapshotStore {
	return &SQLiteSnapshotStore{db: db, logger: logger, now: time.Now}
}

// SnapshotAdd stores a new snapshot.
func (s *SQLiteSnapshotStore) SnapshotAdd(ctx context.Context, mapID, title, data string) (*model.Snapshot, error) {
	s.logger.Info(ctx, "Adding snapshot", log.Fields{"mapID": mapID, "title": title})

	snap := &model.Snapshot{
		ID:      uuid.NewString(),
		MapID:   mapID,
		Title:   title,
		Data:    data,
		Created: s.now().UTC(),
	}
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO snapshots (id, map_id, title, data, created) VALUES (?, ?, ?, ?, ?)",
			snap.ID, snap.MapID, snap.Title, snap.Data, snap.Created)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "Failed to add snapshot", log.Fields{"error": err})
		return nil, fmt.Errorf("failed to add snapshot: %w", err)
	}
	return snap, nil
}

// SnapshotList returns the snapshots of a map, newest first.
func (s *SQLiteSnapshotStore) SnapshotList(ctx context.Context, mapID string) ([]model.Snapshot, error) {
	rows, err := s.db.Query(ctx,
		"SELECT id, map_id, title, data, created FROM snapshots WHERE map_id = ? ORDER BY created DESC, rowid DESC", mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		if err := rows.Scan(&snap.ID, &snap.MapID, &snap.Title, &snap.Data, &snap.Created); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return snaps, nil
}

// SnapshotGet returns one snapshot by id.
func (s *SQLiteSnapshotStore) SnapshotGet(ctx context.Context, id string) (*model.Snapshot, error) {
	var snap model.Snapshot
	err := s.db.QueryRow(ctx, "SELECT id, map_id, title, data, created FROM snapshots WHERE id = ?", id).
		Scan(&snap.ID, &snap.MapID, &snap.Title, &snap.Data, &snap.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snap, nil
}

// SnapshotDelete removes a snapshot.
func (s *SQLiteSnapshotStore) SnapshotDelete(ctx context.Context, id string) error {
	res, err := s.db.Exec(ctx, "DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}

// MemorySnapshotStore keeps snapshots in process memory.
type MemorySnapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]model.Snapshot
	seq   map[string]int
	next  int
	now   func() time.Time
}

// NewMemorySnapshotStore creates an empty MemorySnapshotStore.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{
		snaps: make(map[string]model.Snapshot),
		seq:   make(map[string]int),
		now:   time.Now,
	}
}

// SnapshotAdd stores a new snapshot.
func (m *MemorySnapshotStore) SnapshotAdd(_ context.Context, mapID, title, data string) (*model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := model.Snapshot{ID: uuid.NewString(), MapID: mapID, Title: title, Data: data, Created: m.now().UTC()}
	m.snaps[snap.ID] = snap
	m.next++
	m.seq[snap.ID] = m.next
	return &snap, nil
}

// SnapshotList returns the snapshots of a map, newest first.
func (m *MemorySnapshotStore) SnapshotList(_ context.Context, mapID string) ([]model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var snaps []model.Snapshot
	for _, snap := range m.snaps {
		if snap.MapID == mapID {
			snaps = append(snaps, snap)
		}
	}
	sort.Slice(snaps, func(i, j int) bool {
		return m.seq[snaps[i].ID] > m.seq[snaps[j].ID]
	})
	return snaps, nil
}

// SnapshotGet returns one snapshot by id.
func (m *MemorySnapshotStore) SnapshotGet(_ context.Context, id string) (*model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[id]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return &snap, nil
}

// SnapshotDelete removes a snapshot.
func (m *MemorySnapshotStore) SnapshotDelete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snaps[id]; !ok {
		return ErrSnapshotNotFound
	}
	delete(m.snaps, id)
	delete(m.seq, id)
	return nil
}
