package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
	"aetherflow/local-app/src/pkg/storage"
)

// handleSnapshotAdd stores a copy of the current map
func handleSnapshotAdd(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	m, err := s.MapGet()
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(strings.Join(cmd.Args, " "))
	if title == "" {
		title = fmt.Sprintf("%s %s", m.Title, time.Now().Format("2006-01-02 15:04"))
	}

	payload, err := json.Marshal(s.Store.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	snap, err := s.snapshots.SnapshotAdd(ctx, m.ID, title, string(payload))
	if err != nil {
		s.logger.Error(ctx, "Failed to add snapshot", log.Fields{"error": err, "mapID": m.ID})
		return nil, fmt.Errorf("failed to add snapshot: %w", err)
	}

	s.logger.Info(ctx, "Snapshot added", log.Fields{"snapshotID": snap.ID, "mapID": m.ID})
	return snap, nil
}

// handleSnapshotList lists the snapshots of the current map, newest first
func handleSnapshotList(s *Session, cmd model.Command) (interface{}, error) {
	m, err := s.MapGet()
	if err != nil {
		return nil, err
	}
	snaps, err := s.snapshots.SnapshotList(context.Background(), m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snaps, nil
}

// handleSnapshotRestore replaces the session's state with a snapshot
func handleSnapshotRestore(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	snap, err := s.snapshots.SnapshotGet(ctx, cmd.Args[0])
	if err != nil {
		if errors.Is(err, storage.ErrSnapshotNotFound) {
			return nil, fmt.Errorf("snapshot not found: %s", cmd.Args[0])
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var state model.MapState
	if err := json.Unmarshal([]byte(snap.Data), &state); err != nil {
		s.logger.Error(ctx, "Snapshot is corrupt", log.Fields{"snapshotID": snap.ID, "error": err})
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	s.Store.Restore(state)

	s.logger.Info(ctx, "Snapshot restored", log.Fields{"snapshotID": snap.ID})
	return snap, nil
}

// handleSnapshotDelete removes a snapshot
func handleSnapshotDelete(s *Session, cmd model.Command) (interface{}, error) {
	if err := s.snapshots.SnapshotDelete(context.Background(), cmd.Args[0]); err != nil {
		if errors.Is(err, storage.ErrSnapshotNotFound) {
			return nil, fmt.Errorf("snapshot not found: %s", cmd.Args[0])
		}
		return nil, fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil, nil
}
