package data

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"aetherflow/local-app/src/pkg/event"
	"aetherflow/local-app/src/pkg/geometry"
	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
)

// Slot is the durable key-value slot the store persists into.
type Slot interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Snapshot returns a deep copy of the persisted part of the state.
func (s *NodeStore) Snapshot() model.MapState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := model.MapState{
		Nodes:     make([]model.Node, 0, len(s.nodes)),
		ViewMode:  s.viewMode,
		ZoomLevel: s.zoom,
		PanOffset: s.pan,
	}
	if s.currentMap != nil {
		m := *s.currentMap
		state.CurrentMap = &m
	}
	for _, n := range s.nodes {
		state.Nodes = append(state.Nodes, n.Clone())
	}
	return state
}

// Restore replaces the whole state with state. Selection and the chat panel
// are cleared, an unknown view mode falls back to the map view and the zoom
// level is clamped.
func (s *NodeStore) Restore(state model.MapState) {
	s.mu.Lock()
	s.resetLocked()
	if state.CurrentMap != nil {
		m := *state.CurrentMap
		s.currentMap = &m
	}
	for i := range state.Nodes {
		n := state.Nodes[i].Clone()
		if _, dup := s.byID[n.ID]; dup || n.ID == "" {
			continue
		}
		s.nodes = append(s.nodes, &n)
		s.byID[n.ID] = &n
	}
	if mode, ok := model.ParseViewMode(string(state.ViewMode)); ok {
		s.viewMode = mode
	}
	if state.ZoomLevel > 0 {
		s.zoom = geometry.Clamp(state.ZoomLevel, s.minZoom, s.maxZoom)
	}
	s.pan = state.PanOffset
	count := len(s.nodes)
	s.mu.Unlock()

	s.logger.Info(context.Background(), "Node store restored", log.Fields{"nodes": count})
	s.publish(event.StateLoaded, count)
}

// Save writes the current state to the slot.
func (s *NodeStore) Save(ctx context.Context, slot Slot) error {
	state := s.Snapshot()
	data, err := json.Marshal(state)
	if err != nil {
		s.logger.Error(ctx, "Failed to encode map state", log.Fields{"error": err})
		return fmt.Errorf("failed to encode map state: %w", err)
	}
	if err := slot.Set(ctx, s.slotKey, string(data)); err != nil {
		s.logger.Error(ctx, "Failed to save map state", log.Fields{"error": err, "key": s.slotKey})
		return fmt.Errorf("failed to save map state: %w", err)
	}

	s.logger.Debug(ctx, "Map state saved", log.Fields{"key": s.slotKey, "nodes": len(state.Nodes)})
	s.publish(event.StateSaved, len(state.Nodes))
	return nil
}

// Load restores the state from the slot. A missing, unreadable or corrupt
// slot leaves the store empty and reports false; errors never reach the caller.
func (s *NodeStore) Load(ctx context.Context, slot Slot) bool {
	raw, found, err := slot.Get(ctx, s.slotKey)
	if err != nil {
		s.logger.Warn(ctx, "Failed to read saved map state, starting empty", log.Fields{"error": err, "key": s.slotKey})
		s.Reset()
		return false
	}
	if !found {
		s.logger.Info(ctx, "No saved map state found", log.Fields{"key": s.slotKey})
		s.Reset()
		return false
	}

	var state model.MapState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		s.logger.Warn(ctx, "Saved map state is corrupt, starting empty", log.Fields{"error": err, "key": s.slotKey})
		s.Reset()
		return false
	}

	s.Restore(state)
	return true
}
