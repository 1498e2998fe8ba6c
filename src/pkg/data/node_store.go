// Package data provides the in-memory state engine of the AetherFlow application.
// This file contains the node store and its tree mutations.
package data

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"aetherflow/local-app/src/pkg/event"
	"aetherflow/local-app/src/pkg/geometry"
	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
)

const (
	DefaultMinZoom = 0.1
	DefaultMaxZoom = 3.0
	DefaultSlotKey = "aetherflow-map-data"

	LayoutFanOut = "fanout"
	LayoutRadial = "radial"
)

// NodeStore owns the node tree of the current map together with selection,
// view mode and viewport state. All methods are safe for concurrent use.
type NodeStore struct {
	mu sync.RWMutex

	currentMap *model.Map
	nodes      []*model.Node
	byID       map[string]*model.Node
	selectedID string
	chatNodeID string
	viewMode   model.ViewMode
	zoom       float64
	pan        geometry.Point

	now          func() time.Time
	newID        func() string
	eventManager *event.EventManager
	logger       *log.Logger
	minZoom      float64
	maxZoom      float64
	layout       string
	slotKey      string
}

// Option configures a NodeStore.
type Option func(*NodeStore)

// WithClock replaces the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *NodeStore) { s.now = now }
}

// WithIDGenerator replaces the uuid id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *NodeStore) { s.newID = newID }
}

// WithEventManager publishes store changes on em.
func WithEventManager(em *event.EventManager) Option {
	return func(s *NodeStore) { s.eventManager = em }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *NodeStore) { s.logger = logger }
}

// WithZoomBounds sets the zoom clamp range. Invalid ranges are ignored.
func WithZoomBounds(min, max float64) Option {
	return func(s *NodeStore) {
		if min > 0 && max >= min {
			s.minZoom, s.maxZoom = min, max
		}
	}
}

// WithLayout selects how expanded children are positioned: LayoutFanOut or LayoutRadial.
func WithLayout(strategy string) Option {
	return func(s *NodeStore) {
		if strategy == LayoutFanOut || strategy == LayoutRadial {
			s.layout = strategy
		}
	}
}

// WithSlotKey sets the key used by Save and Load.
func WithSlotKey(key string) Option {
	return func(s *NodeStore) {
		if key != "" {
			s.slotKey = key
		}
	}
}

// NewNodeStore creates an empty store.
func NewNodeStore(opts ...Option) *NodeStore {
	s := &NodeStore{
		byID:     make(map[string]*model.Node),
		viewMode: model.ViewMap,
		zoom:     1,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   log.Nop(),
		minZoom:  DefaultMinZoom,
		maxZoom:  DefaultMaxZoom,
		layout:   LayoutFanOut,
		slotKey:  DefaultSlotKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *NodeStore) timestamp() time.Time {
	return s.now().UTC()
}

func (s *NodeStore) publish(eventType event.EventType, data interface{}) {
	if s.eventManager == nil {
		return
	}
	s.eventManager.Publish(event.Event{Type: eventType, Data: data})
}

// SetCurrentMap replaces the active map. Nodes are left untouched.
func (s *NodeStore) SetCurrentMap(m *model.Map) {
	s.mu.Lock()
	if m == nil {
		s.currentMap = nil
	} else {
		c := *m
		s.currentMap = &c
	}
	s.mu.Unlock()

	s.publish(event.MapChanged, m)
}

// CurrentMap returns a copy of the active map, or nil when none is open.
func (s *NodeStore) CurrentMap() *model.Map {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentMap == nil {
		return nil
	}
	c := *s.currentMap
	return &c
}

// AddNode creates a node from info with a fresh id and matching creation and
// update timestamps. The parent reference is not validated. Title and
// description are cut to the display bounds.
func (s *NodeStore) AddNode(info model.NodeInfo) model.Node {
	ctx := context.Background()

	s.mu.Lock()
	node := s.addLocked(info, s.timestamp())
	s.mu.Unlock()

	s.logger.Debug(ctx, "Node added", log.Fields{"nodeID": node.ID, "parentID": node.ParentID, "title": node.Title})
	s.publish(event.NodeAdded, node)
	return node
}

func (s *NodeStore) addLocked(info model.NodeInfo, now time.Time) model.Node {
	nodeType := info.Type
	if nodeType == "" {
		nodeType = model.NodeTypeIdea
	}
	node := &model.Node{
		ID:          s.newID(),
		MapID:       info.MapID,
		ParentID:    info.ParentID,
		Type:        nodeType,
		Title:       model.Truncate(info.Title, model.MaxTitleLength),
		Description: model.Truncate(info.Description, model.MaxDescriptionLength),
		Position:    info.Position,
		Metadata:    info.Metadata.Clone(),
		Task:        info.Task.Clone(),
		Created:     now,
		Updated:     now,
	}
	if node.Task != nil && node.Task.NodeID == "" {
		node.Task.NodeID = node.ID
	}
	s.nodes = append(s.nodes, node)
	s.byID[node.ID] = node
	return node.Clone()
}

// UpdateNode applies the fields of info selected by filter to the node and
// refreshes its update timestamp. It reports false if the node does not exist.
// Parent and map references are never changed.
func (s *NodeStore) UpdateNode(id string, info model.NodeInfo, filter model.NodeFilter) bool {
	s.mu.Lock()
	node, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug(context.Background(), "Update of unknown node ignored", log.Fields{"nodeID": id})
		return false
	}

	if filter.Type && info.Type != "" {
		node.Type = info.Type
	}
	if filter.Title {
		node.Title = model.Truncate(info.Title, model.MaxTitleLength)
	}
	if filter.Description {
		node.Description = model.Truncate(info.Description, model.MaxDescriptionLength)
	}
	if filter.Position {
		node.Position = info.Position
	}
	if filter.Metadata {
		node.Metadata = info.Metadata.Clone()
	}
	if filter.Task {
		node.Task = info.Task.Clone()
		if node.Task != nil {
			node.Task.NodeID = node.ID
		}
	}
	node.Updated = s.timestamp()
	updated := node.Clone()
	s.mu.Unlock()

	s.publish(event.NodeUpdated, updated)
	return true
}

// SetColor changes only the color of a node, leaving the rest of its
// metadata as it is at the time of the write.
func (s *NodeStore) SetColor(id, color string) bool {
	s.mu.Lock()
	node, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	node.Metadata.Color = color
	node.Updated = s.timestamp()
	updated := node.Clone()
	s.mu.Unlock()

	s.publish(event.NodeUpdated, updated)
	return true
}

// MoveNode sets the position of a node. It reports false if the node does not exist.
func (s *NodeStore) MoveNode(id string, pos geometry.Point) bool {
	return s.UpdateNode(id, model.NodeInfo{Position: pos}, model.NodeFilter{Position: true})
}

// NodePosition returns the current position of a node.
func (s *NodeStore) NodePosition(id string) (geometry.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.byID[id]
	if !ok {
		return geometry.Point{}, false
	}
	return node.Position, true
}

// DeleteNode removes the node and its whole subtree in one step and returns
// the removed ids, the node itself first. Selection and the chat panel are
// cleared if they pointed into the removed subtree. Nil is returned if the
// node does not exist.
func (s *NodeStore) DeleteNode(id string) []string {
	ctx := context.Background()

	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		s.logger.Debug(ctx, "Delete of unknown node ignored", log.Fields{"nodeID": id})
		return nil
	}

	removed := append([]string{id}, s.descendantIDsLocked(id)...)
	gone := make(map[string]bool, len(removed))
	for _, rid := range removed {
		gone[rid] = true
		delete(s.byID, rid)
	}
	kept := s.nodes[:0]
	for _, n := range s.nodes {
		if !gone[n.ID] {
			kept = append(kept, n)
		}
	}
	for i := len(kept); i < len(s.nodes); i++ {
		s.nodes[i] = nil
	}
	s.nodes = kept

	if gone[s.selectedID] {
		s.selectedID = ""
	}
	if gone[s.chatNodeID] {
		s.chatNodeID = ""
	}
	s.mu.Unlock()

	s.logger.Info(ctx, "Node deleted", log.Fields{"nodeID": id, "removed": len(removed)})
	s.publish(event.NodeDeleted, removed)
	return removed
}

// ExpandNode adds one child per draft under the node, positioned by the
// configured layout, and marks the node expanded. Nil is returned if the node
// does not exist or drafts is empty.
func (s *NodeStore) ExpandNode(id string, drafts []model.NodeInfo) []model.Node {
	ctx := context.Background()

	s.mu.Lock()
	parent, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn(ctx, "Expansion target no longer exists", log.Fields{"nodeID": id})
		return nil
	}
	if len(drafts) == 0 {
		s.mu.Unlock()
		return nil
	}

	now := s.timestamp()
	total := len(drafts)
	children := make([]model.Node, 0, total)
	for i, draft := range drafts {
		draft.ParentID = parent.ID
		draft.MapID = parent.MapID
		draft.Position = s.childPositionLocked(parent.Position, i, total)
		children = append(children, s.addLocked(draft, now))
	}
	parent.Metadata.Expanded = true
	parent.Updated = now
	s.mu.Unlock()

	s.logger.Info(ctx, "Node expanded", log.Fields{"nodeID": id, "children": len(children), "layout": s.layout})
	s.publish(event.NodeExpanded, children)
	return children
}

func (s *NodeStore) childPositionLocked(parent geometry.Point, index, total int) geometry.Point {
	if s.layout != LayoutRadial {
		return geometry.FanOut(parent, index, total)
	}
	existing := make([]geometry.Point, 0, len(s.nodes))
	for _, n := range s.nodes {
		existing = append(existing, n.Position)
	}
	return geometry.PlaceChild(parent, existing, index, total)
}

// TaskifyNode attaches a task to the node, or updates the attached one, and
// sets its type to task. A new task starts as todo with medium priority, no
// tags and no deadline; overrides replace whichever fields they set.
func (s *NodeStore) TaskifyNode(id string, overrides *model.TaskOverrides) bool {
	s.mu.Lock()
	node, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug(context.Background(), "Taskify of unknown node ignored", log.Fields{"nodeID": id})
		return false
	}

	now := s.timestamp()
	if node.Task == nil {
		node.Task = &model.Task{
			ID:       s.newID(),
			NodeID:   node.ID,
			Status:   model.TaskTodo,
			Priority: model.PriorityMedium,
			Tags:     []string{},
			Created:  now,
		}
	}
	if overrides != nil {
		if overrides.Status != nil {
			node.Task.Status = *overrides.Status
		}
		if overrides.Priority != nil {
			node.Task.Priority = *overrides.Priority
		}
		if overrides.Tags != nil {
			node.Task.Tags = append([]string{}, overrides.Tags...)
		}
		if overrides.Deadline != nil {
			d := *overrides.Deadline
			node.Task.Deadline = &d
		}
	}
	node.Task.Updated = now
	node.Type = model.NodeTypeTask
	node.Updated = now
	taskified := node.Clone()
	s.mu.Unlock()

	s.publish(event.NodeTaskified, taskified)
	return true
}

// AddChatMessage appends msg to the node's transcript. A missing id or
// timestamp is filled in. It reports false if the node does not exist.
func (s *NodeStore) AddChatMessage(nodeID string, msg model.ChatMessage) (model.ChatMessage, bool) {
	s.mu.Lock()
	node, ok := s.byID[nodeID]
	if !ok {
		s.mu.Unlock()
		return model.ChatMessage{}, false
	}
	if msg.ID == "" {
		msg.ID = s.newID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.timestamp()
	}
	node.Metadata.ChatHistory = append(node.Metadata.ChatHistory, msg)
	node.Updated = s.timestamp()
	s.mu.Unlock()

	s.publish(event.ChatMessageAdded, msg)
	return msg, true
}

// OpenChat points the chat panel at a node. It reports false if the node does not exist.
func (s *NodeStore) OpenChat(nodeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[nodeID]; !ok {
		return false
	}
	s.chatNodeID = nodeID
	return true
}

// CloseChat closes the chat panel.
func (s *NodeStore) CloseChat() {
	s.mu.Lock()
	s.chatNodeID = ""
	s.mu.Unlock()
}

// ChatNode returns the node the chat panel is open for, or "".
func (s *NodeStore) ChatNode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatNodeID
}

// SetSelectedNode selects a node; "" clears the selection.
func (s *NodeStore) SetSelectedNode(id string) {
	s.mu.Lock()
	s.selectedID = id
	s.mu.Unlock()
}

// ClearSelection deselects any node.
func (s *NodeStore) ClearSelection() {
	s.SetSelectedNode("")
}

// SelectedNode returns the selected node id, or "".
func (s *NodeStore) SelectedNode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

// SetViewMode switches the presentation mode.
func (s *NodeStore) SetViewMode(mode model.ViewMode) {
	s.mu.Lock()
	changed := s.viewMode != mode
	s.viewMode = mode
	s.mu.Unlock()

	if changed {
		s.publish(event.ViewChanged, mode)
	}
}

// ViewMode returns the presentation mode.
func (s *NodeStore) ViewMode() model.ViewMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewMode
}

// SetZoom sets the zoom level clamped to the configured bounds and returns
// the applied level. NaN leaves the level unchanged.
func (s *NodeStore) SetZoom(level float64) float64 {
	s.mu.Lock()
	previous := s.zoom
	if !math.IsNaN(level) {
		s.zoom = geometry.Clamp(level, s.minZoom, s.maxZoom)
	}
	applied := s.zoom
	s.mu.Unlock()

	if applied != previous {
		s.publish(event.ViewChanged, applied)
	}
	return applied
}

// Zoom returns the zoom level.
func (s *NodeStore) Zoom() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zoom
}

// ZoomBounds returns the configured zoom range.
func (s *NodeStore) ZoomBounds() (min, max float64) {
	return s.minZoom, s.maxZoom
}

// SetPanOffset sets the pan translation.
func (s *NodeStore) SetPanOffset(offset geometry.Point) {
	s.mu.Lock()
	changed := s.pan != offset
	s.pan = offset
	s.mu.Unlock()

	if changed {
		s.publish(event.ViewChanged, offset)
	}
}

// PanOffset returns the pan translation.
func (s *NodeStore) PanOffset() geometry.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pan
}

// Reset clears all state back to an empty store.
func (s *NodeStore) Reset() {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()

	s.logger.Info(context.Background(), "Node store reset", nil)
	s.publish(event.StateReset, nil)
}

func (s *NodeStore) resetLocked() {
	s.currentMap = nil
	s.nodes = nil
	s.byID = make(map[string]*model.Node)
	s.selectedID = ""
	s.chatNodeID = ""
	s.viewMode = model.ViewMap
	s.zoom = 1
	s.pan = geometry.Point{}
}
