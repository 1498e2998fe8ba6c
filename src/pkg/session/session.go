// Package session orchestrates AI requests against the node store and runs
// REPL commands for each open session.
package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"aetherflow/local-app/src/pkg/ai"
	"aetherflow/local-app/src/pkg/data"
	"aetherflow/local-app/src/pkg/event"
	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
	"aetherflow/local-app/src/pkg/storage"
)

// CommandHandler is a function type for command handlers
type CommandHandler func(*Session, model.Command) (interface{}, error)

// ErrExit is returned by the system exit command.
var ErrExit = errors.New("exit requested")

// Deps are the collaborators shared by every session.
type Deps struct {
	AI           *ai.Client
	Slot         data.Slot
	Snapshots    storage.SnapshotStore
	StoreOptions []data.Option
}

// Session represents an individual interactive session over one map
type Session struct {
	ID           string
	Store        *data.NodeStore
	Orchestrator *Orchestrator
	LastActivity time.Time

	slot            data.Slot
	snapshots       storage.SnapshotStore
	events          *event.EventManager
	dirty           atomic.Bool
	commandHandlers map[string]map[string]CommandHandler
	logger          *log.Logger
}

// dirtyingEvents are the store events that change what Save writes.
var dirtyingEvents = []event.EventType{
	event.MapChanged,
	event.NodeAdded,
	event.NodeUpdated,
	event.NodeDeleted,
	event.NodeExpanded,
	event.NodeTaskified,
	event.ChatMessageAdded,
	event.StateReset,
	event.StateLoaded,
	event.ViewChanged,
}

// NewSession creates a new Session instance
func NewSession(id string, deps Deps, logger *log.Logger) *Session {
	ctx := context.Background()
	logger.Info(ctx, "Creating new Session", log.Fields{"sessionID": id})

	events := event.NewEventManager(logger)
	opts := append([]data.Option{data.WithLogger(logger), data.WithEventManager(events)}, deps.StoreOptions...)
	store := data.NewNodeStore(opts...)

	snapshots := deps.Snapshots
	if snapshots == nil {
		snapshots = storage.NewMemorySnapshotStore()
	}

	s := &Session{
		ID:           id,
		Store:        store,
		Orchestrator: NewOrchestrator(store, deps.AI, logger),
		LastActivity: time.Now(),
		slot:         deps.Slot,
		snapshots:    snapshots,
		events:       events,
		logger:       logger,
	}
	for _, et := range dirtyingEvents {
		events.Subscribe(et, func(event.Event) { s.dirty.Store(true) })
	}
	s.initCommandHandlers()

	logger.Info(ctx, "New Session created successfully", log.Fields{"sessionID": id})
	return s
}

// initCommandHandlers initializes the command handlers map
func (s *Session) initCommandHandlers() {
	s.commandHandlers = map[string]map[string]CommandHandler{
		"map":      initMapCommandHandlers(),
		"node":     initNodeCommandHandlers(),
		"task":     initTaskCommandHandlers(),
		"view":     initViewCommandHandlers(),
		"snapshot": initSnapshotCommandHandlers(),
		"system":   initSystemCommandHandlers(),
	}
}

// CommandRun validates and executes a command within the session context
func (s *Session) CommandRun(cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	s.logger.Info(ctx, "Running command", log.Fields{"command": cmd})

	s.LastActivity = time.Now()

	sc := NewSessionCommand(cmd, s.logger)
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	handler := s.commandHandlers[cmd.Scope][cmd.Operation]
	result, err := handler(s, cmd)
	if err != nil && !errors.Is(err, ErrExit) {
		s.logger.Error(ctx, "Command execution failed", log.Fields{"error": err})
	} else {
		s.logger.Info(ctx, "Command executed successfully", nil)
	}
	return result, err
}

// Save writes the session's map to the persistence slot.
func (s *Session) Save(ctx context.Context) error {
	if s.slot == nil {
		return nil
	}
	s.events.Wait()
	s.dirty.Store(false)
	if err := s.Store.Save(ctx, s.slot); err != nil {
		s.dirty.Store(true)
		return err
	}
	return nil
}

// SaveIfDirty saves only when the store changed since the last save or load.
// It reports whether a save was attempted.
func (s *Session) SaveIfDirty(ctx context.Context) (bool, error) {
	s.events.Wait()
	if s.slot == nil || !s.dirty.Load() {
		return false, nil
	}
	return true, s.Save(ctx)
}

// Dirty reports whether the store changed since the last save or load.
func (s *Session) Dirty() bool {
	s.events.Wait()
	return s.dirty.Load()
}

// Load restores the session's map from the persistence slot.
func (s *Session) Load(ctx context.Context) bool {
	if s.slot == nil {
		return false
	}
	ok := s.Store.Load(ctx, s.slot)
	s.events.Wait()
	s.dirty.Store(false)
	return ok
}

// MapGet retrieves the current map
func (s *Session) MapGet() (*model.Map, error) {
	m := s.Store.CurrentMap()
	if m == nil {
		return nil, ErrNoMap
	}
	return m, nil
}

func initMapCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"new":    handleMapNew,
		"show":   handleMapShow,
		"info":   handleMapInfo,
		"rename": handleMapRename,
		"share":  handleMapShare,
		"save":   handleMapSave,
		"load":   handleMapLoad,
		"reset":  handleMapReset,
		"export": handleMapExport,
		"import": handleMapImport,
	}
}

func initNodeCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"add":     handleNodeAdd,
		"update":  handleNodeUpdate,
		"delete":  handleNodeDelete,
		"expand":  handleNodeExpand,
		"taskify": handleNodeTaskify,
		"chat":    handleNodeChat,
		"select":  handleNodeSelect,
		"find":    handleNodeFind,
		"move":    handleNodeMove,
	}
}

func initTaskCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"update": handleTaskUpdate,
		"board":  handleTaskBoard,
	}
}

func initViewCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"mode":  handleViewMode,
		"zoom":  handleViewZoom,
		"pan":   handleViewPan,
		"reset": handleViewReset,
	}
}

func initSnapshotCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"add":     handleSnapshotAdd,
		"list":    handleSnapshotList,
		"restore": handleSnapshotRestore,
		"delete":  handleSnapshotDelete,
	}
}

func initSystemCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"exit":   handleSystemExit,
		"quit":   handleSystemExit,
		"status": handleSystemStatus,
	}
}
