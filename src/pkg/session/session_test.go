package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aetherflow/local-app/src/pkg/board"
	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
	"aetherflow/local-app/src/pkg/storage"
)

func cmd(scope, op string, args ...string) model.Command {
	return model.Command{Scope: scope, Operation: op, Args: args}
}

func newManager(t *testing.T, kv storage.KV) (*SessionManager, string) {
	t.Helper()
	sm := NewSessionManager(Deps{Slot: kv, Snapshots: storage.NewMemorySnapshotStore()}, 0, log.Nop())
	t.Cleanup(func() { _ = sm.Shutdown(context.Background()) })
	id, err := sm.SessionAdd()
	require.NoError(t, err)
	return sm, id
}

func run(t *testing.T, sm *SessionManager, id string, c model.Command) interface{} {
	t.Helper()
	res, err := sm.SessionRun(id, c)
	require.NoError(t, err, "%s %s %v", c.Scope, c.Operation, c.Args)
	return res
}

func TestCommandValidation(t *testing.T) {
	sm, id := newManager(t, storage.NewMemoryKV())

	tests := []struct {
		name string
		cmd  model.Command
		want string
	}{
		{"unknown scope", cmd("user", "add"), "invalid command scope: user"},
		{"missing operation", cmd("map", ""), "command operation is required"},
		{"unknown operation", cmd("node", "fly"), "invalid node operation: fly"},
		{"too few", cmd("node", "add", "0"), "node add command requires at least 2 argument(s)"},
		{"too many", cmd("map", "info", "x"), "map info command does not accept any arguments"},
		{"range", cmd("node", "move", "0"), "node move command accepts 3 to 4 arguments"},
		{"exact", cmd("snapshot", "restore"), "snapshot restore command requires 1 argument(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sm.SessionRun(id, tt.cmd)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMapAndNodeCommands(t *testing.T) {
	sm, id := newManager(t, storage.NewMemoryKV())

	_, err := sm.SessionRun(id, cmd("map", "info"))
	assert.ErrorIs(t, err, ErrNoMap)

	m := run(t, sm, id, cmd("map", "new", "Learn", "guitar")).(*model.Map)
	assert.Equal(t, "Learn guitar", m.Title)

	added := run(t, sm, id, cmd("node", "add", "0", "Chords", "type:task", "description:Open shapes")).(model.Node)
	assert.Equal(t, model.NodeTypeTask, added.Type)
	assert.Equal(t, "Open shapes", added.Description)
	run(t, sm, id, cmd("node", "add", "1", "G major"))
	run(t, sm, id, cmd("node", "add", "0", "Theory"))

	view := run(t, sm, id, cmd("map", "show")).(*TreeView)
	require.Len(t, view.Entries, 4)
	assert.Equal(t, []string{"0", "1", "1.1", "2"}, []string{
		view.Entries[0].Index, view.Entries[1].Index, view.Entries[2].Index, view.Entries[3].Index,
	})
	assert.Equal(t, 2, view.Entries[2].Depth)
	assert.Equal(t, "G major", view.Entries[2].Node.Title)

	sub := run(t, sm, id, cmd("map", "show", "1")).(*TreeView)
	require.Len(t, sub.Entries, 2)
	assert.Equal(t, "1.1", sub.Entries[1].Index)

	updated := run(t, sm, id, cmd("node", "update", "2", "title:Music theory", "color:#123456")).(model.Node)
	assert.Equal(t, "Music theory", updated.Title)
	assert.Equal(t, "#123456", updated.Metadata.Color)

	found := run(t, sm, id, cmd("node", "find", "MAJOR")).([]FindResult)
	require.Len(t, found, 1)
	assert.Equal(t, "1.1", found[0].Index)

	moved := run(t, sm, id, cmd("node", "move", "2", "10", "-20")).(model.Node)
	assert.Equal(t, 10.0, moved.Position.X)
	assert.Equal(t, -20.0, moved.Position.Y)

	byID := run(t, sm, id, cmd("node", "select", moved.ID, "--id")).(model.Node)
	assert.Equal(t, moved.ID, byID.ID)

	removed := run(t, sm, id, cmd("node", "delete", "1")).([]string)
	assert.Len(t, removed, 2)

	info := run(t, sm, id, cmd("map", "info")).(*MapInfo)
	assert.Equal(t, 2, info.Nodes)
	assert.Equal(t, moved.ID, info.Selected)
	assert.False(t, info.AIAvailable)

	_, err = sm.SessionRun(id, cmd("node", "delete", "7"))
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestExpandTaskifyAndBoard(t *testing.T) {
	sm, id := newManager(t, storage.NewMemoryKV())
	run(t, sm, id, cmd("map", "new", "Garden"))

	children := run(t, sm, id, cmd("node", "expand", "0")).([]model.Node)
	require.Len(t, children, 3)

	taskified := run(t, sm, id, cmd("node", "taskify", "1", "priority:high", "tags:soil, beds", "deadline:2025-04-01")).(model.Node)
	require.NotNil(t, taskified.Task)
	assert.Equal(t, model.TaskTodo, taskified.Task.Status)
	assert.Equal(t, model.PriorityHigh, taskified.Task.Priority)
	assert.Equal(t, []string{"soil", "beds"}, taskified.Task.Tags)
	require.NotNil(t, taskified.Task.Deadline)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), *taskified.Task.Deadline)

	done := run(t, sm, id, cmd("task", "update", "1", "status:done")).(model.Node)
	assert.Equal(t, model.TaskDone, done.Task.Status)
	assert.Equal(t, model.PriorityHigh, done.Task.Priority)

	_, err := sm.SessionRun(id, cmd("task", "update", "3", "status:done"))
	assert.ErrorContains(t, err, "node is not a task")
	_, err = sm.SessionRun(id, cmd("node", "taskify", "1", "status:later"))
	assert.ErrorContains(t, err, "invalid task status")

	b := run(t, sm, id, cmd("task", "board")).(board.Board)
	col, ok := b.Column(model.TaskDone)
	require.True(t, ok)
	require.Len(t, col.Nodes, 1)
	assert.Equal(t, taskified.ID, col.Nodes[0].ID)
}

func TestChatCommandWithoutBackend(t *testing.T) {
	sm, id := newManager(t, storage.NewMemoryKV())
	run(t, sm, id, cmd("map", "new", "Garden"))

	reply := run(t, sm, id, cmd("node", "chat", "0", "what", "grows", "well?")).(model.ChatMessage)
	assert.Equal(t, ChatErrorReply, reply.Content)

	s, ok := sm.SessionGet(id)
	require.True(t, ok)
	root, _ := s.Store.ResolveIndex("0")
	assert.Equal(t, root, s.Store.ChatNode())
	node, _ := s.Store.Node(root)
	require.Len(t, node.Metadata.ChatHistory, 2)
	assert.Equal(t, "what grows well?", node.Metadata.ChatHistory[0].Content)
}

func TestViewCommands(t *testing.T) {
	sm, id := newManager(t, storage.NewMemoryKV())
	run(t, sm, id, cmd("map", "new", "Garden"))
	run(t, sm, id, cmd("node", "add", "0", "Compost", "type:note"))

	v := run(t, sm, id, cmd("view", "zoom", "10")).(*ViewState)
	assert.Equal(t, 3.0, v.Zoom)
	assert.Equal(t, 0.1, v.MinZoom)
	assert.Equal(t, 3.0, v.MaxZoom)
	v = run(t, sm, id, cmd("view", "zoom", "out")).(*ViewState)
	assert.InDelta(t, 2.9, v.Zoom, 1e-9)

	v = run(t, sm, id, cmd("view", "pan", "15", "-5")).(*ViewState)
	assert.Equal(t, 15.0, v.Pan.X)

	notes := run(t, sm, id, cmd("view", "mode", "notes")).(*NotesView)
	require.Len(t, notes.Entries, 1)
	assert.Equal(t, "Compost", notes.Entries[0].Node.Title)

	_, isBoard := run(t, sm, id, cmd("view", "mode", "board")).(board.Board)
	assert.True(t, isBoard)

	_, err := sm.SessionRun(id, cmd("view", "mode", "gallery"))
	assert.ErrorContains(t, err, "invalid view mode")

	v = run(t, sm, id, cmd("view", "reset")).(*ViewState)
	assert.Equal(t, 1.0, v.Zoom)
	assert.Zero(t, v.Pan.X)
	assert.Equal(t, model.ViewBoard, v.Mode)
}

func TestSnapshotCommands(t *testing.T) {
	sm, id := newManager(t, storage.NewMemoryKV())
	run(t, sm, id, cmd("map", "new", "Garden"))

	snap := run(t, sm, id, cmd("snapshot", "add", "before", "beds")).(*model.Snapshot)
	assert.Equal(t, "before beds", snap.Title)

	run(t, sm, id, cmd("node", "add", "0", "Beds"))
	run(t, sm, id, cmd("snapshot", "add"))

	list := run(t, sm, id, cmd("snapshot", "list")).([]model.Snapshot)
	require.Len(t, list, 2)
	assert.Equal(t, snap.ID, list[1].ID)

	run(t, sm, id, cmd("snapshot", "restore", snap.ID))
	s, _ := sm.SessionGet(id)
	assert.Equal(t, 1, s.Store.Len())

	run(t, sm, id, cmd("snapshot", "delete", snap.ID))
	_, err := sm.SessionRun(id, cmd("snapshot", "restore", snap.ID))
	assert.ErrorContains(t, err, "snapshot not found")
}

func TestExportImportCommands(t *testing.T) {
	sm, id := newManager(t, storage.NewMemoryKV())
	run(t, sm, id, cmd("map", "new", "Garden"))
	run(t, sm, id, cmd("node", "add", "0", "Beds", "type:task"))

	dir := t.TempDir()
	for _, name := range []string{"map.json", "map.yaml", "map.xml", "map.md", "map.svg", "map.png"} {
		path := filepath.Join(dir, name)
		run(t, sm, id, cmd("map", "export", path))
		assert.FileExists(t, path)
	}
	md, err := os.ReadFile(filepath.Join(dir, "map.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "- [ ] **Beds**")

	_, err = sm.SessionRun(id, cmd("map", "export", filepath.Join(dir, "map.txt"), "csv"))
	assert.ErrorContains(t, err, "invalid format")

	run(t, sm, id, cmd("map", "reset"))
	m := run(t, sm, id, cmd("map", "import", filepath.Join(dir, "map.yaml"))).(*model.Map)
	assert.Equal(t, "Garden", m.Title)

	view := run(t, sm, id, cmd("map", "show")).(*TreeView)
	require.Len(t, view.Entries, 2)
	assert.Equal(t, "Beds", view.Entries[1].Node.Title)
}

func TestMapShareAndRename(t *testing.T) {
	sm, id := newManager(t, storage.NewMemoryKV())
	run(t, sm, id, cmd("map", "new", "Garden"))

	m := run(t, sm, id, cmd("map", "share", "public")).(*model.Map)
	assert.True(t, m.IsPublic)
	assert.Equal(t, "garden", m.Slug)

	m = run(t, sm, id, cmd("map", "rename", "Spring", "Garden")).(*model.Map)
	assert.Equal(t, "Spring Garden", m.Title)
	assert.Equal(t, "spring-garden", m.Slug)

	_, err := sm.SessionRun(id, cmd("map", "share", "friends"))
	assert.ErrorContains(t, err, "invalid visibility")
}

func TestSaveAndRestoreAcrossSessions(t *testing.T) {
	kv := storage.NewMemoryKV()
	sm, id := newManager(t, kv)
	run(t, sm, id, cmd("map", "new", "Garden"))
	run(t, sm, id, cmd("node", "add", "0", "Beds"))
	run(t, sm, id, cmd("view", "zoom", "2"))
	require.NoError(t, sm.SaveAll(context.Background()))

	other, err := sm.SessionAdd()
	require.NoError(t, err)
	s, ok := sm.SessionGet(other)
	require.True(t, ok)
	assert.Equal(t, 2, s.Store.Len())
	assert.Equal(t, 2.0, s.Store.Zoom())
	assert.Equal(t, "Garden", s.Store.CurrentMap().Title)
}

func TestSessionDeleteSaves(t *testing.T) {
	kv := storage.NewMemoryKV()
	sm, id := newManager(t, kv)
	run(t, sm, id, cmd("map", "new", "Orchard"))

	sm.SessionDelete(id)
	_, ok := sm.SessionGet(id)
	assert.False(t, ok)

	_, found, err := kv.Get(context.Background(), "aetherflow-map-data")
	require.NoError(t, err)
	assert.True(t, found)

	_, err = sm.SessionRun(id, cmd("system", "status"))
	assert.ErrorContains(t, err, "session not found")
}

func TestAutosave(t *testing.T) {
	kv := storage.NewMemoryKV()
	sm := NewSessionManager(Deps{Slot: kv}, 10*time.Millisecond, log.Nop())
	defer sm.Shutdown(context.Background())

	id, err := sm.SessionAdd()
	require.NoError(t, err)
	run(t, sm, id, cmd("map", "new", "Orchard"))

	assert.Eventually(t, func() bool {
		_, found, _ := kv.Get(context.Background(), "aetherflow-map-data")
		return found
	}, timeout, tick)
}

func TestSessionTracksUnsavedChanges(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := NewSession("s1", Deps{Slot: kv}, log.Nop())
	assert.False(t, s.Load(context.Background()))
	assert.False(t, s.Dirty())

	saved, err := s.SaveIfDirty(context.Background())
	require.NoError(t, err)
	assert.False(t, saved)

	_, _, err = s.Orchestrator.NewMap("Orchard")
	require.NoError(t, err)
	assert.True(t, s.Dirty())

	saved, err = s.SaveIfDirty(context.Background())
	require.NoError(t, err)
	assert.True(t, saved)
	assert.False(t, s.Dirty())

	s.Store.SetZoom(2)
	assert.True(t, s.Dirty())
	require.NoError(t, s.Save(context.Background()))

	other := NewSession("s2", Deps{Slot: kv}, log.Nop())
	assert.True(t, other.Load(context.Background()))
	assert.False(t, other.Dirty())
	assert.Equal(t, 2.0, other.Store.Zoom())
}

func TestAutosaveSkipsIdleSessions(t *testing.T) {
	kv := storage.NewMemoryKV()
	sm := NewSessionManager(Deps{Slot: kv}, 0, log.Nop())
	defer sm.Shutdown(context.Background())

	id, err := sm.SessionAdd()
	require.NoError(t, err)
	require.NoError(t, sm.SaveDirty(context.Background()))
	_, found, err := kv.Get(context.Background(), "aetherflow-map-data")
	require.NoError(t, err)
	assert.False(t, found)

	run(t, sm, id, cmd("map", "new", "Orchard"))
	require.NoError(t, sm.SaveDirty(context.Background()))
	_, found, err = kv.Get(context.Background(), "aetherflow-map-data")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSystemCommandsAndShutdown(t *testing.T) {
	sm, id := newManager(t, nil)

	status := run(t, sm, id, cmd("system", "status")).(*SystemStatus)
	assert.Equal(t, id, status.SessionID)
	assert.Zero(t, status.Nodes)

	_, err := sm.SessionRun(id, cmd("system", "exit"))
	assert.ErrorIs(t, err, ErrExit)

	_, err = sm.SessionRun(id, cmd("map", "save"))
	assert.ErrorContains(t, err, "no storage configured")

	require.NoError(t, sm.Shutdown(context.Background()))
	require.NoError(t, sm.Shutdown(context.Background()))
	_, err = sm.SessionRun(id, cmd("system", "status"))
	assert.ErrorIs(t, err, ErrManagerClosed)
}
