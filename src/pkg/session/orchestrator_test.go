package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aetherflow/local-app/src/pkg/ai"
	"aetherflow/local-app/src/pkg/ai/testutil"
	"aetherflow/local-app/src/pkg/data"
	"aetherflow/local-app/src/pkg/geometry"
	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func newOrchestrator(t *testing.T, backend ai.Backend) (*Orchestrator, *data.NodeStore) {
	t.Helper()
	store := data.NewNodeStore()
	var client *ai.Client
	if backend != nil {
		client = ai.NewClient(backend)
	}
	o := NewOrchestrator(store, client, log.Nop(),
		WithColorPicker(func() string { return "#4ECDC4" }),
		WithMapIDGenerator(func() string { return "map-1" }),
	)
	return o, store
}

func TestNewMap(t *testing.T) {
	o, store := newOrchestrator(t, nil)

	m, root, err := o.NewMap("  Learn guitar ")
	require.NoError(t, err)
	assert.Equal(t, "map-1", m.ID)
	assert.Equal(t, "Learn guitar", m.Title)
	assert.Equal(t, "Mind map started with: Learn guitar", m.Description)
	assert.Equal(t, "learn-guitar", m.Slug)
	assert.False(t, m.IsPublic)

	assert.Equal(t, "map-1", root.MapID)
	assert.True(t, root.IsRoot())
	assert.Equal(t, model.NodeTypeIdea, root.Type)
	assert.Equal(t, RootDescription, root.Description)
	assert.Equal(t, RootColor, root.Metadata.Color)
	assert.Equal(t, model.SizeLarge, root.Metadata.Size)
	assert.Equal(t, geometry.Point{}, root.Position)
	assert.False(t, root.Metadata.AIGenerated)

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "map-1", store.CurrentMap().ID)
}

func TestNewMapResetsPreviousState(t *testing.T) {
	o, store := newOrchestrator(t, nil)
	_, root, err := o.NewMap("First")
	require.NoError(t, err)
	_, err = o.AddChild(root.ID, model.NodeTypeNote, "Child", "")
	require.NoError(t, err)
	store.SetZoom(2)

	_, _, err = o.NewMap("Second")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1.0, store.Zoom())
}

func TestNewMapRequiresSeed(t *testing.T) {
	o, store := newOrchestrator(t, nil)
	_, _, err := o.NewMap("   ")
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Zero(t, store.Len())
}

func TestExpandNodeFallback(t *testing.T) {
	o, store := newOrchestrator(t, nil)
	_, root, err := o.NewMap("Learn guitar")
	require.NoError(t, err)

	children, err := o.ExpandNode(context.Background(), root.ID)
	require.NoError(t, err)
	require.Len(t, children, 3)

	titles := []string{}
	for _, c := range children {
		titles = append(titles, c.Title)
		assert.Equal(t, root.ID, c.ParentID)
		assert.Equal(t, "map-1", c.MapID)
		assert.Equal(t, "#4ECDC4", c.Metadata.Color)
		assert.Equal(t, model.SizeMedium, c.Metadata.Size)
		assert.True(t, c.Metadata.AIGenerated)
		assert.NotEmpty(t, c.Metadata.Category)
	}
	assert.Equal(t, []string{"Planning & Preparation", "Implementation Tasks", "Resources & Tools"}, titles)

	parent, _ := store.Node(root.ID)
	assert.True(t, parent.Metadata.Expanded)
	assert.False(t, o.InFlight(root.ID))
}

func TestExpandNodeBackendFailure(t *testing.T) {
	mock := &testutil.MockBackend{Err: ai.NewFatalError(errors.New("boom"))}
	o, store := newOrchestrator(t, mock)
	_, root, err := o.NewMap("Garden")
	require.NoError(t, err)

	children, err := o.ExpandNode(context.Background(), root.ID)
	assert.ErrorIs(t, err, ai.ErrGenerationFailed)
	assert.Nil(t, children)
	assert.Equal(t, 1, store.Len())
	assert.False(t, o.InFlight(root.ID))
}

func TestExpandNodeUnknown(t *testing.T) {
	o, _ := newOrchestrator(t, nil)
	_, err := o.ExpandNode(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestExpandNodeRejectsConcurrentRequest(t *testing.T) {
	gate := make(chan struct{})
	mock := &testutil.MockBackend{
		Gate:      gate,
		Responses: []string{`{"nodes":[{"title":"Soil"},{"title":"Seeds"}]}`},
	}
	o, _ := newOrchestrator(t, mock)
	_, root, err := o.NewMap("Garden")
	require.NoError(t, err)

	type result struct {
		children []model.Node
		err      error
	}
	done := make(chan result, 1)
	go func() {
		children, err := o.ExpandNode(context.Background(), root.ID)
		done <- result{children, err}
	}()

	require.Eventually(t, func() bool { return o.InFlight(root.ID) }, timeout, tick)

	_, err = o.ExpandNode(context.Background(), root.ID)
	assert.ErrorIs(t, err, ErrRequestInFlight)

	close(gate)
	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Len(t, r.children, 2)
	case <-time.After(timeout):
		t.Fatal("expansion did not finish")
	}
	assert.False(t, o.InFlight(root.ID))
	assert.Equal(t, 1, mock.CallCount())
}

func TestExpandNodeDroppedWhenNodeDeleted(t *testing.T) {
	gate := make(chan struct{})
	mock := &testutil.MockBackend{
		Gate:      gate,
		Responses: []string{`{"nodes":[{"title":"Late"}]}`},
	}
	o, store := newOrchestrator(t, mock)
	_, root, err := o.NewMap("Garden")
	require.NoError(t, err)
	child, err := o.AddChild(root.ID, model.NodeTypeIdea, "Beds", "")
	require.NoError(t, err)

	done := make(chan error, 1)
	var children []model.Node
	go func() {
		var err error
		children, err = o.ExpandNode(context.Background(), child.ID)
		done <- err
	}()
	require.Eventually(t, func() bool { return o.InFlight(child.ID) }, timeout, tick)

	store.DeleteNode(child.ID)
	close(gate)

	require.NoError(t, <-done)
	assert.Nil(t, children)
	assert.Equal(t, 1, store.Len())
}

func TestAddChildPlacement(t *testing.T) {
	o, store := newOrchestrator(t, nil)
	_, root, err := o.NewMap("Trip")
	require.NoError(t, err)

	first, err := o.AddChild(root.ID, model.NodeTypeTask, " Book flights ", " soon ")
	require.NoError(t, err)
	second, err := o.AddChild(root.ID, model.NodeType("banana"), "Pack", "")
	require.NoError(t, err)

	assert.Equal(t, geometry.ManualChild(root.Position, 0), first.Position)
	assert.Equal(t, geometry.ManualChild(root.Position, 1), second.Position)
	assert.Equal(t, "Book flights", first.Title)
	assert.Equal(t, "soon", first.Description)
	assert.Equal(t, model.NodeTypeTask, first.Type)
	assert.Equal(t, model.NodeTypeIdea, second.Type)
	assert.False(t, first.Metadata.AIGenerated)
	assert.Equal(t, model.SizeMedium, first.Metadata.Size)
	assert.Len(t, store.Children(root.ID), 2)

	_, err = o.AddChild(root.ID, model.NodeTypeIdea, " ", "")
	assert.ErrorIs(t, err, ErrEmptyTitle)
	_, err = o.AddChild("missing", model.NodeTypeIdea, "X", "")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestNewMapAndAddChildBoundText(t *testing.T) {
	o, _ := newOrchestrator(t, nil)
	m, root, err := o.NewMap(strings.Repeat("s", 5000))
	require.NoError(t, err)
	assert.Len(t, m.Title, model.MaxTitleLength)
	assert.Len(t, root.Title, model.MaxTitleLength)

	child, err := o.AddChild(root.ID, model.NodeTypeIdea, strings.Repeat("x", 10000), strings.Repeat("d", 50000))
	require.NoError(t, err)
	assert.Len(t, child.Title, model.MaxTitleLength)
	assert.Len(t, child.Description, model.MaxDescriptionLength)
}

func TestChat(t *testing.T) {
	mock := &testutil.MockBackend{Responses: []string{"  Start with open chords.  ", "Practice daily."}}
	o, store := newOrchestrator(t, mock)
	_, root, err := o.NewMap("Learn guitar")
	require.NoError(t, err)

	reply, err := o.Chat(context.Background(), root.ID, " Where do I start? ")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, reply.Role)
	assert.Equal(t, "Start with open chords.", reply.Content)

	_, err = o.Chat(context.Background(), root.ID, "And then?")
	require.NoError(t, err)

	node, _ := store.Node(root.ID)
	history := node.Metadata.ChatHistory
	require.Len(t, history, 4)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, "Where do I start?", history[0].Content)
	assert.Equal(t, "Practice daily.", history[3].Content)

	prompts := mock.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[1], "Start with open chords.")
	assert.Contains(t, prompts[1], "And then?")
}

func TestChatFailureRecordsApology(t *testing.T) {
	o, store := newOrchestrator(t, nil)
	_, root, err := o.NewMap("Learn guitar")
	require.NoError(t, err)

	reply, err := o.Chat(context.Background(), root.ID, "Hello")
	assert.ErrorIs(t, err, ai.ErrUnavailable)
	assert.Equal(t, ChatErrorReply, reply.Content)

	node, _ := store.Node(root.ID)
	require.Len(t, node.Metadata.ChatHistory, 2)
	assert.Equal(t, "Hello", node.Metadata.ChatHistory[0].Content)
	assert.Equal(t, ChatErrorReply, node.Metadata.ChatHistory[1].Content)
}

func TestChatValidation(t *testing.T) {
	o, _ := newOrchestrator(t, nil)
	_, root, err := o.NewMap("Learn guitar")
	require.NoError(t, err)

	_, err = o.Chat(context.Background(), root.ID, "  ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	_, err = o.Chat(context.Background(), "missing", "Hi")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}
