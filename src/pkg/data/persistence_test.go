package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aetherflow/local-app/src/pkg/geometry"
	"aetherflow/local-app/src/pkg/model"
	"aetherflow/local-app/src/pkg/storage"
)

type failingSlot struct{}

func (failingSlot) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk unavailable")
}

func (failingSlot) Set(context.Context, string, string) error {
	return errors.New("disk unavailable")
}

func populate(t *testing.T, s *NodeStore) {
	t.Helper()
	s.SetCurrentMap(&model.Map{ID: "m1", Title: "Learn guitar", Created: testEpoch, Updated: testEpoch})
	root := addRoot(s)
	children := s.ExpandNode(root.ID, []model.NodeInfo{{Title: "Chords"}, {Title: "Scales", Type: model.NodeTypeNote}})
	require.Len(t, children, 2)
	require.True(t, s.TaskifyNode(children[0].ID, nil))
	_, ok := s.AddChatMessage(root.ID, model.ChatMessage{Role: model.RoleUser, Content: "where to start?"})
	require.True(t, ok)
	s.SetViewMode(model.ViewBoard)
	s.SetZoom(1.7)
	s.SetPanOffset(geometry.Point{X: -40, Y: 12.5})
}

func TestSaveResetLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemoryKV()
	s, clock := newTestStore()
	populate(t, s)
	clock.advance(time.Second)

	before := s.Snapshot()
	require.NoError(t, s.Save(ctx, slot))

	s.Reset()
	require.Zero(t, s.Len())

	require.True(t, s.Load(ctx, slot))
	assert.Equal(t, before, s.Snapshot())
}

func TestLoadToleratesMissingSlot(t *testing.T) {
	s, _ := newTestStore()
	populate(t, s)

	assert.False(t, s.Load(context.Background(), storage.NewMemoryKV()))
	assert.Zero(t, s.Len())
	assert.Nil(t, s.CurrentMap())
}

func TestLoadToleratesCorruptSlot(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemoryKV()
	require.NoError(t, slot.Set(ctx, DefaultSlotKey, `{"nodes": [`))

	s, _ := newTestStore()
	populate(t, s)
	assert.False(t, s.Load(ctx, slot))
	assert.Zero(t, s.Len())
}

func TestLoadToleratesReadError(t *testing.T) {
	s, _ := newTestStore()
	assert.False(t, s.Load(context.Background(), failingSlot{}))
}

func TestSaveReportsWriteError(t *testing.T) {
	s, _ := newTestStore()
	assert.Error(t, s.Save(context.Background(), failingSlot{}))
}

func TestSaveUsesSlotKey(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemoryKV()
	s, _ := newTestStore(WithSlotKey("custom"))
	addRoot(s)
	require.NoError(t, s.Save(ctx, slot))

	_, found, err := slot.Get(ctx, "custom")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRestoreSanitizesState(t *testing.T) {
	s, _ := newTestStore()
	s.Restore(model.MapState{
		Nodes: []model.Node{
			{ID: "a", Title: "A"},
			{ID: "a", Title: "duplicate"},
			{ID: "", Title: "no id"},
		},
		ViewMode:  "unknown",
		ZoomLevel: 42,
	})

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, model.ViewMap, s.ViewMode())
	assert.Equal(t, DefaultMaxZoom, s.Zoom())
}
