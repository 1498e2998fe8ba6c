package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aetherflow/local-app/src/pkg/config"
	"aetherflow/local-app/src/pkg/geometry"
	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
)

func newTestStorage(t *testing.T, kind string) *Storage {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Type = kind
	cfg.Storage.Dir = t.TempDir()
	s, err := NewStorage(cfg, log.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKVBackends(t *testing.T) {
	for _, kind := range []string{"memory", "file", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			ctx := context.Background()
			kv := newTestStorage(t, kind).KV

			_, found, err := kv.Get(ctx, "aetherflow-map-data")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, kv.Set(ctx, "aetherflow-map-data", `{"nodes":[]}`))
			require.NoError(t, kv.Set(ctx, "aetherflow-map-data", `{"nodes":[1]}`))

			value, found, err := kv.Get(ctx, "aetherflow-map-data")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, `{"nodes":[1]}`, value)

			require.NoError(t, kv.Delete(ctx, "aetherflow-map-data"))
			require.NoError(t, kv.Delete(ctx, "aetherflow-map-data"))
			_, found, err = kv.Get(ctx, "aetherflow-map-data")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestFileKVEscapesKeys(t *testing.T) {
	ctx := context.Background()
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, kv.Set(ctx, "../escape/key", "v"))
	assert.Equal(t, filepath.Dir(kv.path("../escape/key")), kv.dir)

	value, found, err := kv.Get(ctx, "../escape/key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)
}

func TestSnapshotStores(t *testing.T) {
	for _, kind := range []string{"memory", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			ctx := context.Background()
			store := newTestStorage(t, kind).Snapshots

			first, err := store.SnapshotAdd(ctx, "m1", "First", "{}")
			require.NoError(t, err)
			second, err := store.SnapshotAdd(ctx, "m1", "Second", "{}")
			require.NoError(t, err)
			_, err = store.SnapshotAdd(ctx, "m2", "Other map", "{}")
			require.NoError(t, err)

			snaps, err := store.SnapshotList(ctx, "m1")
			require.NoError(t, err)
			require.Len(t, snaps, 2)
			assert.Equal(t, second.ID, snaps[0].ID)
			assert.Equal(t, first.ID, snaps[1].ID)

			got, err := store.SnapshotGet(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, "First", got.Title)

			require.NoError(t, store.SnapshotDelete(ctx, first.ID))
			_, err = store.SnapshotGet(ctx, first.ID)
			assert.ErrorIs(t, err, ErrSnapshotNotFound)
			assert.ErrorIs(t, store.SnapshotDelete(ctx, first.ID), ErrSnapshotNotFound)
		})
	}
}

func TestNewStorageRejectsUnknownType(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Type = "mongo"
	_, err := NewStorage(cfg, log.Nop())
	assert.Error(t, err)
}

func TestFileExportImportFormats(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := &model.MapDocument{
		Map: model.Map{ID: "m1", Title: "Solar power", Created: created, Updated: created},
		Nodes: []model.Node{
			{
				ID: "root", MapID: "m1", Type: model.NodeTypeIdea, Title: "Solar power",
				Position: geometry.Point{X: 0, Y: 0},
				Metadata: model.NodeMetadata{Color: "#8B5CF6", Size: model.SizeLarge},
				Created:  created, Updated: created,
			},
			{
				ID: "c1", MapID: "m1", ParentID: "root", Type: model.NodeTypeTask, Title: "Panels",
				Position: geometry.Point{X: 250, Y: 0},
				Task: &model.Task{
					ID: "t1", NodeID: "c1", Status: model.TaskTodo, Priority: model.PriorityMedium,
					Tags: []string{"hardware"}, Created: created, Updated: created,
				},
				Created: created, Updated: created,
			},
		},
	}

	for _, format := range []Format{FormatJSON, FormatXML, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			filename := filepath.Join(t.TempDir(), "out", "map."+string(format))
			require.NoError(t, FileExport(doc, filename, format))

			got, err := FileImport(filename, format)
			require.NoError(t, err)
			assert.Equal(t, doc.Map.Title, got.Map.Title)
			require.Len(t, got.Nodes, 2)
			assert.Equal(t, "root", got.Nodes[1].ParentID)
			assert.Equal(t, 250.0, got.Nodes[1].Position.X)
			require.NotNil(t, got.Nodes[1].Task)
			assert.Equal(t, []string{"hardware"}, got.Nodes[1].Task.Tags)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatXML, FormatFromPath("a/b.XML"))
	assert.Equal(t, FormatYAML, FormatFromPath("b.yml"))
	assert.Equal(t, FormatJSON, FormatFromPath("b"))
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := MarshalDocument(&model.MapDocument{}, Format("csv"))
	assert.Error(t, err)
}
