package viewport

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"aetherflow/local-app/src/pkg/data"
	"aetherflow/local-app/src/pkg/geometry"
	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
)

func newTestController(t require.TestingT) (*Controller, *data.NodeStore, model.Node) {
	store := data.NewNodeStore()
	node := store.AddNode(model.NodeInfo{MapID: "m1", Title: "Root", Position: geometry.Point{X: 100, Y: 50}})
	c := NewController(store, DefaultConfig(), log.Nop())
	return c, store, node
}

func TestPanOnEmptyCanvas(t *testing.T) {
	c, store, node := newTestController(t)
	store.SetSelectedNode(node.ID)
	store.SetPanOffset(geometry.Point{X: 10, Y: 20})

	c.PointerDown(PointerEvent{Pos: geometry.Point{X: 300, Y: 300}})
	assert.Equal(t, StatePanning, c.State())
	assert.Empty(t, store.SelectedNode())

	c.PointerMove(PointerEvent{Pos: geometry.Point{X: 350, Y: 280}})
	assert.Equal(t, geometry.Point{X: 60, Y: 0}, store.PanOffset())

	c.PointerUp(PointerEvent{})
	assert.Equal(t, StateIdle, c.State())

	c.PointerMove(PointerEvent{Pos: geometry.Point{X: 0, Y: 0}})
	assert.Equal(t, geometry.Point{X: 60, Y: 0}, store.PanOffset())
}

func TestDragNodeTracksPointer(t *testing.T) {
	c, store, node := newTestController(t)
	c.Mount(geometry.Point{X: 40, Y: 30})
	store.SetZoom(2)
	store.SetPanOffset(geometry.Point{X: -20, Y: 10})

	c.PointerDown(PointerEvent{Pos: geometry.Point{X: 300, Y: 200}, NodeID: node.ID})
	assert.Equal(t, StateDragging, c.State())
	assert.Equal(t, node.ID, store.SelectedNode())

	c.PointerMove(PointerEvent{Pos: geometry.Point{X: 340, Y: 180}})
	got, _ := store.NodePosition(node.ID)
	assert.InDelta(t, 120, got.X, 1e-9)
	assert.InDelta(t, 40, got.Y, 1e-9)

	c.PointerLeave()
	assert.Equal(t, StateIdle, c.State())
}

func TestDragTrackingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c, store, node := newTestController(t)
		coord := rapid.Float64Range(-5000, 5000)
		c.Mount(geometry.Point{X: rapid.Float64Range(0, 500).Draw(t, "ox"), Y: rapid.Float64Range(0, 500).Draw(t, "oy")})
		zoom := store.SetZoom(rapid.Float64Range(0.1, 3).Draw(t, "zoom"))
		store.SetPanOffset(geometry.Point{X: coord.Draw(t, "px"), Y: coord.Draw(t, "py")})

		p0 := geometry.Point{X: coord.Draw(t, "p0x"), Y: coord.Draw(t, "p0y")}
		p1 := geometry.Point{X: coord.Draw(t, "p1x"), Y: coord.Draw(t, "p1y")}
		n0 := node.Position

		c.PointerDown(PointerEvent{Pos: p0, NodeID: node.ID})
		c.PointerMove(PointerEvent{Pos: p1})

		got, _ := store.NodePosition(node.ID)
		want := n0.Add(p1.Sub(p0).Scale(1 / zoom))
		if math.Abs(got.X-want.X) > 1e-6 || math.Abs(got.Y-want.Y) > 1e-6 {
			t.Fatalf("node at %+v, want %+v", got, want)
		}
	})
}

func TestDragIgnoredWhileUnmounted(t *testing.T) {
	c, store, node := newTestController(t)

	c.PointerDown(PointerEvent{Pos: geometry.Point{X: 10, Y: 10}, NodeID: node.ID})
	assert.Equal(t, node.ID, store.SelectedNode())
	assert.Equal(t, StateIdle, c.State())

	c.Mount(geometry.Point{})
	c.PointerDown(PointerEvent{Pos: geometry.Point{X: 10, Y: 10}, NodeID: node.ID})
	c.Unmount()
	c.PointerMove(PointerEvent{Pos: geometry.Point{X: 500, Y: 500}})

	got, _ := store.NodePosition(node.ID)
	assert.Equal(t, node.Position, got)
}

func TestPointerDownOnUnknownNodeIsIgnored(t *testing.T) {
	c, store, _ := newTestController(t)
	c.Mount(geometry.Point{})
	c.PointerDown(PointerEvent{NodeID: "ghost"})
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, store.SelectedNode())
}

func TestDragEndsWhenNodeIsDeleted(t *testing.T) {
	c, store, node := newTestController(t)
	c.Mount(geometry.Point{})
	c.PointerDown(PointerEvent{Pos: geometry.Point{X: 100, Y: 50}, NodeID: node.ID})
	store.DeleteNode(node.ID)

	c.PointerMove(PointerEvent{Pos: geometry.Point{X: 200, Y: 50}})
	assert.Equal(t, StateIdle, c.State())
}

func TestWheelStepsAndCoalesces(t *testing.T) {
	c, store, _ := newTestController(t)
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	level, applied := c.Wheel(WheelEvent{DeltaY: -100, At: t0})
	assert.True(t, applied)
	assert.InDelta(t, 1.1, level, 1e-9)

	level, applied = c.Wheel(WheelEvent{DeltaY: -100, At: t0.Add(5 * time.Millisecond)})
	assert.False(t, applied)
	assert.InDelta(t, 1.2, level, 1e-9)
	level, applied = c.Wheel(WheelEvent{DeltaY: -100, At: t0.Add(10 * time.Millisecond)})
	assert.False(t, applied)
	assert.InDelta(t, 1.2, level, 1e-9)
	assert.InDelta(t, 1.1, store.Zoom(), 1e-9)

	assert.False(t, c.Flush(t0.Add(12*time.Millisecond)))
	assert.True(t, c.Flush(t0.Add(20*time.Millisecond)))
	assert.InDelta(t, 1.2, store.Zoom(), 1e-9)
	assert.False(t, c.Flush(t0.Add(time.Second)))

	level, applied = c.Wheel(WheelEvent{DeltaY: 3, At: t0.Add(time.Second)})
	assert.True(t, applied)
	assert.InDelta(t, 1.1, level, 1e-9)
}

func TestWheelBurstKeepsLatestLevelOnly(t *testing.T) {
	c, store, _ := newTestController(t)
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		c.Wheel(WheelEvent{DeltaY: -100, At: t0.Add(time.Duration(2*i) * time.Millisecond)})
	}
	c.Flush(t0.Add(time.Second))
	assert.InDelta(t, 1.2, store.Zoom(), 1e-9)

	// The latest direction wins inside a window.
	t1 := t0.Add(2 * time.Second)
	c.Wheel(WheelEvent{DeltaY: -100, At: t1})
	c.Wheel(WheelEvent{DeltaY: -100, At: t1.Add(2 * time.Millisecond)})
	c.Wheel(WheelEvent{DeltaY: 100, At: t1.Add(4 * time.Millisecond)})
	c.Flush(t1.Add(time.Second))
	assert.InDelta(t, 1.2, store.Zoom(), 1e-9)
}

func TestWheelZoomStaysInBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c, store, _ := newTestController(t)
		at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		n := rapid.IntRange(1, 80).Draw(t, "events")
		for i := 0; i < n; i++ {
			at = at.Add(time.Duration(rapid.IntRange(0, 40).Draw(t, "gap")) * time.Millisecond)
			level, _ := c.Wheel(WheelEvent{DeltaY: rapid.Float64Range(-10, 10).Draw(t, "delta"), At: at})
			if level < 0.1-1e-9 || level > 3+1e-9 {
				t.Fatalf("queued level %v out of bounds", level)
			}
			if z := store.Zoom(); z < 0.1 || z > 3 {
				t.Fatalf("zoom %v out of bounds", z)
			}
		}
	})
}

func TestResetView(t *testing.T) {
	c, store, _ := newTestController(t)
	store.SetZoom(2.5)
	store.SetPanOffset(geometry.Point{X: 9, Y: 9})
	c.ResetView()
	assert.Equal(t, 1.0, store.Zoom())
	assert.Equal(t, geometry.Point{}, store.PanOffset())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "dragging", StateDragging.String())
	assert.Equal(t, "unknown", State(9).String())
}
