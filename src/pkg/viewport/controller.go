// Package viewport translates pointer and wheel input into pan, zoom and node
// drag updates in map coordinates.
package viewport

import (
	"context"
	"sync"
	"time"

	"aetherflow/local-app/src/pkg/geometry"
	"aetherflow/local-app/src/pkg/log"
)

// Target is the state the controller reads and writes. The node store
// implements it.
type Target interface {
	NodePosition(id string) (geometry.Point, bool)
	MoveNode(id string, pos geometry.Point) bool
	SetSelectedNode(id string)
	ClearSelection()
	Zoom() float64
	SetZoom(level float64) float64
	PanOffset() geometry.Point
	SetPanOffset(offset geometry.Point)
}

// State is the active gesture.
type State int

const (
	StateIdle State = iota
	StatePanning
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePanning:
		return "panning"
	case StateDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// PointerEvent is a pointer position in screen coordinates. An empty NodeID
// means the pointer is over empty canvas.
type PointerEvent struct {
	Pos    geometry.Point
	NodeID string
}

// WheelEvent is one wheel notch. Positive DeltaY zooms out.
type WheelEvent struct {
	DeltaY float64
	At     time.Time
}

// Config holds the zoom parameters.
type Config struct {
	MinZoom  float64
	MaxZoom  float64
	ZoomStep float64
	Throttle time.Duration
}

// DefaultConfig returns the default zoom parameters.
func DefaultConfig() Config {
	return Config{MinZoom: 0.1, MaxZoom: 3.0, ZoomStep: 0.1, Throttle: 16 * time.Millisecond}
}

// Controller tracks one gesture at a time over a Target.
type Controller struct {
	mu     sync.Mutex
	target Target
	cfg    Config
	logger *log.Logger

	mounted bool
	origin  geometry.Point

	state      State
	panAnchor  geometry.Point
	dragNodeID string
	dragOffset geometry.Point

	lastZoom     time.Time
	pendingZoom  float64
	zoomIsQueued bool
}

// NewController creates an idle, unmounted controller.
func NewController(target Target, cfg Config, logger *log.Logger) *Controller {
	if cfg.ZoomStep <= 0 {
		cfg.ZoomStep = DefaultConfig().ZoomStep
	}
	if cfg.MinZoom <= 0 || cfg.MaxZoom < cfg.MinZoom {
		cfg.MinZoom, cfg.MaxZoom = DefaultConfig().MinZoom, DefaultConfig().MaxZoom
	}
	return &Controller{target: target, cfg: cfg, logger: logger}
}

// Mount records the screen position of the canvas's top-left corner.
func (c *Controller) Mount(origin geometry.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mounted = true
	c.origin = origin
}

// Unmount forgets the canvas. Drag moves are ignored until the next Mount.
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mounted = false
}

// State returns the active gesture.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transform returns the current screen/map transform.
func (c *Controller) Transform() geometry.Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transformLocked()
}

func (c *Controller) transformLocked() geometry.Transform {
	return geometry.Transform{Origin: c.origin, Pan: c.target.PanOffset(), Zoom: c.target.Zoom()}
}

// PointerDown starts a pan on empty canvas or a drag on a node. Pressing
// empty canvas clears the selection; pressing a node selects it.
func (c *Controller) PointerDown(ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.NodeID == "" {
		c.target.ClearSelection()
		c.state = StatePanning
		c.panAnchor = ev.Pos.Sub(c.target.PanOffset())
		return
	}

	nodePos, ok := c.target.NodePosition(ev.NodeID)
	if !ok {
		return
	}
	c.target.SetSelectedNode(ev.NodeID)
	if !c.mounted {
		c.logger.Debug(context.Background(), "Canvas not mounted, drag not started", log.Fields{"nodeID": ev.NodeID})
		return
	}

	c.state = StateDragging
	c.dragNodeID = ev.NodeID
	c.dragOffset = c.transformLocked().ScreenToMap(ev.Pos).Sub(nodePos)
}

// PointerMove updates the pan offset or the dragged node's position.
func (c *Controller) PointerMove(ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StatePanning:
		c.target.SetPanOffset(ev.Pos.Sub(c.panAnchor))
	case StateDragging:
		if !c.mounted {
			return
		}
		pos := c.transformLocked().ScreenToMap(ev.Pos).Sub(c.dragOffset)
		if !c.target.MoveNode(c.dragNodeID, pos) {
			// The node went away mid-drag.
			c.resetGestureLocked()
		}
	}
}

// PointerUp ends the active gesture.
func (c *Controller) PointerUp(PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetGestureLocked()
}

// PointerLeave ends the active gesture.
func (c *Controller) PointerLeave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetGestureLocked()
}

func (c *Controller) resetGestureLocked() {
	c.state = StateIdle
	c.dragNodeID = ""
	c.dragOffset = geometry.Point{}
}

// Wheel steps the zoom level. The first event of a burst is applied at once.
// Later events inside the throttle window replace a queued level one step
// from the applied zoom, so a burst moves at most one step past its first
// event. The next event outside the window or Flush applies the queued level.
// It returns the resulting level and whether it was written to the target.
func (c *Controller) Wheel(ev WheelEvent) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	step := c.cfg.ZoomStep
	if ev.DeltaY > 0 {
		step = -step
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	level := geometry.Clamp(c.target.Zoom()+step, c.cfg.MinZoom, c.cfg.MaxZoom)

	if !c.lastZoom.IsZero() && at.Sub(c.lastZoom) < c.cfg.Throttle {
		c.pendingZoom = level
		c.zoomIsQueued = true
		return level, false
	}

	c.zoomIsQueued = false
	c.lastZoom = at
	return c.target.SetZoom(level), true
}

// Flush applies a queued zoom level once the throttle window has passed.
func (c *Controller) Flush(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.zoomIsQueued || now.Sub(c.lastZoom) < c.cfg.Throttle {
		return false
	}
	c.zoomIsQueued = false
	c.lastZoom = now
	c.target.SetZoom(c.pendingZoom)
	return true
}

// ResetView restores zoom 1 and no pan.
func (c *Controller) ResetView() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoomIsQueued = false
	c.target.SetZoom(1)
	c.target.SetPanOffset(geometry.Point{})
}
