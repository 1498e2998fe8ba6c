// Package geometry holds the pure spatial helpers used to size, place and
// transform nodes on the map plane.
package geometry

import (
	"math"

	"github.com/mattn/go-runewidth"
)

// Footprint sizing constants, in map units.
const (
	MinNodeWidth    = 200.0
	MaxNodeWidth    = 400.0
	MaxNodeHeight   = 200.0
	BaseNodeHeight  = 120.0
	titleCharWidth  = 8.0
	titlePadding    = 40.0
	descLineChars   = 30
	descLineHeight  = 20.0
	titleLineChars  = 25
	titleLineHeight = 24.0
)

// Placement constants.
const (
	BaseRadius     = 250.0
	MinClearance   = 200.0
	RadiusStep     = 100.0
	MaxAttempts    = 10
	SiblingSpacing = 200.0
	ChildOffsetY   = 150.0
)

// Point is a 2D coordinate. Node positions live in map space, pointer
// positions in screen space.
type Point struct {
	X float64 `json:"x" xml:"x,attr" yaml:"x"`
	Y float64 `json:"y" xml:"y,attr" yaml:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale returns p multiplied by f.
func (p Point) Scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f} }

// Size is the rendered footprint of a node.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Distance returns the Euclidean distance between two points.
func Distance(p1, p2 Point) float64 {
	return math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
}

// FootprintSize estimates the rendered size of a node from its text. Lengths
// are measured in terminal display columns so wide runes count double.
func FootprintSize(title, description string) Size {
	titleLen := runewidth.StringWidth(title)
	descLen := runewidth.StringWidth(description)

	width := math.Max(MinNodeWidth, float64(titleLen)*titleCharWidth+titlePadding)
	height := BaseNodeHeight

	if descLen > 0 {
		descLines := ceilDiv(descLen, descLineChars)
		height += float64(descLines) * descLineHeight
	}

	if titleLen > titleLineChars {
		titleLines := ceilDiv(titleLen, titleLineChars)
		height += float64(titleLines-1) * titleLineHeight
	}

	return Size{
		Width:  math.Min(width, MaxNodeWidth),
		Height: math.Min(height, MaxNodeHeight),
	}
}

// PlaceChild picks a position for the index-th of total siblings on a circle
// around the parent. When the candidate sits closer than MinClearance to any
// existing position the radius grows by RadiusStep, up to MaxAttempts times.
// The last candidate is returned even if it still overlaps.
func PlaceChild(parent Point, existing []Point, index, total int) Point {
	if total <= 0 {
		total = 1
	}
	angle := 2 * math.Pi * float64(index) / float64(total)
	candidate := onCircle(parent, angle, BaseRadius)

	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if !overlaps(candidate, existing) {
			break
		}
		radius := BaseRadius + float64(attempt+1)*RadiusStep
		candidate = onCircle(parent, angle, radius)
	}

	return candidate
}

// FanOut lays siblings left to right under the parent, centred on it.
func FanOut(parent Point, index, total int) Point {
	offset := float64(index) - float64(total)/2
	return Point{
		X: parent.X + offset*SiblingSpacing,
		Y: parent.Y + ChildOffsetY,
	}
}

// ManualChild places a hand-added child next to its existing siblings.
func ManualChild(parent Point, siblingCount int) Point {
	return Point{
		X: parent.X + float64(siblingCount-1)*SiblingSpacing,
		Y: parent.Y + ChildOffsetY,
	}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func onCircle(center Point, angle, radius float64) Point {
	return Point{
		X: center.X + math.Cos(angle)*radius,
		Y: center.Y + math.Sin(angle)*radius,
	}
}

func overlaps(p Point, existing []Point) bool {
	for _, e := range existing {
		if Distance(p, e) < MinClearance {
			return true
		}
	}
	return false
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
