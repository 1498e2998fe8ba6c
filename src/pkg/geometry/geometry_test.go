package geometry

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDistance(t *testing.T) {
	assert.Equal(t, 5.0, Distance(Point{0, 0}, Point{3, 4}))
	assert.Equal(t, 0.0, Distance(Point{7, -2}, Point{7, -2}))
}

func TestFootprintSize(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        Size
	}{
		{
			name:  "short title uses minimum width and base height",
			title: "Idea",
			want:  Size{Width: 200, Height: 120},
		},
		{
			name:  "title wider than minimum",
			title: strings.Repeat("a", 30),
			want:  Size{Width: 280, Height: 144},
		},
		{
			name:        "description adds wrapped lines",
			title:       "Plan",
			description: strings.Repeat("d", 61),
			want:        Size{Width: 200, Height: 180},
		},
		{
			name:        "both dimensions capped",
			title:       strings.Repeat("t", 100),
			description: strings.Repeat("d", 10),
			want:        Size{Width: 400, Height: 200},
		},
		{
			name:  "exactly 25 columns adds no title line",
			title: strings.Repeat("x", 25),
			want:  Size{Width: 240, Height: 120},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FootprintSize(tt.title, tt.description))
		})
	}
}

func TestFootprintSizeIsBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		title := rapid.String().Draw(t, "title")
		desc := rapid.String().Draw(t, "description")
		size := FootprintSize(title, desc)
		if size.Width < MinNodeWidth || size.Width > MaxNodeWidth {
			t.Fatalf("width %v out of bounds", size.Width)
		}
		if size.Height < BaseNodeHeight || size.Height > MaxNodeHeight {
			t.Fatalf("height %v out of bounds", size.Height)
		}
	})
}

func TestPlaceChild(t *testing.T) {
	t.Run("free space uses base radius", func(t *testing.T) {
		got := PlaceChild(Point{0, 0}, nil, 0, 4)
		assert.InDelta(t, 250, got.X, 1e-9)
		assert.InDelta(t, 0, got.Y, 1e-9)
	})

	t.Run("angle follows sibling index", func(t *testing.T) {
		got := PlaceChild(Point{100, 100}, nil, 1, 4)
		assert.InDelta(t, 100, got.X, 1e-9)
		assert.InDelta(t, 350, got.Y, 1e-9)
	})

	t.Run("grows radius until clear", func(t *testing.T) {
		got := PlaceChild(Point{0, 0}, []Point{{250, 0}}, 0, 1)
		assert.InDelta(t, 450, got.X, 1e-9)
		assert.InDelta(t, 0, got.Y, 1e-9)
	})

	t.Run("accepts last candidate after exhausting attempts", func(t *testing.T) {
		var crowd []Point
		for x := 250.0; x <= 1250; x += 100 {
			crowd = append(crowd, Point{x, 0})
		}
		got := PlaceChild(Point{0, 0}, crowd, 0, 1)
		assert.InDelta(t, BaseRadius+MaxAttempts*RadiusStep, got.X, 1e-9)
	})

	t.Run("zero siblings does not divide by zero", func(t *testing.T) {
		got := PlaceChild(Point{0, 0}, nil, 0, 0)
		assert.False(t, math.IsNaN(got.X))
	})
}

func TestFanOutAndManualChild(t *testing.T) {
	parent := Point{X: 0, Y: 0}
	assert.Equal(t, Point{X: -300, Y: 150}, FanOut(parent, 0, 3))
	assert.Equal(t, Point{X: -100, Y: 150}, FanOut(parent, 1, 3))
	assert.Equal(t, Point{X: 100, Y: 150}, FanOut(parent, 2, 3))

	assert.Equal(t, Point{X: -190, Y: 170}, ManualChild(Point{X: 10, Y: 20}, 0))
	assert.Equal(t, Point{X: 410, Y: 170}, ManualChild(Point{X: 10, Y: 20}, 3))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.1, Clamp(-4, 0.1, 3))
	assert.Equal(t, 3.0, Clamp(9, 0.1, 3))
	assert.Equal(t, 1.5, Clamp(1.5, 0.1, 3))
}
