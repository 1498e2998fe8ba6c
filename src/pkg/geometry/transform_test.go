package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestTransformScreenToMap(t *testing.T) {
	tr := Transform{Origin: Point{10, 20}, Pan: Point{30, 40}, Zoom: 2}

	got := tr.ScreenToMap(Point{140, 160})
	assert.Equal(t, Point{X: 50, Y: 50}, got)
	assert.Equal(t, Point{X: 140, Y: 160}, tr.MapToScreen(got))
}

func TestTransformZeroZoomFallsBackToIdentityScale(t *testing.T) {
	tr := Transform{Pan: Point{5, 5}}
	assert.Equal(t, Point{X: 5, Y: 5}, tr.ScreenToMap(Point{10, 10}))
}

func TestTransformRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr := Transform{
			Origin: Point{rapid.Float64Range(-500, 500).Draw(t, "ox"), rapid.Float64Range(-500, 500).Draw(t, "oy")},
			Pan:    Point{rapid.Float64Range(-5000, 5000).Draw(t, "px"), rapid.Float64Range(-5000, 5000).Draw(t, "py")},
			Zoom:   rapid.Float64Range(0.1, 3).Draw(t, "zoom"),
		}
		p := Point{rapid.Float64Range(-1e4, 1e4).Draw(t, "x"), rapid.Float64Range(-1e4, 1e4).Draw(t, "y")}

		back := tr.ScreenToMap(tr.MapToScreen(p))
		if Distance(p, back) > 1e-6 {
			t.Fatalf("round trip drifted: %v -> %v", p, back)
		}
	})
}
