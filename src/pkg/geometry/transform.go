package geometry

// Transform maps between screen space and map space. A map point p is drawn
// at Origin + Pan + p*Zoom.
type Transform struct {
	Origin Point
	Pan    Point
	Zoom   float64
}

// ScreenToMap undoes the canvas origin, then the pan, then the zoom.
func (t Transform) ScreenToMap(s Point) Point {
	z := t.zoom()
	return Point{
		X: (s.X - t.Origin.X - t.Pan.X) / z,
		Y: (s.Y - t.Origin.Y - t.Pan.Y) / z,
	}
}

// MapToScreen is the inverse of ScreenToMap.
func (t Transform) MapToScreen(m Point) Point {
	z := t.zoom()
	return Point{
		X: m.X*z + t.Pan.X + t.Origin.X,
		Y: m.Y*z + t.Pan.Y + t.Origin.Y,
	}
}

func (t Transform) zoom() float64 {
	if t.Zoom <= 0 {
		return 1
	}
	return t.Zoom
}
