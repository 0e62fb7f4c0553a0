package flappy

import "math"

// Rect is an axis-aligned box in screen coordinates (y grows downward).
type Rect struct {
	X, Y int
	W, H int
}

// Right returns the x-coordinate one past the right edge.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the y-coordinate one past the bottom edge.
func (r Rect) Bottom() int { return r.Y + r.H }

// Intersects reports whether r and other share at least one pixel.
func (r Rect) Intersects(other Rect) bool {
	if r.X >= other.Right() || other.X >= r.Right() {
		return false
	}
	if r.Y >= other.Bottom() || other.Y >= r.Bottom() {
		return false
	}
	return true
}

// rectAt places a w×h box at a float position, rounding like the pixel grid does.
func rectAt(x, y float64, w, h int) Rect {
	return Rect{X: int(math.Round(x)), Y: int(math.Round(y)), W: w, H: h}
}
