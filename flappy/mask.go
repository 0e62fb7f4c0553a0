package flappy

import (
	"image"
	"math/bits"
)

// Mask is a 1-bit opacity map of a sprite. Rows are packed into 64-bit words.
type Mask struct {
	w, h   int
	stride int
	words  []uint64
}

// NewMask returns an empty w×h mask.
func NewMask(w, h int) *Mask {
	stride := (w + 63) / 64
	return &Mask{w: w, h: h, stride: stride, words: make([]uint64, stride*h)}
}

// FilledMask returns a w×h mask with every bit set.
func FilledMask(w, h int) *Mask {
	m := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

// MaskFromImage sets every pixel whose alpha is above threshold (0-255).
func MaskFromImage(img image.Image, threshold uint8) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if uint8(a>>8) > threshold {
				m.Set(x-b.Min.X, y-b.Min.Y, true)
			}
		}
	}
	return m
}

// Size returns the mask dimensions.
func (m *Mask) Size() (int, int) { return m.w, m.h }

// Set sets or clears the bit at (x, y). Out of range coordinates are ignored.
func (m *Mask) Set(x, y int, on bool) {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return
	}
	i := y*m.stride + x/64
	bit := uint64(1) << uint(x%64)
	if on {
		m.words[i] |= bit
	} else {
		m.words[i] &^= bit
	}
}

// Get reports the bit at (x, y); out of range is transparent.
func (m *Mask) Get(x, y int) bool {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return false
	}
	return m.words[y*m.stride+x/64]&(uint64(1)<<uint(x%64)) != 0
}

// Count returns the number of set bits.
func (m *Mask) Count() int {
	n := 0
	for _, w := range m.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Overlap reports whether m and other share a set bit when other's top-left
// corner is placed at (dx, dy) relative to m's top-left corner.
func (m *Mask) Overlap(other *Mask, dx, dy int) bool {
	x0, x1 := max(0, dx), min(m.w, dx+other.w)
	y0, y1 := max(0, dy), min(m.h, dy+other.h)
	if x0 >= x1 || y0 >= y1 {
		return false
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if m.Get(x, y) && other.Get(x-dx, y-dy) {
				return true
			}
		}
	}
	return false
}

// Shape is a placed sprite: its bounding box and, optionally, its opacity mask.
type Shape struct {
	Box  Rect
	Mask *Mask
}

// Collider is the exact-collision strategy used by pipes.
type Collider interface {
	Overlap(a, b Shape) bool
}

// BoxCollider treats sprites as solid rectangles.
type BoxCollider struct{}

// Overlap implements Collider.
func (BoxCollider) Overlap(a, b Shape) bool { return a.Box.Intersects(b.Box) }

// MaskCollider tests pixel masks, falling back to the box when a shape has none.
type MaskCollider struct{}

// Overlap implements Collider.
func (MaskCollider) Overlap(a, b Shape) bool {
	if !a.Box.Intersects(b.Box) {
		return false
	}
	if a.Mask == nil && b.Mask == nil {
		return true
	}
	am, bm := a.Mask, b.Mask
	if am == nil {
		am = FilledMask(a.Box.W, a.Box.H)
	}
	if bm == nil {
		bm = FilledMask(b.Box.W, b.Box.H)
	}
	return am.Overlap(bm, b.Box.X-a.Box.X, b.Box.Y-a.Box.Y)
}

// FlipV returns a copy of m mirrored top to bottom.
func (m *Mask) FlipV() *Mask {
	out := NewMask(m.w, m.h)
	for y := 0; y < m.h; y++ {
		copy(out.words[(m.h-1-y)*m.stride:], m.words[y*m.stride:(y+1)*m.stride])
	}
	return out
}

// Masks are the sprite masks an episode gives every bird and pipe it spawns.
// A nil mask leaves that sprite solid.
type Masks struct {
	Bird       *Mask
	PipeTop    *Mask
	PipeBottom *Mask
}

// Empty reports whether no mask is set.
func (m Masks) Empty() bool {
	return m.Bird == nil && m.PipeTop == nil && m.PipeBottom == nil
}
