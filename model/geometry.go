package model

import "math"

// Point represents a 2D point in page space (origin top-left, units in points).
type Point struct {
	X, Y float64
}

// Translate returns the point shifted by (dx, dy).
func (p Point) Translate(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Rect represents an axis-aligned rectangle in page space.
// The origin is the top-left corner of the page: X grows right, Y grows down.
// A valid rectangle satisfies X0 <= X1 and Y0 <= Y1.
type Rect struct {
	X0 float64 // Left
	Y0 float64 // Top
	X1 float64 // Right
	Y1 float64 // Bottom
}

// NewRect creates a rectangle from two corner coordinates, normalizing
// the corners so the result is valid regardless of argument order.
func NewRect(x0, y0, x1, y1 float64) Rect {
	return Rect{
		X0: math.Min(x0, x1),
		Y0: math.Min(y0, y1),
		X1: math.Max(x0, x1),
		Y1: math.Max(y0, y1),
	}
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// Area returns the area of the rectangle.
func (r Rect) Area() float64 {
	return r.Width() * r.Height()
}

// IsEmpty checks if the rectangle has zero (or negative) area.
func (r Rect) IsEmpty() bool {
	return r.X1 <= r.X0 || r.Y1 <= r.Y0
}

// IsValid checks if the rectangle's corners are ordered.
func (r Rect) IsValid() bool {
	return r.X0 <= r.X1 && r.Y0 <= r.Y1
}

// Contains checks if a point lies inside the rectangle (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 &&
		p.Y >= r.Y0 && p.Y <= r.Y1
}

// ContainsRect checks if other lies entirely inside the rectangle.
func (r Rect) ContainsRect(other Rect) bool {
	return other.X0 >= r.X0 && other.X1 <= r.X1 &&
		other.Y0 >= r.Y0 && other.Y1 <= r.Y1
}

// Intersects checks if two rectangles overlap.
func (r Rect) Intersects(other Rect) bool {
	return !(r.X1 < other.X0 ||
		r.X0 > other.X1 ||
		r.Y1 < other.Y0 ||
		r.Y0 > other.Y1)
}

// Intersection returns the overlapping region of two rectangles.
// Returns an empty rectangle if they do not intersect.
func (r Rect) Intersection(other Rect) Rect {
	if !r.Intersects(other) {
		return Rect{}
	}
	return Rect{
		X0: math.Max(r.X0, other.X0),
		Y0: math.Max(r.Y0, other.Y0),
		X1: math.Min(r.X1, other.X1),
		Y1: math.Min(r.Y1, other.Y1),
	}
}

// Union returns the smallest rectangle containing both rectangles.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		X0: math.Min(r.X0, other.X0),
		Y0: math.Min(r.Y0, other.Y0),
		X1: math.Max(r.X1, other.X1),
		Y1: math.Max(r.Y1, other.Y1),
	}
}

// OverlapRatio returns the fraction of this rectangle's area covered by other.
// Returns 0 for degenerate rectangles.
func (r Rect) OverlapRatio(other Rect) float64 {
	if r.Area() <= 0 {
		return 0
	}
	return r.Intersection(other).Area() / r.Area()
}

// Inset returns the rectangle shrunk by margin on all four edges.
// A margin larger than half the extent produces a degenerate rectangle;
// callers that cannot tolerate one should check IsEmpty on the result.
func (r Rect) Inset(margin float64) Rect {
	return Rect{
		X0: r.X0 + margin,
		Y0: r.Y0 + margin,
		X1: r.X1 - margin,
		Y1: r.Y1 - margin,
	}
}

// Translate returns the rectangle shifted by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{
		X0: r.X0 + dx,
		Y0: r.Y0 + dy,
		X1: r.X1 + dx,
		Y1: r.Y1 + dy,
	}
}

// SnapRect expands r outward to the nearest enclosing multiples of grid
// (floor on the top-left corner, ceiling on the bottom-right corner), then
// clamps every edge into page. The result is always a valid rectangle
// contained in page; an input lying entirely outside the page collapses
// against the page boundary and may have zero area. Snapping an already
// snapped rectangle is a no-op.
//
// Example:
//
//	page := NewRect(0, 0, 612, 792)
//	r := NewRect(33, 41, 158, 97)
//	SnapRect(r, page, 20) // => Rect{20, 40, 160, 100}
func SnapRect(r, page Rect, grid float64) Rect {
	if grid <= 0 {
		return clampRect(r, page)
	}
	snapped := Rect{
		X0: math.Floor(r.X0/grid) * grid,
		Y0: math.Floor(r.Y0/grid) * grid,
		X1: math.Ceil(r.X1/grid) * grid,
		Y1: math.Ceil(r.Y1/grid) * grid,
	}
	return clampRect(snapped, page)
}

// clampRect forces every edge of r into page, preserving edge order.
func clampRect(r, page Rect) Rect {
	c := Rect{
		X0: clamp(r.X0, page.X0, page.X1),
		Y0: clamp(r.Y0, page.Y0, page.Y1),
		X1: clamp(r.X1, page.X0, page.X1),
		Y1: clamp(r.Y1, page.Y0, page.Y1),
	}
	if c.X1 < c.X0 {
		c.X1 = c.X0
	}
	if c.Y1 < c.Y0 {
		c.Y1 = c.Y0
	}
	return c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
