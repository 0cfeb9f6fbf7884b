// Package render turns ordered draw operations into output document pages.
//
// Ops are plain data. The page rewriter builds a page's op list once, in
// paint order, and [Canvas.AddPage] plays it back; a later op always
// occludes an earlier one. Keeping the order in a slice makes layering
// testable without a canvas.
package render

import "github.com/tsawler/accessify/model"

// Color is an opaque RGB color with 8-bit channels.
type Color struct {
	R, G, B int
}

// Colors used by the page rewriter.
var (
	White     = Color{R: 255, G: 255, B: 255}
	Black     = Color{R: 0, G: 0, B: 0}
	NearWhite = Color{R: 252, G: 252, B: 252}
	LightGrey = Color{R: 230, G: 230, B: 230}
)

// Op is a single draw instruction. Implementations are value types; an op
// list is played strictly in order.
type Op interface {
	isOp()
}

// FillRect paints a solid rectangle.
type FillRect struct {
	Rect  model.Rect
	Color Color
}

// StrokeRect outlines a rectangle.
type StrokeRect struct {
	Rect  model.Rect
	Color Color
	Width float64
}

// DrawImage paints encoded image bytes into a rectangle. Name identifies
// the payload within the output document; drawing the same name twice
// reuses the bytes registered first.
type DrawImage struct {
	Rect   model.Rect
	Name   string
	Format string // "JPG" or "PNG"
	Data   []byte
}

// DrawText paints one text run with its baseline starting at Origin.
type DrawText struct {
	Origin model.Point
	Text   string
	Font   string
	Size   float64
	Color  Color
}

func (FillRect) isOp()   {}
func (StrokeRect) isOp() {}
func (DrawImage) isOp()  {}
func (DrawText) isOp()   {}

// FitRect scales a w-by-h source proportionally to the largest size that
// fits inside bounds and centers it there. Degenerate sources or bounds
// come back as bounds unchanged.
func FitRect(w, h float64, bounds model.Rect) model.Rect {
	if w <= 0 || h <= 0 || bounds.IsEmpty() {
		return bounds
	}

	scale := bounds.Width() / w
	if s := bounds.Height() / h; s < scale {
		scale = s
	}

	fitW := w * scale
	fitH := h * scale
	x0 := bounds.X0 + (bounds.Width()-fitW)/2
	y0 := bounds.Y0 + (bounds.Height()-fitH)/2

	return model.Rect{X0: x0, Y0: y0, X1: x0 + fitW, Y1: y0 + fitH}
}
