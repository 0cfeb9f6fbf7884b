package layout

import (
	"math"

	"github.com/tsawler/accessify/model"
)

const (
	// minImageDim is the smallest placement edge worth reproducing.
	// Anything smaller is decorative noise (rules, bullets, borders).
	minImageDim = 10.0

	// backgroundSpan is the fraction of a page dimension at which a
	// placement counts as full-bleed.
	backgroundSpan = 0.98

	// edgeTolerance is how close to a page edge a placement must sit to
	// count as anchored there.
	edgeTolerance = 1.0
)

// FilterImages drops placements that cannot or should not be reproduced:
// unresolved references, markings smaller than 10 units in either
// direction, and background bands per IsBackground. Placement order is
// preserved.
func FilterImages(images []model.ImageRef, page model.Rect) []model.ImageRef {
	var kept []model.ImageRef
	for _, img := range images {
		if !img.Resolved() {
			continue
		}
		if img.BBox.Width() < minImageDim || img.BBox.Height() < minImageDim {
			continue
		}
		if IsBackground(img.BBox, page) {
			continue
		}
		kept = append(kept, img)
	}
	return kept
}

// IsBackground reports whether a rectangle looks like page decoration
// rather than a content image: nearly the full page wide and anchored to
// the top or bottom edge (header and footer bands), or nearly the full
// page tall and anchored to the left or right edge (sidebar bands). A
// full-page backdrop anchored at the top-left corner matches both ways.
func IsBackground(r, page model.Rect) bool {
	fullWidth := r.Width() >= page.Width()*backgroundSpan
	fullHeight := r.Height() >= page.Height()*backgroundSpan

	if fullWidth && (nearEdge(r.Y0, page.Y0) || nearEdge(r.Y1, page.Y1)) {
		return true
	}
	if fullHeight && (nearEdge(r.X0, page.X0) || nearEdge(r.X1, page.X1)) {
		return true
	}
	return false
}

func nearEdge(a, b float64) bool {
	return math.Abs(a-b) <= edgeTolerance
}
