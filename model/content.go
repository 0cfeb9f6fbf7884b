package model

import "strings"

// PageGeometry describes a page's bounding rectangle. It is immutable for
// the lifetime of the page's processing.
type PageGeometry struct {
	// Bounds is the page rectangle, (0, 0) at the top-left corner.
	Bounds Rect
}

// NewPageGeometry creates the geometry for a page of the given size in points.
func NewPageGeometry(width, height float64) PageGeometry {
	return PageGeometry{Bounds: Rect{X0: 0, Y0: 0, X1: width, Y1: height}}
}

// Width returns the page width in points.
func (g PageGeometry) Width() float64 {
	return g.Bounds.Width()
}

// Height returns the page height in points.
func (g PageGeometry) Height() float64 {
	return g.Bounds.Height()
}

// TextSpan represents a run of shaped text: the smallest unit of styled,
// positioned text within a line.
type TextSpan struct {
	// Text is the decoded Unicode content of the span.
	Text string

	// Origin is the starting baseline point of the span.
	Origin Point

	// BBox is the span's bounding rectangle.
	BBox Rect

	// FontSize is the effective font size in points.
	FontSize float64

	// FontName is the resource name of the font the span was shown with.
	FontName string
}

// IsBlank checks if the span's text is empty after trimming whitespace.
func (s TextSpan) IsBlank() bool {
	return strings.TrimSpace(s.Text) == ""
}

// TextLine represents an ordered sequence of spans sharing a baseline,
// left-to-right in reading order.
type TextLine struct {
	Spans []TextSpan
	BBox  Rect
}

// Text returns the line's content with spans joined by single spaces.
func (l TextLine) Text() string {
	parts := make([]string, 0, len(l.Spans))
	for _, s := range l.Spans {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}

// TextBlock represents one inferred paragraph-like region: a bounding
// rectangle plus the ordered lines inside it. Merging never mutates a block;
// it produces fresh blocks whose line sequences are concatenations of the
// inputs'.
type TextBlock struct {
	BBox  Rect
	Lines []TextLine
}

// LineCount returns the number of lines in the block.
func (b TextBlock) LineCount() int {
	return len(b.Lines)
}

// Text returns the block's content, one line per row.
func (b TextBlock) Text() string {
	rows := make([]string, 0, len(b.Lines))
	for _, l := range b.Lines {
		rows = append(rows, l.Text())
	}
	return strings.Join(rows, "\n")
}

// ImageRef represents an image placement on a page: the object number of the
// image XObject in the source file plus the rectangle it was painted into.
// An Object of 0 marks a placement whose XObject could not be resolved;
// such placements are skipped by filtering, never rendered.
type ImageRef struct {
	// Object is the source object number of the image XObject.
	Object int

	// BBox is the placement rectangle on the page.
	BBox Rect
}

// Resolved checks if the placement points at a real image object.
func (r ImageRef) Resolved() bool {
	return r.Object > 0
}

// PageContent holds everything extracted from one source page: its geometry
// and the ordered text blocks and image placements found in the content
// streams. Instances are created fresh per page and discarded once the
// corresponding output page has been rendered.
type PageContent struct {
	// Index is the zero-based page index in the source document.
	Index int

	// Geometry is the page's bounding rectangle.
	Geometry PageGeometry

	// Blocks are the text regions in document order.
	Blocks []TextBlock

	// Images are the image placements in document order.
	Images []ImageRef
}
