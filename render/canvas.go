package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/tsawler/accessify/model"
)

// Canvas accumulates rendered pages into a single output document. Pages
// are sized individually. Coordinates are points with the origin at the
// top left of the page, matching [model.Rect].
type Canvas struct {
	pdf       *gofpdf.Fpdf
	translate func(string) string
}

// NewCanvas creates an empty output document.
func NewCanvas() *Canvas {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: 612, Ht: 792},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	return &Canvas{
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// SetTitle records the document title in the output metadata.
func (c *Canvas) SetTitle(title string) {
	c.pdf.SetTitle(title, true)
}

// AddPage appends a page with the given geometry and plays ops onto it
// in order.
func (c *Canvas) AddPage(geom model.PageGeometry, ops []Op) error {
	c.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: geom.Width(), Ht: geom.Height()})

	for _, op := range ops {
		c.play(op)
	}

	if err := c.pdf.Error(); err != nil {
		return fmt.Errorf("render page %d: %w", c.pdf.PageCount(), err)
	}

	return nil
}

// PageCount returns the number of pages added so far.
func (c *Canvas) PageCount() int {
	return c.pdf.PageCount()
}

func (c *Canvas) play(op Op) {
	switch o := op.(type) {
	case FillRect:
		c.pdf.SetFillColor(o.Color.R, o.Color.G, o.Color.B)
		c.pdf.Rect(o.Rect.X0, o.Rect.Y0, o.Rect.Width(), o.Rect.Height(), "F")

	case StrokeRect:
		c.pdf.SetDrawColor(o.Color.R, o.Color.G, o.Color.B)
		c.pdf.SetLineWidth(o.Width)
		c.pdf.Rect(o.Rect.X0, o.Rect.Y0, o.Rect.Width(), o.Rect.Height(), "D")

	case DrawImage:
		opts := gofpdf.ImageOptions{ImageType: o.Format}
		c.pdf.RegisterImageOptionsReader(o.Name, opts, bytes.NewReader(o.Data))
		c.pdf.ImageOptions(o.Name, o.Rect.X0, o.Rect.Y0, o.Rect.Width(), o.Rect.Height(), false, opts, 0, "")

	case DrawText:
		c.pdf.SetFont(o.Font, "", o.Size)
		c.pdf.SetTextColor(o.Color.R, o.Color.G, o.Color.B)
		c.pdf.Text(o.Origin.X, o.Origin.Y, c.translate(o.Text))
	}
}

// Output writes the finished document to w.
func (c *Canvas) Output(w io.Writer) error {
	return c.pdf.Output(w)
}
