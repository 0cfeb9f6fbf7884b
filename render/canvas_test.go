package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/tsawler/accessify/model"
)

func encodeTestPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding fixture image: %v", err)
	}
	return buf.Bytes()
}

func TestCanvasOutput(t *testing.T) {
	c := NewCanvas()
	c.SetTitle("fixture")

	ops := []Op{
		FillRect{Rect: model.NewRect(0, 0, 612, 792), Color: White},
		StrokeRect{Rect: model.NewRect(60, 60, 260, 120), Color: LightGrey, Width: 0.5},
		FillRect{Rect: model.NewRect(63, 63, 200, 90), Color: White},
		DrawText{Origin: model.Point{X: 63, Y: 85}, Text: "Hello", Font: "Helvetica", Size: 12, Color: Black},
	}

	if err := c.AddPage(model.NewPageGeometry(612, 792), ops); err != nil {
		t.Fatalf("AddPage returned error: %v", err)
	}
	if c.PageCount() != 1 {
		t.Errorf("Expected 1 page, got %d", c.PageCount())
	}

	var out bytes.Buffer
	if err := c.Output(&out); err != nil {
		t.Fatalf("Output returned error: %v", err)
	}
	if !bytes.HasPrefix(out.Bytes(), []byte("%PDF-")) {
		t.Error("output does not start with a PDF header")
	}
}

func TestCanvasPerPageSizes(t *testing.T) {
	c := NewCanvas()

	if err := c.AddPage(model.NewPageGeometry(612, 792), nil); err != nil {
		t.Fatalf("portrait page: %v", err)
	}
	if err := c.AddPage(model.NewPageGeometry(842, 595), nil); err != nil {
		t.Fatalf("landscape page: %v", err)
	}

	if c.PageCount() != 2 {
		t.Errorf("Expected 2 pages, got %d", c.PageCount())
	}

	var out bytes.Buffer
	if err := c.Output(&out); err != nil {
		t.Fatalf("Output returned error: %v", err)
	}
}

func TestCanvasDrawImage(t *testing.T) {
	data := encodeTestPNG(t)

	c := NewCanvas()
	ops := []Op{
		FillRect{Rect: model.NewRect(0, 0, 612, 792), Color: White},
		StrokeRect{Rect: model.NewRect(100, 100, 300, 300), Color: NearWhite, Width: 1},
		DrawImage{Rect: model.NewRect(100, 100, 300, 300), Name: "img-7", Format: "PNG", Data: data},
	}

	if err := c.AddPage(model.NewPageGeometry(612, 792), ops); err != nil {
		t.Fatalf("AddPage returned error: %v", err)
	}

	var out bytes.Buffer
	if err := c.Output(&out); err != nil {
		t.Fatalf("Output returned error: %v", err)
	}
	if out.Len() == 0 {
		t.Error("Expected non-empty output")
	}
}

func TestCanvasReusesRegisteredImage(t *testing.T) {
	data := encodeTestPNG(t)

	c := NewCanvas()
	ops := []Op{
		DrawImage{Rect: model.NewRect(20, 20, 120, 120), Name: "img-3", Format: "PNG", Data: data},
		DrawImage{Rect: model.NewRect(20, 200, 120, 300), Name: "img-3", Format: "PNG", Data: data},
	}

	if err := c.AddPage(model.NewPageGeometry(612, 792), ops); err != nil {
		t.Fatalf("AddPage returned error: %v", err)
	}

	var out bytes.Buffer
	if err := c.Output(&out); err != nil {
		t.Fatalf("Output returned error: %v", err)
	}
}
