package layout

import (
	"testing"

	"github.com/tsawler/accessify/model"
)

// makeImage creates a test image placement.
func makeImage(object int, x0, y0, x1, y1 float64) model.ImageRef {
	return model.ImageRef{
		Object: object,
		BBox:   model.Rect{X0: x0, Y0: y0, X1: x1, Y1: y1},
	}
}

func TestFilterImagesEmpty(t *testing.T) {
	page := model.NewRect(0, 0, 612, 792)

	if kept := FilterImages(nil, page); len(kept) != 0 {
		t.Errorf("Expected 0 images for empty input, got %d", len(kept))
	}
}

func TestFilterImagesUnresolved(t *testing.T) {
	page := model.NewRect(0, 0, 612, 792)
	images := []model.ImageRef{
		makeImage(0, 100, 100, 300, 250),
		makeImage(7, 100, 400, 300, 550),
	}

	kept := FilterImages(images, page)

	if len(kept) != 1 {
		t.Fatalf("Expected 1 image, got %d", len(kept))
	}
	if kept[0].Object != 7 {
		t.Errorf("Expected object 7, got %d", kept[0].Object)
	}
}

func TestFilterImagesMinimumSize(t *testing.T) {
	page := model.NewRect(0, 0, 612, 792)

	tests := []struct {
		name string
		img  model.ImageRef
		kept bool
	}{
		{"5x5 dropped", makeImage(3, 100, 100, 105, 105), false},
		{"15x15 kept", makeImage(3, 100, 100, 115, 115), true},
		{"wide but short dropped", makeImage(3, 100, 100, 300, 105), false},
		{"narrow but tall dropped", makeImage(3, 100, 100, 105, 300), false},
		{"exactly 10x10 kept", makeImage(3, 100, 100, 110, 110), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept := FilterImages([]model.ImageRef{tt.img}, page)
			if got := len(kept) == 1; got != tt.kept {
				t.Errorf("Expected kept=%v, got %d images", tt.kept, len(kept))
			}
		})
	}
}

func TestFilterImagesBackground(t *testing.T) {
	page := model.NewRect(0, 0, 600, 800)

	tests := []struct {
		name string
		img  model.ImageRef
		kept bool
	}{
		{"full page backdrop", makeImage(3, 0, 0, 600, 800), false},
		{"full width top band", makeImage(3, 0, 0, 600, 40), false},
		{"full width bottom band", makeImage(3, 0, 760, 600, 800), false},
		{"full height left band", makeImage(3, 0, 0, 40, 800), false},
		{"full height right band", makeImage(3, 560, 0, 600, 800), false},
		{"inset top band still full width", makeImage(3, 5, 0, 595, 40), false},
		{"centered photo", makeImage(3, 200, 325, 400, 475), true},
		{"full width floating mid page", makeImage(3, 0, 300, 600, 340), true},
		{"tall but narrow centered", makeImage(3, 280, 5, 320, 795), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept := FilterImages([]model.ImageRef{tt.img}, page)
			if got := len(kept) == 1; got != tt.kept {
				t.Errorf("Expected kept=%v, got %d images", tt.kept, len(kept))
			}
		})
	}
}

func TestIsBackgroundEdgeTolerance(t *testing.T) {
	page := model.NewRect(0, 0, 600, 800)

	// Anchored within one unit of the edge still counts.
	if !IsBackground(model.NewRect(0, 0.8, 600, 40), page) {
		t.Errorf("Expected a band 0.8 units from the top edge to count as background")
	}

	// Two and a half units away does not.
	if IsBackground(model.NewRect(0, 2.5, 600, 40), page) {
		t.Errorf("Expected a band 2.5 units from the top edge to be kept")
	}
}

func TestFilterImagesPreservesOrder(t *testing.T) {
	page := model.NewRect(0, 0, 612, 792)
	images := []model.ImageRef{
		makeImage(9, 100, 100, 200, 180),
		makeImage(4, 100, 300, 200, 380),
		makeImage(12, 100, 500, 200, 580),
	}

	kept := FilterImages(images, page)

	if len(kept) != 3 {
		t.Fatalf("Expected 3 images, got %d", len(kept))
	}

	expected := []int{9, 4, 12}
	for i, want := range expected {
		if kept[i].Object != want {
			t.Errorf("Image %d: expected object %d, got %d", i, want, kept[i].Object)
		}
	}
}
