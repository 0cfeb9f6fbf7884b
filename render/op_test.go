package render

import (
	"math"
	"testing"

	"github.com/tsawler/accessify/model"
)

func rectsEqual(a, b model.Rect) bool {
	const eps = 1e-9
	return math.Abs(a.X0-b.X0) < eps &&
		math.Abs(a.Y0-b.Y0) < eps &&
		math.Abs(a.X1-b.X1) < eps &&
		math.Abs(a.Y1-b.Y1) < eps
}

func TestFitRect(t *testing.T) {
	tests := []struct {
		name   string
		w, h   float64
		bounds model.Rect
		want   model.Rect
	}{
		{
			name:   "exact fit fills bounds",
			w:      100,
			h:      50,
			bounds: model.NewRect(0, 0, 100, 50),
			want:   model.NewRect(0, 0, 100, 50),
		},
		{
			name:   "wide source centers vertically",
			w:      200,
			h:      100,
			bounds: model.NewRect(0, 0, 100, 200),
			want:   model.NewRect(0, 75, 100, 125),
		},
		{
			name:   "tall source centers horizontally",
			w:      100,
			h:      200,
			bounds: model.NewRect(10, 10, 210, 110),
			want:   model.NewRect(85, 10, 135, 110),
		},
		{
			name:   "small source scales up",
			w:      10,
			h:      10,
			bounds: model.NewRect(0, 0, 40, 20),
			want:   model.NewRect(10, 0, 30, 20),
		},
		{
			name:   "zero width source returns bounds",
			w:      0,
			h:      100,
			bounds: model.NewRect(20, 20, 120, 120),
			want:   model.NewRect(20, 20, 120, 120),
		},
		{
			name:   "empty bounds come back unchanged",
			w:      100,
			h:      100,
			bounds: model.Rect{X0: 50, Y0: 50, X1: 50, Y1: 80},
			want:   model.Rect{X0: 50, Y0: 50, X1: 50, Y1: 80},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitRect(tt.w, tt.h, tt.bounds)
			if !rectsEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFitRectStaysInsideBounds(t *testing.T) {
	bounds := model.NewRect(100, 200, 340, 380)
	sources := []struct{ w, h float64 }{
		{640, 480},
		{480, 640},
		{3, 1000},
		{1000, 3},
		{1, 1},
	}

	for _, src := range sources {
		got := FitRect(src.w, src.h, bounds)
		if !bounds.ContainsRect(got) {
			t.Errorf("fit of %vx%v escapes bounds: %v", src.w, src.h, got)
		}
		wantRatio := src.w / src.h
		gotRatio := got.Width() / got.Height()
		if math.Abs(wantRatio-gotRatio) > 1e-9 {
			t.Errorf("fit of %vx%v distorts aspect: want ratio %f, got %f", src.w, src.h, wantRatio, gotRatio)
		}
	}
}
