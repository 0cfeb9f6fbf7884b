package model

import (
	"math"
	"testing"
)

func rectsEqual(a, b Rect) bool {
	const eps = 1e-9
	return math.Abs(a.X0-b.X0) < eps &&
		math.Abs(a.Y0-b.Y0) < eps &&
		math.Abs(a.X1-b.X1) < eps &&
		math.Abs(a.Y1-b.Y1) < eps
}

func TestNewRect_NormalizesCorners(t *testing.T) {
	r := NewRect(100, 200, 50, 150)
	want := Rect{X0: 50, Y0: 150, X1: 100, Y1: 200}
	if !rectsEqual(r, want) {
		t.Errorf("Expected %v, got %v", want, r)
	}
}

func TestRect_Dimensions(t *testing.T) {
	r := NewRect(10, 20, 110, 70)
	if r.Width() != 100 {
		t.Errorf("Expected width 100, got %f", r.Width())
	}
	if r.Height() != 50 {
		t.Errorf("Expected height 50, got %f", r.Height())
	}
	if r.Area() != 5000 {
		t.Errorf("Expected area 5000, got %f", r.Area())
	}
}

func TestRect_UnionIntersection(t *testing.T) {
	a := NewRect(0, 0, 100, 100)
	b := NewRect(50, 50, 150, 150)

	u := a.Union(b)
	if !rectsEqual(u, NewRect(0, 0, 150, 150)) {
		t.Errorf("Union wrong: got %v", u)
	}

	i := a.Intersection(b)
	if !rectsEqual(i, NewRect(50, 50, 100, 100)) {
		t.Errorf("Intersection wrong: got %v", i)
	}

	c := NewRect(200, 200, 300, 300)
	if !a.Intersection(c).IsEmpty() {
		t.Error("Expected empty intersection for disjoint rects")
	}
}

func TestRect_OverlapRatio(t *testing.T) {
	a := NewRect(0, 0, 100, 100)
	b := NewRect(0, 0, 50, 100)
	if got := a.OverlapRatio(b); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Expected overlap ratio 0.5, got %f", got)
	}
	if got := (Rect{}).OverlapRatio(a); got != 0 {
		t.Errorf("Expected 0 for degenerate rect, got %f", got)
	}
}

func TestRect_InsetTranslate(t *testing.T) {
	r := NewRect(10, 10, 50, 50)

	in := r.Inset(3)
	if !rectsEqual(in, NewRect(13, 13, 47, 47)) {
		t.Errorf("Inset wrong: got %v", in)
	}

	tr := r.Translate(5, -5)
	if !rectsEqual(tr, NewRect(15, 5, 55, 45)) {
		t.Errorf("Translate wrong: got %v", tr)
	}
}

func TestSnapRect_ExpandsToGrid(t *testing.T) {
	page := NewRect(0, 0, 612, 792)

	tests := []struct {
		name string
		in   Rect
		grid float64
		want Rect
	}{
		{
			name: "interior rect expands outward",
			in:   NewRect(33, 41, 158, 97),
			grid: 20,
			want: NewRect(20, 40, 160, 100),
		},
		{
			name: "already aligned is unchanged",
			in:   NewRect(40, 60, 200, 120),
			grid: 20,
			want: NewRect(40, 60, 200, 120),
		},
		{
			name: "edges clamp to page",
			in:   NewRect(-15, -7, 620, 800),
			grid: 20,
			want: NewRect(0, 0, 612, 792),
		},
		{
			name: "rect outside page collapses to boundary",
			in:   NewRect(700, 100, 750, 200),
			grid: 20,
			want: Rect{X0: 612, Y0: 100, X1: 612, Y1: 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SnapRect(tt.in, page, tt.grid)
			if !rectsEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSnapRect_Idempotent(t *testing.T) {
	page := NewRect(0, 0, 600, 800)
	inputs := []Rect{
		NewRect(33, 41, 158, 97),
		NewRect(-50, 12, 700, 799),
		NewRect(0.1, 0.1, 0.2, 0.2),
		NewRect(650, 850, 700, 900),
	}

	for _, grid := range []float64{5, 20, 50} {
		for _, in := range inputs {
			once := SnapRect(in, page, grid)
			twice := SnapRect(once, page, grid)
			if !rectsEqual(once, twice) {
				t.Errorf("grid %v: snap not idempotent for %v: %v != %v", grid, in, once, twice)
			}
		}
	}
}

func TestSnapRect_AlwaysContained(t *testing.T) {
	page := NewRect(0, 0, 600, 800)
	inputs := []Rect{
		NewRect(-100, -100, -10, -10),
		NewRect(-100, 300, 900, 500),
		NewRect(599, 799, 601, 801),
		NewRect(250, 350, 251, 351),
	}

	for _, in := range inputs {
		got := SnapRect(in, page, 20)
		if !got.IsValid() {
			t.Errorf("result %v not valid for input %v", got, in)
		}
		if !page.ContainsRect(got) {
			t.Errorf("result %v escapes page for input %v", got, in)
		}
	}
}

func TestSnapRect_ZeroGridClampsOnly(t *testing.T) {
	page := NewRect(0, 0, 600, 800)
	in := NewRect(-10, 33, 610, 97)
	got := SnapRect(in, page, 0)
	want := NewRect(0, 33, 600, 97)
	if !rectsEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
