package graphicsstate

import (
	"math"
	"testing"

	"github.com/tsawler/accessify/model"
)

func TestNewGraphicsStateDefaults(t *testing.T) {
	gs := NewGraphicsState()

	if !gs.CTM.IsIdentity() {
		t.Error("Expected identity CTM")
	}
	if gs.LineWidth != 1.0 {
		t.Errorf("Expected line width 1.0, got %.1f", gs.LineWidth)
	}
	if gs.Text.FontSize != 12.0 {
		t.Errorf("Expected default font size 12, got %.1f", gs.Text.FontSize)
	}
	if gs.Text.HorizontalScaling != 100.0 {
		t.Errorf("Expected horizontal scaling 100, got %.1f", gs.Text.HorizontalScaling)
	}
	if gs.Depth() != 0 {
		t.Errorf("Expected empty stack, got depth %d", gs.Depth())
	}
}

func TestSaveRestore(t *testing.T) {
	gs := NewGraphicsState()
	gs.SetFont("F1", 10)
	gs.SetFillColorRGB(1, 0, 0)

	gs.Save()
	if gs.Depth() != 1 {
		t.Errorf("Expected depth 1 after save, got %d", gs.Depth())
	}

	gs.SetFont("F2", 24)
	gs.SetFillColorRGB(0, 1, 0)
	gs.Transform(model.Translate(50, 50))

	if err := gs.Restore(); err != nil {
		t.Fatalf("Expected restore to succeed, got %v", err)
	}

	if gs.Text.FontName != "F1" || gs.Text.FontSize != 10 {
		t.Errorf("Expected F1 at size 10 restored, got %s at %.1f", gs.Text.FontName, gs.Text.FontSize)
	}
	if gs.FillColor != [3]float64{1, 0, 0} {
		t.Errorf("Expected red fill restored, got %v", gs.FillColor)
	}
	if !gs.CTM.IsIdentity() {
		t.Error("Expected identity CTM restored")
	}
}

func TestRestoreUnderflow(t *testing.T) {
	gs := NewGraphicsState()
	if err := gs.Restore(); err == nil {
		t.Error("Expected error on restore with empty stack")
	}
}

func TestTransformComposition(t *testing.T) {
	gs := NewGraphicsState()
	gs.Transform(model.Translate(10, 0))
	gs.Transform(model.Scale(2, 2))

	// The later cm acts first on user coordinates: (1,1) scales to (2,2),
	// then translates to (12,2).
	p := gs.CTM.Transform(model.Point{X: 1, Y: 1})
	if p.X != 12 || p.Y != 2 {
		t.Errorf("Expected (12, 2), got (%.1f, %.1f)", p.X, p.Y)
	}
}

func TestTranslateTextUnderScaling(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()
	gs.SetTextMatrix(model.Scale(2, 2))
	gs.TranslateText(5, 0)

	// The Td offset is in text space, so the 2x matrix doubles it.
	x, y := gs.GetTextPosition()
	if x != 10 || y != 0 {
		t.Errorf("Expected position (10, 0), got (%.1f, %.1f)", x, y)
	}
}

func TestNextLineUsesLeading(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()
	gs.TranslateTextSetLeading(0, -14)

	if gs.Text.Leading != 14 {
		t.Errorf("Expected leading 14 from TD, got %.1f", gs.Text.Leading)
	}

	gs.NextLine()
	_, y := gs.GetTextPosition()
	if y != -28 {
		t.Errorf("Expected y -28 after TD and T*, got %.1f", y)
	}
}

func TestAdvanceText(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()
	gs.AdvanceText(7, 0)

	x, _ := gs.GetTextPosition()
	if x != 7 {
		t.Errorf("Expected x 7 after advance, got %.1f", x)
	}

	// Advances scale with the text matrix.
	gs.SetTextMatrix(model.Scale(2, 2))
	gs.AdvanceText(5, 0)
	x, _ = gs.GetTextPosition()
	if x != 10 {
		t.Errorf("Expected x 10 under 2x matrix, got %.1f", x)
	}
}

func TestTextRenderMatrix(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()
	gs.SetFont("F1", 10)
	gs.SetHorizontalScaling(50)

	trm := gs.TextRenderMatrix()
	if trm[0] != 5 {
		t.Errorf("Expected horizontal scale 5, got %.1f", trm[0])
	}
	if trm[3] != 10 {
		t.Errorf("Expected vertical scale 10, got %.1f", trm[3])
	}
}

func TestGetEffectiveFontSize(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()
	gs.SetFont("F1", 10)

	if got := gs.GetEffectiveFontSize(); got != 10 {
		t.Errorf("Expected effective size 10, got %.1f", got)
	}

	// A scaling text matrix multiplies the painted size.
	gs.SetTextMatrix(model.Scale(2, 2))
	if got := gs.GetEffectiveFontSize(); got != 20 {
		t.Errorf("Expected effective size 20, got %.1f", got)
	}

	// So does the CTM.
	gs.Transform(model.Scale(3, 3))
	if got := gs.GetEffectiveFontSize(); math.Abs(got-60) > 1e-9 {
		t.Errorf("Expected effective size 60, got %.1f", got)
	}
}

func TestTextRise(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()
	gs.SetTextRise(3)

	_, y := gs.GetTextPosition()
	if y != 3 {
		t.Errorf("Expected rise to lift position to 3, got %.1f", y)
	}
}

func TestTextPositionThroughCTM(t *testing.T) {
	gs := NewGraphicsState()
	gs.Transform(model.Translate(100, 200))
	gs.BeginText()
	gs.TranslateText(10, 20)

	x, y := gs.GetTextPosition()
	if x != 110 || y != 220 {
		t.Errorf("Expected (110, 220), got (%.1f, %.1f)", x, y)
	}
}

func TestBeginTextResetsMatrices(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()
	gs.TranslateText(40, 40)
	gs.EndText()
	gs.BeginText()

	x, y := gs.GetTextPosition()
	if x != 0 || y != 0 {
		t.Errorf("Expected position reset to origin, got (%.1f, %.1f)", x, y)
	}
}
