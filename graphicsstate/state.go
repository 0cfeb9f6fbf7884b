package graphicsstate

import (
	"fmt"
	"math"

	"github.com/tsawler/accessify/model"
)

// GraphicsState represents the PDF graphics state.
type GraphicsState struct {
	// Current Transformation Matrix
	CTM model.Matrix

	// Text state
	Text TextState

	// Graphics state stack (for q/Q operators)
	stack []*GraphicsState

	// Line attributes
	LineWidth float64

	// Color (RGB)
	StrokeColor [3]float64
	FillColor   [3]float64
}

// TextState represents text-specific state.
type TextState struct {
	// Font and size
	FontName string
	FontSize float64

	// Character and word spacing
	CharSpacing float64
	WordSpacing float64

	// Horizontal scaling (percentage)
	HorizontalScaling float64

	// Leading (line spacing)
	Leading float64

	// Text rendering mode
	RenderingMode int

	// Text rise
	Rise float64

	// Text matrices
	TextMatrix     model.Matrix
	TextLineMatrix model.Matrix
}

// NewGraphicsState creates a new graphics state with default values.
func NewGraphicsState() *GraphicsState {
	return &GraphicsState{
		CTM:         model.Identity(),
		LineWidth:   1.0,
		StrokeColor: [3]float64{0, 0, 0},
		FillColor:   [3]float64{0, 0, 0},
		Text: TextState{
			FontSize:          12.0,
			HorizontalScaling: 100.0,
			TextMatrix:        model.Identity(),
			TextLineMatrix:    model.Identity(),
		},
	}
}

// Clone creates a copy of the graphics state without the save stack.
func (gs *GraphicsState) Clone() *GraphicsState {
	return &GraphicsState{
		CTM:         gs.CTM,
		LineWidth:   gs.LineWidth,
		StrokeColor: gs.StrokeColor,
		FillColor:   gs.FillColor,
		Text:        gs.Text,
	}
}

// Save pushes the current graphics state onto the stack (q operator).
func (gs *GraphicsState) Save() {
	gs.stack = append(gs.stack, gs.Clone())
}

// Restore pops a graphics state from the stack (Q operator).
func (gs *GraphicsState) Restore() error {
	if len(gs.stack) == 0 {
		return fmt.Errorf("graphics state stack underflow")
	}

	saved := gs.stack[len(gs.stack)-1]
	gs.stack = gs.stack[:len(gs.stack)-1]

	gs.CTM = saved.CTM
	gs.LineWidth = saved.LineWidth
	gs.StrokeColor = saved.StrokeColor
	gs.FillColor = saved.FillColor
	gs.Text = saved.Text

	return nil
}

// Depth returns the current save stack depth.
func (gs *GraphicsState) Depth() int {
	return len(gs.stack)
}

// Transform concatenates a matrix onto the CTM (cm operator). The new
// matrix applies before the existing CTM, per the PDF composition rule.
func (gs *GraphicsState) Transform(m model.Matrix) {
	gs.CTM = m.Multiply(gs.CTM)
}

// SetLineWidth sets the line width (w operator).
func (gs *GraphicsState) SetLineWidth(width float64) {
	gs.LineWidth = width
}

// SetStrokeColorRGB sets the stroke color (RG operator).
func (gs *GraphicsState) SetStrokeColorRGB(r, g, b float64) {
	gs.StrokeColor = [3]float64{r, g, b}
}

// SetFillColorRGB sets the fill color (rg operator).
func (gs *GraphicsState) SetFillColorRGB(r, g, b float64) {
	gs.FillColor = [3]float64{r, g, b}
}

// SetFont sets the current font (Tf operator).
func (gs *GraphicsState) SetFont(name string, size float64) {
	gs.Text.FontName = name
	gs.Text.FontSize = size
}

// SetCharSpacing sets character spacing (Tc operator).
func (gs *GraphicsState) SetCharSpacing(spacing float64) {
	gs.Text.CharSpacing = spacing
}

// SetWordSpacing sets word spacing (Tw operator).
func (gs *GraphicsState) SetWordSpacing(spacing float64) {
	gs.Text.WordSpacing = spacing
}

// SetHorizontalScaling sets horizontal scaling (Tz operator).
func (gs *GraphicsState) SetHorizontalScaling(scale float64) {
	gs.Text.HorizontalScaling = scale
}

// SetLeading sets text leading (TL operator).
func (gs *GraphicsState) SetLeading(leading float64) {
	gs.Text.Leading = leading
}

// SetRenderingMode sets text rendering mode (Tr operator).
func (gs *GraphicsState) SetRenderingMode(mode int) {
	gs.Text.RenderingMode = mode
}

// SetTextRise sets text rise (Ts operator).
func (gs *GraphicsState) SetTextRise(rise float64) {
	gs.Text.Rise = rise
}

// BeginText resets the text matrices (BT operator).
func (gs *GraphicsState) BeginText() {
	gs.Text.TextMatrix = model.Identity()
	gs.Text.TextLineMatrix = model.Identity()
}

// EndText closes a text object (ET operator).
func (gs *GraphicsState) EndText() {
	// Text matrices are only meaningful inside BT/ET; nothing to undo.
}

// SetTextMatrix sets the text matrix and line matrix (Tm operator).
func (gs *GraphicsState) SetTextMatrix(m model.Matrix) {
	gs.Text.TextMatrix = m
	gs.Text.TextLineMatrix = m
}

// TranslateText starts a new line offset from the current one (Td operator).
// The translation composes onto the line matrix, so scaled or rotated text
// advances in its own coordinate system.
func (gs *GraphicsState) TranslateText(tx, ty float64) {
	gs.Text.TextLineMatrix = model.Translate(tx, ty).Multiply(gs.Text.TextLineMatrix)
	gs.Text.TextMatrix = gs.Text.TextLineMatrix
}

// TranslateTextSetLeading translates text and sets leading (TD operator).
func (gs *GraphicsState) TranslateTextSetLeading(tx, ty float64) {
	gs.SetLeading(-ty)
	gs.TranslateText(tx, ty)
}

// NextLine moves to the next line using the current leading (T* operator).
func (gs *GraphicsState) NextLine() {
	gs.TranslateText(0, -gs.Text.Leading)
}

// AdvanceText moves the text matrix by a displacement in unscaled text
// space. Glyph advances and TJ adjustments both come through here; the
// caller folds font size, spacing, and horizontal scaling into tx.
func (gs *GraphicsState) AdvanceText(tx, ty float64) {
	gs.Text.TextMatrix = model.Translate(tx, ty).Multiply(gs.Text.TextMatrix)
}

// TextRenderMatrix returns the matrix taking glyph space to device space:
// the font size parameters, then the text matrix, then the CTM.
func (gs *GraphicsState) TextRenderMatrix() model.Matrix {
	params := model.Matrix{
		gs.Text.FontSize * gs.Text.HorizontalScaling / 100.0, 0,
		0, gs.Text.FontSize,
		0, gs.Text.Rise,
	}
	return params.Multiply(gs.Text.TextMatrix).Multiply(gs.CTM)
}

// GetTextPosition returns the current text position in device space.
func (gs *GraphicsState) GetTextPosition() (x, y float64) {
	trm := gs.TextRenderMatrix()
	return trm[4], trm[5]
}

// GetTextMatrix returns the current text matrix.
func (gs *GraphicsState) GetTextMatrix() model.Matrix {
	return gs.Text.TextMatrix
}

// GetFontSize returns the nominal font size set by Tf.
func (gs *GraphicsState) GetFontSize() float64 {
	return gs.Text.FontSize
}

// GetEffectiveFontSize returns the font size in device space. The text
// matrix and CTM can scale text well away from the Tf operand; the length
// of the render matrix's vertical axis is the size that actually paints.
func (gs *GraphicsState) GetEffectiveFontSize() float64 {
	trm := gs.TextRenderMatrix()
	return math.Hypot(trm[2], trm[3])
}

// GetFontName returns the current font resource name.
func (gs *GraphicsState) GetFontName() string {
	return gs.Text.FontName
}
