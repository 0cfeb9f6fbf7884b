// Package graphicsstate tracks the PDF graphics state machine while a
// content stream is interpreted.
//
// A [GraphicsState] mirrors the state the PDF imaging model defines: the
// current transformation matrix, the q/Q save stack, and the text state with
// its two matrices. Content stream walkers feed operators into it and read
// positions back out in device space.
//
// # Usage
//
//	gs := graphicsstate.NewGraphicsState()
//	gs.Save()
//	gs.Transform(model.Translate(72, 72))
//	gs.BeginText()
//	gs.SetFont("F1", 12)
//	gs.TranslateText(0, 700)
//	x, y := gs.GetTextPosition()
//
// Text positions account for the text matrix, the font size parameters, and
// the CTM, so callers get final device coordinates without composing
// matrices themselves.
package graphicsstate
