package extract

import (
	"fmt"

	"github.com/tsawler/accessify/contentstream"
	"github.com/tsawler/accessify/core"
	"github.com/tsawler/accessify/font"
	"github.com/tsawler/accessify/graphicsstate"
	"github.com/tsawler/accessify/model"
)

// maxFormDepth bounds form XObject recursion. Real documents nest a handful
// of levels; a cycle between forms must not hang extraction.
const maxFormDepth = 8

// Extractor walks content stream operations and collects positioned text
// spans and image placements for one page.
type Extractor struct {
	gs      *graphicsstate.GraphicsState
	fonts   map[string]*font.Font
	resolve font.Resolver
	page    model.PageGeometry

	resources core.Dict
	xobjects  core.Dict
	formDepth int

	spans    []model.TextSpan
	images   []model.ImageRef
	warnings []string
}

// NewExtractor creates an extractor for a page with the given geometry.
// The resolver dereferences font and XObject objects on demand; it may be
// nil when all resources are direct objects.
func NewExtractor(page model.PageGeometry, resolve font.Resolver) *Extractor {
	return &Extractor{
		gs:      graphicsstate.NewGraphicsState(),
		fonts:   make(map[string]*font.Font),
		resolve: resolve,
		page:    page,
	}
}

// RegisterFont registers a font by name with default metrics.
func (e *Extractor) RegisterFont(name, baseFont, subtype string) {
	e.fonts[name] = font.NewFont(name, baseFont, subtype)
}

// RegisterParsedFont registers a pre-parsed font, keeping its ToUnicode
// CMap and width tables.
func (e *Extractor) RegisterParsedFont(name string, f *font.Font) {
	e.fonts[name] = f
}

// LoadResources prepares the extractor with a page's resource dictionary:
// every font in /Font is parsed and registered, and /XObject is kept for
// Do operator lookups. Fonts that fail to parse are replaced with default
// metrics and reported as warnings.
func (e *Extractor) LoadResources(resources core.Dict) {
	e.resources = resources
	if resources == nil {
		return
	}

	if xobjs, ok := e.deref(resources.Get("XObject")).(core.Dict); ok {
		e.xobjects = xobjs
	}

	fonts, ok := e.deref(resources.Get("Font")).(core.Dict)
	if !ok {
		return
	}
	for name, obj := range fonts {
		fontDict, ok := e.deref(obj).(core.Dict)
		if !ok {
			e.warnf("font %s: resource is not a dictionary", name)
			continue
		}
		f, err := font.ParseFont(name, fontDict, e.resolve)
		if err != nil {
			e.warnf("font %s: %v; using default metrics", name, err)
			e.RegisterFont(name, "Helvetica", "Type1")
			continue
		}
		e.RegisterParsedFont(name, f)
	}
}

// Spans returns the text spans collected so far, in content order.
func (e *Extractor) Spans() []model.TextSpan {
	return e.spans
}

// Images returns the image placements collected so far, in content order.
func (e *Extractor) Images() []model.ImageRef {
	return e.images
}

// Warnings returns the problems extraction worked around.
func (e *Extractor) Warnings() []string {
	return e.warnings
}

// ExtractFromBytes parses raw content stream data and processes it.
func (e *Extractor) ExtractFromBytes(data []byte) error {
	ops, err := contentstream.NewParser(data).Parse()
	if err != nil {
		return fmt.Errorf("parse content stream: %w", err)
	}
	return e.Extract(ops)
}

// Extract processes a sequence of content stream operations.
func (e *Extractor) Extract(operations []contentstream.Operation) error {
	for i, op := range operations {
		if err := e.processOperation(op); err != nil {
			return fmt.Errorf("operation %d (%s): %w", i, op.Operator, err)
		}
	}
	return nil
}

func (e *Extractor) processOperation(op contentstream.Operation) error {
	switch op.Operator {
	// Graphics state
	case "q":
		e.gs.Save()
	case "Q":
		if err := e.gs.Restore(); err != nil {
			// Unbalanced Q operators show up in real files; keep going
			// from the base state rather than failing the page.
			e.warnf("content stream: %v", err)
		}
	case "cm":
		if len(op.Operands) == 6 {
			e.gs.Transform(operandsToMatrix(op.Operands))
		}
	case "w":
		if v, ok := operandFloat(op.Operands, 0, 1); ok {
			e.gs.SetLineWidth(v)
		}
	case "RG":
		if len(op.Operands) == 3 {
			r, _ := toFloat(op.Operands[0])
			g, _ := toFloat(op.Operands[1])
			b, _ := toFloat(op.Operands[2])
			e.gs.SetStrokeColorRGB(r, g, b)
		}
	case "rg":
		if len(op.Operands) == 3 {
			r, _ := toFloat(op.Operands[0])
			g, _ := toFloat(op.Operands[1])
			b, _ := toFloat(op.Operands[2])
			e.gs.SetFillColorRGB(r, g, b)
		}
	case "G":
		if v, ok := operandFloat(op.Operands, 0, 1); ok {
			e.gs.SetStrokeColorRGB(v, v, v)
		}
	case "g":
		if v, ok := operandFloat(op.Operands, 0, 1); ok {
			e.gs.SetFillColorRGB(v, v, v)
		}

	// Text state
	case "BT":
		e.gs.BeginText()
	case "ET":
		e.gs.EndText()
	case "Tf":
		if len(op.Operands) == 2 {
			if name, ok := op.Operands[0].(core.Name); ok {
				if size, ok := toFloat(op.Operands[1]); ok {
					e.gs.SetFont(string(name), size)
				}
			}
		}
	case "Tc":
		if v, ok := operandFloat(op.Operands, 0, 1); ok {
			e.gs.SetCharSpacing(v)
		}
	case "Tw":
		if v, ok := operandFloat(op.Operands, 0, 1); ok {
			e.gs.SetWordSpacing(v)
		}
	case "Tz":
		if v, ok := operandFloat(op.Operands, 0, 1); ok {
			e.gs.SetHorizontalScaling(v)
		}
	case "TL":
		if v, ok := operandFloat(op.Operands, 0, 1); ok {
			e.gs.SetLeading(v)
		}
	case "Tr":
		if len(op.Operands) == 1 {
			if v, ok := toFloat(op.Operands[0]); ok {
				e.gs.SetRenderingMode(int(v))
			}
		}
	case "Ts":
		if v, ok := operandFloat(op.Operands, 0, 1); ok {
			e.gs.SetTextRise(v)
		}

	// Text positioning
	case "Tm":
		if len(op.Operands) == 6 {
			e.gs.SetTextMatrix(operandsToMatrix(op.Operands))
		}
	case "Td":
		if len(op.Operands) == 2 {
			tx, _ := toFloat(op.Operands[0])
			ty, _ := toFloat(op.Operands[1])
			e.gs.TranslateText(tx, ty)
		}
	case "TD":
		if len(op.Operands) == 2 {
			tx, _ := toFloat(op.Operands[0])
			ty, _ := toFloat(op.Operands[1])
			e.gs.TranslateTextSetLeading(tx, ty)
		}
	case "T*":
		e.gs.NextLine()

	// Text showing
	case "Tj":
		if len(op.Operands) == 1 {
			if str, ok := op.Operands[0].(core.String); ok {
				e.showText([]byte(str))
			}
		}
	case "TJ":
		if len(op.Operands) == 1 {
			if arr, ok := op.Operands[0].(core.Array); ok {
				e.showTextArray(arr)
			}
		}
	case "'":
		e.gs.NextLine()
		if len(op.Operands) == 1 {
			if str, ok := op.Operands[0].(core.String); ok {
				e.showText([]byte(str))
			}
		}
	case "\"":
		if len(op.Operands) == 3 {
			if ws, ok := toFloat(op.Operands[0]); ok {
				e.gs.SetWordSpacing(ws)
			}
			if cs, ok := toFloat(op.Operands[1]); ok {
				e.gs.SetCharSpacing(cs)
			}
			e.gs.NextLine()
			if str, ok := op.Operands[2].(core.String); ok {
				e.showText([]byte(str))
			}
		}

	// XObjects
	case "Do":
		if len(op.Operands) == 1 {
			if name, ok := op.Operands[0].(core.Name); ok {
				return e.doXObject(string(name))
			}
		}
	}

	return nil
}

// showText records one text span and advances the text matrix glyph by
// glyph.
func (e *Extractor) showText(data []byte) {
	f := e.currentFont()
	glyphs := f.Glyphs(data)
	if len(glyphs) == 0 {
		return
	}

	start := e.gs.TextRenderMatrix()
	size := e.gs.GetEffectiveFontSize()
	ts := e.gs.Text

	for _, g := range glyphs {
		adv := g.Width/1000.0*ts.FontSize + ts.CharSpacing
		if g.Code == 32 && !f.Composite {
			adv += ts.WordSpacing
		}
		adv *= ts.HorizontalScaling / 100.0
		if f.Vertical {
			e.gs.AdvanceText(0, -adv)
		} else {
			e.gs.AdvanceText(adv, 0)
		}
	}
	end := e.gs.TextRenderMatrix()

	// The span quad runs from the start baseline to the end baseline, one
	// em up along the render matrix's vertical axis. Taking the bounding
	// box of its corners handles rotated and vertical text alike.
	upX, upY := start[2], start[3]
	bbox := boundsOfPoints(
		model.Point{X: start[4], Y: start[5]},
		model.Point{X: end[4], Y: end[5]},
		model.Point{X: start[4] + upX, Y: start[5] + upY},
		model.Point{X: end[4] + upX, Y: end[5] + upY},
	)

	e.spans = append(e.spans, model.TextSpan{
		Text:     f.DecodeString(data),
		Origin:   e.toPageSpace(model.Point{X: start[4], Y: start[5]}),
		BBox:     e.flipRect(bbox),
		FontSize: size,
		FontName: f.Name,
	})
}

// showTextArray handles the TJ operator: strings show text, numbers adjust
// the position in thousandths of text space.
func (e *Extractor) showTextArray(arr core.Array) {
	for _, item := range arr {
		if str, ok := item.(core.String); ok {
			e.showText([]byte(str))
			continue
		}
		if n, ok := toFloat(item); ok {
			ts := e.gs.Text
			adj := -n / 1000.0 * ts.FontSize * ts.HorizontalScaling / 100.0
			if f := e.currentFont(); f.Vertical {
				e.gs.AdvanceText(0, -adj)
			} else {
				e.gs.AdvanceText(adj, 0)
			}
		}
	}
}

// doXObject dispatches a Do operator: image XObjects become placements,
// form XObjects are executed inline.
func (e *Extractor) doXObject(name string) error {
	if e.xobjects == nil {
		return nil
	}
	obj := e.xobjects.Get(name)
	if obj == nil {
		return nil
	}

	objNum := 0
	if ref, ok := obj.(core.IndirectRef); ok {
		objNum = ref.Number
	}

	stream, ok := e.deref(obj).(*core.Stream)
	if !ok {
		// The placement stays in the list unresolved so callers can see
		// that something was here; filtering drops it later.
		e.images = append(e.images, model.ImageRef{Object: 0, BBox: e.placementRect()})
		return nil
	}

	subtype, _ := stream.Dict.GetName("Subtype")
	switch string(subtype) {
	case "Image":
		e.images = append(e.images, model.ImageRef{Object: objNum, BBox: e.placementRect()})
		return nil
	case "Form":
		return e.runForm(stream)
	default:
		return nil
	}
}

// placementRect maps the XObject unit square through the CTM into page
// coordinates.
func (e *Extractor) placementRect() model.Rect {
	ctm := e.gs.CTM
	bounds := boundsOfPoints(
		ctm.Transform(model.Point{X: 0, Y: 0}),
		ctm.Transform(model.Point{X: 1, Y: 0}),
		ctm.Transform(model.Point{X: 0, Y: 1}),
		ctm.Transform(model.Point{X: 1, Y: 1}),
	)
	return e.flipRect(bounds)
}

// runForm executes a form XObject's content stream with the form's matrix
// and resources in effect.
func (e *Extractor) runForm(stream *core.Stream) error {
	if e.formDepth >= maxFormDepth {
		e.warnf("form XObject nesting deeper than %d; skipping", maxFormDepth)
		return nil
	}

	data, err := stream.Decode()
	if err != nil {
		e.warnf("form XObject: %v; skipping", err)
		return nil
	}
	ops, err := contentstream.NewParser(data).Parse()
	if err != nil {
		e.warnf("form XObject: %v; skipping", err)
		return nil
	}

	savedResources, savedXObjects := e.resources, e.xobjects
	savedFonts := e.fonts

	e.gs.Save()
	if m, ok := e.deref(stream.Dict.Get("Matrix")).(core.Array); ok && len(m) == 6 {
		e.gs.Transform(arrayToMatrix(m))
	}
	if res, ok := e.deref(stream.Dict.Get("Resources")).(core.Dict); ok {
		// The form brings its own resources; fonts parsed for the page
		// stay registered since names may refer through to them.
		e.fonts = make(map[string]*font.Font)
		for k, v := range savedFonts {
			e.fonts[k] = v
		}
		e.LoadResources(res)
	}

	e.formDepth++
	err = e.Extract(ops)
	e.formDepth--

	e.resources, e.xobjects = savedResources, savedXObjects
	e.fonts = savedFonts
	if rerr := e.gs.Restore(); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

// currentFont returns the font selected by the last Tf, registering default
// metrics for names that never appeared in the resources.
func (e *Extractor) currentFont() *font.Font {
	name := e.gs.GetFontName()
	if f, ok := e.fonts[name]; ok {
		return f
	}
	if name == "" {
		name = "F0"
	} else {
		e.warnf("font %s not in resources; using default metrics", name)
	}
	f := font.NewFont(name, "Helvetica", "Type1")
	e.fonts[name] = f
	return f
}

// toPageSpace converts a PDF-space point to page coordinates with the
// origin at the top-left.
func (e *Extractor) toPageSpace(p model.Point) model.Point {
	return model.Point{X: p.X, Y: e.page.Height() - p.Y}
}

// flipRect converts a PDF-space rectangle to page coordinates.
func (e *Extractor) flipRect(r model.Rect) model.Rect {
	return model.Rect{
		X0: r.X0,
		Y0: e.page.Height() - r.Y1,
		X1: r.X1,
		Y1: e.page.Height() - r.Y0,
	}
}

func (e *Extractor) deref(obj core.Object) core.Object {
	ref, ok := obj.(core.IndirectRef)
	if !ok || e.resolve == nil {
		return obj
	}
	resolved, err := e.resolve(ref)
	if err != nil {
		return nil
	}
	return resolved
}

func (e *Extractor) warnf(format string, args ...interface{}) {
	e.warnings = append(e.warnings, fmt.Sprintf(format, args...))
}

// boundsOfPoints returns the axis-aligned box covering the given points.
func boundsOfPoints(pts ...model.Point) model.Rect {
	r := model.Rect{X0: pts[0].X, Y0: pts[0].Y, X1: pts[0].X, Y1: pts[0].Y}
	for _, p := range pts[1:] {
		if p.X < r.X0 {
			r.X0 = p.X
		}
		if p.X > r.X1 {
			r.X1 = p.X
		}
		if p.Y < r.Y0 {
			r.Y0 = p.Y
		}
		if p.Y > r.Y1 {
			r.Y1 = p.Y
		}
	}
	return r
}

func toFloat(obj core.Object) (float64, bool) {
	switch v := obj.(type) {
	case core.Int:
		return float64(v), true
	case core.Real:
		return float64(v), true
	default:
		return 0, false
	}
}

func operandFloat(operands []core.Object, index, want int) (float64, bool) {
	if len(operands) != want {
		return 0, false
	}
	return toFloat(operands[index])
}

func operandsToMatrix(operands []core.Object) model.Matrix {
	var m model.Matrix
	for i := 0; i < 6 && i < len(operands); i++ {
		m[i], _ = toFloat(operands[i])
	}
	return m
}

func arrayToMatrix(arr core.Array) model.Matrix {
	var m model.Matrix
	for i := 0; i < 6 && i < len(arr); i++ {
		m[i], _ = toFloat(arr[i])
	}
	return m
}
