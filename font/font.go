package font

import (
	"fmt"

	"github.com/tsawler/accessify/core"
)

// Resolver dereferences an indirect object while a font dictionary is being
// parsed. Font dictionaries routinely push /Widths, /ToUnicode, and the
// descendant font behind references.
type Resolver func(core.IndirectRef) (core.Object, error)

// Font carries the metrics and decoding state for one font resource. Simple
// fonts (Type1, TrueType, Type3) and composite Type0 fonts share the type;
// Composite selects between one and two byte character codes.
type Font struct {
	Name     string
	BaseFont string
	Subtype  string
	Encoding string

	Composite bool
	Vertical  bool

	// ToUnicodeCMap holds the embedded ToUnicode mapping when the font has
	// one. It takes priority over the encoding during decoding.
	ToUnicodeCMap *CMap

	enc          Encoding
	widths       map[rune]float64
	codeWidths   map[uint32]float64
	cidRanges    []widthRange
	defaultWidth float64
}

// widthRange is one /W array entry: either an explicit width list starting
// at StartCID, or a flat width across [StartCID, EndCID].
type widthRange struct {
	startCID uint32
	endCID   uint32
	widths   []float64
	width    float64
}

// Glyph is one character code of a show string with its decoded text and
// its width in thousandths of text space.
type Glyph struct {
	Code  uint32
	Text  string
	Width float64
}

// NewFont creates a font with default metrics. Standard 14 fonts get their
// built-in width tables; anything else falls back to Helvetica metrics.
func NewFont(name, baseFont, subtype string) *Font {
	f := &Font{
		Name:         name,
		BaseFont:     baseFont,
		Subtype:      subtype,
		Encoding:     "WinAnsiEncoding",
		widths:       make(map[rune]float64),
		defaultWidth: 500.0,
	}

	if table, ok := standardFonts[StripSubsetTag(baseFont)]; ok {
		for r, w := range table {
			f.widths[r] = w
		}
	} else {
		f.setDefaultWidths()
	}
	return f
}

// setDefaultWidths fills the width table with Helvetica metrics for
// printable ASCII.
func (f *Font) setDefaultWidths() {
	for r := rune(32); r <= 126; r++ {
		if w, ok := helveticaWidths[r]; ok {
			f.widths[r] = w
		} else {
			f.widths[r] = 500.0
		}
	}
}

// ParseFont builds a Font from a /Font resource dictionary. name is the
// resource key the content stream selects the font by, e.g. "F1".
//
// Unparseable optional entries degrade quietly: a broken ToUnicode stream or
// width array leaves the font on its default metrics. A Type0 font without a
// usable descendant is an error because its codes cannot be interpreted at
// all.
func ParseFont(name string, fontDict core.Dict, resolve Resolver) (*Font, error) {
	baseFont := nameValue(deref(fontDict.Get("BaseFont"), resolve))
	subtype := nameValue(deref(fontDict.Get("Subtype"), resolve))

	f := NewFont(name, baseFont, subtype)

	if stream := derefStream(fontDict.Get("ToUnicode"), resolve); stream != nil {
		if cm, err := ParseToUnicodeCMap(stream); err == nil && cm.Size() > 0 {
			f.ToUnicodeCMap = cm
		}
	}

	if subtype == "Type0" {
		if err := f.parseComposite(fontDict, resolve); err != nil {
			return nil, err
		}
		return f, nil
	}

	f.parseSimpleEncoding(fontDict, resolve)
	f.parseSimpleWidths(fontDict, resolve)
	return f, nil
}

// parseSimpleEncoding resolves the /Encoding entry: either a predefined
// encoding name or a dictionary with a base encoding and a /Differences
// array of glyph names.
func (f *Font) parseSimpleEncoding(fontDict core.Dict, resolve Resolver) {
	obj := deref(fontDict.Get("Encoding"), resolve)
	if obj == nil {
		f.enc = GetEncoding(f.Encoding)
		return
	}

	switch enc := obj.(type) {
	case core.Name:
		f.Encoding = string(enc)
		f.enc = GetEncoding(f.Encoding)
	case core.Dict:
		if base, ok := deref(enc.Get("BaseEncoding"), resolve).(core.Name); ok {
			f.Encoding = string(base)
		}
		baseEnc := GetEncoding(f.Encoding)
		if diffs, ok := deref(enc.Get("Differences"), resolve).(core.Array); ok {
			f.enc = NewCustomEncodingFromGlyphs(baseEnc, parseDifferences(diffs))
		} else {
			f.enc = baseEnc
		}
	default:
		f.enc = GetEncoding(f.Encoding)
	}
}

// parseDifferences walks a /Differences array into a code to glyph name map.
// The array alternates starting codes with runs of glyph names.
func parseDifferences(diffs core.Array) map[byte]string {
	out := make(map[byte]string)
	code := 0
	for _, item := range diffs {
		switch v := item.(type) {
		case core.Int:
			code = int(v)
		case core.Real:
			code = int(v)
		case core.Name:
			if code >= 0 && code <= 255 {
				out[byte(code)] = string(v)
			}
			code++
		}
	}
	return out
}

// parseSimpleWidths loads the /FirstChar and /Widths entries. Widths are
// kept per code for advance calculation and mirrored per rune so width
// queries by character work too.
func (f *Font) parseSimpleWidths(fontDict core.Dict, resolve Resolver) {
	firstChar := 0
	if i, ok := deref(fontDict.Get("FirstChar"), resolve).(core.Int); ok {
		firstChar = int(i)
	}

	widthsArr, ok := deref(fontDict.Get("Widths"), resolve).(core.Array)
	if !ok {
		f.loadMissingWidth(fontDict, resolve)
		return
	}

	f.codeWidths = make(map[uint32]float64, len(widthsArr))
	for i, obj := range widthsArr {
		w, ok := core.Number(deref(obj, resolve))
		if !ok {
			continue
		}
		code := firstChar + i
		if code < 0 || code > 255 {
			continue
		}
		f.codeWidths[uint32(code)] = w
		if f.enc != nil && w > 0 {
			f.widths[f.enc.Decode(byte(code))] = w
		}
	}
	f.loadMissingWidth(fontDict, resolve)
}

// loadMissingWidth picks up /MissingWidth from the font descriptor as the
// fallback advance for unlisted codes.
func (f *Font) loadMissingWidth(fontDict core.Dict, resolve Resolver) {
	fd, ok := deref(fontDict.Get("FontDescriptor"), resolve).(core.Dict)
	if !ok {
		return
	}
	if w, ok := core.Number(deref(fd.Get("MissingWidth"), resolve)); ok {
		f.defaultWidth = w
	}
}

// parseComposite handles Type0 fonts: the writing mode from the /Encoding
// name and the CID widths from the descendant font's /W and /DW entries.
// Identity mapping from code to CID is assumed, which holds for the
// Identity-H and Identity-V encodings that dominate in practice.
func (f *Font) parseComposite(fontDict core.Dict, resolve Resolver) error {
	f.Composite = true
	f.defaultWidth = 1000.0

	if name, ok := deref(fontDict.Get("Encoding"), resolve).(core.Name); ok {
		f.Encoding = string(name)
		f.Vertical = f.Encoding == "Identity-V"
	}

	descArr, ok := deref(fontDict.Get("DescendantFonts"), resolve).(core.Array)
	if !ok || len(descArr) == 0 {
		return fmt.Errorf("font %s: Type0 font without DescendantFonts", f.Name)
	}
	desc, ok := deref(descArr[0], resolve).(core.Dict)
	if !ok {
		return fmt.Errorf("font %s: descendant font is not a dictionary", f.Name)
	}

	if dw, ok := core.Number(deref(desc.Get("DW"), resolve)); ok {
		f.defaultWidth = dw
	}
	f.parseCIDWidths(desc, resolve)
	return nil
}

// parseCIDWidths walks a /W array. Entries come in two shapes: a start CID
// followed by an explicit width array, or a start CID, end CID, and flat
// width. Ranges stay unexpanded; a single entry can legally span the whole
// CID space.
func (f *Font) parseCIDWidths(desc core.Dict, resolve Resolver) {
	wArr, ok := deref(desc.Get("W"), resolve).(core.Array)
	if !ok {
		return
	}

	for i := 0; i < len(wArr); {
		start, ok := core.Number(deref(wArr[i], resolve))
		if !ok {
			return
		}
		i++
		if i >= len(wArr) {
			return
		}

		if list, ok := deref(wArr[i], resolve).(core.Array); ok {
			widths := make([]float64, 0, len(list))
			for _, obj := range list {
				if w, ok := core.Number(obj); ok {
					widths = append(widths, w)
				}
			}
			f.cidRanges = append(f.cidRanges, widthRange{
				startCID: uint32(start),
				endCID:   uint32(start) + uint32(len(widths)) - 1,
				widths:   widths,
			})
			i++
			continue
		}

		end, ok := core.Number(deref(wArr[i], resolve))
		if !ok {
			return
		}
		i++
		if i >= len(wArr) {
			return
		}
		w, _ := core.Number(deref(wArr[i], resolve))
		i++
		f.cidRanges = append(f.cidRanges, widthRange{
			startCID: uint32(start),
			endCID:   uint32(end),
			width:    w,
		})
	}
}

// codeLen returns the byte length of one character code in show strings.
func (f *Font) codeLen() int {
	if !f.Composite {
		return 1
	}
	if f.ToUnicodeCMap != nil {
		if n := f.ToUnicodeCMap.CodeBytes(); n > 0 {
			return n
		}
	}
	return 2
}

// widthForCode returns the glyph width for a character code in thousandths
// of text space.
func (f *Font) widthForCode(code uint32) float64 {
	if f.Composite {
		for _, r := range f.cidRanges {
			if code < r.startCID || code > r.endCID {
				continue
			}
			if r.widths != nil {
				return r.widths[code-r.startCID]
			}
			return r.width
		}
		return f.defaultWidth
	}

	if w, ok := f.codeWidths[code]; ok {
		return w
	}
	if f.enc != nil && code <= 255 {
		if w, ok := f.widths[f.enc.Decode(byte(code))]; ok {
			return w
		}
	}
	if w, ok := f.widths[rune(code)]; ok {
		return w
	}
	return f.defaultWidth
}

// Glyphs splits a raw show string into character codes with their decoded
// text and widths. This is the walk the layout pipeline uses to advance the
// text position code by code.
func (f *Font) Glyphs(data []byte) []Glyph {
	codeLen := f.codeLen()
	glyphs := make([]Glyph, 0, len(data)/codeLen)

	i := 0
	for i+codeLen <= len(data) {
		code := codeFromBytes(data[i : i+codeLen])
		glyphs = append(glyphs, f.glyphFor(code))
		i += codeLen
	}
	// A truncated trailing code decodes byte by byte rather than being
	// dropped, so its advance still counts.
	for ; i < len(data); i++ {
		glyphs = append(glyphs, f.glyphFor(uint32(data[i])))
	}
	return glyphs
}

func (f *Font) glyphFor(code uint32) Glyph {
	g := Glyph{Code: code, Width: f.widthForCode(code)}
	switch {
	case f.ToUnicodeCMap != nil:
		g.Text = f.ToUnicodeCMap.Lookup(code)
	case !f.Composite && f.enc != nil:
		g.Text = string(f.enc.Decode(byte(code)))
	case code < 0x110000:
		g.Text = string(rune(code))
	}
	return g
}

// DecodeString converts a raw show string to Unicode text.
//
// Priority follows the PDF text extraction rules: the ToUnicode CMap wins
// when present, then a UTF-16 byte order mark, then the font's encoding.
// The result is always NFC normalized.
func (f *Font) DecodeString(data []byte) string {
	if f.ToUnicodeCMap != nil {
		return NormalizeUnicode(f.ToUnicodeCMap.DecodeString(data, f.codeLen()))
	}
	if len(data) >= 2 {
		if data[0] == 0xFE && data[1] == 0xFF {
			return NormalizeUnicode(DecodeUTF16BE(data[2:]))
		}
		if data[0] == 0xFF && data[1] == 0xFE {
			return NormalizeUnicode(DecodeUTF16LE(data[2:]))
		}
	}
	if f.enc != nil {
		return NormalizeUnicode(f.enc.DecodeString(data))
	}
	return DecodeWithEncoding(data, f.Encoding)
}

// GetWidth returns the width of a character in font units (thousandths of
// text space), defaulting to 500 for unknown characters.
func (f *Font) GetWidth(r rune) float64 {
	if w, ok := f.widths[r]; ok {
		return w
	}
	return 500.0
}

// GetStringWidth returns the total width of a string in font units.
func (f *Font) GetStringWidth(s string) float64 {
	var total float64
	for _, r := range s {
		total += f.GetWidth(r)
	}
	return total
}

// IsStandardFont reports whether the base font is one of the standard 14
// fonts every PDF consumer provides.
func (f *Font) IsStandardFont() bool {
	_, ok := standardFonts[StripSubsetTag(f.BaseFont)]
	return ok
}

// StripSubsetTag removes a subset prefix like "ABCDEF+" from a base font
// name. Subset tags are six uppercase letters followed by a plus sign.
func StripSubsetTag(baseFont string) string {
	if len(baseFont) > 7 && baseFont[6] == '+' {
		for i := 0; i < 6; i++ {
			if baseFont[i] < 'A' || baseFont[i] > 'Z' {
				return baseFont
			}
		}
		return baseFont[7:]
	}
	return baseFont
}

// deref resolves obj through the resolver when it is an indirect reference.
func deref(obj core.Object, resolve Resolver) core.Object {
	ref, ok := obj.(core.IndirectRef)
	if !ok || resolve == nil {
		return obj
	}
	resolved, err := resolve(ref)
	if err != nil {
		return nil
	}
	return resolved
}

// derefStream resolves obj and returns it as a stream, or nil.
func derefStream(obj core.Object, resolve Resolver) *core.Stream {
	if s, ok := deref(obj, resolve).(*core.Stream); ok {
		return s
	}
	return nil
}

// nameValue extracts the text of a name or string object.
func nameValue(obj core.Object) string {
	switch v := obj.(type) {
	case core.Name:
		return string(v)
	case core.String:
		return string(v)
	default:
		return ""
	}
}

// Standard 14 font names and their width tables.
var standardFonts = map[string]map[rune]float64{
	"Helvetica":             helveticaWidths,
	"Helvetica-Bold":        helveticaBoldWidths,
	"Helvetica-Oblique":     helveticaWidths,
	"Helvetica-BoldOblique": helveticaBoldWidths,
	"Times-Roman":           timesWidths,
	"Times-Bold":            timesBoldWidths,
	"Times-Italic":          timesWidths,
	"Times-BoldItalic":      timesBoldWidths,
	"Courier":               courierWidths,
	"Courier-Bold":          courierWidths,
	"Courier-Oblique":       courierWidths,
	"Courier-BoldOblique":   courierWidths,
	"Symbol":                symbolWidths,
	"ZapfDingbats":          zapfDingbatsWidths,
}

// Helvetica widths (in 1000ths of em) for the printable ASCII range.
var helveticaWidths = map[rune]float64{
	' ':  278,
	'!':  278,
	'"':  355,
	'#':  556,
	'$':  556,
	'%':  889,
	'&':  667,
	'\'': 191,
	'(':  333,
	')':  333,
	'*':  389,
	'+':  584,
	',':  278,
	'-':  333,
	'.':  278,
	'/':  278,
	'0':  556,
	'1':  556,
	'2':  556,
	'3':  556,
	'4':  556,
	'5':  556,
	'6':  556,
	'7':  556,
	'8':  556,
	'9':  556,
	':':  278,
	';':  278,
	'<':  584,
	'=':  584,
	'>':  584,
	'?':  556,
	'@':  1015,
	'A':  667,
	'B':  667,
	'C':  722,
	'D':  722,
	'E':  667,
	'F':  611,
	'G':  778,
	'H':  722,
	'I':  278,
	'J':  500,
	'K':  667,
	'L':  556,
	'M':  833,
	'N':  722,
	'O':  778,
	'P':  667,
	'Q':  778,
	'R':  722,
	'S':  667,
	'T':  611,
	'U':  722,
	'V':  667,
	'W':  944,
	'X':  667,
	'Y':  667,
	'Z':  611,
	'[':  278,
	'\\': 278,
	']':  278,
	'^':  469,
	'_':  556,
	'`':  333,
	'a':  556,
	'b':  556,
	'c':  500,
	'd':  556,
	'e':  556,
	'f':  278,
	'g':  556,
	'h':  556,
	'i':  222,
	'j':  222,
	'k':  500,
	'l':  222,
	'm':  833,
	'n':  556,
	'o':  556,
	'p':  556,
	'q':  556,
	'r':  333,
	's':  500,
	't':  278,
	'u':  556,
	'v':  500,
	'w':  722,
	'x':  500,
	'y':  500,
	'z':  500,
	'{':  334,
	'|':  260,
	'}':  334,
	'~':  584,
}

// Helvetica-Bold widths for letters and space.
var helveticaBoldWidths = map[rune]float64{
	' ': 278,
	'A': 722,
	'B': 722,
	'C': 722,
	'D': 722,
	'E': 667,
	'F': 611,
	'G': 778,
	'H': 722,
	'I': 278,
	'J': 556,
	'K': 722,
	'L': 611,
	'M': 833,
	'N': 722,
	'O': 778,
	'P': 667,
	'Q': 778,
	'R': 722,
	'S': 667,
	'T': 611,
	'U': 722,
	'V': 667,
	'W': 944,
	'X': 667,
	'Y': 667,
	'Z': 611,
	'a': 556,
	'b': 611,
	'c': 556,
	'd': 611,
	'e': 556,
	'f': 333,
	'g': 611,
	'h': 611,
	'i': 278,
	'j': 278,
	'k': 556,
	'l': 278,
	'm': 889,
	'n': 611,
	'o': 611,
	'p': 611,
	'q': 611,
	'r': 389,
	's': 556,
	't': 333,
	'u': 611,
	'v': 556,
	'w': 778,
	'x': 556,
	'y': 556,
	'z': 500,
}

// Times-Roman widths for letters and space.
var timesWidths = map[rune]float64{
	' ': 250,
	'A': 722,
	'B': 667,
	'C': 667,
	'D': 722,
	'E': 611,
	'F': 556,
	'G': 722,
	'H': 722,
	'I': 333,
	'J': 389,
	'K': 722,
	'L': 611,
	'M': 889,
	'N': 722,
	'O': 722,
	'P': 556,
	'Q': 722,
	'R': 667,
	'S': 556,
	'T': 611,
	'U': 722,
	'V': 722,
	'W': 944,
	'X': 722,
	'Y': 722,
	'Z': 611,
	'a': 444,
	'b': 500,
	'c': 444,
	'd': 500,
	'e': 444,
	'f': 333,
	'g': 500,
	'h': 500,
	'i': 278,
	'j': 278,
	'k': 500,
	'l': 278,
	'm': 778,
	'n': 500,
	'o': 500,
	'p': 500,
	'q': 500,
	'r': 333,
	's': 389,
	't': 278,
	'u': 500,
	'v': 500,
	'w': 722,
	'x': 500,
	'y': 500,
	'z': 444,
}

// Times-Bold widths for letters and space.
var timesBoldWidths = map[rune]float64{
	' ': 250,
	'A': 722,
	'B': 667,
	'C': 722,
	'D': 722,
	'E': 667,
	'F': 611,
	'G': 778,
	'H': 778,
	'I': 389,
	'J': 500,
	'K': 778,
	'L': 667,
	'M': 944,
	'N': 722,
	'O': 778,
	'P': 611,
	'Q': 778,
	'R': 722,
	'S': 556,
	'T': 667,
	'U': 722,
	'V': 722,
	'W': 1000,
	'X': 722,
	'Y': 722,
	'Z': 667,
	'a': 500,
	'b': 556,
	'c': 444,
	'd': 556,
	'e': 444,
	'f': 333,
	'g': 500,
	'h': 556,
	'i': 278,
	'j': 333,
	'k': 556,
	'l': 278,
	'm': 833,
	'n': 556,
	'o': 500,
	'p': 556,
	'q': 556,
	'r': 444,
	's': 389,
	't': 333,
	'u': 556,
	'v': 500,
	'w': 722,
	'x': 500,
	'y': 500,
	'z': 444,
}

// Courier widths. Monospaced, filled in by init.
var courierWidths = map[rune]float64{}

// Symbol widths.
var symbolWidths = map[rune]float64{}

// ZapfDingbats widths.
var zapfDingbatsWidths = map[rune]float64{}

func init() {
	// Courier is monospaced.
	for r := rune(32); r <= 126; r++ {
		courierWidths[r] = 600
	}

	// Symbol and ZapfDingbats carry no useful per-character metrics here.
	for r := rune(32); r <= 126; r++ {
		symbolWidths[r] = 500
		zapfDingbatsWidths[r] = 500
	}
}
