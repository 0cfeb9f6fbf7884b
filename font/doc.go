// Package font resolves PDF font dictionaries into the metrics and text
// decoding the layout pipeline needs.
//
// A [Font] is built from a page's /Font resource dictionary and answers two
// questions about every string a content stream shows: what Unicode text it
// carries, and how wide it paints.
//
// # Font Creation
//
// Fonts are created from PDF font dictionaries:
//
//	fnt, err := font.ParseFont("F1", fontDict, resolver)
//
// Simple fonts (Type1, TrueType, Type3) and composite Type0 fonts are handled
// by the same constructor; the Subtype entry selects the parse path.
//
// # Text Decoding
//
// Decoding follows the order the PDF format prescribes:
//
//   - an embedded ToUnicode CMap, when present
//   - UTF-16 with a byte order mark
//   - the font's character encoding (base encoding plus /Differences)
//
// All decoded text is normalized to NFC:
//
//	text := fnt.DecodeString(rawBytes)
//
// # Character Widths
//
// Glyph widths come from the /Widths or /W arrays when present and fall back
// to built-in metrics for the standard 14 fonts:
//
//	glyphs := fnt.Glyphs(rawBytes)     // per-code width walk
//	width := fnt.GetStringWidth(text)  // width in font units
//
// # Encodings
//
// The package implements the predefined simple-font encodings
// (WinAnsiEncoding, MacRomanEncoding, PDFDocEncoding, StandardEncoding) and
// custom encodings built from /Differences glyph names.
package font
