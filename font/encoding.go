package font

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Encoding maps single-byte character codes to Unicode.
//
// Simple fonts address at most 256 glyphs, so an Encoding is a complete
// description of how their strings decode. Composite fonts go through CMaps
// instead.
type Encoding interface {
	// Name returns the PDF name of the encoding, e.g. "WinAnsiEncoding".
	Name() string

	// Decode maps a single character code to a rune.
	Decode(b byte) rune

	// DecodeString decodes a whole string of character codes.
	DecodeString(data []byte) string
}

// Predefined simple-font encodings from the PDF specification, Annex D.
var (
	WinAnsiEncoding  Encoding = &charmapEncoding{name: "WinAnsiEncoding", m: charmap.Windows1252}
	MacRomanEncoding Encoding = &charmapEncoding{name: "MacRomanEncoding", m: charmap.Macintosh}

	PDFDocEncoding        Encoding = &tableEncoding{name: "PDFDocEncoding", table: pdfDocOverrides}
	StandardEncodingTable Encoding = &tableEncoding{name: "StandardEncoding", table: standardOverrides}
)

// GetEncoding returns the predefined encoding with the given name. Both the
// full form ("WinAnsiEncoding") and the short form ("WinAnsi") are accepted.
// Unknown names fall back to WinAnsiEncoding, the most common choice in
// practice.
func GetEncoding(name string) Encoding {
	switch strings.TrimSuffix(name, "Encoding") {
	case "MacRoman":
		return MacRomanEncoding
	case "PDFDoc":
		return PDFDocEncoding
	case "Standard":
		return StandardEncodingTable
	default:
		return WinAnsiEncoding
	}
}

// DecodeWithEncoding decodes data using the named predefined encoding and
// normalizes the result.
func DecodeWithEncoding(data []byte, encodingName string) string {
	return NormalizeUnicode(GetEncoding(encodingName).DecodeString(data))
}

// NormalizeUnicode returns s in Unicode Normalization Form C. Decoded PDF
// text may mix precomposed and combining forms; downstream comparison and
// output expect one canonical form.
func NormalizeUnicode(s string) string {
	return norm.NFC.String(s)
}

// IsValidUTF8 reports whether s is well-formed UTF-8.
func IsValidUTF8(s string) bool {
	return utf8.ValidString(s)
}

// charmapEncoding adapts an x/text character map to the Encoding interface.
// WinAnsi is Windows code page 1252 and MacRoman is Mac OS Roman, so the
// standard tables serve directly.
type charmapEncoding struct {
	name string
	m    *charmap.Charmap
}

func (e *charmapEncoding) Name() string { return e.name }

func (e *charmapEncoding) Decode(b byte) rune {
	return e.m.DecodeByte(b)
}

func (e *charmapEncoding) DecodeString(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		sb.WriteRune(e.m.DecodeByte(b))
	}
	return sb.String()
}

// tableEncoding is an encoding defined by a sparse override table. Codes
// absent from the table decode as themselves, which covers the ASCII and
// Latin-1 ranges both PDFDocEncoding and StandardEncoding build on.
type tableEncoding struct {
	name  string
	table map[byte]rune
}

func (e *tableEncoding) Name() string { return e.name }

func (e *tableEncoding) Decode(b byte) rune {
	if r, ok := e.table[b]; ok {
		return r
	}
	return rune(b)
}

func (e *tableEncoding) DecodeString(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		sb.WriteRune(e.Decode(b))
	}
	return sb.String()
}

// customEncoding overlays per-code differences on a base encoding. It backs
// the /Differences entry of font encoding dictionaries.
type customEncoding struct {
	base Encoding
	diff map[byte]rune
}

// NewCustomEncoding returns an encoding that behaves like base except for the
// codes remapped in differences.
func NewCustomEncoding(base Encoding, differences map[byte]rune) Encoding {
	if base == nil {
		base = WinAnsiEncoding
	}
	return &customEncoding{base: base, diff: differences}
}

// NewCustomEncodingFromGlyphs builds a custom encoding from glyph names, the
// form /Differences arrays use. Names that cannot be resolved to a rune keep
// the base encoding's mapping for their code.
func NewCustomEncodingFromGlyphs(base Encoding, differences map[byte]string) Encoding {
	diff := make(map[byte]rune, len(differences))
	for code, glyph := range differences {
		if r, ok := RuneForGlyphName(glyph); ok {
			diff[code] = r
		}
	}
	return NewCustomEncoding(base, diff)
}

func (e *customEncoding) Name() string { return e.base.Name() + "+custom" }

func (e *customEncoding) Decode(b byte) rune {
	if r, ok := e.diff[b]; ok {
		return r
	}
	return e.base.Decode(b)
}

func (e *customEncoding) DecodeString(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		sb.WriteRune(e.Decode(b))
	}
	return sb.String()
}

// RuneForGlyphName resolves an Adobe glyph name to a rune. Beyond the named
// table, the algorithmic forms "uniXXXX" and "uXXXX[XX]" are understood.
func RuneForGlyphName(name string) (rune, bool) {
	if r, ok := glyphNameToUnicode[name]; ok {
		return r, true
	}
	if strings.HasPrefix(name, "uni") && len(name) == 7 {
		if v, err := strconv.ParseUint(name[3:], 16, 32); err == nil {
			return rune(v), true
		}
	}
	if strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7 {
		if v, err := strconv.ParseUint(name[1:], 16, 32); err == nil && v <= 0x10FFFF {
			return rune(v), true
		}
	}
	return 0, false
}

// DecodeUTF16BE decodes big-endian UTF-16 bytes, pairing surrogates. A
// trailing odd byte is dropped.
func DecodeUTF16BE(data []byte) string {
	return decodeUTF16(data, false)
}

// DecodeUTF16LE decodes little-endian UTF-16 bytes.
func DecodeUTF16LE(data []byte) string {
	return decodeUTF16(data, true)
}

func decodeUTF16(data []byte, littleEndian bool) string {
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		if littleEndian {
			units = append(units, uint16(data[i])|uint16(data[i+1])<<8)
		} else {
			units = append(units, uint16(data[i])<<8|uint16(data[i+1]))
		}
	}
	return string(utf16.Decode(units))
}

// pdfDocOverrides holds the PDFDocEncoding codes that differ from Latin-1.
// The 0x18-0x1F block carries accents and 0x80-0xA0 carries punctuation,
// ligatures, and the Euro sign.
var pdfDocOverrides = map[byte]rune{
	0x18: '˘', // breve
	0x19: 'ˇ', // caron
	0x1A: 'ˆ', // circumflex
	0x1B: '˙', // dotaccent
	0x1C: '˝', // hungarumlaut
	0x1D: '˛', // ogonek
	0x1E: '˚', // ring
	0x1F: '˜', // tilde
	0x80: '•', // bullet
	0x81: '†', // dagger
	0x82: '‡', // daggerdbl
	0x83: '…', // ellipsis
	0x84: '—', // emdash
	0x85: '–', // endash
	0x86: 'ƒ', // florin
	0x87: '⁄', // fraction
	0x88: '‹', // guilsinglleft
	0x89: '›', // guilsinglright
	0x8A: '−', // minus
	0x8B: '‰', // perthousand
	0x8C: '„', // quotedblbase
	0x8D: '“', // quotedblleft
	0x8E: '”', // quotedblright
	0x8F: '‘', // quoteleft
	0x90: '’', // quoteright
	0x91: '‚', // quotesinglbase
	0x92: '™', // trademark
	0x93: 'ﬁ', // fi
	0x94: 'ﬂ', // fl
	0x95: 'Ł', // Lslash
	0x96: 'Œ', // OE
	0x97: 'Š', // Scaron
	0x98: 'Ÿ', // Ydieresis
	0x99: 'Ž', // Zcaron
	0x9A: 'ı', // dotlessi
	0x9B: 'ł', // lslash
	0x9C: 'œ', // oe
	0x9D: 'š', // scaron
	0x9E: 'ž', // zcaron
	0xA0: '€', // Euro
}

// standardOverrides holds the Adobe StandardEncoding codes that differ from
// an identity mapping. The upper half is sparse; unassigned codes decode as
// themselves.
var standardOverrides = map[byte]rune{
	0x27: '’', // quoteright
	0x60: '‘', // quoteleft
	0xA1: '¡', // exclamdown
	0xA2: '¢', // cent
	0xA3: '£', // sterling
	0xA4: '⁄', // fraction
	0xA5: '¥', // yen
	0xA6: 'ƒ', // florin
	0xA7: '§', // section
	0xA8: '¤', // currency
	0xA9: '\'', // quotesingle
	0xAA: '“', // quotedblleft
	0xAB: '«', // guillemotleft
	0xAC: '‹', // guilsinglleft
	0xAD: '›', // guilsinglright
	0xAE: 'ﬁ', // fi
	0xAF: 'ﬂ', // fl
	0xB1: '–', // endash
	0xB2: '†', // dagger
	0xB3: '‡', // daggerdbl
	0xB4: '·', // periodcentered
	0xB6: '¶', // paragraph
	0xB7: '•', // bullet
	0xB8: '‚', // quotesinglbase
	0xB9: '„', // quotedblbase
	0xBA: '”', // quotedblright
	0xBB: '»', // guillemotright
	0xBC: '…', // ellipsis
	0xBD: '‰', // perthousand
	0xBF: '¿', // questiondown
	0xC1: '`', // grave
	0xC2: '´', // acute
	0xC3: 'ˆ', // circumflex
	0xC4: '˜', // tilde
	0xC5: '¯', // macron
	0xC6: '˘', // breve
	0xC7: '˙', // dotaccent
	0xC8: '¨', // dieresis
	0xCA: '˚', // ring
	0xCB: '¸', // cedilla
	0xCD: '˝', // hungarumlaut
	0xCE: '˛', // ogonek
	0xCF: 'ˇ', // caron
	0xD0: '—', // emdash
	0xE1: 'Æ', // AE
	0xE3: 'ª', // ordfeminine
	0xE8: 'Ł', // Lslash
	0xE9: 'Ø', // Oslash
	0xEA: 'Œ', // OE
	0xEB: 'º', // ordmasculine
	0xF1: 'æ', // ae
	0xF5: 'ı', // dotlessi
	0xF8: 'ł', // lslash
	0xF9: 'ø', // oslash
	0xFA: 'œ', // oe
	0xFB: 'ß', // germandbls
}

// glyphNameToUnicode maps Adobe glyph names to runes. This is the subset of
// the Adobe Glyph List that shows up in real /Differences arrays; codes with
// names outside it resolve through the uniXXXX form or keep their base
// mapping.
var glyphNameToUnicode = map[string]rune{
	"space":          ' ',
	"exclam":         '!',
	"quotedbl":       '"',
	"numbersign":     '#',
	"dollar":         '$',
	"percent":        '%',
	"ampersand":      '&',
	"quotesingle":    '\'',
	"parenleft":      '(',
	"parenright":     ')',
	"asterisk":       '*',
	"plus":           '+',
	"comma":          ',',
	"hyphen":         '-',
	"period":         '.',
	"slash":          '/',
	"zero":           '0',
	"one":            '1',
	"two":            '2',
	"three":          '3',
	"four":           '4',
	"five":           '5',
	"six":            '6',
	"seven":          '7',
	"eight":          '8',
	"nine":           '9',
	"colon":          ':',
	"semicolon":      ';',
	"less":           '<',
	"equal":          '=',
	"greater":        '>',
	"question":       '?',
	"at":             '@',
	"A":              'A',
	"B":              'B',
	"C":              'C',
	"D":              'D',
	"E":              'E',
	"F":              'F',
	"G":              'G',
	"H":              'H',
	"I":              'I',
	"J":              'J',
	"K":              'K',
	"L":              'L',
	"M":              'M',
	"N":              'N',
	"O":              'O',
	"P":              'P',
	"Q":              'Q',
	"R":              'R',
	"S":              'S',
	"T":              'T',
	"U":              'U',
	"V":              'V',
	"W":              'W',
	"X":              'X',
	"Y":              'Y',
	"Z":              'Z',
	"bracketleft":    '[',
	"backslash":      '\\',
	"bracketright":   ']',
	"asciicircum":    '^',
	"underscore":     '_',
	"grave":          '`',
	"a":              'a',
	"b":              'b',
	"c":              'c',
	"d":              'd',
	"e":              'e',
	"f":              'f',
	"g":              'g',
	"h":              'h',
	"i":              'i',
	"j":              'j',
	"k":              'k',
	"l":              'l',
	"m":              'm',
	"n":              'n',
	"o":              'o',
	"p":              'p',
	"q":              'q',
	"r":              'r',
	"s":              's',
	"t":              't',
	"u":              'u',
	"v":              'v',
	"w":              'w',
	"x":              'x',
	"y":              'y',
	"z":              'z',
	"braceleft":      '{',
	"bar":            '|',
	"braceright":     '}',
	"asciitilde":     '~',
	"exclamdown":     '¡',
	"cent":           '¢',
	"sterling":       '£',
	"currency":       '¤',
	"yen":            '¥',
	"brokenbar":      '¦',
	"section":        '§',
	"dieresis":       '¨',
	"copyright":      '©',
	"ordfeminine":    'ª',
	"guillemotleft":  '«',
	"logicalnot":     '¬',
	"registered":     '®',
	"macron":         '¯',
	"degree":         '°',
	"plusminus":      '±',
	"acute":          '´',
	"mu":             'µ',
	"paragraph":      '¶',
	"periodcentered": '·',
	"cedilla":        '¸',
	"ordmasculine":   'º',
	"guillemotright": '»',
	"onequarter":     '¼',
	"onehalf":        '½',
	"threequarters":  '¾',
	"questiondown":   '¿',
	"Agrave":         'À',
	"Aacute":         'Á',
	"Acircumflex":    'Â',
	"Atilde":         'Ã',
	"Adieresis":      'Ä',
	"Aring":          'Å',
	"AE":             'Æ',
	"Ccedilla":       'Ç',
	"Egrave":         'È',
	"Eacute":         'É',
	"Ecircumflex":    'Ê',
	"Edieresis":      'Ë',
	"Igrave":         'Ì',
	"Iacute":         'Í',
	"Icircumflex":    'Î',
	"Idieresis":      'Ï',
	"Eth":            'Ð',
	"Ntilde":         'Ñ',
	"Ograve":         'Ò',
	"Oacute":         'Ó',
	"Ocircumflex":    'Ô',
	"Otilde":         'Õ',
	"Odieresis":      'Ö',
	"multiply":       '×',
	"Oslash":         'Ø',
	"Ugrave":         'Ù',
	"Uacute":         'Ú',
	"Ucircumflex":    'Û',
	"Udieresis":      'Ü',
	"Yacute":         'Ý',
	"Thorn":          'Þ',
	"germandbls":     'ß',
	"agrave":         'à',
	"aacute":         'á',
	"acircumflex":    'â',
	"atilde":         'ã',
	"adieresis":      'ä',
	"aring":          'å',
	"ae":             'æ',
	"ccedilla":       'ç',
	"egrave":         'è',
	"eacute":         'é',
	"ecircumflex":    'ê',
	"edieresis":      'ë',
	"igrave":         'ì',
	"iacute":         'í',
	"icircumflex":    'î',
	"idieresis":      'ï',
	"eth":            'ð',
	"ntilde":         'ñ',
	"ograve":         'ò',
	"oacute":         'ó',
	"ocircumflex":    'ô',
	"otilde":         'õ',
	"odieresis":      'ö',
	"divide":         '÷',
	"oslash":         'ø',
	"ugrave":         'ù',
	"uacute":         'ú',
	"ucircumflex":    'û',
	"udieresis":      'ü',
	"yacute":         'ý',
	"thorn":          'þ',
	"ydieresis":      'ÿ',
	"dotlessi":       'ı',
	"Lslash":         'Ł',
	"lslash":         'ł',
	"OE":             'Œ',
	"oe":             'œ',
	"Scaron":         'Š',
	"scaron":         'š',
	"Ydieresis":      'Ÿ',
	"Zcaron":         'Ž',
	"zcaron":         'ž',
	"florin":         'ƒ',
	"circumflex":     'ˆ',
	"caron":          'ˇ',
	"breve":          '˘',
	"dotaccent":      '˙',
	"ring":           '˚',
	"ogonek":         '˛',
	"tilde":          '˜',
	"hungarumlaut":   '˝',
	"endash":         '–',
	"emdash":         '—',
	"quoteleft":      '‘',
	"quoteright":     '’',
	"quotesinglbase": '‚',
	"quotedblleft":   '“',
	"quotedblright":  '”',
	"quotedblbase":   '„',
	"dagger":         '†',
	"daggerdbl":      '‡',
	"bullet":         '•',
	"ellipsis":       '…',
	"perthousand":    '‰',
	"guilsinglleft":  '‹',
	"guilsinglright": '›',
	"fraction":       '⁄',
	"Euro":           '€',
	"trademark":      '™',
	"minus":          '−',
	"fi":             'ﬁ',
	"fl":             'ﬂ',
}
