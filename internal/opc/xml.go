package opc

import (
	"bufio"
	"encoding/xml"
	"io"
	"strings"
)

// OOXML transforms work on raw tokens: xml.Decoder.RawToken leaves
// namespace prefixes in the Space field instead of resolving them, and
// the writer here puts tokens back the way they came. encoding/xml's
// Encoder would rewrite every prefixed name into namespace declarations,
// which balloons the markup and loses the conventional w:/a:/p: shape
// OOXML tooling expects.

// RawName rejoins a name split by RawToken into its source form.
func RawName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"\n", "&#xA;",
		"\t", "&#x9;",
		"\r", "&#xD;",
	)
)

// TokenWriter serializes raw XML tokens back into markup.
type TokenWriter struct {
	w   *bufio.Writer
	err error
}

// NewTokenWriter creates a TokenWriter over w.
func NewTokenWriter(w io.Writer) *TokenWriter {
	return &TokenWriter{w: bufio.NewWriter(w)}
}

// WriteToken writes one token. A self-closing tag in the source arrives
// as a start/end pair and is written back as one; the two forms are
// equivalent.
func (tw *TokenWriter) WriteToken(tok xml.Token) error {
	switch t := tok.(type) {
	case xml.StartElement:
		tw.writeString("<")
		tw.writeString(RawName(t.Name))
		for _, attr := range t.Attr {
			tw.writeString(" ")
			tw.writeString(RawName(attr.Name))
			tw.writeString(`="`)
			tw.writeString(attrEscaper.Replace(attr.Value))
			tw.writeString(`"`)
		}
		tw.writeString(">")

	case xml.EndElement:
		tw.writeString("</")
		tw.writeString(RawName(t.Name))
		tw.writeString(">")

	case xml.CharData:
		s := string(t)
		if strings.TrimSpace(s) == "" {
			// Layout whitespace, including the run before the root
			// element, must pass through unescaped.
			tw.writeString(s)
		} else {
			tw.writeString(textEscaper.Replace(s))
		}

	case xml.Comment:
		tw.writeString("<!--")
		tw.writeString(string(t))
		tw.writeString("-->")

	case xml.ProcInst:
		tw.writeString("<?")
		tw.writeString(t.Target)
		tw.writeString(" ")
		tw.writeString(string(t.Inst))
		tw.writeString("?>")

	case xml.Directive:
		tw.writeString("<!")
		tw.writeString(string(t))
		tw.writeString(">")
	}
	return tw.err
}

// WriteRaw writes markup verbatim. Callers use it to inject elements the
// source never had.
func (tw *TokenWriter) WriteRaw(s string) error {
	tw.writeString(s)
	return tw.err
}

// Flush writes any buffered output.
func (tw *TokenWriter) Flush() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.w.Flush()
}

func (tw *TokenWriter) writeString(s string) {
	if tw.err != nil {
		return
	}
	_, tw.err = tw.w.WriteString(s)
}

// SkipSubtree consumes tokens through the end of the element whose start
// tag was just read, dropping the whole subtree.
func SkipSubtree(d *xml.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := d.RawToken()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}
