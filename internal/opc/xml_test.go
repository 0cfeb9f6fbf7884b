package opc

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"
)

// roundTrip parses src with RawToken and writes every token back out.
func roundTrip(t *testing.T, src string) string {
	t.Helper()

	var sb strings.Builder
	dec := xml.NewDecoder(strings.NewReader(src))
	tw := NewTokenWriter(&sb)
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("parsing %q: %v", src, err)
		}
		if err := tw.WriteToken(tok); err != nil {
			t.Fatalf("writing token: %v", err)
		}
	}
	if err := tw.Flush(); err != nil {
		t.Fatalf("flushing: %v", err)
	}
	return sb.String()
}

func TestTokenWriterPreservesPrefixes(t *testing.T) {
	src := `<w:document xmlns:w="http://example.com/word"><w:body><w:p><w:r><w:t xml:space="preserve">Hello</w:t></w:r></w:p></w:body></w:document>`
	got := roundTrip(t, src)

	for _, want := range []string{
		`<w:document xmlns:w="http://example.com/word">`,
		`<w:t xml:space="preserve">Hello</w:t>`,
		`</w:document>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got %q", want, got)
		}
	}
}

func TestTokenWriterExpandsSelfClosingTags(t *testing.T) {
	got := roundTrip(t, `<w:rPr><w:b/><w:color w:val="FF0000"/></w:rPr>`)
	want := `<w:rPr><w:b></w:b><w:color w:val="FF0000"></w:color></w:rPr>`
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestTokenWriterKeepsDeclarationAndComments(t *testing.T) {
	src := "<?xml version=\"1.0\" encoding=\"UTF-8\" standalone=\"yes\"?>\r\n<doc><!-- note --></doc>"
	got := roundTrip(t, src)
	if got != src {
		t.Errorf("Expected %q, got %q", src, got)
	}
}

func TestTokenWriterEscapesText(t *testing.T) {
	got := roundTrip(t, `<t>a &amp; b &lt; c</t>`)
	want := `<t>a &amp; b &lt; c</t>`
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestTokenWriterEscapesAttributes(t *testing.T) {
	got := roundTrip(t, `<t v="a&quot;b &amp; c"/>`)
	for _, want := range []string{`&quot;`, `&amp;`} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got %q", want, got)
		}
	}
}

func TestTokenWriterPassesLayoutWhitespace(t *testing.T) {
	src := "<a>\n  <b></b>\n</a>"
	got := roundTrip(t, src)
	if got != src {
		t.Errorf("Expected %q, got %q", src, got)
	}
}

func TestWriteRaw(t *testing.T) {
	var sb strings.Builder
	tw := NewTokenWriter(&sb)
	if err := tw.WriteRaw(`<w:color w:val="000000"/>`); err != nil {
		t.Fatalf("WriteRaw returned error: %v", err)
	}
	if err := tw.Flush(); err != nil {
		t.Fatalf("flushing: %v", err)
	}
	if got := sb.String(); got != `<w:color w:val="000000"/>` {
		t.Errorf("Expected raw markup unchanged, got %q", got)
	}
}

func TestRawName(t *testing.T) {
	tests := []struct {
		name string
		in   xml.Name
		want string
	}{
		{"prefixed", xml.Name{Space: "w", Local: "rPr"}, "w:rPr"},
		{"bare", xml.Name{Local: "Types"}, "Types"},
		{"xmlns attr", xml.Name{Space: "xmlns", Local: "w"}, "xmlns:w"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RawName(tt.in); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSkipSubtree(t *testing.T) {
	src := `<root><drop a="1"><nested><deep/></nested>text</drop><keep/></root>`
	dec := xml.NewDecoder(strings.NewReader(src))

	// Consume <root>, then the <drop> open tag.
	for i := 0; i < 2; i++ {
		if _, err := dec.RawToken(); err != nil {
			t.Fatalf("priming decoder: %v", err)
		}
	}
	if err := SkipSubtree(dec); err != nil {
		t.Fatalf("SkipSubtree returned error: %v", err)
	}

	tok, err := dec.RawToken()
	if err != nil {
		t.Fatalf("reading after skip: %v", err)
	}
	start, ok := tok.(xml.StartElement)
	if !ok || start.Name.Local != "keep" {
		t.Errorf("Expected <keep> after skip, got %#v", tok)
	}
}

func TestSkipSubtreeUnterminated(t *testing.T) {
	src := `<drop><nested>`
	dec := xml.NewDecoder(strings.NewReader(src))
	if _, err := dec.RawToken(); err != nil {
		t.Fatalf("priming decoder: %v", err)
	}
	if err := SkipSubtree(dec); err == nil {
		t.Error("Expected error for unterminated subtree")
	}
}
