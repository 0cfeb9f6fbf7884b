package font

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/tsawler/accessify/core"
)

// makeCMapStream wraps a CMap program in an uncompressed stream object.
func makeCMapStream(body string) *core.Stream {
	return &core.Stream{
		Dict: core.Dict{"Length": core.Int(len(body))},
		Data: []byte(body),
	}
}

const sampleCMap = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
2 beginbfchar
<0003> <0041>
<0004> <00660069>
endbfchar
2 beginbfrange
<0010> <0019> <0030>
<0020> <0022> [<0058> <0059> <005A>]
endbfrange
endcmap
CMapName currentdict /CMap defineresource pop
end
end`

func TestParseToUnicodeCMap(t *testing.T) {
	cm, err := ParseToUnicodeCMap(makeCMapStream(sampleCMap))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cm.CodeBytes() != 2 {
		t.Errorf("Expected 2-byte codes, got %d", cm.CodeBytes())
	}

	if got := cm.Lookup(0x0003); got != "A" {
		t.Errorf("Expected bfchar mapping A, got %q", got)
	}
	if got := cm.Lookup(0x0004); got != "fi" {
		t.Errorf("Expected two-character target fi, got %q", got)
	}
}

func TestCMapRangeLookup(t *testing.T) {
	cm, err := ParseToUnicodeCMap(makeCMapStream(sampleCMap))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// <0010> <0019> maps to the digits starting at U+0030.
	for i := uint32(0); i <= 9; i++ {
		want := string(rune('0' + i))
		if got := cm.Lookup(0x0010 + i); got != want {
			t.Errorf("Expected %q for code %#04x, got %q", want, 0x0010+i, got)
		}
	}

	// Array-form bfrange lists each target individually.
	wants := []string{"X", "Y", "Z"}
	for i, want := range wants {
		if got := cm.Lookup(0x0020 + uint32(i)); got != want {
			t.Errorf("Expected %q for code %#04x, got %q", want, 0x0020+i, got)
		}
	}
}

func TestCMapLookupFallback(t *testing.T) {
	cm, err := ParseToUnicodeCMap(makeCMapStream(sampleCMap))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Unmapped codes fall back to their own code point.
	if got := cm.Lookup(0x0042); got != "B" {
		t.Errorf("Expected fallback B, got %q", got)
	}
	if cm.HasMapping(0x0042) {
		t.Error("Expected no explicit mapping for 0x0042")
	}
	if !cm.HasMapping(0x0003) {
		t.Error("Expected explicit mapping for 0x0003")
	}
	if !cm.HasMapping(0x0015) {
		t.Error("Expected range mapping for 0x0015")
	}

	// Out of Unicode range yields nothing.
	if got := cm.Lookup(0x110000); got != "" {
		t.Errorf("Expected empty string beyond Unicode range, got %q", got)
	}
}

func TestCMapDecodeString(t *testing.T) {
	cm, err := ParseToUnicodeCMap(makeCMapStream(sampleCMap))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := cm.DecodeString([]byte{0x00, 0x03, 0x00, 0x10, 0x00, 0x20}, 2)
	if got != "A0X" {
		t.Errorf("Expected A0X, got %q", got)
	}

	// A trailing partial code decodes byte by byte.
	got = cm.DecodeString([]byte{0x00, 0x03, 0x41}, 2)
	if got != "AA" {
		t.Errorf("Expected AA, got %q", got)
	}
}

func TestCMapMultiRuneRange(t *testing.T) {
	body := `1 begincodespacerange
<00> <FF>
endcodespacerange
1 beginbfrange
<30> <32> <00660069>
endbfrange`

	cm, err := ParseToUnicodeCMap(makeCMapStream(body))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cm.CodeBytes() != 1 {
		t.Errorf("Expected 1-byte codes, got %d", cm.CodeBytes())
	}

	// Multi-rune targets expand with the final rune advancing.
	wants := map[uint32]string{0x30: "fi", 0x31: "fj", 0x32: "fk"}
	for code, want := range wants {
		if got := cm.Lookup(code); got != want {
			t.Errorf("Expected %q for code %#02x, got %q", want, code, got)
		}
	}
}

func TestCMapCompressedStream(t *testing.T) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte(sampleCMap)); err != nil {
		t.Fatalf("Expected compression to succeed, got %v", err)
	}
	w.Close()

	stream := &core.Stream{
		Dict: core.Dict{
			"Length": core.Int(buf.Len()),
			"Filter": core.Name("FlateDecode"),
		},
		Data: buf.Bytes(),
	}

	cm, err := ParseToUnicodeCMap(stream)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := cm.Lookup(0x0003); got != "A" {
		t.Errorf("Expected A from compressed CMap, got %q", got)
	}
}

func TestCMapEmptyProgram(t *testing.T) {
	cm, err := ParseToUnicodeCMap(makeCMapStream("begincmap endcmap"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cm.Size() != 0 {
		t.Errorf("Expected no mappings, got %d", cm.Size())
	}
}

func TestCMapMalformedProgram(t *testing.T) {
	_, err := ParseToUnicodeCMap(makeCMapStream("1 beginbfchar (unterminated"))
	if err == nil {
		t.Error("Expected error for malformed CMap program")
	}
}

func TestCMapSize(t *testing.T) {
	cm, err := ParseToUnicodeCMap(makeCMapStream(sampleCMap))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Two bfchar entries, three array-form entries, one incrementing range.
	if got := cm.Size(); got != 6 {
		t.Errorf("Expected 6 mappings, got %d", got)
	}
}
