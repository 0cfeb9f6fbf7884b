package font

import (
	"fmt"

	"github.com/tsawler/accessify/contentstream"
	"github.com/tsawler/accessify/core"
)

// CMap maps character codes to Unicode text. It holds the mappings parsed
// from an embedded ToUnicode stream.
type CMap struct {
	chars     map[uint32]string
	ranges    []CMapRange
	codeBytes int
}

// CMapRange is one bfrange entry in compact form: a contiguous span of codes
// whose targets increment from a starting code point.
type CMapRange struct {
	StartCode    uint32
	EndCode      uint32
	StartUnicode rune
}

// NewCMap returns an empty CMap.
func NewCMap() *CMap {
	return &CMap{chars: make(map[uint32]string)}
}

// ParseToUnicodeCMap parses the CMap program in a /ToUnicode stream.
//
// CMap programs are PostScript-flavored token streams, so the content stream
// parser handles the lexing; only the endcodespacerange, endbfchar, and
// endbfrange operators carry mappings. Operators from the surrounding CMap
// boilerplate (begincmap, def, findresource) pass through untouched.
func ParseToUnicodeCMap(stream *core.Stream) (*CMap, error) {
	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("decoding ToUnicode stream: %w", err)
	}

	ops, err := contentstream.NewParser(data).Parse()
	if err != nil {
		return nil, fmt.Errorf("parsing ToUnicode CMap: %w", err)
	}

	cm := NewCMap()
	for _, op := range ops {
		switch op.Operator {
		case "endcodespacerange":
			cm.addCodespace(op.Operands)
		case "endbfchar":
			cm.addChars(op.Operands)
		case "endbfrange":
			cm.addRanges(op.Operands)
		}
	}
	return cm, nil
}

// addCodespace records the code byte length from codespacerange bounds. The
// low and high bounds of each range have the same length; the first range
// seen wins.
func (cm *CMap) addCodespace(operands []core.Object) {
	if cm.codeBytes != 0 {
		return
	}
	for _, operand := range operands {
		if s, ok := operand.(core.String); ok && len(s) > 0 && len(s) <= 4 {
			cm.codeBytes = len(s)
			return
		}
	}
}

// addChars consumes bfchar operands: source and destination string pairs.
func (cm *CMap) addChars(operands []core.Object) {
	for i := 0; i+1 < len(operands); i += 2 {
		src, ok := operands[i].(core.String)
		if !ok {
			continue
		}
		dst, ok := operands[i+1].(core.String)
		if !ok {
			continue
		}
		cm.chars[codeFromBytes([]byte(src))] = utf16Target([]byte(dst))
	}
}

// addRanges consumes bfrange operands in triples. The destination is either
// a string, giving an incrementing range, or an array listing each target
// individually.
func (cm *CMap) addRanges(operands []core.Object) {
	for i := 0; i+2 < len(operands); i += 3 {
		lo, ok := operands[i].(core.String)
		if !ok {
			continue
		}
		hi, ok := operands[i+1].(core.String)
		if !ok {
			continue
		}
		start := codeFromBytes([]byte(lo))
		end := codeFromBytes([]byte(hi))
		if end < start {
			continue
		}

		switch dst := operands[i+2].(type) {
		case core.String:
			target := utf16Target([]byte(dst))
			runes := []rune(target)
			if len(runes) == 1 {
				cm.ranges = append(cm.ranges, CMapRange{
					StartCode:    start,
					EndCode:      end,
					StartUnicode: runes[0],
				})
			} else {
				// Multi-rune targets (ligature expansions) cannot be
				// expressed as an incrementing range; expand per code with
				// the last rune advancing.
				for code := start; code <= end; code++ {
					offset := rune(code - start)
					cm.chars[code] = string(runes[:len(runes)-1]) + string(runes[len(runes)-1]+offset)
				}
			}
		case core.Array:
			for j, item := range dst {
				if s, ok := item.(core.String); ok {
					cm.chars[start+uint32(j)] = utf16Target([]byte(s))
				}
			}
		}
	}
}

// Lookup returns the Unicode text for a character code. Codes with no
// mapping fall back to their own value when it is a valid code point, which
// keeps text readable for fonts with incomplete CMaps.
func (cm *CMap) Lookup(code uint32) string {
	if s, ok := cm.chars[code]; ok {
		return s
	}
	for _, r := range cm.ranges {
		if code >= r.StartCode && code <= r.EndCode {
			return string(r.StartUnicode + rune(code-r.StartCode))
		}
	}
	if code < 0x110000 {
		return string(rune(code))
	}
	return ""
}

// HasMapping reports whether the code is covered by an explicit bfchar or
// bfrange entry.
func (cm *CMap) HasMapping(code uint32) bool {
	if _, ok := cm.chars[code]; ok {
		return true
	}
	for _, r := range cm.ranges {
		if code >= r.StartCode && code <= r.EndCode {
			return true
		}
	}
	return false
}

// CodeBytes returns the code width in bytes declared by the codespacerange,
// or 0 when the CMap did not declare one.
func (cm *CMap) CodeBytes() int {
	return cm.codeBytes
}

// DecodeString decodes a raw show string, consuming codeLen bytes per
// character code. A trailing partial code decodes byte by byte.
func (cm *CMap) DecodeString(data []byte, codeLen int) string {
	if codeLen < 1 || codeLen > 4 {
		codeLen = 1
	}
	var out []byte
	i := 0
	for i+codeLen <= len(data) {
		out = append(out, cm.Lookup(codeFromBytes(data[i:i+codeLen]))...)
		i += codeLen
	}
	for ; i < len(data); i++ {
		out = append(out, cm.Lookup(uint32(data[i]))...)
	}
	return string(out)
}

// Size returns the number of explicit mappings, counting each range once.
func (cm *CMap) Size() int {
	return len(cm.chars) + len(cm.ranges)
}

// codeFromBytes builds a big-endian character code from up to 4 bytes.
func codeFromBytes(b []byte) uint32 {
	var code uint32
	for _, v := range b {
		code = code<<8 | uint32(v)
	}
	return code
}

// utf16Target decodes a bfchar or bfrange destination. Single bytes map
// directly; anything longer is UTF-16BE, the encoding ToUnicode CMaps are
// required to use.
func utf16Target(b []byte) string {
	if len(b) == 1 {
		return string(rune(b[0]))
	}
	return DecodeUTF16BE(b)
}
