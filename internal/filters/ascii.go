package filters

import (
	"bytes"
	"fmt"
)

// ASCIIHexDecode decodes hexadecimal-encoded data. Whitespace between
// digits is ignored, '>' ends the data, and a trailing odd digit is padded
// with zero.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	var out bytes.Buffer
	var hi byte
	haveHi := false

	for _, c := range data {
		if isSpace(c) {
			continue
		}
		if c == '>' {
			break
		}
		v, err := hexValue(c)
		if err != nil {
			return nil, err
		}
		if !haveHi {
			hi = v
			haveHi = true
		} else {
			out.WriteByte(hi<<4 | v)
			haveHi = false
		}
	}

	if haveHi {
		out.WriteByte(hi << 4)
	}
	return out.Bytes(), nil
}

// ASCII85Decode decodes base-85 data. Five characters in '!'..'u' encode
// four bytes, 'z' stands for four zero bytes, and "~>" ends the data. A
// short final group of n characters yields n-1 bytes.
func ASCII85Decode(data []byte) ([]byte, error) {
	var out bytes.Buffer
	var group [5]byte
	n := 0

	flush := func(count int) {
		// Pad with 'u' (84), the highest digit, per the encoding's rule
		for i := count; i < 5; i++ {
			group[i] = 84
		}
		v := uint32(0)
		for _, d := range group {
			v = v*85 + uint32(d)
		}
		for j := 0; j < count-1; j++ {
			out.WriteByte(byte(v >> (24 - 8*j)))
		}
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		if isSpace(c) {
			continue
		}
		if c == '~' && i+1 < len(data) && data[i+1] == '>' {
			break
		}
		if c == 'z' {
			if n != 0 {
				return nil, fmt.Errorf("'z' inside an ASCII85 group")
			}
			out.Write([]byte{0, 0, 0, 0})
			continue
		}
		if c < '!' || c > 'u' {
			return nil, fmt.Errorf("invalid ASCII85 character %q", c)
		}
		group[n] = c - '!'
		n++
		if n == 5 {
			flush(5)
			n = 0
		}
	}

	if n == 1 {
		return nil, fmt.Errorf("truncated ASCII85 group")
	}
	if n > 1 {
		flush(n)
	}
	return out.Bytes(), nil
}

// hexValue converts one hex digit to its value.
func hexValue(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit %q", c)
	}
}

// isSpace reports whether c is PDF whitespace.
func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
