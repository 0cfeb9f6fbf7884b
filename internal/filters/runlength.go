package filters

import (
	"bytes"
	"fmt"
)

// RunLengthDecode expands run-length encoded data. A length byte L in 0..127
// copies the next L+1 bytes literally, L in 129..255 repeats the next byte
// 257-L times, and 128 marks end of data.
func RunLengthDecode(data []byte) ([]byte, error) {
	var out bytes.Buffer

	i := 0
	for i < len(data) {
		l := data[i]
		i++

		switch {
		case l == 128:
			return out.Bytes(), nil
		case l < 128:
			count := int(l) + 1
			if i+count > len(data) {
				return nil, fmt.Errorf("run-length literal overruns data")
			}
			out.Write(data[i : i+count])
			i += count
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("run-length repeat overruns data")
			}
			count := 257 - int(l)
			for j := 0; j < count; j++ {
				out.WriteByte(data[i])
			}
			i++
		}
	}

	return out.Bytes(), nil
}
