package filters

import (
	"bytes"
	"io"

	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode decodes CCITT Group 3/4 fax data, the usual encoding for
// scanned bi-level images.
//
// Decode parameters:
//   - K: group selector (negative selects Group 4, otherwise Group 3)
//   - Columns: width in pixels (default 1728)
//   - Rows: height in pixels (0 auto-detects)
//   - BlackIs1: bit sense (maps to the decoder's Invert option)
//   - EncodedByteAlign: rows start on byte boundaries
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	columns := intParam(params, "Columns", 1728)
	rows := intParam(params, "Rows", 0)
	k := intParam(params, "K", 0)

	sf := ccitt.Group3
	if k < 0 {
		sf = ccitt.Group4
	}
	if rows == 0 {
		rows = ccitt.AutoDetectHeight
	}

	opts := &ccitt.Options{
		Invert: boolParam(params, "BlackIs1", false),
		Align:  boolParam(params, "EncodedByteAlign", false),
	}

	r := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows, opts)
	return io.ReadAll(r)
}
