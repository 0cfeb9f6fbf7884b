package filters

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// FlateDecode decompresses zlib/deflate data and undoes any predictor named
// in the decode parameters. Flate is the workhorse filter for both content
// streams and cross-reference streams.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening zlib stream: %w", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("inflating: %w", err)
	}

	return undoPredictor(buf.Bytes(), params)
}

// undoPredictor reverses the predictor transform applied before compression.
func undoPredictor(data []byte, params Params) ([]byte, error) {
	predictor := intParam(params, "Predictor", 1)
	switch {
	case predictor == 1:
		return data, nil
	case predictor == 2:
		return undoTIFFPredictor(data, params)
	case predictor >= 10 && predictor <= 15:
		return undoPNGPredictor(data, params)
	default:
		return nil, fmt.Errorf("unsupported predictor %d", predictor)
	}
}

// undoTIFFPredictor reverses TIFF predictor 2, which stores each sample as a
// delta from the sample to its left.
func undoTIFFPredictor(data []byte, params Params) ([]byte, error) {
	columns := intParam(params, "Columns", 1)
	colors := intParam(params, "Colors", 1)
	bpc := intParam(params, "BitsPerComponent", 8)

	if bpc != 8 {
		return nil, fmt.Errorf("TIFF predictor needs 8 bits per component, got %d", bpc)
	}

	rowLen := columns * colors
	if rowLen <= 0 || len(data)%rowLen != 0 {
		return nil, fmt.Errorf("predictor data length %d does not divide into %d-byte rows", len(data), rowLen)
	}

	out := make([]byte, len(data))
	copy(out, data)
	for row := 0; row < len(out); row += rowLen {
		for i := colors; i < rowLen; i++ {
			out[row+i] += out[row+i-colors]
		}
	}
	return out, nil
}

// undoPNGPredictor reverses the PNG row filters. Each row is prefixed with a
// filter-type byte; filtering operates on bytes, so any bit depth works.
func undoPNGPredictor(data []byte, params Params) ([]byte, error) {
	columns := intParam(params, "Columns", 1)
	colors := intParam(params, "Colors", 1)
	bpc := intParam(params, "BitsPerComponent", 8)

	rowLen := (columns*colors*bpc + 7) / 8
	if rowLen <= 0 {
		return nil, fmt.Errorf("bad predictor geometry: columns=%d colors=%d bpc=%d", columns, colors, bpc)
	}
	// Bytes per complete pixel, at least one
	bpp := (colors*bpc + 7) / 8
	if bpp < 1 {
		bpp = 1
	}

	stride := rowLen + 1
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("predictor data length %d does not divide into %d-byte rows", len(data), stride)
	}

	rows := len(data) / stride
	out := make([]byte, 0, rows*rowLen)
	prev := make([]byte, rowLen)

	for r := 0; r < rows; r++ {
		ft := data[r*stride]
		cur := make([]byte, rowLen)
		copy(cur, data[r*stride+1:(r+1)*stride])

		switch ft {
		case 0: // None
		case 1: // Sub
			for i := bpp; i < rowLen; i++ {
				cur[i] += cur[i-bpp]
			}
		case 2: // Up
			for i := 0; i < rowLen; i++ {
				cur[i] += prev[i]
			}
		case 3: // Average
			for i := 0; i < rowLen; i++ {
				var left byte
				if i >= bpp {
					left = cur[i-bpp]
				}
				cur[i] += byte((int(left) + int(prev[i])) / 2)
			}
		case 4: // Paeth
			for i := 0; i < rowLen; i++ {
				var left, upLeft byte
				if i >= bpp {
					left = cur[i-bpp]
					upLeft = prev[i-bpp]
				}
				cur[i] += paeth(left, prev[i], upLeft)
			}
		default:
			return nil, fmt.Errorf("unknown PNG filter type %d in row %d", ft, r)
		}

		out = append(out, cur...)
		prev = cur
	}

	return out, nil
}

// paeth picks whichever of left, up, or upper-left lies closest to the
// linear estimate left+up-upLeft, per the PNG specification.
func paeth(left, up, upLeft byte) byte {
	p := int(left) + int(up) - int(upLeft)
	pa := iabs(p - int(left))
	pb := iabs(p - int(up))
	pc := iabs(p - int(upLeft))
	if pa <= pb && pa <= pc {
		return left
	}
	if pb <= pc {
		return up
	}
	return upLeft
}

func iabs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
