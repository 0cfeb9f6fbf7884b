// Package filters implements the stream decompression filters used by PDF
// content and cross-reference streams.
//
// # Supported Filters
//
// FlateDecode (zlib/deflate), with TIFF and PNG predictor support:
//
//	decoded, err := filters.FlateDecode(data, params)
//
// The Predictor decode parameter selects the algorithm:
//   - 1: no prediction (default)
//   - 2: TIFF predictor 2
//   - 10-15: PNG row filters (None, Sub, Up, Average, Paeth)
//
// ASCIIHexDecode and ASCII85Decode:
//
//	decoded, err := filters.ASCIIHexDecode(data)
//	decoded, err := filters.ASCII85Decode(data)
//
// RunLengthDecode:
//
//	decoded, err := filters.RunLengthDecode(data)
//
// CCITTFaxDecode (Group 3/4 bi-level images):
//
//	decoded, err := filters.CCITTFaxDecode(data, params)
//
// # Decode Parameters
//
// Filters that take parameters receive them as a Params map mirroring the
// stream's DecodeParms dictionary:
//
//	params := filters.Params{
//	    "Predictor": 12,
//	    "Columns":   4,
//	}
//	decoded, err := filters.FlateDecode(data, params)
package filters
