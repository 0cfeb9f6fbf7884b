package core

import "errors"

// Sentinel errors for conditions callers branch on with errors.Is.
var (
	// ErrInvalidPDF marks structural damage: bad header, unparseable xref,
	// or an object that contradicts its own framing.
	ErrInvalidPDF = errors.New("invalid PDF")

	// ErrUnsupportedFilter marks a stream filter this reader does not decode.
	ErrUnsupportedFilter = errors.New("unsupported stream filter")

	// ErrEncrypted marks an encrypted document, which this reader does not open.
	ErrEncrypted = errors.New("encrypted PDF not supported")

	// ErrObjectNotFound marks a reference whose target is absent from the
	// xref table or free.
	ErrObjectNotFound = errors.New("object not found")
)
