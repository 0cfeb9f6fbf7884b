// Package format provides input format detection for the accessify
// converter. Routing goes by file extension; content detection verifies
// that the bytes agree before a converter touches them.
package format

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

// headerScanLimit bounds the search for the %PDF marker, matching the
// tolerance of the reader package for junk before the header.
const headerScanLimit = 1024

// Format represents a supported document format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PDF indicates a PDF document.
	PDF
	// DOCX indicates a Microsoft Word (.docx) document.
	DOCX
	// PPTX indicates a Microsoft PowerPoint (.pptx) document.
	PPTX
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case PDF:
		return "PDF"
	case DOCX:
		return "DOCX"
	case PPTX:
		return "PPTX"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case PDF:
		return ".pdf"
	case DOCX:
		return ".docx"
	case PPTX:
		return ".pptx"
	default:
		return ""
	}
}

// Detect determines file format from the filename extension,
// case-insensitively.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return PDF
	case ".docx":
		return DOCX
	case ".pptx":
		return PPTX
	default:
		return Unknown
	}
}

// DetectFromMagic checks leading bytes for a format signature. A ZIP
// signature alone cannot separate DOCX from PPTX; callers with the full
// file should use DetectFromReader instead.
func DetectFromMagic(data []byte) Format {
	if isPDFHeader(data) {
		return PDF
	}
	return Unknown
}

// isPDFHeader reports whether a %PDF marker appears within the scan
// window. Real-world producers sometimes prepend junk before the header.
func isPDFHeader(data []byte) bool {
	if len(data) > headerScanLimit {
		data = data[:headerScanLimit]
	}
	return bytes.Contains(data, []byte("%PDF-"))
}

// isZIPHeader reports whether the data starts with a ZIP local file
// header. OOXML packages always do.
func isZIPHeader(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == 0x50 && data[1] == 0x4B && data[2] == 0x03 && data[3] == 0x04
}

// DetectFromReader inspects file content to determine the format. It is
// more reliable than extension detection and separates the ZIP-based
// OOXML formats by their package layout.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	head := make([]byte, headerScanLimit)
	n, err := r.ReadAt(head, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	head = head[:n]

	if isPDFHeader(head) {
		return PDF, nil
	}
	if isZIPHeader(head) {
		return detectZIPFormat(r, size)
	}
	return Unknown, nil
}

// detectZIPFormat inspects a ZIP archive's entry names to tell DOCX from
// PPTX. Other ZIP-based formats come back Unknown.
func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}

	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return DOCX, nil
		case strings.HasPrefix(f.Name, "ppt/"):
			return PPTX, nil
		}
	}
	return Unknown, nil
}
