// Package reader opens PDF documents and provides random access to their
// indirect objects, page tree, and embedded image data.
//
// A Reader is constructed from any io.ReaderAt, so documents can be read
// from disk or from memory. Object loading is lazy: the constructor parses
// only the header and the cross-reference data, and individual objects are
// fetched and cached on first use. Objects stored inside object streams
// (PDF 1.5 compressed xref entries) are resolved transparently.
//
// Encrypted documents are rejected at open time with core.ErrEncrypted.
package reader
