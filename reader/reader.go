package reader

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tsawler/accessify/core"
	"github.com/tsawler/accessify/pages"
)

// headerScanLimit bounds the search for the %PDF marker. Some producers
// prepend junk bytes before the header.
const headerScanLimit = 1024

// Version is the PDF specification version declared in the file header.
type Version struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Reader provides random access to the objects and pages of one PDF
// document. It is not safe for concurrent use.
type Reader struct {
	ra   io.ReaderAt
	size int64

	closer  io.Closer
	version Version
	xref    *core.XRefTable
	trailer core.Dict

	objCache   map[int]core.Object
	objStreams map[int]*core.ObjectStream
	loading    map[int]bool

	pageTree *pages.PageTree
}

var (
	_ core.ReferenceResolver = (*Reader)(nil)
	_ pages.ObjectResolver   = (*Reader)(nil)
)

// Open opens the PDF file at the given path. The returned Reader owns the
// file handle; Close releases it.
func Open(filename string) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat %s: %w", filename, err)
	}

	r, err := NewReader(file, info.Size())
	if err != nil {
		file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

// NewReader reads the document structure from an in-memory or on-disk byte
// source. Only the header and the cross-reference data are parsed up front;
// objects load lazily on first access.
func NewReader(ra io.ReaderAt, size int64) (*Reader, error) {
	r := &Reader{
		ra:         ra,
		size:       size,
		objCache:   make(map[int]core.Object),
		objStreams: make(map[int]*core.ObjectStream),
		loading:    make(map[int]bool),
	}

	version, err := r.parseHeader()
	if err != nil {
		return nil, err
	}
	r.version = version

	xref, err := r.loadXRef()
	if err != nil {
		return nil, fmt.Errorf("load cross-reference data: %w", err)
	}
	r.xref = xref
	r.trailer = xref.Trailer

	if r.trailer.Get("Encrypt") != nil {
		return nil, core.ErrEncrypted
	}

	return r, nil
}

// Close releases the underlying file handle if the Reader owns one.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Version returns the PDF version from the file header.
func (r *Reader) Version() Version {
	return r.version
}

// Trailer returns the document trailer dictionary.
func (r *Reader) Trailer() core.Dict {
	return r.trailer
}

// FileSize returns the total size of the document in bytes.
func (r *Reader) FileSize() int64 {
	return r.size
}

func (r *Reader) parseHeader() (Version, error) {
	limit := int64(headerScanLimit)
	if limit > r.size {
		limit = r.size
	}
	buf := make([]byte, limit)
	n, err := r.ra.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return Version{}, fmt.Errorf("read header: %w", err)
	}
	head := string(buf[:n])

	idx := strings.Index(head, "%PDF-")
	if idx < 0 {
		return Version{}, fmt.Errorf("%w: no %%PDF header found", core.ErrInvalidPDF)
	}

	rest := head[idx+len("%PDF-"):]
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return Version{}, fmt.Errorf("%w: malformed version in header", core.ErrInvalidPDF)
	}

	major, err := strconv.Atoi(rest[:dot])
	if err != nil {
		return Version{}, fmt.Errorf("%w: malformed version in header", core.ErrInvalidPDF)
	}

	end := dot + 1
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	minor, err := strconv.Atoi(rest[dot+1 : end])
	if err != nil {
		return Version{}, fmt.Errorf("%w: malformed version in header", core.ErrInvalidPDF)
	}

	return Version{Major: major, Minor: minor}, nil
}

func (r *Reader) loadXRef() (*core.XRefTable, error) {
	parser := core.NewXRefParser(io.NewSectionReader(r.ra, 0, r.size))
	tables, err := parser.ParseAllXRefs()
	if err != nil {
		return nil, err
	}

	merged := core.MergeXRefTables(tables...)
	if merged.Size() == 0 {
		return nil, fmt.Errorf("%w: empty cross-reference table", core.ErrInvalidPDF)
	}
	return merged, nil
}

// GetObject loads the indirect object with the given number, consulting the
// cache first. Objects held inside object streams are unpacked transparently.
func (r *Reader) GetObject(objNum int) (core.Object, error) {
	if obj, ok := r.objCache[objNum]; ok {
		return obj, nil
	}

	if r.loading[objNum] {
		return nil, fmt.Errorf("%w: circular reference through object %d", core.ErrInvalidPDF, objNum)
	}
	r.loading[objNum] = true
	defer delete(r.loading, objNum)

	entry, ok := r.xref.Get(objNum)
	if !ok {
		return nil, fmt.Errorf("%w: object %d", core.ErrObjectNotFound, objNum)
	}
	if !entry.InUse {
		return nil, fmt.Errorf("%w: object %d is free", core.ErrObjectNotFound, objNum)
	}

	var obj core.Object
	var err error
	switch entry.Type {
	case core.XRefEntryCompressed:
		obj, err = r.loadFromObjectStream(objNum, int(entry.Offset))
	default:
		obj, err = r.loadAt(objNum, entry.Offset)
	}
	if err != nil {
		return nil, err
	}

	r.objCache[objNum] = obj
	return obj, nil
}

// loadAt parses the object starting at a byte offset. Each parse gets its
// own section reader so that nested loads, such as resolving an indirect
// stream /Length, cannot disturb this one.
func (r *Reader) loadAt(objNum int, offset int64) (core.Object, error) {
	if offset < 0 || offset >= r.size {
		return nil, fmt.Errorf("%w: offset %d for object %d is outside the file", core.ErrInvalidPDF, offset, objNum)
	}

	parser := core.NewParser(io.NewSectionReader(r.ra, offset, r.size-offset))
	parser.SetReferenceResolver(r)

	ind, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("parse object %d: %w", objNum, err)
	}
	if ind.Ref.Number != objNum {
		return nil, fmt.Errorf("%w: offset for object %d holds object %d", core.ErrInvalidPDF, objNum, ind.Ref.Number)
	}
	return ind.Object, nil
}

func (r *Reader) loadFromObjectStream(objNum, containerNum int) (core.Object, error) {
	objStream, ok := r.objStreams[containerNum]
	if !ok {
		container, err := r.GetObject(containerNum)
		if err != nil {
			return nil, fmt.Errorf("load object stream %d: %w", containerNum, err)
		}
		stream, isStream := container.(*core.Stream)
		if !isStream {
			return nil, fmt.Errorf("%w: object stream %d is %T, not a stream", core.ErrInvalidPDF, containerNum, container)
		}
		objStream, err = core.NewObjectStream(stream)
		if err != nil {
			return nil, fmt.Errorf("object stream %d: %w", containerNum, err)
		}
		r.objStreams[containerNum] = objStream
	}

	obj, _, err := objStream.GetObjectByNumber(objNum)
	if err != nil {
		return nil, fmt.Errorf("object %d from stream %d: %w", objNum, containerNum, err)
	}
	return obj, nil
}

// ResolveReference loads the object an indirect reference points to.
func (r *Reader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.GetObject(ref.Number)
}

// Resolve returns the target of an indirect reference, or the object itself
// when it is already direct. Implements pages.ObjectResolver.
func (r *Reader) Resolve(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		return r.GetObject(ref.Number)
	}
	return obj, nil
}

// GetCatalog returns the document catalog dictionary.
func (r *Reader) GetCatalog() (core.Dict, error) {
	rootObj := r.trailer.Get("Root")
	if rootObj == nil {
		return nil, fmt.Errorf("%w: trailer has no /Root entry", core.ErrInvalidPDF)
	}

	resolved, err := r.Resolve(rootObj)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog: %w", err)
	}

	catalog, ok := resolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("%w: catalog is %T, not a dictionary", core.ErrInvalidPDF, resolved)
	}
	return catalog, nil
}

// GetInfo returns the document information dictionary, or nil when the
// document has none.
func (r *Reader) GetInfo() (core.Dict, error) {
	infoObj := r.trailer.Get("Info")
	if infoObj == nil {
		return nil, nil
	}

	resolved, err := r.Resolve(infoObj)
	if err != nil {
		return nil, fmt.Errorf("resolve info: %w", err)
	}

	info, ok := resolved.(core.Dict)
	if !ok {
		return nil, nil
	}
	return info, nil
}

// PageCount returns the number of pages in the document.
func (r *Reader) PageCount() (int, error) {
	if err := r.ensurePageTree(); err != nil {
		return 0, err
	}
	return r.pageTree.Count()
}

// GetPage returns the page at the given zero-based index.
func (r *Reader) GetPage(index int) (*pages.Page, error) {
	if err := r.ensurePageTree(); err != nil {
		return nil, err
	}
	return r.pageTree.GetPage(index)
}

// Pages returns all pages of the document in order.
func (r *Reader) Pages() ([]*pages.Page, error) {
	if err := r.ensurePageTree(); err != nil {
		return nil, err
	}
	return r.pageTree.Pages()
}

func (r *Reader) ensurePageTree() error {
	if r.pageTree != nil {
		return nil
	}

	catalog, err := r.GetCatalog()
	if err != nil {
		return err
	}

	root, err := pages.NewCatalog(catalog, r).Pages()
	if err != nil {
		return err
	}

	r.pageTree = pages.NewPageTree(root, r)
	return nil
}
