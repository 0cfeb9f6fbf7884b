package reader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/accessify/core"
)

// pdfBuilder assembles a small PDF in memory, tracking object offsets so
// tests can emit valid cross-reference sections.
type pdfBuilder struct {
	buf      bytes.Buffer
	offsets  map[int]int64
	lastXRef int64
}

func newPDFBuilder() *pdfBuilder {
	b := &pdfBuilder{offsets: make(map[int]int64)}
	b.buf.WriteString("%PDF-1.4\n")
	return b
}

// newPrefixedBuilder starts the file with junk bytes before the header.
func newPrefixedBuilder(prefix string) *pdfBuilder {
	b := &pdfBuilder{offsets: make(map[int]int64)}
	b.buf.WriteString(prefix)
	b.buf.WriteString("%PDF-1.4\n")
	return b
}

func (b *pdfBuilder) addObject(num int, body string) {
	b.offsets[num] = int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

func (b *pdfBuilder) addStream(num int, dict string, data []byte) {
	b.offsets[num] = int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", num, dict, len(data))
	b.buf.Write(data)
	b.buf.WriteString("\nendstream\nendobj\n")
}

func (b *pdfBuilder) raw(s string) {
	b.buf.WriteString(s)
}

// build appends a classic xref table covering every recorded object, a
// trailer with the given entries, and the end-of-file marker.
func (b *pdfBuilder) build(trailerEntries string) []byte {
	xrefPos := b.buf.Len()
	b.lastXRef = int64(xrefPos)

	maxNum := 0
	for num := range b.offsets {
		if num > maxNum {
			maxNum = num
		}
	}

	b.buf.WriteString("xref\n")
	fmt.Fprintf(&b.buf, "0 %d\n", maxNum+1)
	b.buf.WriteString("0000000000 65535 f\n")
	for num := 1; num <= maxNum; num++ {
		if off, ok := b.offsets[num]; ok {
			fmt.Fprintf(&b.buf, "%010d 00000 n\n", off)
		} else {
			b.buf.WriteString("0000000000 65535 f\n")
		}
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n", maxNum+1, trailerEntries, xrefPos)
	return b.buf.Bytes()
}

// buildSinglePageDoc builds a one-page document with a text content stream.
func buildSinglePageDoc() []byte {
	b := newPDFBuilder()
	b.addObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.addObject(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.addObject(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>")
	b.addStream(4, "", []byte("BT /F1 12 Tf 72 700 Td (Hello) Tj ET"))
	return b.build("/Root 1 0 R")
}

func openReader(t *testing.T, data []byte) *Reader {
	t.Helper()
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to open document: %v", err)
	}
	return r
}

// TestOpenFile tests opening a PDF from disk.
func TestOpenFile(t *testing.T) {
	doc := buildSinglePageDoc()
	path := filepath.Join(t.TempDir(), "test.pdf")
	if err := os.WriteFile(path, doc, 0644); err != nil {
		t.Fatalf("failed to write temp PDF: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open PDF: %v", err)
	}
	defer r.Close()

	if got := r.Version().String(); got != "1.4" {
		t.Errorf("Expected version 1.4, got %s", got)
	}
	count, err := r.PageCount()
	if err != nil {
		t.Fatalf("failed to count pages: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 page, got %d", count)
	}
	if r.FileSize() != int64(len(doc)) {
		t.Errorf("Expected file size %d, got %d", len(doc), r.FileSize())
	}
}

// TestOpenNonExistent tests opening a missing file.
func TestOpenNonExistent(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Error("expected error when opening non-existent file")
	}
}

// TestParseHeaderVersions tests version extraction from the header.
func TestParseHeaderVersions(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		wantMajor int
		wantMinor int
	}{
		{"PDF 1.4", "%PDF-1.4", 1, 4},
		{"PDF 1.7", "%PDF-1.7", 1, 7},
		{"PDF 2.0", "%PDF-2.0", 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Same-length replacement keeps all xref offsets valid
			data := bytes.Replace(buildSinglePageDoc(), []byte("%PDF-1.4"), []byte(tt.version), 1)
			r := openReader(t, data)

			v := r.Version()
			if v.Major != tt.wantMajor || v.Minor != tt.wantMinor {
				t.Errorf("Expected version %d.%d, got %d.%d", tt.wantMajor, tt.wantMinor, v.Major, v.Minor)
			}
		})
	}
}

// TestParseHeaderLeadingJunk tests that the header marker is found past
// leading junk bytes.
func TestParseHeaderLeadingJunk(t *testing.T) {
	b := newPrefixedBuilder("JUNK BYTES\n")
	b.addObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.addObject(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	data := b.build("/Root 1 0 R")

	r := openReader(t, data)
	if got := r.Version().String(); got != "1.4" {
		t.Errorf("Expected version 1.4, got %s", got)
	}
}

// TestParseHeaderMissing tests rejection of data without a PDF header.
func TestParseHeaderMissing(t *testing.T) {
	data := []byte("this is not a PDF document at all")
	_, err := NewReader(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, core.ErrInvalidPDF) {
		t.Errorf("Expected ErrInvalidPDF, got %v", err)
	}
}

// TestEncryptedRejected tests that encrypted documents fail at open time.
func TestEncryptedRejected(t *testing.T) {
	b := newPDFBuilder()
	b.addObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.addObject(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	data := b.build("/Root 1 0 R /Encrypt 9 0 R")

	_, err := NewReader(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, core.ErrEncrypted) {
		t.Errorf("Expected ErrEncrypted, got %v", err)
	}
}

// TestGetObject tests loading objects by number.
func TestGetObject(t *testing.T) {
	r := openReader(t, buildSinglePageDoc())

	obj, err := r.GetObject(1)
	if err != nil {
		t.Fatalf("failed to get object 1: %v", err)
	}
	dict, ok := obj.(core.Dict)
	if !ok {
		t.Fatalf("Expected Dict, got %T", obj)
	}
	if typ, _ := dict.GetName("Type"); string(typ) != "Catalog" {
		t.Errorf("Expected Catalog, got %s", typ)
	}

	// Second load returns the cached object
	again, err := r.GetObject(1)
	if err != nil {
		t.Fatalf("failed to get cached object: %v", err)
	}
	if _, ok := again.(core.Dict); !ok {
		t.Errorf("Expected Dict from cache, got %T", again)
	}
}

// TestGetObjectMissing tests lookups that have no xref entry or are free.
func TestGetObjectMissing(t *testing.T) {
	r := openReader(t, buildSinglePageDoc())

	if _, err := r.GetObject(99); !errors.Is(err, core.ErrObjectNotFound) {
		t.Errorf("Expected ErrObjectNotFound for absent object, got %v", err)
	}
	if _, err := r.GetObject(0); !errors.Is(err, core.ErrObjectNotFound) {
		t.Errorf("Expected ErrObjectNotFound for free object, got %v", err)
	}
}

// TestGetObjectNumberMismatch tests detection of stale xref offsets.
func TestGetObjectNumberMismatch(t *testing.T) {
	b := newPDFBuilder()
	b.addObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.addObject(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	// Point object 2's entry at object 1's bytes
	b.offsets[2] = b.offsets[1]
	data := b.build("/Root 1 0 R")

	r := openReader(t, data)
	_, err := r.GetObject(2)
	if err == nil {
		t.Fatal("expected error for mismatched object number")
	}
	if !strings.Contains(err.Error(), "holds object") {
		t.Errorf("Expected mismatch error, got %v", err)
	}
}

// TestResolve tests reference resolution for direct and indirect objects.
func TestResolve(t *testing.T) {
	r := openReader(t, buildSinglePageDoc())

	resolved, err := r.Resolve(core.IndirectRef{Number: 1, Generation: 0})
	if err != nil {
		t.Fatalf("failed to resolve reference: %v", err)
	}
	if _, ok := resolved.(core.Dict); !ok {
		t.Errorf("Expected Dict, got %T", resolved)
	}

	direct, err := r.Resolve(core.Int(42))
	if err != nil {
		t.Fatalf("failed to resolve direct object: %v", err)
	}
	if direct != core.Int(42) {
		t.Errorf("Expected 42, got %v", direct)
	}
}

// TestGetCatalog tests catalog retrieval.
func TestGetCatalog(t *testing.T) {
	r := openReader(t, buildSinglePageDoc())

	catalog, err := r.GetCatalog()
	if err != nil {
		t.Fatalf("failed to get catalog: %v", err)
	}
	if typ, _ := catalog.GetName("Type"); string(typ) != "Catalog" {
		t.Errorf("Expected Catalog, got %s", typ)
	}
}

// TestGetCatalogMissingRoot tests trailers without a /Root entry.
func TestGetCatalogMissingRoot(t *testing.T) {
	b := newPDFBuilder()
	b.addObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.addObject(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	data := b.build("")

	r := openReader(t, data)
	if _, err := r.GetCatalog(); !errors.Is(err, core.ErrInvalidPDF) {
		t.Errorf("Expected ErrInvalidPDF, got %v", err)
	}
}

// TestGetInfo tests document information lookup.
func TestGetInfo(t *testing.T) {
	b := newPDFBuilder()
	b.addObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.addObject(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	b.addObject(5, "<< /Title (Quarterly Report) >>")
	data := b.build("/Root 1 0 R /Info 5 0 R")

	r := openReader(t, data)
	info, err := r.GetInfo()
	if err != nil {
		t.Fatalf("failed to get info: %v", err)
	}
	if info == nil {
		t.Fatal("expected info dictionary")
	}
	if title, _ := info.GetString("Title"); string(title) != "Quarterly Report" {
		t.Errorf("Expected Quarterly Report, got %s", title)
	}
}

// TestGetInfoAbsent tests documents without an info dictionary.
func TestGetInfoAbsent(t *testing.T) {
	r := openReader(t, buildSinglePageDoc())

	info, err := r.GetInfo()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info != nil {
		t.Errorf("Expected nil info, got %v", info)
	}
}

// TestGetPage tests page access and content retrieval.
func TestGetPage(t *testing.T) {
	r := openReader(t, buildSinglePageDoc())

	page, err := r.GetPage(0)
	if err != nil {
		t.Fatalf("failed to get page: %v", err)
	}

	geom, err := page.Geometry()
	if err != nil {
		t.Fatalf("failed to get geometry: %v", err)
	}
	if geom.Width() != 612 || geom.Height() != 792 {
		t.Errorf("Expected 612x792, got %vx%v", geom.Width(), geom.Height())
	}

	content, err := page.ContentData()
	if err != nil {
		t.Fatalf("failed to get content: %v", err)
	}
	if !strings.Contains(string(content), "Hello") {
		t.Errorf("Expected content to contain Hello, got %q", content)
	}

	if _, err := r.GetPage(1); err == nil {
		t.Error("expected error for out-of-range page index")
	}
}

// TestPages tests retrieving all pages at once.
func TestPages(t *testing.T) {
	r := openReader(t, buildSinglePageDoc())

	all, err := r.Pages()
	if err != nil {
		t.Fatalf("failed to get pages: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected 1 page, got %d", len(all))
	}
}

// TestIncrementalUpdate tests that a later xref section overrides entries
// from an earlier one while untouched entries survive.
func TestIncrementalUpdate(t *testing.T) {
	b := newPDFBuilder()
	b.addObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.addObject(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.addObject(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	b.build("/Root 1 0 R")
	firstXRef := b.lastXRef

	// Incremental revision replacing the page with a smaller one
	b.addObject(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 300 400] >>")
	updateXRef := b.buf.Len()
	b.raw("xref\n")
	b.raw(fmt.Sprintf("3 1\n%010d 00000 n\n", b.offsets[3]))
	b.raw(fmt.Sprintf("trailer\n<< /Size 4 /Root 1 0 R /Prev %d >>\n", firstXRef))
	b.raw(fmt.Sprintf("startxref\n%d\n%%%%EOF\n", updateXRef))

	r := openReader(t, b.buf.Bytes())

	// Catalog still comes from the original section
	if _, err := r.GetCatalog(); err != nil {
		t.Fatalf("failed to get catalog: %v", err)
	}

	page, err := r.GetPage(0)
	if err != nil {
		t.Fatalf("failed to get page: %v", err)
	}
	geom, err := page.Geometry()
	if err != nil {
		t.Fatalf("failed to get geometry: %v", err)
	}
	if geom.Width() != 300 || geom.Height() != 400 {
		t.Errorf("Expected updated page 300x400, got %vx%v", geom.Width(), geom.Height())
	}
}

// TestObjectStreamDocument tests a document whose catalog and page tree
// root live inside an object stream, referenced through an xref stream.
func TestObjectStreamDocument(t *testing.T) {
	b := newPDFBuilder()

	b.addObject(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>")
	b.addStream(4, "", []byte("BT /F1 12 Tf 72 700 Td (Packed) Tj ET"))

	// Objects 1 and 2 packed into an object stream
	body1 := "<< /Type /Catalog /Pages 2 0 R >>"
	body2 := "<< /Type /Pages /Kids [3 0 R] /Count 1 >>"
	header := fmt.Sprintf("1 0 2 %d\n", len(body1)+1)
	payload := header + body1 + "\n" + body2
	b.addStream(5, fmt.Sprintf("/Type /ObjStm /N 2 /First %d", len(header)), []byte(payload))

	// Cross-reference stream covering objects 0 through 6
	xrefPos := int64(b.buf.Len())
	var entries bytes.Buffer
	writeEntry := func(typ int, field1 int64, field2 int) {
		entries.WriteByte(byte(typ))
		entries.WriteByte(byte(field1 >> 8))
		entries.WriteByte(byte(field1))
		entries.WriteByte(byte(field2))
	}
	writeEntry(0, 0, 0)
	writeEntry(2, 5, 0)
	writeEntry(2, 5, 1)
	writeEntry(1, b.offsets[3], 0)
	writeEntry(1, b.offsets[4], 0)
	writeEntry(1, b.offsets[5], 0)
	writeEntry(1, xrefPos, 0)
	b.addStream(6, "/Type /XRef /Size 7 /W [1 2 1] /Root 1 0 R", entries.Bytes())
	b.raw(fmt.Sprintf("startxref\n%d\n%%%%EOF\n", xrefPos))

	r := openReader(t, b.buf.Bytes())

	obj, err := r.GetObject(1)
	if err != nil {
		t.Fatalf("failed to get compressed object: %v", err)
	}
	dict, ok := obj.(core.Dict)
	if !ok {
		t.Fatalf("Expected Dict, got %T", obj)
	}
	if typ, _ := dict.GetName("Type"); string(typ) != "Catalog" {
		t.Errorf("Expected Catalog, got %s", typ)
	}

	count, err := r.PageCount()
	if err != nil {
		t.Fatalf("failed to count pages: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 page, got %d", count)
	}

	page, err := r.GetPage(0)
	if err != nil {
		t.Fatalf("failed to get page: %v", err)
	}
	content, err := page.ContentData()
	if err != nil {
		t.Fatalf("failed to get content: %v", err)
	}
	if !strings.Contains(string(content), "Packed") {
		t.Errorf("Expected content to contain Packed, got %q", content)
	}
}

// TestIndirectStreamLength tests content streams whose /Length is an
// indirect reference.
func TestIndirectStreamLength(t *testing.T) {
	b := newPDFBuilder()
	b.addObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.addObject(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.addObject(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>")

	content := []byte("BT /F1 12 Tf 72 700 Td (Indirect) Tj ET")
	b.offsets[4] = int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "4 0 obj\n<< /Length 5 0 R >>\nstream\n")
	b.buf.Write(content)
	b.buf.WriteString("\nendstream\nendobj\n")
	b.addObject(5, fmt.Sprintf("%d", len(content)))

	data := b.build("/Root 1 0 R")
	r := openReader(t, data)

	page, err := r.GetPage(0)
	if err != nil {
		t.Fatalf("failed to get page: %v", err)
	}
	got, err := page.ContentData()
	if err != nil {
		t.Fatalf("failed to get content: %v", err)
	}
	if !strings.Contains(string(got), "Indirect") {
		t.Errorf("Expected content to contain Indirect, got %q", got)
	}
}
