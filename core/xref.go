package core

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// XRefEntryType classifies a cross-reference entry.
type XRefEntryType int

const (
	// XRefEntryFree marks a free object slot.
	XRefEntryFree XRefEntryType = iota
	// XRefEntryUncompressed marks an object stored at a byte offset.
	XRefEntryUncompressed
	// XRefEntryCompressed marks an object stored inside an object stream.
	XRefEntryCompressed
)

// XRefEntry represents a single cross-reference entry.
// For compressed entries, Offset holds the containing object stream's number
// and Generation holds the index within that stream.
type XRefEntry struct {
	Type       XRefEntryType
	Offset     int64
	Generation int
	InUse      bool
}

// XRefTable maps object numbers to their cross-reference entries, together
// with the trailer dictionary that accompanied the section.
type XRefTable struct {
	Entries map[int]*XRefEntry
	Trailer Dict
}

// NewXRefTable creates an empty table.
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[int]*XRefEntry),
		Trailer: make(Dict),
	}
}

// Get retrieves an entry by object number.
func (x *XRefTable) Get(objNum int) (*XRefEntry, bool) {
	e, ok := x.Entries[objNum]
	return e, ok
}

// Set adds or replaces an entry.
func (x *XRefTable) Set(objNum int, entry *XRefEntry) {
	x.Entries[objNum] = entry
}

// Size returns the number of entries.
func (x *XRefTable) Size() int {
	return len(x.Entries)
}

// XRefParser locates and parses cross-reference sections, both classic
// tables and cross-reference streams.
type XRefParser struct {
	reader io.ReadSeeker
}

// NewXRefParser creates a parser over a seekable reader.
func NewXRefParser(r io.ReadSeeker) *XRefParser {
	return &XRefParser{reader: r}
}

// FindXRef returns the byte offset of the last cross-reference section by
// scanning backward from EOF for the startxref keyword.
func (x *XRefParser) FindXRef() (int64, error) {
	fileSize, err := x.reader.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seeking to end: %w", err)
	}

	readSize := int64(1024)
	if fileSize < readSize {
		readSize = fileSize
	}
	if _, err := x.reader.Seek(fileSize-readSize, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seeking to trailer area: %w", err)
	}

	buf := make([]byte, readSize)
	n, err := io.ReadFull(x.reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, fmt.Errorf("reading trailer area: %w", err)
	}
	buf = buf[:n]

	idx := bytes.LastIndex(buf, []byte("startxref"))
	if idx == -1 {
		return 0, fmt.Errorf("%w: startxref not found", ErrInvalidPDF)
	}

	rest := string(buf[idx+len("startxref"):])
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: startxref with no offset", ErrInvalidPDF)
	}
	offset, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad startxref offset %q", ErrInvalidPDF, fields[0])
	}
	return offset, nil
}

// isXRefStream peeks at the current position to decide whether a classic
// table ("xref" keyword) or a cross-reference stream ("N G obj") starts here.
// The caller is responsible for positioning the reader first.
func (x *XRefParser) isXRefStream() (bool, error) {
	pos, err := x.reader.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, err
	}

	buf := make([]byte, 64)
	n, err := x.reader.Read(buf)
	if err != nil && err != io.EOF {
		return false, err
	}
	buf = buf[:n]

	// Restore position for the actual parse
	if _, err := x.reader.Seek(pos, io.SeekStart); err != nil {
		return false, err
	}

	s := strings.TrimLeft(string(buf), " \t\r\n\f\x00")
	if strings.HasPrefix(s, "xref") {
		return false, nil
	}

	// "N G obj" means the section is a stream object
	fields := strings.Fields(s)
	if len(fields) >= 3 {
		if _, err1 := strconv.Atoi(fields[0]); err1 == nil {
			if _, err2 := strconv.Atoi(fields[1]); err2 == nil && strings.HasPrefix(fields[2], "obj") {
				return true, nil
			}
		}
	}

	return false, fmt.Errorf("%w: unrecognized xref section", ErrInvalidPDF)
}

// ParseXRef parses the cross-reference section at offset, dispatching on its
// form (table or stream).
func (x *XRefParser) ParseXRef(offset int64) (*XRefTable, error) {
	if _, err := x.reader.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to xref at %d: %w", offset, err)
	}

	isStream, err := x.isXRefStream()
	if err != nil {
		return nil, err
	}
	if isStream {
		return x.parseXRefStream()
	}
	return x.parseXRefTable()
}

// parseXRefTable parses a classic "xref" section with subsections and a
// trailing trailer dictionary.
func (x *XRefParser) parseXRefTable() (*XRefTable, error) {
	scanner := bufio.NewScanner(x.reader)

	if !scanner.Scan() {
		return nil, fmt.Errorf("%w: missing xref keyword", ErrInvalidPDF)
	}
	if strings.TrimSpace(scanner.Text()) != "xref" {
		return nil, fmt.Errorf("%w: expected xref keyword, got %q", ErrInvalidPDF, scanner.Text())
	}

	table := NewXRefTable()
	foundTrailer := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == "trailer" {
			trailer, err := x.parseTrailer(scanner)
			if err != nil {
				return nil, fmt.Errorf("parsing trailer: %w", err)
			}
			table.Trailer = trailer
			foundTrailer = true
			break
		}

		// Subsection header: firstObjNum count
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: bad subsection header %q", ErrInvalidPDF, line)
		}
		first, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%w: bad first object number %q", ErrInvalidPDF, parts[0])
		}
		count, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: bad entry count %q", ErrInvalidPDF, parts[1])
		}

		for i := 0; i < count; i++ {
			if !scanner.Scan() {
				return nil, fmt.Errorf("%w: truncated xref subsection", ErrInvalidPDF)
			}
			entry, err := parseTableEntry(scanner.Text())
			if err != nil {
				return nil, err
			}
			table.Set(first+i, entry)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading xref: %w", err)
	}
	if !foundTrailer {
		return nil, fmt.Errorf("%w: xref table without trailer", ErrInvalidPDF)
	}
	return table, nil
}

// parseTableEntry parses one 20-byte entry line: "nnnnnnnnnn ggggg n|f".
func parseTableEntry(line string) (*XRefEntry, error) {
	if len(line) < 18 {
		return nil, fmt.Errorf("%w: xref entry too short %q", ErrInvalidPDF, line)
	}

	offset, err := strconv.ParseInt(strings.TrimSpace(line[0:10]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad entry offset in %q", ErrInvalidPDF, line)
	}
	gen, err := strconv.Atoi(strings.TrimSpace(line[10:16]))
	if err != nil {
		return nil, fmt.Errorf("%w: bad entry generation in %q", ErrInvalidPDF, line)
	}

	switch strings.TrimSpace(line[16:18]) {
	case "n":
		return &XRefEntry{Type: XRefEntryUncompressed, Offset: offset, Generation: gen, InUse: true}, nil
	case "f":
		return &XRefEntry{Type: XRefEntryFree, Offset: offset, Generation: gen, InUse: false}, nil
	default:
		return nil, fmt.Errorf("%w: bad entry flag in %q", ErrInvalidPDF, line)
	}
}

// parseTrailer reads lines until the trailer dictionary balances, then
// parses it.
func (x *XRefParser) parseTrailer(scanner *bufio.Scanner) (Dict, error) {
	var text strings.Builder
	depth := 0
	for scanner.Scan() {
		line := scanner.Text()
		text.WriteString(line)
		text.WriteString("\n")

		depth += strings.Count(line, "<<") - strings.Count(line, ">>")
		if depth <= 0 && strings.Contains(text.String(), "<<") {
			break
		}
	}

	parser := NewParser(strings.NewReader(text.String()))
	obj, err := parser.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("trailer dictionary: %w", err)
	}
	dict, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("%w: trailer is %T, not a dictionary", ErrInvalidPDF, obj)
	}
	return dict, nil
}

// parseXRefStream parses a cross-reference stream object at the current
// position: the stream dictionary doubles as the trailer.
func (x *XRefParser) parseXRefStream() (*XRefTable, error) {
	parser := NewParser(x.reader)
	indirect, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("xref stream object: %w", err)
	}
	stream, ok := indirect.Object.(*Stream)
	if !ok {
		return nil, fmt.Errorf("%w: xref section object is %T, not a stream", ErrInvalidPDF, indirect.Object)
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("decoding xref stream: %w", err)
	}

	wArr, ok := stream.Dict.GetArray("W")
	if !ok || len(wArr) < 3 {
		return nil, fmt.Errorf("%w: xref stream missing W array", ErrInvalidPDF)
	}
	w := make([]int, len(wArr))
	for i := range wArr {
		n, ok := wArr.GetInt(i)
		if !ok {
			return nil, fmt.Errorf("%w: non-integer in W array", ErrInvalidPDF)
		}
		w[i] = int(n)
	}

	size, ok := stream.Dict.GetInt("Size")
	if !ok {
		return nil, fmt.Errorf("%w: xref stream missing Size", ErrInvalidPDF)
	}

	// Index defaults to [0 Size]
	var index []int
	if idxArr, ok := stream.Dict.GetArray("Index"); ok {
		for i := range idxArr {
			n, ok := idxArr.GetInt(i)
			if !ok {
				return nil, fmt.Errorf("%w: non-integer in Index array", ErrInvalidPDF)
			}
			index = append(index, int(n))
		}
	} else {
		index = []int{0, int(size)}
	}
	if len(index)%2 != 0 {
		return nil, fmt.Errorf("%w: odd Index array length", ErrInvalidPDF)
	}

	table := NewXRefTable()
	table.Trailer = stream.Dict

	pos := 0
	for i := 0; i < len(index); i += 2 {
		first, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			entry, n, err := x.parseXRefStreamEntry(data[pos:], w)
			if err != nil {
				return nil, fmt.Errorf("entry for object %d: %w", first+j, err)
			}
			pos += n
			table.Set(first+j, entry)
		}
	}

	return table, nil
}

// parseXRefStreamEntry decodes one entry from a cross-reference stream using
// the field widths from /W. A zero-width type field defaults to type 1.
// Returns the entry and the number of bytes consumed.
func (x *XRefParser) parseXRefStreamEntry(data []byte, w []int) (*XRefEntry, int, error) {
	need := 0
	for _, width := range w {
		need += width
	}
	if len(data) < need {
		return nil, 0, fmt.Errorf("%w: truncated xref stream entry", ErrInvalidPDF)
	}

	pos := 0
	typ := int64(1)
	if w[0] > 0 {
		typ = readBigEndianInt(data[pos:], w[0])
		pos += w[0]
	}
	field1 := readBigEndianInt(data[pos:], w[1])
	pos += w[1]
	field2 := readBigEndianInt(data[pos:], w[2])
	pos += w[2]

	entry := &XRefEntry{Offset: field1, Generation: int(field2)}
	switch typ {
	case 0:
		entry.Type = XRefEntryFree
		entry.InUse = false
	case 1:
		entry.Type = XRefEntryUncompressed
		entry.InUse = true
	case 2:
		entry.Type = XRefEntryCompressed
		entry.InUse = true
	default:
		// Unknown types are treated as free per the file format's rule
		entry.Type = XRefEntryFree
		entry.InUse = false
	}

	return entry, pos, nil
}

// readBigEndianInt reads a big-endian integer of the given byte width.
// Width zero yields zero.
func readBigEndianInt(data []byte, width int) int64 {
	var v int64
	for i := 0; i < width && i < len(data); i++ {
		v = v<<8 | int64(data[i])
	}
	return v
}

// ParseXRefFromEOF locates the last cross-reference section and parses it.
func (x *XRefParser) ParseXRefFromEOF() (*XRefTable, error) {
	offset, err := x.FindXRef()
	if err != nil {
		return nil, err
	}
	return x.ParseXRef(offset)
}

// ParseAllXRefs parses the newest cross-reference section and follows /Prev
// links through incremental updates, oldest first in the result. Hybrid
// files' /XRefStm sections are folded in as well. Offset cycles terminate
// the walk rather than looping.
func (x *XRefParser) ParseAllXRefs() ([]*XRefTable, error) {
	offset, err := x.FindXRef()
	if err != nil {
		return nil, err
	}

	var tables []*XRefTable
	seen := make(map[int64]bool)

	for {
		if seen[offset] {
			break
		}
		seen[offset] = true

		table, err := x.ParseXRef(offset)
		if err != nil {
			return nil, err
		}
		tables = append([]*XRefTable{table}, tables...)

		// Hybrid-reference files park additional entries in an xref stream
		if stm, ok := table.Trailer.GetInt("XRefStm"); ok && !seen[int64(stm)] {
			seen[int64(stm)] = true
			stmTable, err := x.ParseXRef(int64(stm))
			if err == nil {
				tables = append([]*XRefTable{stmTable}, tables...)
			}
		}

		prev, ok := table.Trailer.GetInt("Prev")
		if !ok {
			break
		}
		offset = int64(prev)
	}

	return tables, nil
}

// MergeXRefTables merges tables oldest-to-newest; later entries win and the
// last trailer is kept.
func MergeXRefTables(tables ...*XRefTable) *XRefTable {
	merged := NewXRefTable()
	for _, t := range tables {
		for objNum, entry := range t.Entries {
			merged.Set(objNum, entry)
		}
		if len(t.Trailer) > 0 {
			merged.Trailer = t.Trailer
		}
	}
	return merged
}
