package core

import (
	"bytes"
	"fmt"
)

// ObjectStream gives access to the objects packed inside a /Type /ObjStm
// stream. The decoded payload starts with N pairs of plain-text integers
// (object number, byte offset) followed by the object bodies; /First marks
// where the bodies begin.
type ObjectStream struct {
	stream  *Stream
	n       int
	first   int
	extends *IndirectRef

	decoded []byte
	numbers []int       // object number per index
	offsets []int       // body offset per index, relative to first
	byNum   map[int]int // object number -> index
	cache   map[int]Object
}

// NewObjectStream validates the stream dictionary and wraps the stream.
// Decoding is deferred until an object is requested.
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if stream == nil {
		return nil, fmt.Errorf("%w: nil object stream", ErrInvalidPDF)
	}
	if typ, ok := stream.Dict.GetName("Type"); !ok || typ != "ObjStm" {
		return nil, fmt.Errorf("%w: stream type is not ObjStm", ErrInvalidPDF)
	}

	n, ok := stream.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("%w: object stream has bad N", ErrInvalidPDF)
	}
	first, ok := stream.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, fmt.Errorf("%w: object stream has bad First", ErrInvalidPDF)
	}

	var extends *IndirectRef
	if obj := stream.Dict.Get("Extends"); obj != nil {
		ref, ok := obj.(IndirectRef)
		if !ok {
			return nil, fmt.Errorf("%w: object stream Extends is %T", ErrInvalidPDF, obj)
		}
		extends = &ref
	}

	return &ObjectStream{
		stream:  stream,
		n:       int(n),
		first:   int(first),
		extends: extends,
		cache:   make(map[int]Object),
	}, nil
}

// N returns the number of objects in the stream.
func (os *ObjectStream) N() int { return os.n }

// First returns the byte offset where object bodies begin.
func (os *ObjectStream) First() int { return os.first }

// Extends returns the reference to an extended object stream, or nil.
func (os *ObjectStream) Extends() *IndirectRef { return os.extends }

// decode decompresses the payload and indexes the header pairs. Runs once.
func (os *ObjectStream) decode() error {
	if os.decoded != nil {
		return nil
	}

	data, err := os.stream.Decode()
	if err != nil {
		return fmt.Errorf("decoding object stream: %w", err)
	}
	if os.first > len(data) {
		return fmt.Errorf("%w: First %d beyond %d decoded bytes", ErrInvalidPDF, os.first, len(data))
	}

	parser := NewParser(bytes.NewReader(data[:os.first]))
	numbers := make([]int, 0, os.n)
	offsets := make([]int, 0, os.n)
	byNum := make(map[int]int, os.n)

	for i := 0; i < os.n; i++ {
		numObj, err := parser.ParseObject()
		if err != nil {
			return fmt.Errorf("header pair %d: %w", i, err)
		}
		offObj, err := parser.ParseObject()
		if err != nil {
			return fmt.Errorf("header pair %d: %w", i, err)
		}
		num, ok1 := numObj.(Int)
		off, ok2 := offObj.(Int)
		if !ok1 || !ok2 {
			return fmt.Errorf("%w: non-integer header pair %d", ErrInvalidPDF, i)
		}
		byNum[int(num)] = i
		numbers = append(numbers, int(num))
		offsets = append(offsets, int(off))
	}

	os.decoded = data
	os.numbers = numbers
	os.offsets = offsets
	os.byNum = byNum
	return nil
}

// GetObjectByIndex parses the object at a 0-based header index. Returns the
// object and its object number.
func (os *ObjectStream) GetObjectByIndex(index int) (Object, int, error) {
	if err := os.decode(); err != nil {
		return nil, 0, err
	}
	if index < 0 || index >= len(os.offsets) {
		return nil, 0, fmt.Errorf("object stream index %d out of range [0, %d)", index, len(os.offsets))
	}

	if obj, ok := os.cache[index]; ok {
		return obj, os.numbers[index], nil
	}

	start := os.first + os.offsets[index]
	end := len(os.decoded)
	if index+1 < len(os.offsets) {
		end = os.first + os.offsets[index+1]
	}
	if start >= len(os.decoded) {
		return nil, 0, fmt.Errorf("%w: object offset %d beyond stream data", ErrInvalidPDF, start)
	}
	if end > len(os.decoded) {
		end = len(os.decoded)
	}

	parser := NewParser(bytes.NewReader(os.decoded[start:end]))
	obj, err := parser.ParseObject()
	if err != nil {
		return nil, 0, fmt.Errorf("object at stream index %d: %w", index, err)
	}

	os.cache[index] = obj
	return obj, os.numbers[index], nil
}

// GetObjectByNumber parses the object with the given object number. Returns
// the object and its index within the stream.
func (os *ObjectStream) GetObjectByNumber(objNum int) (Object, int, error) {
	if err := os.decode(); err != nil {
		return nil, 0, err
	}
	index, ok := os.byNum[objNum]
	if !ok {
		return nil, 0, fmt.Errorf("%w: object %d not in object stream", ErrObjectNotFound, objNum)
	}
	obj, _, err := os.GetObjectByIndex(index)
	return obj, index, err
}

// ObjectNumbers lists the object numbers stored in the stream.
func (os *ObjectStream) ObjectNumbers() ([]int, error) {
	if err := os.decode(); err != nil {
		return nil, err
	}
	out := make([]int, len(os.numbers))
	copy(out, os.numbers)
	return out, nil
}
