package core

import (
	"fmt"

	"github.com/tsawler/accessify/internal/filters"
)

// Stream represents a PDF stream object: a dictionary plus raw encoded bytes.
type Stream struct {
	Dict Dict
	Data []byte
}

func (s *Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict.String(), len(s.Data))
}

// FilterNames returns the stream's filter chain in application order.
// A missing Filter entry yields an empty slice.
func (s *Stream) FilterNames() []string {
	switch f := s.Dict.Get("Filter").(type) {
	case Name:
		return []string{string(f)}
	case Array:
		names := make([]string, 0, len(f))
		for _, obj := range f {
			if n, ok := obj.(Name); ok {
				names = append(names, string(n))
			}
		}
		return names
	default:
		return nil
	}
}

// Decode decodes the stream data according to the Filter entry in the stream
// dictionary, applying filter chains in order. DCTDecode and JPXDecode data
// passes through unchanged (the image layer consumes it in its compressed
// form). Returns ErrUnsupportedFilter (wrapped) for filters this reader does
// not implement.
func (s *Stream) Decode() ([]byte, error) {
	filterObj := s.Dict.Get("Filter")
	if filterObj == nil {
		return s.Data, nil
	}

	paramsObj := s.Dict.Get("DecodeParms")

	if name, ok := filterObj.(Name); ok {
		return decodeWithFilter(s.Data, string(name), paramsDict(paramsObj))
	}

	if chain, ok := filterObj.(Array); ok {
		data := s.Data
		for i, f := range chain {
			name, ok := f.(Name)
			if !ok {
				return nil, fmt.Errorf("filter %d is not a name: %T", i, f)
			}

			// DecodeParms may be a parallel array or a single dict
			var params Dict
			if parr, ok := paramsObj.(Array); ok {
				if i < len(parr) {
					params = paramsDict(parr[i])
				}
			} else {
				params = paramsDict(paramsObj)
			}

			var err error
			data, err = decodeWithFilter(data, string(name), params)
			if err != nil {
				return nil, fmt.Errorf("filter %d (%s): %w", i, name, err)
			}
		}
		return data, nil
	}

	return nil, fmt.Errorf("invalid Filter type: %T", filterObj)
}

// decodeWithFilter applies one named filter to data.
func decodeWithFilter(data []byte, name string, params Dict) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		return filters.FlateDecode(data, dictToParams(params))

	case "ASCIIHexDecode", "AHx":
		return filters.ASCIIHexDecode(data)

	case "ASCII85Decode", "A85":
		return filters.ASCII85Decode(data)

	case "RunLengthDecode", "RL":
		return filters.RunLengthDecode(data)

	case "CCITTFaxDecode", "CCF":
		return filters.CCITTFaxDecode(data, dictToParams(params))

	case "DCTDecode", "DCT":
		// JPEG: consumed compressed downstream
		return data, nil

	case "JPXDecode":
		// JPEG2000: same treatment as DCT
		return data, nil

	case "LZWDecode", "LZW", "JBIG2Decode", "Crypt":
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, name)

	default:
		return nil, fmt.Errorf("%w: unknown filter %s", ErrUnsupportedFilter, name)
	}
}

// paramsDict normalizes a DecodeParms object to a Dict; nil and Null both
// mean no parameters.
func paramsDict(obj Object) Dict {
	if d, ok := obj.(Dict); ok {
		return d
	}
	return nil
}

// dictToParams translates a core.Dict to filters.Params, converting PDF
// objects to Go primitives.
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}

	params := make(filters.Params)
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = string(obj)
		case Name:
			params[k] = string(obj)
		default:
			params[k] = v
		}
	}
	return params
}
