package reader

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/tsawler/accessify/core"
)

// ImagePayload is decoded image content ready to place on a render canvas.
// Format names the registration type the canvas understands: "JPG" for
// pass-through JPEG data, "PNG" for pixel data re-encoded from raw rasters.
type ImagePayload struct {
	Object int
	Format string
	Width  int
	Height int
	Data   []byte
}

// rawImage carries decoded pixel data on its way to PNG encoding.
type rawImage struct {
	width      int
	height     int
	bpc        int
	colorSpace string // DeviceGray, DeviceRGB or DeviceCMYK
	data       []byte
}

// LoadImage loads the image XObject with the given object number and
// converts its content to a placeable payload. JPEG-compressed streams pass
// through unchanged; other supported encodings are decoded to pixels and
// re-wrapped as PNG. JPEG 2000 content is reported as unsupported.
func (r *Reader) LoadImage(objNum int) (*ImagePayload, error) {
	obj, err := r.GetObject(objNum)
	if err != nil {
		return nil, err
	}

	stream, ok := obj.(*core.Stream)
	if !ok {
		return nil, fmt.Errorf("object %d is %T, not an image stream", objNum, obj)
	}
	if subtype, _ := stream.Dict.GetName("Subtype"); string(subtype) != "Image" {
		return nil, fmt.Errorf("object %d is not an image XObject", objNum)
	}

	widthInt, wok := stream.Dict.GetInt("Width")
	heightInt, hok := stream.Dict.GetInt("Height")
	if !wok || !hok || widthInt <= 0 || heightInt <= 0 {
		return nil, fmt.Errorf("image %d has invalid dimensions", objNum)
	}
	width, height := int(widthInt), int(heightInt)

	for _, filter := range stream.FilterNames() {
		switch filter {
		case "DCTDecode", "DCT":
			data, err := stream.Decode()
			if err != nil {
				return nil, fmt.Errorf("decode image %d: %w", objNum, err)
			}
			return &ImagePayload{Object: objNum, Format: "JPG", Width: width, Height: height, Data: data}, nil
		case "JPXDecode":
			return nil, fmt.Errorf("image %d: %w: JPXDecode", objNum, core.ErrUnsupportedFilter)
		}
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode image %d: %w", objNum, err)
	}

	bpc := 8
	if v, ok := stream.Dict.GetInt("BitsPerComponent"); ok {
		bpc = int(v)
	}
	// Stencil masks have no color space and are always one bit deep
	if mask, ok := stream.Dict.GetBool("ImageMask"); ok && bool(mask) {
		bpc = 1
	}

	raw := &rawImage{width: width, height: height, bpc: bpc, colorSpace: "DeviceGray", data: data}

	if csObj := stream.Dict.Get("ColorSpace"); csObj != nil {
		if err := r.applyColorSpace(raw, csObj); err != nil {
			return nil, fmt.Errorf("image %d: %w", objNum, err)
		}
	}

	pngData, err := raw.toPNG()
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", objNum, err)
	}

	return &ImagePayload{Object: objNum, Format: "PNG", Width: width, Height: height, Data: pngData}, nil
}

// applyColorSpace canonicalizes the stream's color space onto the raw
// image, expanding indexed palettes into direct pixel data.
func (r *Reader) applyColorSpace(raw *rawImage, csObj core.Object) error {
	resolved, err := r.Resolve(csObj)
	if err != nil {
		return fmt.Errorf("resolve color space: %w", err)
	}

	switch cs := resolved.(type) {
	case core.Name:
		name, err := canonicalSpaceName(string(cs))
		if err != nil {
			return err
		}
		raw.colorSpace = name
		return nil

	case core.Array:
		if len(cs) == 0 {
			return fmt.Errorf("empty color space array")
		}
		family, _ := cs[0].(core.Name)
		switch string(family) {
		case "ICCBased":
			if len(cs) < 2 {
				return fmt.Errorf("ICCBased color space without profile")
			}
			name, err := r.iccSpaceName(cs[1])
			if err != nil {
				return err
			}
			raw.colorSpace = name
			return nil
		case "Indexed", "I":
			return r.expandIndexed(raw, cs)
		case "CalGray":
			raw.colorSpace = "DeviceGray"
			return nil
		case "CalRGB":
			raw.colorSpace = "DeviceRGB"
			return nil
		}
		return fmt.Errorf("unsupported color space family %s", family)
	}

	return fmt.Errorf("unsupported color space %T", resolved)
}

func canonicalSpaceName(name string) (string, error) {
	switch name {
	case "DeviceGray", "CalGray", "G":
		return "DeviceGray", nil
	case "DeviceRGB", "CalRGB", "RGB":
		return "DeviceRGB", nil
	case "DeviceCMYK", "CMYK":
		return "DeviceCMYK", nil
	}
	return "", fmt.Errorf("unsupported color space %s", name)
}

// iccSpaceName maps an ICC profile stream to a device space by its /N
// component count.
func (r *Reader) iccSpaceName(obj core.Object) (string, error) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return "", fmt.Errorf("resolve ICC profile: %w", err)
	}
	stream, ok := resolved.(*core.Stream)
	if !ok {
		return "", fmt.Errorf("ICC profile is %T, not a stream", resolved)
	}

	n, _ := stream.Dict.GetInt("N")
	switch int(n) {
	case 1:
		return "DeviceGray", nil
	case 3:
		return "DeviceRGB", nil
	case 4:
		return "DeviceCMYK", nil
	}
	return "", fmt.Errorf("ICC profile with unsupported component count %d", int(n))
}

// expandIndexed replaces palette indices with direct pixel values. The
// lookup table may be a string or a stream.
func (r *Reader) expandIndexed(raw *rawImage, cs core.Array) error {
	if len(cs) < 4 {
		return fmt.Errorf("indexed color space needs base, hival and lookup")
	}

	baseObj, err := r.Resolve(cs[1])
	if err != nil {
		return fmt.Errorf("resolve indexed base: %w", err)
	}

	var base string
	switch b := baseObj.(type) {
	case core.Name:
		base, err = canonicalSpaceName(string(b))
		if err != nil {
			return err
		}
	case core.Array:
		if len(b) >= 2 {
			if family, ok := b[0].(core.Name); ok && string(family) == "ICCBased" {
				base, err = r.iccSpaceName(b[1])
				if err != nil {
					return err
				}
			}
		}
		if base == "" {
			return fmt.Errorf("unsupported indexed base color space")
		}
	default:
		return fmt.Errorf("unsupported indexed base %T", baseObj)
	}

	components := 1
	switch base {
	case "DeviceRGB":
		components = 3
	case "DeviceCMYK":
		components = 4
	}

	palette, err := r.lookupBytes(cs[3])
	if err != nil {
		return err
	}
	if len(palette) < components {
		return fmt.Errorf("palette too short: %d bytes", len(palette))
	}
	maxIndex := len(palette)/components - 1

	indices, err := unpackIndices(raw.data, raw.width, raw.height, raw.bpc)
	if err != nil {
		return err
	}

	out := make([]byte, raw.width*raw.height*components)
	for i, idx := range indices {
		// Out-of-range indices clamp to the last palette entry
		if int(idx) > maxIndex {
			idx = byte(maxIndex)
		}
		copy(out[i*components:], palette[int(idx)*components:(int(idx)+1)*components])
	}

	raw.data = out
	raw.bpc = 8
	raw.colorSpace = base
	return nil
}

// lookupBytes extracts palette bytes from a string or stream lookup object.
func (r *Reader) lookupBytes(obj core.Object) ([]byte, error) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("resolve palette: %w", err)
	}

	switch v := resolved.(type) {
	case core.String:
		return []byte(v), nil
	case *core.Stream:
		data, err := v.Decode()
		if err != nil {
			return nil, fmt.Errorf("decode palette: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("unsupported palette type %T", resolved)
}

// unpackIndices widens bit-packed palette indices to one byte each. Rows
// are padded to a byte boundary, most significant bits first.
func unpackIndices(data []byte, width, height, bpc int) ([]byte, error) {
	if bpc == 8 {
		expected := width * height
		if len(data) < expected {
			return nil, fmt.Errorf("insufficient indexed data: got %d, expected %d", len(data), expected)
		}
		return data[:expected], nil
	}
	if bpc != 1 && bpc != 2 && bpc != 4 {
		return nil, fmt.Errorf("unsupported indexed bit depth %d", bpc)
	}

	bytesPerRow := (width*bpc + 7) / 8
	if len(data) < bytesPerRow*height {
		return nil, fmt.Errorf("insufficient indexed data: got %d, expected %d", len(data), bytesPerRow*height)
	}

	mask := byte((1 << bpc) - 1)
	out := make([]byte, 0, width*height)
	for y := 0; y < height; y++ {
		row := data[y*bytesPerRow:]
		for x := 0; x < width; x++ {
			bitPos := x * bpc
			shift := 8 - bpc - bitPos%8
			out = append(out, (row[bitPos/8]>>shift)&mask)
		}
	}
	return out, nil
}

func (raw *rawImage) toPNG() ([]byte, error) {
	var img image.Image
	var err error

	switch raw.colorSpace {
	case "DeviceGray":
		img, err = raw.toGray()
	case "DeviceRGB":
		img, err = raw.toRGB()
	case "DeviceCMYK":
		img, err = raw.toCMYK()
	default:
		err = fmt.Errorf("unsupported color space %s", raw.colorSpace)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (raw *rawImage) toGray() (*image.Gray, error) {
	switch raw.bpc {
	case 1:
		return raw.toBilevelGray()
	case 4:
		return raw.to4BitGray()
	case 8:
		img := image.NewGray(image.Rect(0, 0, raw.width, raw.height))
		expected := raw.width * raw.height
		if len(raw.data) < expected {
			return nil, fmt.Errorf("insufficient gray data: got %d, expected %d", len(raw.data), expected)
		}
		copy(img.Pix, raw.data[:expected])
		return img, nil
	}
	return nil, fmt.Errorf("unsupported gray bit depth %d", raw.bpc)
}

// toBilevelGray widens one-bit data to 8-bit grayscale. Zero bits render
// black, matching the PDF default where BlackIs1 is unset.
func (raw *rawImage) toBilevelGray() (*image.Gray, error) {
	img := image.NewGray(image.Rect(0, 0, raw.width, raw.height))

	bytesPerRow := (raw.width + 7) / 8
	if len(raw.data) < bytesPerRow*raw.height {
		return nil, fmt.Errorf("insufficient bilevel data: got %d, expected %d", len(raw.data), bytesPerRow*raw.height)
	}

	for y := 0; y < raw.height; y++ {
		rowStart := y * bytesPerRow
		for x := 0; x < raw.width; x++ {
			bit := (raw.data[rowStart+x/8] >> (7 - x%8)) & 1
			if bit == 0 {
				img.Pix[y*raw.width+x] = 0
			} else {
				img.Pix[y*raw.width+x] = 255
			}
		}
	}
	return img, nil
}

func (raw *rawImage) to4BitGray() (*image.Gray, error) {
	img := image.NewGray(image.Rect(0, 0, raw.width, raw.height))

	bytesPerRow := (raw.width + 1) / 2
	if len(raw.data) < bytesPerRow*raw.height {
		return nil, fmt.Errorf("insufficient 4-bit gray data: got %d, expected %d", len(raw.data), bytesPerRow*raw.height)
	}

	for y := 0; y < raw.height; y++ {
		rowStart := y * bytesPerRow
		for x := 0; x < raw.width; x++ {
			var nibble byte
			if x%2 == 0 {
				nibble = (raw.data[rowStart+x/2] >> 4) & 0x0F
			} else {
				nibble = raw.data[rowStart+x/2] & 0x0F
			}
			// Scale 0..15 to 0..255
			img.Pix[y*raw.width+x] = nibble * 17
		}
	}
	return img, nil
}

func (raw *rawImage) toRGB() (*image.RGBA, error) {
	if raw.bpc != 8 {
		return nil, fmt.Errorf("unsupported RGB bit depth %d", raw.bpc)
	}

	img := image.NewRGBA(image.Rect(0, 0, raw.width, raw.height))

	expected := raw.width * raw.height * 3
	if len(raw.data) < expected {
		return nil, fmt.Errorf("insufficient RGB data: got %d, expected %d", len(raw.data), expected)
	}

	for i := 0; i < raw.width*raw.height; i++ {
		src := i * 3
		dst := i * 4
		img.Pix[dst+0] = raw.data[src+0]
		img.Pix[dst+1] = raw.data[src+1]
		img.Pix[dst+2] = raw.data[src+2]
		img.Pix[dst+3] = 255
	}
	return img, nil
}

func (raw *rawImage) toCMYK() (*image.RGBA, error) {
	if raw.bpc != 8 {
		return nil, fmt.Errorf("unsupported CMYK bit depth %d", raw.bpc)
	}

	img := image.NewRGBA(image.Rect(0, 0, raw.width, raw.height))

	expected := raw.width * raw.height * 4
	if len(raw.data) < expected {
		return nil, fmt.Errorf("insufficient CMYK data: got %d, expected %d", len(raw.data), expected)
	}

	for i := 0; i < raw.width*raw.height; i++ {
		src := i * 4
		rr, gg, bb := color.CMYKToRGB(raw.data[src+0], raw.data[src+1], raw.data[src+2], raw.data[src+3])
		dst := i * 4
		img.Pix[dst+0] = rr
		img.Pix[dst+1] = gg
		img.Pix[dst+2] = bb
		img.Pix[dst+3] = 255
	}
	return img, nil
}
