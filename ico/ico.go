// Package ico reads and writes Windows icon containers. Entries are written
// as PNG payloads; PNG and 24/32-bit BMP payloads are read back.
package ico

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
)

const (
	headerSize = 6
	entrySize  = 16
	maxSide    = 256
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

var ErrFormat = errors.New("ico: invalid format")

func init() {
	image.RegisterFormat("ico", "\x00\x00\x01\x00", Decode, DecodeConfig)
}

type header struct {
	Reserved uint16
	Type     uint16
	Count    uint16
}

type dirEntry struct {
	Width    uint8
	Height   uint8
	Colors   uint8
	Reserved uint8
	Planes   uint16
	BitCount uint16
	Size     uint32
	Offset   uint32
}

func (e dirEntry) dims() (int, int) {
	w, h := int(e.Width), int(e.Height)
	if w == 0 {
		w = maxSide
	}
	if h == 0 {
		h = maxSide
	}
	return w, h
}

// Encode writes images as one icon file. Every image must be at most 256
// pixels on each side.
func Encode(w io.Writer, images []image.Image) error {
	if len(images) == 0 {
		return fmt.Errorf("ico: no images to encode")
	}
	if len(images) > 0xffff {
		return fmt.Errorf("ico: too many images (%d)", len(images))
	}
	payloads := make([][]byte, len(images))
	entries := make([]dirEntry, len(images))
	offset := uint32(headerSize + entrySize*len(images))
	for i, img := range images {
		b := img.Bounds()
		if b.Dx() < 1 || b.Dy() < 1 || b.Dx() > maxSide || b.Dy() > maxSide {
			return fmt.Errorf("ico: image %d is %dx%d, sides must be 1..%d", i, b.Dx(), b.Dy(), maxSide)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return err
		}
		payloads[i] = buf.Bytes()
		entries[i] = dirEntry{
			Width:    uint8(b.Dx() % maxSide),
			Height:   uint8(b.Dy() % maxSide),
			Planes:   1,
			BitCount: 32,
			Size:     uint32(buf.Len()),
			Offset:   offset,
		}
		offset += uint32(buf.Len())
	}

	if err := binary.Write(w, binary.LittleEndian, header{Type: 1, Count: uint16(len(images))}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, entries); err != nil {
		return err
	}
	for _, p := range payloads {
		if _, err := w.Write(p); err != nil {
			return err
		}
	}
	return nil
}

func readDirectory(data []byte) ([]dirEntry, error) {
	r := bytes.NewReader(data)
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, ErrFormat
	}
	if h.Reserved != 0 || h.Type != 1 || h.Count == 0 {
		return nil, ErrFormat
	}
	entries := make([]dirEntry, h.Count)
	if err := binary.Read(r, binary.LittleEndian, entries); err != nil {
		return nil, ErrFormat
	}
	for _, e := range entries {
		if uint64(e.Offset)+uint64(e.Size) > uint64(len(data)) {
			return nil, fmt.Errorf("%w: entry exceeds file size", ErrFormat)
		}
	}
	return entries, nil
}

func largest(entries []dirEntry) int {
	best, bestArea := 0, 0
	for i, e := range entries {
		w, h := e.dims()
		if w*h > bestArea {
			best, bestArea = i, w*h
		}
	}
	return best
}

// DecodeAll returns every entry in directory order.
func DecodeAll(r io.Reader) ([]image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	entries, err := readDirectory(data)
	if err != nil {
		return nil, err
	}
	out := make([]image.Image, 0, len(entries))
	for _, e := range entries {
		img, err := decodeEntry(data[e.Offset : e.Offset+e.Size])
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

// Decode returns the largest entry.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	entries, err := readDirectory(data)
	if err != nil {
		return nil, err
	}
	e := entries[largest(entries)]
	return decodeEntry(data[e.Offset : e.Offset+e.Size])
}

func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return image.Config{}, err
	}
	entries, err := readDirectory(data)
	if err != nil {
		return image.Config{}, err
	}
	w, h := entries[largest(entries)].dims()
	return image.Config{ColorModel: color.NRGBAModel, Width: w, Height: h}, nil
}

func decodeEntry(payload []byte) (image.Image, error) {
	if bytes.HasPrefix(payload, pngMagic) {
		return png.Decode(bytes.NewReader(payload))
	}
	return decodeDIB(payload)
}
