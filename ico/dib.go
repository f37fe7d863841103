package ico

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
)

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// decodeDIB reads an uncompressed bottom-up 24 or 32-bit bitmap whose
// height covers both the colour rows and the 1-bit AND mask.
func decodeDIB(payload []byte) (image.Image, error) {
	var h bitmapInfoHeader
	if err := binary.Read(bytes.NewReader(payload), binary.LittleEndian, &h); err != nil {
		return nil, ErrFormat
	}
	if h.Compression != 0 {
		return nil, fmt.Errorf("%w: compressed bitmap entries are not supported", ErrFormat)
	}
	if h.BitCount != 24 && h.BitCount != 32 {
		return nil, fmt.Errorf("%w: %d-bit bitmap entries are not supported", ErrFormat, h.BitCount)
	}
	w := int(h.Width)
	ht := int(h.Height) / 2
	if w <= 0 || ht <= 0 || w > maxSide || ht > maxSide {
		return nil, ErrFormat
	}

	if int(h.Size) < 40 || int(h.Size) > len(payload) {
		return nil, ErrFormat
	}

	bpp := int(h.BitCount) / 8
	stride := (w*bpp + 3) &^ 3
	maskStride := ((w + 31) / 32) * 4
	pixels := payload[h.Size:]
	if len(pixels) < stride*ht {
		return nil, fmt.Errorf("%w: truncated bitmap", ErrFormat)
	}
	var mask []byte
	if len(pixels) >= stride*ht+maskStride*ht {
		mask = pixels[stride*ht:]
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, ht))
	for y := 0; y < ht; y++ {
		row := pixels[(ht-1-y)*stride:]
		for x := 0; x < w; x++ {
			p := row[x*bpp:]
			a := uint8(0xff)
			if bpp == 4 {
				a = p[3]
			} else if mask != nil {
				bit := mask[(ht-1-y)*maskStride+x/8] & (0x80 >> uint(x%8))
				if bit != 0 {
					a = 0
				}
			}
			img.SetNRGBA(x, y, color.NRGBA{R: p[2], G: p[1], B: p[0], A: a})
		}
	}
	return img, nil
}
