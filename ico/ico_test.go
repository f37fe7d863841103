package ico

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(side int, c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, []image.Image{square(256, red), square(16, red), square(48, red)}))

	imgs, err := DecodeAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, imgs, 3)
	assert.Equal(t, 256, imgs[0].Bounds().Dx())
	assert.Equal(t, 16, imgs[1].Bounds().Dx())

	cfg, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "ico", format)
	assert.Equal(t, 256, cfg.Width)

	img, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	r, _, _, a := img.At(10, 10).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), a)
}

func TestEncodeRejectsOversize(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Encode(&buf, []image.Image{square(300, color.NRGBA{})}))
	assert.Error(t, Encode(&buf, nil))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an icon at all")))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDecodeBitmapEntry(t *testing.T) {
	const side = 2
	var dib bytes.Buffer
	require.NoError(t, binary.Write(&dib, binary.LittleEndian, bitmapInfoHeader{
		Size: 40, Width: side, Height: side * 2, Planes: 1, BitCount: 32,
	}))
	// bottom row first: blue, blue / top row: green (transparent), green
	dib.Write([]byte{255, 0, 0, 255, 255, 0, 0, 255})
	dib.Write([]byte{0, 255, 0, 0, 0, 255, 0, 255})

	var file bytes.Buffer
	require.NoError(t, binary.Write(&file, binary.LittleEndian, header{Type: 1, Count: 1}))
	require.NoError(t, binary.Write(&file, binary.LittleEndian, dirEntry{
		Width: side, Height: side, Planes: 1, BitCount: 32,
		Size: uint32(dib.Len()), Offset: headerSize + entrySize,
	}))
	file.Write(dib.Bytes())

	img, err := Decode(bytes.NewReader(file.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{G: 255, A: 0}, img.At(0, 0))
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, img.At(1, 0))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, img.At(0, 1))
}
