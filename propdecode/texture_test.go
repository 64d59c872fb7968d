package propdecode

import (
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusgeo/tdtiles/format"
)

func buildMinimalPNG(width, height uint32) []byte {
	buf := make([]byte, 33)
	binary.BigEndian.PutUint32(buf[0:4], 0x89504E47)
	binary.BigEndian.PutUint32(buf[4:8], 0x0D0A1A0A)
	binary.BigEndian.PutUint32(buf[8:12], 13)
	binary.BigEndian.PutUint32(buf[12:16], 0x49484452)
	binary.BigEndian.PutUint32(buf[16:20], width)
	binary.BigEndian.PutUint32(buf[20:24], height)
	return buf
}

func TestSniffImageMimeType_PNG(t *testing.T) {
	assert.Equal(t, "image/png", SniffImageMimeType(buildMinimalPNG(4, 4)))
}

func TestSniffImageMimeType_JPEG(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}
	assert.Equal(t, "image/jpeg", SniffImageMimeType(data))
}

func TestSniffImageMimeType_Unknown(t *testing.T) {
	assert.Equal(t, "", SniffImageMimeType([]byte{0, 0, 0, 0, 0, 0, 0, 0}))
}

func TestImageDimensions_PNG(t *testing.T) {
	w, h, err := ImageDimensions(buildMinimalPNG(64, 32), "image/png")

	require.NoError(t, err)
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)
}

func TestImageDimensions_JPEG(t *testing.T) {
	// SOI, APP0 (skipped), SOF0 with width=10 height=20, 3 components
	data := []byte{
		0xFF, 0xD8, // SOI
		0xFF, 0xE0, 0x00, 0x04, 0x00, 0x00, // APP0, length 4, 2 payload bytes
		0xFF, 0xC0, 0x00, 0x0B, // SOF0, length 11
		0x08,       // bits per component
		0x00, 0x14, // height = 20
		0x00, 0x0A, // width = 10
		0x03, // components
	}

	w, h, err := ImageDimensions(data, "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, 10, w)
	assert.Equal(t, 20, h)
}

func TestImageDimensions_UnsupportedMimeType(t *testing.T) {
	_, _, err := ImageDimensions(nil, "image/ktx2")
	assert.Error(t, err)
}

func TestSamplePropertyTexture(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 100, A: 255})
	img.Set(1, 0, color.RGBA{R: 200, A: 255})

	cols, err := SamplePropertyTexture(TextureSource{Image: img, MimeType: "image/png"}, "r", image.Rect(0, 0, 2, 2), format.UInt8, 0, 1, false)
	require.NoError(t, err)

	assert.Equal(t, 100.0, cols[0][0][0])
	assert.Equal(t, 200.0, cols[1][0][0])
}

func TestSamplePropertyTexture_MultiChannel(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	cols, err := SamplePropertyTexture(TextureSource{Image: img}, "rgb", image.Rect(0, 0, 1, 1), format.UInt8, 0, 1, false)
	require.NoError(t, err)

	assert.Equal(t, []float64{10, 20, 30}, cols[0][0])
}

func TestSamplePropertyTexture_OutOfBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	_, err := SamplePropertyTexture(TextureSource{Image: img}, "r", image.Rect(0, 0, 5, 5), format.UInt8, 0, 1, false)
	assert.Error(t, err)
}

func TestSamplePropertyTexture_NoChannels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	_, err := SamplePropertyTexture(TextureSource{Image: img}, "", image.Rect(0, 0, 2, 2), format.UInt8, 0, 1, false)
	assert.Error(t, err)
}

func TestDecodeImage_PNG(t *testing.T) {
	// 1x1 opaque red PNG (8-bit RGB, zlib-compressed IDAT).
	data := []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53,
		0xDE, 0x00, 0x00, 0x00, 0x0C, 0x49, 0x44, 0x41,
		0x54, 0x08, 0xD7, 0x63, 0xF8, 0xCF, 0xC0, 0x00,
		0x00, 0x03, 0x01, 0x01, 0x00, 0x18, 0xDD, 0x8D,
		0xB0, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4E,
		0x44, 0xAE, 0x42, 0x60, 0x82,
	}

	src, err := DecodeImage(data, "image/png")
	require.NoError(t, err)

	assert.Equal(t, "image/png", src.MimeType)
	r, g, b, _ := src.Image.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
}

func TestDecodeImage_InvalidData(t *testing.T) {
	_, err := DecodeImage([]byte{0, 1, 2, 3}, "image/png")
	assert.Error(t, err)
}
