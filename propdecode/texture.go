package propdecode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nimbusgeo/tdtiles/errs"
	"github.com/nimbusgeo/tdtiles/format"
)

// SniffImageMimeType identifies an image buffer's MIME type from its magic
// bytes: PNG (0x89504E47 0x0D0A1A0A) or JPEG (SOI marker 0xFFD8FFE0..).
// Returns "" if neither magic matches.
func SniffImageMimeType(data []byte) string {
	if len(data) < 8 {
		return ""
	}

	if engine.Uint32(data[0:4]) == 0x474E5089 && engine.Uint32(data[4:8]) == 0x0A1A0A0D {
		return "image/png"
	}
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	return ""
}

// ImageDimensions returns an image's pixel width and height from its
// compressed bytes and MIME type, without decoding pixel data. Supports
// image/png (fixed IHDR layout) and image/jpeg (scans markers for the first
// SOF0 segment; other SOFn markers, such as progressive SOF2, are skipped
// like any other segment).
func ImageDimensions(data []byte, mimeType string) (width, height int, err error) {
	switch mimeType {
	case "image/png":
		return pngDimensions(data)
	case "image/jpeg":
		return jpegDimensions(data)
	default:
		return 0, 0, fmt.Errorf("%w: unhandled image mime type %q", errs.ErrSchemaError, mimeType)
	}
}

func pngDimensions(data []byte) (int, int, error) {
	if len(data) < 33 {
		return 0, 0, fmt.Errorf("%w: png buffer too short", errs.ErrBufferViewOutOfRange)
	}

	chunkLen := beUint32(data[8:12])
	chunkType := beUint32(data[12:16])
	if chunkLen != 13 || chunkType != 0x49484452 {
		return 0, 0, fmt.Errorf("%w: invalid IHDR chunk", errs.ErrSchemaError)
	}

	w := int(beUint32(data[16:20]))
	h := int(beUint32(data[20:24]))
	return w, h, nil
}

func jpegDimensions(data []byte) (int, int, error) {
	i := 0
	for i < len(data) {
		for i < len(data) && data[i] == 0xFF {
			i++
		}
		if i >= len(data) {
			break
		}
		marker := data[i]
		i++

		if marker == 0xD8 || marker == 0x01 || (marker > 0xD0 && marker <= 0xD7) {
			continue
		}
		if marker == 0xD9 {
			break
		}

		if i+2 > len(data) {
			return 0, 0, fmt.Errorf("%w: jpeg buffer too short to read segment length", errs.ErrBufferViewOutOfRange)
		}
		length := int(beUint16(data[i : i+2]))
		i += 2

		if marker == 0xC0 {
			// payload: precision(1) height(2) width(2) numComponents(1)
			if i+5 > len(data) {
				return 0, 0, fmt.Errorf("%w: jpeg buffer too short to read SOF segment", errs.ErrBufferViewOutOfRange)
			}
			h := int(beUint16(data[i+1 : i+3]))
			w := int(beUint16(data[i+3 : i+5]))
			return w, h, nil
		}

		i += length - 2
	}
	return 0, 0, fmt.Errorf("%w: no SOF segment found in jpeg", errs.ErrSchemaError)
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func beUint16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

// TextureSource is the channel-sampleable source a property texture's
// "source" image resolves to: a fully decoded image ready for per-pixel
// channel access.
type TextureSource struct {
	Image    image.Image
	MimeType string
}

// DecodeImage decodes data (the raw bytes ImageSource/TextureImageSource
// resolved) into pixel-addressable form via the standard library's
// image/png and image/jpeg decoders (blank-imported above to register
// themselves with the image package).
func DecodeImage(data []byte, mimeType string) (TextureSource, error) {
	img, decodedFormat, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return TextureSource{}, fmt.Errorf("%w: decoding %s image: %v", errs.ErrSchemaError, mimeType, err)
	}
	if mimeType == "" {
		mimeType = "image/" + decodedFormat
	}
	return TextureSource{Image: img, MimeType: mimeType}, nil
}

func channelValue(px color.Color, letter byte) (float64, error) {
	r, g, b, a := px.RGBA()
	switch letter {
	case 'r':
		return float64(r >> 8), nil
	case 'g':
		return float64(g >> 8), nil
	case 'b':
		return float64(b >> 8), nil
	case 'a':
		return float64(a >> 8), nil
	default:
		return 0, fmt.Errorf("%w: unknown texture channel %q", errs.ErrSchemaError, string(letter))
	}
}

// SamplePropertyTexture samples src's image over rect, reading channels (one
// or more of "r","g","b","a", the normalized channelLetters shape) at every
// pixel and applying the numeric normalize/offset/scale transform to each.
// The result is indexed [x-rect.Min.X][y-rect.Min.Y][channel index]. rect is
// caller-provided — there is no hard sampling cap baked into this function;
// callers needing an interactive preview should bound rect themselves (e.g.
// to 4x4 or 256 pixels total).
func SamplePropertyTexture(src TextureSource, channels string, rect image.Rectangle, componentType format.ComponentType, offset, scale float64, normalized bool) ([][][]float64, error) {
	if channels == "" {
		return nil, fmt.Errorf("%w: property texture property has no channels", errs.ErrSchemaError)
	}

	bounds := src.Image.Bounds()
	if !rect.In(bounds) {
		return nil, fmt.Errorf("%w: sample rectangle %v exceeds image bounds %v", errs.ErrBufferViewOutOfRange, rect, bounds)
	}

	cols := make([][][]float64, rect.Dx())
	for x := rect.Min.X; x < rect.Max.X; x++ {
		rows := make([][]float64, rect.Dy())
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			px := src.Image.At(x, y)
			values := make([]float64, len(channels))
			for i := 0; i < len(channels); i++ {
				raw, err := channelValue(px, channels[i])
				if err != nil {
					return nil, err
				}
				values[i] = ApplyOffsetScale(componentType, raw, offset, scale, normalized)
			}
			rows[y-rect.Min.Y] = values
		}
		cols[x-rect.Min.X] = rows
	}
	return cols, nil
}
