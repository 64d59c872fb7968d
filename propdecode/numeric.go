// Package propdecode decodes glTF metadata property values out of their
// binary buffer views: scalars, vectors, matrices, packed booleans, enums,
// fixed and dynamic arrays, strings, and property-texture channel samples.
// It is generation-agnostic — callers resolve a property's raw definition
// and buffer views via package metadata first, then hand the decoded bytes
// to the functions here.
package propdecode

import (
	"fmt"
	"math"

	"github.com/nimbusgeo/tdtiles/endian"
	"github.com/nimbusgeo/tdtiles/errs"
	"github.com/nimbusgeo/tdtiles/format"
)

var engine = endian.GetLittleEndianEngine()

// ReadScalarValues decodes count little-endian values of componentType
// starting at data[0].
func ReadScalarValues(componentType format.ComponentType, count int, data []byte) ([]float64, error) {
	size := componentType.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: unhandled scalar component type %q", errs.ErrSchemaError, componentType)
	}

	need := count * size
	if len(data) < need {
		return nil, fmt.Errorf("%w: need %d bytes for %d values of %s, have %d", errs.ErrBufferViewOutOfRange, need, count, componentType, len(data))
	}

	out := make([]float64, count)
	for i := 0; i < count; i++ {
		out[i] = readComponent(componentType, data[i*size:(i+1)*size])
	}
	return out, nil
}

// ReadFixedSizeArrayValues decodes arrayCount elements, each a tuple of
// componentCount values of componentType, i.e. a vector/matrix property or
// a fixed-count numeric array property.
func ReadFixedSizeArrayValues(componentType format.ComponentType, arrayCount, componentCount int, data []byte) ([][]float64, error) {
	size := componentType.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: unhandled array component type %q", errs.ErrSchemaError, componentType)
	}

	elementSize := size * componentCount
	need := arrayCount * elementSize
	if len(data) < need {
		return nil, fmt.Errorf("%w: need %d bytes for %d elements of %d components, have %d", errs.ErrBufferViewOutOfRange, need, arrayCount, componentCount, len(data))
	}

	out := make([][]float64, arrayCount)
	for i := 0; i < arrayCount; i++ {
		row, err := ReadScalarValues(componentType, componentCount, data[i*elementSize:(i+1)*elementSize])
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

// ReadDynamicSizeArrayValues decodes a dynamic (non-fixed-count) numeric
// array property: arrayOffsets has elementCount+1 entries giving byte spans
// into data, each span's componentCount is derived from its length and
// componentType's size.
func ReadDynamicSizeArrayValues(componentType format.ComponentType, arrayOffsets []float64, data []byte) ([][]float64, error) {
	size := componentType.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: unhandled array component type %q", errs.ErrSchemaError, componentType)
	}
	if len(arrayOffsets) < 2 {
		return nil, fmt.Errorf("%w: dynamic array needs at least 2 offsets, got %d", errs.ErrBufferViewOutOfRange, len(arrayOffsets))
	}

	out := make([][]float64, 0, len(arrayOffsets)-1)
	for i := 0; i < len(arrayOffsets)-1; i++ {
		start, end := int(arrayOffsets[i]), int(arrayOffsets[i+1])
		if start < 0 || end > len(data) || start > end {
			return nil, fmt.Errorf("%w: dynamic array span [%d:%d] out of range for %d bytes", errs.ErrBufferViewOutOfRange, start, end, len(data))
		}

		componentCount := (end - start) / size
		row, err := ReadScalarValues(componentType, componentCount, data[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func readComponent(componentType format.ComponentType, b []byte) float64 {
	switch componentType {
	case format.UInt8:
		return float64(b[0])
	case format.Int8:
		return float64(int8(b[0]))
	case format.UInt16:
		return float64(engine.Uint16(b))
	case format.Int16:
		return float64(int16(engine.Uint16(b)))
	case format.UInt32:
		return float64(engine.Uint32(b))
	case format.Int32:
		return float64(int32(engine.Uint32(b)))
	case format.UInt64:
		return float64(engine.Uint64(b))
	case format.Int64:
		return float64(int64(engine.Uint64(b)))
	case format.Float32:
		return float64(math.Float32frombits(engine.Uint32(b)))
	case format.Float64:
		return math.Float64frombits(engine.Uint64(b))
	default:
		return 0
	}
}

// denormalize maps a raw integer componentType value to its normalized
// float range: [0,1] for unsigned types, [-1,1] for signed types (clamped
// at the negative end, matching the one-sided rounding of the max-magnitude
// divisor). Float componentTypes pass through unchanged.
func denormalize(componentType format.ComponentType, raw float64) float64 {
	switch componentType {
	case format.UInt8:
		return raw / 255.0
	case format.Int8:
		return math.Max(raw/127.0, -1.0)
	case format.UInt16:
		return raw / 65535.0
	case format.Int16:
		return math.Max(raw/32767.0, -1.0)
	case format.UInt32:
		return raw / 4294967295.0
	case format.Int32:
		return math.Max(raw/2147483647.0, -1.0)
	case format.UInt64:
		return raw / 18446744073709551615.0
	case format.Int64:
		return math.Max(raw/9223372036854775807.0, -1.0)
	default:
		return raw
	}
}

// ApplyOffsetScale applies the normalize/offset/scale transform spec.md
// 4.I defines for numeric componentTypes: if normalized, raw is first
// mapped through denormalize, then offset+scale*value is returned. offset
// defaults to 0 and scale to 1 at the call site.
func ApplyOffsetScale(componentType format.ComponentType, raw, offset, scale float64, normalized bool) float64 {
	v := raw
	if normalized {
		v = denormalize(componentType, raw)
	}
	return offset + scale*v
}

// ApplyOffsetScaleRows applies ApplyOffsetScale to every value in rows,
// preserving row shape.
func ApplyOffsetScaleRows(componentType format.ComponentType, rows [][]float64, offset, scale float64, normalized bool) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		newRow := make([]float64, len(row))
		for j, v := range row {
			newRow[j] = ApplyOffsetScale(componentType, v, offset, scale, normalized)
		}
		out[i] = newRow
	}
	return out
}
