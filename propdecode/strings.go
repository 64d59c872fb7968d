package propdecode

import (
	"fmt"

	"github.com/nimbusgeo/tdtiles/errs"
	"github.com/nimbusgeo/tdtiles/format"
)

// DecodeStrings decodes elementCount UTF-8 strings out of valuesData, using
// an offsetType-encoded offsets buffer (elementCount+1 entries). If
// offsetData carries more bytes than elementCount+1 offsets need (some
// producers pad the offsets buffer to an alignment boundary), it is
// truncated to the exact length first.
func DecodeStrings(elementCount int, offsetType format.ComponentType, offsetData, valuesData []byte) ([]string, error) {
	numOffsets := elementCount + 1
	typeSize := offsetType.Size()
	if typeSize == 0 {
		return nil, fmt.Errorf("%w: unhandled string offset type %q", errs.ErrSchemaError, offsetType)
	}

	want := numOffsets * typeSize
	if len(offsetData) > want {
		offsetData = offsetData[:want]
	}

	offsets, err := ReadScalarValues(offsetType, numOffsets, offsetData)
	if err != nil {
		return nil, err
	}

	return stringsFromOffsets(offsets, valuesData)
}

// DecodeDynamicStrings decodes a dynamic ARRAY of STRING property: arrayOffsets
// (elementCount+1 entries) partitions the string-offset buffer into
// per-element spans; within each span the string-offset buffer resolves
// UTF-8 byte ranges into valuesData exactly like DecodeStrings.
func DecodeDynamicStrings(arrayOffsets []float64, stringOffsets []float64, valuesData []byte) ([][]string, error) {
	if len(arrayOffsets) < 2 {
		return nil, fmt.Errorf("%w: dynamic string array needs at least 2 offsets, got %d", errs.ErrBufferViewOutOfRange, len(arrayOffsets))
	}

	out := make([][]string, 0, len(arrayOffsets)-1)
	for i := 0; i < len(arrayOffsets)-1; i++ {
		lo, hi := int(arrayOffsets[i]), int(arrayOffsets[i+1])
		if lo < 0 || hi > len(stringOffsets)-1 || lo > hi {
			return nil, fmt.Errorf("%w: array span [%d:%d] out of range for %d string offsets", errs.ErrBufferViewOutOfRange, lo, hi, len(stringOffsets))
		}

		row, err := stringsFromOffsets(stringOffsets[lo:hi+1], valuesData)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func stringsFromOffsets(offsets []float64, data []byte) ([]string, error) {
	out := make([]string, 0, len(offsets)-1)
	for i := 0; i < len(offsets)-1; i++ {
		start, end := int(offsets[i]), int(offsets[i+1])
		if start < 0 || end > len(data) || start > end {
			return nil, fmt.Errorf("%w: string span [%d:%d] out of range for %d bytes", errs.ErrBufferViewOutOfRange, start, end, len(data))
		}
		out = append(out, string(data[start:end]))
	}
	return out, nil
}
