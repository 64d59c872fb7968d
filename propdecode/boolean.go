package propdecode

import (
	"fmt"
	"math"

	"github.com/nimbusgeo/tdtiles/errs"
)

// DecodeBooleans unpacks elementCount packed bits, little-endian within
// each byte: bit i is (data[i/8] >> (i%8)) & 1.
func DecodeBooleans(elementCount int, data []byte) ([]bool, error) {
	need := int(math.Ceil(float64(elementCount) / 8))
	if len(data) < need {
		return nil, fmt.Errorf("%w: need %d bytes for %d booleans, have %d", errs.ErrBufferViewOutOfRange, need, elementCount, len(data))
	}

	out := make([]bool, elementCount)
	for i := 0; i < elementCount; i++ {
		byteIndex, bitIndex := i/8, i%8
		out[i] = (data[byteIndex]>>bitIndex)&1 == 1
	}
	return out, nil
}

// DecodeBooleanArray unpacks elementCount rows of componentCount packed
// bits each, i.e. a BOOLEAN property nested in a fixed-count ARRAY.
func DecodeBooleanArray(elementCount, componentCount int, data []byte) ([][]bool, error) {
	flat, err := DecodeBooleans(elementCount*componentCount, data)
	if err != nil {
		return nil, err
	}

	out := make([][]bool, elementCount)
	for i := 0; i < elementCount; i++ {
		out[i] = flat[i*componentCount : (i+1)*componentCount]
	}
	return out, nil
}
