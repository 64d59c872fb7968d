//go:build cgo

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"

	"github.com/nimbusgeo/tdtiles/errs"
)

// decompressZstd expands a Zstandard payload using the cgo-accelerated
// gozstd binding. Same method-code handling as the pure-Go build in
// zstd_pure.go: 0x5D and the legacy 0x17 code both land here.
func decompressZstd(expectedSize int, input []byte) ([]byte, error) {
	out, err := gozstd.Decompress(make([]byte, 0, expectedSize), input)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", errs.ErrDecompressionLengthMismatch, err)
	}

	return checkLength(expectedSize, out)
}
