// Package compress implements the fixed decompression contract the 3TZ and
// GLB formats are read against: a fixed-size method code selects Store,
// Deflate, or one of the two Zstandard variants, and the caller always
// already knows the exact uncompressed size from the ZIP local file header
// or 3TZ index.
//
// There is no compression side: every compressed byte stream this module
// reads was produced by some other tool ahead of time, so Decompress is the
// only operation the archive, GLB, and subtree readers need.
package compress

import (
	"fmt"

	"github.com/nimbusgeo/tdtiles/errs"
	"github.com/nimbusgeo/tdtiles/format"
)

// Decompress expands input, compressed with method, into exactly
// expectedSize bytes. expectedSize is the authoritative output length taken
// from the 3TZ index or ZIP local file header. The Deflate path and the
// pure-Go zstd build stop decoding at expectedSize bytes; the cgo zstd build
// decodes the whole frame and only then compares its length against
// expectedSize.
func Decompress(method format.CompressionMethod, expectedSize int, input []byte) ([]byte, error) {
	switch method {
	case format.CompressionStore:
		return decompressStore(expectedSize, input)
	case format.CompressionDeflate:
		return decompressDeflate(expectedSize, input)
	case format.CompressionZstd, format.CompressionZstdLegacy:
		return decompressZstd(expectedSize, input)
	default:
		return nil, fmt.Errorf("%w: method code %d", errs.ErrUnsupportedCompressionMethod, method)
	}
}

// checkLength enforces the fixed-size output contract shared by every
// method: a length mismatch always means the archive or the compressed
// stream is corrupt, never a recoverable condition.
func checkLength(expectedSize int, got []byte) ([]byte, error) {
	if len(got) != expectedSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", errs.ErrDecompressionLengthMismatch, expectedSize, len(got))
	}

	return got, nil
}
