package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"

	"github.com/nimbusgeo/tdtiles/errs"
)

// flateReaderPool holds reusable raw-DEFLATE readers (no zlib wrapper, per
// the ZIP payload format). klauspost/compress/flate readers support Reset,
// so a pooled reader avoids a fresh decompressor allocation per entry.
var flateReaderPool = sync.Pool{
	New: func() any { return flate.NewReader(nil) },
}

// decompressDeflate expands a raw-DEFLATE payload (ZIP compression method 8).
func decompressDeflate(expectedSize int, input []byte) ([]byte, error) {
	rc, _ := flateReaderPool.Get().(io.ReadCloser)
	defer flateReaderPool.Put(rc)

	resetter, ok := rc.(flate.Resetter)
	if !ok {
		return nil, fmt.Errorf("%w: deflate backend missing Reset support", errs.ErrDecompressionBackendMissing)
	}

	if err := resetter.Reset(bytes.NewReader(input), nil); err != nil {
		return nil, fmt.Errorf("%w: deflate reset: %v", errs.ErrDecompressionLengthMismatch, err)
	}

	out := make([]byte, expectedSize)
	n, err := io.ReadFull(rc, out)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("%w: deflate: %v", errs.ErrDecompressionLengthMismatch, err)
	}

	if n == expectedSize {
		var extra [1]byte
		if m, _ := io.ReadFull(rc, extra[:]); m > 0 {
			return nil, fmt.Errorf("%w: deflate stream decodes to more than %d bytes", errs.ErrDecompressionLengthMismatch, expectedSize)
		}
	}

	return checkLength(expectedSize, out[:n])
}
