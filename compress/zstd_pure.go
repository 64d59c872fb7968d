//go:build !cgo

package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/nimbusgeo/tdtiles/errs"
)

// zstdDecoderPool pools zstd decoders for reuse. klauspost/compress/zstd is
// explicitly designed for decoder reuse: it operates allocation-free after a
// warmup, so the decoder is worth keeping around rather than recreating per
// archive entry.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
			zstd.WithDecodeAllCapLimit(true),
		)
		if err != nil {
			panic(fmt.Sprintf("compress: failed to build pooled zstd decoder: %v", err))
		}

		return dec
	},
}

// decompressZstd expands a Zstandard payload (method 0x5D, or the legacy
// 0x17 code — both are decoded identically; the distinct method code only
// affected how producers wrote the frame). The expected size bounds the
// destination buffer so a corrupt or hostile frame cannot over-allocate past
// what the archive's own index declared.
func decompressZstd(expectedSize int, input []byte) ([]byte, error) {
	dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)

	out, err := dec.DecodeAll(input, make([]byte, 0, expectedSize))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", errs.ErrDecompressionLengthMismatch, err)
	}

	return checkLength(expectedSize, out)
}
