package compress

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/nimbusgeo/tdtiles/format"
)

func BenchmarkDecompress_Store(b *testing.B) {
	payload := bytes.Repeat([]byte("x"), 16*1024)

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		_, _ = Decompress(format.CompressionStore, len(payload), payload)
	}
}

func BenchmarkDecompress_Zstd(b *testing.B) {
	payload := bytes.Repeat([]byte("tileset property table payload "), 1024)

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		b.Fatal(err)
	}
	compressed := enc.EncodeAll(payload, nil)

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		_, _ = Decompress(format.CompressionZstd, len(payload), compressed)
	}
}
