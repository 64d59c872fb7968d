// Package compress implements the 3TZ/ZIP compression method table.
//
// # Overview
//
// 3TZ archives and the ZIP containers they are built from carry a single
// compression method code per entry. This package turns that method code,
// plus the expected uncompressed size the index or local file header
// already declares, into a decode call:
//
//	out, err := compress.Decompress(format.CompressionZstd, expectedSize, raw)
//
// # Supported methods
//
//	Store (0)        identity pass-through, length-checked
//	Deflate (8)       raw DEFLATE, no zlib wrapper
//	Zstd (0x5D)       Zstandard
//	ZstdLegacy (0x17) legacy Zstandard method code, decoded the same way
//
// Any other method code returns errs.ErrUnsupportedCompressionMethod.
//
// # Zstd backend selection
//
// Zstd decoding is split along a cgo/pure-Go build tag, mirroring how the
// wider Go ecosystem ships zstd support: zstd_pure.go uses
// klauspost/compress/zstd for portable CGO_ENABLED=0 builds, while
// zstd_cgo.go uses valyala/gozstd for higher-throughput cgo builds. Callers
// never select one explicitly; the build tag picks it at compile time.
//
// # Output bound and length contract
//
// Every decode call takes expectedSize up front and uses it both to size the
// destination buffer and to validate the result: a frame that decodes to a
// different length than the archive declared returns
// errs.ErrDecompressionLengthMismatch rather than silently returning a
// mis-sized buffer to the caller.
package compress
