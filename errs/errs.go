// Package errs collects the sentinel errors returned across tdtiles.
//
// Callers should match on these with errors.Is rather than string comparison;
// most call sites wrap a sentinel with additional context via fmt.Errorf's
// %w verb.
package errs

import "errors"

var (
	// ErrIO indicates an underlying read from the backing file or reader failed.
	ErrIO = errors.New("tdtiles: io error")

	// ErrInvalidZipStructure indicates the End-of-Central-Directory or a
	// Central Directory Entry signature could not be found where expected.
	ErrInvalidZipStructure = errors.New("tdtiles: invalid zip structure")

	// ErrZip64OffsetMissing indicates a Central Directory Entry claims a
	// ZIP64 local header offset but its extra field carries no 0x0001 tag.
	ErrZip64OffsetMissing = errors.New("tdtiles: zip64 offset missing")

	// ErrUnsupportedZipFeature indicates a forbidden general-purpose flag bit
	// or an unsupported compression method was found while validating a
	// central directory entry.
	ErrUnsupportedZipFeature = errors.New("tdtiles: unsupported zip feature")

	// ErrIndexMisaligned indicates the Local File Header found at an index
	// lookup's offset has a filename that does not match the requested path.
	ErrIndexMisaligned = errors.New("tdtiles: index misaligned")

	// ErrNotFound indicates a requested path is absent from the 3TZ index.
	ErrNotFound = errors.New("tdtiles: not found")

	// ErrUnsupportedCompressionMethod indicates a compression method code
	// outside {Store, Deflate, Zstd, legacy Zstd} was encountered.
	ErrUnsupportedCompressionMethod = errors.New("tdtiles: unsupported compression method")

	// ErrDecompressionLengthMismatch indicates a decompressed payload's
	// length did not equal its declared uncompressed size.
	ErrDecompressionLengthMismatch = errors.New("tdtiles: decompression length mismatch")

	// ErrDecompressionBackendMissing indicates the compression method
	// requires a backend that is not available in this build.
	ErrDecompressionBackendMissing = errors.New("tdtiles: decompression backend missing")

	// ErrInvalidGlb indicates a GLB buffer failed header or chunk validation.
	ErrInvalidGlb = errors.New("tdtiles: invalid glb")

	// ErrInvalidSubtree indicates a subtree buffer failed header or chunk
	// validation.
	ErrInvalidSubtree = errors.New("tdtiles: invalid subtree")

	// ErrInvalidGltf indicates a glTF JSON document is missing or has an
	// unsupported asset.version.
	ErrInvalidGltf = errors.New("tdtiles: invalid gltf document")

	// ErrSchemaError indicates an unknown class, a missing componentType, an
	// unknown enum name, or an otherwise inconsistent schema/buffer setup.
	ErrSchemaError = errors.New("tdtiles: schema error")

	// ErrBufferViewOutOfRange indicates a buffer view's byteOffset/byteLength
	// falls outside its buffer's bounds.
	ErrBufferViewOutOfRange = errors.New("tdtiles: buffer view out of range")

	// ErrUnknownEnumValue indicates a raw enum value has no matching name in
	// its enum schema.
	ErrUnknownEnumValue = errors.New("tdtiles: unknown enum value")
)
