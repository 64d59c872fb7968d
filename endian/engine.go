// Package endian provides byte order utilities for binary encoding and
// decoding.
//
// It extends the standard encoding/binary package by combining ByteOrder and
// AppendByteOrder into a single EndianEngine interface, matching the shape
// every 3D Tiles wire format (ZIP headers, GLB/subtree chunk headers, glTF
// buffer views) is specified against.
//
// # Basic usage
//
//	import "github.com/nimbusgeo/tdtiles/endian"
//
//	engine := endian.GetLittleEndianEngine()
//	offset := engine.Uint64(data[0:8])
//
// Every format this module reads is little-endian unconditionally, so
// GetLittleEndianEngine is the only constructor most callers need; the
// interface stays generic so a future big-endian source could reuse the same
// decode helpers.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// into a single interface. binary.LittleEndian and binary.BigEndian both
// satisfy it without adaptation.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine used by every 3TZ,
// GLB, subtree, and glTF buffer view in this module.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine. Exposed for symmetry and
// for tests that construct deliberately foreign byte orders; no format
// parsed by tdtiles is ever big-endian.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
