// Package glbsubtree splits the two binary container formats 3D Tiles
// content is framed in — GLB (a glTF binary) and the implicit-tiling
// subtree format — into their JSON and binary chunks.
package glbsubtree

import (
	"encoding/binary"
	"fmt"

	"github.com/nimbusgeo/tdtiles/errs"
)

// GLB chunk types and container constants.
const (
	glbMagic          uint32 = 0x46546C67 // "glTF"
	glbVersion        uint32 = 2
	glbHeaderSize            = 12
	glbChunkJSON      uint32 = 0x4E4F534A // "JSON"
	glbChunkBIN       uint32 = 0x004E4942 // "BIN\x00"
	glbChunkHeaderLen        = 8
)

// Subtree container constants.
const (
	subtreeMagic      uint32 = 0x74627573 // "subt"
	subtreeVersion    uint32 = 1
	subtreeHeaderSize        = 24
)

// ReadGLBChunks validates a GLB container's 12-byte header and splits its
// chunk list into the JSON chunk (always present and non-empty) and the
// optional BIN chunk.
func ReadGLBChunks(data []byte) (jsonStr string, bin []byte, err error) {
	if len(data) < glbHeaderSize {
		return "", nil, fmt.Errorf("%w: glb shorter than header size", errs.ErrInvalidGlb)
	}

	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != glbMagic {
		return "", nil, fmt.Errorf("%w: bad magic %#x", errs.ErrInvalidGlb, magic)
	}

	if version := binary.LittleEndian.Uint32(data[4:8]); version != glbVersion {
		return "", nil, fmt.Errorf("%w: unsupported container version %d", errs.ErrInvalidGlb, version)
	}

	pos := glbHeaderSize
	if pos+glbChunkHeaderLen > len(data) {
		return "", nil, fmt.Errorf("%w: truncated before first chunk header", errs.ErrInvalidGlb)
	}

	jsonLen := binary.LittleEndian.Uint32(data[pos : pos+4])
	jsonType := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
	if jsonType != glbChunkJSON {
		return "", nil, fmt.Errorf("%w: first chunk type %#x, expected JSON", errs.ErrInvalidGlb, jsonType)
	}

	if jsonLen == 0 {
		return "", nil, fmt.Errorf("%w: empty json chunk", errs.ErrInvalidGlb)
	}

	jsonStart := pos + glbChunkHeaderLen
	jsonEnd := jsonStart + int(jsonLen)
	if jsonEnd > len(data) {
		return "", nil, fmt.Errorf("%w: json chunk length exceeds buffer", errs.ErrInvalidGlb)
	}
	jsonStr = string(data[jsonStart:jsonEnd])

	pos = jsonEnd
	if pos+glbChunkHeaderLen > len(data) {
		return jsonStr, nil, nil
	}

	binLen := binary.LittleEndian.Uint32(data[pos : pos+4])
	binType := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
	if binType != glbChunkBIN {
		return "", nil, fmt.Errorf("%w: second chunk type %#x, expected BIN", errs.ErrInvalidGlb, binType)
	}

	binStart := pos + glbChunkHeaderLen
	binEnd := binStart + int(binLen)
	if binEnd > len(data) {
		return "", nil, fmt.Errorf("%w: bin chunk length exceeds buffer", errs.ErrInvalidGlb)
	}

	return jsonStr, data[binStart:binEnd], nil
}

// ReadSubtreeChunks validates a subtree container's 24-byte header and
// splits its JSON and binary sections. A zero-length JSON section is a
// valid, empty subtree and returns jsonStr == "" with no error.
func ReadSubtreeChunks(data []byte) (jsonStr string, bin []byte, err error) {
	if len(data) < subtreeHeaderSize {
		return "", nil, fmt.Errorf("%w: subtree shorter than header size", errs.ErrInvalidSubtree)
	}

	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != subtreeMagic {
		return "", nil, fmt.Errorf("%w: bad magic %#x", errs.ErrInvalidSubtree, magic)
	}

	if version := binary.LittleEndian.Uint32(data[4:8]); version != subtreeVersion {
		return "", nil, fmt.Errorf("%w: unsupported container version %d", errs.ErrInvalidSubtree, version)
	}

	jsonLen := binary.LittleEndian.Uint64(data[8:16])
	binLen := binary.LittleEndian.Uint64(data[16:24])

	if jsonLen == 0 {
		return "", nil, nil
	}

	jsonStart := subtreeHeaderSize
	jsonEnd := jsonStart + int(jsonLen)
	if jsonEnd > len(data) {
		return "", nil, fmt.Errorf("%w: json section length exceeds buffer", errs.ErrInvalidSubtree)
	}
	jsonStr = string(data[jsonStart:jsonEnd])

	if binLen == 0 {
		return jsonStr, nil, nil
	}

	wantBinLen := uint64(len(data) - jsonEnd)
	if binLen != wantBinLen {
		return "", nil, fmt.Errorf("%w: declared binary length %d does not match remaining %d bytes", errs.ErrInvalidSubtree, binLen, wantBinLen)
	}

	return jsonStr, data[jsonEnd:], nil
}
