package glbsubtree

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusgeo/tdtiles/errs"
)

func buildGLB(json string, bin []byte) []byte {
	var buf bytes.Buffer

	hdr := make([]byte, glbHeaderSize)
	binary.LittleEndian.PutUint32(hdr[0:4], glbMagic)
	binary.LittleEndian.PutUint32(hdr[4:8], glbVersion)
	buf.Write(hdr)

	jsonChunkHdr := make([]byte, 8)
	binary.LittleEndian.PutUint32(jsonChunkHdr[0:4], uint32(len(json)))
	binary.LittleEndian.PutUint32(jsonChunkHdr[4:8], glbChunkJSON)
	buf.Write(jsonChunkHdr)
	buf.WriteString(json)

	if bin != nil {
		binChunkHdr := make([]byte, 8)
		binary.LittleEndian.PutUint32(binChunkHdr[0:4], uint32(len(bin)))
		binary.LittleEndian.PutUint32(binChunkHdr[4:8], glbChunkBIN)
		buf.Write(binChunkHdr)
		buf.Write(bin)
	}

	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(out)))

	return out
}

func TestReadGLBChunks_JSONOnly(t *testing.T) {
	data := buildGLB(`{"asset":{"version":"2.0"}}`, nil)

	jsonStr, bin, err := ReadGLBChunks(data)

	require.NoError(t, err)
	assert.Equal(t, `{"asset":{"version":"2.0"}}`, jsonStr)
	assert.Nil(t, bin)
}

func TestReadGLBChunks_WithBin(t *testing.T) {
	binData := []byte{1, 2, 3, 4, 5}
	data := buildGLB(`{"asset":{"version":"2.0"}}`, binData)

	jsonStr, bin, err := ReadGLBChunks(data)

	require.NoError(t, err)
	assert.NotEmpty(t, jsonStr)
	assert.Equal(t, binData, bin)
}

func TestReadGLBChunks_BadMagic(t *testing.T) {
	data := buildGLB(`{}`, nil)
	data[0] = 0

	_, _, err := ReadGLBChunks(data)

	assert.ErrorIs(t, err, errs.ErrInvalidGlb)
}

func TestReadGLBChunks_EmptyJSON(t *testing.T) {
	data := buildGLB("", nil)

	_, _, err := ReadGLBChunks(data)

	assert.ErrorIs(t, err, errs.ErrInvalidGlb)
}

func TestReadGLBChunks_WrongFirstChunkType(t *testing.T) {
	data := buildGLB(`{}`, nil)
	binary.LittleEndian.PutUint32(data[16:20], glbChunkBIN)

	_, _, err := ReadGLBChunks(data)

	assert.ErrorIs(t, err, errs.ErrInvalidGlb)
}

func buildSubtree(json string, bin []byte) []byte {
	var buf bytes.Buffer

	hdr := make([]byte, subtreeHeaderSize)
	binary.LittleEndian.PutUint32(hdr[0:4], subtreeMagic)
	binary.LittleEndian.PutUint32(hdr[4:8], subtreeVersion)
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(len(json)))
	binary.LittleEndian.PutUint64(hdr[16:24], uint64(len(bin)))
	buf.Write(hdr)
	buf.WriteString(json)
	buf.Write(bin)

	return buf.Bytes()
}

func TestReadSubtreeChunks(t *testing.T) {
	bin := []byte{9, 8, 7}
	data := buildSubtree(`{"buffers":[]}`, bin)

	jsonStr, got, err := ReadSubtreeChunks(data)

	require.NoError(t, err)
	assert.Equal(t, `{"buffers":[]}`, jsonStr)
	assert.Equal(t, bin, got)
}

func TestReadSubtreeChunks_EmptyJSON(t *testing.T) {
	data := buildSubtree("", nil)

	jsonStr, bin, err := ReadSubtreeChunks(data)

	require.NoError(t, err)
	assert.Empty(t, jsonStr)
	assert.Nil(t, bin)
}

func TestReadSubtreeChunks_BinaryLengthMismatch(t *testing.T) {
	data := buildSubtree(`{}`, []byte{1, 2, 3})
	binary.LittleEndian.PutUint64(data[16:24], 999)

	_, _, err := ReadSubtreeChunks(data)

	assert.ErrorIs(t, err, errs.ErrInvalidSubtree)
}

func TestReadSubtreeChunks_BadVersion(t *testing.T) {
	data := buildSubtree(`{}`, nil)
	binary.LittleEndian.PutUint32(data[4:8], 2)

	_, _, err := ReadSubtreeChunks(data)

	assert.ErrorIs(t, err, errs.ErrInvalidSubtree)
}
