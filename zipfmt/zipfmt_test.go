package zipfmt

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusgeo/tdtiles/errs"
)

// buildLFH builds a minimal, valid Local File Header for filename/payload.
func buildLFH(filename string, compressionMethod uint16, payload []byte) []byte {
	var buf bytes.Buffer
	hdr := make([]byte, lfhFixedSize)
	binary.LittleEndian.PutUint32(hdr[0:4], SignatureLFH)
	binary.LittleEndian.PutUint16(hdr[8:10], compressionMethod)
	binary.LittleEndian.PutUint32(hdr[18:22], uint32(len(payload)))
	binary.LittleEndian.PutUint32(hdr[22:26], uint32(len(payload)))
	binary.LittleEndian.PutUint16(hdr[26:28], uint16(len(filename)))
	buf.Write(hdr)
	buf.WriteString(filename)
	buf.Write(payload)

	return buf.Bytes()
}

// buildCDE builds a minimal Central Directory Entry referencing the Local
// File Header at lfhOffset.
func buildCDE(filename string, compressionMethod uint16, compressedSize, uncompressedSize uint32, lfhOffset uint32) []byte {
	hdr := make([]byte, cdeFixedSize)
	binary.LittleEndian.PutUint32(hdr[0:4], SignatureCDE)
	binary.LittleEndian.PutUint16(hdr[10:12], compressionMethod)
	binary.LittleEndian.PutUint32(hdr[20:24], compressedSize)
	binary.LittleEndian.PutUint32(hdr[24:28], uncompressedSize)
	binary.LittleEndian.PutUint16(hdr[28:30], uint16(len(filename)))
	binary.LittleEndian.PutUint32(hdr[42:46], lfhOffset)
	hdr = append(hdr, []byte(filename)...)

	return hdr
}

func buildEOCD(totalEntries uint16, cdSize, cdOffset uint32) []byte {
	hdr := make([]byte, 22)
	binary.LittleEndian.PutUint32(hdr[0:4], SignatureEOCD)
	binary.LittleEndian.PutUint16(hdr[10:12], totalEntries)
	binary.LittleEndian.PutUint32(hdr[12:16], cdSize)
	binary.LittleEndian.PutUint32(hdr[16:20], cdOffset)

	return hdr
}

func TestParseLFH(t *testing.T) {
	payload := []byte("hello 3tz")
	raw := buildLFH("tileset.json", 0, payload)
	r := bytes.NewReader(raw)

	lfh, err := ParseLFH(r, 0)

	require.NoError(t, err)
	assert.Equal(t, "tileset.json", lfh.Filename)
	assert.Equal(t, uint16(0), lfh.CompressionMethod)
	assert.Equal(t, uint32(len(payload)), lfh.CompressedSize)
	assert.Equal(t, int64(lfhFixedSize+len("tileset.json")), lfh.ContentOffset)
}

func TestParseLFH_BadSignature(t *testing.T) {
	raw := buildLFH("x", 0, nil)
	raw[0] = 0x00
	r := bytes.NewReader(raw)

	_, err := ParseLFH(r, 0)

	assert.ErrorIs(t, err, errs.ErrInvalidZipStructure)
}

func TestReadPayload(t *testing.T) {
	payload := []byte("payload bytes for the entry")
	raw := buildLFH("content/0.glb", 8, payload)
	r := bytes.NewReader(raw)

	lfh, err := ParseLFH(r, 0)
	require.NoError(t, err)

	got, err := ReadPayload(r, lfh)

	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestParseCDE(t *testing.T) {
	cde := buildCDE("tileset.json", 8, 100, 200, 12345)

	parsed, err := ParseCDE(cde)

	require.NoError(t, err)
	assert.Equal(t, "tileset.json", parsed.Filename)
	assert.Equal(t, uint16(8), parsed.CompressionMethod)
	assert.Equal(t, uint32(100), parsed.CompressedSize)
	assert.Equal(t, uint32(200), parsed.UncompressedSize)
	assert.Equal(t, uint32(12345), parsed.RelativeOffsetOfLFH)
}

func TestResolveLFHOffset_DirectOffset(t *testing.T) {
	cde := CentralDirectoryEntry{RelativeOffsetOfLFH: 4096}

	offset, err := ResolveLFHOffset(cde)

	require.NoError(t, err)
	assert.Equal(t, int64(4096), offset)
}

func TestResolveLFHOffset_Zip64Extra(t *testing.T) {
	extra := make([]byte, 12)
	binary.LittleEndian.PutUint16(extra[0:2], zip64ExtraTag)
	binary.LittleEndian.PutUint16(extra[2:4], 8)
	binary.LittleEndian.PutUint64(extra[4:12], 9876543210)

	cde := CentralDirectoryEntry{RelativeOffsetOfLFH: 0xFFFFFFFF, ExtraField: extra, Filename: "big.glb"}

	offset, err := ResolveLFHOffset(cde)

	require.NoError(t, err)
	assert.Equal(t, int64(9876543210), offset)
}

func TestResolveLFHOffset_SkipsUnrelatedTuples(t *testing.T) {
	extra := make([]byte, 4+4+4+12)
	// An unrelated 4-byte tuple first.
	binary.LittleEndian.PutUint16(extra[0:2], 0x000a)
	binary.LittleEndian.PutUint16(extra[2:4], 4)
	// Then the ZIP64 tuple.
	binary.LittleEndian.PutUint16(extra[8:10], zip64ExtraTag)
	binary.LittleEndian.PutUint16(extra[10:12], 8)
	binary.LittleEndian.PutUint64(extra[12:20], 55)

	cde := CentralDirectoryEntry{RelativeOffsetOfLFH: 0xFFFFFFFF, ExtraField: extra}

	offset, err := ResolveLFHOffset(cde)

	require.NoError(t, err)
	assert.Equal(t, int64(55), offset)
}

func TestResolveLFHOffset_Missing(t *testing.T) {
	cde := CentralDirectoryEntry{RelativeOffsetOfLFH: 0xFFFFFFFF, Filename: "broken.glb"}

	_, err := ResolveLFHOffset(cde)

	assert.ErrorIs(t, err, errs.ErrZip64OffsetMissing)
}

func TestFindLastCentralDirectoryEntry(t *testing.T) {
	lfh := buildLFH("@3dtilesIndex1@", 0, bytes.Repeat([]byte{0xAB}, 24))
	cde := buildCDE("@3dtilesIndex1@", 0, 24, 24, 0)

	var archive bytes.Buffer
	archive.Write(lfh)
	cdeOffset := archive.Len()
	archive.Write(cde)
	eocd := buildEOCD(1, uint32(len(cde)), uint32(cdeOffset))
	archive.Write(eocd)

	r := bytes.NewReader(archive.Bytes())

	found, err := FindLastCentralDirectoryEntry(r, int64(archive.Len()))

	require.NoError(t, err)
	assert.Equal(t, "@3dtilesIndex1@", found.Filename)
	assert.Equal(t, uint32(0), found.RelativeOffsetOfLFH)
	_ = cdeOffset
}

func TestFindLastCentralDirectoryEntry_NoEOCD(t *testing.T) {
	r := bytes.NewReader([]byte("not a zip file at all"))

	_, err := FindLastCentralDirectoryEntry(r, 21)

	assert.ErrorIs(t, err, errs.ErrInvalidZipStructure)
}

func TestFindEOCDAndWalkCentralDirectory(t *testing.T) {
	lfh1 := buildLFH("tileset.json", 0, []byte("{}"))
	lfh2 := buildLFH("content/0.glb", 0, []byte("glbglbglb"))

	var archive bytes.Buffer
	archive.Write(lfh1)
	cde1Offset := 0
	archive.Write(lfh2)
	cde2Offset := len(lfh1)

	cdStart := archive.Len()
	cde1 := buildCDE("tileset.json", 0, 2, 2, uint32(cde1Offset))
	cde2 := buildCDE("content/0.glb", 0, 9, 9, uint32(cde2Offset))
	archive.Write(cde1)
	archive.Write(cde2)
	cdSize := archive.Len() - cdStart

	archive.Write(buildEOCD(2, uint32(cdSize), uint32(cdStart)))

	r := bytes.NewReader(archive.Bytes())

	eocd, err := FindEOCD(r, int64(archive.Len()))
	require.NoError(t, err)
	assert.Equal(t, uint16(2), eocd.TotalEntries)
	assert.Equal(t, uint32(cdSize), eocd.CentralDirectorySize)
	assert.Equal(t, uint32(cdStart), eocd.CentralDirectoryOffset)

	entries, err := WalkCentralDirectory(r, eocd)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "tileset.json", entries[0].Filename)
	assert.Equal(t, "content/0.glb", entries[1].Filename)
}
