// Package zipfmt parses the small constrained subset of the ZIP container
// format a 3TZ archive is built from: the End of Central Directory record,
// Central Directory Entries, and Local File Headers, including the ZIP64
// extra field used when an offset or size field overflows 32 bits.
//
// This package deliberately does not use the standard library's archive/zip:
// a 3TZ archive's defining feature is a trailing index entry
// (@3dtilesIndex1@) that archive/zip has no vocabulary for, and the 3TZ spec
// requires locating the *last* Central Directory Entry directly, which
// archive/zip does not expose. Every offset below is taken verbatim from the
// PKZIP APPNOTE layout.
package zipfmt

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/nimbusgeo/tdtiles/errs"
	"github.com/nimbusgeo/tdtiles/internal/pool"
)

// Signature constants for the three record kinds this package parses.
const (
	SignatureEOCD uint32 = 0x06054b50
	SignatureCDE  uint32 = 0x02014b50
	SignatureLFH  uint32 = 0x04034b50
)

// zip64ExtraTag identifies the ZIP64 extended information extra field tuple
// within a Central Directory Entry's extra field.
const zip64ExtraTag uint16 = 0x0001

// eocdSearchWindow is how far back from the end of the file to read when
// hunting for the trailing EOCD/CDE pair. A 3TZ archive's final entry is
// always its index, so the comment and extra-field overhead the window must
// cover is small and fixed; 320 bytes comfortably covers the largest
// realistic EOCD + a short index filename + a ZIP64 extra field.
const eocdSearchWindow = 320

// cdeFixedSize is the Central Directory Entry's fixed-layout prefix, before
// the variable-length filename/extra field/comment.
const cdeFixedSize = 46

// lfhFixedSize is the Local File Header's fixed-layout prefix, before the
// variable-length filename/extra field.
const lfhFixedSize = 30

// lfhProbeSize is how many bytes past the fixed header to read speculatively
// to cover the filename and a modest extra field in one read.
const lfhProbeSize = 100

// CentralDirectoryEntry is a parsed Central Directory Entry.
type CentralDirectoryEntry struct {
	GeneralPurposeFlag  uint16
	CompressionMethod   uint16
	CompressedSize      uint32
	UncompressedSize    uint32
	RelativeOffsetOfLFH uint32
	Filename            string
	ExtraField          []byte
}

// LocalFileHeader is a parsed Local File Header.
type LocalFileHeader struct {
	CompressionMethod uint16
	CompressedSize    uint32
	UncompressedSize  uint32
	Filename          string

	// ContentOffset is the absolute file offset of the first byte of this
	// entry's payload, i.e. the offset this header was read from, plus the
	// fixed header, filename, and extra field lengths.
	ContentOffset int64
}

// FindLastCentralDirectoryEntry locates the archive's final Central
// Directory Entry by reading the trailing eocdSearchWindow bytes of the
// file, finding the last EOCD signature, then the last CDE signature that
// precedes it. A 3TZ archive's index is always written as the final entry,
// so its CDE is always the one immediately before the EOCD.
func FindLastCentralDirectoryEntry(r io.ReaderAt, fileSize int64) (CentralDirectoryEntry, error) {
	start := fileSize - eocdSearchWindow
	if start < 0 {
		start = 0
	}

	buf := make([]byte, fileSize-start)
	if _, err := r.ReadAt(buf, start); err != nil && err != io.EOF {
		return CentralDirectoryEntry{}, fmt.Errorf("%w: reading EOCD search window: %v", errs.ErrIO, err)
	}

	eocdPos := lastIndexSignature(buf, SignatureEOCD)
	cdePos := lastIndexSignature(buf, SignatureCDE)

	if eocdPos < 0 || cdePos < 0 || cdePos >= eocdPos {
		return CentralDirectoryEntry{}, fmt.Errorf("%w: no central directory entry found before the end of central directory record", errs.ErrInvalidZipStructure)
	}

	return ParseCDE(buf[cdePos:eocdPos])
}

// lastIndexSignature returns the byte offset of the last occurrence of the
// little-endian encoding of sig within buf, or -1 if not found.
func lastIndexSignature(buf []byte, sig uint32) int {
	var want [4]byte
	binary.LittleEndian.PutUint32(want[:], sig)

	for i := len(buf) - 4; i >= 0; i-- {
		if buf[i] == want[0] && buf[i+1] == want[1] && buf[i+2] == want[2] && buf[i+3] == want[3] {
			return i
		}
	}

	return -1
}

// eocdFixedSize is the End of Central Directory record's fixed-layout
// prefix, before the variable-length comment.
const eocdFixedSize = 22

// EOCD is a parsed End of Central Directory record, carrying just the
// fields needed to walk the whole central directory: where it starts and
// how large it is.
type EOCD struct {
	TotalEntries           uint16
	CentralDirectorySize   uint32
	CentralDirectoryOffset uint32
}

// ParseEOCD parses a single End of Central Directory record from buf, which
// must start at the record's signature.
func ParseEOCD(buf []byte) (EOCD, error) {
	if len(buf) < eocdFixedSize {
		return EOCD{}, fmt.Errorf("%w: end of central directory record shorter than %d bytes", errs.ErrInvalidZipStructure, eocdFixedSize)
	}

	if sig := binary.LittleEndian.Uint32(buf[0:4]); sig != SignatureEOCD {
		return EOCD{}, fmt.Errorf("%w: end of central directory signature mismatch: %#x", errs.ErrInvalidZipStructure, sig)
	}

	return EOCD{
		TotalEntries:           binary.LittleEndian.Uint16(buf[10:12]),
		CentralDirectorySize:   binary.LittleEndian.Uint32(buf[12:16]),
		CentralDirectoryOffset: binary.LittleEndian.Uint32(buf[16:20]),
	}, nil
}

// FindEOCD locates and parses the archive's End of Central Directory
// record, searching the trailing eocdSearchWindow bytes of the file for the
// last EOCD signature. Used for the plain-ZIP fallback path, where there is
// no trailing 3TZ index to shortcut straight to the last entry.
func FindEOCD(r io.ReaderAt, fileSize int64) (EOCD, error) {
	start := fileSize - eocdSearchWindow
	if start < 0 {
		start = 0
	}

	buf := make([]byte, fileSize-start)
	if _, err := r.ReadAt(buf, start); err != nil && err != io.EOF {
		return EOCD{}, fmt.Errorf("%w: reading EOCD search window: %v", errs.ErrIO, err)
	}

	pos := lastIndexSignature(buf, SignatureEOCD)
	if pos < 0 {
		return EOCD{}, fmt.Errorf("%w: no end of central directory record found", errs.ErrInvalidZipStructure)
	}

	return ParseEOCD(buf[pos:])
}

// WalkCentralDirectory reads and parses every Central Directory Entry in
// eocd's central directory, in on-disk order. Used only for the plain-ZIP
// fallback path (building an index from scratch); the indexed fast path
// never needs to see more than the trailing entry.
func WalkCentralDirectory(r io.ReaderAt, eocd EOCD) ([]CentralDirectoryEntry, error) {
	buf := make([]byte, eocd.CentralDirectorySize)
	if _, err := r.ReadAt(buf, int64(eocd.CentralDirectoryOffset)); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: reading central directory: %v", errs.ErrIO, err)
	}

	entries := make([]CentralDirectoryEntry, 0, eocd.TotalEntries)

	pos := 0
	for pos < len(buf) {
		if pos+cdeFixedSize > len(buf) {
			return nil, fmt.Errorf("%w: central directory entry truncated at offset %d", errs.ErrInvalidZipStructure, pos)
		}

		filenameLength := int(binary.LittleEndian.Uint16(buf[pos+28 : pos+30]))
		extraFieldLength := int(binary.LittleEndian.Uint16(buf[pos+30 : pos+32]))
		fileCommentLength := int(binary.LittleEndian.Uint16(buf[pos+32 : pos+34]))

		entryLen := cdeFixedSize + filenameLength + extraFieldLength + fileCommentLength
		if pos+entryLen > len(buf) {
			return nil, fmt.Errorf("%w: central directory entry truncated at offset %d", errs.ErrInvalidZipStructure, pos)
		}

		entry, err := ParseCDE(buf[pos : pos+entryLen])
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
		pos += entryLen
	}

	return entries, nil
}

// ParseCDE parses a single Central Directory Entry from buf, which must
// start at the entry's signature and extend at least through its filename,
// extra field, and comment.
func ParseCDE(buf []byte) (CentralDirectoryEntry, error) {
	if len(buf) < cdeFixedSize {
		return CentralDirectoryEntry{}, fmt.Errorf("%w: central directory entry shorter than %d bytes", errs.ErrInvalidZipStructure, cdeFixedSize)
	}

	if sig := binary.LittleEndian.Uint32(buf[0:4]); sig != SignatureCDE {
		return CentralDirectoryEntry{}, fmt.Errorf("%w: central directory entry signature mismatch: %#x", errs.ErrInvalidZipStructure, sig)
	}

	filenameLength := int(binary.LittleEndian.Uint16(buf[28:30]))
	extraFieldLength := int(binary.LittleEndian.Uint16(buf[30:32]))
	fileCommentLength := int(binary.LittleEndian.Uint16(buf[32:34]))

	end := cdeFixedSize + filenameLength + extraFieldLength + fileCommentLength
	if len(buf) < end {
		return CentralDirectoryEntry{}, fmt.Errorf("%w: central directory entry truncated before declared filename/extra/comment length", errs.ErrInvalidZipStructure)
	}

	filenameStart := cdeFixedSize
	extraStart := filenameStart + filenameLength

	return CentralDirectoryEntry{
		GeneralPurposeFlag:  binary.LittleEndian.Uint16(buf[8:10]),
		CompressionMethod:   binary.LittleEndian.Uint16(buf[10:12]),
		CompressedSize:      binary.LittleEndian.Uint32(buf[20:24]),
		UncompressedSize:    binary.LittleEndian.Uint32(buf[24:28]),
		RelativeOffsetOfLFH: binary.LittleEndian.Uint32(buf[42:46]),
		Filename:            string(buf[filenameStart : filenameStart+filenameLength]),
		ExtraField:          buf[extraStart : extraStart+extraFieldLength],
	}, nil
}

// ResolveLFHOffset returns the absolute file offset of cde's Local File
// Header. When the 32-bit RelativeOffsetOfLFH field is the ZIP64 sentinel
// (0xFFFFFFFF), the true 64-bit offset is found by walking cde's extra field
// tuples for the ZIP64 extended information record (tag 0x0001, size 8).
func ResolveLFHOffset(cde CentralDirectoryEntry) (int64, error) {
	if cde.RelativeOffsetOfLFH != 0xFFFFFFFF {
		return int64(cde.RelativeOffsetOfLFH), nil
	}

	pos := 0
	for pos+4 <= len(cde.ExtraField) {
		tag := binary.LittleEndian.Uint16(cde.ExtraField[pos : pos+2])
		size := int(binary.LittleEndian.Uint16(cde.ExtraField[pos+2 : pos+4]))
		payloadStart := pos + 4

		if payloadStart+size > len(cde.ExtraField) {
			break
		}

		if tag == zip64ExtraTag && size == 8 {
			return int64(binary.LittleEndian.Uint64(cde.ExtraField[payloadStart : payloadStart+8])), nil
		}

		pos = payloadStart + size
	}

	return 0, fmt.Errorf("%w: filename %q", errs.ErrZip64OffsetMissing, cde.Filename)
}

// ParseLFH reads and parses the Local File Header at offset. It reads the
// fixed 30-byte header plus a lfhProbeSize-byte probe window in a single
// call, which comfortably covers the filename and a modest extra field for
// every entry this module cares about.
func ParseLFH(r io.ReaderAt, offset int64) (LocalFileHeader, error) {
	bb := pool.Get()
	defer pool.Put(bb)
	bb.SetLength(lfhFixedSize + lfhProbeSize)

	n, err := r.ReadAt(bb.Bytes(), offset)
	if err != nil && err != io.EOF {
		return LocalFileHeader{}, fmt.Errorf("%w: reading local file header: %v", errs.ErrIO, err)
	}
	buf := bb.Bytes()[:n]

	if len(buf) < lfhFixedSize {
		return LocalFileHeader{}, fmt.Errorf("%w: local file header shorter than %d bytes", errs.ErrInvalidZipStructure, lfhFixedSize)
	}

	if sig := binary.LittleEndian.Uint32(buf[0:4]); sig != SignatureLFH {
		return LocalFileHeader{}, fmt.Errorf("%w: local file header signature mismatch: %#x", errs.ErrInvalidZipStructure, sig)
	}

	filenameLength := int(binary.LittleEndian.Uint16(buf[26:28]))
	extraFieldLength := int(binary.LittleEndian.Uint16(buf[28:30]))

	end := lfhFixedSize + filenameLength
	if len(buf) < end {
		return LocalFileHeader{}, fmt.Errorf("%w: local file header truncated before declared filename length", errs.ErrInvalidZipStructure)
	}

	return LocalFileHeader{
		CompressionMethod: binary.LittleEndian.Uint16(buf[8:10]),
		CompressedSize:    binary.LittleEndian.Uint32(buf[18:22]),
		UncompressedSize:  binary.LittleEndian.Uint32(buf[22:26]),
		Filename:          string(buf[lfhFixedSize:end]),
		ContentOffset:     offset + int64(lfhFixedSize+filenameLength+extraFieldLength),
	}, nil
}

// ReadPayload reads lfh's raw (possibly compressed) payload bytes: exactly
// CompressedSize bytes starting at ContentOffset. The returned bytes are not
// decompressed; see package compress for that step.
func ReadPayload(r io.ReaderAt, lfh LocalFileHeader) ([]byte, error) {
	buf := make([]byte, lfh.CompressedSize)

	n, err := r.ReadAt(buf, lfh.ContentOffset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: reading payload for %q: %v", errs.ErrIO, lfh.Filename, err)
	}

	if n != len(buf) {
		return nil, fmt.Errorf("%w: read %d bytes, expected %d for %q", errs.ErrIO, n, len(buf), lfh.Filename)
	}

	return buf, nil
}
