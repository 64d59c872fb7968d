// Package tdzindex implements the 3TZ archive index: a packed, sorted blob
// of (md5Lo, md5Hi, lfhOffset) triples that lets an archive reader resolve a
// file path to its Local File Header offset in O(log N) instead of scanning
// the whole central directory.
package tdzindex

import (
	"fmt"
	"sort"

	"github.com/nimbusgeo/tdtiles/endian"
	"github.com/nimbusgeo/tdtiles/errs"
	"github.com/nimbusgeo/tdtiles/internal/md5sum"
)

// EntrySize is the fixed on-disk size of one index entry: two little-endian
// uint64 MD5 halves followed by a little-endian uint64 Local File Header
// offset.
const EntrySize = 24

// IndexFilename is the reserved path under which a 3TZ archive stores its
// index, as the final entry in the ZIP central directory.
const IndexFilename = "@3dtilesIndex1@"

// General-purpose bit flags that disqualify a ZIP entry from being indexed.
// These mirror the checks a 3TZ-aware writer must make before trusting an
// entry's declared sizes and payload bytes: an encrypted entry, one whose
// Local File Header omits sizes (data descriptor used instead), one with
// compressed patch data, or one behind an encrypted central directory.
const (
	flagEncrypted            uint16 = 1 << 0
	flagSizesNotInLocalHeader uint16 = 1 << 3
	flagCompressedPatchData   uint16 = 1 << 5
	flagEncryptedDirectory    uint16 = 1 << 13

	disallowedFlagBits = flagEncrypted | flagSizesNotInLocalHeader | flagCompressedPatchData | flagEncryptedDirectory
)

var engine = endian.GetLittleEndianEngine()

// Index is a zero-copy view over a packed index blob. Lookup reads entries
// directly out of the backing byte slice; no entry is ever copied into a Go
// struct, keeping the hot binary-search path allocation-free.
type Index struct {
	raw []byte
}

// New wraps raw index bytes without copying them. raw's length must be a
// multiple of EntrySize.
func New(raw []byte) (Index, error) {
	if len(raw)%EntrySize != 0 {
		return Index{}, fmt.Errorf("%w: index length %d is not a multiple of %d", errs.ErrInvalidZipStructure, len(raw), EntrySize)
	}

	return Index{raw: raw}, nil
}

// Len returns the number of entries in the index.
func (idx Index) Len() int {
	return len(idx.raw) / EntrySize
}

// OffsetAt returns the Local File Header offset stored at entry i, in index
// order (ascending by (md5Lo, md5Hi)). Used by bulk-scan callers that need
// to visit every archived file without looking each one up by path.
func (idx Index) OffsetAt(i int) int64 {
	_, _, offset := idx.at(i)

	return offset
}

func (idx Index) at(i int) (lo, hi uint64, offset int64) {
	e := idx.raw[i*EntrySize : i*EntrySize+EntrySize]

	return engine.Uint64(e[0:8]), engine.Uint64(e[8:16]), int64(engine.Uint64(e[16:24]))
}

// Lookup finds path's Local File Header offset via binary search over the
// index's (lo, hi)-ordered entries, using the same two-stage comparator the
// index was sorted with (see md5sum.Halves.Less).
func (idx Index) Lookup(path string) (offset int64, found bool) {
	key := md5sum.Of(path)

	low, high := 0, idx.Len()-1
	for low <= high {
		mid := low + (high-low)/2

		lo, hi, off := idx.at(mid)
		entry := md5sum.Halves{Lo: lo, Hi: hi}

		switch {
		case entry.Equal(key):
			return off, true
		case entry.Less(key):
			low = mid + 1
		default:
			high = mid - 1
		}
	}

	return 0, false
}

// CandidateEntry is one ZIP central directory entry considered for indexing:
// enough fields to validate it and to compute its index triple.
type CandidateEntry struct {
	Filename            string
	IsDirectory         bool
	GeneralPurposeFlag  uint16
	CompressionMethod   uint16
	CompressedSize      uint32
	UncompressedSize    uint32
	LocalFileHeaderOffset int64
}

// Validate checks entry against the rules a 3TZ index build rejects:
// unsupported compression methods, disallowed general-purpose flag bits
// (encryption, a missing-from-local-header size, compressed patch data, an
// encrypted central directory), and a compressed size of zero paired with a
// nonzero uncompressed size (a entry whose sizes were never actually
// recorded in the local header).
func (e CandidateEntry) Validate() error {
	switch format := e.CompressionMethod; format {
	case 0, 8, 93:
	default:
		return fmt.Errorf("%w: %q uses compression method %d", errs.ErrUnsupportedZipFeature, e.Filename, format)
	}

	if e.GeneralPurposeFlag&disallowedFlagBits != 0 {
		return fmt.Errorf("%w: %q sets disallowed flag bits %#x", errs.ErrUnsupportedZipFeature, e.Filename, e.GeneralPurposeFlag&disallowedFlagBits)
	}

	if e.CompressedSize == 0 && e.UncompressedSize != 0 {
		return fmt.Errorf("%w: %q has no compressed size recorded", errs.ErrInvalidZipStructure, e.Filename)
	}

	return nil
}

// BuildIndex validates entries, skips directories and any entry already
// named IndexFilename, sorts the survivors by (md5Lo, md5Hi), and packs them
// into a byte slice in the on-disk index layout. It is the Go counterpart of
// a 3TZ writer's index-building step, used when opening a plain ZIP archive
// that has no trailing index entry yet.
func BuildIndex(entries []CandidateEntry) ([]byte, error) {
	type keyed struct {
		key    md5sum.Halves
		offset int64
	}

	triples := make([]keyed, 0, len(entries))

	for _, e := range entries {
		if e.IsDirectory || e.Filename == IndexFilename {
			continue
		}

		if err := e.Validate(); err != nil {
			return nil, err
		}

		triples = append(triples, keyed{key: md5sum.Of(e.Filename), offset: e.LocalFileHeaderOffset})
	}

	sort.Slice(triples, func(i, j int) bool {
		return triples[i].key.Less(triples[j].key)
	})

	out := make([]byte, len(triples)*EntrySize)
	for i, t := range triples {
		b := out[i*EntrySize : i*EntrySize+EntrySize]
		engine.PutUint64(b[0:8], t.key.Lo)
		engine.PutUint64(b[8:16], t.key.Hi)
		engine.PutUint64(b[16:24], uint64(t.offset))
	}

	return out, nil
}
