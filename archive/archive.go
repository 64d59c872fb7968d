// Package archive composes package zipfmt and package tdzindex into a
// file-handle service over a 3TZ (or plain ZIP) archive: open once, then
// resolve any number of inner paths to their raw or decompressed bytes
// without rescanning the central directory.
package archive

import (
	"fmt"
	"iter"
	"os"
	"strings"

	"github.com/nimbusgeo/tdtiles/compress"
	"github.com/nimbusgeo/tdtiles/errs"
	"github.com/nimbusgeo/tdtiles/format"
	"github.com/nimbusgeo/tdtiles/tdzindex"
	"github.com/nimbusgeo/tdtiles/zipfmt"
)

// Handle is an open archive: a file plus the index used to resolve inner
// paths. A Handle is single-owner. Every read goes through ReadAt on the
// backing *os.File, so no shared file position is kept between calls; the
// Handle itself has no locking.
type Handle struct {
	file  *os.File
	index tdzindex.Index
}

// Open opens the archive at path and ingests its index: if the archive's
// trailing entry is the reserved 3TZ index file, that index is read and
// decompressed directly; otherwise the whole central directory is walked
// and an equivalent index is built in memory, treating path as a plain ZIP.
func Open(path string) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %q: %v", errs.ErrIO, path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %q: %v", errs.ErrIO, path, err)
	}

	idx, err := loadOrBuildIndex(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Handle{file: f, index: idx}, nil
}

// Close releases the archive's underlying file.
func (h *Handle) Close() error {
	return h.file.Close()
}

func loadOrBuildIndex(f *os.File, size int64) (tdzindex.Index, error) {
	cde, err := zipfmt.FindLastCentralDirectoryEntry(f, size)
	if err != nil {
		return tdzindex.Index{}, err
	}

	offset, err := zipfmt.ResolveLFHOffset(cde)
	if err != nil {
		return tdzindex.Index{}, err
	}

	lfh, err := zipfmt.ParseLFH(f, offset)
	if err != nil {
		return tdzindex.Index{}, err
	}

	if lfh.Filename != tdzindex.IndexFilename {
		return buildIndexFromCentralDirectory(f, size)
	}

	raw, err := zipfmt.ReadPayload(f, lfh)
	if err != nil {
		return tdzindex.Index{}, err
	}

	indexBytes, err := compress.Decompress(format.CompressionMethod(lfh.CompressionMethod), int(lfh.UncompressedSize), raw)
	if err != nil {
		return tdzindex.Index{}, err
	}

	return tdzindex.New(indexBytes)
}

// buildIndexFromCentralDirectory handles the plain-ZIP fallback: no
// trailing 3TZ index exists, so the whole central directory is walked and
// an equivalent index is built on the fly.
func buildIndexFromCentralDirectory(f *os.File, size int64) (tdzindex.Index, error) {
	eocd, err := zipfmt.FindEOCD(f, size)
	if err != nil {
		return tdzindex.Index{}, err
	}

	cdes, err := zipfmt.WalkCentralDirectory(f, eocd)
	if err != nil {
		return tdzindex.Index{}, err
	}

	candidates := make([]tdzindex.CandidateEntry, 0, len(cdes))
	for _, cde := range cdes {
		offset, err := zipfmt.ResolveLFHOffset(cde)
		if err != nil {
			return tdzindex.Index{}, err
		}

		candidates = append(candidates, tdzindex.CandidateEntry{
			Filename:              cde.Filename,
			IsDirectory:           strings.HasSuffix(cde.Filename, "/"),
			GeneralPurposeFlag:    cde.GeneralPurposeFlag,
			CompressionMethod:     cde.CompressionMethod,
			CompressedSize:        cde.CompressedSize,
			UncompressedSize:      cde.UncompressedSize,
			LocalFileHeaderOffset: offset,
		})
	}

	raw, err := tdzindex.BuildIndex(candidates)
	if err != nil {
		return tdzindex.Index{}, err
	}

	return tdzindex.New(raw)
}

// FetchRaw resolves innerPath to its raw (possibly compressed) payload
// bytes, along with the compression method and declared uncompressed size
// needed to decode them. Returns errs.ErrNotFound if innerPath is not in the
// index, and errs.ErrIndexMisaligned if the index points at a Local File
// Header whose filename does not match innerPath (a corrupt or stale
// index).
//
// A caller exposing this over HTTP as GET /<innerPath> should apply this
// Content-Encoding contract: if method is Store, return the bytes verbatim
// with no Content-Encoding header; if method is Deflate or Zstd and the
// request's Accept-Encoding includes the matching token ("deflate" or
// "zstd"), return the raw bytes as-is with Content-Encoding set to that
// token; otherwise decompress via package compress and return plain bytes
// with no Content-Encoding header.
func (h *Handle) FetchRaw(innerPath string) (method format.CompressionMethod, uncompressedSize int, raw []byte, err error) {
	offset, found := h.index.Lookup(innerPath)
	if !found {
		return 0, 0, nil, fmt.Errorf("%w: %q", errs.ErrNotFound, innerPath)
	}

	lfh, err := zipfmt.ParseLFH(h.file, offset)
	if err != nil {
		return 0, 0, nil, err
	}

	if lfh.Filename != innerPath {
		return 0, 0, nil, fmt.Errorf("%w: index pointed at %q, expected %q", errs.ErrIndexMisaligned, lfh.Filename, innerPath)
	}

	raw, err = zipfmt.ReadPayload(h.file, lfh)
	if err != nil {
		return 0, 0, nil, err
	}

	return format.CompressionMethod(lfh.CompressionMethod), int(lfh.UncompressedSize), raw, nil
}

// FetchDecoded resolves innerPath and returns its fully decompressed bytes.
func (h *Handle) FetchDecoded(innerPath string) ([]byte, error) {
	method, uncompressedSize, raw, err := h.FetchRaw(innerPath)
	if err != nil {
		return nil, err
	}

	return compress.Decompress(method, uncompressedSize, raw)
}

// Iter yields every indexed file's path and Local File Header, in index
// order (ascending by MD5 digest, not filesystem order), for bulk scans
// such as building a manifest or re-exporting an archive's contents.
func (h *Handle) Iter() iter.Seq2[string, zipfmt.LocalFileHeader] {
	return func(yield func(string, zipfmt.LocalFileHeader) bool) {
		for i := range h.index.Len() {
			lfh, err := zipfmt.ParseLFH(h.file, h.index.OffsetAt(i))
			if err != nil {
				return
			}

			if !yield(lfh.Filename, lfh) {
				return
			}
		}
	}
}
