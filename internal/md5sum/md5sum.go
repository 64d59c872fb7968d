// Package md5sum computes the two-halves MD5 digest the 3TZ index sorts and
// searches by. Every index entry and every lookup key reduces to the same
// sixteen bytes of an MD5 digest, reinterpreted as two little-endian u64
// values, so index construction and index search both end up calling here.
package md5sum

import (
	"crypto/md5"
	"encoding/binary"
)

// Halves is an MD5 digest split into its low and high 64-bit little-endian
// halves: Lo is digest bytes [0:8], Hi is digest bytes [8:16]. This matches
// the archive's on-disk index entry layout exactly, so a Halves value can be
// compared directly against index entries without further conversion.
type Halves struct {
	Lo uint64
	Hi uint64
}

// Less reports whether h sorts before other, using the same two-stage
// comparison the 3TZ index was built with: compare Lo first, and only
// consult Hi when the two Lo halves are equal.
func (h Halves) Less(other Halves) bool {
	if h.Lo == other.Lo {
		return h.Hi < other.Hi
	}

	return h.Lo < other.Lo
}

// Equal reports whether h and other are the same digest.
func (h Halves) Equal(other Halves) bool {
	return h.Lo == other.Lo && h.Hi == other.Hi
}

// Of computes the MD5 digest of path (interpreted as UTF-8 bytes, the
// encoding every 3TZ index was built against) and returns it as little
// endian halves.
func Of(path string) Halves {
	digest := md5.Sum([]byte(path))

	return Halves{
		Lo: binary.LittleEndian.Uint64(digest[0:8]),
		Hi: binary.LittleEndian.Uint64(digest[8:16]),
	}
}
