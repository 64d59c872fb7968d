package compress

// decompressStore implements the Store (method 0) identity pass-through: the
// payload is already the uncompressed bytes, so the only check left is that
// its length matches what the index promised.
func decompressStore(expectedSize int, input []byte) ([]byte, error) {
	return checkLength(expectedSize, input)
}
