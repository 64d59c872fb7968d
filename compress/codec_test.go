package compress

import (
	"bytes"
	stdflate "compress/flate"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusgeo/tdtiles/errs"
	"github.com/nimbusgeo/tdtiles/format"
)

func rawDeflate(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := stdflate.NewWriter(&buf, stdflate.BestCompression)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func zstdFrame(t *testing.T, data []byte) []byte {
	t.Helper()

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)

	return enc.EncodeAll(data, nil)
}

func TestDecompress_Store(t *testing.T) {
	payload := []byte("tileset.json contents")

	out, err := Decompress(format.CompressionStore, len(payload), payload)

	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestDecompress_StoreLengthMismatch(t *testing.T) {
	payload := []byte("short")

	_, err := Decompress(format.CompressionStore, len(payload)+1, payload)

	assert.ErrorIs(t, err, errs.ErrDecompressionLengthMismatch)
}

func TestDecompress_Deflate(t *testing.T) {
	payload := bytes.Repeat([]byte("abcdefgh"), 256)
	compressed := rawDeflate(t, payload)

	out, err := Decompress(format.CompressionDeflate, len(payload), compressed)

	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestDecompress_DeflateLengthMismatch(t *testing.T) {
	payload := bytes.Repeat([]byte("xyz"), 64)
	compressed := rawDeflate(t, payload)

	_, err := Decompress(format.CompressionDeflate, len(payload)-1, compressed)

	assert.ErrorIs(t, err, errs.ErrDecompressionLengthMismatch)
}

func TestDecompress_Zstd(t *testing.T) {
	payload := bytes.Repeat([]byte("glTF metadata payload "), 128)
	compressed := zstdFrame(t, payload)

	out, err := Decompress(format.CompressionZstd, len(payload), compressed)

	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestDecompress_ZstdLegacyMethodCodeUsesSameDecoder(t *testing.T) {
	payload := []byte("legacy method code, modern frame body")
	compressed := zstdFrame(t, payload)

	out, err := Decompress(format.CompressionZstdLegacy, len(payload), compressed)

	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestDecompress_ZstdLengthMismatch(t *testing.T) {
	payload := []byte("mismatched length case")
	compressed := zstdFrame(t, payload)

	_, err := Decompress(format.CompressionZstd, len(payload)+5, compressed)

	assert.ErrorIs(t, err, errs.ErrDecompressionLengthMismatch)
}

func TestDecompress_UnsupportedMethod(t *testing.T) {
	_, err := Decompress(format.CompressionMethod(99), 0, nil)

	assert.ErrorIs(t, err, errs.ErrUnsupportedCompressionMethod)
}

func TestDecompress_EmptyStore(t *testing.T) {
	out, err := Decompress(format.CompressionStore, 0, nil)

	require.NoError(t, err)
	assert.Empty(t, out)
}
