// Package pool provides a pooled scratch byte buffer for the hot read path
// in tdtiles: Local File Header probe reads (zipfmt.ParseLFH).
package pool

import "sync"

// ReadBufferDefaultSize covers a Local File Header (30 bytes) plus a
// generous filename/extra-field probe window.
const (
	ReadBufferDefaultSize = 4 * 1024   // 4KiB, covers an LFH probe read
	ReadBufferMaxThreshold = 256 * 1024 // discard buffers grown past this
)

// ByteBuffer is a reusable, growable byte slice wrapper.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the given starting capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte { return bb.B }

// Reset empties the buffer while retaining its backing array.
func (bb *ByteBuffer) Reset() { bb.B = bb.B[:0] }

// SetLength sets the buffer's length to n, growing the backing array if
// necessary.
func (bb *ByteBuffer) SetLength(n int) {
	if n <= cap(bb.B) {
		bb.B = bb.B[:n]
		return
	}

	newBuf := make([]byte, n)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// ByteBufferPool pools ByteBuffers to cut allocations on repeated small reads.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool whose buffers start at defaultSize and are
// discarded, rather than recycled, once they grow past maxThreshold.
func NewByteBufferPool(defaultSize, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any { return NewByteBuffer(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse, discarding it instead if it
// has grown past the pool's max threshold.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var defaultPool = NewByteBufferPool(ReadBufferDefaultSize, ReadBufferMaxThreshold)

// Get retrieves a ByteBuffer from the default pool.
func Get() *ByteBuffer { return defaultPool.Get() }

// Put returns a ByteBuffer to the default pool.
func Put(bb *ByteBuffer) { defaultPool.Put(bb) }
