package pool

import (
	"io"
	"sync"
)

// StagingBufferDefaultSize is the default capacity of buffers obtained from
// the staging pool. Encoder staging regions (header, struct, variable) are
// typically small; the output buffer grows past this as rows accumulate.
const (
	StagingBufferDefaultSize  = 1024
	StagingBufferMaxThreshold = 1024 * 256 // 256KiB
)

// ByteBuffer is an append-only byte region with amortized-doubling growth.
//
// Push returns a writable window into the backing array; any later Push may
// reallocate, so returned slices are only valid until the next growth.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified initial capacity.
func NewByteBuffer(capacity int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, capacity),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Len returns the number of bytes written.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the backing array.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Reset resets the buffer to be empty but retains the allocated memory.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Push extends the buffer by n bytes and returns the newly claimed region
// for the caller to fill. The backing array doubles when capacity runs out;
// only the live prefix is copied, and new bytes are not zeroed beyond what
// append guarantees.
func (bb *ByteBuffer) Push(n int) []byte {
	start := len(bb.B)
	bb.grow(n)
	bb.B = bb.B[:start+n]

	return bb.B[start : start+n]
}

// PushByte appends a single byte.
func (bb *ByteBuffer) PushByte(b byte) {
	bb.B = append(bb.B, b)
}

// MustWrite appends data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// grow ensures the buffer can hold n more bytes without reallocating,
// doubling the capacity until it fits.
func (bb *ByteBuffer) grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}

	newCap := cap(bb.B)
	if newCap == 0 {
		newCap = StagingBufferDefaultSize
	}
	for newCap < len(bb.B)+n {
		newCap *= 2
	}

	newBuf := make([]byte, len(bb.B), newCap)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends the contents of data to the buffer, growing it as needed.
// It implements io.Writer and never fails.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations.
//
// It uses sync.Pool internally and discards buffers that grew past the
// configured threshold to avoid retaining oversized backing arrays.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the
// specified default capacity.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
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

var stagingDefaultPool = NewByteBufferPool(StagingBufferDefaultSize, StagingBufferMaxThreshold)

// GetStagingBuffer retrieves a ByteBuffer from the default staging pool.
func GetStagingBuffer() *ByteBuffer {
	return stagingDefaultPool.Get()
}

// PutStagingBuffer returns a ByteBuffer to the default staging pool.
func PutStagingBuffer(bb *ByteBuffer) {
	stagingDefaultPool.Put(bb)
}
