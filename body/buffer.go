package body

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// ErrIndexOutOfRange is returned when a reader index falls outside the buffer.
var ErrIndexOutOfRange = errors.New("reader index out of range")

var pool bytebufferpool.Pool

// Buffer is a readable byte range with a reader index.
// The bytes between the reader index and the end of the buffer are
// the readable bytes.
type Buffer struct {
	bb     *bytebufferpool.ByteBuffer
	b      []byte
	r      int
	drains atomic.Int64
}

// NewBuffer wraps b without copying it.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{b: b}
}

// AcquireBuffer returns an empty buffer from the shared pool.
// Return it with [ReleaseBuffer] once no callback holds it anymore.
func AcquireBuffer() *Buffer {
	bb := pool.Get()
	return &Buffer{bb: bb, b: bb.B[:0]}
}

// ReleaseBuffer hands buf back to the shared pool.
// buf must not be used afterwards. Buffers built with NewBuffer are ignored.
func ReleaseBuffer(buf *Buffer) {
	if buf == nil || buf.bb == nil {
		return
	}

	buf.bb.B = buf.b[:0]
	pool.Put(buf.bb)
	buf.bb = nil
	buf.b = nil
	buf.r = 0
}

// Fill reads at most max bytes from src into the buffer, replacing
// its content and resetting the reader index. It performs reads until
// at least one byte arrives or src returns an error.
func (buf *Buffer) Fill(src io.Reader, max int) (int, error) {
	if max <= 0 {
		return 0, fmt.Errorf("fill size %d: must be greater than zero", max)
	}

	if cap(buf.b) < max {
		buf.b = make([]byte, max)
	}
	buf.b = buf.b[:max]
	buf.r = 0

	for {
		n, err := src.Read(buf.b)
		if n > 0 || err != nil {
			buf.b = buf.b[:n]
			return n, err
		}
	}
}

// Readable returns the number of bytes between the reader index and the end.
func (buf *Buffer) Readable() int {
	return len(buf.b) - buf.r
}

// ReaderIndex returns the current reader index.
func (buf *Buffer) ReaderIndex() int {
	return buf.r
}

// SetReaderIndex moves the reader index to i.
func (buf *Buffer) SetReaderIndex(i int) error {
	if i < 0 || i > len(buf.b) {
		return fmt.Errorf("index %d, length %d: %w", i, len(buf.b), ErrIndexOutOfRange)
	}
	buf.r = i
	return nil
}

// Read implements io.Reader and advances the reader index.
func (buf *Buffer) Read(p []byte) (int, error) {
	if buf.r >= len(buf.b) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}

	n := copy(p, buf.b[buf.r:])
	buf.r += n
	return n, nil
}

// Peek returns the readable bytes without moving the reader index.
// The returned slice aliases the buffer and is only valid while the
// transport keeps the buffer alive.
func (buf *Buffer) Peek() []byte {
	return buf.b[buf.r:]
}

// Drain copies all readable bytes into a new slice, leaving the reader
// index where it was.
func (buf *Buffer) Drain() []byte {
	buf.drains.Add(1)

	out := make([]byte, buf.Readable())
	copy(out, buf.b[buf.r:])
	return out
}

// Drains reports how many times Drain copied the buffer's content.
func (buf *Buffer) Drains() int64 {
	return buf.drains.Load()
}
