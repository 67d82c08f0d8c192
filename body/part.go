package body

import (
	"bytes"
	"io"
	"net/url"
	"sync"
	"sync/atomic"
)

// Part is one segment of a response body as delivered by the transport.
//
// The raw buffer is owned by the transport and is valid only for the
// duration of the callback receiving the Part. The materialized bytes
// returned by Bytes are owned by the caller and stay valid afterwards.
type Part struct {
	uri  *url.URL
	raw  *Buffer
	last bool

	mu     sync.Mutex
	cached atomic.Pointer[[]byte]

	closeConn atomic.Bool
}

// NewPart returns a Part viewing raw. last must be true only for the
// final part of a response body.
func NewPart(uri *url.URL, raw *Buffer, last bool) *Part {
	if raw == nil {
		raw = NewBuffer(nil)
	}

	return &Part{
		uri:  uri,
		raw:  raw,
		last: last,
	}
}

// NewChunkPart returns a Part viewing chunk, or full when the response
// was not chunked and chunk is nil.
func NewChunkPart(uri *url.URL, chunk, full *Buffer, last bool) *Part {
	if chunk != nil {
		return NewPart(uri, chunk, last)
	}
	return NewPart(uri, full, last)
}

// URI returns the URL of the request this part answers.
func (p *Part) URI() *url.URL {
	return p.uri
}

// RawBuffer returns the transport-owned buffer.
// Callers must not retain it past the callback's scope.
func (p *Part) RawBuffer() *Buffer {
	return p.raw
}

// Len returns the number of readable bytes without materializing them.
func (p *Part) Len() int {
	if b := p.cached.Load(); b != nil {
		return len(*b)
	}
	return p.raw.Readable()
}

// Bytes returns the part's bytes, copying them out of the raw buffer
// on the first call only. Concurrent callers all observe the same
// fully copied slice. The slice must not be modified.
func (p *Part) Bytes() []byte {
	if b := p.cached.Load(); b != nil {
		return *b
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if b := p.cached.Load(); b != nil {
		return *b
	}

	b := p.raw.Drain()
	p.cached.Store(&b)

	return b
}

// Reader returns an io.Reader over the materialized bytes.
func (p *Part) Reader() io.Reader {
	return bytes.NewReader(p.Bytes())
}

// WriteTo writes the readable bytes of the raw buffer to w and returns
// the number of bytes written. The reader index is left unchanged, so a
// later Bytes or WriteTo call sees the same content. Errors from w are
// returned as is.
func (p *Part) WriteTo(w io.Writer) (int64, error) {
	b := p.raw.Peek()
	if len(b) == 0 {
		return 0, nil
	}

	n, err := w.Write(b)
	return int64(n), err
}

// IsLast reports whether this is the final part of the body.
func (p *Part) IsLast() bool {
	return p.last
}

// MarkConnectionAsClosed asks the transport not to reuse the connection
// that delivered this part. It cannot be undone.
func (p *Part) MarkConnectionAsClosed() {
	p.closeConn.Store(true)
}

// IsConnectionCloseRequested reports whether MarkConnectionAsClosed was called.
func (p *Part) IsConnectionCloseRequested() bool {
	return p.closeConn.Load()
}
