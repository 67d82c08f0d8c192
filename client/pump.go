package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/adamwoolhether/asynchttp/body"
)

// pump reads the body of resp into pooled buffers and hands them to h
// as parts. It reads one chunk ahead so that the part carrying the end
// of the body is flagged last; an empty body yields one empty last part.
// requested reports whether a part asked for the connection to be closed
// or the handler aborted.
func (c *Client) pump(ctx context.Context, cancel context.CancelCauseFunc, resp *http.Response, h Handler) (requested bool, err error) {
	var src io.Reader = resp.Body
	if d := c.snap.IdleConnectionTimeout; d > 0 {
		ir := newIdleReader(resp.Body, d, func() { cancel(ErrIdleTimeout) })
		defer ir.stop()
		src = ir
	}

	var uri *url.URL
	if resp.Request != nil {
		uri = resp.Request.URL
	}

	cur, next := body.AcquireBuffer(), body.AcquireBuffer()
	defer func() {
		body.ReleaseBuffer(cur)
		body.ReleaseBuffer(next)
	}()

	curEOF, err := c.fill(ctx, cur, src)
	if err != nil {
		return true, err
	}

	for {
		last := curEOF

		var nextEOF bool
		if !last {
			if nextEOF, err = c.fill(ctx, next, src); err != nil {
				return true, err
			}
			last = nextEOF && next.Readable() == 0
		}

		p := body.NewPart(uri, cur, last)
		state := h.OnBodyPart(p)
		requested = requested || p.IsConnectionCloseRequested()

		if state == Abort {
			return true, nil
		}
		if last {
			return requested, nil
		}

		cur, next = next, cur
		curEOF = nextEOF
	}
}

// fill reads the next chunk into buf. eof is true once the body ended.
func (c *Client) fill(ctx context.Context, buf *body.Buffer, src io.Reader) (eof bool, err error) {
	_, err = buf.Fill(src, c.chunkSize)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, io.EOF):
		return true, nil
	default:
		return false, fmt.Errorf("reading body: %w", causeOf(ctx, err))
	}
}

// idleReader fires onIdle when a single read blocks for longer than d.
// The timer only runs while a read is outstanding, so time spent in the
// handler between reads never counts as idle.
type idleReader struct {
	r     io.Reader
	d     time.Duration
	timer *time.Timer
}

func newIdleReader(r io.Reader, d time.Duration, onIdle func()) *idleReader {
	t := time.AfterFunc(d, onIdle)
	t.Stop()

	return &idleReader{
		r:     r,
		d:     d,
		timer: t,
	}
}

func (ir *idleReader) Read(p []byte) (int, error) {
	ir.timer.Reset(ir.d)
	n, err := ir.r.Read(p)
	ir.timer.Stop()

	return n, err
}

func (ir *idleReader) stop() {
	ir.timer.Stop()
}
