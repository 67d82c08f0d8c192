package client

import (
	"bytes"
	"net/http"
	"sync"

	"github.com/adamwoolhether/asynchttp/body"
)

// State tells the client whether to keep processing a response.
type State int

const (
	// Continue keeps reading the response.
	Continue State = iota
	// Abort stops reading the response and discards its connection.
	Abort
)

// Handler receives a response as it arrives. Callbacks run on the
// configuration's executor, one at a time and in order for a given
// exchange.
//
// OnStatus receives the status line and headers; the handler must not
// read resp.Body. OnBodyPart receives each part of the body; the part's
// raw buffer is recycled once the callback returns. OnCompleted runs
// once the body was fully delivered or a callback returned Abort, and
// its error becomes the exchange's error. OnError runs instead of
// OnCompleted when the exchange fails.
type Handler interface {
	OnStatus(resp *http.Response) State
	OnBodyPart(p *body.Part) State
	OnCompleted() error
	OnError(err error)
}

// Collector is a Handler that keeps the whole response in memory.
type Collector struct {
	mu   sync.Mutex
	resp *Response
	buf  bytes.Buffer
	err  error
	done bool
}

func (c *Collector) OnStatus(resp *http.Response) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resp = &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
	}
	if resp.Request != nil {
		c.resp.URL = resp.Request.URL
	}
	c.buf.Reset()

	return Continue
}

func (c *Collector) OnBodyPart(p *body.Part) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buf.Write(p.Bytes())

	return Continue
}

func (c *Collector) OnCompleted() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.done = true
	if c.resp != nil {
		c.resp.Body = bytes.Clone(c.buf.Bytes())
	}

	return c.err
}

func (c *Collector) OnError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.done = true
	c.err = err
}

// Response returns the collected response once the exchange finished.
func (c *Collector) Response() (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	if !c.done || c.resp == nil {
		return nil, ErrIncomplete
	}

	return c.resp, nil
}
