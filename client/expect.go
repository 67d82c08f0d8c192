package client

import (
	"bytes"
	"net/http"

	"github.com/adamwoolhether/asynchttp/body"
)

// expectStatus forwards an exchange to next only when the status code
// matches. Otherwise it keeps up to maxErrBodySize bytes of the body
// and fails the exchange with an UnexpectedStatusError.
type expectStatus struct {
	code int
	next Handler

	got     int
	errBody bytes.Buffer
}

func (e *expectStatus) OnStatus(resp *http.Response) State {
	if resp.StatusCode != e.code {
		e.got = resp.StatusCode
		return Continue
	}
	return e.next.OnStatus(resp)
}

func (e *expectStatus) OnBodyPart(p *body.Part) State {
	if e.got == 0 {
		return e.next.OnBodyPart(p)
	}

	b := p.Bytes()
	if room := maxErrBodySize - e.errBody.Len(); len(b) > room {
		b = b[:room]
	}
	e.errBody.Write(b)

	if e.errBody.Len() >= maxErrBodySize {
		return Abort
	}
	return Continue
}

func (e *expectStatus) OnCompleted() error {
	if e.got == 0 {
		return e.next.OnCompleted()
	}

	err := &UnexpectedStatusError{
		StatusCode: e.got,
		Body:       e.errBody.String(),
		Err:        ErrUnexpectedStatusCode,
	}
	e.next.OnError(err)

	return err
}

func (e *expectStatus) OnError(err error) {
	e.next.OnError(err)
}
