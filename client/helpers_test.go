package client_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/adamwoolhether/asynchttp/body"
	"github.com/adamwoolhether/asynchttp/client"
	"github.com/adamwoolhether/asynchttp/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newConfig returns a Config with a silent logger.
func newConfig() *config.Config {
	return config.New().SetLogger(discardLogger())
}

// newClient builds a Client from cfg and closes it when the test ends.
func newClient(t *testing.T, cfg *config.Config, opts ...client.Option) *client.Client {
	t.Helper()

	c, err := client.New(cfg, opts...)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("closing client: %v", err)
		}
	})

	return c
}

func mustRequest(t *testing.T, c *client.Client, rawURL, method string, opts ...client.RequestOption) *http.Request {
	t.Helper()

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("failed to parse url: %v", err)
	}

	req, err := c.Request(t.Context(), u, method, opts...)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	return req
}

// recorder is a Handler keeping track of every callback.
type recorder struct {
	mu        sync.Mutex
	status    int
	parts     [][]byte
	lasts     []bool
	uris      []*url.URL
	completed int
	errs      []error

	// closeConn marks the first part's connection as closed.
	closeConn bool
	// onStatus, when set, runs inside OnStatus.
	onStatus func()
	// onPart, when set, runs inside OnBodyPart.
	onPart func()
}

func (r *recorder) OnStatus(resp *http.Response) client.State {
	if r.onStatus != nil {
		r.onStatus()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = resp.StatusCode

	return client.Continue
}

func (r *recorder) OnBodyPart(p *body.Part) client.State {
	if r.onPart != nil {
		r.onPart()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closeConn && len(r.parts) == 0 {
		p.MarkConnectionAsClosed()
	}
	r.parts = append(r.parts, p.Bytes())
	r.lasts = append(r.lasts, p.IsLast())
	r.uris = append(r.uris, p.URI())

	return client.Continue
}

func (r *recorder) OnCompleted() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
	return nil
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) lastCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for _, l := range r.lasts {
		if l {
			n++
		}
	}
	return n
}

// fakePool is a ConnectionPool answering every round trip with fn.
type fakePool struct {
	calls atomic.Int32
	fn    func(r *http.Request) (*http.Response, error)
}

func (f *fakePool) RoundTrip(r *http.Request) (*http.Response, error) {
	f.calls.Add(1)
	return f.fn(r)
}

func (f *fakePool) CloseIdleConnections() {}

// proxyServerFor points a ProxyServer at a test server.
func proxyServerFor(t *testing.T, ts *httptest.Server) *config.ProxyServer {
	t.Helper()

	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("failed to parse proxy url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("failed to parse proxy port: %v", err)
	}

	return config.NewProxyServer(u.Hostname(), port)
}
