package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/adamwoolhether/asynchttp/body"
	"github.com/adamwoolhether/asynchttp/client/download"
	"github.com/adamwoolhether/asynchttp/config"
	"github.com/adamwoolhether/asynchttp/executor"
	"github.com/adamwoolhether/asynchttp/filter"
)

// Client executes requests under the policy of a [config.Config].
// The configuration is read once in [New]; later changes to it do not
// affect the Client.
type Client struct {
	hc        *http.Client
	snap      config.Snapshot
	exec      executor.Executor
	cfg       *config.Config
	logger    *slog.Logger
	chunkSize int

	requestFilters     []filter.RequestFilter
	responseFilters    []filter.ResponseFilter
	ioExceptionFilters []filter.IOExceptionFilter

	closed atomic.Bool
}

// New validates cfg and builds a Client from it. The Client owns cfg's
// executor from now on and shuts it down in [Client.Close].
func New(cfg *config.Config, optFns ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config must not be nil")
	}

	opts := options{chunkSize: DefaultChunkSize}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	c := Client{
		snap:               cfg.Snapshot(),
		exec:               cfg.ApplicationThreadPool(),
		cfg:                cfg,
		logger:             cfg.Logger(),
		chunkSize:          opts.chunkSize,
		requestFilters:     cfg.RequestFilters(),
		responseFilters:    cfg.ResponseFilters(),
		ioExceptionFilters: cfg.IOExceptionFilters(),
	}
	if opts.logger != nil {
		c.logger = opts.logger
	}

	c.hc = &http.Client{
		Transport:     c.transport(cfg.Tracer()),
		CheckRedirect: c.checkRedirect,
	}

	return &c, nil
}

// transport assembles the round-tripper chain, outermost first:
// tracing, user agent, realm, SSL pool opt-out, compression, connection cap.
func (c *Client) transport(tracer trace.Tracer) http.RoundTripper {
	rt := baseTransport(c.snap)

	if n := c.snap.MaxTotalConnections; n > 0 {
		rt = connLimit{sem: semaphore.NewWeighted(int64(n)), max: n, base: rt}
	}
	if c.snap.CompressionEnabled || c.snap.RequestCompressionLevel > 0 {
		rt = compression{level: c.snap.RequestCompressionLevel, decode: c.snap.CompressionEnabled, base: rt}
	}
	if !c.snap.AllowSSLConnectionPool {
		rt = noSSLPool{base: rt}
	}
	if c.snap.Realm != nil {
		rt = realmAuth{realm: c.snap.Realm, base: rt}
	}
	if c.snap.UserAgent != "" {
		rt = userAgent{value: c.snap.UserAgent, base: rt}
	}
	if tracer == nil {
		tracer = config.DefaultTracer()
	}

	return tracing{
		tracer:     tracer,
		propagator: propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
		base:       rt,
	}
}

func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if !c.snap.FollowRedirect {
		return http.ErrUseLastResponse
	}
	if len(via) > c.snap.MaxRedirects {
		return fmt.Errorf("%w: %d", ErrMaxRedirects, c.snap.MaxRedirects)
	}

	if !c.snap.RemoveQueryParamOnRedirect && req.URL.RawQuery == "" {
		req.URL.RawQuery = via[0].URL.RawQuery
	}

	prev := via[len(via)-1]
	if c.snap.Strict302Handling && req.Response != nil && req.Response.StatusCode == http.StatusFound && req.Method != prev.Method {
		req.Method = prev.Method
		if prev.GetBody != nil {
			b, err := prev.GetBody()
			if err != nil {
				return fmt.Errorf("rewinding body for redirect: %w", err)
			}
			req.Body = b
			req.GetBody = prev.GetBody
			req.ContentLength = prev.ContentLength
		}
		if ct := prev.Header.Get("Content-Type"); ct != "" {
			req.Header.Set("Content-Type", ct)
		}
	}

	return nil
}

// Execute sends req on the configured executor and streams the response
// to h. It returns as soon as the exchange is scheduled.
//
// The exchange runs until req's context ends, RequestTimeout elapses,
// or the Future is cancelled, whichever comes first.
func (c *Client) Execute(req *http.Request, h Handler) (*Future, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if req == nil {
		return nil, errors.New("request must not be nil")
	}
	if h == nil {
		return nil, errors.New("handler must not be nil")
	}

	task, err := c.exec.Go(func(ctx context.Context) error {
		if err := c.exchange(ctx, req, h); err != nil {
			h.OnError(err)
			return err
		}
		return h.OnCompleted()
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling exchange: %w", err)
	}

	return &Future{task: task}, nil
}

// Do executes req and waits for the whole response. A status other than
// expCode yields an [*UnexpectedStatusError] carrying the start of the body.
func (c *Client) Do(req *http.Request, expCode int, opts ...DoOption) (*Response, error) {
	var settings doOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return nil, err
		}
	}

	var col Collector
	f, err := c.Execute(req, &expectStatus{code: expCode, next: &col})
	if err != nil {
		return nil, err
	}
	if err := f.Err(); err != nil {
		return nil, err
	}

	resp, err := col.Response()
	if err != nil {
		return nil, err
	}

	if settings.responseBody != nil {
		d := json.NewDecoder(bytes.NewReader(resp.Body))

		if settings.useJSONNum {
			d.UseNumber()
		}

		if err := d.Decode(settings.responseBody); err != nil {
			return nil, fmt.Errorf("decoding body: %w", err)
		}
	}

	return resp, nil
}

// Download executes a request whose response body is streamed to destPath.
// Data streams to a temp file in the same directory, then the temp file is
// renamed to destPath on success or removed on failure.
func (c *Client) Download(req *http.Request, expCode int, destPath string, opts ...download.Option) error {
	f, err := c.DownloadAsync(req, expCode, destPath, opts...)
	if err != nil {
		return err
	}
	if f == nil {
		return nil
	}

	if err := f.Err(); err != nil {
		return fmt.Errorf("download: %w", err)
	}

	return nil
}

// DownloadAsync is the non-blocking form of [Client.Download]. The
// returned Future is nil when the download was skipped.
func (c *Client) DownloadAsync(req *http.Request, expCode int, destPath string, opts ...download.Option) (*Future, error) {
	h, err := download.NewHandler(destPath, c.logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if h.Skip() {
		return nil, nil
	}

	return c.Execute(req, &expectStatus{code: expCode, next: fileHandler{h: h}})
}

// fileHandler adapts a download.Handler to Handler.
type fileHandler struct {
	h *download.Handler
}

func (f fileHandler) OnStatus(resp *http.Response) State { return stateOf(f.h.OnStatus(resp)) }
func (f fileHandler) OnBodyPart(p *body.Part) State      { return stateOf(f.h.OnBodyPart(p)) }
func (f fileHandler) OnCompleted() error                 { return f.h.OnCompleted() }
func (f fileHandler) OnError(err error)                  { f.h.OnError(err) }

func stateOf(abort bool) State {
	if abort {
		return Abort
	}
	return Continue
}

// Request instantiates an *http.Request with the provided information.
// It's just a convenience method that wraps the public Request func.
func (c *Client) Request(ctx context.Context, reqURL *url.URL, method string, opts ...RequestOption) (*http.Request, error) {
	return Request(ctx, reqURL, method, opts...)
}

// URL creates a url.URL for use in Request.
// It's just a convenience method that wraps the public URL func.
func (c *Client) URL(scheme, host, path string, opts ...URLOption) *url.URL {
	return URL(scheme, host, path, opts...)
}

// Close stops the Client from accepting exchanges, drops idle
// connections and shuts down the executor, cancelling exchanges in
// flight. Calling Close more than once is a no-op.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.hc.CloseIdleConnections()

	if err := c.cfg.Close(); err != nil {
		return fmt.Errorf("closing config: %w", err)
	}

	return nil
}

// exchange runs the filters, sends req and pumps the response into h.
// The exchange keeps the values of req's context and ends with either
// req's context or the task's.
func (c *Client) exchange(ctx context.Context, req *http.Request, h Handler) error {
	taskCtx := ctx
	ctx, cancel := context.WithCancelCause(req.Context())
	defer cancel(nil)

	stop := context.AfterFunc(taskCtx, func() {
		cancel(context.Cause(taskCtx))
	})
	defer stop()

	if d := c.snap.RequestTimeout; d > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeoutCause(ctx, d, ErrRequestTimeout)
		defer cancelTimeout()
	}

	fc, err := filter.RunRequest(ctx, c.requestFilters, filter.Context{Request: req})
	if err != nil {
		return fmt.Errorf("exec request filters: %w", err)
	}
	if fc.Request != nil {
		req = fc.Request
	}

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if req, err = rewind(req); err != nil {
				return err
			}
		}

		var cr connRef
		traced := httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
			GotConn: func(info httptrace.GotConnInfo) { cr.set(info.Conn) },
		})

		resp, err := c.hc.Do(req.WithContext(traced))
		if err != nil {
			err = causeOf(ctx, err)

			fc, ferr := filter.RunIOException(ctx, c.ioExceptionFilters, filter.Context{Request: req, Err: err})
			if ferr != nil {
				return fmt.Errorf("exec io exception filters: %w", ferr)
			}
			if fc.Replay && attempt < c.snap.MaxRequestRetry && ctx.Err() == nil {
				if fc.Request != nil {
					req = fc.Request
				}
				c.logger.Debug("replaying request", "url", req.URL.String(), "attempt", attempt+1, "error", err)
				continue
			}

			return fmt.Errorf("exec http do: %w", err)
		}

		fc, err := filter.RunResponse(ctx, c.responseFilters, filter.Context{Request: req, Response: resp})
		if err != nil {
			c.discard(resp)
			return fmt.Errorf("exec response filters: %w", err)
		}
		if fc.Replay && attempt < c.snap.MaxRequestRetry {
			c.discard(resp)
			if fc.Request != nil {
				req = fc.Request
			}
			c.logger.Debug("replaying request", "url", req.URL.String(), "attempt", attempt+1, "status", resp.StatusCode)
			continue
		}
		conn := cr.get()
		if fc.Response != nil && fc.Response != resp {
			// The original body goes back to the pool along with its conn.
			c.discard(resp)
			resp, conn = fc.Response, nil
		}

		return c.deliver(ctx, cancel, resp, conn, h)
	}
}

// deliver hands the status and the body parts of resp to h, then
// decides whether the connection may go back to the pool.
func (c *Client) deliver(ctx context.Context, cancel context.CancelCauseFunc, resp *http.Response, conn net.Conn, h Handler) error {
	closeConn := true
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
		c.retire(conn, closeConn)
	}()

	if h.OnStatus(resp) == Abort {
		return nil
	}

	requested, err := c.pump(ctx, cancel, resp, h)
	if err != nil {
		return err
	}
	closeConn = requested

	return nil
}

// retire closes conn when a part asked for it or when it outlived
// MaxConnectionLifetime.
func (c *Client) retire(conn net.Conn, requested bool) {
	if conn == nil {
		return
	}

	if !requested && c.snap.MaxConnectionLifetime > 0 {
		age, ok := connAge(conn)
		requested = ok && age > c.snap.MaxConnectionLifetime
	}
	if !requested {
		return
	}

	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		c.logger.Warn("failed to close connection", "error", err)
	}
}

// discard drains and closes a response the client is about to replay.
func (c *Client) discard(resp *http.Response) {
	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrBodySize)); err != nil {
		c.logger.Error("failed to discard unused body", "error", err)
	}
	if err := resp.Body.Close(); err != nil {
		c.logger.Error("failed to close response body", "error", err)
	}
}

// rewind prepares req to be sent again.
func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, ErrBodyNotReplayable
	}

	b, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewinding body: %w", err)
	}

	cpy := req.Clone(req.Context())
	cpy.Body = b

	return cpy, nil
}

// causeOf prefers the cancellation cause recorded on ctx over err.
func causeOf(ctx context.Context, err error) error {
	cause := context.Cause(ctx)
	if cause == nil || errors.Is(err, cause) {
		return err
	}

	return fmt.Errorf("%w: %w", cause, err)
}

// connRef records the connection a request was sent on.
type connRef struct {
	mu   sync.Mutex
	conn net.Conn
}

func (r *connRef) set(conn net.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn = conn
}

func (r *connRef) get() net.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn
}
