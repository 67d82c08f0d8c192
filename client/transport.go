package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/adamwoolhether/asynchttp/config"
)

// dialKeepAlive is the TCP keep-alive period of dialed connections.
const dialKeepAlive = 30 * time.Second

// acceptEncoding lists the codings decoded when compression is enabled.
const acceptEncoding = "gzip, deflate, br"

// baseTransport returns the configured connection pool, or builds an
// http.Transport from the snapshot.
func baseTransport(s config.Snapshot) http.RoundTripper {
	if s.ConnectionPool != nil {
		return s.ConnectionPool
	}

	dialer := &net.Dialer{
		Timeout:   positive(s.ConnectionTimeout),
		KeepAlive: dialKeepAlive,
	}

	return &http.Transport{
		Proxy: proxyFunc(s.ProxySelector),
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &trackedConn{Conn: conn, born: time.Now()}, nil
		},
		TLSClientConfig:     tlsConfig(s),
		TLSHandshakeTimeout: positive(s.ConnectionTimeout),
		DisableKeepAlives:   !s.AllowPoolingConnection,
		DisableCompression:  true,
		MaxConnsPerHost:     max(s.MaxConnectionsPerHost, 0),
		IdleConnTimeout:     positive(s.IdleConnectionInPoolTimeout),
	}
}

// positive maps the negative "unlimited" durations onto the zero value
// net/http uses for the same meaning.
func positive(d time.Duration) time.Duration {
	return max(d, 0)
}

func proxyFunc(sel config.ProxySelector) func(*http.Request) (*url.URL, error) {
	if sel == nil {
		return nil
	}

	return func(r *http.Request) (*url.URL, error) {
		p := sel.Select(r.URL)
		if p == nil || p.IsIgnored(r.URL.Host) {
			return nil, nil
		}
		return p.URL(), nil
	}
}

// tlsConfig applies the certificate policy of s to its TLS config.
// A hostname verifier other than the strict one replaces the standard
// name check but keeps the chain verification.
func tlsConfig(s config.Snapshot) *tls.Config {
	tc := s.TLSConfig
	if tc == nil {
		tc = &tls.Config{}
	}

	if s.AcceptAnyCertificate {
		tc.InsecureSkipVerify = true
		return tc
	}

	hv := s.HostnameVerifier
	if hv == nil {
		return tc
	}
	if _, strict := hv.(config.StrictHostnameVerifier); strict {
		return tc
	}

	roots := tc.RootCAs
	tc.InsecureSkipVerify = true
	tc.VerifyConnection = func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return config.ErrNoPeerCertificate
		}

		opts := x509.VerifyOptions{
			Roots:         roots,
			Intermediates: x509.NewCertPool(),
		}
		for _, cert := range cs.PeerCertificates[1:] {
			opts.Intermediates.AddCert(cert)
		}
		if _, err := cs.PeerCertificates[0].Verify(opts); err != nil {
			return fmt.Errorf("verifying certificate chain: %w", err)
		}

		if err := hv.Verify(cs.ServerName, cs); err != nil {
			return fmt.Errorf("verifying hostname %q: %w", cs.ServerName, err)
		}

		return nil
	}

	return tc
}

// trackedConn remembers when a connection was dialed so it can be
// retired once it outlives MaxConnectionLifetime.
type trackedConn struct {
	net.Conn
	born time.Time
}

// connAge returns how long ago conn was dialed, unwrapping TLS.
// ok is false for connections the client did not dial itself.
func connAge(conn net.Conn) (age time.Duration, ok bool) {
	if tc, isTLS := conn.(*tls.Conn); isTLS {
		conn = tc.NetConn()
	}

	t, ok := conn.(*trackedConn)
	if !ok {
		return 0, false
	}

	return time.Since(t.born), true
}

// tracing starts a client span per round trip and propagates it
// in the request headers.
type tracing struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	base       http.RoundTripper
}

func (t tracing) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx, span := t.tracer.Start(r.Context(), "HTTP "+r.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.full", r.URL.String()),
			attribute.String("server.address", r.URL.Hostname()),
		),
	)
	defer span.End()

	cpy := r.Clone(ctx)
	t.propagator.Inject(ctx, propagation.HeaderCarrier(cpy.Header))

	resp, err := t.base.RoundTrip(cpy)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, resp.Status)
	}

	return resp, nil
}

type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get("User-Agent") != "" {
		return ua.base.RoundTrip(r)
	}

	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// realmAuth sends preemptive credentials for the configured realm.
type realmAuth struct {
	realm *config.Realm
	base  http.RoundTripper
}

func (ra realmAuth) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	if !ra.realm.Apply(cpy) {
		return ra.base.RoundTrip(r)
	}
	return ra.base.RoundTrip(cpy)
}

// noSSLPool keeps TLS connections out of the idle pool.
type noSSLPool struct {
	base http.RoundTripper
}

func (n noSSLPool) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.URL.Scheme != "https" {
		return n.base.RoundTrip(r)
	}

	cpy := r.Clone(r.Context())
	cpy.Close = true
	return n.base.RoundTrip(cpy)
}

// compression gzips request bodies at level when level is positive, and
// when decode is set advertises and transparently decodes gzip, deflate
// and brotli responses.
type compression struct {
	level  int
	decode bool
	base   http.RoundTripper
}

func (c compression) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())

	if c.level > 0 && r.Body != nil && r.Body != http.NoBody && r.Header.Get("Content-Encoding") == "" {
		if err := compressBody(cpy, c.level); err != nil {
			return nil, err
		}
	}

	if c.decode && cpy.Header.Get("Accept-Encoding") == "" {
		cpy.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := c.base.RoundTrip(cpy)
	if err != nil || !c.decode {
		return resp, err
	}

	var open func(io.Reader) (io.ReadCloser, error)
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		open = func(r io.Reader) (io.ReadCloser, error) { return gzip.NewReader(r) }
	case "deflate":
		open = zlib.NewReader
	case "br":
		open = func(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(brotli.NewReader(r)), nil }
	default:
		return resp, nil
	}

	resp.Body = &decodingBody{src: resp.Body, open: open}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true

	return resp, nil
}

func compressBody(r *http.Request, level int) error {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return fmt.Errorf("gzip level %d: %w", level, err)
	}

	_, err = io.Copy(zw, r.Body)
	if cerr := r.Body.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("compressing request body: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing request body: %w", err)
	}

	b := buf.Bytes()
	r.Body = io.NopCloser(bytes.NewReader(b))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	r.ContentLength = int64(len(b))
	r.Header.Set("Content-Encoding", "gzip")

	return nil
}

// decodingBody opens the decompressor on first read, so a body the
// handler never reads costs nothing.
type decodingBody struct {
	src  io.ReadCloser
	open func(io.Reader) (io.ReadCloser, error)
	zr   io.ReadCloser
	err  error
}

func (d *decodingBody) Read(p []byte) (int, error) {
	if d.zr == nil && d.err == nil {
		d.zr, d.err = d.open(d.src)
	}
	if d.err != nil {
		return 0, d.err
	}
	return d.zr.Read(p)
}

func (d *decodingBody) Close() error {
	var zerr error
	if d.zr != nil {
		zerr = d.zr.Close()
	}
	return errors.Join(zerr, d.src.Close())
}

// connLimit caps the number of exchanges in flight. A slot is held
// until the response body is closed.
type connLimit struct {
	sem  *semaphore.Weighted
	max  int
	base http.RoundTripper
}

func (c connLimit) RoundTrip(r *http.Request) (*http.Response, error) {
	if !c.sem.TryAcquire(1) {
		return nil, fmt.Errorf("%w: %d", ErrTooManyConnections, c.max)
	}

	resp, err := c.base.RoundTrip(r)
	if err != nil {
		c.sem.Release(1)
		return nil, err
	}

	resp.Body = &releaseOnClose{ReadCloser: resp.Body, release: func() { c.sem.Release(1) }}

	return resp, nil
}

type releaseOnClose struct {
	io.ReadCloser
	once    sync.Once
	release func()
}

func (r *releaseOnClose) Close() error {
	err := r.ReadCloser.Close()
	r.once.Do(r.release)
	return err
}
