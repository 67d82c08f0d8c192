package config

import (
	"crypto/tls"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/adamwoolhether/asynchttp/executor"
	"github.com/adamwoolhether/asynchttp/filter"
	"go.opentelemetry.io/otel/trace"
)

// Config is the mutable policy of a client. Build it with New, adjust it
// with the setters during setup, then treat it as read-only.
type Config struct {
	maxTotalConnections                  int
	maxConnectionsPerHost                int
	connectionTimeout                    time.Duration
	idleConnectionInPoolTimeout          time.Duration
	idleConnectionTimeout                time.Duration
	requestTimeout                       time.Duration
	webSocketIdleTimeout                 time.Duration
	maxConnectionLifetime                time.Duration
	followRedirect                       bool
	maxRedirects                         int
	compressionEnabled                   bool
	userAgent                            string
	allowPoolingConnection               bool
	useRelativeURIsWithSSLProxies        bool
	requestCompressionLevel              int
	maxRequestRetry                      int
	ioThreadMultiplier                   int
	allowSSLConnectionPool               bool
	disableURLEncodingForBoundedRequests bool
	removeQueryParamOnRedirect           bool
	strict302Handling                    bool
	acceptAnyCertificate                 bool

	hostnameVerifier HostnameVerifier
	tlsConfig        *tls.Config
	proxySelector    ProxySelector
	realm            *Realm
	providerConfig   ProviderConfig
	connectionPool   ConnectionPool
	logger           *slog.Logger
	tracer           trace.Tracer

	requestFilters     []filter.RequestFilter
	responseFilters    []filter.ResponseFilter
	ioExceptionFilters []filter.IOExceptionFilter

	applicationThreadPool executor.Executor
}

// New returns a Config holding the default policy and a fresh executor.
func New() *Config {
	c := &Config{logger: slog.Default()}

	c.configureExecutors()
	c.configureDefaults()
	c.configureFilters()

	return c
}

func (c *Config) configureExecutors() {
	c.applicationThreadPool = DefaultApplicationThreadPool(c.logger)
}

func (c *Config) configureDefaults() {
	c.maxTotalConnections = DefaultMaxTotalConnections
	c.maxConnectionsPerHost = DefaultMaxConnectionsPerHost
	c.connectionTimeout = DefaultConnectionTimeout
	c.webSocketIdleTimeout = DefaultWebSocketIdleTimeout
	c.idleConnectionInPoolTimeout = DefaultIdleConnectionInPoolTimeout
	c.idleConnectionTimeout = DefaultIdleConnectionTimeout
	c.requestTimeout = DefaultRequestTimeout
	c.maxConnectionLifetime = DefaultMaxConnectionLifetime
	c.followRedirect = DefaultFollowRedirect
	c.maxRedirects = DefaultMaxRedirects
	c.compressionEnabled = DefaultCompressionEnabled
	c.userAgent = DefaultUserAgent
	c.allowPoolingConnection = DefaultAllowPoolingConnection
	c.useRelativeURIsWithSSLProxies = DefaultUseRelativeURIsWithSSLProxies
	c.requestCompressionLevel = DefaultRequestCompressionLevel
	c.maxRequestRetry = DefaultMaxRequestRetry
	c.ioThreadMultiplier = DefaultIOThreadMultiplier
	c.allowSSLConnectionPool = DefaultAllowSSLConnectionPool
	c.disableURLEncodingForBoundedRequests = DefaultDisableURLEncodingForBoundedRequests
	c.removeQueryParamOnRedirect = DefaultRemoveQueryParamOnRedirect
	c.strict302Handling = DefaultStrict302Handling
	c.hostnameVerifier = DefaultHostnameVerifier()
	c.acceptAnyCertificate = DefaultAcceptAnyCertificate
	c.tracer = DefaultTracer()

	if DefaultUseProxySelector() {
		c.proxySelector = NewSystemProxySelector()
	} else if DefaultUseProxyProperties() {
		c.proxySelector = NewPropertiesProxySelector(os.Getenv)
	}
}

func (c *Config) configureFilters() {
	c.requestFilters = []filter.RequestFilter{}
	c.responseFilters = []filter.ResponseFilter{}
	c.ioExceptionFilters = []filter.IOExceptionFilter{}
}

// Close shuts down the owned executor. Calling it more than once is a no-op.
func (c *Config) Close() error {
	if c.applicationThreadPool == nil {
		return nil
	}
	return c.applicationThreadPool.Shutdown()
}

// SetMaxTotalConnections caps the exchanges in flight across all hosts.
// A value of zero or below means unlimited.
func (c *Config) SetMaxTotalConnections(n int) *Config {
	c.maxTotalConnections = n
	return c
}

// SetMaxConnectionsPerHost caps the connections open to one host.
// A value of zero or below means unlimited.
func (c *Config) SetMaxConnectionsPerHost(n int) *Config {
	c.maxConnectionsPerHost = n
	return c
}

// SetConnectionTimeout bounds dialing and the TLS handshake.
// Zero or negative means no timeout.
func (c *Config) SetConnectionTimeout(d time.Duration) *Config {
	c.connectionTimeout = d
	return c
}

// SetIdleConnectionInPoolTimeout sets how long an unused pooled
// connection is kept. Zero or negative keeps it indefinitely.
func (c *Config) SetIdleConnectionInPoolTimeout(d time.Duration) *Config {
	c.idleConnectionInPoolTimeout = d
	return c
}

// SetIdleConnectionTimeout fails an exchange whose body read blocks for
// longer than d. Time spent in the handler is not counted.
// Zero or negative means no timeout.
func (c *Config) SetIdleConnectionTimeout(d time.Duration) *Config {
	c.idleConnectionTimeout = d
	return c
}

// SetRequestTimeout bounds a whole exchange, filters and body included.
// Zero or negative means no timeout.
func (c *Config) SetRequestTimeout(d time.Duration) *Config {
	c.requestTimeout = d
	return c
}

// SetWebSocketIdleTimeout is carried for providers that speak WebSocket.
func (c *Config) SetWebSocketIdleTimeout(d time.Duration) *Config {
	c.webSocketIdleTimeout = d
	return c
}

// SetMaxConnectionLifetime retires a connection once it is older than d
// at the end of an exchange. Zero or negative means connections never age out.
func (c *Config) SetMaxConnectionLifetime(d time.Duration) *Config {
	c.maxConnectionLifetime = d
	return c
}

// SetFollowRedirect toggles following 3xx responses.
func (c *Config) SetFollowRedirect(follow bool) *Config {
	c.followRedirect = follow
	return c
}

// SetMaxRedirects limits the redirects followed per exchange.
func (c *Config) SetMaxRedirects(n int) *Config {
	c.maxRedirects = n
	return c
}

// SetCompressionEnabled advertises gzip, deflate and br and decodes
// compressed responses.
func (c *Config) SetCompressionEnabled(enabled bool) *Config {
	c.compressionEnabled = enabled
	return c
}

// SetUserAgent sets the User-Agent of requests that carry none.
func (c *Config) SetUserAgent(ua string) *Config {
	c.userAgent = ua
	return c
}

// SetAllowPoolingConnection toggles keep-alive connection reuse.
func (c *Config) SetAllowPoolingConnection(allow bool) *Config {
	c.allowPoolingConnection = allow
	return c
}

// SetUseRelativeURIsWithSSLProxies is carried for providers that write
// the request line themselves.
func (c *Config) SetUseRelativeURIsWithSSLProxies(use bool) *Config {
	c.useRelativeURIsWithSSLProxies = use
	return c
}

// SetRequestCompressionLevel gzips request bodies at level 1 to 9.
// Zero or -1 sends bodies uncompressed.
func (c *Config) SetRequestCompressionLevel(level int) *Config {
	c.requestCompressionLevel = level
	return c
}

// SetMaxRequestRetry caps the replays filters may ask for per exchange.
func (c *Config) SetMaxRequestRetry(n int) *Config {
	c.maxRequestRetry = n
	return c
}

// SetIOThreadMultiplier is carried for providers sizing their I/O workers.
func (c *Config) SetIOThreadMultiplier(n int) *Config {
	c.ioThreadMultiplier = n
	return c
}

// SetAllowSSLConnectionPool toggles reuse of TLS connections.
func (c *Config) SetAllowSSLConnectionPool(allow bool) *Config {
	c.allowSSLConnectionPool = allow
	return c
}

// SetDisableURLEncodingForBoundedRequests is carried for providers that
// encode request URLs themselves.
func (c *Config) SetDisableURLEncodingForBoundedRequests(disable bool) *Config {
	c.disableURLEncodingForBoundedRequests = disable
	return c
}

// SetRemoveQueryParamOnRedirect stops copying the original query onto
// redirect targets that carry none.
func (c *Config) SetRemoveQueryParamOnRedirect(remove bool) *Config {
	c.removeQueryParamOnRedirect = remove
	return c
}

// SetStrict302Handling keeps the original method across a 302.
func (c *Config) SetStrict302Handling(strict bool) *Config {
	c.strict302Handling = strict
	return c
}

// SetAcceptAnyCertificate skips server certificate verification.
func (c *Config) SetAcceptAnyCertificate(accept bool) *Config {
	c.acceptAnyCertificate = accept
	return c
}

// SetHostnameVerifier checks the server name against the presented
// certificate after the handshake.
func (c *Config) SetHostnameVerifier(v HostnameVerifier) *Config {
	c.hostnameVerifier = v
	return c
}

// SetTLSConfig sets the base TLS configuration. It is cloned, never mutated.
func (c *Config) SetTLSConfig(tc *tls.Config) *Config {
	c.tlsConfig = tc
	return c
}

// SetProxyServer installs a selector that always answers p,
// replacing any selector set before.
func (c *Config) SetProxyServer(p *ProxyServer) *Config {
	c.proxySelector = NewSingleProxySelector(p)
	return c
}

// SetProxyServerSelector picks the proxy per request. A nil selector
// connects directly.
func (c *Config) SetProxyServerSelector(s ProxySelector) *Config {
	c.proxySelector = s
	return c
}

// SetRealm sets the credentials attached to every request.
func (c *Config) SetRealm(r *Realm) *Config {
	c.realm = r
	return c
}

// SetProviderConfig sets transport-specific settings.
func (c *Config) SetProviderConfig(pc ProviderConfig) *Config {
	c.providerConfig = pc
	return c
}

// SetConnectionPool replaces the transport the client builds from this
// Config. Pool sizing and timeout fields are then left to p.
func (c *Config) SetConnectionPool(p ConnectionPool) *Config {
	c.connectionPool = p
	return c
}

// SetLogger sets the logger. A nil logger falls back to slog.Default.
func (c *Config) SetLogger(logger *slog.Logger) *Config {
	c.logger = logger
	return c
}

// SetTracer sets the tracer spans are started from.
func (c *Config) SetTracer(tracer trace.Tracer) *Config {
	c.tracer = tracer
	return c
}

// SetApplicationThreadPool installs p as the executor running callbacks.
// The previous executor is shut down first: it stops accepting work and
// its running tasks are cancelled. A failed shutdown is logged only.
func (c *Config) SetApplicationThreadPool(p executor.Executor) *Config {
	if old := c.applicationThreadPool; old != nil && old != p {
		if err := old.Shutdown(); err != nil {
			c.Logger().Warn("shutting down replaced application thread pool", "error", err)
		}
	}

	c.applicationThreadPool = p
	return c
}

// AddRequestFilter appends f to the filters run before a request is sent.
func (c *Config) AddRequestFilter(f filter.RequestFilter) *Config {
	c.requestFilters = append(c.requestFilters, f)
	return c
}

// AddResponseFilter appends f to the filters run once headers arrive.
func (c *Config) AddResponseFilter(f filter.ResponseFilter) *Config {
	c.responseFilters = append(c.responseFilters, f)
	return c
}

// AddIOExceptionFilter appends f to the filters run when a send fails.
func (c *Config) AddIOExceptionFilter(f filter.IOExceptionFilter) *Config {
	c.ioExceptionFilters = append(c.ioExceptionFilters, f)
	return c
}

// /////////////////////////////////////////////////////////////////

// MaxTotalConnections returns the cap on exchanges in flight. Zero or below is unlimited.
func (c *Config) MaxTotalConnections() int { return c.maxTotalConnections }

// MaxConnectionsPerHost returns the per-host connection cap. Zero or below is unlimited.
func (c *Config) MaxConnectionsPerHost() int { return c.maxConnectionsPerHost }

// ConnectionTimeout returns the dial and handshake timeout. Zero or below is none.
func (c *Config) ConnectionTimeout() time.Duration { return c.connectionTimeout }

// IdleConnectionInPoolTimeout returns how long an unused pooled connection is kept.
func (c *Config) IdleConnectionInPoolTimeout() time.Duration { return c.idleConnectionInPoolTimeout }

// IdleConnectionTimeout returns the per-read body timeout. Zero or below is none.
func (c *Config) IdleConnectionTimeout() time.Duration { return c.idleConnectionTimeout }

// RequestTimeout returns the whole-exchange timeout. Zero or below is none.
func (c *Config) RequestTimeout() time.Duration { return c.requestTimeout }

// WebSocketIdleTimeout returns the WebSocket idle timeout.
func (c *Config) WebSocketIdleTimeout() time.Duration { return c.webSocketIdleTimeout }

// MaxConnectionLifetime returns the age past which a connection is retired.
func (c *Config) MaxConnectionLifetime() time.Duration { return c.maxConnectionLifetime }

// FollowRedirect reports whether redirects are followed.
func (c *Config) FollowRedirect() bool { return c.followRedirect }

// MaxRedirects returns the redirect limit per exchange.
func (c *Config) MaxRedirects() int { return c.maxRedirects }

// CompressionEnabled reports whether responses are decoded.
func (c *Config) CompressionEnabled() bool { return c.compressionEnabled }

// UserAgent returns the default User-Agent.
func (c *Config) UserAgent() string { return c.userAgent }

// AllowPoolingConnection reports whether connections are reused.
func (c *Config) AllowPoolingConnection() bool { return c.allowPoolingConnection }

// UseRelativeURIsWithSSLProxies reports whether relative URIs go to TLS proxies.
func (c *Config) UseRelativeURIsWithSSLProxies() bool { return c.useRelativeURIsWithSSLProxies }

// RequestCompressionLevel returns the gzip level for request bodies.
func (c *Config) RequestCompressionLevel() int { return c.requestCompressionLevel }

// MaxRequestRetry returns the replay limit per exchange.
func (c *Config) MaxRequestRetry() int { return c.maxRequestRetry }

// IOThreadMultiplier returns the I/O worker multiplier.
func (c *Config) IOThreadMultiplier() int { return c.ioThreadMultiplier }

// AllowSSLConnectionPool reports whether TLS connections are reused.
func (c *Config) AllowSSLConnectionPool() bool { return c.allowSSLConnectionPool }

// DisableURLEncodingForBoundedRequests reports whether request URLs are sent unencoded.
func (c *Config) DisableURLEncodingForBoundedRequests() bool {
	return c.disableURLEncodingForBoundedRequests
}

// RemoveQueryParamOnRedirect reports whether redirect targets go without
// the original query.
func (c *Config) RemoveQueryParamOnRedirect() bool { return c.removeQueryParamOnRedirect }

// Strict302Handling reports whether a 302 keeps the original method.
func (c *Config) Strict302Handling() bool { return c.strict302Handling }

// AcceptAnyCertificate reports whether certificate verification is skipped.
func (c *Config) AcceptAnyCertificate() bool { return c.acceptAnyCertificate }

// HostnameVerifier returns the post-handshake hostname check.
func (c *Config) HostnameVerifier() HostnameVerifier { return c.hostnameVerifier }

// TLSConfig returns the base TLS configuration.
func (c *Config) TLSConfig() *tls.Config { return c.tlsConfig }

// ProxyServerSelector returns the proxy selector, nil for direct connections.
func (c *Config) ProxyServerSelector() ProxySelector { return c.proxySelector }

// Realm returns the request credentials.
func (c *Config) Realm() *Realm { return c.realm }

// ProviderConfig returns the transport-specific settings.
func (c *Config) ProviderConfig() ProviderConfig { return c.providerConfig }

// ConnectionPool returns the user-supplied transport, if any.
func (c *Config) ConnectionPool() ConnectionPool { return c.connectionPool }

// ApplicationThreadPool returns the executor running exchanges.
func (c *Config) ApplicationThreadPool() executor.Executor { return c.applicationThreadPool }

// Tracer returns the tracer, nil when unset.
func (c *Config) Tracer() trace.Tracer { return c.tracer }

// Logger returns the configured logger, or slog.Default when unset.
func (c *Config) Logger() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// RequestFilters returns a copy of the request filters in the order added.
func (c *Config) RequestFilters() []filter.RequestFilter {
	return slices.Clone(c.requestFilters)
}

// ResponseFilters returns a copy of the response filters in the order added.
func (c *Config) ResponseFilters() []filter.ResponseFilter {
	return slices.Clone(c.responseFilters)
}

// IOExceptionFilters returns a copy of the I/O exception filters in the order added.
func (c *Config) IOExceptionFilters() []filter.IOExceptionFilter {
	return slices.Clone(c.ioExceptionFilters)
}
