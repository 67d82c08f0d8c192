package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/adamwoolhether/asynchttp/executor"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Default policy values applied by New.
// A negative count means "no limit".
const (
	DefaultMaxTotalConnections                  = -1
	DefaultMaxConnectionsPerHost                = -1
	DefaultFollowRedirect                       = false
	DefaultMaxRedirects                         = 5
	DefaultCompressionEnabled                   = false
	DefaultUserAgent                            = "asynchttp/1.0"
	DefaultAllowPoolingConnection               = true
	DefaultUseRelativeURIsWithSSLProxies        = true
	DefaultRequestCompressionLevel              = -1
	DefaultMaxRequestRetry                      = 5
	DefaultIOThreadMultiplier                   = 2
	DefaultAllowSSLConnectionPool               = true
	DefaultDisableURLEncodingForBoundedRequests = false
	DefaultRemoveQueryParamOnRedirect           = true
	DefaultStrict302Handling                    = false
	DefaultAcceptAnyCertificate                 = false
)

// Default timeouts applied by New. A negative duration means "no limit".
const (
	DefaultConnectionTimeout           time.Duration = 60 * time.Second
	DefaultIdleConnectionInPoolTimeout time.Duration = 60 * time.Second
	DefaultIdleConnectionTimeout       time.Duration = 60 * time.Second
	DefaultRequestTimeout              time.Duration = 60 * time.Second
	DefaultWebSocketIdleTimeout        time.Duration = 15 * time.Minute
	DefaultMaxConnectionLifetime       time.Duration = -1
)

// Environment variables read when a Config is created.
const (
	EnvUseProxySelector   = "ASYNCHTTP_USE_PROXY_SELECTOR"
	EnvUseProxyProperties = "ASYNCHTTP_USE_PROXY_PROPERTIES"
)

// DefaultHostnameVerifier returns the verifier installed by New.
func DefaultHostnameVerifier() HostnameVerifier {
	return StrictHostnameVerifier{}
}

// DefaultUseProxySelector reports whether New installs the system proxy selector.
func DefaultUseProxySelector() bool {
	return envBool(EnvUseProxySelector)
}

// DefaultUseProxyProperties reports whether New installs a selector built
// from the proxy environment variables.
func DefaultUseProxyProperties() bool {
	return envBool(EnvUseProxyProperties)
}

// DefaultApplicationThreadPool returns the executor created by New.
func DefaultApplicationThreadPool(logger *slog.Logger) executor.Executor {
	return executor.New(executor.WithName(executor.DefaultName), executor.WithLogger(logger))
}

// DefaultTracer returns the no-op tracer installed by New.
func DefaultTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("github.com/adamwoolhether/asynchttp")
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return false
	}
	return v
}
