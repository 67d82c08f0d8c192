package config_test

import (
	"context"
	"crypto/tls"
	"errors"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adamwoolhether/asynchttp/config"
	"github.com/adamwoolhether/asynchttp/executor"
	"github.com/adamwoolhether/asynchttp/filter"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// spyExecutor counts shutdown requests.
type spyExecutor struct {
	shutdowns atomic.Int32
	err       error
}

func (s *spyExecutor) Go(fn executor.Func) (*executor.Task, error) {
	return nil, errors.New("spy executor does not run work")
}

func (s *spyExecutor) Shutdown() error {
	s.shutdowns.Add(1)
	return s.err
}

func (s *spyExecutor) IsShutdown() bool { return s.shutdowns.Load() > 0 }

func TestNew_Defaults(t *testing.T) {
	cfg := config.New()
	defer cfg.Close()

	exp := config.Snapshot{
		MaxTotalConnections:                  config.DefaultMaxTotalConnections,
		MaxConnectionsPerHost:                config.DefaultMaxConnectionsPerHost,
		ConnectionTimeout:                    config.DefaultConnectionTimeout,
		IdleConnectionInPoolTimeout:          config.DefaultIdleConnectionInPoolTimeout,
		IdleConnectionTimeout:                config.DefaultIdleConnectionTimeout,
		RequestTimeout:                       config.DefaultRequestTimeout,
		WebSocketIdleTimeout:                 config.DefaultWebSocketIdleTimeout,
		MaxConnectionLifetime:                config.DefaultMaxConnectionLifetime,
		FollowRedirect:                       config.DefaultFollowRedirect,
		MaxRedirects:                         config.DefaultMaxRedirects,
		CompressionEnabled:                   config.DefaultCompressionEnabled,
		UserAgent:                            config.DefaultUserAgent,
		AllowPoolingConnection:               config.DefaultAllowPoolingConnection,
		UseRelativeURIsWithSSLProxies:        config.DefaultUseRelativeURIsWithSSLProxies,
		RequestCompressionLevel:              config.DefaultRequestCompressionLevel,
		MaxRequestRetry:                      config.DefaultMaxRequestRetry,
		IOThreadMultiplier:                   config.DefaultIOThreadMultiplier,
		AllowSSLConnectionPool:               config.DefaultAllowSSLConnectionPool,
		DisableURLEncodingForBoundedRequests: config.DefaultDisableURLEncodingForBoundedRequests,
		RemoveQueryParamOnRedirect:           config.DefaultRemoveQueryParamOnRedirect,
		Strict302Handling:                    config.DefaultStrict302Handling,
		AcceptAnyCertificate:                 config.DefaultAcceptAnyCertificate,
	}

	got := cfg.Snapshot()
	opts := cmpopts.IgnoreFields(config.Snapshot{}, "HostnameVerifier", "ProxySelector")
	if diff := cmp.Diff(exp, got, opts); diff != "" {
		t.Errorf("unexpected defaults (-want +got):\n%s", diff)
	}

	if _, ok := got.HostnameVerifier.(config.StrictHostnameVerifier); !ok {
		t.Errorf("expected strict hostname verifier, got %T", got.HostnameVerifier)
	}
	if len(cfg.RequestFilters()) != 0 || len(cfg.ResponseFilters()) != 0 || len(cfg.IOExceptionFilters()) != 0 {
		t.Error("expected all filter chains empty")
	}
	if cfg.RequestFilters() == nil || cfg.ResponseFilters() == nil || cfg.IOExceptionFilters() == nil {
		t.Error("filter chains must never be nil")
	}
	if cfg.ApplicationThreadPool() == nil {
		t.Error("expected an owned executor")
	}
	if cfg.Tracer() == nil {
		t.Error("expected a default tracer")
	}
}

func TestNew_ProxyDefaults(t *testing.T) {
	testCases := map[string]struct {
		env         map[string]string
		expSelector bool
	}{
		"none": {
			env:         map[string]string{},
			expSelector: false,
		},
		"systemSelector": {
			env:         map[string]string{config.EnvUseProxySelector: "true"},
			expSelector: true,
		},
		"properties": {
			env:         map[string]string{config.EnvUseProxyProperties: "1"},
			expSelector: true,
		},
		"garbage": {
			env:         map[string]string{config.EnvUseProxyProperties: "maybe"},
			expSelector: false,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(config.EnvUseProxySelector, "")
			t.Setenv(config.EnvUseProxyProperties, "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg := config.New()
			defer cfg.Close()

			if got := cfg.ProxyServerSelector() != nil; got != tc.expSelector {
				t.Errorf("expected selector installed %v, got %v", tc.expSelector, got)
			}
		})
	}
}

func TestNew_IndependentInstances(t *testing.T) {
	a := config.New()
	defer a.Close()
	b := config.New()
	defer b.Close()

	a.SetMaxRedirects(42).AddRequestFilter(filter.NewRequestID(""))

	if b.MaxRedirects() != config.DefaultMaxRedirects {
		t.Errorf("mutating one config changed another: %d", b.MaxRedirects())
	}
	if len(b.RequestFilters()) != 0 {
		t.Error("filters leaked between configs")
	}
	if a.ApplicationThreadPool() == b.ApplicationThreadPool() {
		t.Error("each config must own its executor")
	}
}

func TestConfig_SettersChain(t *testing.T) {
	cfg := config.New()
	defer cfg.Close()

	realm := config.NewBasicRealm("user", "secret")
	tlsCfg := &tls.Config{ServerName: "example.com"}
	props := config.Properties{}.Set("http2", true)

	same := cfg.
		SetMaxTotalConnections(100).
		SetMaxConnectionsPerHost(10).
		SetConnectionTimeout(time.Second).
		SetIdleConnectionInPoolTimeout(2 * time.Second).
		SetIdleConnectionTimeout(3 * time.Second).
		SetRequestTimeout(4 * time.Second).
		SetWebSocketIdleTimeout(5 * time.Second).
		SetMaxConnectionLifetime(6 * time.Second).
		SetFollowRedirect(true).
		SetMaxRedirects(7).
		SetCompressionEnabled(true).
		SetUserAgent("test/1.0").
		SetAllowPoolingConnection(false).
		SetUseRelativeURIsWithSSLProxies(false).
		SetRequestCompressionLevel(6).
		SetMaxRequestRetry(1).
		SetIOThreadMultiplier(4).
		SetAllowSSLConnectionPool(false).
		SetDisableURLEncodingForBoundedRequests(true).
		SetRemoveQueryParamOnRedirect(false).
		SetStrict302Handling(true).
		SetAcceptAnyCertificate(true).
		SetHostnameVerifier(config.AllowAllHostnameVerifier{}).
		SetTLSConfig(tlsCfg).
		SetRealm(realm).
		SetProviderConfig(props)

	if same != cfg {
		t.Fatal("setters must return the receiver")
	}

	exp := config.Snapshot{
		MaxTotalConnections:                  100,
		MaxConnectionsPerHost:                10,
		ConnectionTimeout:                    time.Second,
		IdleConnectionInPoolTimeout:          2 * time.Second,
		IdleConnectionTimeout:                3 * time.Second,
		RequestTimeout:                       4 * time.Second,
		WebSocketIdleTimeout:                 5 * time.Second,
		MaxConnectionLifetime:                6 * time.Second,
		FollowRedirect:                       true,
		MaxRedirects:                         7,
		CompressionEnabled:                   true,
		UserAgent:                            "test/1.0",
		AllowPoolingConnection:               false,
		UseRelativeURIsWithSSLProxies:        false,
		RequestCompressionLevel:              6,
		MaxRequestRetry:                      1,
		IOThreadMultiplier:                   4,
		AllowSSLConnectionPool:               false,
		DisableURLEncodingForBoundedRequests: true,
		RemoveQueryParamOnRedirect:           false,
		Strict302Handling:                    true,
		AcceptAnyCertificate:                 true,
		Realm:                                realm,
	}

	got := cfg.Snapshot()
	opts := cmpopts.IgnoreFields(config.Snapshot{}, "HostnameVerifier", "TLSConfig", "ProxySelector", "ProviderConfig", "ConnectionPool")
	if diff := cmp.Diff(exp, got, opts); diff != "" {
		t.Errorf("unexpected snapshot (-want +got):\n%s", diff)
	}

	if got.TLSConfig == tlsCfg || got.TLSConfig.ServerName != "example.com" {
		t.Error("expected snapshot to hold a clone of the TLS config")
	}
	if got.Realm == realm {
		t.Error("expected snapshot to hold a copy of the realm")
	}
	if v, ok := cfg.ProviderConfig().Property("http2"); !ok || v != true {
		t.Errorf("expected provider property, got %v %v", v, ok)
	}
}

func TestConfig_NoCrossFieldValidation(t *testing.T) {
	cfg := config.New().SetFollowRedirect(false).SetMaxRedirects(10)
	defer cfg.Close()

	if err := cfg.Validate(); err != nil {
		t.Errorf("redirect limit without redirects must be accepted, got %v", err)
	}
}

func TestConfig_SetApplicationThreadPool(t *testing.T) {
	cfg := config.New()
	defer cfg.Close()

	first := &spyExecutor{}
	second := &spyExecutor{}

	original := cfg.ApplicationThreadPool()
	cfg.SetApplicationThreadPool(first)
	if !original.IsShutdown() {
		t.Error("expected the default executor to be shut down on replacement")
	}

	cfg.SetApplicationThreadPool(second)
	if got := first.shutdowns.Load(); got != 1 {
		t.Errorf("expected exactly one shutdown request, got %d", got)
	}
	if cfg.ApplicationThreadPool() != second {
		t.Error("expected the new executor installed")
	}
	if second.shutdowns.Load() != 0 {
		t.Error("the installed executor must not be shut down")
	}
}

func TestConfig_SetApplicationThreadPoolSame(t *testing.T) {
	cfg := config.New()
	defer cfg.Close()

	pool := &spyExecutor{}
	cfg.SetApplicationThreadPool(pool).SetApplicationThreadPool(pool)

	if pool.shutdowns.Load() != 0 {
		t.Error("re-installing the current executor must not shut it down")
	}
}

func TestConfig_SetApplicationThreadPoolShutdownError(t *testing.T) {
	cfg := config.New()
	defer cfg.Close()

	failing := &spyExecutor{err: errors.New("stuck")}
	cfg.SetApplicationThreadPool(failing)

	next := &spyExecutor{}
	if cfg.SetApplicationThreadPool(next) != cfg {
		t.Fatal("expected receiver")
	}
	if cfg.ApplicationThreadPool() != next {
		t.Error("shutdown failure must not block replacement")
	}
}

func TestConfig_ReplacedPoolCancelsWork(t *testing.T) {
	cfg := config.New()
	defer cfg.Close()

	started := make(chan struct{})
	task, err := cfg.ApplicationThreadPool().Go(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatal(err)
	}
	<-started

	cfg.SetApplicationThreadPool(executor.New())

	if err := task.Err(); !errors.Is(err, context.Canceled) {
		t.Errorf("expected in-flight work cancelled, got %v", err)
	}
}

func TestConfig_CloseIdempotent(t *testing.T) {
	cfg := config.New()

	for i := 0; i < 3; i++ {
		if err := cfg.Close(); err != nil {
			t.Errorf("close %d: expected nil, got %v", i, err)
		}
	}
	if !cfg.ApplicationThreadPool().IsShutdown() {
		t.Error("expected executor shut down")
	}
}

func TestConfig_FilterOrder(t *testing.T) {
	cfg := config.New()
	defer cfg.Close()

	var calls []string
	f1 := filter.RequestFunc(func(_ context.Context, fc filter.Context) (filter.Context, error) {
		calls = append(calls, "f1")
		return fc, nil
	})
	f2 := filter.RequestFunc(func(_ context.Context, fc filter.Context) (filter.Context, error) {
		calls = append(calls, "f2")
		return fc, nil
	})

	cfg.AddRequestFilter(f1).AddRequestFilter(f2).AddRequestFilter(f1)

	filters := cfg.RequestFilters()
	if len(filters) != 3 {
		t.Fatalf("expected 3 filters, got %d", len(filters))
	}
	if _, err := filter.RunRequest(t.Context(), filters, filter.Context{}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"f1", "f2", "f1"}, calls); diff != "" {
		t.Errorf("unexpected order: %s", diff)
	}

	filters[0] = nil
	if cfg.RequestFilters()[0] == nil {
		t.Error("returned slice must be a copy")
	}

	cfg.AddResponseFilter(filter.NewReplayOnStatus(503)).AddIOExceptionFilter(filter.NewReplayOnError(nil))
	if len(cfg.ResponseFilters()) != 1 || len(cfg.IOExceptionFilters()) != 1 {
		t.Error("expected one response and one io exception filter")
	}
}

func TestConfig_SetProxyServer(t *testing.T) {
	cfg := config.New()
	defer cfg.Close()

	other := config.NewProxyServer("other", 1)
	cfg.SetProxyServerSelector(config.NewSingleProxySelector(other))

	p := config.NewProxyServer("proxy.internal", 3128)
	cfg.SetProxyServer(p)

	for _, raw := range []string{"http://example.com", "https://secure.example.com:8443/path?q=1", "http://localhost"} {
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatal(err)
		}
		if got := cfg.ProxyServerSelector().Select(u); got != p {
			t.Errorf("%s: expected %v, got %v", raw, p, got)
		}
	}
}
