package config

import (
	"crypto/tls"
	"time"
)

// Snapshot is a read-only copy of a Config's policy fields.
// Consumers take one when they start and never look at the Config again.
type Snapshot struct {
	MaxTotalConnections                  int           `json:"maxTotalConnections" validate:"gte=-1"`
	MaxConnectionsPerHost                int           `json:"maxConnectionsPerHost" validate:"gte=-1"`
	ConnectionTimeout                    time.Duration `json:"connectionTimeout"`
	IdleConnectionInPoolTimeout          time.Duration `json:"idleConnectionInPoolTimeout"`
	IdleConnectionTimeout                time.Duration `json:"idleConnectionTimeout"`
	RequestTimeout                       time.Duration `json:"requestTimeout"`
	WebSocketIdleTimeout                 time.Duration `json:"webSocketIdleTimeout"`
	MaxConnectionLifetime                time.Duration `json:"maxConnectionLifetime"`
	FollowRedirect                       bool          `json:"followRedirect"`
	MaxRedirects                         int           `json:"maxRedirects" validate:"gte=0"`
	CompressionEnabled                   bool          `json:"compressionEnabled"`
	UserAgent                            string        `json:"userAgent"`
	AllowPoolingConnection               bool          `json:"allowPoolingConnection"`
	UseRelativeURIsWithSSLProxies        bool          `json:"useRelativeURIsWithSSLProxies"`
	RequestCompressionLevel              int           `json:"requestCompressionLevel" validate:"gte=-1,lte=9"`
	MaxRequestRetry                      int           `json:"maxRequestRetry" validate:"gte=0"`
	IOThreadMultiplier                   int           `json:"ioThreadMultiplier" validate:"gte=1"`
	AllowSSLConnectionPool               bool          `json:"allowSSLConnectionPool"`
	DisableURLEncodingForBoundedRequests bool          `json:"disableURLEncodingForBoundedRequests"`
	RemoveQueryParamOnRedirect           bool          `json:"removeQueryParamOnRedirect"`
	Strict302Handling                    bool          `json:"strict302Handling"`
	AcceptAnyCertificate                 bool          `json:"acceptAnyCertificate"`

	Realm            *Realm           `json:"realm,omitempty" validate:"omitempty"`
	HostnameVerifier HostnameVerifier `json:"-" validate:"-"`
	TLSConfig        *tls.Config      `json:"-" validate:"-"`
	ProxySelector    ProxySelector    `json:"-" validate:"-"`
	ProviderConfig   ProviderConfig   `json:"-" validate:"-"`
	ConnectionPool   ConnectionPool   `json:"-" validate:"-"`
}

// Snapshot copies the policy fields of c. Filters, the executor, the
// logger and the tracer are not part of it; read them from c directly.
func (c *Config) Snapshot() Snapshot {
	s := Snapshot{
		MaxTotalConnections:                  c.maxTotalConnections,
		MaxConnectionsPerHost:                c.maxConnectionsPerHost,
		ConnectionTimeout:                    c.connectionTimeout,
		IdleConnectionInPoolTimeout:          c.idleConnectionInPoolTimeout,
		IdleConnectionTimeout:                c.idleConnectionTimeout,
		RequestTimeout:                       c.requestTimeout,
		WebSocketIdleTimeout:                 c.webSocketIdleTimeout,
		MaxConnectionLifetime:                c.maxConnectionLifetime,
		FollowRedirect:                       c.followRedirect,
		MaxRedirects:                         c.maxRedirects,
		CompressionEnabled:                   c.compressionEnabled,
		UserAgent:                            c.userAgent,
		AllowPoolingConnection:               c.allowPoolingConnection,
		UseRelativeURIsWithSSLProxies:        c.useRelativeURIsWithSSLProxies,
		RequestCompressionLevel:              c.requestCompressionLevel,
		MaxRequestRetry:                      c.maxRequestRetry,
		IOThreadMultiplier:                   c.ioThreadMultiplier,
		AllowSSLConnectionPool:               c.allowSSLConnectionPool,
		DisableURLEncodingForBoundedRequests: c.disableURLEncodingForBoundedRequests,
		RemoveQueryParamOnRedirect:           c.removeQueryParamOnRedirect,
		Strict302Handling:                    c.strict302Handling,
		AcceptAnyCertificate:                 c.acceptAnyCertificate,
		HostnameVerifier:                     c.hostnameVerifier,
		ProxySelector:                        c.proxySelector,
		ProviderConfig:                       c.providerConfig,
		ConnectionPool:                       c.connectionPool,
	}

	if c.realm != nil {
		r := *c.realm
		s.Realm = &r
	}
	if c.tlsConfig != nil {
		s.TLSConfig = c.tlsConfig.Clone()
	}

	return s
}
